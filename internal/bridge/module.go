// Package bridge wires the TOTP bridge: the usecase, the authentication host
// selected by configuration and the HTTP surface.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/uluru/fbtotp/internal/bridge/inbound"
	"github.com/uluru/fbtotp/internal/bridge/outbound/cache"
	"github.com/uluru/fbtotp/internal/bridge/outbound/db"
	"github.com/uluru/fbtotp/internal/bridge/outbound/firebase"
	"github.com/uluru/fbtotp/internal/bridge/outbound/host"
	"github.com/uluru/fbtotp/internal/bridge/outbound/memory"
	"github.com/uluru/fbtotp/internal/bridge/outbound/mq"
	"github.com/uluru/fbtotp/internal/bridge/usecase"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/config"
	"github.com/uluru/fbtotp/internal/pkg/goroutine"
	"github.com/uluru/fbtotp/internal/pkg/hash"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/jwt"
	"github.com/uluru/fbtotp/internal/pkg/messaging"
	"github.com/uluru/fbtotp/internal/pkg/mfa"
	"github.com/uluru/fbtotp/internal/pkg/otp"
	"github.com/uluru/fbtotp/internal/pkg/qrcode"
	"github.com/uluru/fbtotp/internal/pkg/router"
	"github.com/uluru/fbtotp/internal/pkg/uid"
	"github.com/uluru/fbtotp/internal/pkg/validator"
)

const (
	HostLocal    = "local"
	HostMemory   = "memory"
	HostFirebase = "firebase"
)

var (
	ErrUnknownHost = errors.New("bridge: unknown host driver")
	// ErrHostResources is returned when the local host lacks its database or cache.
	ErrHostResources = errors.New("bridge: local host requires database and redis")
	// ErrHostLibraries is returned when the local host lacks a signing, sealing or id library.
	ErrHostLibraries = errors.New("bridge: local host libraries are not configured")
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`

	// Local host only.
	DBConn    *pgxpool.Pool
	CacheConn *redis.Client
	JWT       jwt.JWT
	TOTP      otp.Generator
	Encryptor mfa.Encryptor
	HMAC      hash.Hasher
	UID       uid.NumberID
	OID       uid.StringID
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	h, err := newHost(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Host:          h,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Config.GetString("modules.bridge.event_topic"), dep.Instrument),
		QRCode:        qrcode.NewPNG(),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Ctx, dep.Router, uc, dep.Goroutine, dep.Config.GetArray("app.server.cors"))

	return nil
}

// HostDriver returns the configured host driver name.
func HostDriver(cfg config.Config) string {
	return strings.ToLower(strings.TrimSpace(cfg.GetString("modules.bridge.host.driver")))
}

func newHost(dep Dependency) (usecase.Host, error) {
	switch driver := HostDriver(dep.Config); driver {
	case HostLocal:
		if dep.DBConn == nil || dep.CacheConn == nil {
			return nil, ErrHostResources
		}

		store := db.NewDB(dep.DBConn, dep.Instrument)
		if dep.Config.GetBool("modules.bridge.host.local.migrate") {
			if err := store.EnsureSchema(dep.Ctx); err != nil {
				return nil, fmt.Errorf("bridge: ensure schema: %w", err)
			}
		}

		return newLocal(dep, store, cache.NewCache(dep.CacheConn, dep.Instrument))

	case HostMemory:
		store := memory.NewStore(dep.Clock)
		return newLocal(dep, store, store)

	case HostFirebase:
		opts := []option.ClientOption{}
		if v := strings.TrimSpace(dep.Config.GetString("modules.bridge.host.firebase.api_key")); v != "" {
			opts = append(opts, option.WithAPIKey(v))
		}
		if v := strings.TrimSpace(dep.Config.GetString("modules.bridge.host.firebase.endpoint")); v != "" {
			opts = append(opts, option.WithEndpoint(v))
		}

		return firebase.New(dep.Ctx, firebase.Config{
			TenantID: strings.TrimSpace(dep.Config.GetString("modules.bridge.host.firebase.tenant_id")),
			Clock:    dep.Clock,
			Options:  opts,
		}, dep.Instrument)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHost, driver)
	}
}

func newLocal(dep Dependency, factors host.FactorStore, pending host.PendingStore) (usecase.Host, error) {
	if dep.JWT == nil || dep.TOTP == nil || dep.Encryptor == nil || dep.HMAC == nil || dep.UID == nil || dep.OID == nil {
		return nil, ErrHostLibraries
	}

	return host.NewLocal(host.Dependency{
		Factors:    factors,
		Pending:    pending,
		JWT:        dep.JWT,
		TOTP:       dep.TOTP,
		Encryptor:  dep.Encryptor,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		OID:        dep.OID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		PendingTTL: dep.Config.GetMinute("modules.bridge.host.local.pending_ttl_minutes"),
	}), nil
}
