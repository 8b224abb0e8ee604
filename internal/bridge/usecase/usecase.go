package usecase

import (
	"context"
	"sync"

	"github.com/casbin/casbin/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/config"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/validator"
)

// Host is the authentication service the bridge forwards to. It owns code
// validation and the persistence of enrolled factors.
type Host interface {
	// CurrentAccount returns the account of the calling session, or
	// entity.ErrNoCurrentUser.
	CurrentAccount(ctx context.Context) (*entity.Account, error)
	// GetAccount looks up another account. Hosts bound to a client session
	// return entity.ErrLookupUnsupported.
	GetAccount(ctx context.Context, id string) (*entity.Account, error)

	BeginSession(ctx context.Context, acc entity.Account) (*entity.MFASession, error)
	GenerateSecret(ctx context.Context, sess entity.MFASession) (*entity.TOTPSecret, error)
	// EnrollFactor confirms the pending secret with a code. A wrong code is
	// entity.ErrInvalidCode and leaves the enrollment pending.
	EnrollFactor(ctx context.Context, acc entity.Account, cred entity.TOTPCredential, displayName string) (*entity.Factor, error)
	ListFactors(ctx context.Context, acc entity.Account) ([]entity.Factor, error)
	UnenrollFactor(ctx context.Context, acc entity.Account, factorID string) error
}

type repoMessaging interface {
	PublishEvent(ctx context.Context, evt entity.Event) error
}

type qrEncoder interface {
	DataURI(content string, size int) (string, error)
}

type Usecase struct {
	host          Host
	repoMessaging repoMessaging
	qr            qrEncoder
	validator     validator.Validator
	cfg           config.Config
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer

	streamMu sync.RWMutex
	streams  map[string]map[*subscriber]struct{}
}

type Dependency struct {
	Host          Host
	RepoMessaging repoMessaging
	QRCode        qrEncoder
	Validator     validator.Validator
	Config        config.Config
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		host:          dep.Host,
		repoMessaging: dep.RepoMessaging,
		qr:            dep.QRCode,
		validator:     dep.Validator,
		cfg:           dep.Config,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		streams:       make(map[string]map[*subscriber]struct{}),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("bridge.usecase").Start(ctx, name)
}
