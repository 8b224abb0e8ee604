package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/config"
	"github.com/uluru/fbtotp/internal/pkg/goroutine"
	"github.com/uluru/fbtotp/internal/pkg/hash"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/jwt"
	"github.com/uluru/fbtotp/internal/pkg/messaging"
	"github.com/uluru/fbtotp/internal/pkg/mfa"
	"github.com/uluru/fbtotp/internal/pkg/otp"
	"github.com/uluru/fbtotp/internal/pkg/router"
	"github.com/uluru/fbtotp/internal/pkg/uid"
	"github.com/uluru/fbtotp/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hasher
	uid          uid.NumberID
	oid          uid.StringID
	uuid         uid.StringID
	totp         otp.Generator
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	messaging messaging.Publisher
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
