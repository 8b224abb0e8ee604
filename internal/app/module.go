package app

import (
	"log/slog"
	"os"

	"github.com/uluru/fbtotp/internal/bridge"
)

func (a *App) initModules() {
	if err := bridge.New(bridge.Dependency{
		Ctx:        a.ctx,
		Router:     a.router,
		Goroutine:  a.goroutine,
		Enforcer:   a.casbin,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		Validator:  a.validator,
		Clock:      a.clock,
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		JWT:        a.jwt,
		TOTP:       a.totp,
		Encryptor:  a.mfaEncryptor,
		HMAC:       a.hmac,
		UID:        a.uid,
		OID:        a.oid,
	}); err != nil {
		slog.Error("failed to init module bridge", "error", err, "host", bridge.HostDriver(a.config))
		os.Exit(1)
	}
}
