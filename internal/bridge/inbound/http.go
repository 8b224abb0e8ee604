package inbound

import (
	"context"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/bridge/usecase"
	"github.com/uluru/fbtotp/internal/pkg/goroutine"
	"github.com/uluru/fbtotp/internal/pkg/router"
)

type uc interface {
	Enroll(ctx context.Context, in usecase.EnrollInput) (*usecase.EnrollOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*entity.VerificationResult, error)
	Disable(ctx context.Context, in usecase.DisableInput) error
	Status(ctx context.Context, in usecase.StatusInput) (*entity.TOTPStatus, error)
	Events(ctx context.Context, in usecase.EventsInput) (<-chan entity.Event, string, error)
}

// RegisterHTTPEndpoint mounts the bridge routes. Event streams end when base
// is done.
func RegisterHTTPEndpoint(base context.Context, r *router.Router, uc uc, gm *goroutine.Manager, origins []string) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/totp/enroll", end.Enroll)
	r.POST("/api/v1/totp/verify", end.Verify)
	r.POST("/api/v1/totp/disable", end.Disable)
	r.GET("/api/v1/totp/status", end.Status)

	r.GETRaw("/api/v1/totp/events", newWSEndpoint(base, uc, gm, origins))
}
