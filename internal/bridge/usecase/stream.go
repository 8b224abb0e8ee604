package usecase

import (
	"context"
	"strings"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type EventsInput struct {
	UserID string `query:"userId" validate:"omitempty,account_id"`
}

// Events resolves the account like any other operation and subscribes to
// its events until ctx is done.
func (s *Usecase) Events(ctx context.Context, in EventsInput) (<-chan entity.Event, string, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return nil, "", goerror.NewInvalidInput(err)
	}

	acc, err := s.resolveAccount(ctx, in.UserID)
	if err != nil {
		return nil, "", err
	}

	return s.Subscribe(ctx, acc.ID), acc.ID, nil
}
