package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type DisableInput struct {
	UserID string `json:"userId" validate:"omitempty,account_id"`
}

// Disable removes the account's TOTP factor. Having none is not an error.
func (s *Usecase) Disable(ctx context.Context, in DisableInput) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return s.fail(ctx, in.UserID, goerror.NewInvalidInput(err))
	}

	acc, err := s.resolveAccount(ctx, in.UserID)
	if err != nil {
		return s.fail(ctx, in.UserID, err)
	}

	factors, err := s.host.ListFactors(ctx, *acc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list enrolled factors", "account_id", acc.ID, "error", err)
		return s.fail(ctx, acc.ID, s.mapError(err))
	}

	factor, found := lo.Find(factors, isTOTP)
	if !found {
		slog.InfoContext(ctx, "no totp factor enrolled, nothing to disable", "account_id", acc.ID)
		return nil
	}

	err = s.host.UnenrollFactor(ctx, *acc, factor.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "totp factor already removed", "account_id", acc.ID, "factor_id", factor.ID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to unenroll totp factor", "account_id", acc.ID, "factor_id", factor.ID, "error", err)
		return s.fail(ctx, acc.ID, s.mapError(err))
	}

	return nil
}
