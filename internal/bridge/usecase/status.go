package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type StatusInput struct {
	UserID string `query:"userId" validate:"omitempty,account_id"`
}

func (s *Usecase) Status(ctx context.Context, in StatusInput) (*entity.TOTPStatus, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return nil, s.fail(ctx, in.UserID, goerror.NewInvalidInput(err))
	}

	acc, err := s.resolveAccount(ctx, in.UserID)
	if err != nil {
		return nil, s.fail(ctx, in.UserID, err)
	}

	factors, err := s.host.ListFactors(ctx, *acc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list enrolled factors", "account_id", acc.ID, "error", err)
		return nil, s.fail(ctx, acc.ID, s.mapError(err))
	}

	status := &entity.TOTPStatus{AccountID: acc.ID}
	if f, ok := lo.Find(factors, isTOTP); ok {
		status.TOTPEnabled = true
		status.Factor = &f
	}

	return status, nil
}
