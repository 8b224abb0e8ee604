package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type VerifyInput struct {
	// Code is judged by the host, so a malformed code resolves like a wrong one.
	Code           string `json:"code"`
	VerificationID string `json:"verificationId" validate:"max=4096"`
	UserID         string `json:"userId" validate:"omitempty,account_id"`
}

func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*entity.VerificationResult, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.VerificationID = strings.TrimSpace(in.VerificationID)
	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, s.fail(ctx, in.UserID, goerror.NewInvalidInput(err))
	}

	acc, err := s.resolveAccount(ctx, in.UserID)
	if err != nil {
		return nil, s.fail(ctx, in.UserID, err)
	}

	_, err = s.host.EnrollFactor(ctx, *acc, entity.TOTPCredential{
		VerificationID: in.VerificationID,
		Code:           in.Code,
	}, s.displayName())
	if errors.Is(err, entity.ErrInvalidCode) {
		slog.WarnContext(ctx, "totp code rejected by host", "account_id", acc.ID)
		return s.verified(ctx, acc.ID, false), nil
	}
	if errors.Is(err, entity.ErrNoPendingEnrollment) {
		slog.WarnContext(ctx, "no pending totp enrollment", "account_id", acc.ID)
		return nil, s.fail(ctx, acc.ID, s.mapError(err))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to enroll totp factor", "account_id", acc.ID, "error", err)
		return nil, s.fail(ctx, acc.ID, s.mapError(err))
	}

	return s.verified(ctx, acc.ID, true), nil
}

func (s *Usecase) verified(ctx context.Context, accountID string, ok bool) *entity.VerificationResult {
	res := &entity.VerificationResult{Success: ok, Message: entity.MessageInvalidCode}
	if ok {
		res.Message = entity.MessageVerification
	}

	out := *res
	s.emit(ctx, entity.Event{
		Name:         entity.EventVerificationComplete,
		AccountID:    accountID,
		Verification: &out,
	})

	return res
}

func (s *Usecase) displayName() string {
	if v := strings.TrimSpace(s.cfg.GetString("modules.bridge.factor_display_name")); v != "" {
		return v
	}
	return entity.DefaultDisplayName
}
