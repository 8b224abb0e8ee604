package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/otp"
)

// DefaultIssuer labels authenticator entries when neither the caller nor the
// configuration names one.
const DefaultIssuer = "FirebaseTOTP"

type EnrollInput struct {
	UserID      string `json:"userId" validate:"omitempty,account_id"`
	AccountName string `json:"accountName" validate:"omitempty,max=256"`
	Issuer      string `json:"issuer" validate:"omitempty,max=128"`
}

type EnrollOutput struct {
	entity.EnrollmentResult
	// QRCodeImage is a PNG data URI of QRCodeURL, empty when disabled.
	QRCodeImage string
}

func (s *Usecase) Enroll(ctx context.Context, in EnrollInput) (*EnrollOutput, error) {
	ctx, span := s.startSpan(ctx, "Enroll")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.Issuer = strings.TrimSpace(in.Issuer)
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
	if lo.ContainsBy(factors, isTOTP) {
		slog.WarnContext(ctx, "totp factor already enrolled", "account_id", acc.ID)
		return nil, s.fail(ctx, acc.ID, s.mapError(entity.ErrAlreadyEnrolled))
	}

	sess, err := s.host.BeginSession(ctx, *acc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to begin multi-factor session", "account_id", acc.ID, "error", err)
		return nil, s.fail(ctx, acc.ID, s.mapError(err))
	}

	secret, err := s.host.GenerateSecret(ctx, *sess)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "account_id", acc.ID, "error", err)
		return nil, s.fail(ctx, acc.ID, s.mapError(err))
	}

	uri := otp.ProvisioningURI(secret.Secret, s.issuer(in.Issuer), accountName(in.AccountName, acc))
	out := &EnrollOutput{
		EnrollmentResult: entity.EnrollmentResult{
			SecretKey:      secret.Secret,
			QRCodeURL:      uri,
			VerificationID: secret.VerificationID,
		},
	}

	if size := s.cfg.GetInt("modules.bridge.qr_image_size"); size > 0 && s.qr != nil {
		img, err := s.qr.DataURI(uri, size)
		if err != nil {
			slog.WarnContext(ctx, "failed to render qr code image", "account_id", acc.ID, "error", err)
		} else {
			out.QRCodeImage = img
		}
	}

	result := out.EnrollmentResult
	s.emit(ctx, entity.Event{
		Name:       entity.EventEnrollmentComplete,
		AccountID:  acc.ID,
		Enrollment: &result,
	})

	return out, nil
}

func (s *Usecase) issuer(requested string) string {
	if requested != "" {
		return requested
	}
	if v := strings.TrimSpace(s.cfg.GetString("modules.bridge.default_issuer")); v != "" {
		return v
	}
	return DefaultIssuer
}

func accountName(requested string, acc *entity.Account) string {
	if requested != "" {
		return requested
	}
	if acc.Email != "" {
		return acc.Email
	}
	return entity.DefaultAccountName
}

func isTOTP(f entity.Factor) bool {
	return f.Kind == entity.FactorKindTOTP
}
