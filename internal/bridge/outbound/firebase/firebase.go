// Package firebase is the authentication host backed by Firebase
// Authentication through the Identity Toolkit REST API. It acts with the
// caller's Firebase ID token, so it can only manage the caller's own factors.
package firebase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	itkv1 "google.golang.org/api/identitytoolkit/v1"
	itkv2 "google.golang.org/api/identitytoolkit/v2"
	"google.golang.org/api/option"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/auth"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

type Config struct {
	// TenantID scopes calls to an Identity Platform tenant. Empty means the project.
	TenantID string
	Clock    clock.Clocker
	// Options are passed to both Identity Toolkit services, typically
	// option.WithAPIKey and, in tests, option.WithEndpoint.
	Options []option.ClientOption
}

type Firebase struct {
	v1     *itkv1.Service
	v2     *itkv2.Service
	tenant string
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func New(ctx context.Context, cfg Config, ins instrument.Instrumentation) (*Firebase, error) {
	v1, err := itkv1.NewService(ctx, cfg.Options...)
	if err != nil {
		return nil, err
	}

	v2, err := itkv2.NewService(ctx, cfg.Options...)
	if err != nil {
		return nil, err
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Firebase{v1: v1, v2: v2, tenant: cfg.TenantID, clock: clk, ins: ins}, nil
}

func (f *Firebase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return f.ins.Tracer("bridge.outbound.firebase").Start(ctx, name)
}

func (f *Firebase) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrInvalidCode) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CurrentAccount resolves the ID token of the request through accounts:lookup.
func (f *Firebase) CurrentAccount(ctx context.Context) (acc *entity.Account, err error) {
	token := auth.Token(ctx)
	if token == "" {
		return nil, entity.ErrNoCurrentUser
	}

	ctx, span := f.startSpan(ctx, "CurrentAccount")
	defer func() { f.endSpan(span, err) }()

	user, err := f.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	return &entity.Account{ID: user.LocalId, Email: user.Email, AccessToken: token}, nil
}

func (f *Firebase) GetAccount(context.Context, string) (*entity.Account, error) {
	return nil, entity.ErrLookupUnsupported
}

// BeginSession needs no round trip: mfaEnrollment:start both opens the
// session and issues the secret.
func (f *Firebase) BeginSession(_ context.Context, acc entity.Account) (*entity.MFASession, error) {
	if acc.AccessToken == "" {
		return nil, entity.ErrNoCurrentUser
	}

	return &entity.MFASession{AccountID: acc.ID, Token: acc.AccessToken}, nil
}

func (f *Firebase) GenerateSecret(ctx context.Context, sess entity.MFASession) (sec *entity.TOTPSecret, err error) {
	ctx, span := f.startSpan(ctx, "GenerateSecret")
	defer func() { f.endSpan(span, err) }()

	resp, err := f.v2.Accounts.MfaEnrollment.Start(&itkv2.GoogleCloudIdentitytoolkitV2StartMfaEnrollmentRequest{
		IdToken:            sess.Token,
		TenantId:           f.tenant,
		TotpEnrollmentInfo: &itkv2.GoogleCloudIdentitytoolkitV2StartMfaTotpEnrollmentRequestInfo{},
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	info := resp.TotpSessionInfo
	if info == nil || info.SharedSecretKey == "" || info.SessionInfo == "" {
		return nil, errors.New("firebase: mfaEnrollment:start returned no totp session")
	}

	sec = &entity.TOTPSecret{Secret: info.SharedSecretKey, VerificationID: info.SessionInfo}
	if t, pErr := time.Parse(time.RFC3339Nano, info.FinalizeEnrollmentTime); pErr == nil {
		sec.ExpiresAt = t
	}

	return sec, nil
}

func (f *Firebase) EnrollFactor(ctx context.Context, acc entity.Account, cred entity.TOTPCredential, displayName string) (fac *entity.Factor, err error) {
	ctx, span := f.startSpan(ctx, "EnrollFactor")
	defer func() { f.endSpan(span, err) }()

	if cred.VerificationID == "" {
		return nil, entity.ErrNoPendingEnrollment
	}

	_, err = f.v2.Accounts.MfaEnrollment.Finalize(&itkv2.GoogleCloudIdentitytoolkitV2FinalizeMfaEnrollmentRequest{
		IdToken:     acc.AccessToken,
		DisplayName: displayName,
		TenantId:    f.tenant,
		TotpVerificationInfo: &itkv2.GoogleCloudIdentitytoolkitV2FinalizeMfaTotpEnrollmentRequestInfo{
			SessionInfo:      cred.VerificationID,
			VerificationCode: cred.Code,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}

	return &entity.Factor{
		AccountID:   acc.ID,
		Kind:        entity.FactorKindTOTP,
		DisplayName: displayName,
		EnrolledAt:  f.clock.Now(),
	}, nil
}

func (f *Firebase) ListFactors(ctx context.Context, acc entity.Account) (fs []entity.Factor, err error) {
	ctx, span := f.startSpan(ctx, "ListFactors")
	defer func() { f.endSpan(span, err) }()

	user, err := f.lookup(ctx, acc.AccessToken)
	if err != nil {
		return nil, err
	}

	fs = make([]entity.Factor, 0, len(user.MfaInfo))
	for _, m := range user.MfaInfo {
		if m == nil {
			continue
		}

		kind := entity.FactorKindUnknown
		switch {
		case m.TotpInfo != nil:
			kind = entity.FactorKindTOTP
		case m.PhoneInfo != "" || m.UnobfuscatedPhoneInfo != "":
			kind = entity.FactorKindPhone
		}

		enrolledAt, _ := time.Parse(time.RFC3339Nano, m.EnrolledAt)
		fs = append(fs, entity.Factor{
			ID:          m.MfaEnrollmentId,
			AccountID:   user.LocalId,
			Kind:        kind,
			DisplayName: m.DisplayName,
			EnrolledAt:  enrolledAt,
		})
	}

	return fs, nil
}

func (f *Firebase) UnenrollFactor(ctx context.Context, acc entity.Account, factorID string) (err error) {
	ctx, span := f.startSpan(ctx, "UnenrollFactor")
	defer func() { f.endSpan(span, err) }()

	_, err = f.v2.Accounts.MfaEnrollment.Withdraw(&itkv2.GoogleCloudIdentitytoolkitV2WithdrawMfaRequest{
		IdToken:         acc.AccessToken,
		MfaEnrollmentId: factorID,
		TenantId:        f.tenant,
	}).Context(ctx).Do()
	return mapError(err)
}

func (f *Firebase) lookup(ctx context.Context, token string) (*itkv1.GoogleCloudIdentitytoolkitV1UserInfo, error) {
	resp, err := f.v1.Accounts.Lookup(&itkv1.GoogleCloudIdentitytoolkitV1GetAccountInfoRequest{
		IdToken:  token,
		TenantId: f.tenant,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Users) == 0 || resp.Users[0] == nil {
		return nil, entity.ErrNoCurrentUser
	}

	return resp.Users[0], nil
}

// mapError translates Identity Toolkit error messages such as
// "INVALID_ID_TOKEN" or "INVALID_CODE : ..." into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	reason, _, _ := strings.Cut(gerr.Message, " ")
	switch reason {
	case "INVALID_CODE", "INVALID_VERIFICATION_CODE", "MISSING_CODE":
		return entity.ErrInvalidCode
	case "INVALID_SESSION_INFO", "MISSING_SESSION_INFO", "SESSION_EXPIRED", "INVALID_MFA_PENDING_CREDENTIAL":
		return errors.Join(entity.ErrNoPendingEnrollment, err)
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND", "USER_DISABLED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return errors.Join(entity.ErrNoCurrentUser, err)
	case "MFA_ENROLLMENT_NOT_FOUND":
		return goerror.ErrNotFound
	case "SECOND_FACTOR_EXISTS":
		return entity.ErrAlreadyEnrolled
	}

	if gerr.Code == http.StatusUnauthorized {
		return errors.Join(entity.ErrNoCurrentUser, err)
	}

	return err
}
