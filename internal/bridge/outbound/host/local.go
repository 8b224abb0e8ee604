// Package host holds the reference authentication host: it validates codes
// itself and keeps factors in the stores it is given.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/auth"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/hash"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/jwt"
	"github.com/uluru/fbtotp/internal/pkg/mfa"
	"github.com/uluru/fbtotp/internal/pkg/otp"
	"github.com/uluru/fbtotp/internal/pkg/uid"
)

const (
	// DefaultPendingTTL bounds how long an enrollment waits for its first code.
	DefaultPendingTTL = 10 * time.Minute

	secretIssuer     = "fbtotp"
	secretKeyVersion = 1
)

// FactorStore persists accounts and enrolled factors.
type FactorStore interface {
	GetAccount(ctx context.Context, id string) (*entity.Account, error)
	UpsertAccount(ctx context.Context, acc entity.Account) error
	ListFactors(ctx context.Context, accountID string) ([]entity.StoredFactor, error)
	CreateFactor(ctx context.Context, f entity.StoredFactor) error
	DeleteFactor(ctx context.Context, accountID, factorID string) error
}

// PendingStore is the single-slot register of enrollments awaiting a code.
type PendingStore interface {
	PutPending(ctx context.Context, p entity.PendingEnrollment) error
	GetPending(ctx context.Context, accountID string) (*entity.PendingEnrollment, error)
	// DeletePending removes the register only while it still holds hash.
	DeletePending(ctx context.Context, accountID, verificationHash string) error
}

type Dependency struct {
	Factors    FactorStore
	Pending    PendingStore
	JWT        jwt.JWT
	TOTP       otp.Generator
	Encryptor  mfa.Encryptor
	HMAC       hash.Hasher
	UID        uid.NumberID
	OID        uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	PendingTTL time.Duration
}

// Local is a complete authentication host. Sessions are HS512 tokens minted
// by the identity service that shares the signing secret.
type Local struct {
	factors    FactorStore
	pending    PendingStore
	jwt        jwt.JWT
	totp       otp.Generator
	enc        mfa.Encryptor
	hmac       hash.Hasher
	uid        uid.NumberID
	oid        uid.StringID
	clock      clock.Clocker
	ins        instrument.Instrumentation
	pendingTTL time.Duration
}

func NewLocal(dep Dependency) *Local {
	ttl := dep.PendingTTL
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}

	return &Local{
		factors:    dep.Factors,
		pending:    dep.Pending,
		jwt:        dep.JWT,
		totp:       dep.TOTP,
		enc:        dep.Encryptor,
		hmac:       dep.HMAC,
		uid:        dep.UID,
		oid:        dep.OID,
		clock:      dep.Clock,
		ins:        dep.Instrument,
		pendingTTL: ttl,
	}
}

func (l *Local) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return l.ins.Tracer("bridge.outbound.host").Start(ctx, name)
}

func (l *Local) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrInvalidCode) && !errors.Is(err, entity.ErrNoCurrentUser) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (l *Local) CurrentAccount(ctx context.Context) (*entity.Account, error) {
	token := auth.Token(ctx)
	if token == "" {
		return nil, entity.ErrNoCurrentUser
	}

	claims, err := l.jwt.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrNoCurrentUser, err)
	}

	return &entity.Account{
		ID:          claims.AccountID(),
		Email:       claims.Email,
		AccessToken: token,
	}, nil
}

// GetAccount finds accounts that have started an enrollment at least once.
func (l *Local) GetAccount(ctx context.Context, id string) (acc *entity.Account, err error) {
	ctx, span := l.startSpan(ctx, "GetAccount")
	defer func() { l.endSpan(span, err) }()

	return l.factors.GetAccount(ctx, id)
}

func (l *Local) BeginSession(ctx context.Context, acc entity.Account) (sess *entity.MFASession, err error) {
	ctx, span := l.startSpan(ctx, "BeginSession")
	defer func() { l.endSpan(span, err) }()

	if err = l.factors.UpsertAccount(ctx, acc); err != nil {
		return nil, err
	}

	return &entity.MFASession{
		ID:        l.oid.Generate(),
		AccountID: acc.ID,
		Token:     acc.AccessToken,
		ExpiresAt: l.clock.Now().Add(l.pendingTTL),
	}, nil
}

// GenerateSecret issues a secret and parks it, sealed, in the pending
// register. The session id becomes the verification id; only its digest is
// stored.
func (l *Local) GenerateSecret(ctx context.Context, sess entity.MFASession) (sec *entity.TOTPSecret, err error) {
	ctx, span := l.startSpan(ctx, "GenerateSecret")
	defer func() { l.endSpan(span, err) }()

	secret, err := l.totp.NewSecret(secretIssuer, sess.AccountID)
	if err != nil {
		return nil, err
	}

	sealed, err := l.enc.Encrypt([]byte(secret), mfa.Scope{AccountID: sess.AccountID, Purpose: mfa.PurposePendingSecret})
	if err != nil {
		return nil, err
	}

	if err = l.pending.PutPending(ctx, entity.PendingEnrollment{
		AccountID:        sess.AccountID,
		VerificationHash: l.hmac.Hash(sess.ID),
		Secret:           sealed,
		CreatedAt:        l.clock.Now(),
		ExpiresAt:        sess.ExpiresAt,
	}); err != nil {
		return nil, err
	}

	return &entity.TOTPSecret{
		Secret:         secret,
		VerificationID: sess.ID,
		ExpiresAt:      sess.ExpiresAt,
	}, nil
}

// EnrollFactor checks cred against the pending secret. An empty verification
// id means the cached secret of the account, whichever attempt it belongs to.
func (l *Local) EnrollFactor(ctx context.Context, acc entity.Account, cred entity.TOTPCredential, displayName string) (f *entity.Factor, err error) {
	ctx, span := l.startSpan(ctx, "EnrollFactor")
	defer func() { l.endSpan(span, err) }()

	now := l.clock.Now()

	p, err := l.pending.GetPending(ctx, acc.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, entity.ErrNoPendingEnrollment
	}
	if err != nil {
		return nil, err
	}
	if !now.Before(p.ExpiresAt) {
		return nil, entity.ErrNoPendingEnrollment
	}
	if cred.VerificationID != "" && !l.hmac.Verify(p.VerificationHash, cred.VerificationID) {
		return nil, entity.ErrNoPendingEnrollment
	}

	secret, err := l.enc.Decrypt(p.Secret, mfa.Scope{AccountID: acc.ID, Purpose: mfa.PurposePendingSecret})
	if err != nil {
		return nil, err
	}

	if !l.totp.Validate(cred.Code, string(secret), now) {
		return nil, entity.ErrInvalidCode
	}

	sealed, err := l.enc.Encrypt(secret, mfa.Scope{AccountID: acc.ID, Purpose: mfa.PurposeTOTPSecret})
	if err != nil {
		return nil, err
	}

	stored := entity.StoredFactor{
		Factor: entity.Factor{
			ID:          strconv.FormatInt(l.uid.Generate(), 10),
			AccountID:   acc.ID,
			Kind:        entity.FactorKindTOTP,
			DisplayName: displayName,
			EnrolledAt:  now,
		},
		Secret:     sealed,
		KeyVersion: secretKeyVersion,
	}

	err = l.factors.CreateFactor(ctx, stored)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, entity.ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, err
	}

	if dErr := l.pending.DeletePending(ctx, acc.ID, p.VerificationHash); dErr != nil && !errors.Is(dErr, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to clear pending enrollment", "account_id", acc.ID, "error", dErr)
	}

	return &stored.Factor, nil
}

func (l *Local) ListFactors(ctx context.Context, acc entity.Account) (fs []entity.Factor, err error) {
	ctx, span := l.startSpan(ctx, "ListFactors")
	defer func() { l.endSpan(span, err) }()

	stored, err := l.factors.ListFactors(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	return lo.Map(stored, func(f entity.StoredFactor, _ int) entity.Factor {
		return f.Factor
	}), nil
}

func (l *Local) UnenrollFactor(ctx context.Context, acc entity.Account, factorID string) (err error) {
	ctx, span := l.startSpan(ctx, "UnenrollFactor")
	defer func() { l.endSpan(span, err) }()

	return l.factors.DeleteFactor(ctx, acc.ID, factorID)
}
