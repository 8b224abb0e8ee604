package entity

import "time"

const (
	// DefaultAccountName labels the authenticator entry when the account has no email.
	DefaultAccountName = "user"
	// DefaultDisplayName is the name TOTP factors are enrolled under.
	DefaultDisplayName = "TOTP"

	MessageInvalidCode  = "Invalid TOTP code"
	MessageVerification = "TOTP verification successful"
)

// Account is the identity an operation acts on. It is resolved per call.
type Account struct {
	ID    string
	Email string
	// AccessToken is the host credential for this account, when the host has one.
	AccessToken string
}

type MFASession struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
}

// TOTPSecret is a shared secret issued by the host for one enrollment attempt.
type TOTPSecret struct {
	Secret         string
	VerificationID string
	ExpiresAt      time.Time
}

type TOTPCredential struct {
	VerificationID string
	Code           string
}

type Factor struct {
	ID          string
	AccountID   string
	Kind        FactorKind
	DisplayName string
	EnrolledAt  time.Time
}

// StoredFactor is a factor as persisted by the local host, secret sealed.
type StoredFactor struct {
	Factor
	Secret     []byte
	KeyVersion int16
}

// PendingEnrollment is the single-slot register of a secret waiting for its
// first valid code. A newer enrollment for the same account replaces it.
type PendingEnrollment struct {
	AccountID        string
	VerificationHash string
	Secret           []byte
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

type EnrollmentResult struct {
	SecretKey      string
	QRCodeURL      string
	VerificationID string
}

type VerificationResult struct {
	Success bool
	Message string
}

type ErrorEvent struct {
	Error string
}

type TOTPStatus struct {
	AccountID   string
	TOTPEnabled bool
	Factor      *Factor
}

// Event is one notification of the bridge vocabulary. Exactly one of the
// payload fields is set, according to Name.
type Event struct {
	Name          EventName
	AccountID     string
	CorrelationID string
	Enrollment    *EnrollmentResult
	Verification  *VerificationResult
	Error         *ErrorEvent
	OccurredAt    time.Time
}
