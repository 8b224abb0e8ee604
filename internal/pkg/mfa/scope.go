package mfa

// Purpose names what a sealed value is used for.
type Purpose string

const (
	// PurposeTOTPSecret scopes sealing to TOTP shared secrets.
	PurposeTOTPSecret Purpose = "totp_secret"
	// PurposePendingSecret scopes sealing to secrets awaiting verification.
	PurposePendingSecret Purpose = "totp_pending"
)

// Scope binds a sealed value to its owner. It is fed to AES-GCM as
// additional authenticated data and to HKDF as context info.
type Scope struct {
	AccountID string
	Purpose   Purpose
}

func (s Scope) canonical() string {
	return "account=" + s.AccountID + "\npurpose=" + string(s.Purpose) + "\n"
}
