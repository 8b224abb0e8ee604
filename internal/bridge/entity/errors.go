package entity

import "errors"

var (
	// ErrNoCurrentUser means no account could be resolved for the call.
	ErrNoCurrentUser = errors.New("no current user")

	// ErrUserMismatch means the requested account is not the session account
	// and the caller may not act on its behalf.
	ErrUserMismatch = errors.New("user mismatch")

	// ErrInvalidCode means the host evaluated the code and rejected it.
	ErrInvalidCode = errors.New("invalid totp code")

	// ErrNoPendingEnrollment means there is nothing to verify against, or the
	// verification id does not belong to the account.
	ErrNoPendingEnrollment = errors.New("no pending totp enrollment")

	// ErrAlreadyEnrolled means the account already has a TOTP factor.
	ErrAlreadyEnrolled = errors.New("totp already enrolled")

	// ErrLookupUnsupported is returned by hosts that can only act on the
	// session account.
	ErrLookupUnsupported = errors.New("account lookup unsupported")
)
