package entity

import "strings"

type FactorKind int16

const (
	FactorKindUnknown FactorKind = iota
	FactorKindTOTP
	FactorKindPhone
)

func FactorKindFromString(s string) FactorKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "totp":
		return FactorKindTOTP
	case "phone", "sms":
		return FactorKindPhone
	default:
		return FactorKindUnknown
	}
}

func (k FactorKind) String() string {
	switch k {
	case FactorKindTOTP:
		return "totp"
	case FactorKindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// EventName is the name an event is delivered under.
type EventName string

const (
	EventEnrollmentComplete   EventName = "onEnrollmentComplete"
	EventVerificationComplete EventName = "onVerificationComplete"
	EventError                EventName = "onError"
)

func (n EventName) String() string {
	return string(n)
}
