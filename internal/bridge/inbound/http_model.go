package inbound

import (
	"time"

	"github.com/uluru/fbtotp/internal/bridge/entity"
)

type EnrollRequest struct {
	UserID      string `json:"userId"`
	AccountName string `json:"accountName"`
	Issuer      string `json:"issuer"`
}

type EnrollResponse struct {
	SecretKey      string `json:"secretKey"`
	QRCodeURL      string `json:"qrCodeUrl"`
	VerificationID string `json:"verificationId,omitempty"`
	QRCodeImage    string `json:"qrCodeImage,omitempty"`
}

func (EnrollResponse) Message() string {
	return "TOTP enrollment started. Verify a code to complete it."
}

type VerifyRequest struct {
	Code           string `json:"code"`
	VerificationID string `json:"verificationId"`
	UserID         string `json:"userId"`
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"message,omitempty"`
}

type DisableRequest struct {
	UserID string `json:"userId"`
}

type DisableResponse struct{}

func (DisableResponse) Message() string {
	return "TOTP has been disabled"
}

type FactorResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"displayName"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}

type StatusResponse struct {
	AccountID   string          `json:"accountId"`
	TOTPEnabled bool            `json:"totpEnabled"`
	Factor      *FactorResponse `json:"factor,omitempty"`
}

// EventResponse is one frame of the event stream. Data holds the payload of
// the named event: an enrollment result, a verification result or an error.
type EventResponse struct {
	Event         string    `json:"event"`
	AccountID     string    `json:"accountId,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Data          any       `json:"data"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type ErrorEventData struct {
	Error string `json:"error"`
}

func toEventResponse(evt entity.Event) EventResponse {
	out := EventResponse{
		Event:         evt.Name.String(),
		AccountID:     evt.AccountID,
		CorrelationID: evt.CorrelationID,
		OccurredAt:    evt.OccurredAt,
	}

	switch {
	case evt.Enrollment != nil:
		out.Data = EnrollResponse{
			SecretKey:      evt.Enrollment.SecretKey,
			QRCodeURL:      evt.Enrollment.QRCodeURL,
			VerificationID: evt.Enrollment.VerificationID,
		}
	case evt.Verification != nil:
		out.Data = VerifyResponse{Success: evt.Verification.Success, Msg: evt.Verification.Message}
	case evt.Error != nil:
		out.Data = ErrorEventData{Error: evt.Error.Error}
	}

	return out
}
