package mq

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/messaging"
)

const (
	// EventTopic is where bridge events are published.
	EventTopic = "bridge.totp.events"

	keyOfCorrelationID = "cID"
	keyOfEventName     = "event"
)

// EventMessage is the broker payload. Secrets never leave the process: an
// enrollment event carries the verification id only.
type EventMessage struct {
	Event        string               `json:"event"`
	AccountID    string               `json:"accountId"`
	Enrollment   *EnrollmentPayload   `json:"enrollment,omitempty"`
	Verification *VerificationPayload `json:"verification,omitempty"`
	Error        *ErrorPayload        `json:"error,omitempty"`
	OccurredAt   time.Time            `json:"occurredAt"`
}

type EnrollmentPayload struct {
	VerificationID string `json:"verificationId,omitempty"`
}

type VerificationPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type Messaging struct {
	client messaging.Publisher
	topic  string
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, topic string, ins instrument.Instrumentation) *Messaging {
	if topic == "" {
		topic = EventTopic
	}
	return &Messaging{client: client, topic: topic, ins: ins}
}

func (m *Messaging) PublishEvent(ctx context.Context, evt entity.Event) error {
	ctx, span := m.ins.Tracer("bridge.outbound.mq").Start(ctx, "PublishEvent")
	defer span.End()

	body, err := json.Marshal(toMessage(evt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := evt.CorrelationID
	if cID == "" {
		cID = instrument.GetCorrelationID(ctx)
	}

	if _, err := m.client.Publish(ctx, m.topic, messaging.Message{
		Key:  evt.AccountID,
		Body: body,
		Headers: map[string]string{
			keyOfCorrelationID: cID,
			keyOfEventName:     evt.Name.String(),
		},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func toMessage(evt entity.Event) EventMessage {
	msg := EventMessage{
		Event:      evt.Name.String(),
		AccountID:  evt.AccountID,
		OccurredAt: evt.OccurredAt,
	}
	if evt.Enrollment != nil {
		msg.Enrollment = &EnrollmentPayload{VerificationID: evt.Enrollment.VerificationID}
	}
	if evt.Verification != nil {
		msg.Verification = &VerificationPayload{Success: evt.Verification.Success, Message: evt.Verification.Message}
	}
	if evt.Error != nil {
		msg.Error = &ErrorPayload{Error: evt.Error.Error}
	}
	return msg
}
