package usecase

import (
	"context"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

const subscriberBuffer = 16

type subscriber struct {
	ch     chan entity.Event
	closed atomic.Bool
}

// Subscribe registers an observer for the events of accountID until ctx is
// done, then closes the channel. An empty accountID observes every account.
// Slow observers miss events rather than block operations.
func (s *Usecase) Subscribe(ctx context.Context, accountID string) <-chan entity.Event {
	sub := &subscriber{ch: make(chan entity.Event, subscriberBuffer)}

	s.streamMu.Lock()
	if s.streams[accountID] == nil {
		s.streams[accountID] = make(map[*subscriber]struct{})
	}
	s.streams[accountID][sub] = struct{}{}
	s.streamMu.Unlock()

	go func() {
		<-ctx.Done()
		s.streamMu.Lock()
		if subs := s.streams[accountID]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(s.streams, accountID)
			}
		}
		sub.closed.Store(true)
		close(sub.ch)
		s.streamMu.Unlock()
	}()

	return sub.ch
}

func (s *Usecase) emit(ctx context.Context, evt entity.Event) {
	evt.CorrelationID = instrument.GetCorrelationID(ctx)
	evt.OccurredAt = s.clock.Now()

	s.streamMu.RLock()
	s.deliver(s.streams[evt.AccountID], evt)
	if evt.AccountID != "" {
		s.deliver(s.streams[""], evt)
	}
	s.streamMu.RUnlock()

	if s.repoMessaging == nil {
		return
	}
	if err := s.repoMessaging.PublishEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "failed to publish bridge event", "account_id", evt.AccountID, "event", evt.Name, "error", err)
	}
}

// deliver must be called with streamMu held.
func (s *Usecase) deliver(subs map[*subscriber]struct{}, evt entity.Event) {
	for sub := range subs {
		if sub.closed.Load() {
			continue
		}

		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// fail emits onError for a rejected operation and returns err unchanged, so
// every rejection reaches both the caller and the observers.
func (s *Usecase) fail(ctx context.Context, accountID string, err error) error {
	s.emit(ctx, entity.Event{
		Name:      entity.EventError,
		AccountID: accountID,
		Error:     &entity.ErrorEvent{Error: err.Error()},
	})
	return err
}
