package inbound

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uluru/fbtotp/internal/bridge/usecase"
	"github.com/uluru/fbtotp/internal/pkg/goroutine"
	"github.com/uluru/fbtotp/internal/pkg/router"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxClientMessage = 512
)

// wsEndpoint streams bridge events (onEnrollmentComplete,
// onVerificationComplete, onError) of one account as JSON text frames.
type wsEndpoint struct {
	base     context.Context
	uc       uc
	gm       *goroutine.Manager
	upgrader websocket.Upgrader
}

func newWSEndpoint(base context.Context, uc uc, gm *goroutine.Manager, origins []string) *wsEndpoint {
	return &wsEndpoint{
		base: base,
		uc:   uc,
		gm:   gm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(origins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, origin) })
	}
}

func (h *wsEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.base, cancel)
	defer stop()

	stream, accountID, err := h.uc.Events(ctx, usecase.EventsInput{UserID: strings.TrimSpace(r.URL.Query().Get("userId"))})
	if err != nil {
		router.WriteError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "failed to upgrade event stream", "account_id", accountID, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The client never sends anything meaningful; reading is only how close
	// frames and pongs are noticed.
	if err := h.gm.Go(ctx, func(context.Context) error {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return nil
			}
		}
	}); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many streams"),
			time.Now().Add(writeWait))
		return
	}

	slog.InfoContext(ctx, "event stream opened", "account_id", accountID)
	defer slog.InfoContext(ctx, "event stream closed", "account_id", accountID)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case evt, ok := <-stream:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toEventResponse(evt)); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					slog.ErrorContext(ctx, "failed to send event", "account_id", accountID, "error", err)
				}
				return
			}
		}
	}
}
