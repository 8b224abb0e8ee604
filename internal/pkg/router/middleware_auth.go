package router

import (
	"net/http"
	"strings"

	"github.com/uluru/fbtotp/internal/pkg/auth"
)

// middlewareBearer moves the caller's bearer token into the request context.
// A missing token is not rejected here: operations report it themselves.
// Browsers cannot set headers on a WebSocket handshake, so upgrades may pass
// the token as the access_token query parameter.
func middlewareBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.ParseBearer(r.Header.Get("Authorization"))
		if !ok && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			token = strings.TrimSpace(r.URL.Query().Get("access_token"))
		}

		if token != "" {
			r = r.WithContext(auth.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
