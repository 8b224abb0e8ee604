package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uluru/fbtotp/internal/pkg/auth"
	"github.com/uluru/fbtotp/internal/pkg/config"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func serve(t *testing.T, r *Router, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestRouter_Envelopes(t *testing.T) {
	r := NewRouter(Config{UUID: staticID("cid-gen")})
	r.GET("/ok", func(*Request) (any, error) { return map[string]int{"n": 1}, nil })
	r.GET("/none", func(*Request) (any, error) { return nil, nil })
	r.GET("/conflict", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("already there", goerror.CodeConflict)
	})
	r.GET("/plain", func(*Request) (any, error) { return nil, errors.New("boom") })
	r.GET("/fields", func(*Request) (any, error) { return nil, goerror.NewInvalidInput(nil, "code", "is required") })
	r.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	tests := []struct {
		path     string
		wantCode int
		wantMsg  string
	}{
		{"/ok", http.StatusOK, "request has been successfully"},
		{"/conflict", http.StatusConflict, "already there"},
		{"/plain", http.StatusInternalServerError, "Internal server error"},
		{"/fields", http.StatusUnprocessableEntity, "Validation error"},
		{"/panic", http.StatusInternalServerError, "Internal server error"},
		{"/missing", http.StatusNotFound, "endpoint not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, body := serve(t, r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}

	w, body := serve(t, r, httptest.NewRequest(http.MethodGet, "/fields", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{"code": "is required"}, body["error"])

	w, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/none", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = serve(t, r, httptest.NewRequest(http.MethodPost, "/ok", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method not allowed", body["message"])
}

func TestRouter_CorrelationAndBearer(t *testing.T) {
	var cid, token string
	r := NewRouter(Config{UUID: staticID("cid-gen"), Instrument: instrument.NewNoop()})
	r.GET("/who", func(req *Request) (any, error) {
		cid = instrument.GetCorrelationID(req.Context())
		token = auth.Token(req.Context())
		return struct{}{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w, _ := serve(t, r, req)
	assert.Equal(t, "cid-gen", cid)
	assert.Equal(t, "cid-gen", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "abc", token)

	req = httptest.NewRequest(http.MethodGet, "/who?access_token=ignored", nil)
	req.Header.Set(HeaderRequestID, "from-proxy")
	serve(t, r, req)
	assert.Equal(t, "from-proxy", cid)
	assert.Empty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/who?access_token=ws-token", nil)
	req.Header.Set("Upgrade", "websocket")
	serve(t, r, req)
	assert.Equal(t, "ws-token", token)
}

func TestRouter_Maintenance(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: [/blocked]\n"))
	require.NoError(t, err)

	r := NewRouter(Config{Config: cfg})
	r.GET("/blocked", func(*Request) (any, error) { return struct{}{}, nil })
	r.GET("/open", func(*Request) (any, error) { return struct{}{}, nil })

	w, body := serve(t, r, httptest.NewRequest(http.MethodGet, "/blocked", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "service is under maintenance", body["message"])

	w, _ = serve(t, r, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Code string `json:"code"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"valid", `{"code":"123456"}`, "123456", false},
		{"unknown field", `{"code":"1","x":1}`, "", true},
		{"two documents", `{"code":"1"}{"code":"2"}`, "", true},
		{"not json", `code=1`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var got payload
			err := req.DecodeBody(&got)
			if tt.wantErr {
				gerr, ok := goerror.As(err)
				require.True(t, ok)
				assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}
