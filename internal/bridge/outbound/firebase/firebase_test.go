package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/auth"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

const (
	validToken  = "id-token-alice"
	sessionInfo = "session-info-1"
	goodCode    = "123456"
)

type fakeToolkit struct {
	mu        sync.Mutex
	enrolled  bool
	lastBody  map[string]map[string]any
	withdrawn []string
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.lastBody[r.URL.Path] = body

	if body["idToken"] != validToken {
		writeErr(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}

	switch r.URL.Path {
	case "/v1/accounts:lookup":
		user := map[string]any{"localId": "alice", "email": "alice@example.com"}
		mfa := []map[string]any{{"mfaEnrollmentId": "phone-1", "phoneInfo": "+1***", "displayName": "Phone"}}
		if f.enrolled {
			mfa = append(mfa, map[string]any{
				"mfaEnrollmentId": "totp-1",
				"displayName":     "TOTP",
				"totpInfo":        map[string]any{},
				"enrolledAt":      "2026-01-02T03:04:05Z",
			})
		}
		user["mfaInfo"] = mfa
		writeJSON(w, map[string]any{"users": []any{user}})

	case "/v2/accounts/mfaEnrollment:start":
		writeJSON(w, map[string]any{"totpSessionInfo": map[string]any{
			"sharedSecretKey":        "JBSWY3DPEHPK3PXP",
			"sessionInfo":            sessionInfo,
			"hashingAlgorithm":       "SHA1",
			"periodSec":              30,
			"verificationCodeLength": 6,
			"finalizeEnrollmentTime": "2026-01-02T03:14:05Z",
		}})

	case "/v2/accounts/mfaEnrollment:finalize":
		info, _ := body["totpVerificationInfo"].(map[string]any)
		switch {
		case info["sessionInfo"] != sessionInfo:
			writeErr(w, http.StatusBadRequest, "INVALID_SESSION_INFO")
		case info["verificationCode"] != goodCode:
			writeErr(w, http.StatusBadRequest, "INVALID_CODE : code mismatch")
		default:
			f.enrolled = true
			writeJSON(w, map[string]any{"idToken": validToken})
		}

	case "/v2/accounts/mfaEnrollment:withdraw":
		if body["mfaEnrollmentId"] != "totp-1" || !f.enrolled {
			writeErr(w, http.StatusBadRequest, "MFA_ENROLLMENT_NOT_FOUND")
			return
		}
		f.enrolled = false
		f.withdrawn = append(f.withdrawn, "totp-1")
		writeJSON(w, map[string]any{"idToken": validToken})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newTestFirebase(t *testing.T) (*Firebase, *fakeToolkit) {
	t.Helper()

	fake := &fakeToolkit{lastBody: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	fb, err := New(context.Background(), Config{
		Options: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	}, instrument.NewNoop())
	require.NoError(t, err)

	return fb, fake
}

func TestFirebase_CurrentAccount(t *testing.T) {
	fb, _ := newTestFirebase(t)

	_, err := fb.CurrentAccount(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoCurrentUser)

	_, err = fb.CurrentAccount(auth.WithToken(context.Background(), "bogus"))
	assert.ErrorIs(t, err, entity.ErrNoCurrentUser)

	acc, err := fb.CurrentAccount(auth.WithToken(context.Background(), validToken))
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.ID)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Equal(t, validToken, acc.AccessToken)

	_, err = fb.GetAccount(context.Background(), "bob")
	assert.ErrorIs(t, err, entity.ErrLookupUnsupported)
}

func TestFirebase_EnrollmentFlow(t *testing.T) {
	fb, fake := newTestFirebase(t)
	ctx := context.Background()
	acc := entity.Account{ID: "alice", AccessToken: validToken}

	sess, err := fb.BeginSession(ctx, acc)
	require.NoError(t, err)

	sec, err := fb.GenerateSecret(ctx, *sess)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", sec.Secret)
	assert.Equal(t, sessionInfo, sec.VerificationID)
	assert.False(t, sec.ExpiresAt.IsZero())

	_, err = fb.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: sessionInfo, Code: "000000"}, "TOTP")
	assert.ErrorIs(t, err, entity.ErrInvalidCode)

	_, err = fb.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: "bad-id", Code: goodCode}, "TOTP")
	assert.ErrorIs(t, err, entity.ErrNoPendingEnrollment)

	_, err = fb.EnrollFactor(ctx, acc, entity.TOTPCredential{Code: goodCode}, "TOTP")
	assert.ErrorIs(t, err, entity.ErrNoPendingEnrollment)

	f, err := fb.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: sessionInfo, Code: goodCode}, "TOTP")
	require.NoError(t, err)
	assert.Equal(t, entity.FactorKindTOTP, f.Kind)
	assert.Equal(t, "TOTP", fake.lastBody["/v2/accounts/mfaEnrollment:finalize"]["displayName"])

	factors, err := fb.ListFactors(ctx, acc)
	require.NoError(t, err)
	require.Len(t, factors, 2)
	assert.Equal(t, entity.FactorKindPhone, factors[0].Kind)
	assert.Equal(t, entity.FactorKindTOTP, factors[1].Kind)
	assert.Equal(t, "totp-1", factors[1].ID)

	require.NoError(t, fb.UnenrollFactor(ctx, acc, "totp-1"))
	assert.Equal(t, []string{"totp-1"}, fake.withdrawn)

	err = fb.UnenrollFactor(ctx, acc, "totp-1")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
