package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/jwt"
	"github.com/uluru/fbtotp/internal/pkg/otp"
	"github.com/uluru/fbtotp/internal/pkg/uid"
)

const testSecret = "test-secret-test-secret-test-secret-test-secret-test-secret-1234"

const testConfig = `
app:
  tz: UTC
  server:
    max_goroutine: 8
hash:
  hmac:
    secret: verification
mfa:
  master_key: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
jwt:
  secret: ` + testSecret + `
  issuer: fbtotp
  audiences: [app]
  ttl_minutes: 5
messaging:
  driver: noop
modules:
  bridge:
    host:
      driver: memory
`

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func startTestApp(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	t.Setenv("CONFIG_PATH", path)

	a := New()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errs := a.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
		<-errs
	})

	return "http://" + l.Addr().String()
}

func post(t *testing.T, url, token string, payload any, out any) int {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func TestApp_EnrollAndVerify(t *testing.T) {
	base := startTestApp(t)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(testSecret),
		Issuer:    "fbtotp",
		Audiences: []string{"app"},
		TTL:       5 * time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	token, err := signer.Generate("alice", "alice@example.com")
	require.NoError(t, err)

	var enrolled struct {
		SecretKey      string `json:"secretKey"`
		QRCodeURL      string `json:"qrCodeUrl"`
		VerificationID string `json:"verificationId"`
	}
	code := post(t, base+"/api/v1/totp/enroll", token, map[string]string{"issuer": "Acme"}, &enrolled)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(enrolled.QRCodeURL, "otpauth://totp/Acme:alice%40example.com?secret="+enrolled.SecretKey))

	totp, err := otp.NewTOTP(30, 1).Code(enrolled.SecretKey, time.Now())
	require.NoError(t, err)

	var verified struct {
		Success bool `json:"success"`
	}
	code = post(t, base+"/api/v1/totp/verify", token, map[string]string{
		"code":           totp,
		"verificationId": enrolled.VerificationID,
	}, &verified)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, verified.Success)

	code = post(t, base+"/api/v1/totp/enroll", "", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
