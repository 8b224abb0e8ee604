package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: fbtotp
  debug: true
bridge:
  pending_ttl_seconds: 600
  qr_image_size: 256
  host:
    driver: memory
authz:
  policies:
    - "admin, totp, manage"
    - "support, totp, manage"
app_cors: "http://a.test, http://b.test,,"
mfa:
  master_key: "c2VjcmV0"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "fbtotp", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.Equal(t, 10*time.Minute, cfg.GetSecond("bridge.pending_ttl_seconds"))
	assert.Equal(t, 256, cfg.GetInt("bridge.qr_image_size"))
	assert.Equal(t, []string{"admin, totp, manage", "support, totp, manage"}, cfg.GetArray("authz.policies"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app_cors"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("mfa.master_key"))
	assert.Empty(t, cfg.GetArray("missing"))
	assert.NoError(t, cfg.Close())

	_, err = NewViperFromBytes("", nil)
	assert.Error(t, err)
}

func TestViperEnvOverride(t *testing.T) {
	t.Setenv("FBTOTP_BRIDGE_HOST_DRIVER", "firebase")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "firebase", cfg.GetString("bridge.host.driver"))
}

func TestNewViperFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.GetString("bridge.host.driver"))

	_, err = NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
