package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG_DataURI(t *testing.T) {
	uri, err := NewPNG().DataURI("otpauth://totp/Acme:alice%40example.com?secret=JBSWY3DPEHPK3PXP", 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, dataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestPNG_DataURIEmpty(t *testing.T) {
	_, err := NewPNG().DataURI("", 128)
	assert.ErrorIs(t, err, ErrEmptyContent)
}
