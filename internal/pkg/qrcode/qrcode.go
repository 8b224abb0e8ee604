// Package qrcode renders provisioning URIs as PNG images for clients that
// cannot draw QR codes themselves.
package qrcode

import (
	"encoding/base64"
	"errors"

	qr "github.com/skip2/go-qrcode"
)

const dataURIPrefix = "data:image/png;base64,"

// ErrEmptyContent is returned when there is nothing to encode.
var ErrEmptyContent = errors.New("qrcode: empty content")

// PNG encodes content with medium error correction.
type PNG struct {
	level qr.RecoveryLevel
}

func NewPNG() *PNG {
	return &PNG{level: qr.Medium}
}

// DataURI returns the PNG as a data URI, size pixels square.
func (p *PNG) DataURI(content string, size int) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}

	png, err := qr.Encode(content, p.level, size)
	if err != nil {
		return "", err
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
