// Package qr renders JSON payloads as PNG QR codes.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// New returns an encoder using the highest error correction level, so
// codes still scan from a cracked phone screen.
func New(size int) *Encoder {
	if size <= 0 {
		size = 512
	}
	return &Encoder{size: size, level: qrcode.Highest}
}

// PNG marshals payload to JSON (strings are encoded as-is) and renders it.
func (e *Encoder) PNG(payload any) ([]byte, error) {
	content, err := contentOf(payload)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL is PNG wrapped as a base64 data URL, suitable for <img src>.
func (e *Encoder) DataURL(payload any) (string, error) {
	png, err := e.PNG(payload)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

func contentOf(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	return string(b), nil
}
