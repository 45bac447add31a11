package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Generator produces QR pass images for confirmed registrations.
type Generator interface {
	Generate(payload string) (string, error)
}

// PNGGenerator renders QR codes as PNG data URIs suitable for direct
// embedding in emails and HTML pages.
type PNGGenerator struct {
	size int
}

// NewPNGGenerator creates a generator with the default 256px output
func NewPNGGenerator() *PNGGenerator {
	return &PNGGenerator{size: 256}
}

var _ Generator = (*PNGGenerator)(nil)

// Generate encodes the payload at the highest error correction level and
// returns it as a data:image/png;base64 URI.
func (g *PNGGenerator) Generate(payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("qr payload cannot be empty")
	}
	png, err := qrcode.Encode(payload, qrcode.Highest, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
