package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyContent = errors.New("qr content is empty")

const (
	DefaultSize = 256
	MaxSize     = 1024
)

// Options controls QR rendering. Zero values fall back to defaults.
type Options struct {
	Size  int    `json:"size"`
	Level string `json:"errorCorrectionLevel"` // L, M, Q, H
}

var levels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

// Generate encodes content as a PNG QR image. The encoding itself is fully
// delegated to the codec; this wrapper only validates and defaults.
func Generate(content string, opts Options) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	level, ok := levels[opts.Level]
	if !ok {
		level = qrcode.Medium
	}

	png, err := qrcode.Encode(content, level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
