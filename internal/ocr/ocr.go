package ocr

import (
	"context"
	"errors"
)

// Result is the outcome of recognizing one image.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100
}

// Engine wraps an OCR capability. Engine creation is expensive, so one
// instance is created per batch run and reused across all image items.
type Engine interface {
	// Recognize extracts text from an encoded image (PNG/JPEG/TIFF bytes).
	// It always returns a text string, possibly empty when nothing was
	// detected, and a confidence in [0, 100].
	Recognize(ctx context.Context, image []byte) (Result, error)

	// Close releases engine resources. The owner of the run calls it once
	// after all items have been processed.
	Close() error
}

// Factory creates a fresh engine for one batch run, parameterized by the
// recognition language (e.g. "eng").
type Factory func(language string) (Engine, error)

// ErrRecognitionFailed wraps failures of the underlying OCR capability.
// No retry is attempted; the caller marks the item and moves on.
var ErrRecognitionFailed = errors.New("recognition failed")
