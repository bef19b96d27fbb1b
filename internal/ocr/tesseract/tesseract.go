package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/pkg/logger"
)

// Engine is a Tesseract-backed OCR engine. It holds one gosseract client for
// the lifetime of a batch run; clients are not safe for concurrent use, which
// is fine because the runner processes items strictly sequentially.
type Engine struct {
	client *gosseract.Client
	logger logger.Logger
}

// New creates a Tesseract engine for the given language code.
func New(language string, log logger.Logger) (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Engine{client: client, logger: log}, nil
}

// Recognize runs OCR over the encoded image and reports the averaged word
// confidence alongside the text.
func (e *Engine) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	if err := e.client.SetImageFromBytes(image); err != nil {
		return ocr.Result{}, fmt.Errorf("%w: set image: %v", ocr.ErrRecognitionFailed, err)
	}

	text, err := e.client.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("%w: %v", ocr.ErrRecognitionFailed, err)
	}

	return ocr.Result{
		Text:       text,
		Confidence: e.wordConfidence(),
	}, nil
}

// wordConfidence averages per-word confidences for the last recognized image.
// Tesseract reports confidences in [0, 100].
func (e *Engine) wordConfidence() float64 {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		if err != nil {
			e.logger.Warn("Failed to get word boxes", logger.Error(err))
		}
		return 0
	}

	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

func (e *Engine) Close() error {
	return e.client.Close()
}
