package batch

import (
	"context"

	cfg "github.com/leowzz/docsmith/config"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/internal/ocr/tesseract"
	"github.com/leowzz/docsmith/internal/ocr/textract"
	"github.com/leowzz/docsmith/internal/pdfext"
	"github.com/leowzz/docsmith/pkg/logger"
)

// Service bundles the in-memory queue with its intake and runner. One
// Service is created per process; its queue is the batch session.
type Service struct {
	Queue  *Queue
	Intake *Intake
	Runner *Runner
}

// NewService wires the batch pipeline from process configuration: the
// configured OCR engine factory and the production PDF opener.
func NewService(log logger.Logger) *Service {
	appCfg := cfg.GetAppConfig()

	q := NewQueue()
	extractor := pdfext.NewExtractor(pdfext.OpenDocument, log)

	return &Service{
		Queue:  q,
		Intake: NewIntake(log),
		Runner: NewRunner(q, engineFactory(appCfg, log), extractor, log),
	}
}

// engineFactory selects the recognition engine implementation. Tesseract is
// the default; Textract is the cloud alternative and ignores the language
// parameter since the service detects it.
func engineFactory(appCfg *cfg.AppConfig, log logger.Logger) ocr.Factory {
	if appCfg.OCREngine == "textract" {
		return func(string) (ocr.Engine, error) {
			return textract.New(context.Background(), cfg.GetTextractConfig(), log)
		}
	}
	return func(language string) (ocr.Engine, error) {
		return tesseract.New(language, log)
	}
}
