package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/pkg/logger"
)

// ErrRunInProgress is returned when a run is started while another is still
// in flight. Submission is simply refused; nothing is queued.
var ErrRunInProgress = errors.New("a batch run is already in progress")

// PDFExtractor is the PDF text/image adapter consumed by the runner.
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte, engine ocr.Engine) string
}

// Runner drives one batch run: it owns the recognition engine lifecycle and
// processes pending items strictly sequentially, in enqueue order. OCR is
// CPU and memory heavy per call, so one item at a time through one shared
// engine keeps resource use bounded and progress reporting deterministic;
// total throughput is the accepted cost.
type Runner struct {
	queue   *Queue
	factory ocr.Factory
	pdf     PDFExtractor
	logger  logger.Logger
	running atomic.Bool
}

func NewRunner(q *Queue, factory ocr.Factory, pdf PDFExtractor, log logger.Logger) *Runner {
	return &Runner{
		queue:   q,
		factory: factory,
		pdf:     pdf,
		logger:  log,
	}
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run processes all currently pending items. One engine is created for the
// whole run and released at the end. A single item failure never halts the
// run; cancellation is honored between items, leaving unstarted items
// pending.
func (r *Runner) Run(ctx context.Context, language string) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer r.running.Store(false)

	engine, err := r.factory(language)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			r.logger.Warn("Failed to release recognition engine", logger.Error(cerr))
		}
	}()

	ids := r.queue.pendingIDs()
	r.logger.Info("Starting batch run",
		logger.String("language", language),
		logger.Int("pendingItems", len(ids)),
	)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			r.logger.Info("Batch run cancelled", logger.Error(err))
			return err
		}
		r.processItem(ctx, id, engine)
	}
	return nil
}

func (r *Runner) processItem(ctx context.Context, id string, engine ocr.Engine) {
	item, ok := r.queue.markProcessing(id)
	if !ok {
		return
	}
	start := time.Now()
	r.queue.setProgress(id, 10)

	var text string
	var confidence *float64

	switch item.Kind {
	case models.KindImage:
		result, err := engine.Recognize(ctx, item.Data)
		if err != nil {
			r.logger.Error("Recognition failed",
				logger.String("itemId", id),
				logger.String("filename", item.Filename),
				logger.Error(err),
			)
			r.queue.fail(id, err.Error())
			return
		}
		text = result.Text
		c := result.Confidence
		confidence = &c
	case models.KindPDF:
		// The extractor embeds its own failures in the returned text, so a
		// corrupt PDF still completes; see the extractor for the rationale.
		text = r.pdf.Extract(ctx, item.Data, engine)
	}

	r.queue.setProgress(id, 90)
	words := len(strings.Fields(text))
	r.queue.complete(id, text, words, confidence, time.Since(start))

	r.logger.Info("Item processed",
		logger.String("itemId", id),
		logger.String("filename", item.Filename),
		logger.Int("words", words),
		logger.Duration("took", time.Since(start)),
	)
}
