package pdfext

import (
	"context"
	"fmt"
	"strings"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/pkg/logger"
)

// NoTextPlaceholder is returned when neither the text layer nor OCR produced
// any text. Callers treat it as content, not as a failure.
const NoTextPlaceholder = "No text content found in PDF."

// DefaultUpscale is the rasterization scale used for OCR fallback pages.
// Upscaling below 2.0 measurably hurts recognition on scanned documents.
const DefaultUpscale = 2.0

// Page is one page of an open PDF document.
type Page interface {
	// TextRuns returns the page's text-layer runs, which may be empty for
	// scanned pages.
	TextRuns() ([]string, error)

	// RenderImage rasterizes the page to an encoded bitmap at the given
	// upscale factor.
	RenderImage(scale float64) ([]byte, error)
}

// Document is an open PDF. Pages are numbered 1..PageCount.
type Document interface {
	PageCount() int
	Page(n int) (Page, error)
	Close() error
}

// Opener opens raw PDF bytes as a Document. The production opener is
// OpenDocument; tests inject fakes.
type Opener func(data []byte) (Document, error)

// Extractor pulls text out of PDF files, falling back to OCR for documents
// that have no text layer at all.
type Extractor struct {
	open    Opener
	upscale float64
	logger  logger.Logger
}

func NewExtractor(open Opener, log logger.Logger) *Extractor {
	return &Extractor{
		open:    open,
		upscale: DefaultUpscale,
		logger:  log,
	}
}

// Extract returns the document's text, one block per page. It never fails:
// parse and recognition errors are converted into a placeholder string so
// that one bad PDF cannot abort a batch run. The item therefore completes
// with the error visible in its text rather than in its error field.
func (e *Extractor) Extract(ctx context.Context, data []byte, engine ocr.Engine) string {
	text, err := e.extract(ctx, data, engine)
	if err != nil {
		e.logger.Warn("PDF extraction failed", logger.Error(err))
		return fmt.Sprintf("[Error processing PDF: %v]", err)
	}
	return text
}

func (e *Extractor) extract(ctx context.Context, data []byte, engine ocr.Engine) (string, error) {
	doc, err := e.open(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.PageCount()
	pages := make([]models.PageExtraction, 0, numPages)
	hasText := false

	for n := 1; n <= numPages; n++ {
		page, err := doc.Page(n)
		if err != nil {
			return "", fmt.Errorf("failed to load page %d: %w", n, err)
		}
		runs, err := page.TextRuns()
		if err != nil {
			return "", fmt.Errorf("failed to read text on page %d: %w", n, err)
		}
		text := strings.TrimSpace(strings.Join(runs, " "))
		if text == "" {
			continue
		}
		pages = append(pages, models.PageExtraction{
			PageNumber: n,
			Text:       text,
			Source:     models.SourceTextLayer,
		})
		hasText = true
	}

	// The fallback decision is document-level, not per-page: a PDF with a
	// text layer on any page is never OCRed, even for its empty pages.
	if !hasText {
		for n := 1; n <= numPages; n++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			page, err := doc.Page(n)
			if err != nil {
				return "", fmt.Errorf("failed to load page %d: %w", n, err)
			}
			bitmap, err := page.RenderImage(e.upscale)
			if err != nil {
				return "", fmt.Errorf("failed to rasterize page %d: %w", n, err)
			}
			result, err := engine.Recognize(ctx, bitmap)
			if err != nil {
				return "", fmt.Errorf("OCR failed on page %d: %w", n, err)
			}
			pages = append(pages, models.PageExtraction{
				PageNumber: n,
				Text:       strings.TrimSpace(result.Text),
				Source:     models.SourceOCRFallback,
			})
		}
	}

	if len(pages) == 0 {
		return NoTextPlaceholder, nil
	}

	blocks := make([]string, len(pages))
	for i, p := range pages {
		if p.Source == models.SourceOCRFallback {
			blocks[i] = fmt.Sprintf("Page %d (OCR):\n%s", p.PageNumber, p.Text)
		} else {
			blocks[i] = fmt.Sprintf("Page %d:\n%s", p.PageNumber, p.Text)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}
