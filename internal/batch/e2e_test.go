package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/internal/pdfext"
	"github.com/leowzz/docsmith/internal/report"
	"github.com/leowzz/docsmith/pkg/logger"
)

// End-to-end runs through the real extractor, with the PDF capability faked
// at the document level.

type stubPage struct {
	text   string
	bitmap []byte
}

func (p *stubPage) TextRuns() ([]string, error) {
	if p.text == "" {
		return nil, nil
	}
	return []string{p.text}, nil
}

func (p *stubPage) RenderImage(scale float64) ([]byte, error) { return p.bitmap, nil }

type stubDoc struct {
	pages []*stubPage
}

func (d *stubDoc) PageCount() int { return len(d.pages) }

func (d *stubDoc) Page(n int) (pdfext.Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return d.pages[n-1], nil
}

func (d *stubDoc) Close() error { return nil }

// openerByContent routes PDF bytes to canned documents, and fails on
// anything marked corrupt.
func openerByContent(docs map[string]*stubDoc) pdfext.Opener {
	return func(data []byte) (pdfext.Document, error) {
		if doc, ok := docs[string(data)]; ok {
			return doc, nil
		}
		return nil, errors.New("malformed xref table")
	}
}

type countingEngine struct {
	calls int
}

func (e *countingEngine) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	e.calls++
	return ocr.Result{Text: "recognized " + string(image), Confidence: 85}, nil
}

func (e *countingEngine) Close() error { return nil }

func newE2EPipeline(engine ocr.Engine, docs map[string]*stubDoc) (*Runner, *Queue, *Intake) {
	log := logger.NewTestLogger()
	q := NewQueue()
	extractor := pdfext.NewExtractor(openerByContent(docs), log)
	factory := func(string) (ocr.Engine, error) { return engine, nil }
	return NewRunner(q, factory, extractor, log), q, NewIntake(log)
}

func TestEndToEndImageAndTextPDF(t *testing.T) {
	textPDF := append([]byte{}, pdfHeader...)
	docs := map[string]*stubDoc{
		string(textPDF): {pages: []*stubPage{
			{text: "Quarterly report"},
			{text: "Revenue details"},
		}},
	}
	engine := &countingEngine{}
	r, q, in := newE2EPipeline(engine, docs)

	_, err := in.AddBytes(q, "id-card.png", pngHeader)
	require.NoError(t, err)
	_, err = in.AddBytes(q, "report.pdf", textPDF)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), "eng"))

	items := q.Snapshot()
	require.Equal(t, models.StatusCompleted, items[0].Status)
	require.Equal(t, models.StatusCompleted, items[1].Status)

	pdfText := items[1].Text
	require.Contains(t, pdfText, "Page 1:\nQuarterly report")
	require.Contains(t, pdfText, "Page 2:\nRevenue details")
	require.NotContains(t, pdfText, "(OCR)")
	require.Equal(t, 1, engine.calls, "only the image goes through OCR")

	stats := q.Stats()
	require.Equal(t, 2, stats.CompletedFiles)

	text, err := report.Build(items, stats, time.Now())
	require.NoError(t, err)
	require.Less(t, strings.Index(text, "id-card.png"), strings.Index(text, "report.pdf"))
}

func TestEndToEndScannedPDFFallsBackToOCR(t *testing.T) {
	scanned := append(append([]byte{}, pdfHeader...), []byte("scanned")...)
	docs := map[string]*stubDoc{
		string(scanned): {pages: []*stubPage{
			{bitmap: []byte("page-one-pixels")},
		}},
	}
	engine := &countingEngine{}
	r, q, in := newE2EPipeline(engine, docs)

	_, err := in.AddBytes(q, "scan.pdf", scanned)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), "eng"))

	item := q.Snapshot()[0]
	require.Equal(t, models.StatusCompleted, item.Status)
	require.Equal(t, 1, engine.calls)
	require.Contains(t, item.Text, "Page 1 (OCR):")
}

func TestEndToEndCorruptPDFDoesNotHaltBatch(t *testing.T) {
	corrupt := append(append([]byte{}, pdfHeader...), []byte("garbage")...)
	engine := &countingEngine{}
	r, q, in := newE2EPipeline(engine, map[string]*stubDoc{})

	_, err := in.AddBytes(q, "broken.pdf", corrupt)
	require.NoError(t, err)
	_, err = in.AddBytes(q, "fine.png", pngHeader)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), "eng"))

	items := q.Snapshot()
	require.Equal(t, models.StatusCompleted, items[0].Status)
	require.Contains(t, items[0].Text, "[Error processing PDF:")
	require.Empty(t, items[0].Error)

	require.Equal(t, models.StatusCompleted, items[1].Status)
	require.Equal(t, "recognized "+string(pngHeader), items[1].Text)
}
