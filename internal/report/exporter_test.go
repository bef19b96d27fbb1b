package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func sampleItems() []models.QueueItem {
	return []models.QueueItem{
		{
			Filename:   "receipt.jpg",
			Kind:       models.KindImage,
			Status:     models.StatusCompleted,
			Text:       "Invoice No: 42\nTotal: 99.50",
			WordCount:  6,
			Confidence: floatPtr(91.5),
			Duration:   2 * time.Second,
		},
		{
			Filename: "broken.png",
			Kind:     models.KindImage,
			Status:   models.StatusError,
			Error:    "blurred input",
		},
		{
			Filename:  "contract.pdf",
			Kind:      models.KindPDF,
			Status:    models.StatusCompleted,
			Text:      "Page 1:\nAgreement text",
			WordCount: 3,
			Duration:  1 * time.Second,
		},
	}
}

func TestBuildReport(t *testing.T) {
	items := sampleItems()
	stats := models.ComputeStats(items)
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	text, err := Build(items, stats, generatedAt)
	require.NoError(t, err)

	require.Contains(t, text, "BATCH EXTRACTION REPORT")
	require.Contains(t, text, "Generated: 2026-03-14 09:30:00")
	require.Contains(t, text, "Files processed: 2 of 3")
	require.Contains(t, text, "Total words: 9")
	require.Contains(t, text, "Average processing time: 1.5s")

	// Only completed items get a section, in enqueue order.
	require.Contains(t, text, "INVOICE / RECEIPT")
	require.Contains(t, text, "contract.pdf")
	require.NotContains(t, text, "broken.png")
	require.Less(t, strings.Index(text, "INVOICE / RECEIPT"), strings.Index(text, "contract.pdf"))

	require.Contains(t, text, "SUMMARY")
	require.Contains(t, text, "Completed: 2 | Errors: 1 | Total: 3")
	require.Contains(t, text, "Average confidence: 91.5%")
}

func TestBuildReportNoCompleted(t *testing.T) {
	items := []models.QueueItem{{Status: models.StatusError}, {Status: models.StatusPending}}
	_, err := Build(items, models.ComputeStats(items), time.Now())
	require.ErrorIs(t, err, ErrNoCompleted)
}

func TestBuildWorkbook(t *testing.T) {
	items := sampleItems()
	stats := models.ComputeStats(items)

	f, err := BuildWorkbook(items, stats, time.Now())
	require.NoError(t, err)
	defer f.Close()

	require.ElementsMatch(t, []string{"Summary", "Files"}, f.GetSheetList())

	// Errored items appear in the files sheet.
	name, err := f.GetCellValue("Files", "A3")
	require.NoError(t, err)
	require.Equal(t, "broken.png", name)
	status, err := f.GetCellValue("Files", "C3")
	require.NoError(t, err)
	require.Equal(t, "error", status)
}

func TestBuildWorkbookNoCompleted(t *testing.T) {
	items := []models.QueueItem{{Status: models.StatusPending}}
	_, err := BuildWorkbook(items, models.ComputeStats(items), time.Now())
	require.ErrorIs(t, err, ErrNoCompleted)
}
