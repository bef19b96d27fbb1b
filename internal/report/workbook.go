package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/leowzz/docsmith/internal/models"
)

const (
	summarySheet = "Summary"
	filesSheet   = "Files"
)

// BuildWorkbook renders the batch outcome as a spreadsheet: a summary sheet
// with run aggregates and a files sheet with one row per item. Unlike the
// text report, errored items are included so the workbook doubles as an
// audit trail.
func BuildWorkbook(items []models.QueueItem, stats models.BatchStats, generatedAt time.Time) (*excelize.File, error) {
	if stats.CompletedFiles == 0 {
		return nil, ErrNoCompleted
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to set up summary sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Generated", generatedAt.Format("2006-01-02 15:04:05")},
		{"Total files", stats.TotalFiles},
		{"Completed", stats.CompletedFiles},
		{"Errors", stats.ErrorFiles},
		{"Total words", stats.TotalWords},
		{"Average confidence", fmt.Sprintf("%.1f%%", stats.AvgConfidence)},
		{"Total processing time", stats.TotalTime.Round(time.Millisecond).String()},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(filesSheet); err != nil {
		return nil, fmt.Errorf("failed to create files sheet: %w", err)
	}
	header := []interface{}{"Filename", "Kind", "Status", "Words", "Confidence", "Processing time", "Error"}
	if err := f.SetSheetRow(filesSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write files header: %w", err)
	}
	for i, item := range items {
		confidence := ""
		if item.Confidence != nil {
			confidence = fmt.Sprintf("%.1f", *item.Confidence)
		}
		row := []interface{}{
			item.Filename,
			string(item.Kind),
			string(item.Status),
			item.WordCount,
			confidence,
			item.Duration.Round(time.Millisecond).String(),
			item.Error,
		}
		if err := f.SetSheetRow(filesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("failed to write file row: %w", err)
		}
	}

	return f, nil
}
