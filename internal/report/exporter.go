package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leowzz/docsmith/internal/format"
	"github.com/leowzz/docsmith/internal/models"
)

// ErrNoCompleted means there is nothing to export; no partial artifact is
// produced.
var ErrNoCompleted = errors.New("no completed items to export")

const rule = "========================================"

// Build renders the downloadable plain-text report: a header block with run
// aggregates, one formatted section per completed item in enqueue order,
// and a summary footer. Pure function of its inputs.
func Build(items []models.QueueItem, stats models.BatchStats, generatedAt time.Time) (string, error) {
	var completed []models.QueueItem
	for _, item := range items {
		if item.Status == models.StatusCompleted {
			completed = append(completed, item)
		}
	}
	if len(completed) == 0 {
		return "", ErrNoCompleted
	}

	avgTime := stats.TotalTime / time.Duration(len(completed))

	var b strings.Builder
	b.WriteString(rule)
	b.WriteString("\nBATCH EXTRACTION REPORT\n")
	b.WriteString(rule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Files processed: %d of %d\n", stats.CompletedFiles, stats.TotalFiles)
	fmt.Fprintf(&b, "Total words: %d\n", stats.TotalWords)
	fmt.Fprintf(&b, "Average processing time: %s\n", avgTime.Round(time.Millisecond))
	b.WriteString("\n")

	sections := make([]string, len(completed))
	for i, item := range completed {
		sections[i] = format.Output(item.Text, item.Filename, item.Kind)
	}
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n\n")

	b.WriteString(rule)
	b.WriteString("\nSUMMARY\n")
	fmt.Fprintf(&b, "Completed: %d | Errors: %d | Total: %d\n",
		stats.CompletedFiles, stats.ErrorFiles, stats.TotalFiles)
	fmt.Fprintf(&b, "Total words: %d\n", stats.TotalWords)
	fmt.Fprintf(&b, "Average confidence: %.1f%%\n", stats.AvgConfidence)
	fmt.Fprintf(&b, "Total processing time: %s\n", stats.TotalTime.Round(time.Millisecond))
	b.WriteString(rule)
	b.WriteString("\n")

	return b.String(), nil
}
