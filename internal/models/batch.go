package models

import (
	"time"
)

// ItemKind classifies a queued file by how it gets processed.
type ItemKind string

const (
	KindImage ItemKind = "image"
	KindPDF   ItemKind = "pdf"
)

// ItemStatus is the lifecycle state of a queue item. Transitions are
// one-directional: pending -> processing -> completed | error.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusError      ItemStatus = "error"
)

// QueueItem represents one file submitted to a batch run. Items are created
// at intake time and mutated only by the batch runner.
type QueueItem struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	FileSize    int64         `json:"fileSize"`
	MimeType    string        `json:"mimeType"`
	Kind        ItemKind      `json:"kind"`
	Status      ItemStatus    `json:"status"`
	Progress    int           `json:"progress"`
	Text        string        `json:"text,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"processingTime,omitempty"`
	WordCount   int           `json:"wordCount,omitempty"`
	Confidence  *float64      `json:"confidence,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`

	// Raw file bytes, held for the duration of the batch session only.
	Data []byte `json:"-"`
}

// BatchStats is a derived aggregate over a set of queue items. It has no
// existence independent of the item set and is recomputed on every read.
type BatchStats struct {
	TotalFiles     int           `json:"totalFiles"`
	CompletedFiles int           `json:"completedFiles"`
	ErrorFiles     int           `json:"errorFiles"`
	PendingFiles   int           `json:"pendingFiles"`
	TotalWords     int           `json:"totalWords"`
	AvgConfidence  float64       `json:"avgConfidence"`
	TotalTime      time.Duration `json:"totalProcessingTime"`
}

// ComputeStats derives batch statistics as a pure function of the item set.
func ComputeStats(items []QueueItem) BatchStats {
	stats := BatchStats{TotalFiles: len(items)}

	var confSum float64
	var confCount int
	for _, item := range items {
		switch item.Status {
		case StatusCompleted:
			stats.CompletedFiles++
			stats.TotalWords += item.WordCount
			stats.TotalTime += item.Duration
			if item.Confidence != nil {
				confSum += *item.Confidence
				confCount++
			}
		case StatusError:
			stats.ErrorFiles++
		case StatusPending:
			stats.PendingFiles++
		}
	}

	if confCount > 0 {
		stats.AvgConfidence = confSum / float64(confCount)
	}
	return stats
}

// PageSource tags where a page's text came from during PDF extraction.
type PageSource string

const (
	SourceTextLayer   PageSource = "text-layer"
	SourceOCRFallback PageSource = "ocr-fallback"
)

// PageExtraction is one page's text, used transiently while assembling a PDF
// item's full output.
type PageExtraction struct {
	PageNumber int        `json:"pageNumber"`
	Text       string     `json:"text"`
	Source     PageSource `json:"source"`
}
