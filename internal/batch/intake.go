package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/pkg/logger"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

const (
	MaxImageSize = 10 << 20 // 10 MiB
	MaxPDFSize   = 25 << 20 // 25 MiB

	validateConcurrency = 4
)

var allowedMIME = map[string]models.ItemKind{
	"image/jpeg":      models.KindImage,
	"image/jpg":       models.KindImage,
	"image/png":       models.KindImage,
	"image/tiff":      models.KindImage,
	"application/pdf": models.KindPDF,
}

var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".pdf":  "application/pdf",
}

// Rejection reports one file that failed intake validation. Rejections are
// per-file and non-fatal: valid files in the same submission still enter
// the queue.
type Rejection struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Intake validates submitted files and appends accepted ones to the queue
// as pending items.
type Intake struct {
	maxImageSize int64
	maxPDFSize   int64
	logger       logger.Logger
}

func NewIntake(log logger.Logger) *Intake {
	return &Intake{
		maxImageSize: MaxImageSize,
		maxPDFSize:   MaxPDFSize,
		logger:       log,
	}
}

// AddMultipart validates uploaded files concurrently but appends accepted
// items in submission order, preserving the FIFO processing order the run
// relies on.
func (in *Intake) AddMultipart(ctx context.Context, q *Queue, files []*multipart.FileHeader) ([]models.QueueItem, []Rejection, error) {
	type outcome struct {
		item      *models.QueueItem
		rejection *Rejection
	}
	outcomes := make([]outcome, len(files))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(validateConcurrency)
	for i, fh := range files {
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", fh.Filename, err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", fh.Filename, err)
			}

			item, err := in.build(fh.Filename, data)
			if err != nil {
				outcomes[i] = outcome{rejection: &Rejection{Filename: fh.Filename, Reason: err.Error()}}
				return nil
			}
			outcomes[i] = outcome{item: item}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var accepted []models.QueueItem
	var rejected []Rejection
	for _, o := range outcomes {
		switch {
		case o.item != nil:
			q.Add(o.item)
			accepted = append(accepted, *o.item)
		case o.rejection != nil:
			in.logger.Warn("File rejected at intake",
				logger.String("filename", o.rejection.Filename),
				logger.String("reason", o.rejection.Reason),
			)
			rejected = append(rejected, *o.rejection)
		}
	}
	return accepted, rejected, nil
}

// AddBytes validates one in-memory file and appends it. Used by the worker
// path and by tests.
func (in *Intake) AddBytes(q *Queue, filename string, data []byte) (models.QueueItem, error) {
	item, err := in.build(filename, data)
	if err != nil {
		return models.QueueItem{}, err
	}
	q.Add(item)
	return *item, nil
}

func (in *Intake) build(filename string, data []byte) (*models.QueueItem, error) {
	mimeType := sniffMIME(filename, data)
	kind, ok := allowedMIME[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	limit := in.maxImageSize
	if kind == models.KindPDF {
		limit = in.maxPDFSize
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(data), limit)
	}

	return &models.QueueItem{
		ID:       uuid.NewString(),
		Filename: filename,
		FileSize: int64(len(data)),
		MimeType: mimeType,
		Kind:     kind,
		Status:   models.StatusPending,
		Data:     data,
	}, nil
}

// sniffMIME detects content type from the file head, falling back to the
// extension when detection is inconclusive.
func sniffMIME(filename string, data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mimeType := http.DetectContentType(head)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "application/octet-stream" || mimeType == "text/plain" {
		if byExt, ok := extToMIME[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}
	return mimeType
}
