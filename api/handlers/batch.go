package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leowzz/docsmith/internal/batch"
	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/internal/report"
	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/queue"
	"github.com/leowzz/docsmith/pkg/storage"
)

// BatchHandler serves the batch pipeline endpoints. Runs started here
// execute in-process; detached runs are archived to object storage and
// handed to the worker through the task queue.
type BatchHandler struct {
	svc             *batch.Service
	store           storage.Storage
	dispatch        queue.Queue
	defaultLanguage string
	logger          logger.Logger

	runMu     sync.Mutex
	runCancel context.CancelFunc
}

type RunRequestBody struct {
	Language string `json:"language"`
	Detached bool   `json:"detached"`
}

func NewBatchHandler(svc *batch.Service, store storage.Storage, dispatch queue.Queue, defaultLanguage string, log logger.Logger) *BatchHandler {
	return &BatchHandler{
		svc:             svc,
		store:           store,
		dispatch:        dispatch,
		defaultLanguage: defaultLanguage,
		logger:          log,
	}
}

// Upload accepts a multipart batch of files. Valid files enter the queue
// as pending items; invalid ones are reported per-file without failing
// the submission.
func (h *BatchHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	accepted, rejected, err := h.svc.Intake.AddMultipart(c.Request.Context(), h.svc.Queue, files)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to read uploaded files", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted": accepted,
		"rejected": rejected,
		"queued":   h.svc.Queue.Len(),
	})
}

// Run starts processing pending items. The run executes in a background
// goroutine; progress is polled through GET /batch. A second start while
// a run is in flight is refused.
func (h *BatchHandler) Run(c *gin.Context) {
	// An empty body means defaults; anything else must parse.
	var body RunRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.handleError(c, http.StatusBadRequest, "Invalid run request", err)
		return
	}
	language := body.Language
	if language == "" {
		language = h.defaultLanguage
	}

	if body.Detached {
		h.runDetached(c, language)
		return
	}

	if h.svc.Runner.Running() {
		h.handleError(c, http.StatusConflict, "A batch run is already in progress", batch.ErrRunInProgress)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.runMu.Lock()
	h.runCancel = cancel
	h.runMu.Unlock()

	go func() {
		defer cancel()
		if err := h.svc.Runner.Run(ctx, language); err != nil {
			if errors.Is(err, batch.ErrRunInProgress) {
				h.logger.Warn("Concurrent run attempt lost the race")
				return
			}
			h.logger.Error("Batch run failed", logger.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Batch run started",
		"language": language,
		"pending":  h.svc.Queue.Stats().PendingFiles,
	})
}

// runDetached archives the pending items to object storage and enqueues a
// run task for the worker.
func (h *BatchHandler) runDetached(c *gin.Context, language string) {
	if h.store == nil || h.dispatch == nil {
		h.handleError(c, http.StatusServiceUnavailable, "Detached runs are not configured", nil)
		return
	}

	items := h.svc.Queue.Snapshot()
	runID := uuid.NewString()
	seq := 0
	for _, item := range items {
		if item.Status != models.StatusPending {
			continue
		}
		key := fmt.Sprintf("runs/%s/input/%04d-%s", runID, seq, item.Filename)
		if _, err := h.store.Store(c.Request.Context(), bytes.NewReader(item.Data), key); err != nil {
			h.handleError(c, http.StatusInternalServerError, "Failed to archive run inputs", err)
			return
		}
		seq++
	}
	if seq == 0 {
		h.handleError(c, http.StatusBadRequest, "No pending items to run", nil)
		return
	}

	req := &queue.RunRequest{
		RunID:     runID,
		Language:  language,
		CreatedAt: time.Now(),
	}
	if err := h.dispatch.EnqueueRun(c.Request.Context(), req); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to enqueue run", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"runId": runID,
		"files": seq,
	})
}

// CancelRun cancels an in-flight in-process run. Items not yet started
// stay pending.
func (h *BatchHandler) CancelRun(c *gin.Context) {
	h.runMu.Lock()
	cancel := h.runCancel
	h.runMu.Unlock()

	if cancel == nil || !h.svc.Runner.Running() {
		h.handleError(c, http.StatusConflict, "No batch run in progress", nil)
		return
	}
	cancel()
	c.JSON(http.StatusOK, gin.H{"message": "Batch run cancellation requested"})
}

// RunStatus reports the persisted status of a detached run.
func (h *BatchHandler) RunStatus(c *gin.Context) {
	if h.dispatch == nil {
		h.handleError(c, http.StatusServiceUnavailable, "Detached runs are not configured", nil)
		return
	}

	status, err := h.dispatch.GetRunStatus(c.Request.Context(), c.Param("runId"))
	if errors.Is(err, queue.ErrRunNotFound) {
		h.handleError(c, http.StatusNotFound, "Run not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load run status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Status returns the current queue contents and derived statistics.
func (h *BatchHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items":   h.svc.Queue.Snapshot(),
		"stats":   h.svc.Queue.Stats(),
		"running": h.svc.Runner.Running(),
	})
}

// Item returns one queue item, including extracted text.
func (h *BatchHandler) Item(c *gin.Context) {
	item, ok := h.svc.Queue.Item(c.Param("id"))
	if !ok {
		h.handleError(c, http.StatusNotFound, "Item not found", nil)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem deletes one item from the queue.
func (h *BatchHandler) RemoveItem(c *gin.Context) {
	if !h.svc.Queue.Remove(c.Param("id")) {
		h.handleError(c, http.StatusNotFound, "Item not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

// Clear empties the queue. Refused while a run is in flight.
func (h *BatchHandler) Clear(c *gin.Context) {
	if h.svc.Runner.Running() {
		h.handleError(c, http.StatusConflict, "Cannot clear the queue during a run", batch.ErrRunInProgress)
		return
	}
	h.svc.Queue.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Queue cleared"})
}

// Report downloads the plain-text extraction report.
func (h *BatchHandler) Report(c *gin.Context) {
	text, err := report.Build(h.svc.Queue.Snapshot(), h.svc.Queue.Stats(), time.Now())
	if errors.Is(err, report.ErrNoCompleted) {
		h.handleError(c, http.StatusNotFound, "No completed items to export", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	filename := fmt.Sprintf("extraction_report_%s.txt", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// ReportWorkbook downloads the batch outcome as a spreadsheet.
func (h *BatchHandler) ReportWorkbook(c *gin.Context) {
	f, err := report.BuildWorkbook(h.svc.Queue.Snapshot(), h.svc.Queue.Stats(), time.Now())
	if errors.Is(err, report.ErrNoCompleted) {
		h.handleError(c, http.StatusNotFound, "No completed items to export", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("extraction_report_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream workbook", logger.Error(err))
	}
}

func (h *BatchHandler) handleError(c *gin.Context, status int, message string, err error) {
	handleError(c, h.logger, status, message, err)
}
