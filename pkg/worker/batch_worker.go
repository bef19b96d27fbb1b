package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/leowzz/docsmith/internal/batch"
	"github.com/leowzz/docsmith/internal/report"
	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/queue"
	"github.com/leowzz/docsmith/pkg/storage"
)

// BatchWorker consumes batch run tasks. Concurrency stays at 1 no matter
// what the config says: runs are strictly sequential, and two runs sharing
// the process would fight over the recognition engine.
type BatchWorker struct {
	BaseWorker
	svc   *batch.Service
	store storage.Storage
	queue queue.Queue
}

func NewBatchWorker(cfg *Config, svc *batch.Service, store storage.Storage, q queue.Queue, log logger.Logger) (*BatchWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{"default": 1},
		},
	)

	w := &BatchWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		svc:   svc,
		store: store,
		queue: q,
	}

	w.mux.HandleFunc(queue.TaskTypeBatchRun, w.handleBatchRun)
	return w, nil
}

// handleBatchRun loads a run's inputs from object storage, processes them,
// and writes the report back. Status transitions are persisted through the
// queue so the API can answer for finished runs.
func (w *BatchWorker) handleBatchRun(ctx context.Context, t *asynq.Task) error {
	var req queue.RunRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		w.logger.Error("Failed to unmarshal run request",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal run request: %w", err)
	}
	if req.RunID == "" {
		return fmt.Errorf("invalid run request: missing run id")
	}

	w.logger.Info("Starting batch run task",
		logger.String("runId", req.RunID),
		logger.String("language", req.Language),
	)
	startedAt := time.Now()
	w.saveStatus(ctx, &queue.RunStatus{
		RunID:     req.RunID,
		State:     "running",
		StartedAt: startedAt,
	})

	if err := w.loadInputs(ctx, req.RunID); err != nil {
		w.failRun(ctx, req.RunID, startedAt, err)
		return err
	}

	if err := w.svc.Runner.Run(ctx, req.Language); err != nil {
		w.failRun(ctx, req.RunID, startedAt, err)
		return err
	}

	items := w.svc.Queue.Snapshot()
	stats := w.svc.Queue.Stats()

	text, err := report.Build(items, stats, time.Now())
	if err == nil {
		key := runKey(req.RunID, "report.txt")
		if _, serr := w.store.Store(ctx, strings.NewReader(text), key); serr != nil {
			w.logger.Error("Failed to store report",
				logger.String("runId", req.RunID),
				logger.Error(serr),
			)
		}
	} else {
		// Every item failed; the run still finishes, just with no report.
		w.logger.Warn("No report produced", logger.String("runId", req.RunID), logger.Error(err))
	}

	w.saveStatus(ctx, &queue.RunStatus{
		RunID:      req.RunID,
		State:      "completed",
		Stats:      stats,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	})
	w.logger.Info("Batch run task finished",
		logger.String("runId", req.RunID),
		logger.Int("completed", stats.CompletedFiles),
		logger.Int("errors", stats.ErrorFiles),
		logger.Duration("took", time.Since(startedAt)),
	)
	return nil
}

// loadInputs pulls the run's uploaded files from storage into the queue.
// Keys come back sorted, so upload order is preserved via zero-padded
// sequence prefixes on the object names.
func (w *BatchWorker) loadInputs(ctx context.Context, runID string) error {
	keys, err := w.store.List(ctx, runKey(runID, "input")+"/")
	if err != nil {
		return fmt.Errorf("failed to list run inputs: %w", err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("run %s has no inputs", runID)
	}

	for _, key := range keys {
		rc, err := w.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", key, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}

		filename := path.Base(key)
		if _, err := w.svc.Intake.AddBytes(w.svc.Queue, filename, data); err != nil {
			// Validation already ran at upload; a rejection here means the
			// object was tampered with or truncated. Skip it.
			w.logger.Warn("Stored input rejected",
				logger.String("key", key),
				logger.Error(err),
			)
		}
	}
	return nil
}

func (w *BatchWorker) failRun(ctx context.Context, runID string, startedAt time.Time, err error) {
	w.logger.Error("Batch run task failed",
		logger.String("runId", runID),
		logger.Error(err),
	)
	w.saveStatus(ctx, &queue.RunStatus{
		RunID:      runID,
		State:      "failed",
		Error:      err.Error(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	})
}

func (w *BatchWorker) saveStatus(ctx context.Context, status *queue.RunStatus) {
	if err := w.queue.SaveRunStatus(ctx, status); err != nil {
		w.logger.Error("Failed to save run status",
			logger.String("runId", status.RunID),
			logger.Error(err),
		)
	}
}

func runKey(runID string, parts ...string) string {
	return path.Join(append([]string{"runs", runID}, parts...)...)
}

func (w *BatchWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
