package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/leowzz/docsmith/internal/models"
)

// Task types
const (
	TaskTypeBatchRun = "batch:run"
)

// RunRequest is the payload of a batch run task.
type RunRequest struct {
	RunID     string    `json:"runId"`
	Language  string    `json:"language"`
	Engine    string    `json:"engine"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunStatus is the persisted state of a run, saved under a fixed key
// prefix so the API can answer status queries after the run is gone
// from the broker.
type RunStatus struct {
	RunID      string            `json:"runId"`
	State      string            `json:"state"` // queued, running, completed, failed
	Stats      models.BatchStats `json:"stats"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt,omitempty"`
}

// Queue dispatches batch runs and tracks their status.
type Queue interface {
	EnqueueRun(ctx context.Context, req *RunRequest) error
	GetRunStatus(ctx context.Context, runID string) (*RunStatus, error)
	SaveRunStatus(ctx context.Context, status *RunStatus) error
}

var ErrRunNotFound = errors.New("run not found")

const (
	statusKeyPrefix = "docsmith:run_status:"
	statusTTL       = 24 * time.Hour
)

// Config for the asynq-backed queue.
type Config struct {
	RedisAddr      string
	RedisDB        int
	MaxRetries     int
	ProcessTimeout time.Duration
}

// AsynqQueue is the production Queue. The asynq client enqueues run
// tasks; a plain redis client holds status records, which outlive the
// broker's own task bookkeeping.
type AsynqQueue struct {
	client *asynq.Client
	redis  *redis.Client
}

func NewAsynqQueue(cfg *Config) *AsynqQueue {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}
	return &AsynqQueue{
		client: asynq.NewClient(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
	}
}

// EnqueueRun serializes the request and hands it to the broker. Runs
// are never retried automatically: a failed run leaves items in error
// state and the operator decides whether to run again.
func (q *AsynqQueue) EnqueueRun(ctx context.Context, req *RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	t := asynq.NewTask(TaskTypeBatchRun, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.TaskID(req.RunID),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue run: %w", err)
	}

	return q.SaveRunStatus(ctx, &RunStatus{
		RunID:     req.RunID,
		State:     "queued",
		StartedAt: time.Now(),
	})
}

func (q *AsynqQueue) GetRunStatus(ctx context.Context, runID string) (*RunStatus, error) {
	data, err := q.redis.Get(ctx, statusKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run status: %w", err)
	}

	var status RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("corrupt status record for run %s: %w", runID, err)
	}
	return &status, nil
}

func (q *AsynqQueue) SaveRunStatus(ctx context.Context, status *RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal run status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKeyPrefix+status.RunID, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save run status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	clientErr := q.client.Close()
	redisErr := q.redis.Close()
	if clientErr != nil {
		return clientErr
	}
	return redisErr
}
