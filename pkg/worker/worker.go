package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/leowzz/docsmith/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
}

func (w *BaseWorker) Stop() error {
	close(w.stopChan)
	w.server.Stop()
	return nil
}
