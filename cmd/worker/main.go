package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/leowzz/docsmith/config"
	"github.com/leowzz/docsmith/internal/batch"
	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/queue"
	"github.com/leowzz/docsmith/pkg/storage"
	"github.com/leowzz/docsmith/pkg/worker"
)

func main() {
	appCfg := cfg.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := storage.New(storage.Type(appCfg.StorageBackend), log)
	if err != nil {
		log.Error("Failed to create storage", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := cfg.GetRedisConfig()
	q := queue.NewAsynqQueue(&queue.Config{
		RedisAddr: redisCfg.Addr,
		RedisDB:   redisCfg.DB,
	})
	defer q.Close()

	svc := batch.NewService(log)

	workerCfg := &worker.Config{
		RedisAddr: redisCfg.Addr,
		RedisDB:   redisCfg.DB,
	}

	batchWorker, err := worker.NewBatchWorker(workerCfg, svc, store, q, log)
	if err != nil {
		log.Error("Failed to create batch worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := batchWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	batchWorker.Stop()
	log.Info("Worker stopped")
}
