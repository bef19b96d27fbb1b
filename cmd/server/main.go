package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/leowzz/docsmith/api/handlers"
	"github.com/leowzz/docsmith/api/routes"
	cfg "github.com/leowzz/docsmith/config"
	"github.com/leowzz/docsmith/internal/batch"
	"github.com/leowzz/docsmith/internal/tools/history"
	"github.com/leowzz/docsmith/internal/tools/shortener"
	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/queue"
	"github.com/leowzz/docsmith/pkg/storage"
)

func main() {
	appCfg := cfg.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisCfg := cfg.GetRedisConfig()
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisCfg.Addr,
		DB:   redisCfg.DB,
	})

	// Object storage and the task queue back detached runs. The server still
	// works without them; detached runs just get refused.
	var store storage.Storage
	store, err = storage.New(storage.Type(appCfg.StorageBackend), log)
	if err != nil {
		log.Warn("Object storage unavailable, detached runs disabled", logger.Error(err))
		store = nil
	}
	dispatch := queue.NewAsynqQueue(&queue.Config{
		RedisAddr: redisCfg.Addr,
		RedisDB:   redisCfg.DB,
	})
	defer dispatch.Close()

	svc := batch.NewService(log)
	hist := history.NewRedisStore(redisClient)
	short := shortener.New(shortener.NewRedisLinkStore(redisClient), hist, appCfg.BaseURL, log)

	h := handlers.NewHandlers(svc, store, dispatch, short, hist, appCfg.DefaultLanguage, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = int64(appCfg.MaxUploadMB) << 20
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":" + appCfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("port", appCfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}
}
