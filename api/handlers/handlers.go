package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leowzz/docsmith/internal/batch"
	"github.com/leowzz/docsmith/internal/tools/history"
	"github.com/leowzz/docsmith/internal/tools/shortener"
	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/queue"
	"github.com/leowzz/docsmith/pkg/storage"
)

type Handlers struct {
	Batch *BatchHandler
	Tools *ToolsHandler
}

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func NewHandlers(
	svc *batch.Service,
	store storage.Storage,
	dispatch queue.Queue,
	short *shortener.Shortener,
	hist history.Store,
	defaultLanguage string,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Batch: NewBatchHandler(svc, store, dispatch, defaultLanguage, log),
		Tools: NewToolsHandler(short, hist, log),
	}
}

func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
