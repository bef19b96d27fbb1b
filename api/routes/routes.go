package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/leowzz/docsmith/api/handlers"
	"github.com/leowzz/docsmith/api/middleware"
)

// SetupRoutes wires all endpoints.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	// Short link redirects live at the root so codes stay short.
	r.GET("/s/:code", h.Tools.Redirect)

	v1 := r.Group("/api/v1")

	b := v1.Group("/batch")
	{
		b.POST("/files", h.Batch.Upload)
		b.POST("/run", h.Batch.Run)
		b.DELETE("/run", h.Batch.CancelRun)
		b.GET("/runs/:runId", h.Batch.RunStatus)
		b.GET("", h.Batch.Status)
		b.DELETE("", h.Batch.Clear)
		b.GET("/items/:id", h.Batch.Item)
		b.DELETE("/items/:id", h.Batch.RemoveItem)
		b.GET("/report", h.Batch.Report)
		b.GET("/report.xlsx", h.Batch.ReportWorkbook)
	}

	tools := v1.Group("/tools")
	{
		tools.POST("/qr", h.Tools.GenerateQR)
		tools.GET("/qr/history", h.Tools.QRHistory)
		tools.DELETE("/qr/history", h.Tools.ClearQRHistory)
		tools.POST("/shorten", h.Tools.Shorten)
		tools.GET("/shorten/history", h.Tools.ShortenHistory)
		tools.POST("/compress/image", h.Tools.CompressImage)
		tools.POST("/compress/pdf", h.Tools.CompressPDF)
		tools.POST("/images-to-pdf", h.Tools.ImagesToPDF)
	}
}
