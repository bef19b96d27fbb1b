package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leowzz/docsmith/internal/tools/history"
	"github.com/leowzz/docsmith/internal/tools/imagetool"
	"github.com/leowzz/docsmith/internal/tools/pdftool"
	"github.com/leowzz/docsmith/internal/tools/qr"
	"github.com/leowzz/docsmith/internal/tools/shortener"
	"github.com/leowzz/docsmith/pkg/logger"
)

// Standalone document utilities: QR generation, URL shortening, image and
// PDF compression, image-to-PDF assembly.
type ToolsHandler struct {
	shortener *shortener.Shortener
	history   history.Store
	logger    logger.Logger
}

type QRRequest struct {
	Content string `json:"content" binding:"required"`
	qr.Options
}

type ShortenRequest struct {
	URL string `json:"url" binding:"required"`
}

func NewToolsHandler(short *shortener.Shortener, hist history.Store, log logger.Logger) *ToolsHandler {
	return &ToolsHandler{
		shortener: short,
		history:   hist,
		logger:    log,
	}
}

// GenerateQR renders a QR code PNG and records the request in history.
func (h *ToolsHandler) GenerateQR(c *gin.Context) {
	var req QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid QR request", err)
		return
	}

	png, err := qr.Generate(req.Content, req.Options)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Failed to generate QR code", err)
		return
	}

	entry := gin.H{
		"content":   req.Content,
		"size":      req.Size,
		"createdAt": time.Now(),
	}
	if err := h.history.Append(c.Request.Context(), history.KeyQR, entry); err != nil {
		h.logger.Warn("Failed to record QR history", logger.Error(err))
	}

	c.Data(http.StatusOK, "image/png", png)
}

// QRHistory lists recent QR generations, newest first.
func (h *ToolsHandler) QRHistory(c *gin.Context) {
	entries, err := h.history.List(c.Request.Context(), history.KeyQR)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load QR history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// ClearQRHistory empties the QR history.
func (h *ToolsHandler) ClearQRHistory(c *gin.Context) {
	if err := h.history.Clear(c.Request.Context(), history.KeyQR); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to clear QR history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// Shorten creates a short link for a URL.
func (h *ToolsHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid shorten request", err)
		return
	}

	link, err := h.shortener.Shorten(c.Request.Context(), req.URL)
	if errors.Is(err, shortener.ErrInvalidURL) {
		h.handleError(c, http.StatusBadRequest, "Invalid URL", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to shorten URL", err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// ShortenHistory lists recently created short links, newest first.
func (h *ToolsHandler) ShortenHistory(c *gin.Context) {
	entries, err := h.shortener.History(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load shortener history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// Redirect resolves a short code and redirects to the original URL.
func (h *ToolsHandler) Redirect(c *gin.Context) {
	link, err := h.shortener.Resolve(c.Request.Context(), c.Param("code"))
	if errors.Is(err, shortener.ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Short link not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to resolve short link", err)
		return
	}
	c.Redirect(http.StatusFound, link.URL)
}

// CompressImage re-encodes an uploaded image as JPEG with a capped longest
// side.
func (h *ToolsHandler) CompressImage(c *gin.Context) {
	data, filename, ok := h.readUpload(c, "file")
	if !ok {
		return
	}

	maxDimension, _ := strconv.Atoi(c.DefaultPostForm("maxDimension", "0"))
	quality, _ := strconv.Atoi(c.DefaultPostForm("quality", "0"))

	compressed, err := imagetool.Compress(data, maxDimension, quality)
	if err != nil {
		h.handleError(c, http.StatusUnprocessableEntity, "Failed to compress image", err)
		return
	}

	h.logger.Info("Image compressed",
		logger.String("filename", filename),
		logger.Int("inputBytes", len(data)),
		logger.Int("outputBytes", len(compressed)),
	)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=compressed_%s.jpg", trimExt(filename)))
	c.Data(http.StatusOK, "image/jpeg", compressed)
}

// CompressPDF rewrites an uploaded PDF with redundant objects removed.
func (h *ToolsHandler) CompressPDF(c *gin.Context) {
	data, filename, ok := h.readUpload(c, "file")
	if !ok {
		return
	}

	optimized, err := pdftool.Optimize(data)
	if err != nil {
		h.handleError(c, http.StatusUnprocessableEntity, "Failed to compress PDF", err)
		return
	}

	h.logger.Info("PDF compressed",
		logger.String("filename", filename),
		logger.Int("inputBytes", len(data)),
		logger.Int("outputBytes", len(optimized)),
	)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=compressed_%s.pdf", trimExt(filename)))
	c.Data(http.StatusOK, "application/pdf", optimized)
}

// ImagesToPDF assembles uploaded images into one PDF, a page per image in
// upload order.
func (h *ToolsHandler) ImagesToPDF(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No images provided", pdftool.ErrNoImages)
		return
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readFileHeader(fh)
		if err != nil {
			h.handleError(c, http.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename), err)
			return
		}
		images = append(images, data)
	}

	pdf, err := pdftool.FromImages(images)
	if err != nil {
		h.handleError(c, http.StatusUnprocessableEntity, "Failed to assemble PDF", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=images.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// readUpload fetches a single uploaded file field. On failure, the error
// response is already written.
func (h *ToolsHandler) readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return nil, "", false
	}
	data, err := readFileHeader(fh)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename), err)
		return nil, "", false
	}
	return data, fh.Filename, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *ToolsHandler) handleError(c *gin.Context, status int, message string, err error) {
	handleError(c, h.logger, status, message, err)
}
