package pdftool

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrNoImages = errors.New("no images provided")

// Optimize rewrites a PDF with redundant objects removed and streams
// recompressed. The PDF engine's APIs are file-based, so the bytes pass
// through a scratch directory.
func Optimize(data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "docsmith-optimize-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to spool PDF: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(in, out, conf); err != nil {
		return nil, fmt.Errorf("failed to optimize PDF: %w", err)
	}

	optimized, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read optimized PDF: %w", err)
	}
	return optimized, nil
}

// FromImages assembles one PDF with a page per input image, in input order.
func FromImages(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	dir, err := os.MkdirTemp("", "docsmith-imgpdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := make([]string, len(images))
	for i, img := range images {
		name := fmt.Sprintf("page-%03d%s", i+1, imageExt(img))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, img, 0o600); err != nil {
			return nil, fmt.Errorf("failed to spool image %d: %w", i+1, err)
		}
		files[i] = path
	}

	out := filepath.Join(dir, "out.pdf")
	if err := api.ImportImagesFile(files, out, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembled PDF: %w", err)
	}
	return pdf, nil
}

func imageExt(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	switch http.DetectContentType(head) {
	case "image/png":
		return ".png"
	case "image/tiff":
		return ".tif"
	default:
		return ".jpg"
	}
}
