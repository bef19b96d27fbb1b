package pdfext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// fileDocument is the production Document implementation. Text runs come
// from the embedded text layer; rasterization extracts the page's image
// content into a scratch directory, since scanned PDFs carry their pixels
// as embedded images.
type fileDocument struct {
	reader  *pdf.Reader
	pdfPath string
	workDir string
}

// OpenDocument opens raw PDF bytes. The bytes are also spooled to a temp
// file because the image-extraction API is file-based; Close removes it.
func OpenDocument(data []byte) (Document, error) {
	r := bytes.NewReader(data)
	reader, err := pdf.NewReader(r, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	workDir, err := os.MkdirTemp("", "docsmith-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	pdfPath := filepath.Join(workDir, "source.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to spool PDF: %w", err)
	}

	return &fileDocument{
		reader:  reader,
		pdfPath: pdfPath,
		workDir: workDir,
	}, nil
}

func (d *fileDocument) PageCount() int {
	return d.reader.NumPage()
}

func (d *fileDocument) Page(n int) (Page, error) {
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", n)
	}
	return &filePage{doc: d, page: p, num: n}, nil
}

func (d *fileDocument) Close() error {
	return os.RemoveAll(d.workDir)
}

type filePage struct {
	doc  *fileDocument
	page pdf.Page
	num  int
}

func (p *filePage) TextRuns() ([]string, error) {
	text, err := p.page.GetPlainText(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get text from page %d: %w", p.num, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// RenderImage pulls the page's embedded raster out of the PDF and upscales
// it by the requested factor. Pages without raster content fail here, which
// the extractor reports as a document-level extraction error.
func (p *filePage) RenderImage(scale float64) ([]byte, error) {
	outDir, err := os.MkdirTemp(p.doc.workDir, fmt.Sprintf("page-%d-", p.num))
	if err != nil {
		return nil, fmt.Errorf("failed to create page scratch dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages := []string{strconv.Itoa(p.num)}
	if err := api.ExtractImagesFile(p.doc.pdfPath, outDir, pages, conf); err != nil {
		return nil, fmt.Errorf("failed to extract image from page %d: %w", p.num, err)
	}

	imgPath, err := largestFile(outDir)
	if err != nil {
		return nil, fmt.Errorf("page %d has no raster content: %w", p.num, err)
	}

	img, err := imaging.Open(imgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d image: %w", p.num, err)
	}

	width := int(float64(img.Bounds().Dx()) * scale)
	scaled := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode page %d bitmap: %w", p.num, err)
	}
	return buf.Bytes(), nil
}

// largestFile returns the biggest regular file in dir. Scanned pages usually
// hold one full-page image plus occasional small artifacts like logos.
func largestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var best string
	var bestSize int64 = -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, entry.Name())
			bestSize = info.Size()
		}
	}
	if best == "" {
		return "", fmt.Errorf("no image files extracted")
	}
	return best, nil
}
