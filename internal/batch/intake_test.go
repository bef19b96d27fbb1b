package batch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/pkg/logger"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000")
	pdfHeader = []byte("%PDF-1.4\n1 0 obj\n")
)

func TestAddBytesAcceptsImage(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	item, err := in.AddBytes(q, "scan.png", pngHeader)
	require.NoError(t, err)
	require.Equal(t, models.KindImage, item.Kind)
	require.Equal(t, models.StatusPending, item.Status)
	require.Equal(t, "image/png", item.MimeType)
	require.Equal(t, int64(len(pngHeader)), item.FileSize)
	require.NotEmpty(t, item.ID)
	require.Equal(t, 1, q.Len())
}

func TestAddBytesAcceptsPDF(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	item, err := in.AddBytes(q, "doc.pdf", pdfHeader)
	require.NoError(t, err)
	require.Equal(t, models.KindPDF, item.Kind)
	require.Equal(t, "application/pdf", item.MimeType)
}

func TestAddBytesRejectsUnsupportedType(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	_, err := in.AddBytes(q, "notes.html", []byte("<html><body>hi</body></html>"))
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.Equal(t, 0, q.Len())
}

func TestAddBytesRejectsOversizedImage(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	big := append([]byte{}, pngHeader...)
	big = append(big, bytes.Repeat([]byte{0}, MaxImageSize)...)

	_, err := in.AddBytes(q, "huge.png", big)
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Equal(t, 0, q.Len())
}

func TestAddBytesFallsBackToExtension(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	// Content sniffing on truncated binary data is inconclusive; the .tiff
	// extension decides.
	item, err := in.AddBytes(q, "scan.tiff", []byte{0x00, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Equal(t, "image/tiff", item.MimeType)
	require.Equal(t, models.KindImage, item.Kind)
}

func TestAddBytesPreservesOrder(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())

	names := []string{"a.png", "b.png", "c.pdf"}
	for _, name := range names {
		data := pngHeader
		if name == "c.pdf" {
			data = pdfHeader
		}
		_, err := in.AddBytes(q, name, data)
		require.NoError(t, err)
	}

	items := q.Snapshot()
	require.Len(t, items, 3)
	for i, item := range items {
		require.Equal(t, names[i], item.Filename)
	}
}
