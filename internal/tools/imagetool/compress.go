package imagetool

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxDimension = 2048
	DefaultQuality      = 80
)

// Compress re-encodes an image as JPEG, capping its longest side. Quality
// is the JPEG quality in [1, 100]; zero values use defaults.
func Compress(data []byte, maxDimension, quality int) ([]byte, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
