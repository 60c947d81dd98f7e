package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// MaxBytes is the default upload ceiling
const MaxBytes int64 = 10 * 1024 * 1024

// MaxPixels caps the declared width*height, checked before any pixel is decoded
const MaxPixels = 40_000_000

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image is too large")
	ErrEmpty             = errors.New("image is empty")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Image is an ingested photo: the raw bytes kept for upload, the decoded
// pixels for classification and a data URL for preview.
type Image struct {
	Filename    string      `json:"filename"`
	ContentType string      `json:"contentType"`
	Size        int         `json:"size"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Preview     string      `json:"-"`
	Data        []byte      `json:"-"`
	Decoded     image.Image `json:"-"`
}

// Ingest decodes a picker upload or a camera capture with the default size limit
func Ingest(filename string, data []byte) (*Image, error) {
	return IngestWithLimit(filename, data, MaxBytes)
}

// IngestWithLimit is Ingest with an explicit size ceiling; maxBytes <= 0 disables the check
func IngestWithLimit(filename string, data []byte, maxBytes int64) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, ErrEmpty)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), maxBytes)
	}

	mtype := mimetype.Detect(data)
	contentType := mtype.String()
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedFormat, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := decoded.Bounds()
	return &Image{
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Preview:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Data:        data,
		Decoded:     decoded,
	}, nil
}
