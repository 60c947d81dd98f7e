package media

import (
	"fmt"
	"io"
	"mime/multipart"
)

// FromFileHeader reads a multipart part and ingests it. Oversized parts are
// refused before they are read.
func FromFileHeader(header *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, header.Size, maxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = header.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}

	return IngestWithLimit(header.Filename, data, maxBytes)
}
