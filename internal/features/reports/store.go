package reports

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
)

// Store is the relational store collaborator
type Store interface {
	// Insert assigns ID, CreatedAt and UpdatedAt
	Insert(ctx context.Context, r *Report) error
	// ListNewestFirst returns every report ordered by created_at desc, without comments
	ListNewestFirst(ctx context.Context) ([]Report, error)
	// ListPage pages through reports newest first. An empty userID means all users.
	ListPage(ctx context.Context, userID string, req pagination.Request) ([]Report, int64, error)
	// GetByID returns the report with its comments oldest first, or ErrReportNotFound
	GetByID(ctx context.Context, id string) (*Report, error)
	// UpdateStatusIfCurrent sets status to `to` only while it still equals `from`
	UpdateStatusIfCurrent(ctx context.Context, id string, from, to Status) (bool, error)
	AddComment(ctx context.Context, c *Comment) error
	// Vote records one vote per user and returns the new count, or ErrAlreadyVoted
	Vote(ctx context.Context, reportID, userID string) (int, error)
}

// ObjectStorage is the binary object storage collaborator
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	PublicURL(storedKey string) string
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside [a-zA-Z0-9._-]
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	if len(base) > 100 {
		ext := path.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:100-len(ext)] + ext
	}
	return base
}

// UploadKey builds <prefix>/<unix-millis>-<8 random hex>-<sanitised filename>.
// The random part keeps two same-named captures in one millisecond apart.
func UploadKey(prefix string, now time.Time, filename string) string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	key := fmt.Sprintf("%d-%s-%s", now.UnixMilli(), nonce, SanitizeFilename(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
