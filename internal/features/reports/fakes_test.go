package reports

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/media"
	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
)

var (
	reporter = auth.CurrentUser{ID: "user-1", Email: "reporter@example.com"}
	stranger = auth.CurrentUser{ID: "user-2", Email: "other@example.com"}
	admin    = auth.CurrentUser{ID: "admin-1", Email: "admin@example.com", Admin: true}
)

// memStore is an in-memory Store
type memStore struct {
	mu       sync.Mutex
	reports  map[string]*Report
	comments map[string][]Comment
	votes    map[string]map[string]bool
	seq      int
	base     time.Time

	inserts     int
	insertFails int
	insertErr   error
	insertGate  chan struct{}
	listErr     error
	// listHook runs after ListNewestFirst has taken its snapshot
	listHook    func()
	casCalls    int
	// casOverride, when set, replaces the status right before the compare-and-set
	casOverride Status
}

func newMemStore() *memStore {
	return &memStore{
		reports:  map[string]*Report{},
		comments: map[string][]Comment{},
		votes:    map[string]map[string]bool{},
		base:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) Insert(ctx context.Context, r *Report) error {
	if m.insertGate != nil {
		select {
		case <-m.insertGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inserts++
	if m.insertFails > 0 {
		m.insertFails--
		return m.insertErr
	}

	m.seq++
	r.ID = fmt.Sprintf("r%d", m.seq)
	r.CreatedAt = m.base.Add(time.Duration(m.seq) * time.Minute)
	r.UpdatedAt = r.CreatedAt
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

// seed inserts a report with an explicit status
func (m *memStore) seed(t *testing.T, userID string, status Status) *Report {
	t.Helper()
	r := &Report{
		UserID:      userID,
		Description: "seeded",
		Severity:    SeverityLow,
		Latitude:    1,
		Longitude:   2,
		ImageURL:    "https://storage.example/seed.png",
		Status:      status,
	}
	require.NoError(t, m.Insert(context.Background(), r))
	return r
}

func (m *memStore) sorted() []Report {
	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		cp := *r
		cp.Comments = []Comment{}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListNewestFirst(context.Context) ([]Report, error) {
	m.mu.Lock()
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	list := m.sorted()
	hook := m.listHook
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return list, nil
}

func (m *memStore) ListPage(_ context.Context, userID string, req pagination.Request) ([]Report, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}

	var filtered []Report
	for _, r := range m.sorted() {
		if userID == "" || r.UserID == userID {
			filtered = append(filtered, r)
		}
	}
	total := int64(len(filtered))
	start := req.Offset()
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + req.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	cp := *r
	cp.Comments = append([]Comment{}, m.comments[id]...)
	return &cp, nil
}

func (m *memStore) UpdateStatusIfCurrent(_ context.Context, id string, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	r, ok := m.reports[id]
	if !ok {
		return false, ErrReportNotFound
	}
	if m.casOverride != "" {
		r.Status = m.casOverride
		m.casOverride = ""
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *memStore) AddComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[c.ReportID]; !ok {
		return ErrReportNotFound
	}
	m.seq++
	c.ID = fmt.Sprintf("c%d", m.seq)
	c.CreatedAt = m.base.Add(time.Duration(m.seq) * time.Minute)
	m.comments[c.ReportID] = append(m.comments[c.ReportID], *c)
	return nil
}

func (m *memStore) Vote(_ context.Context, reportID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportID]
	if !ok {
		return 0, ErrReportNotFound
	}
	if m.votes[reportID] == nil {
		m.votes[reportID] = map[string]bool{}
	}
	if m.votes[reportID][userID] {
		return 0, ErrAlreadyVoted
	}
	m.votes[reportID][userID] = true
	r.Votes++
	return r.Votes, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// memStorage is an in-memory ObjectStorage
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	keys    []string
	uploads int
	err     error
	gate    chan struct{}
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Upload(ctx context.Context, key, _ string, data []byte) (string, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.err != nil {
		return "", s.err
	}
	s.objects[key] = data
	s.keys = append(s.keys, key)
	return key, nil
}

func (s *memStorage) PublicURL(storedKey string) string {
	return "https://storage.example/bucket/" + storedKey
}

func (s *memStorage) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// scoreModel returns a fixed score or error
type scoreModel struct {
	score float32
	err   error
	panic bool
}

func (m scoreModel) Predict(context.Context, *classifier.Tensor) (float32, error) {
	if m.panic {
		panic("model crashed")
	}
	return m.score, m.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testImage(t *testing.T, name string) *media.Image {
	t.Helper()
	img, err := media.Ingest(name, pngBytes(t))
	require.NoError(t, err)
	return img
}

type fixture struct {
	store     *memStore
	storage   *memStorage
	submitter *Submitter
	moderator *Moderator
	submitted []Report
	mu        sync.Mutex
}

func newFixture(t *testing.T, model classifier.Model) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore(), storage: newMemStorage()}
	gate := classifier.NewGate(model, 0.5, time.Second)
	f.submitter = NewSubmitter(f.store, f.storage, gate, nil, SubmitterConfig{
		StoragePrefix: "pothole-images",
		GeoTimeout:    time.Second,
		DraftTTL:      time.Hour,
		DraftCapacity: 16,
	})
	f.moderator = NewModerator(f.store)
	f.submitter.OnSubmitted(func(r Report) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.submitted = append(f.submitted, r)
	})
	f.submitter.OnSubmitted(func(Report) { f.moderator.MarkStale() })
	return f
}

// draft opens a draft for reporter
func (f *fixture) draft(t *testing.T) *Draft {
	t.Helper()
	d, err := f.submitter.CreateDraft(reporter)
	require.NoError(t, err)
	return d
}

func (f *fixture) callbacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}
