package reports

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/media"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
)

// SubmitterConfig configures the submission workflow
type SubmitterConfig struct {
	StoragePrefix string
	GeoTimeout    time.Duration
	DraftTTL      time.Duration
	DraftCapacity int
	// MaxDraftsPerUser caps the open drafts of one owner
	MaxDraftsPerUser int
}

// Submitter owns the cached drafts and runs the submission workflow
type Submitter struct {
	store    Store
	storage  ObjectStorage
	gate     *classifier.Gate
	provider geo.Locator
	cfg      SubmitterConfig
	drafts   *expirable.LRU[string, *Draft]
	log      *logger.Logger
	now      func() time.Time

	mu          sync.RWMutex
	onSubmitted []func(Report)

	// lifeMu orders create, touch and discard on the cache. The eviction
	// callback runs under the cache lock and only takes countMu.
	lifeMu   sync.Mutex
	countMu  sync.Mutex
	perOwner map[string]int
}

// NewSubmitter wires the workflow. provider may be nil when no server-side position provider exists.
func NewSubmitter(store Store, storage ObjectStorage, gate *classifier.Gate, provider geo.Locator, cfg SubmitterConfig) *Submitter {
	if cfg.DraftCapacity <= 0 {
		cfg.DraftCapacity = 1000
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 30 * time.Minute
	}
	if cfg.MaxDraftsPerUser <= 0 {
		cfg.MaxDraftsPerUser = 5
	}
	if gate == nil {
		gate = classifier.NewGate(nil, 0.5, 0)
	}
	if provider == nil {
		provider = &geo.HTTPLocator{}
	}

	s := &Submitter{
		store:    store,
		storage:  storage,
		gate:     gate,
		provider: provider,
		cfg:      cfg,
		log:      logger.Default().Named("submission"),
		now:      time.Now,
		perOwner: make(map[string]int),
	}
	s.drafts = expirable.NewLRU[string, *Draft](cfg.DraftCapacity, s.evicted, cfg.DraftTTL)
	return s
}

func (s *Submitter) evicted(id string, d *Draft) {
	d.discard()
	s.countMu.Lock()
	s.perOwner[d.ownerID]--
	if s.perOwner[d.ownerID] <= 0 {
		delete(s.perOwner, d.ownerID)
	}
	s.countMu.Unlock()
	metrics.DraftsOpen.Dec()
	s.log.Debug("draft %s discarded", id)
}

// OnSubmitted registers a completion callback. It runs after the report is
// persisted and the draft reset, never for a discarded draft.
func (s *Submitter) OnSubmitted(fn func(Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSubmitted = append(s.onSubmitted, fn)
}

func (s *Submitter) notify(r Report) {
	s.mu.RLock()
	callbacks := append([]func(Report){}, s.onSubmitted...)
	s.mu.RUnlock()
	for _, fn := range callbacks {
		fn(r)
	}
}

// CreateDraft starts an empty form for user. A full cache or an owner at
// MaxDraftsPerUser refuses with ErrTooManyDrafts instead of evicting open drafts.
func (s *Submitter) CreateDraft(user auth.CurrentUser) (*Draft, error) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.drafts.Len() >= s.cfg.DraftCapacity {
		return nil, ErrTooManyDrafts
	}
	s.countMu.Lock()
	if s.perOwner[user.ID] >= s.cfg.MaxDraftsPerUser {
		s.countMu.Unlock()
		return nil, ErrTooManyDrafts
	}
	s.perOwner[user.ID]++
	s.countMu.Unlock()

	d := newDraft(uuid.NewString(), user.ID, s.now())
	s.drafts.Add(d.id, d)
	metrics.DraftsOpen.Inc()
	return d, nil
}

// Draft looks up a draft owned by user. Each lookup renews the draft's TTL.
func (s *Submitter) Draft(user auth.CurrentUser, id string) (*Draft, error) {
	d, ok := s.drafts.Get(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	if d.ownerID != user.ID {
		return nil, ErrNotDraftOwner
	}
	s.touch(d)
	return d, nil
}

// touch re-adds a live draft, which restarts its expiry without the eviction callback
func (s *Submitter) touch(d *Draft) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if d.isDiscarded() {
		return
	}
	if _, ok := s.drafts.Peek(d.id); ok {
		s.drafts.Add(d.id, d)
	}
}

// Discard drops a draft. An in-flight submission for it completes against nothing.
func (s *Submitter) Discard(user auth.CurrentUser, id string) error {
	d, err := s.Draft(user, id)
	if err != nil {
		return err
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	d.discard()
	s.drafts.Remove(id)
	return nil
}

// UpdateFields edits description and severity
func (s *Submitter) UpdateFields(user auth.CurrentUser, id string, description *string, severity *Severity) (*Draft, error) {
	d, err := s.Draft(user, id)
	if err != nil {
		return nil, err
	}
	return d, d.setFields(s.now(), description, severity)
}

// AttachImage classifies img and attaches it. A reject only sets a warning.
func (s *Submitter) AttachImage(ctx context.Context, user auth.CurrentUser, id string, img *media.Image) (*Draft, error) {
	d, err := s.Draft(user, id)
	if err != nil {
		return nil, err
	}
	if d.State().inFlight() {
		return d, ErrSubmissionInFlight
	}

	verdict := s.gate.Classify(ctx, img)

	orphan, err := d.setImage(s.now(), img, verdict)
	if err != nil {
		return d, err
	}
	if orphan != "" {
		s.log.Warn("draft %s image replaced after upload, orphaned object %s", d.id, orphan)
	}
	return d, nil
}

// CaptureLocation acquires a position within the geolocation timeout and
// records either the coordinate or the *geo.Error on the draft.
func (s *Submitter) CaptureLocation(ctx context.Context, user auth.CurrentUser, id string, locator geo.Locator) (*Draft, error) {
	d, err := s.Draft(user, id)
	if err != nil {
		return nil, err
	}
	if d.State().inFlight() {
		return d, ErrSubmissionInFlight
	}
	if locator == nil {
		locator = s.provider
	}

	coord, acquireErr := geo.WithTimeout(locator, s.cfg.GeoTimeout).Acquire(ctx)

	var geoErr *geo.Error
	if acquireErr != nil && !errors.As(acquireErr, &geoErr) {
		geoErr = geo.NewError(geo.Unknown, acquireErr)
	}
	if err := d.setLocation(s.now(), coord, geoErr); err != nil {
		return d, err
	}
	if geoErr != nil {
		return d, geoErr
	}
	return d, nil
}

// Provider is the server-side locator used for source=provider captures
func (s *Submitter) Provider() geo.Locator {
	return s.provider
}

// Submit runs validating -> uploading -> persisting -> succeeded|failed for a cached draft
func (s *Submitter) Submit(ctx context.Context, user auth.CurrentUser, id string) (*Report, *Draft, error) {
	d, err := s.Draft(user, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.run(ctx, user, d)
	return r, d, err
}

// SubmitOnce runs the workflow for a draft that is never cached, as the one-shot form post does
func (s *Submitter) SubmitOnce(ctx context.Context, user auth.CurrentUser, description string, severity Severity, img *media.Image, locator geo.Locator) (*Report, *Draft, error) {
	d := newDraft(uuid.NewString(), user.ID, s.now())
	now := s.now()

	if err := d.setFields(now, &description, &severity); err != nil {
		return nil, d, err
	}
	if img != nil {
		verdict := s.gate.Classify(ctx, img)
		if _, err := d.setImage(now, img, verdict); err != nil {
			return nil, d, err
		}
	}
	if locator != nil {
		coord, acquireErr := geo.WithTimeout(locator, s.cfg.GeoTimeout).Acquire(ctx)
		var geoErr *geo.Error
		if acquireErr != nil && !errors.As(acquireErr, &geoErr) {
			geoErr = geo.NewError(geo.Unknown, acquireErr)
		}
		if err := d.setLocation(now, coord, geoErr); err != nil {
			return nil, d, err
		}
	}

	r, err := s.run(ctx, user, d)
	return r, d, err
}

func (s *Submitter) run(ctx context.Context, user auth.CurrentUser, d *Draft) (*Report, error) {
	if user.ID == "" {
		return nil, &ValidationError{Field: "user", Message: "an authenticated user is required"}
	}

	sub, err := d.begin(s.now())
	if err != nil {
		if isValidation(err) {
			metrics.Submissions.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	imageURL := sub.uploadedURL
	if imageURL == "" {
		key := UploadKey(s.cfg.StoragePrefix, s.now(), sub.image.Filename)
		storedKey, err := s.storage.Upload(ctx, key, sub.image.ContentType, sub.image.Data)
		if err != nil {
			uploadErr := &UploadError{Err: err}
			d.fail(s.now(), uploadErr)
			metrics.Submissions.WithLabelValues("upload_failed").Inc()
			s.log.Error("draft %s upload of %s failed: %v", d.id, key, err)
			return nil, uploadErr
		}
		imageURL = s.storage.PublicURL(storedKey)
		if !d.uploaded(s.now(), imageURL) {
			s.log.Warn("draft %s discarded during upload, orphaned object %s", d.id, imageURL)
			return nil, ErrDraftDiscarded
		}
	}

	report := &Report{
		UserID:      user.ID,
		Description: sub.description,
		Severity:    sub.severity,
		Latitude:    sub.location.Latitude,
		Longitude:   sub.location.Longitude,
		ImageURL:    imageURL,
		Status:      StatusReported,
	}
	if err := s.store.Insert(ctx, report); err != nil {
		persistErr := &PersistError{Err: err}
		d.fail(s.now(), persistErr)
		metrics.Submissions.WithLabelValues("persist_failed").Inc()
		s.log.Error("draft %s insert failed, image %s kept for retry: %v", d.id, imageURL, err)
		return nil, persistErr
	}

	metrics.Submissions.WithLabelValues("succeeded").Inc()
	if !d.succeed(s.now()) {
		s.log.Info("report %s persisted for discarded draft %s", report.ID, d.id)
		return report, ErrDraftDiscarded
	}

	s.notify(*report)
	return report, nil
}

func isValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Len is the number of cached drafts
func (s *Submitter) Len() int {
	return s.drafts.Len()
}
