package reports

import (
	"strings"
	"sync"
	"time"

	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/media"
)

// State of a draft submission
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateUploading  State = "uploading"
	StatePersisting State = "persisting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) inFlight() bool {
	return s == StateValidating || s == StateUploading || s == StatePersisting
}

// Draft is the staging object of one report form. All fields are guarded by mu;
// the lock is never held across a network call.
type Draft struct {
	mu sync.Mutex

	id      string
	ownerID string

	description string
	severity    Severity
	image       *media.Image
	verdict     classifier.Verdict
	warning     string
	location    *geo.Coordinate
	geoErr      *geo.Error

	state       State
	lastErr     error
	uploadedURL string
	discarded   bool

	createdAt time.Time
	updatedAt time.Time
}

func newDraft(id, ownerID string, now time.Time) *Draft {
	return &Draft{
		id:        id,
		ownerID:   ownerID,
		severity:  DefaultSeverity,
		state:     StateEditing,
		createdAt: now,
		updatedAt: now,
	}
}

func (d *Draft) ID() string { return d.id }

func (d *Draft) OwnerID() string { return d.ownerID }

// LocationErrorView is the last failed location capture
type LocationErrorView struct {
	Kind    string `json:"kind" example:"PERMISSION_DENIED"`
	Message string `json:"message"`
}

// ImageView describes the attached image without its bytes
type ImageView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Preview     string `json:"preview"`
}

// DraftView is the JSON shape of a draft
type DraftView struct {
	ID            string             `json:"id"`
	State         State              `json:"state"`
	Description   string             `json:"description"`
	Severity      Severity           `json:"severity"`
	Image         *ImageView         `json:"image,omitempty"`
	Verdict       classifier.Verdict `json:"verdict,omitempty"`
	Warning       string             `json:"warning,omitempty"`
	Location      *geo.Coordinate    `json:"location,omitempty"`
	LocationError *LocationErrorView `json:"locationError,omitempty"`
	Error         string             `json:"error,omitempty"`
	ImageUploaded bool               `json:"imageUploaded"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// View snapshots the draft
func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := DraftView{
		ID:            d.id,
		State:         d.state,
		Description:   d.description,
		Severity:      d.severity,
		Verdict:       d.verdict,
		Warning:       d.warning,
		ImageUploaded: d.uploadedURL != "",
		CreatedAt:     d.createdAt,
		UpdatedAt:     d.updatedAt,
	}
	if d.image != nil {
		v.Image = &ImageView{
			Filename:    d.image.Filename,
			ContentType: d.image.ContentType,
			Size:        d.image.Size,
			Width:       d.image.Width,
			Height:      d.image.Height,
			Preview:     d.image.Preview,
		}
	}
	if d.location != nil {
		loc := *d.location
		v.Location = &loc
	}
	if d.geoErr != nil {
		v.LocationError = &LocationErrorView{Kind: d.geoErr.Kind.String(), Message: d.geoErr.Kind.Message()}
	}
	if d.lastErr != nil {
		v.Error = d.lastErr.Error()
	}
	return v
}

// State returns the current workflow state
func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastError returns the error of the last submit or capture
func (d *Draft) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// edit runs fn under the lock once the draft is known to be editable
func (d *Draft) edit(now time.Time, fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return ErrDraftDiscarded
	}
	if d.state.inFlight() {
		return ErrSubmissionInFlight
	}
	fn()
	d.state = StateEditing
	d.updatedAt = now
	return nil
}

func (d *Draft) setFields(now time.Time, description *string, severity *Severity) error {
	if severity != nil && !severity.Valid() {
		return &ValidationError{Field: "severity", Message: "must be one of low, medium, high"}
	}
	if description != nil && len([]rune(*description)) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Message: "must be at most 1000 characters"}
	}
	return d.edit(now, func() {
		if description != nil {
			d.description = *description
		}
		if severity != nil {
			d.severity = *severity
		}
		d.lastErr = nil
	})
}

// setImage replaces the image. The returned URL is the upload that the new
// image orphans, if any.
func (d *Draft) setImage(now time.Time, img *media.Image, verdict classifier.Verdict) (orphan string, err error) {
	err = d.edit(now, func() {
		orphan = d.uploadedURL
		d.uploadedURL = ""
		d.image = img
		d.verdict = verdict
		d.warning = ""
		if verdict == classifier.Reject {
			d.warning = classifier.RejectWarning
		}
		d.lastErr = nil
	})
	return orphan, err
}

func (d *Draft) setLocation(now time.Time, coord geo.Coordinate, geoErr *geo.Error) error {
	return d.edit(now, func() {
		if geoErr != nil {
			d.geoErr = geoErr
			d.lastErr = geoErr
			return
		}
		c := coord
		d.location = &c
		d.geoErr = nil
		d.lastErr = nil
	})
}

// submission is the payload copied out of a draft so upload and insert run unlocked
type submission struct {
	description string
	severity    Severity
	image       *media.Image
	location    geo.Coordinate
	uploadedURL string
}

// begin moves editing -> validating and then either back to editing with a
// *ValidationError or on to uploading (or persisting when a previous upload is reusable).
func (d *Draft) begin(now time.Time) (submission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return submission{}, ErrDraftDiscarded
	}
	if d.state.inFlight() {
		return submission{}, ErrSubmissionInFlight
	}

	d.state = StateValidating
	d.updatedAt = now

	if err := d.validateLocked(); err != nil {
		d.state = StateEditing
		d.lastErr = err
		return submission{}, err
	}

	sub := submission{
		description: strings.TrimSpace(d.description),
		severity:    d.severity,
		image:       d.image,
		location:    *d.location,
		uploadedURL: d.uploadedURL,
	}

	d.lastErr = nil
	if sub.uploadedURL != "" {
		d.state = StatePersisting
	} else {
		d.state = StateUploading
	}
	return sub, nil
}

func (d *Draft) validateLocked() error {
	switch {
	case d.image == nil && d.location == nil:
		return &ValidationError{Message: "Please provide both an image and location"}
	case d.image == nil:
		return &ValidationError{Field: "image", Message: "an image is required"}
	case d.location == nil:
		return &ValidationError{Field: "location", Message: "a location is required"}
	case strings.TrimSpace(d.description) == "":
		return &ValidationError{Field: "description", Message: "must not be empty"}
	case len([]rune(d.description)) > MaxDescriptionLength:
		return &ValidationError{Field: "description", Message: "must be at most 1000 characters"}
	case !d.severity.Valid():
		return &ValidationError{Field: "severity", Message: "must be one of low, medium, high"}
	}
	return nil
}

// uploaded records the public URL and moves uploading -> persisting
func (d *Draft) uploaded(now time.Time, url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return false
	}
	d.uploadedURL = url
	d.state = StatePersisting
	d.updatedAt = now
	return true
}

// fail moves to failed, keeping every field so a retry needs no re-entry
func (d *Draft) fail(now time.Time, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return
	}
	d.state = StateFailed
	d.lastErr = err
	d.updatedAt = now
}

// succeed resets the draft to an empty form. It reports false when the draft
// was discarded in the meantime, in which case nothing is touched.
func (d *Draft) succeed(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.discarded {
		return false
	}
	d.description = ""
	d.severity = DefaultSeverity
	d.image = nil
	d.verdict = ""
	d.warning = ""
	d.location = nil
	d.geoErr = nil
	d.uploadedURL = ""
	d.lastErr = nil
	d.state = StateSucceeded
	d.updatedAt = now
	return true
}

// discard detaches the draft. Later completions become no-ops.
func (d *Draft) discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discarded = true
}

func (d *Draft) isDiscarded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discarded
}
