package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

func strPtr(s string) *string { return &s }

func sevPtr(s Severity) *Severity { return &s }

func at(lat, lng float64) geo.Locator {
	return geo.ReportedLocator{Position: &geo.Coordinate{Latitude: lat, Longitude: lng}}
}

// fillDraft builds the "Large pothole" draft at (12.9253, 77.6164)
func fillDraft(t *testing.T, f *fixture) *Draft {
	t.Helper()
	ctx := context.Background()

	d := f.draft(t)
	_, err := f.submitter.UpdateFields(reporter, d.ID(), strPtr("Large pothole"), sevPtr(SeverityHigh))
	require.NoError(t, err)
	_, err = f.submitter.AttachImage(ctx, reporter, d.ID(), testImage(t, "img1.jpg"))
	require.NoError(t, err)
	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), at(12.9253, 77.6164))
	require.NoError(t, err)
	return d
}

func TestSubmitPersistsReportAndResetsDraft(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	require.Equal(t, classifier.Accept, d.View().Verdict)
	require.Empty(t, d.View().Warning)

	_, err := f.moderator.Refresh(context.Background())
	require.NoError(t, err)
	require.False(t, f.moderator.NeedsRefresh())

	report, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.NoError(t, err)

	require.Equal(t, "Large pothole", report.Description)
	require.Equal(t, SeverityHigh, report.Severity)
	require.Equal(t, 12.9253, report.Latitude)
	require.Equal(t, 77.6164, report.Longitude)
	require.Equal(t, StatusReported, report.Status)
	require.Equal(t, reporter.ID, report.UserID)
	require.NotEmpty(t, report.ID)

	require.Len(t, f.storage.keys, 1)
	key := f.storage.keys[0]
	require.True(t, strings.HasPrefix(key, "pothole-images/"), key)
	require.True(t, strings.HasSuffix(key, "-img1.jpg"), key)
	require.Equal(t, "https://storage.example/bucket/"+key, report.ImageURL)

	view := d.View()
	require.Equal(t, StateSucceeded, view.State)
	require.Empty(t, view.Description)
	require.Equal(t, SeverityMedium, view.Severity)
	require.Nil(t, view.Image)
	require.Nil(t, view.Location)
	require.False(t, view.ImageUploaded)

	require.Equal(t, 1, f.store.count())
	require.Equal(t, 1, f.callbacks())
	require.True(t, f.moderator.NeedsRefresh())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("image and location missing", func(t *testing.T) {
		f := newFixture(t, scoreModel{score: 0.9})
		d := f.draft(t)
		_, err := f.submitter.UpdateFields(reporter, d.ID(), strPtr("Large pothole"), nil)
		require.NoError(t, err)

		_, _, err = f.submitter.Submit(ctx, reporter, d.ID())
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "Please provide both an image and location", v.Error())
		require.Equal(t, StateEditing, d.State())
		require.Zero(t, f.storage.uploadCount())
		require.Zero(t, f.store.count())
	})

	t.Run("empty description", func(t *testing.T) {
		f := newFixture(t, scoreModel{score: 0.9})
		d := fillDraft(t, f)
		_, err := f.submitter.UpdateFields(reporter, d.ID(), strPtr("   "), nil)
		require.NoError(t, err)

		_, _, err = f.submitter.Submit(ctx, reporter, d.ID())
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "description", v.Field)
		require.Zero(t, f.storage.uploadCount())
	})

	t.Run("invalid severity is refused on edit", func(t *testing.T) {
		f := newFixture(t, scoreModel{score: 0.9})
		d := f.draft(t)
		_, err := f.submitter.UpdateFields(reporter, d.ID(), nil, sevPtr("critical"))
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, SeverityMedium, d.View().Severity)
	})

	t.Run("description too long", func(t *testing.T) {
		f := newFixture(t, scoreModel{score: 0.9})
		d := f.draft(t)
		_, err := f.submitter.UpdateFields(reporter, d.ID(), strPtr(strings.Repeat("x", MaxDescriptionLength+1)), nil)
		require.ErrorIs(t, err, pkgerrors.ErrValidation)
	})
}

func TestUploadFailurePreservesDraft(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.storage.err = errors.New("bucket unavailable")

	report, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.Nil(t, report)
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	require.Equal(t, "bucket unavailable", uploadErr.Error())

	view := d.View()
	require.Equal(t, StateFailed, view.State)
	require.Equal(t, "Large pothole", view.Description)
	require.Equal(t, SeverityHigh, view.Severity)
	require.NotNil(t, view.Image)
	require.NotNil(t, view.Location)
	require.Equal(t, "bucket unavailable", view.Error)
	require.Zero(t, f.store.count())
	require.Zero(t, f.callbacks())

	f.storage.err = nil
	report, _, err = f.submitter.Submit(context.Background(), reporter, d.ID())
	require.NoError(t, err)
	require.Equal(t, "Large pothole", report.Description)
	require.Equal(t, 1, f.store.count())
}

func TestInsertFailureRetriesWithoutReupload(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.store.insertFails = 1
	f.store.insertErr = errors.New("connection reset")

	_, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, "connection reset", persistErr.Error())
	require.Equal(t, StateFailed, d.State())
	require.True(t, d.View().ImageUploaded)
	require.Equal(t, 1, f.storage.uploadCount())

	report, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.NoError(t, err)
	require.Equal(t, 1, f.storage.uploadCount())
	require.Equal(t, "https://storage.example/bucket/"+f.storage.keys[0], report.ImageURL)
}

func TestReplacingUploadedImageUploadsAgain(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.store.insertFails = 1
	f.store.insertErr = errors.New("connection reset")

	_, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.Error(t, err)

	_, err = f.submitter.AttachImage(context.Background(), reporter, d.ID(), testImage(t, "img2.png"))
	require.NoError(t, err)
	require.False(t, d.View().ImageUploaded)

	report, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.NoError(t, err)
	require.Equal(t, 2, f.storage.uploadCount())
	require.True(t, strings.HasSuffix(report.ImageURL, "-img2.png"))
}

func TestClassifierVerdictNeverBlocks(t *testing.T) {
	cases := []struct {
		name    string
		model   classifier.Model
		verdict classifier.Verdict
		warning string
	}{
		{"reject sets the warning", scoreModel{score: 0.1}, classifier.Reject, classifier.RejectWarning},
		{"model error", scoreModel{err: errors.New("model server down")}, classifier.Unknown, ""},
		{"model panic", scoreModel{panic: true}, classifier.Unknown, ""},
		{"no model", nil, classifier.Unknown, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.model)
			d := fillDraft(t, f)

			view := d.View()
			require.Equal(t, tc.verdict, view.Verdict)
			require.Equal(t, tc.warning, view.Warning)

			_, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
			require.NoError(t, err)
			require.Equal(t, 1, f.store.count())
		})
	}
}

func waitForState(t *testing.T, d *Draft, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return d.State() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestSubmissionInFlightGuard(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.storage.gate = make(chan struct{})

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, firstErr = f.submitter.Submit(context.Background(), reporter, d.ID())
	}()

	waitForState(t, d, StateUploading)

	_, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	_, err = f.submitter.UpdateFields(reporter, d.ID(), strPtr("changed"), nil)
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	_, err = f.submitter.AttachImage(context.Background(), reporter, d.ID(), testImage(t, "img2.png"))
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	// reads stay available while the upload runs
	require.Equal(t, "Large pothole", d.View().Description)

	close(f.storage.gate)
	wg.Wait()
	require.NoError(t, firstErr)
	require.Equal(t, 1, f.store.count())
	require.Equal(t, 1, f.storage.uploadCount())
}

func TestDiscardDuringUploadIsNoOp(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.storage.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
		done <- err
	}()

	waitForState(t, d, StateUploading)
	require.NoError(t, f.submitter.Discard(reporter, d.ID()))
	close(f.storage.gate)

	require.ErrorIs(t, <-done, ErrDraftDiscarded)
	require.Zero(t, f.store.count())
	require.Zero(t, f.callbacks())
	require.Zero(t, f.submitter.Len())

	_, err := f.submitter.Draft(reporter, d.ID())
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDiscardDuringInsertKeepsReport(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := fillDraft(t, f)
	f.store.insertGate = make(chan struct{})

	type result struct {
		report *Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, _, err := f.submitter.Submit(context.Background(), reporter, d.ID())
		done <- result{r, err}
	}()

	waitForState(t, d, StatePersisting)
	require.NoError(t, f.submitter.Discard(reporter, d.ID()))
	close(f.store.insertGate)

	res := <-done
	require.ErrorIs(t, res.err, ErrDraftDiscarded)
	require.NotNil(t, res.report)
	require.Equal(t, 1, f.store.count())
	require.Zero(t, f.callbacks())

	// the discarded draft is untouched by the completion
	require.Equal(t, StatePersisting, d.State())
	require.Equal(t, "Large pothole", d.View().Description)
}

func TestCaptureLocationErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scoreModel{score: 0.9})
	d := f.draft(t)

	_, err := f.submitter.CaptureLocation(ctx, reporter, d.ID(), at(12.9253, 77.6164))
	require.NoError(t, err)

	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), geo.ReportedLocator{ErrorCode: geo.CodePermissionDenied})
	require.Equal(t, geo.PermissionDenied, geo.KindOf(err))

	view := d.View()
	require.Equal(t, &geo.Coordinate{Latitude: 12.9253, Longitude: 77.6164}, view.Location)
	require.Equal(t, "PERMISSION_DENIED", view.LocationError.Kind)
	require.Equal(t, geo.PermissionDenied.Message(), view.LocationError.Message)

	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), at(91, 0))
	require.Equal(t, geo.PositionUnavailable, geo.KindOf(err))

	// no provider configured
	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), nil)
	require.Equal(t, geo.Unsupported, geo.KindOf(err))

	slow := geo.LocatorFunc(func(ctx context.Context) (geo.Coordinate, error) {
		<-ctx.Done()
		return geo.Coordinate{}, ctx.Err()
	})
	f.submitter.cfg.GeoTimeout = 20 * time.Millisecond
	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), slow)
	require.Equal(t, geo.Timeout, geo.KindOf(err))

	_, err = f.submitter.CaptureLocation(ctx, reporter, d.ID(), at(13.0, 77.5))
	require.NoError(t, err)
	require.Nil(t, d.View().LocationError)
	require.Equal(t, 13.0, d.View().Location.Latitude)
}

func TestDraftOwnership(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})
	d := f.draft(t)

	_, err := f.submitter.Draft(stranger, d.ID())
	require.ErrorIs(t, err, ErrNotDraftOwner)

	_, _, err = f.submitter.Submit(context.Background(), stranger, d.ID())
	require.ErrorIs(t, err, ErrNotDraftOwner)

	require.ErrorIs(t, f.submitter.Discard(stranger, d.ID()), ErrNotDraftOwner)

	_, err = f.submitter.Draft(reporter, "missing")
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestSubmitOnce(t *testing.T) {
	f := newFixture(t, scoreModel{score: 0.9})

	report, _, err := f.submitter.SubmitOnce(context.Background(), reporter, "Large pothole", SeverityHigh,
		testImage(t, "img1.jpg"), at(12.9253, 77.6164))
	require.NoError(t, err)
	require.Equal(t, SeverityHigh, report.Severity)
	require.Equal(t, reporter.ID, report.UserID)
	require.Zero(t, f.submitter.Len())

	_, d, err := f.submitter.SubmitOnce(context.Background(), reporter, "Large pothole", SeverityHigh,
		testImage(t, "img1.jpg"), geo.ReportedLocator{ErrorCode: geo.CodeTimeout})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	require.Equal(t, "TIMEOUT", d.View().LocationError.Kind)
	require.Equal(t, 1, f.store.count())
}

func TestUploadKey(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	require.Regexp(t, `^pothole-images/1767225600123-[0-9a-f]{8}-img1\.jpg$`, UploadKey("pothole-images", now, "img1.jpg"))
	require.Regexp(t, `^1767225600123-[0-9a-f]{8}-my_photo_1_\.png$`, UploadKey("", now, "../dir/my photo (1).png"))
	require.Regexp(t, `^p/1767225600123-[0-9a-f]{8}-image$`, UploadKey("/p/", now, "..."))
}

func TestUploadKeyDiffersForSameNameAndInstant(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key := UploadKey("pothole-images", now, "image.jpg")
		require.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestCreateDraftCaps(t *testing.T) {
	s := NewSubmitter(newMemStore(), newMemStorage(), nil, nil, SubmitterConfig{
		DraftTTL:         time.Hour,
		DraftCapacity:    4,
		MaxDraftsPerUser: 2,
	})

	first, err := s.CreateDraft(reporter)
	require.NoError(t, err)
	_, err = s.CreateDraft(reporter)
	require.NoError(t, err)
	_, err = s.CreateDraft(reporter)
	require.ErrorIs(t, err, ErrTooManyDrafts)

	// another owner is unaffected
	_, err = s.CreateDraft(stranger)
	require.NoError(t, err)

	// discarding frees the owner's slot
	require.NoError(t, s.Discard(reporter, first.ID()))
	_, err = s.CreateDraft(reporter)
	require.NoError(t, err)

	// a full cache refuses instead of evicting open drafts
	_, err = s.CreateDraft(stranger)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	_, err = s.CreateDraft(admin)
	require.ErrorIs(t, err, ErrTooManyDrafts)
	require.Equal(t, 4, s.Len())
}

func TestDraftLookupRenewsTTL(t *testing.T) {
	s := NewSubmitter(newMemStore(), newMemStorage(), nil, nil, SubmitterConfig{
		DraftTTL:      300 * time.Millisecond,
		DraftCapacity: 4,
	})
	d, err := s.CreateDraft(reporter)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		_, err = s.UpdateFields(reporter, d.ID(), strPtr(fmt.Sprintf("edit %d", i)), nil)
		require.NoError(t, err, "edit %d", i)
	}

	time.Sleep(450 * time.Millisecond)
	_, err = s.Draft(reporter, d.ID())
	require.ErrorIs(t, err, ErrDraftNotFound)
}
