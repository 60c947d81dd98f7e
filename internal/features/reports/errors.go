package reports

import (
	"errors"
	"fmt"

	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

var (
	ErrIllegalTransition  = fmt.Errorf("%w: illegal status transition", pkgerrors.ErrConflict)
	ErrSubmissionInFlight = fmt.Errorf("%w: a submission for this draft is already in progress", pkgerrors.ErrConflict)
	ErrDraftNotFound      = fmt.Errorf("%w: draft not found", pkgerrors.ErrNotFound)
	ErrTooManyDrafts      = fmt.Errorf("%w: too many open drafts", pkgerrors.ErrConflict)
	ErrDraftDiscarded     = errors.New("draft was discarded")
	ErrReportNotFound     = fmt.Errorf("%w: report not found", pkgerrors.ErrNotFound)
	ErrAlreadyVoted       = fmt.Errorf("%w: already voted on this report", pkgerrors.ErrDuplicate)
	ErrNotDraftOwner      = fmt.Errorf("%w: draft belongs to another user", pkgerrors.ErrForbidden)
)

// ValidationError is a locally recoverable problem with a draft or request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return pkgerrors.ErrValidation }

// UploadError carries the object storage failure. Error() is the storage message verbatim.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }

// PersistError carries the store failure verbatim
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return e.Err.Error() }

func (e *PersistError) Unwrap() error { return e.Err }

// TransitionError is any status change outside reported -> in-progress -> resolved
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move report from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }
