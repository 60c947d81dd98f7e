package reports

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/media"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

// writeError turns a workflow failure into one error envelope. data, when not
// nil, is attached so clients can redraw the preserved draft.
func writeError(c *gin.Context, err error, data interface{}) {
	var (
		validationErr *ValidationError
		transitionErr *TransitionError
		uploadErr     *UploadError
		persistErr    *PersistError
		geoErr        *geo.Error
	)

	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong"

	switch {
	case errors.Is(err, ErrDraftDiscarded):
		status, code, message = http.StatusGone, "DRAFT_DISCARDED", err.Error()
	case errors.As(err, &geoErr):
		status, code, message = http.StatusUnprocessableEntity, "GEO_"+geoErr.Kind.String(), geoErr.Kind.Message()
	case errors.As(err, &validationErr):
		status, code, message = http.StatusUnprocessableEntity, "VALIDATION_FAILED", validationErr.Error()
	case errors.Is(err, media.ErrEmpty):
		status, code, message = http.StatusUnprocessableEntity, "IMAGE_EMPTY", err.Error()
	case errors.Is(err, media.ErrUnsupportedFormat):
		status, code, message = http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error()
	case errors.Is(err, media.ErrTooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", err.Error()
	case errors.As(err, &uploadErr):
		status, code, message = http.StatusBadGateway, "UPLOAD_FAILED", uploadErr.Error()
	case errors.As(err, &persistErr):
		status, code, message = http.StatusBadGateway, "PERSIST_FAILED", persistErr.Error()
	case errors.As(err, &transitionErr):
		status, code, message = http.StatusConflict, "ILLEGAL_TRANSITION", transitionErr.Error()
	case errors.Is(err, ErrTooManyDrafts):
		status, code, message = http.StatusTooManyRequests, "TOO_MANY_DRAFTS", "Too many open drafts. Submit or discard one first."
	case errors.Is(err, ErrSubmissionInFlight):
		status, code, message = http.StatusConflict, "SUBMISSION_IN_FLIGHT", "A submission for this draft is already in progress"
	case errors.Is(err, ErrAlreadyVoted):
		status, code, message = http.StatusConflict, "ALREADY_VOTED", "You have already voted on this report"
	case errors.Is(err, ErrDraftNotFound):
		status, code, message = http.StatusNotFound, "DRAFT_NOT_FOUND", "Draft not found"
	case errors.Is(err, ErrReportNotFound):
		status, code, message = http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found"
	case errors.Is(err, pkgerrors.ErrForbidden):
		status, code, message = http.StatusForbidden, "FORBIDDEN", "You do not have access to this draft"
	default:
		logger.Error("unhandled reports error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	response.ErrorWithData(c, status, message, code, data)
}
