package reports

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/media"
	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

type Handler struct {
	submitter     *Submitter
	store         Store
	maxImageBytes int64
}

func NewHandler(submitter *Submitter, store Store, maxImageBytes int64) *Handler {
	if maxImageBytes <= 0 {
		maxImageBytes = media.MaxBytes
	}
	return &Handler{submitter: submitter, store: store, maxImageBytes: maxImageBytes}
}

// SubmitResponse is the persisted report plus the reset draft
type SubmitResponse struct {
	Report *Report   `json:"report"`
	Draft  DraftView `json:"draft"`
}

func currentUser(c *gin.Context) (auth.CurrentUser, bool) {
	user, ok := auth.CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
	}
	return user, ok
}

func draftData(d *Draft) interface{} {
	if d == nil {
		return nil
	}
	return d.View()
}

// CreateDraft godoc
// @Summary Start a report draft
// @Description Create an empty report form. Description and severity may be set right away.
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDraftRequest false "Initial fields"
// @Success 201 {object} response.APIResponse{data=DraftView}
// @Failure 401 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Router /drafts [post]
func (h *Handler) CreateDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateDraftRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BindJSONError(c, err)
			return
		}
	}
	severity, err := ParseSeverityField(req.Severity)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	d, err := h.submitter.CreateDraft(user)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	if req.Description != "" || severity != nil {
		if _, err := h.submitter.UpdateFields(user, d.ID(), &req.Description, severity); err != nil {
			_ = h.submitter.Discard(user, d.ID())
			writeError(c, err, nil)
			return
		}
	}

	response.Created(c, d.View(), "Draft created")
}

// GetDraft godoc
// @Summary Get a draft
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 200 {object} response.APIResponse{data=DraftView}
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /drafts/{id} [get]
func (h *Handler) GetDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	d, err := h.submitter.Draft(user, c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, d.View())
}

// DeleteDraft godoc
// @Summary Discard a draft
// @Description Drop the draft. A submission still running for it completes without touching it.
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /drafts/{id} [delete]
func (h *Handler) DeleteDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.submitter.Discard(user, c.Param("id")); err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, nil, "Draft discarded")
}

// UpdateDraft godoc
// @Summary Edit draft fields
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param request body UpdateDraftRequest true "Fields to change"
// @Success 200 {object} response.APIResponse{data=DraftView}
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /drafts/{id} [patch]
func (h *Handler) UpdateDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	var severity *Severity
	if req.Severity != nil {
		s := ParseSeverity(*req.Severity)
		severity = &s
	}

	d, err := h.submitter.UpdateFields(user, c.Param("id"), req.Description, severity)
	if err != nil {
		writeError(c, err, draftData(d))
		return
	}

	response.Success(c, d.View(), "Draft updated")
}

// AttachImage godoc
// @Summary Attach the draft image
// @Description Upload the photo as multipart field "image". The classifier verdict only adds a warning.
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param image formData file true "JPEG, PNG, GIF or WebP image"
// @Success 200 {object} response.APIResponse{data=DraftView}
// @Failure 413 {object} response.APIResponse
// @Failure 415 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /drafts/{id}/image [put]
func (h *Handler) AttachImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		response.ValidationError(c, "An image file is required in field \"image\"", "IMAGE_REQUIRED")
		return
	}

	img, err := media.FromFileHeader(header, h.maxImageBytes)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	d, err := h.submitter.AttachImage(c.Request.Context(), user, c.Param("id"), img)
	if err != nil {
		writeError(c, err, draftData(d))
		return
	}

	response.Success(c, d.View(), "Image attached")
}

// CaptureLocation godoc
// @Summary Record the draft location
// @Description Send the device position, the device's geolocation error code (1 denied, 2 unavailable, 3 timeout), or source=provider.
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param request body LocationRequest true "Position or error"
// @Success 200 {object} response.APIResponse{data=DraftView}
// @Failure 422 {object} response.APIResponse{data=DraftView}
// @Router /drafts/{id}/location [put]
func (h *Handler) CaptureLocation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	locator, err := req.Locator(h.submitter.Provider())
	if err != nil {
		writeError(c, err, nil)
		return
	}

	d, err := h.submitter.CaptureLocation(c.Request.Context(), user, c.Param("id"), locator)
	if err != nil {
		writeError(c, err, draftData(d))
		return
	}

	response.Success(c, d.View(), "Location captured")
}

// SubmitDraft godoc
// @Summary Submit a draft
// @Description Validate, upload the image, then insert the report. On failure the draft keeps every field.
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 201 {object} response.APIResponse{data=SubmitResponse}
// @Failure 409 {object} response.APIResponse
// @Failure 410 {object} response.APIResponse{data=Report}
// @Failure 422 {object} response.APIResponse{data=DraftView}
// @Failure 502 {object} response.APIResponse{data=DraftView}
// @Router /drafts/{id}/submit [post]
func (h *Handler) SubmitDraft(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	report, d, err := h.submitter.Submit(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrDraftDiscarded) && report != nil {
			writeError(c, err, report)
			return
		}
		writeError(c, err, draftData(d))
		return
	}

	response.Created(c, SubmitResponse{Report: report, Draft: d.View()}, "Pothole reported successfully!")
}

// CreateReport godoc
// @Summary Report a pothole in one request
// @Description Multipart form with image, description, severity and either latitude/longitude, errorCode or source=provider.
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Road photo"
// @Param description formData string true "What is wrong"
// @Param severity formData string false "low, medium or high"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param errorCode formData int false "Geolocation error code"
// @Param source formData string false "device or provider"
// @Success 201 {object} response.APIResponse{data=Report}
// @Failure 422 {object} response.APIResponse{data=DraftView}
// @Failure 502 {object} response.APIResponse{data=DraftView}
// @Router /reports [post]
func (h *Handler) CreateReport(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	severity := DefaultSeverity
	if s, err := ParseSeverityField(c.PostForm("severity")); err != nil {
		writeError(c, err, nil)
		return
	} else if s != nil {
		severity = *s
	}

	var img *media.Image
	if header, err := c.FormFile("image"); err == nil {
		img, err = media.FromFileHeader(header, h.maxImageBytes)
		if err != nil {
			writeError(c, err, nil)
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		response.BadRequest(c, "Invalid multipart form", "INVALID_FORM")
		return
	}

	locReq, err := locationFromForm(c)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	var locator geo.Locator
	if locReq.HasLocation() {
		if locator, err = locReq.Locator(h.submitter.Provider()); err != nil {
			writeError(c, err, nil)
			return
		}
	}

	report, d, err := h.submitter.SubmitOnce(c.Request.Context(), user, c.PostForm("description"), severity, img, locator)
	if err != nil {
		writeError(c, err, draftData(d))
		return
	}

	response.Created(c, report, "Pothole reported successfully!")
}

func locationFromForm(c *gin.Context) (LocationRequest, error) {
	lat, err := parseFormFloat("latitude", c.PostForm("latitude"))
	if err != nil {
		return LocationRequest{}, err
	}
	lng, err := parseFormFloat("longitude", c.PostForm("longitude"))
	if err != nil {
		return LocationRequest{}, err
	}

	req := LocationRequest{
		Latitude:     lat,
		Longitude:    lng,
		ErrorMessage: c.PostForm("errorMessage"),
		Source:       strings.TrimSpace(c.PostForm("source")),
	}
	if raw := strings.TrimSpace(c.PostForm("errorCode")); raw != "" {
		code, err := parseFormFloat("errorCode", raw)
		if err != nil {
			return LocationRequest{}, err
		}
		req.ErrorCode = int(*code)
	}
	if req.Source != "" && req.Source != "device" && req.Source != "provider" {
		return LocationRequest{}, &ValidationError{Field: "source", Message: "must be device or provider"}
	}
	return req, nil
}

// ListReports godoc
// @Summary List reports
// @Description Newest first. mine=true restricts the list to the caller's reports.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param mine query bool false "Only my reports"
// @Success 200 {object} response.APIResponse{data=response.PaginatedData{items=[]Report}}
// @Router /reports [get]
func (h *Handler) ListReports(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	req := pagination.FromRequest(c.Query("page"), c.Query("limit"))
	userID := ""
	if c.Query("mine") == "true" {
		userID = user.ID
	}

	list, total, err := h.store.ListPage(c.Request.Context(), userID, req)
	if err != nil {
		response.DatabaseError(c, "Failed to fetch reports")
		return
	}

	response.Paginated(c, list, total, req)
}

// GetReport godoc
// @Summary Get a report
// @Description The report with its comments, oldest first
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.APIResponse{data=Report}
// @Failure 404 {object} response.APIResponse
// @Router /reports/{id} [get]
func (h *Handler) GetReport(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	report, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, report)
}

// AddComment godoc
// @Summary Comment on a report
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} response.APIResponse{data=Comment}
// @Failure 404 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /reports/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	if err := ValidateCreateCommentRequest(&req); err != nil {
		writeError(c, err, nil)
		return
	}

	comment := &Comment{ReportID: c.Param("id"), UserID: user.ID, Content: req.Content}
	if err := h.store.AddComment(c.Request.Context(), comment); err != nil {
		writeError(c, err, nil)
		return
	}

	response.Created(c, comment, "Comment added")
}

// Vote godoc
// @Summary Vote for a report
// @Description One vote per user per report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.APIResponse{data=VoteResponse}
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /reports/{id}/vote [post]
func (h *Handler) Vote(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	votes, err := h.store.Vote(c.Request.Context(), id, user.ID)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, VoteResponse{ReportID: id, Votes: votes}, "Vote recorded")
}
