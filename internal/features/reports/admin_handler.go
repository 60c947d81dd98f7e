package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/pkg/response"
)

type AdminHandler struct {
	moderator *Moderator
}

func NewAdminHandler(moderator *Moderator) *AdminHandler {
	return &AdminHandler{moderator: moderator}
}

// ModerationList is the filtered moderation view
type ModerationList struct {
	Filter Filter           `json:"filter" example:"all"`
	Items  []ModerationItem `json:"items"`
	State  ViewState        `json:"state"`
}

// ListReports godoc
// @Summary Moderation view
// @Description Every report newest first, filtered by status. refresh=true refetches from the store.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "all, reported, in-progress or resolved"
// @Param refresh query bool false "Refetch before listing"
// @Success 200 {object} response.APIResponse{data=ModerationList}
// @Failure 403 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Failure 503 {object} response.APIResponse{data=ViewState}
// @Router /admin/reports [get]
func (h *AdminHandler) ListReports(c *gin.Context) {
	filter, err := ParseFilter(c.Query("status"))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	if c.Query("refresh") == "true" || h.moderator.NeedsRefresh() {
		if _, err := h.moderator.Refresh(c.Request.Context()); err != nil {
			response.ErrorWithData(c, http.StatusServiceUnavailable, "Failed to fetch reports", "FETCH_FAILED", h.moderator.State())
			return
		}
	}

	list, err := h.moderator.List(filter)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, ModerationList{Filter: filter, Items: Items(list), State: h.moderator.State()})
}

// UpdateStatus godoc
// @Summary Advance a report
// @Description Only reported -> in-progress and in-progress -> resolved are accepted
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} response.APIResponse{data=ModerationItem}
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Failure 502 {object} response.APIResponse
// @Router /admin/reports/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	target, err := ParseUpdateStatus(&req)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	report, err := h.moderator.Advance(c.Request.Context(), c.Param("id"), target)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	response.Success(c, ModerationItem{Report: *report, Actions: ActionsFor(report.Status)}, "Status updated")
}
