package rewards

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/pkg/response"
	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetBalance godoc
// @Summary Points balance
// @Tags rewards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Balance}
// @Router /rewards/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	user, ok := auth.CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return
	}

	balance, err := h.svc.Balance(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, balance)
}

// Redeem godoc
// @Summary Redeem points
// @Description Request a UPI payout. The request stays pending until an admin completes it.
// @Tags rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemRequest true "Points and UPI ID"
// @Success 201 {object} response.APIResponse{data=Reward}
// @Failure 422 {object} response.APIResponse
// @Router /rewards/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	user, ok := auth.CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	reward, err := h.svc.Redeem(c.Request.Context(), user, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, reward, "Redemption requested")
}

// ListRewards godoc
// @Summary My rewards
// @Description Newest first
// @Tags rewards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]Reward}
// @Router /rewards [get]
func (h *Handler) ListRewards(c *gin.Context) {
	user, ok := auth.CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return
	}

	list, err := h.svc.List(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, list)
}

// CompleteReward godoc
// @Summary Complete a payout
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} response.APIResponse{data=Reward}
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /admin/rewards/{id}/complete [patch]
func (h *Handler) CompleteReward(c *gin.Context) {
	reward, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, reward, "Reward completed")
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidUPIID):
		response.ValidationError(c, "Please enter a valid UPI ID", "INVALID_UPI_ID")
	case errors.Is(err, ErrBelowMinimum):
		response.ValidationError(c, err.Error(), "BELOW_MINIMUM")
	case errors.Is(err, ErrInsufficientPoints):
		response.ValidationError(c, err.Error(), "INSUFFICIENT_POINTS")
	case errors.Is(err, ErrNotPending):
		response.Conflict(c, "Reward is not pending", "NOT_PENDING")
	case errors.Is(err, ErrRewardNotFound):
		response.NotFound(c, "Reward not found", "REWARD_NOT_FOUND")
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, "Profile not found", "PROFILE_NOT_FOUND")
	default:
		response.DatabaseError(c, "Failed to process rewards")
	}
}
