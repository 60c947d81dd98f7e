package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/pkg/response"
	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SignUp godoc
// @Summary Create an account
// @Description Create a Firebase account and a profile with zero points
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Credentials"
// @Success 201 {object} response.APIResponse{data=AuthResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	if err := ValidateSignUp(&req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	res, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, res, "Account created")
}

// SignIn godoc
// @Summary Sign in
// @Description Verify email and password and issue a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} response.APIResponse{data=AuthResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Router /auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	if err := ValidateSignIn(&req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	res, err := h.svc.SignIn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, res, "Signed in")
}

// SignOut godoc
// @Summary Sign out
// @Description Revoke every session of the caller
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/signout [post]
func (h *Handler) SignOut(c *gin.Context) {
	user, ok := CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, nil, "Signed out")
}

// Me godoc
// @Summary Current profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Profile}
// @Failure 401 {object} response.APIResponse
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := CurrentUserFrom(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return
	}

	profile, err := h.svc.Profiles().GetByID(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, "Email already registered", "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid email or password", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrProfileNotFound):
		response.NotFound(c, "Profile not found", "PROFILE_NOT_FOUND")
	case errors.Is(err, pkgerrors.ErrUnavailable):
		response.BadGateway(c, "Identity provider unavailable", "IDENTITY_UNAVAILABLE")
	default:
		response.InternalServerError(c, "Authentication failed", "AUTH_ERROR")
	}
}
