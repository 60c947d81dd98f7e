package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
)

// APIResponse is the envelope every endpoint returns
type APIResponse struct {
	Success    bool        `json:"success" example:"true"`
	StatusCode int         `json:"statusCode" example:"200"`
	Message    string      `json:"message" example:"ok"`
	Code       string      `json:"code,omitempty" example:"VALIDATION_FAILED"`
	Data       interface{} `json:"data,omitempty"`
}

// PaginatedData is the data payload of a paginated list
type PaginatedData struct {
	Items interface{} `json:"items"`
	pagination.Pagination
}

func write(c *gin.Context, status int, message, code string, data interface{}) {
	c.JSON(status, APIResponse{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    message,
		Code:       code,
		Data:       data,
	})
}

// Success sends a 200 OK response with data
func Success(c *gin.Context, data interface{}, message ...string) {
	write(c, http.StatusOK, firstOr(message, "success"), "", data)
}

// Created sends a 201 Created response
func Created(c *gin.Context, data interface{}, message ...string) {
	write(c, http.StatusCreated, firstOr(message, "created"), "", data)
}

// Paginated sends one page of items with its page metadata
func Paginated(c *gin.Context, items interface{}, total int64, req pagination.Request) {
	write(c, http.StatusOK, "success", "", PaginatedData{
		Items:      items,
		Pagination: *pagination.New(req.Page, req.Limit, total),
	})
}

// Error sends an error response with custom status code and message
func Error(c *gin.Context, statusCode int, message string, errorCode ...string) {
	write(c, statusCode, message, firstOr(errorCode, ""), nil)
}

// ErrorWithData sends an error response that carries extra detail in data
func ErrorWithData(c *gin.Context, statusCode int, message, errorCode string, data interface{}) {
	write(c, statusCode, message, errorCode, data)
}

// BadRequest sends a 400 Bad Request error
func BadRequest(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusBadRequest, message, errorCode...)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusUnauthorized, message, errorCode...)
}

// Forbidden sends a 403 Forbidden error
func Forbidden(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusForbidden, message, errorCode...)
}

// NotFound sends a 404 Not Found error
func NotFound(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusNotFound, message, errorCode...)
}

// Conflict sends a 409 Conflict error
func Conflict(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusConflict, message, errorCode...)
}

// ValidationError sends a 422 Unprocessable Entity error
func ValidationError(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusUnprocessableEntity, message, errorCode...)
}

// InternalServerError sends a 500 Internal Server Error
func InternalServerError(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusInternalServerError, message, errorCode...)
}

// BadGateway sends a 502 when a backend collaborator failed
func BadGateway(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusBadGateway, message, errorCode...)
}

// FieldError names one request field that failed its binding rule
type FieldError struct {
	Field   string `json:"field" example:"upiId"`
	Message string `json:"message" example:"upiId is required"`
}

// BindJSONError answers 422 with per-field messages when binding rules failed,
// and 400 when the body could not be decoded at all.
func BindJSONError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(c, "Invalid request format", "INVALID_JSON")
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		f := FieldError{Field: jsonName(fe.Field()), Message: fieldMessage(fe)}
		fields = append(fields, f)
		messages = append(messages, f.Message)
	}
	ErrorWithData(c, http.StatusUnprocessableEntity, strings.Join(messages, "; "), "VALIDATION_FAILED", fields)
}

func jsonName(field string) string {
	switch field {
	case "UPIID":
		return "upiId"
	case "":
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func fieldMessage(fe validator.FieldError) string {
	name := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}

// ValidationFailed handles validation errors
func ValidationFailed(c *gin.Context, message string) {
	ValidationError(c, message, "VALIDATION_FAILED")
}

// DatabaseError handles database operation errors
func DatabaseError(c *gin.Context, message string) {
	InternalServerError(c, message, "DATABASE_ERROR")
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
