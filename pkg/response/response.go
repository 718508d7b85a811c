package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the unified success response format consumed by the web client:
// { "success": true, "data": { ... } }.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the wire shape of an error: { "error": { "code", "message" } }.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Domain error codes. Services return these so callers can distinguish
// failure classes without parsing messages.
const (
	CodeValidation    = "validation_error"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeInvalidState  = "invalid_state_transition"
	CodeDuplicateVote = "duplicate_vote"
	CodeConflict      = "conflict"
	CodeInternal      = "internal_error"
)

// AppError is a structured application error carrying an HTTP status and a
// stable error code.
type AppError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors

func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeConflict, Message: msg}
}

// NewInvalidState reports an illegal workflow transition, e.g. voting on a
// draft proposal or finalizing twice.
func NewInvalidState(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeInvalidState, Message: msg}
}

// NewDuplicateVote reports a second vote by the same member on a proposal.
func NewDuplicateVote(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeDuplicateVote, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeInternal, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error sends an error response. If err is an *AppError its code and status
// are used; anything else is reported as a generic 500 so storage or driver
// detail never reaches the client.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, errorEnvelope{Error: ErrorBody{Code: appErr.Code, Message: appErr.Message}})
		return
	}
	c.JSON(http.StatusInternalServerError, errorEnvelope{
		Error: ErrorBody{Code: CodeInternal, Message: "internal server error"},
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorEnvelope{Error: ErrorBody{Code: CodeValidation, Message: msg}})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, errorEnvelope{Error: ErrorBody{Code: CodeUnauthorized, Message: msg}})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, errorEnvelope{Error: ErrorBody{Code: CodeForbidden, Message: msg}})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorEnvelope{Error: ErrorBody{Code: CodeNotFound, Message: msg}})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, errorEnvelope{Error: ErrorBody{Code: CodeInternal, Message: msg}})
}
