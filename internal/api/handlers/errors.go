package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo/errs"
)

type ErrorCode string

const (
	ErrorCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInvalidURL          ErrorCode = "INVALID_URL"
	ErrorCodeNothingToExtract    ErrorCode = "NOTHING_TO_EXTRACT"
	ErrorCodeUpstreamRateLimit   ErrorCode = "UPSTREAM_RATE_LIMITED"
	ErrorCodeBadUpstream         ErrorCode = "BAD_UPSTREAM_RESPONSE"
	ErrorCodeUpstreamUnreachable ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrorCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrorCodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error body returned by the API.
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{Code: ErrorCodeValidation, Message: message, Details: details, StatusCode: http.StatusBadRequest}
}

func NewRateLimitError() *AppError {
	return NewError(ErrorCodeRateLimitExceeded, "Too many requests, slow down", http.StatusTooManyRequests)
}

// FromError maps a resolution error onto an API error.
func FromError(err error) *AppError {
	switch {
	case errors.Is(err, errs.ErrNotValidURL):
		return NewError(ErrorCodeInvalidURL, "The URL is not a supported video page", http.StatusBadRequest)
	case errors.Is(err, errs.ErrNothingToExtract):
		return NewError(ErrorCodeNothingToExtract, "The video page carried no usable metadata", http.StatusUnprocessableEntity)
	case errors.Is(err, errs.ErrTooManyRequests):
		return NewError(ErrorCodeUpstreamRateLimit, "The video platform is rate limiting requests", http.StatusTooManyRequests)
	case errors.Is(err, errs.ErrBadResponse):
		return NewError(ErrorCodeBadUpstream, "The video platform returned an unexpected response", http.StatusBadGateway)
	case isTimeout(err):
		return NewError(ErrorCodeUpstreamTimeout, "The video platform did not answer in time", http.StatusGatewayTimeout)
	case errors.Is(err, errs.ErrTransportFailure):
		return NewError(ErrorCodeUpstreamUnreachable, "The video platform could not be reached", http.StatusBadGateway)
	default:
		return NewError(ErrorCodeInternal, "Internal server error", http.StatusInternalServerError)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func errorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// Abort writes err and stops the handler chain.
func Abort(c *gin.Context, err *AppError) {
	errorResponse(c, err)
	c.Abort()
}
