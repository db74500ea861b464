package utils

import (
	"errors"
	"net/http"

	"notespace/model"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

// SuccessMessage is Success with the notification text the UI shows
func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = "Resource created successfully"
	}
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, &Response{
		Status: http.StatusUnauthorized,
		Error:  message,
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &Response{
		Status: http.StatusBadRequest,
		Error:  message,
	})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, &Response{
		Status: http.StatusNotFound,
		Error:  message,
	})
}

func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, &Response{
		Status: http.StatusInternalServerError,
		Error:  message,
	})
}

func Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, &Response{
		Status: http.StatusConflict,
		Error:  message,
	})
}

func ServiceUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, &Response{
		Status: http.StatusServiceUnavailable,
		Error:  message,
	})
}

func RequestTooLarge(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, &Response{
		Status: http.StatusRequestEntityTooLarge,
		Error:  message,
	})
}

// StatusFor maps an error onto the HTTP status the API answers with.
func StatusFor(err error) int {
	switch model.Classify(err) {
	case model.KindUnauthenticated, model.KindSessionExpired:
		return http.StatusUnauthorized
	case model.KindOffline:
		return http.StatusServiceUnavailable
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindInvalid:
		if errors.Is(err, model.ErrNotePending) || errors.Is(err, model.ErrInvalidTransition) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	}

	var remoteErr *model.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Status >= 400 && remoteErr.Status < 500 {
		if remoteErr.Status == http.StatusConflict {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Fail writes err with its mapped status and user-facing message.
func Fail(c *gin.Context, err error) {
	status := StatusFor(err)
	TrackError("api", string(model.Classify(err)))
	c.JSON(status, &Response{
		Status: status,
		Error:  model.UserMessage(err),
	})
}
