package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomainError maps an AppError code onto its HTTP status. Unknown codes become 500.
func fromDomainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	status := statusForCode(code)
	if code == "" {
		code = "internal_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeDocumentNotFound:
		return http.StatusNotFound
	case apperrors.CodeExtraction:
		return http.StatusUnprocessableEntity
	case apperrors.CodeNotReady:
		return http.StatusServiceUnavailable
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// asHTTPError passes HTTPError through, maps coded domain errors and hides anything else
// behind a generic 500.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if apperrors.CodeOf(err) != "" {
		return fromDomainError(err)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// renderErrors writes the last error recorded by the handler chain, unless a response
// has already been written. Server-side failures log at error level, client ones at warn.
func renderErrors(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []any{"code", httpErr.Code, "status", httpErr.Status, "method", c.Request.Method, "route", c.FullPath()}
		if httpErr.Err != nil {
			attrs = append(attrs, "error", httpErr.Err)
		}
		logger.Log(c.Request.Context(), level, "request failed", attrs...)

		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}
		c.JSON(httpErr.Status, errorBody{Error: errorDetail{Code: httpErr.Code, Message: message}})
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
