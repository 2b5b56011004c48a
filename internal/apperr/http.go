package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var statusByCode = map[string]int{
	CodeInternal:        http.StatusInternalServerError,
	CodeNotFound:        http.StatusNotFound,
	CodeInvalidArgument: http.StatusBadRequest,
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeConflict:        http.StatusConflict,
	CodeTooManyRequests: http.StatusTooManyRequests,
}

// HTTPStatus returns the HTTP status for an error code; unknown codes are 500.
func HTTPStatus(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Body is the JSON error payload returned by the API.
type Body struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToHTTP converts err to a status and body. echo.HTTPErrors raised by the
// framework (bad JSON, unknown route, rate limiter) keep their status.
func ToHTTP(err error) (int, Body) {
	if he, ok := err.(*echo.HTTPError); ok {
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, Body{Error: msg}
	}

	appErr := From(err)
	status := HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		return status, Body{Error: "Internal server error"}
	}
	return status, Body{Error: appErr.Message, Fields: appErr.Fields}
}
