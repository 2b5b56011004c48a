package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/labstack/echo/v4"
)

// errorHandler renders every handler error as {"error": ..., "fields": ...}.
// Server errors are logged with their cause; the body stays generic.
func errorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := apperr.ToHTTP(err)
		if status >= 500 {
			logger.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn(c.Request().Context(), "error response not written", "error", err)
		}
	}
}
