package httpapi

import (
	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/server/validate"
	"github.com/labstack/echo/v4"
)

// echoValidator plugs the request validator into echo.Context.Validate.
type echoValidator struct {
	v *validate.Validator
}

func (ev *echoValidator) Validate(i any) error {
	return ev.v.Struct(i)
}

// bind decodes the request into dst. Malformed bodies are a validation error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}
	return nil
}
