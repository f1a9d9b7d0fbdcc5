package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bloglist/internal/logging"
	"github.com/Skotchmaster/bloglist/internal/token"
)

// ErrorHandler is the last-resort translator: every error that escapes
// a handler is rendered as {"error": message} with a status from the
// taxonomy. Anything unrecognized becomes a logged 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = fmt.Sprint(m)
		}
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrMissingIdentity):
		code = http.StatusUnauthorized
		msg = "invalid token"
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
		msg = "not found"
	}

	if code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
