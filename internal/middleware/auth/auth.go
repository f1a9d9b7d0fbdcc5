package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bloglist/internal/token"
)

const (
	tokenKey    = "token"
	payloadKey  = "payload"
	usernameKey = "username"

	bearerPrefix = "Bearer "
)

// Middleware is the ordered auth pipeline: ExtractToken, then
// ExtractPayload, then ExtractUsername. Each stage either enriches the
// request context and continues, or short-circuits to the error
// translator.
type Middleware struct {
	Tokens *token.Service
}

// ExtractToken stashes the bearer token from the Authorization header
// on the context. It never fails, a missing header is left for
// ExtractPayload to reject.
func (m *Middleware) ExtractToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authorization := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.HasPrefix(authorization, bearerPrefix) {
			c.Set(tokenKey, strings.TrimPrefix(authorization, bearerPrefix))
		}
		return next(c)
	}
}

// ExtractPayload verifies the candidate token and attaches the decoded
// payload. An absent or invalid token fails the request with 401.
func (m *Middleware) ExtractPayload(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, _ := c.Get(tokenKey).(string)
		payload, err := m.Tokens.Verify(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		c.Set(payloadKey, payload)
		return next(c)
	}
}

// ExtractUsername copies the payload username onto the context for
// convenience. Never fails given a verified payload.
func (m *Middleware) ExtractUsername(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if payload, ok := c.Get(payloadKey).(token.Payload); ok {
			c.Set(usernameKey, payload.Username)
		}
		return next(c)
	}
}

// ValidateID rejects requests whose :id path parameter is not a valid
// store identifier, before any lookup reaches the store.
func ValidateID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := strconv.ParseUint(c.Param("id"), 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		return next(c)
	}
}

// PayloadFrom returns the payload attached by ExtractPayload.
func PayloadFrom(c echo.Context) (token.Payload, bool) {
	payload, ok := c.Get(payloadKey).(token.Payload)
	return payload, ok
}

// UsernameFrom returns the username attached by ExtractUsername.
func UsernameFrom(c echo.Context) (string, bool) {
	username, ok := c.Get(usernameKey).(string)
	return username, ok
}
