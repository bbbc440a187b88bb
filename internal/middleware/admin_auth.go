package middleware

import (
	"net/http"
	"strings"

	"github.com/clearvision/midnight-tickets/internal/auth"
	"github.com/labstack/echo/v4"
)

const (
	HeaderAdminAPIKey = "x-admin-api-key"
	HeaderAdminToken  = "x-admin-token"

	adminContextKey = "admin"
)

// AdminAuth accepts the API key in x-admin-api-key or x-admin-token, or a
// bearer JWT issued by auth.Service.
func AdminAuth(a *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			key := req.Header.Get(HeaderAdminAPIKey)
			if key == "" {
				key = req.Header.Get(HeaderAdminToken)
			}
			if key != "" && a.CheckAPIKey(key) {
				c.Set(adminContextKey, "api-key")
				return next(c)
			}

			if token, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization)); ok {
				if claims, err := a.ValidateToken(token); err == nil {
					c.Set(adminContextKey, claims.Subject)
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}
}

// AdminName returns who AdminAuth let through, or "" outside the admin group.
func AdminName(c echo.Context) string {
	name, _ := c.Get(adminContextKey).(string)
	return name
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
