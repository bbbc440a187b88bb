package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clearvision/midnight-tickets/internal/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAdmin(a *auth.Service, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	g := e.Group("/api/admin", AdminAuth(a))
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, AdminName(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	a := auth.NewService("super-secret", "jwt-secret", time.Hour)
	token, _, err := a.Login("super-secret")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		code    int
		who     string
	}{
		{"api key header", map[string]string{HeaderAdminAPIKey: "super-secret"}, http.StatusOK, "api-key"},
		{"token header", map[string]string{HeaderAdminToken: "super-secret"}, http.StatusOK, "api-key"},
		{"bearer", map[string]string{echo.HeaderAuthorization: "Bearer " + token}, http.StatusOK, "admin"},
		{"lowercase bearer", map[string]string{echo.HeaderAuthorization: "bearer " + token}, http.StatusOK, "admin"},
		{"wrong key", map[string]string{HeaderAdminAPIKey: "nope"}, http.StatusUnauthorized, ""},
		{"bad bearer", map[string]string{echo.HeaderAuthorization: "Bearer abc.def.ghi"}, http.StatusUnauthorized, ""},
		{"empty bearer", map[string]string{echo.HeaderAuthorization: "Bearer "}, http.StatusUnauthorized, ""},
		{"nothing", nil, http.StatusUnauthorized, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAdmin(a, tc.headers)

			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, tc.who, rec.Body.String())
			}
		})
	}
}
