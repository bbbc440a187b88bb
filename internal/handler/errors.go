package handler

import (
	"github.com/clearvision/midnight-tickets/internal/middleware"
	"github.com/labstack/echo/v4"
)

// httpError turns a service error into the HTTP error the error handler
// renders, keeping the cause for logs.
func httpError(err error) error {
	code, body := middleware.Status(err)
	return echo.NewHTTPError(code, body).SetInternal(err)
}
