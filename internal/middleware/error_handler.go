package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/clearvision/midnight-tickets/internal/dto"
	"github.com/clearvision/midnight-tickets/internal/service"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "Something went wrong. Please try again later."

// ErrorHandler renders every error as {"message", "kind"}. Service errors
// are mapped by kind; anything unexpected becomes a 500 with a generic
// message so storage details never reach clients.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, body := Status(err)
	if code >= http.StatusInternalServerError {
		slog.Default().ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

// Status maps err to an HTTP status and response body.
func Status(err error) (int, dto.ErrorResponse) {
	var se *service.Error
	if errors.As(err, &se) {
		return statusForKind(se.Kind), messageFor(se)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if body, ok := he.Message.(dto.ErrorResponse); ok {
			return he.Code, body
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			msg = internalErrorMessage
		}
		return he.Code, dto.ErrorResponse{Message: msg}
	}

	return http.StatusInternalServerError, dto.ErrorResponse{Message: internalErrorMessage}
}

func statusForKind(k service.Kind) int {
	switch {
	case k.IsValidation():
		return http.StatusBadRequest
	case k == service.KindDuplicateRegistration, k == service.KindInvalidState:
		return http.StatusConflict
	case k == service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func messageFor(se *service.Error) dto.ErrorResponse {
	if statusForKind(se.Kind) >= http.StatusInternalServerError {
		return dto.ErrorResponse{Message: internalErrorMessage, Kind: string(se.Kind)}
	}
	return dto.ErrorResponse{Message: se.Message, Kind: string(se.Kind)}
}
