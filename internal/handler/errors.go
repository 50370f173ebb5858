package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/pet-buddy/internal/apperror"
)

// retryAfterSeconds is advertised when the database is unreachable.
const retryAfterSeconds = "5"

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler renders every error as {"success": false, "error": ...}.
// Application errors are mapped by kind; anything unrecognised is logged and
// answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := resolveError(err, log, c)
		if code == http.StatusServiceUnavailable {
			c.Response().Header().Set(echo.HeaderRetryAfter, retryAfterSeconds)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprint(he.Message)}
	}

	var ae *apperror.AppError
	if errors.As(err, &ae) {
		body := errorResponse{Error: ae.Message, Field: ae.Field, Fields: ae.Fields}
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrReferenceNotFound):
			return http.StatusBadRequest, body
		case errors.Is(err, apperror.ErrNotFound):
			return http.StatusNotFound, body
		case errors.Is(err, apperror.ErrConflict):
			return http.StatusConflict, body
		case errors.Is(err, apperror.ErrForbidden):
			return http.StatusForbidden, body
		case errors.Is(err, apperror.ErrUnauthorized):
			return http.StatusUnauthorized, body
		case errors.Is(err, apperror.ErrUnavailable):
			log.Warn().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("upstream unavailable")
			return http.StatusServiceUnavailable, errorResponse{Error: ae.Message}
		case errors.Is(err, apperror.ErrSchemaMissing):
			log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("schema missing")
			return http.StatusInternalServerError, errorResponse{Error: ae.Message}
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
