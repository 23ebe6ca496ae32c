package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"cpindex/internal/catalog"
	"cpindex/internal/form"
	"cpindex/internal/indexer"
	"cpindex/internal/query"
	"cpindex/internal/tabular"
)

type errorResponse struct {
	Error string `json:"error"`
}

// validationErrors are caller mistakes reported as 400.
var validationErrors = []error{
	indexer.ErrNoValidIDs,
	indexer.ErrNotConfirmed,
	indexer.ErrPlanExecuted,
	indexer.ErrExportUnavailable,
	indexer.ErrUnknownType,
	indexer.ErrUnknownField,
	form.ErrUnknownType,
	form.ErrUnknownField,
	form.ErrNoRepeatable,
	form.ErrDelimiterInParty,
	form.ErrNoType,
	form.ErrLastSlot,
	query.ErrDuplicateColumn,
	query.ErrInvalidIdentifier,
	catalog.ErrUnknownCategory,
	tabular.ErrUnknownFormat,
	tabular.ErrEmpty,
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, indexer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, indexer.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, indexer.ErrNoVault):
		return http.StatusServiceUnavailable
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. Server errors are logged and their
// detail is not echoed to the client.
func (h *Handler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		msg = http.StatusText(status)
	}
	return c.JSON(status, errorResponse{Error: msg})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
