package api

import (
	"log/slog"

	echo "github.com/labstack/echo/v5"

	"github.com/relayhq/relayd/pkg/apperr"
)

// mapError maps an apperr.Kind-classified error onto an echo HTTP
// error, logging anything that doesn't carry a recognized kind.
func mapError(err error) *echo.HTTPError {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		slog.Error("unexpected internal error", "error", err)
		return echo.NewHTTPError(kind.Status(), "internal server error")
	}
	return echo.NewHTTPError(kind.Status(), err.Error())
}
