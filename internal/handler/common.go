package handler // handler defines HTTP handlers for the backend API

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database interaction started by a handler.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses a numeric path parameter, rejecting zero and garbage.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate validates a YYYY-MM-DD date string.
func parseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid date, want YYYY-MM-DD")
	}
	return t.Format("2006-01-02"), nil
}

// parseClock validates an HH:MM 24h time and returns minutes since
// midnight alongside the normalized string.
func parseClock(s string) (int, string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, "", fmt.Errorf("invalid time, want HH:MM")
	}
	return t.Hour()*60 + t.Minute(), t.Format("15:04"), nil
}
