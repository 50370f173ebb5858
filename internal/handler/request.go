package handler

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/middleware"
)

// Ref is an entity reference from a request body. Clients send legacy keys as
// JSON numbers and generic keys as strings; both decode to the same text.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = Ref(n.String())
	return nil
}

func (r Ref) String() string { return string(r) }

// bind decodes the body into req and runs the struct validator.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.ValidationFailed("", "invalid request body")
	}
	return c.Validate(req)
}

// orCaller falls back to the authenticated user when the body names nobody.
func orCaller(c echo.Context, r Ref) string {
	if r != "" {
		return r.String()
	}
	return middleware.CurrentUserID(c)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts ISO-8601 date-times. Values without an offset are
// read as UTC. An empty value yields the zero time so required-field checks
// can report it.
func parseTimestamp(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.ValidationFailed(field, field+" must be an ISO-8601 timestamp")
}

// parseDate accepts YYYY-MM-DD or a full timestamp, whose date part is kept.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := parseTimestamp(field, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, field+" must be a date (YYYY-MM-DD)")
	}
	return t, nil
}
