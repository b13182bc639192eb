package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// parseDate parses a required YYYY-MM-DD value.
func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.BadRequest(field + " must be a date in format " + dateLayout)
	}
	return t, nil
}

// parseOptionalDate parses an optional YYYY-MM-DD value, nil when absent.
func parseOptionalDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value, name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parsePagination reads offset/limit query parameters with sane bounds.
func parsePagination(r *http.Request) (offset, limit int) {
	offset = 0
	limit = 50

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	return offset, limit
}
