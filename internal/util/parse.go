package util

import (
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseFloat parses a string to a float64, returning defaultValue if parsing fails
func ParseFloat(s string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val
	}
	return defaultValue
}

// ParsePagination turns page/limit query values into a clamped
// limit/offset pair. Page numbering starts at 1.
func ParsePagination(pageStr, limitStr string) (limit, offset int) {
	page := ParseInt(pageStr, 1)
	if page < 1 {
		page = 1
	}

	limit = ParseInt(limitStr, defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return limit, (page - 1) * limit
}
