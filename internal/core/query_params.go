// internal/core/query_params.go
package core

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Default and limit constants for pagination
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ErrInvalidInput marks request values that fail validation.
var ErrInvalidInput = errors.New("invalid input")

// Pagination holds parsed skip/limit query parameters for list endpoints
type Pagination struct {
	Skip  int
	Limit int
}

// ParsePagination extracts `skip` and `limit` from query parameters.
// Returns the parsed options and any validation error.
func ParsePagination(queryParams url.Values) (Pagination, error) {
	p := Pagination{Skip: 0, Limit: DefaultLimit}

	if skipStr := queryParams.Get("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil {
			return p, fmt.Errorf("%w: invalid 'skip' parameter: must be an integer", ErrInvalidInput)
		}
		if skip < 0 {
			return p, fmt.Errorf("%w: invalid 'skip' parameter: must be non-negative", ErrInvalidInput)
		}
		p.Skip = skip
	}

	if limitStr := queryParams.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return p, fmt.Errorf("%w: invalid 'limit' parameter: must be an integer", ErrInvalidInput)
		}
		if limit < 1 {
			return p, fmt.Errorf("%w: invalid 'limit' parameter: must be at least 1", ErrInvalidInput)
		}
		if limit > MaxLimit {
			return p, fmt.Errorf("%w: invalid 'limit' parameter: maximum is %d", ErrInvalidInput, MaxLimit)
		}
		p.Limit = limit
	}

	return p, nil
}
