package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery covers every rejected query: malformed documents,
	// unresolvable fields, type mismatches, malformed wildcards, duplicate
	// APPLY names and unknown datasets.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrResultTooLarge is returned for valid queries whose result exceeds
	// the row cap.
	ErrResultTooLarge = errors.New("query result too large")
)

// Error kinds reported to clients.
const (
	KindInvalid  = "InsightError"
	KindTooLarge = "ResultTooLargeError"
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// Kind returns the client-facing kind of a query error.
func Kind(err error) string {
	if errors.Is(err, ErrResultTooLarge) {
		return KindTooLarge
	}
	return KindInvalid
}
