package types

import (
	"errors"
	"fmt"
)

var (
	ErrStaleSelection             = errors.New("selection is not in the current facet values")
	ErrDuplicateGroupRegistration = errors.New("filter group already has a registered owner")
	ErrInvalidGroupOperator       = errors.New("invalid filter group operator")
	ErrEmptyGroupName             = errors.New("filter group name is empty")
	ErrUnknownIndex               = errors.New("unknown index")
)

// SearchError wraps a failure of the search execution service.
type SearchError struct {
	Index string
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s (query %q) failed: %v", e.Index, e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsNetworkFailure reports whether err came from search execution.
func IsNetworkFailure(err error) bool {
	var se *SearchError
	return errors.As(err, &se)
}
