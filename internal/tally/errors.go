package tally

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTenant means the tenant context was not configured.
// This is a startup error: the service must refuse to boot without it.
var ErrMissingTenant = errors.New("tenant context missing: company and division IDs are required")

// DataAccessError wraps a store failure so tool handlers can report it to
// the model as an error result instead of crashing the conversation.
type DataAccessError struct {
	Op      string // the operation that failed, e.g. "search vouchers"
	Timeout bool
	Err     error
}

func (e *DataAccessError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: query timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// UnsupportedCollectionError is returned when list_master is asked for a
// collection the store does not back.
type UnsupportedCollectionError struct {
	Collection string
}

func (e *UnsupportedCollectionError) Error() string {
	return fmt.Sprintf("collection %q is not supported. Supported collections: %s",
		e.Collection, strings.Join(SupportedCollections, ", "))
}
