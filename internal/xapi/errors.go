package xapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/recenseo/pkg/models"
)

// ErrUnknownOperation means the operation name has no registered identifier.
// This is a programmer error, not an upstream condition: no request is made.
var ErrUnknownOperation = errors.New("unknown graphql operation")

// ErrListNotFound means no owned list matched the resolver query.
var ErrListNotFound = errors.New("no list matched")

// TransportError wraps a network-level failure while issuing a request.
// These are never retried; the run aborts.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError means the upstream rejected or garbled the response: a
// non-2xx status (auth expiry, rate limiting, permission denial) or an
// unparseable body. The upstream has no stable error taxonomy, so the
// distinction lives in the message only.
type UpstreamError struct {
	Operation string
	Status    int
	Detail    string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream rejected %s with status %d: %s", e.Operation, e.Status, e.Detail)
	}
	return fmt.Sprintf("upstream returned malformed response for %s: %s", e.Operation, e.Detail)
}

// AmbiguousMatchError reports every candidate so the caller can rerun with an
// exact id. The resolver never auto-selects among multiple matches.
type AmbiguousMatchError struct {
	Query   string
	Matches []models.ListRecord
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		names = append(names, fmt.Sprintf("%s (id %s)", m.Name, m.ID))
	}
	return fmt.Sprintf("multiple lists match %q: %s", e.Query, strings.Join(names, ", "))
}
