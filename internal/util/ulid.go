package util

import "github.com/oklog/ulid/v2"

// NewID returns a ULID for request, batch-call and audit ids. ulid.Make
// draws from a process-wide monotonic source, so ids from one process sort
// in creation order even within the same millisecond.
func NewID() string {
	return ulid.Make().String()
}
