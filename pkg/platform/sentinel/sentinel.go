package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Snapshot stores return these
// (optionally wrapped) so the query controller can translate them into cache
// states instead of matching on error strings.
var (
	// ErrNotFound: no snapshot has been persisted yet.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable: the backing store cannot be reached right now.
	ErrUnavailable = errors.New("unavailable")
)
