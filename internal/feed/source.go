// Package feed runs one single-goroutine actor per venue stream. The
// actor exclusively owns its book replica, feature engine and signal
// state machine; the only shared resource it touches is the relay.
package feed

import (
	"context"

	"main/internal/bus"
)

// Source is the venue-facing collaborator. Open establishes one
// connection and pumps normalized events into sink from its own
// goroutine until the connection drops or ctx is canceled; the drop is
// reported as an EventClose or EventError on the queue. At most one
// connection per source is active at a time; a fresh Open supersedes
// any previous connection.
type Source interface {
	Open(ctx context.Context, sink *bus.Queue) error

	// RequestSnapshot asks the venue for a fresh book snapshot after a
	// sequence gap or crossed book. Sources without snapshot support
	// (pure top-of-book feeds) return nil and the next tick re-syncs.
	RequestSnapshot(ctx context.Context) error
}
