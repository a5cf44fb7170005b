package session

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by stores that have been closed
var ErrClosed = errors.New("session store closed")

// Store keeps per-session dialog history with idle expiry.
//
// A missing id is never an error: GetOrCreate and Append create the
// session, Touch ignores it.
type Store interface {
	// GetOrCreate returns a copy of the session, starting from an empty
	// history when the id is unknown or isNew is set. The session is touched.
	GetOrCreate(ctx context.Context, id string, isNew bool) (*Session, error)

	// Touch marks the session as active now
	Touch(ctx context.Context, id string) error

	// Append adds turns, trims history to the store's cap and touches the session
	Append(ctx context.Context, id string, turns ...Message) error

	// Sweep removes sessions idle for longer than the store's TTL
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Len returns the number of live sessions
	Len(ctx context.Context) (int, error)

	Close() error
}
