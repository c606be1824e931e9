package session

import (
	"context"
	"time"
)

// State is the persisted snapshot of one browser session's stores. Snapshots
// are stored as raw JSON; the gateway is not the authority on their shape.
type State struct {
	SessionID    string
	Cart         []byte
	Orders       []byte
	CurrentOrder []byte
	Account      []byte
	Revision     int64
	UpdatedAt    time.Time
}

type Repository interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Clear(ctx context.Context, sessionID string) error
}
