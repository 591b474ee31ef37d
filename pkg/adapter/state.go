package adapter

import (
	"sync/atomic"

	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// ConnectionState is the lifecycle state of one adapter instance. Every adapter
// owns exactly one state value, transitioned only by Connect, Disconnect, and
// internal failure.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateError
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateTracker is the shared state machine every adapter embeds. It replaces
// per-method nil checks on the native handle with a single atomically-read
// state value.
type StateTracker struct {
	dbType dbcapabilities.DatabaseID
	state  atomic.Int32
}

// NewStateTracker creates a tracker in the DISCONNECTED state.
func NewStateTracker(dbType dbcapabilities.DatabaseID) *StateTracker {
	return &StateTracker{dbType: dbType}
}

// Status returns the current connection state.
func (t *StateTracker) Status() ConnectionState {
	return ConnectionState(t.state.Load())
}

// SetState transitions the tracker to the given state.
func (t *StateTracker) SetState(s ConnectionState) {
	t.state.Store(int32(s))
}

// RequireConnected returns a NotConnectedError for the given operation unless
// the tracker is in the CONNECTED state.
func (t *StateTracker) RequireConnected(operation string) error {
	if t.Status() != StateConnected {
		return NewNotConnectedError(t.dbType, operation)
	}
	return nil
}
