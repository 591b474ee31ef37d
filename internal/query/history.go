package query

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one executed query.
type HistoryEntry struct {
	ID           string        `json:"id"`
	ConnectionID string        `json:"connectionId"`
	Query        string        `json:"query"`
	Duration     time.Duration `json:"duration"`
	RowCount     int64         `json:"rowCount"`
	Error        string        `json:"error,omitempty"`
	ExecutedAt   time.Time     `json:"executedAt"`
}

// history is a bounded per-connection log of executed queries. When a
// connection's log is full the oldest entry is evicted.
type history struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]HistoryEntry
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = 1
	}
	return &history{
		limit:   limit,
		entries: make(map[string][]HistoryEntry),
	}
}

// record appends one entry, evicting the oldest when the connection's log is
// at its limit, and returns the entry id.
func (h *history) record(entry HistoryEntry) string {
	entry.ID = uuid.NewString()
	entry.ExecutedAt = time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.entries[entry.ConnectionID]
	if len(log) >= h.limit {
		log = log[len(log)-h.limit+1:]
	}
	h.entries[entry.ConnectionID] = append(log, entry)
	return entry.ID
}

// forConnection returns a copy of the connection's log, oldest first.
func (h *history) forConnection(connectionID string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.entries[connectionID]
	out := make([]HistoryEntry, len(log))
	copy(out, log)
	return out
}

// clear drops the connection's log.
func (h *history) clear(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, connectionID)
}
