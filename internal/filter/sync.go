package filter

import (
	"sync"
	"time"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// History is the address a filter screen is mirrored to.
type History interface {
	// Location returns the current path and query, e.g. "/questions?page=2".
	Location() string
	// Replace swaps the current entry without adding a new one.
	Replace(location string)
}

// MemoryHistory is an in-process History that counts replacements.
type MemoryHistory struct {
	mu           sync.Mutex
	location     string
	replacements int
}

// NewMemoryHistory starts at location.
func NewMemoryHistory(location string) *MemoryHistory {
	return &MemoryHistory{location: location}
}

func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *MemoryHistory) Replace(location string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = location
	h.replacements++
}

// Replacements returns how many times Replace was called.
func (h *MemoryHistory) Replacements() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replacements
}

// Synchronizer mirrors filter state into a History.
type Synchronizer struct {
	path      string
	history   History
	debouncer *Debouncer
}

// NewSynchronizer builds a synchronizer for path. Scheduled writes are debounced by delay.
func NewSynchronizer(path string, history History, delay time.Duration) *Synchronizer {
	return &Synchronizer{
		path:      path,
		history:   history,
		debouncer: NewDebouncer(delay),
	}
}

// Location returns the path and encoded query for state. The "?" is omitted when no field
// differs from its default.
func (s *Synchronizer) Location(state models.FilterState) string {
	query := EncodeQuery(state)
	if query == "" {
		return s.path
	}
	return s.path + "?" + query
}

// Sync writes state to the history immediately. It reports whether a replace happened; an
// unchanged location is skipped.
func (s *Synchronizer) Sync(state models.FilterState) bool {
	next := s.Location(state)
	if next == s.history.Location() {
		return false
	}
	s.history.Replace(next)
	return true
}

// Schedule syncs state after the debounce delay, superseding any earlier scheduled state.
func (s *Synchronizer) Schedule(state models.FilterState) {
	snapshot := state.Clone()
	s.debouncer.Schedule(func() { s.Sync(snapshot) })
}

// Flush cancels any pending write and syncs state now.
func (s *Synchronizer) Flush(state models.FilterState) bool {
	s.debouncer.Stop()
	return s.Sync(state)
}

// Stop cancels any pending write.
func (s *Synchronizer) Stop() {
	s.debouncer.Stop()
}

// History returns the underlying history.
func (s *Synchronizer) History() History {
	return s.history
}
