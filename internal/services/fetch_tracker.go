package services

import "sync"

// FetchTracker hands out a fresh token each time a slot starts a fetch. Only
// the fetch holding the latest token for its slot may publish its result, so
// a slow response for an earlier selection never overwrites a newer one.
type FetchTracker struct {
	mu     sync.Mutex
	tokens map[string]uint64
}

// NewFetchTracker creates an empty tracker
func NewFetchTracker() *FetchTracker {
	return &FetchTracker{tokens: make(map[string]uint64)}
}

// Begin starts a fetch for slot and returns its token
func (t *FetchTracker) Begin(slot string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[slot]++
	return t.tokens[slot]
}

// IsCurrent reports whether token is still the latest for slot. Tokens start
// at 1, so zero is never current.
func (t *FetchTracker) IsCurrent(slot string, token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return token != 0 && t.tokens[slot] == token
}
