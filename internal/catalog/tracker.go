package catalog

import (
	"context"
	"sync"
)

// Tracker hands out generation tickets per key. Beginning a new ticket supersedes
// and cancels the previous one for the same key, so only the latest request's
// outcome is ever shown.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*trackerEntry
}

type trackerEntry struct {
	gen    uint64
	cancel context.CancelFunc
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: map[string]*trackerEntry{}}
}

// Ticket identifies one request generation.
type Ticket struct {
	tracker *Tracker
	key     string
	gen     uint64
}

// Begin starts a new generation for key. The returned context is cancelled when a
// later Begin for the same key supersedes it, or when the ticket is released.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	if prev, ok := t.entries[key]; ok && prev.cancel != nil {
		prev.cancel()
	}
	t.entries[key] = &trackerEntry{gen: t.seq, cancel: cancel}
	return ctx, Ticket{tracker: t, key: key, gen: t.seq}
}

// Current reports whether the ticket is still the latest for its key.
func (tk Ticket) Current() bool {
	if tk.tracker == nil {
		return false
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	e, ok := tk.tracker.entries[tk.key]
	return ok && e.gen == tk.gen
}

// Generation returns the ticket's sequence number. Later tickets have larger numbers.
func (tk Ticket) Generation() uint64 { return tk.gen }

// Release cancels the ticket's context and, if it is still current, forgets the key.
func (tk Ticket) Release() {
	if tk.tracker == nil {
		return
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	e, ok := tk.tracker.entries[tk.key]
	if !ok || e.gen != tk.gen {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	delete(tk.tracker.entries, tk.key)
}

// Cancel supersedes whatever is in flight for key without starting a new request.
func (t *Tracker) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		if e.cancel != nil {
			e.cancel()
		}
		delete(t.entries, key)
	}
}

// Len reports how many keys have a request in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
