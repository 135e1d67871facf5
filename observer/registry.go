package observer

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// Identity registry
// ============================================================================

// Registry maps identity tokens to the write-ends of Event sequences.
//
// Native callbacks carry nothing but the token, so this mapping is the
// rendezvous point between the run loop and the goroutines consuming
// events. Delivery and removal are serialized under one mutex, which makes
// the teardown contract simple: once Remove has returned true, no further
// Deliver can touch that channel, and the owner may close it.
type Registry struct {
	nextToken atomic.Uint64
	missed    atomic.Uint64

	mu      sync.Mutex
	entries map[uint64]chan<- Event
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]chan<- Event)}
}

// Register adds the write-end under a freshly generated token. Tokens are
// monotonic and never reused within a process.
func (r *Registry) Register(ch chan<- Event) uint64 {
	token := r.nextToken.Add(1)
	r.mu.Lock()
	r.entries[token] = ch
	r.mu.Unlock()
	return token
}

// Deliver pushes ev to the write-end registered under token. The send
// never blocks: a full channel drops the event. The found result is false
// when the token is absent, which happens whenever a native callback races
// a teardown that has already removed the entry; those drops are counted
// and otherwise silent.
func (r *Registry) Deliver(token uint64, ev Event) (delivered, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.entries[token]
	if !ok {
		r.missed.Add(1)
		return false, false
	}
	select {
	case ch <- ev:
		return true, true
	default:
		return false, true
	}
}

// Remove deletes the entry under token and reports whether it was present.
// Exactly one caller observes true for a given token.
func (r *Registry) Remove(token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[token]; !ok {
		return false
	}
	delete(r.entries, token)
	return true
}

// Len reports the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Missed reports how many deliveries found no entry for their token.
func (r *Registry) Missed() uint64 {
	return r.missed.Load()
}

// defaultRegistry backs every Observer in the process. Tokens are minted
// from one shared counter, so observers from independent systems never
// collide.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
