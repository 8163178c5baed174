package client_rate_limiter

import (
	"sync"
	"sync/atomic"
)

// ClientStateStore maps client keys to per-client limiter state.
//
// A store is owned by exactly one limiter and lives as long as that limiter.
// Entries are created on first sight of a key and are never removed.
type ClientStateStore[S any] struct {
	entries sync.Map // string -> *clientEntry[S]
	size    atomic.Int64
}

type clientEntry[S any] struct {
	mu    sync.Mutex
	state S
}

// NewClientStateStore creates an empty store.
func NewClientStateStore[S any]() *ClientStateStore[S] {
	return &ClientStateStore[S]{}
}

// Update runs apply against the state of key while holding that client's lock.
// If key has no state yet, init builds it; concurrent first requests for the
// same key all end up operating on a single state value.
func (s *ClientStateStore[S]) Update(key string, init func() S, apply func(state *S) Decision) Decision {
	e := s.entry(key, init)

	e.mu.Lock()
	defer e.mu.Unlock()

	return apply(&e.state)
}

func (s *ClientStateStore[S]) entry(key string, init func() S) *clientEntry[S] {
	if v, ok := s.entries.Load(key); ok {
		return v.(*clientEntry[S])
	}

	v, loaded := s.entries.LoadOrStore(key, &clientEntry[S]{state: init()})
	if !loaded {
		s.size.Add(1)
	}
	return v.(*clientEntry[S])
}

// Len returns the number of clients tracked by the store.
func (s *ClientStateStore[S]) Len() int {
	return int(s.size.Load())
}
