package policy

import (
	"sync/atomic"
)

// Store publishes compiled policy snapshots to concurrent readers. A reload
// builds a brand-new CompiledPolicy off the hot path and publishes it as a
// single pointer swap, so readers never observe a half-loaded policy.
type Store struct {
	current atomic.Pointer[CompiledPolicy]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set publishes a new policy snapshot.
func (s *Store) Set(policy *CompiledPolicy) {
	s.current.Store(policy)
}

// Get returns the current policy snapshot, or nil when none has been
// published yet.
func (s *Store) Get() *CompiledPolicy {
	return s.current.Load()
}
