package rotolog

import (
	"sync"
	"sync/atomic"
)

// specSnapshot is one immutable view of the stack. A new snapshot replaces
// the previous one wholesale, so readers never observe a half-applied edit.
type specSnapshot struct {
	base  *Specification
	temps []*Specification
}

func (s *specSnapshot) effective() *Specification {
	if n := len(s.temps); n > 0 {
		return s.temps[n-1]
	}
	return s.base
}

// SpecStack holds the base specification plus a stack of temporary override
// specifications. Effective reads are a single atomic load and never block,
// which keeps the per-record enabled check off any lock. Mutations copy the
// current snapshot under a small mutex and publish the copy atomically.
type SpecStack struct {
	mu  sync.Mutex
	cur atomic.Value // *specSnapshot
}

// NewSpecStack creates a stack with the given base specification.
func NewSpecStack(base *Specification) *SpecStack {
	s := &SpecStack{}
	s.cur.Store(&specSnapshot{base: base})
	return s
}

// Effective returns the currently effective specification: the top of the
// temporary stack, or the base when no temporary spec is pushed.
func (s *SpecStack) Effective() *Specification {
	return s.cur.Load().(*specSnapshot).effective()
}

// SetBase replaces the base specification. Pushed temporary specs stay in
// place; they continue to shadow the new base until popped.
func (s *SpecStack) SetBase(spec *Specification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cur.Load().(*specSnapshot)
	s.cur.Store(&specSnapshot{base: spec, temps: old.temps})
}

// Push makes spec the effective specification until the matching Pop.
// Pushes nest; Pop always removes the most recent.
func (s *SpecStack) Push(spec *Specification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cur.Load().(*specSnapshot)
	temps := make([]*Specification, len(old.temps)+1)
	copy(temps, old.temps)
	temps[len(old.temps)] = spec
	s.cur.Store(&specSnapshot{base: old.base, temps: temps})
}

// Pop removes the most recently pushed temporary specification. Popping an
// empty stack is a no-op so callers may pop defensively during shutdown
// races.
func (s *SpecStack) Pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cur.Load().(*specSnapshot)
	if len(old.temps) == 0 {
		return
	}
	temps := make([]*Specification, len(old.temps)-1)
	copy(temps, old.temps[:len(old.temps)-1])
	s.cur.Store(&specSnapshot{base: old.base, temps: temps})
}

// Depth returns the number of pushed temporary specifications.
func (s *SpecStack) Depth() int {
	return len(s.cur.Load().(*specSnapshot).temps)
}
