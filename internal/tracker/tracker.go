// Package tracker holds the per-call expansion state: the depth limit and the
// composite identities currently being expanded on the path from the root.
package tracker

import "github.com/mcncl/gobound/internal/models"

// State is owned by a single serialization call and must not be shared.
type State struct {
	MaxDepth int

	active map[models.Identity]struct{}
}

// NewState returns a fresh state. A negative maxDepth is treated as 0, which
// collapses every container at the root.
func NewState(maxDepth int) *State {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &State{
		MaxDepth: maxDepth,
		active:   make(map[models.Identity]struct{}),
	}
}

// ShouldCollapseContainer reports whether a container at depth must be replaced
// by a placeholder. It is checked before the container's contents are looked at.
func ShouldCollapseContainer(depth, maxDepth int) bool {
	return depth >= maxDepth
}

// ShouldCollapseForCycle reports whether id is already being expanded on the
// current path. Composites without an identity never collapse for a cycle.
func ShouldCollapseForCycle(id models.Identity, s *State) bool {
	if id.IsZero() {
		return false
	}
	_, ok := s.active[id]
	return ok
}

// Push marks id as being expanded.
func (s *State) Push(id models.Identity) {
	if id.IsZero() {
		return
	}
	s.active[id] = struct{}{}
}

// Pop removes id from the active path.
func (s *State) Pop(id models.Identity) {
	delete(s.active, id)
}

// Active returns the number of identities on the current path.
func (s *State) Active() int {
	return len(s.active)
}
