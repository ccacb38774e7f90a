package ledger

import "sync"

// Expansion tracks which month buckets are expanded in a rendered list.
// Labels that were never toggled are collapsed.
type Expansion struct {
	mu       sync.RWMutex
	expanded map[string]bool
}

// NewExpansion returns an Expansion with every bucket collapsed.
func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[string]bool)}
}

// Toggle flips the state of label and returns the new state.
func (e *Expansion) Toggle(label string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded[label] = !e.expanded[label]
	return e.expanded[label]
}

// IsExpanded reports whether label is currently expanded.
func (e *Expansion) IsExpanded(label string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.expanded[label]
}

// Reset collapses every bucket.
func (e *Expansion) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.expanded)
}
