package rules

import (
	"errors"
	"sync"
)

// StackItemKind describes the type of object on the stack.
type StackItemKind string

const (
	// StackItemKindSpell represents a spell cast by a player.
	StackItemKindSpell StackItemKind = "SPELL"
	// StackItemKindActivated represents an activated ability.
	StackItemKindActivated StackItemKind = "ACTIVATED"
)

// StackItem represents a single object on the stack.
type StackItem struct {
	ID          string
	Controller  PlayerID
	Source      CardID
	Kind        StackItemKind
	Description string
	Targets     []CardID
	Resolve     func() error
	OnRemove    func()
}

// StackManager manages the spell/ability stack (LIFO).
type StackManager struct {
	mu    sync.Mutex
	items []StackItem
}

// NewStackManager creates an empty stack.
func NewStackManager() *StackManager {
	return &StackManager{
		items: make([]StackItem, 0, 16),
	}
}

// Push adds an item to the top of the stack.
func (sm *StackManager) Push(item StackItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.items = append(sm.items, item)
}

// Pop removes and returns the top item.
func (sm *StackManager) Pop() (StackItem, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, errors.New("stack empty")
	}
	idx := len(sm.items) - 1
	item := sm.items[idx]
	sm.items = sm.items[:idx]
	return item, nil
}

// Peek returns the top item without removing it.
func (sm *StackManager) Peek() (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, false
	}
	return sm.items[len(sm.items)-1], true
}

// List returns a copy of all stack items (topmost last).
func (sm *StackManager) List() []StackItem {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cpy := make([]StackItem, len(sm.items))
	copy(cpy, sm.items)
	return cpy
}

// Len returns the number of items on the stack.
func (sm *StackManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items)
}

// IsEmpty returns whether the stack is empty.
func (sm *StackManager) IsEmpty() bool {
	return sm.Len() == 0
}

// RemoveWhere removes every item matching the predicate, invoking each
// item's OnRemove hook, and returns the removed items in stack order.
// Used when a player leaves the game and their objects cease to exist.
func (sm *StackManager) RemoveWhere(pred func(StackItem) bool) []StackItem {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var removed []StackItem
	kept := sm.items[:0]
	for _, item := range sm.items {
		if pred(item) {
			removed = append(removed, item)
			if item.OnRemove != nil {
				item.OnRemove()
			}
		} else {
			kept = append(kept, item)
		}
	}
	sm.items = kept
	return removed
}
