package rules

import (
	"fmt"
	"sync"
)

// PriorityTracker tracks who currently holds priority and which players
// have passed in succession since the last game action.
type PriorityTracker struct {
	mu     sync.Mutex
	holder PlayerID
	passed map[PlayerID]bool
}

// NewPriorityTracker creates a tracker with the given initial holder.
func NewPriorityTracker(holder PlayerID) *PriorityTracker {
	return &PriorityTracker{
		holder: holder,
		passed: make(map[PlayerID]bool),
	}
}

// Holder returns the player who currently holds priority.
func (pt *PriorityTracker) Holder() PlayerID {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.holder
}

// SetHolder moves priority to the given player without touching pass state.
func (pt *PriorityTracker) SetHolder(player PlayerID) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.holder = player
}

// Pass records that the holder passed priority and moves it to next.
// Only the current holder may pass.
func (pt *PriorityTracker) Pass(player, next PlayerID) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if player != pt.holder {
		return fmt.Errorf("player %s does not have priority (holder is %s)", player, pt.holder)
	}
	pt.passed[player] = true
	pt.holder = next
	return nil
}

// HasPassed reports whether the player has passed since the last reset.
func (pt *PriorityTracker) HasPassed(player PlayerID) bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.passed[player]
}

// AllPassed reports whether every listed player has passed in succession.
// Callers list only players still in the game.
func (pt *PriorityTracker) AllPassed(players []PlayerID) bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for _, p := range players {
		if !pt.passed[p] {
			return false
		}
	}
	return len(players) > 0
}

// ResetPasses clears the consecutive-pass record. Called whenever a game
// action is taken, a stack object resolves, or the step advances.
func (pt *PriorityTracker) ResetPasses() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.passed = make(map[PlayerID]bool)
}

// Reset moves priority to the given player and clears pass state.
func (pt *PriorityTracker) Reset(holder PlayerID) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.holder = holder
	pt.passed = make(map[PlayerID]bool)
}
