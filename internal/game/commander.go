package game

import (
	"fmt"
	"sync"

	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// CommanderRecord tracks the format-specific state of one commander.
type CommanderRecord struct {
	Card  rules.CardID
	Owner rules.PlayerID

	// Identity is the union of colors in the commander's mana cost. The
	// owner's deck may only contain cards within it.
	Identity mana.ColorSet

	// CastCount counts command-zone departures that reached the
	// battlefield. The tax for the next cast derives from it.
	CastCount int

	// DamageDealt accumulates combat damage this commander has dealt
	// to each player across the whole game.
	DamageDealt map[rules.PlayerID]int
}

// CommanderTracker owns per-commander cast counts, tax, and lifetime
// combat damage totals.
type CommanderTracker struct {
	mu      sync.Mutex
	records map[rules.CardID]*CommanderRecord
	byOwner map[rules.PlayerID][]rules.CardID
	taxStep int
}

// NewCommanderTracker returns an empty tracker. taxStep is the generic
// mana added per prior cast, normally 2.
func NewCommanderTracker(taxStep int) *CommanderTracker {
	return &CommanderTracker{
		records: make(map[rules.CardID]*CommanderRecord),
		byOwner: make(map[rules.PlayerID][]rules.CardID),
		taxStep: taxStep,
	}
}

// Register designates a card as a player's commander. identity is the
// card's color identity, derived from its mana cost.
func (ct *CommanderTracker) Register(card rules.CardID, owner rules.PlayerID, identity mana.ColorSet) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if _, ok := ct.records[card]; ok {
		return fmt.Errorf("card %s is already a commander", card)
	}
	ct.records[card] = &CommanderRecord{
		Card:        card,
		Owner:       owner,
		Identity:    identity,
		DamageDealt: make(map[rules.PlayerID]int),
	}
	ct.byOwner[owner] = append(ct.byOwner[owner], card)
	return nil
}

// IsCommander reports whether the card is a registered commander.
func (ct *CommanderTracker) IsCommander(card rules.CardID) bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	_, ok := ct.records[card]
	return ok
}

// Commanders returns the commanders owned by a player.
func (ct *CommanderTracker) Commanders(owner rules.PlayerID) []rules.CardID {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]rules.CardID, len(ct.byOwner[owner]))
	copy(out, ct.byOwner[owner])
	return out
}

// ColorIdentity returns the registered commander's color identity, or
// the empty set for a card that is not a commander.
func (ct *CommanderTracker) ColorIdentity(card rules.CardID) mana.ColorSet {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	rec, ok := ct.records[card]
	if !ok {
		return 0
	}
	return rec.Identity
}

// Tax returns the additional generic mana currently due to cast the
// commander: the tax step times the number of completed casts.
func (ct *CommanderTracker) Tax(card rules.CardID) int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	rec, ok := ct.records[card]
	if !ok {
		return 0
	}
	return ct.taxStep * rec.CastCount
}

// RecordBattlefieldEntry bumps the cast count when a commander cast
// from the command zone actually reaches the battlefield. A cast that
// is countered on the stack never calls this, so it stays tax-free.
func (ct *CommanderTracker) RecordBattlefieldEntry(card rules.CardID) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if rec, ok := ct.records[card]; ok {
		rec.CastCount++
	}
}

// AddCombatDamage accumulates commander combat damage against a player.
func (ct *CommanderTracker) AddCombatDamage(card rules.CardID, defender rules.PlayerID, amount int) {
	if amount <= 0 {
		return
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if rec, ok := ct.records[card]; ok {
		rec.DamageDealt[defender] += amount
	}
}

// DamageTo returns the lifetime combat damage the commander has dealt
// to the player.
func (ct *CommanderTracker) DamageTo(card rules.CardID, defender rules.PlayerID) int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	rec, ok := ct.records[card]
	if !ok {
		return 0
	}
	return rec.DamageDealt[defender]
}

// OffendingCommander returns a commander whose lifetime combat damage
// to the player has reached the threshold, if any.
func (ct *CommanderTracker) OffendingCommander(player rules.PlayerID, threshold int) (rules.CardID, bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	for _, rec := range ct.records {
		if rec.DamageDealt[player] >= threshold {
			return rec.Card, true
		}
	}
	return rules.CardID{}, false
}

// RedirectZone returns the zone a commander should go to instead of the
// given destination when its owner elects the command-zone replacement.
// Only graveyard and exile destinations qualify.
func RedirectZone(to Zone) (Zone, bool) {
	switch to {
	case ZoneGraveyard, ZoneExile:
		return ZoneCommand, true
	default:
		return to, false
	}
}

// restore installs a persisted record, replacing any existing one.
func (ct *CommanderTracker) restore(rec *CommanderRecord) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if _, ok := ct.records[rec.Card]; !ok {
		ct.byOwner[rec.Owner] = append(ct.byOwner[rec.Owner], rec.Card)
	}
	if rec.DamageDealt == nil {
		rec.DamageDealt = make(map[rules.PlayerID]int)
	}
	ct.records[rec.Card] = rec
}

// snapshotRecords returns a copy of all records for serialization.
func (ct *CommanderTracker) snapshotRecords() []*CommanderRecord {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]*CommanderRecord, 0, len(ct.records))
	for _, rec := range ct.records {
		clone := &CommanderRecord{
			Card:        rec.Card,
			Owner:       rec.Owner,
			Identity:    rec.Identity,
			CastCount:   rec.CastCount,
			DamageDealt: make(map[rules.PlayerID]int, len(rec.DamageDealt)),
		}
		for p, n := range rec.DamageDealt {
			clone.DamageDealt[p] = n
		}
		out = append(out, clone)
	}
	return out
}
