package game

import (
	"testing"

	"github.com/opencommander/commander-engine-go/internal/game/counters"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

func hasEvent(events []rules.Event, typ rules.EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestLifeLossEliminatesPlayer(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob", "carol")
	p, _ := h.Engine.Player(h.Players[1])
	p.Life = 0

	events := h.Engine.Tick()

	if !p.Eliminated {
		t.Error("player at 0 life should be eliminated")
	}
	if !hasEvent(events, rules.EventPlayerEliminated) {
		t.Error("expected a player eliminated event")
	}
	if over, _ := h.Engine.GameOver(); over {
		t.Error("game should continue with two players left")
	}
}

func TestLastPlayerStandingWins(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	p, _ := h.Engine.Player(h.Players[1])
	p.Life = -5

	events := h.Engine.Tick()

	over, winner := h.Engine.GameOver()
	if !over || winner != h.Players[0] {
		t.Errorf("game over = %t winner = %s, want true %s", over, winner, h.Players[0])
	}
	if !hasEvent(events, rules.EventGameOver) {
		t.Error("expected a game over event")
	}
}

func TestDrawFromEmptyLibraryEliminates(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	p, _ := h.Engine.Player(h.Players[1])
	p.DrewFromEmptyLibrary = true

	h.Engine.Tick()

	if !p.Eliminated {
		t.Error("failed draw should eliminate on the next sweep")
	}
}

func TestLethalDamageDestroysCreature(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0]})
	c, _ := h.Engine.Card(bear)
	c.Perm.Damage = 2

	h.Engine.Tick()

	if !h.Engine.Zones().InZone(bear, ZoneGraveyard) {
		t.Error("creature with lethal damage should be destroyed")
	}
	if c.Perm != nil {
		t.Error("permanent state should drop when the card leaves the battlefield")
	}
}

func TestCounterBoostRaisesToughnessAboveDamage(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0]})
	c, _ := h.Engine.Card(bear)
	c.Perm.Counters.Add(counters.PlusOnePlusOne, 1)
	c.Perm.Damage = 2

	h.Engine.Tick()

	if !h.Engine.Zones().InZone(bear, ZoneBattlefield) {
		t.Error("2 damage should not kill a 3/3")
	}
}

func TestZeroToughnessDiesWithoutDamage(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0]})
	c, _ := h.Engine.Card(bear)
	c.Perm.Counters.Add(counters.MinusOneMinusOne, 2)

	h.Engine.Tick()

	if !h.Engine.Zones().InZone(bear, ZoneGraveyard) {
		t.Error("creature with zero toughness should die")
	}
}

func TestStateBasedActionsReachFixpoint(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0]})
	c, _ := h.Engine.Card(bear)
	c.Perm.Damage = 5
	p, _ := h.Engine.Player(h.Players[1])
	p.Life = 0

	first := h.Engine.Tick()
	if !hasEvent(first, rules.EventStateBasedActions) {
		t.Fatal("first tick should perform state-based actions")
	}

	second := h.Engine.Tick()
	if hasEvent(second, rules.EventStateBasedActions) {
		t.Error("second tick should be a no-op; the sweep must be idempotent")
	}
}

func TestConcedeRemovesStackItemsAndCards(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob", "carol")
	source := h.CreateCreature(CreatureSpec{Name: "Totem", Power: 1, Toughness: 1, Owner: h.Players[1]})

	h.AdvanceToStep(rules.StepUpkeep)
	h.Pass() // alice passes, priority to bob
	h.MustSubmit(ActivateAbility{
		Player:      h.Players[1],
		Source:      source,
		Description: "Totem ability",
		Effect:      func(*Engine) error { return nil },
	})

	h.MustSubmit(Concede{Player: h.Players[1]})

	if got := h.Engine.Stack().Len(); got != 0 {
		t.Errorf("stack length after concession = %d, want 0", got)
	}
	if h.Engine.Zones().Count(h.Players[1], ZoneBattlefield) != 0 {
		t.Error("conceding player's permanents should leave the game")
	}
	p, _ := h.Engine.Player(h.Players[1])
	if !p.Eliminated {
		t.Error("conceding player should be eliminated")
	}
	if over, _ := h.Engine.GameOver(); over {
		t.Error("game should continue with two players left")
	}
}
