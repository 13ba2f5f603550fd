package game

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

func TestStartNeedsTwoPlayers(t *testing.T) {
	e := NewEngine(DefaultConfig(), zaptest.NewLogger(t))
	if _, err := e.AddPlayer("alone"); err != nil {
		t.Fatalf("adding player: %v", err)
	}
	if err := e.Start(); err == nil {
		t.Error("a single player game should not start")
	}
}

func TestNoSeatingAfterStart(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	if _, err := h.Engine.AddPlayer("late"); err == nil {
		t.Error("players cannot join a running game")
	}
}

func TestDrawStepDrawsACard(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")

	before := h.Engine.Zones().Count(h.Players[1], ZoneHand)
	h.AdvanceToNextTurn() // bob's turn, bob draws
	after := h.Engine.Zones().Count(h.Players[1], ZoneHand)

	if after != before+1 {
		t.Errorf("hand size went %d -> %d, want one card drawn", before, after)
	}
}

func TestUntapStepUntapsPermanents(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0], Tapped: true})

	h.AdvanceToNextTurn() // bob's turn; alice's permanents stay tapped
	c, _ := h.Engine.Card(bear)
	if !c.Perm.Tapped {
		t.Error("permanents only untap on their controller's turn")
	}

	h.AdvanceToNextTurn() // alice's turn again
	if c.Perm.Tapped {
		t.Error("bear should untap in alice's untap step")
	}
}

func TestUntapConditionSkipsOneUntap(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	bear := h.CreateCreature(CreatureSpec{Name: "Bear", Power: 2, Toughness: 2, Owner: h.Players[0], Tapped: true})
	c, _ := h.Engine.Card(bear)
	c.Perm.UntapConditions = append(c.Perm.UntapConditions, rules.UntapCondition{
		Kind: rules.UntapNextUntapOnly,
	})

	h.AdvanceToNextTurn() // bob
	h.AdvanceToNextTurn() // alice: condition fires, bear stays tapped
	if !c.Perm.Tapped {
		t.Error("the condition should prevent the first untap")
	}
	if len(c.Perm.UntapConditions) != 0 {
		t.Error("a one-shot condition should fall off after firing")
	}

	h.AdvanceToNextTurn() // bob
	h.AdvanceToNextTurn() // alice: untaps normally
	if c.Perm.Tapped {
		t.Error("bear should untap once the condition expired")
	}
}

func TestTurnRotationSkipsEliminatedPlayers(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob", "carol")

	h.MustSubmit(Concede{Player: h.Players[1]})
	h.AdvanceToNextTurn()

	if got := h.Engine.ActivePlayer(); got != h.Players[2] {
		t.Errorf("active player = %s, want carol (%s)", got, h.Players[2])
	}
}

func TestActivePlayerConcedeHandsPriorityToNextSeat(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob", "carol")
	h.AdvanceToStep(rules.StepMain1)

	h.MustSubmit(Concede{Player: h.Players[0]})

	if holder := h.Engine.PriorityHolder(); holder == h.Players[0] {
		t.Fatal("priority should leave the conceding active player")
	}

	// The remaining players must be able to pass the turn along; every
	// step entry has to seat priority with a living player.
	h.AdvanceToNextTurn()

	if got := h.Engine.ActivePlayer(); got != h.Players[1] {
		t.Errorf("active player = %s, want bob (%s)", got, h.Players[1])
	}
	if holder := h.Engine.PriorityHolder(); holder == h.Players[0] {
		t.Error("priority must never return to an eliminated player")
	}
}

func TestCardsDrawnCountsAndResetsOnTurnWrap(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	alice, _ := h.Engine.Player(h.Players[0])
	bob, _ := h.Engine.Player(h.Players[1])

	h.AdvanceToStep(rules.StepMain1) // through alice's draw step
	if alice.CardsDrawn != 1 {
		t.Errorf("alice CardsDrawn = %d, want 1 after her draw step", alice.CardsDrawn)
	}

	h.AdvanceToNextTurn()
	if alice.CardsDrawn != 0 {
		t.Errorf("alice CardsDrawn = %d, want 0 after the turn wraps", alice.CardsDrawn)
	}

	h.AdvanceToStep(rules.StepMain1) // through bob's draw step
	if bob.CardsDrawn != 1 {
		t.Errorf("bob CardsDrawn = %d, want 1 after his draw step", bob.CardsDrawn)
	}
	if alice.CardsDrawn != 0 {
		t.Errorf("alice CardsDrawn = %d, want 0 on bob's turn", alice.CardsDrawn)
	}
}

func TestFullTurnCycleStepOrder(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")

	want := []rules.Step{
		rules.StepUpkeep, rules.StepDraw, rules.StepMain1,
		rules.StepBeginCombat, rules.StepDeclareAttackers, rules.StepDeclareBlockers,
		rules.StepCombatDamage, rules.StepEndCombat, rules.StepMain2, rules.StepEnd,
	}
	for _, step := range want {
		_, _, cur := h.Engine.Turn()
		if cur != step {
			t.Fatalf("step = %s, want %s", cur, step)
		}
		h.AdvanceToStep(nextVisitedStep(step))
	}
	if got := h.Engine.ActivePlayer(); got != h.Players[1] {
		t.Errorf("after a full cycle the active player = %s, want bob (%s)", got, h.Players[1])
	}
}

// nextVisitedStep returns the next step players actually see; untap and
// cleanup are skipped over automatically.
func nextVisitedStep(s rules.Step) rules.Step {
	switch s {
	case rules.StepEnd:
		return rules.StepUpkeep
	default:
		return s + 1
	}
}
