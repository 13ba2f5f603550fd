package rules

import (
	"testing"

	"github.com/opencommander/commander-engine-go/internal/entity"
)

func testPlayers(n int) []PlayerID {
	arena := entity.NewArena[int]()
	ids := make([]PlayerID, n)
	for i := 0; i < n; i++ {
		ids[i] = PlayerID(arena.Insert(i))
	}
	return ids
}

func TestTurnManagerSequence(t *testing.T) {
	players := testPlayers(1)
	tm := NewTurnManager(players[0])

	expected := []struct {
		phase Phase
		step  Step
	}{
		{PhaseBeginning, StepUntap},
		{PhaseBeginning, StepUpkeep},
		{PhaseBeginning, StepDraw},
		{PhasePrecombatMain, StepMain1},
		{PhaseCombat, StepBeginCombat},
		{PhaseCombat, StepDeclareAttackers},
		{PhaseCombat, StepDeclareBlockers},
		{PhaseCombat, StepCombatDamage},
		{PhaseCombat, StepEndCombat},
		{PhasePostcombatMain, StepMain2},
		{PhaseEnding, StepEnd},
		{PhaseEnding, StepCleanup},
	}

	for i, exp := range expected {
		if tm.CurrentPhase() != exp.phase {
			t.Fatalf("step %d: expected phase %s, got %s", i, exp.phase, tm.CurrentPhase())
		}
		if tm.CurrentStep() != exp.step {
			t.Fatalf("step %d: expected step %s, got %s", i, exp.step, tm.CurrentStep())
		}
		if i < len(expected)-1 {
			tm.AdvanceStep(PlayerID{})
		}
	}
}

func TestTurnManagerAdvanceWrapsTurn(t *testing.T) {
	players := testPlayers(2)
	alice, bob := players[0], players[1]
	tm := NewTurnManager(alice)

	// Advance through all but the last step to remain on turn 1.
	for i := 0; i < 11; i++ {
		_, _, wrapped := tm.AdvanceStep(PlayerID{})
		if wrapped {
			t.Fatalf("unexpected wrap at advancement %d", i)
		}
		if tm.TurnNumber() != 1 {
			t.Fatalf("expected to remain on turn 1, got turn %d", tm.TurnNumber())
		}
		if tm.ActivePlayer() != alice {
			t.Fatalf("expected active player to remain %s during turn, got %s", alice, tm.ActivePlayer())
		}
	}

	phase, step, wrapped := tm.AdvanceStep(bob)
	if !wrapped {
		t.Fatal("expected wrap after cleanup")
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn number 2 after wrap, got %d", tm.TurnNumber())
	}
	if tm.ActivePlayer() != bob {
		t.Fatalf("expected active player %s after wrap, got %s", bob, tm.ActivePlayer())
	}
	if phase != PhaseBeginning || step != StepUntap {
		t.Fatalf("expected new turn to start at BEGINNING/UNTAP, got %s/%s", phase, step)
	}
}

func TestTurnManagerWrapKeepsActiveWithoutNext(t *testing.T) {
	players := testPlayers(1)
	tm := NewTurnManager(players[0])

	for i := 0; i < 12; i++ {
		tm.AdvanceStep(PlayerID{})
	}
	if tm.ActivePlayer() != players[0] {
		t.Fatalf("expected active player to stay %s, got %s", players[0], tm.ActivePlayer())
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn 2, got %d", tm.TurnNumber())
	}
}

func TestTurnManagerRestore(t *testing.T) {
	players := testPlayers(2)
	tm := NewTurnManager(players[0])

	if err := tm.Restore(7, 5, players[1]); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if tm.TurnNumber() != 7 {
		t.Fatalf("expected turn 7, got %d", tm.TurnNumber())
	}
	if tm.CurrentStep() != StepDeclareAttackers {
		t.Fatalf("expected DECLARE_ATTACKERS, got %s", tm.CurrentStep())
	}
	if tm.ActivePlayer() != players[1] {
		t.Fatalf("expected active %s, got %s", players[1], tm.ActivePlayer())
	}

	if err := tm.Restore(1, 99, players[0]); err == nil {
		t.Fatal("expected error for out-of-range step index")
	}
	if err := tm.Restore(0, 0, players[0]); err == nil {
		t.Fatal("expected error for turn number 0")
	}
}

func TestPhaseIsMain(t *testing.T) {
	if !PhasePrecombatMain.IsMain() || !PhasePostcombatMain.IsMain() {
		t.Fatal("main phases must report IsMain")
	}
	if PhaseBeginning.IsMain() || PhaseCombat.IsMain() || PhaseEnding.IsMain() {
		t.Fatal("non-main phases must not report IsMain")
	}
}
