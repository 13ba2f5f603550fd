package rules

import "fmt"

// Phase represents the broad phases of a turn.
type Phase int

const (
	PhaseBeginning Phase = iota
	PhasePrecombatMain
	PhaseCombat
	PhasePostcombatMain
	PhaseEnding
)

var phaseNames = map[Phase]string{
	PhaseBeginning:      "BEGINNING",
	PhasePrecombatMain:  "PRECOMBAT_MAIN",
	PhaseCombat:         "COMBAT",
	PhasePostcombatMain: "POSTCOMBAT_MAIN",
	PhaseEnding:         "ENDING",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// IsMain reports whether this is a main phase (sorcery-speed timing).
func (p Phase) IsMain() bool {
	return p == PhasePrecombatMain || p == PhasePostcombatMain
}

// Step represents the individual steps that comprise a turn.
type Step int

const (
	StepUntap Step = iota
	StepUpkeep
	StepDraw
	StepMain1
	StepBeginCombat
	StepDeclareAttackers
	StepDeclareBlockers
	StepCombatDamage
	StepEndCombat
	StepMain2
	StepEnd
	StepCleanup
)

var stepNames = map[Step]string{
	StepUntap:            "UNTAP",
	StepUpkeep:           "UPKEEP",
	StepDraw:             "DRAW",
	StepMain1:            "MAIN1",
	StepBeginCombat:      "BEGIN_COMBAT",
	StepDeclareAttackers: "DECLARE_ATTACKERS",
	StepDeclareBlockers:  "DECLARE_BLOCKERS",
	StepCombatDamage:     "COMBAT_DAMAGE",
	StepEndCombat:        "END_COMBAT",
	StepMain2:            "MAIN2",
	StepEnd:              "END",
	StepCleanup:          "CLEANUP",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

type turnEntry struct {
	phase Phase
	step  Step
}

// turnSequence is the fixed cyclic turn structure. First strike damage is
// a second pass inside the combat damage step, not an extra step.
var turnSequence = []turnEntry{
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

// TurnManager tracks the active player and turn/step progression.
type TurnManager struct {
	stepIndex    int
	turnNumber   int
	activePlayer PlayerID
}

// NewTurnManager creates a turn manager at turn 1, untap step, with the
// given player active.
func NewTurnManager(activePlayer PlayerID) *TurnManager {
	return &TurnManager{
		stepIndex:    0,
		turnNumber:   1,
		activePlayer: activePlayer,
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return turnSequence[tm.stepIndex].phase
}

// CurrentStep returns the step currently in progress.
func (tm *TurnManager) CurrentStep() Step {
	return turnSequence[tm.stepIndex].step
}

// StepIndex returns the position in the turn sequence, for snapshots.
func (tm *TurnManager) StepIndex() int {
	return tm.stepIndex
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() PlayerID {
	return tm.activePlayer
}

// AdvanceStep advances to the next step in the turn structure.
// Past Cleanup the turn wraps: the turn number increments and the active
// player becomes nextActivePlayer. Returns true when a new turn began.
func (tm *TurnManager) AdvanceStep(nextActivePlayer PlayerID) (Phase, Step, bool) {
	tm.stepIndex++
	wrapped := false
	if tm.stepIndex >= len(turnSequence) {
		tm.stepIndex = 0
		tm.turnNumber++
		wrapped = true
		if !nextActivePlayer.IsZero() {
			tm.activePlayer = nextActivePlayer
		}
	}
	return tm.CurrentPhase(), tm.CurrentStep(), wrapped
}

// Restore resets the manager to a persisted position.
func (tm *TurnManager) Restore(turnNumber, stepIndex int, active PlayerID) error {
	if stepIndex < 0 || stepIndex >= len(turnSequence) {
		return fmt.Errorf("step index %d out of range", stepIndex)
	}
	if turnNumber < 1 {
		return fmt.Errorf("turn number %d out of range", turnNumber)
	}
	tm.turnNumber = turnNumber
	tm.stepIndex = stepIndex
	tm.activePlayer = active
	return nil
}
