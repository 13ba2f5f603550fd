package game

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// TestHarness sets up and drives games for tests.
type TestHarness struct {
	t       *testing.T
	Engine  *Engine
	Players []rules.PlayerID
}

// NewTestHarness starts a game with the given player names.
func NewTestHarness(t *testing.T, names ...string) *TestHarness {
	t.Helper()
	e := NewEngine(DefaultConfig(), zaptest.NewLogger(t))
	h := &TestHarness{t: t, Engine: e}
	for _, name := range names {
		id, err := e.AddPlayer(name)
		if err != nil {
			t.Fatalf("adding player %s: %v", name, err)
		}
		h.Players = append(h.Players, id)
	}
	// Stock each library so draw steps do not run anyone out of cards.
	for _, id := range h.Players {
		for i := 0; i < 10; i++ {
			def, err := NewCardDefinition("Plains", "", TypeLand,
				WithManaProduction(mana.ColorSet(0).Add(mana.White)))
			if err != nil {
				t.Fatalf("creating library filler: %v", err)
			}
			if _, err := e.AddCard(def, id, ZoneLibrary); err != nil {
				t.Fatalf("stocking library: %v", err)
			}
		}
	}
	if err := e.Start(); err != nil {
		t.Fatalf("starting game: %v", err)
	}
	e.Tick()
	return h
}

// CreatureSpec describes a test creature.
type CreatureSpec struct {
	Name      string
	Cost      string
	Power     int
	Toughness int
	Owner     rules.PlayerID
	Abilities Ability
	Tapped    bool
	Sick      bool
}

// CreateCreature puts a creature straight onto the battlefield.
func (h *TestHarness) CreateCreature(spec CreatureSpec) rules.CardID {
	h.t.Helper()
	cost := spec.Cost
	if cost == "" {
		cost = "{1}"
	}
	def, err := NewCardDefinition(spec.Name, cost, TypeCreature,
		WithPT(spec.Power, spec.Toughness), WithAbilities(spec.Abilities))
	if err != nil {
		h.t.Fatalf("creating %s: %v", spec.Name, err)
	}
	id, err := h.Engine.AddCard(def, spec.Owner, ZoneBattlefield)
	if err != nil {
		h.t.Fatalf("placing %s: %v", spec.Name, err)
	}
	c, _ := h.Engine.Card(id)
	c.Perm.Tapped = spec.Tapped
	c.Perm.SummoningSickness = spec.Sick
	return id
}

// AddLand puts an untapped land producing the given color onto the
// battlefield.
func (h *TestHarness) AddLand(owner rules.PlayerID, name string, color mana.Color) rules.CardID {
	h.t.Helper()
	def, err := NewCardDefinition(name, "", TypeLand, WithManaProduction(mana.ColorSet(0).Add(color)))
	if err != nil {
		h.t.Fatalf("creating land %s: %v", name, err)
	}
	id, err := h.Engine.AddCard(def, owner, ZoneBattlefield)
	if err != nil {
		h.t.Fatalf("placing land %s: %v", name, err)
	}
	return id
}

// AddToHand creates a card in a player's hand.
func (h *TestHarness) AddToHand(owner rules.PlayerID, def *CardDefinition) rules.CardID {
	h.t.Helper()
	id, err := h.Engine.AddCard(def, owner, ZoneHand)
	if err != nil {
		h.t.Fatalf("adding %s to hand: %v", def.Name, err)
	}
	return id
}

// AddToLibrary creates a card on top of a player's library.
func (h *TestHarness) AddToLibrary(owner rules.PlayerID, def *CardDefinition) rules.CardID {
	h.t.Helper()
	id, err := h.Engine.AddCard(def, owner, ZoneLibrary)
	if err != nil {
		h.t.Fatalf("adding %s to library: %v", def.Name, err)
	}
	return id
}

// MakeCommander creates a legendary creature in a player's command zone
// and registers it as their commander.
func (h *TestHarness) MakeCommander(owner rules.PlayerID, name, cost string, power, toughness int) rules.CardID {
	h.t.Helper()
	def, err := NewCardDefinition(name, cost, TypeCreature,
		WithSuperTypes(SuperLegendary), WithPT(power, toughness))
	if err != nil {
		h.t.Fatalf("creating commander %s: %v", name, err)
	}
	id, err := h.Engine.AddCard(def, owner, ZoneCommand)
	if err != nil {
		h.t.Fatalf("placing commander %s: %v", name, err)
	}
	if err := h.Engine.SetCommander(id); err != nil {
		h.t.Fatalf("registering commander %s: %v", name, err)
	}
	return id
}

// MustPlaceOnBattlefield moves an existing card onto the battlefield
// and clears its summoning sickness.
func (h *TestHarness) MustPlaceOnBattlefield(card rules.CardID) {
	h.t.Helper()
	if err := h.Engine.moveCard(card, ZoneBattlefield); err != nil {
		h.t.Fatalf("placing %s on battlefield: %v", card, err)
	}
	if c, ok := h.Engine.Card(card); ok && c.Perm != nil {
		c.Perm.SummoningSickness = false
	}
}

// GiveMana adds mana directly to a player's pool.
func (h *TestHarness) GiveMana(player rules.PlayerID, color mana.Color, n int) {
	h.t.Helper()
	p, ok := h.Engine.Player(player)
	if !ok {
		h.t.Fatalf("unknown player %s", player)
	}
	p.Pool.Add(color, n)
}

// MustSubmit submits an action and fails the test on rejection.
func (h *TestHarness) MustSubmit(a Action) {
	h.t.Helper()
	if err := h.Engine.Submit(a); err != nil {
		h.t.Fatalf("action %T rejected: %v", a, err)
	}
	h.Engine.Tick()
}

// Pass has the current priority holder pass once.
func (h *TestHarness) Pass() {
	h.t.Helper()
	h.MustSubmit(PassPriority{Player: h.Engine.PriorityHolder()})
}

// AdvanceToStep passes priority until the game reaches the given step.
func (h *TestHarness) AdvanceToStep(step rules.Step) {
	h.t.Helper()
	for i := 0; i < 500; i++ {
		_, _, cur := h.Engine.Turn()
		if cur == step {
			return
		}
		h.Pass()
	}
	h.t.Fatalf("never reached step %s", step)
}

// AdvanceToNextTurn passes priority until a new turn begins.
func (h *TestHarness) AdvanceToNextTurn() {
	h.t.Helper()
	start, _, _ := h.Engine.Turn()
	for i := 0; i < 500; i++ {
		turn, _, _ := h.Engine.Turn()
		if turn > start {
			return
		}
		h.Pass()
	}
	h.t.Fatalf("never left turn %d", start)
}

// Life returns a player's life total.
func (h *TestHarness) Life(player rules.PlayerID) int {
	h.t.Helper()
	p, ok := h.Engine.Player(player)
	if !ok {
		h.t.Fatalf("unknown player %s", player)
	}
	return p.Life
}
