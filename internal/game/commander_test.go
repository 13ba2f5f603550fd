package game

import (
	"errors"
	"testing"

	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

func TestCommanderTaxProgression(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Torbran", "{2}{R}", 2, 4)
	p, _ := h.Engine.Player(h.Players[0])

	h.AdvanceToStep(rules.StepMain1)

	castAndResolve := func(generic int) {
		t.Helper()
		h.GiveMana(h.Players[0], mana.Red, 1)
		p.Pool.AddColorless(generic)
		h.MustSubmit(CastSpell{Player: h.Players[0], Card: commander})
		h.Pass()
		h.Pass()
		if !h.Engine.Zones().InZone(commander, ZoneBattlefield) {
			t.Fatal("commander should have resolved to the battlefield")
		}
	}
	killCommander := func() {
		t.Helper()
		c, _ := h.Engine.Card(commander)
		c.Perm.Damage = 99
		h.Engine.Tick()
		if !h.Engine.Zones().InZone(commander, ZoneCommand) {
			t.Fatal("dead commander should return to the command zone")
		}
	}

	if tax := h.Engine.Commanders().Tax(commander); tax != 0 {
		t.Errorf("initial tax = %d, want 0", tax)
	}
	castAndResolve(2)

	if tax := h.Engine.Commanders().Tax(commander); tax != 2 {
		t.Errorf("tax after first cast = %d, want 2", tax)
	}
	killCommander()
	castAndResolve(4)

	if tax := h.Engine.Commanders().Tax(commander); tax != 4 {
		t.Errorf("tax after second cast = %d, want 4", tax)
	}
	killCommander()
	// Third cast costs the printed {2}{R} plus {4}.
	castAndResolve(6)

	if tax := h.Engine.Commanders().Tax(commander); tax != 6 {
		t.Errorf("tax after third cast = %d, want 6", tax)
	}
}

func TestCommanderCastDeniedWithoutTaxPayment(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Torbran", "{2}{R}", 2, 4)
	p, _ := h.Engine.Player(h.Players[0])

	h.AdvanceToStep(rules.StepMain1)
	h.GiveMana(h.Players[0], mana.Red, 1)
	p.Pool.AddColorless(2)
	h.MustSubmit(CastSpell{Player: h.Players[0], Card: commander})
	h.Pass()
	h.Pass()

	c, _ := h.Engine.Card(commander)
	c.Perm.Damage = 99
	h.Engine.Tick()

	// Exactly the printed cost no longer covers the taxed cast.
	h.GiveMana(h.Players[0], mana.Red, 1)
	p.Pool.AddColorless(2)
	err := h.Engine.Submit(CastSpell{Player: h.Players[0], Card: commander})
	var de *DeniedError
	if !errors.As(err, &de) {
		t.Fatalf("underpaying taxed cast: got %v, want denial", err)
	}
	if de.Code != DeniedCantPay {
		t.Errorf("denial code = %s, want %s", de.Code, DeniedCantPay)
	}
}

func TestCounteredCommanderCastIsTaxFree(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Torbran", "{2}{R}", 2, 4)
	p, _ := h.Engine.Player(h.Players[0])

	h.AdvanceToStep(rules.StepMain1)
	h.GiveMana(h.Players[0], mana.Red, 1)
	p.Pool.AddColorless(2)
	h.MustSubmit(CastSpell{Player: h.Players[0], Card: commander})

	// The spell leaves the stack without reaching the battlefield.
	h.Engine.Stack().RemoveWhere(func(item rules.StackItem) bool { return item.Source == commander })

	if tax := h.Engine.Commanders().Tax(commander); tax != 0 {
		t.Errorf("tax after countered cast = %d, want 0", tax)
	}
}

func TestCommanderDamageEliminationAtThreshold(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Grunn", "{4}{G}{G}", 7, 7)

	// Put the commander straight onto the battlefield for combat.
	h.MustPlaceOnBattlefield(commander)

	attack := func() {
		t.Helper()
		h.AdvanceToStep(rules.StepDeclareAttackers)
		h.MustSubmit(DeclareAttackers{
			Player:  h.Players[0],
			Attacks: []Attack{{Attacker: commander, Defender: h.Players[1]}},
		})
		h.AdvanceToStep(rules.StepMain2)
	}

	attack()
	h.AdvanceToNextTurn() // bob's turn
	h.AdvanceToNextTurn() // alice again
	attack()

	if got := h.Engine.Commanders().DamageTo(commander, h.Players[1]); got != 14 {
		t.Fatalf("commander damage = %d, want 14", got)
	}
	if p, _ := h.Engine.Player(h.Players[1]); p.Eliminated {
		t.Fatal("14 commander damage should not eliminate")
	}

	h.AdvanceToNextTurn()
	h.AdvanceToNextTurn()
	// The third hit reaches 21; stop at the damage step since the game
	// ends there.
	h.AdvanceToStep(rules.StepDeclareAttackers)
	h.MustSubmit(DeclareAttackers{
		Player:  h.Players[0],
		Attacks: []Attack{{Attacker: commander, Defender: h.Players[1]}},
	})
	h.AdvanceToStep(rules.StepCombatDamage)

	p, _ := h.Engine.Player(h.Players[1])
	if !p.Eliminated {
		t.Error("21 commander damage should eliminate the player")
	}
	over, winner := h.Engine.GameOver()
	if !over || winner != h.Players[0] {
		t.Errorf("game over = %t winner = %s, want true %s", over, winner, h.Players[0])
	}
}

func TestCommanderDamageEliminationNamesTheCommander(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Grunn", "{4}{G}{G}", 7, 7)
	h.Engine.Commanders().AddCombatDamage(commander, h.Players[1], 21)

	events := h.Engine.Tick()

	var elim *rules.Event
	for i := range events {
		if events[i].Type == rules.EventPlayerEliminated {
			elim = &events[i]
		}
	}
	if elim == nil {
		t.Fatal("expected a player eliminated event")
	}
	if elim.Reason != rules.ReasonCommanderDamage {
		t.Errorf("reason = %s, want %s", elim.Reason, rules.ReasonCommanderDamage)
	}
	if elim.Source != commander {
		t.Errorf("source = %s, want the offending commander %s", elim.Source, commander)
	}
}

func TestCommanderColorIdentityFromManaCost(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Ephara", "{2}{W}{U}", 6, 5)

	identity := h.Engine.Commanders().ColorIdentity(commander)
	for _, c := range []mana.Color{mana.White, mana.Blue} {
		if !identity.Contains(c) {
			t.Errorf("identity %s should contain %s", identity, mana.ColorSet(0).Add(c))
		}
	}
	if identity.Count() != 2 {
		t.Errorf("identity %s has %d colors, want 2", identity, identity.Count())
	}

	// Generic pips contribute nothing.
	colorless := h.MakeCommander(h.Players[1], "Karn", "{7}", 5, 5)
	if got := h.Engine.Commanders().ColorIdentity(colorless); !got.IsColorless() {
		t.Errorf("identity of an all-generic cost = %s, want colorless", got)
	}
}

func TestCommanderRedirectOnlyFromBattlefieldOrStack(t *testing.T) {
	h := NewTestHarness(t, "alice", "bob")
	commander := h.MakeCommander(h.Players[0], "Grunn", "{4}{G}{G}", 7, 7)

	// A commander discarded from hand goes to the graveyard; the
	// replacement only covers departures from the battlefield or stack.
	if err := h.Engine.moveCard(commander, ZoneHand); err != nil {
		t.Fatalf("moving commander to hand: %v", err)
	}
	if err := h.Engine.moveCard(commander, ZoneGraveyard); err != nil {
		t.Fatalf("discarding commander: %v", err)
	}
	if !h.Engine.Zones().InZone(commander, ZoneGraveyard) {
		t.Fatal("a commander discarded from hand should stay in the graveyard")
	}

	// Dying on the battlefield still returns it to the command zone.
	h.MustPlaceOnBattlefield(commander)
	if err := h.Engine.moveCard(commander, ZoneGraveyard); err != nil {
		t.Fatalf("destroying commander: %v", err)
	}
	if !h.Engine.Zones().InZone(commander, ZoneCommand) {
		t.Error("a commander dying on the battlefield should return to the command zone")
	}
}

func TestRedirectZoneOnlyCoversGraveyardAndExile(t *testing.T) {
	cases := []struct {
		in       Zone
		want     Zone
		redirect bool
	}{
		{ZoneGraveyard, ZoneCommand, true},
		{ZoneExile, ZoneCommand, true},
		{ZoneHand, ZoneHand, false},
		{ZoneLibrary, ZoneLibrary, false},
		{ZoneBattlefield, ZoneBattlefield, false},
	}
	for _, tc := range cases {
		got, redirected := RedirectZone(tc.in)
		if got != tc.want || redirected != tc.redirect {
			t.Errorf("RedirectZone(%s) = %s,%t, want %s,%t", tc.in, got, redirected, tc.want, tc.redirect)
		}
	}
}
