package server

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/opencommander/commander-engine-go/internal/game"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
	"github.com/opencommander/commander-engine-go/internal/protocol"
)

func newHubFixture(t *testing.T) (*Hub, *game.TestHarness) {
	t.Helper()
	gh := game.NewTestHarness(t, "alice", "bob")
	hub := NewHub(gh.Engine, nil, zaptest.NewLogger(t))
	return hub, gh
}

func TestParseActionTranslatesRefs(t *testing.T) {
	hub, gh := newHubFixture(t)
	alice := gh.Players[0]
	bob := gh.Players[1]
	forest := gh.AddLand(alice, "Forest", mana.Green)

	env := protocol.MustEnvelope(protocol.MsgTapForMana, protocol.TapForManaMsg{
		Card:  refOfCard(forest),
		Color: "G",
	})
	action, err := hub.parseAction(alice, env)
	if err != nil {
		t.Fatalf("parseAction: %v", err)
	}
	tap, ok := action.(game.TapForMana)
	if !ok {
		t.Fatalf("parsed %T, want TapForMana", action)
	}
	if tap.Card != forest || tap.Player != alice || tap.Color != mana.Green {
		t.Errorf("translated action = %+v", tap)
	}

	attacker := gh.CreateCreature(game.CreatureSpec{
		Name: "Grizzly Bears", Power: 2, Toughness: 2, Owner: alice,
	})
	env = protocol.MustEnvelope(protocol.MsgDeclareAttackers, protocol.DeclareAttackersMsg{
		Attacks: []protocol.AttackMsg{{
			Attacker: refOfCard(attacker),
			Defender: refOfPlayer(bob),
		}},
	})
	action, err = hub.parseAction(alice, env)
	if err != nil {
		t.Fatalf("parseAction: %v", err)
	}
	decl, ok := action.(game.DeclareAttackers)
	if !ok {
		t.Fatalf("parsed %T, want DeclareAttackers", action)
	}
	if len(decl.Attacks) != 1 || decl.Attacks[0].Attacker != attacker || decl.Attacks[0].Defender != bob {
		t.Errorf("translated attacks = %+v", decl.Attacks)
	}
}

func TestParseActionRejectsUnknownType(t *testing.T) {
	hub, gh := newHubFixture(t)
	env := protocol.Envelope{Type: "shuffle_library"}
	if _, err := hub.parseAction(gh.Players[0], env); err == nil {
		t.Error("expected error for unknown message type")
	}
}

func TestParseActionRejectsUnknownColor(t *testing.T) {
	hub, gh := newHubFixture(t)
	forest := gh.AddLand(gh.Players[0], "Forest", mana.Green)
	env := protocol.MustEnvelope(protocol.MsgTapForMana, protocol.TapForManaMsg{
		Card:  refOfCard(forest),
		Color: "Q",
	})
	if _, err := hub.parseAction(gh.Players[0], env); err == nil {
		t.Error("expected error for unknown color symbol")
	}
}

func TestStateMsgReflectsGame(t *testing.T) {
	hub, gh := newHubFixture(t)
	alice := gh.Players[0]
	bear := gh.CreateCreature(game.CreatureSpec{
		Name: "Grizzly Bears", Power: 2, Toughness: 2, Owner: alice, Tapped: true,
	})

	state := hub.stateMsg()
	if !state.Started {
		t.Error("state should report a started game")
	}
	if state.Turn != 1 {
		t.Errorf("turn = %d, want 1", state.Turn)
	}
	if state.Active != refOfPlayer(alice) {
		t.Errorf("active = %+v, want alice", state.Active)
	}
	if len(state.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(state.Players))
	}
	if state.Players[0].Life != 40 {
		t.Errorf("life = %d, want 40", state.Players[0].Life)
	}
	if state.Players[0].Library != 10 {
		t.Errorf("library = %d, want 10 before the first draw", state.Players[0].Library)
	}

	var found bool
	for _, p := range state.Battlefield {
		if p.Card == refOfCard(bear) {
			found = true
			if !p.Tapped {
				t.Error("bear should be shown tapped")
			}
			if p.Name != "Grizzly Bears" {
				t.Errorf("name = %q", p.Name)
			}
		}
	}
	if !found {
		t.Error("battlefield view missing the bear")
	}
}

func TestEventMaskingHidesOtherPlayersDraws(t *testing.T) {
	hub, gh := newHubFixture(t)
	alice, bob := gh.Players[0], gh.Players[1]

	drawn := gh.AddToLibrary(alice, mustDef(t, "Island", "", game.TypeLand))
	ev := rules.Event{Type: rules.EventDrawCard, Card: drawn, Player: alice}

	own := hub.eventMsgFor(alice, ev)
	if own.Card == nil {
		t.Error("drawing player should see the drawn card")
	}
	other := hub.eventMsgFor(bob, ev)
	if other.Card != nil {
		t.Error("opponent should not see another player's draw")
	}
	if other.Type != string(rules.EventDrawCard) {
		t.Error("opponent should still see that a draw happened")
	}
}

func TestEventMaskingHidesHiddenZoneMoves(t *testing.T) {
	hub, gh := newHubFixture(t)
	alice, bob := gh.Players[0], gh.Players[1]
	card := gh.AddToHand(alice, mustDef(t, "Island", "", game.TypeLand))

	ev := rules.Event{
		Type:       rules.EventZoneChange,
		Card:       card,
		Player:     alice,
		FromZone:   int(game.ZoneHand),
		ToZone:     int(game.ZoneLibrary),
		WasVisible: false,
		IsVisible:  false,
	}
	if msg := hub.eventMsgFor(bob, ev); msg.Card != nil {
		t.Error("hidden-to-hidden move should not leak the card to opponents")
	}
	if msg := hub.eventMsgFor(alice, ev); msg.Card == nil {
		t.Error("owner should see their own hidden-zone move")
	}

	// A move into a visible zone is public.
	ev.ToZone = int(game.ZoneBattlefield)
	ev.IsVisible = true
	if msg := hub.eventMsgFor(bob, ev); msg.Card == nil {
		t.Error("move to a visible zone should name the card")
	}
	if msg := hub.eventMsgFor(bob, ev); msg.ToZone != "battlefield" {
		t.Errorf("to_zone = %q", msg.ToZone)
	}
}

func mustDef(t *testing.T, name, cost string, types game.CardType) *game.CardDefinition {
	t.Helper()
	def, err := game.NewCardDefinition(name, cost, types)
	if err != nil {
		t.Fatalf("card definition %s: %v", name, err)
	}
	return def
}
