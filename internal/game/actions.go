package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// DeniedCode classifies why an action was rejected.
type DeniedCode string

const (
	DeniedGameOver   DeniedCode = "GAME_OVER"
	DeniedNotStarted DeniedCode = "NOT_STARTED"
	DeniedNoPlayer   DeniedCode = "NO_PLAYER"
	DeniedNoPriority DeniedCode = "NO_PRIORITY"
	DeniedTiming     DeniedCode = "TIMING"
	DeniedWrongZone  DeniedCode = "WRONG_ZONE"
	DeniedLandLimit  DeniedCode = "LAND_LIMIT"
	DeniedCantPay    DeniedCode = "CANT_PAY"
	DeniedNotYours   DeniedCode = "NOT_YOURS"
	DeniedCombat     DeniedCode = "COMBAT"
)

// DeniedError marks an action rejected by the rules, as opposed to an
// internal failure. Clients can show Reason verbatim.
type DeniedError struct {
	Code   DeniedCode
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("denied [%s]: %s", e.Code, e.Reason)
}

func denied(code DeniedCode, format string, args ...any) *DeniedError {
	return &DeniedError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// IsDenied reports whether an error is a rules denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}

// Action is a player intent submitted to the engine.
type Action interface {
	Actor() rules.PlayerID
}

// PlayLand plays a land from the actor's hand.
type PlayLand struct {
	Player rules.PlayerID
	Card   rules.CardID
}

func (a PlayLand) Actor() rules.PlayerID { return a.Player }

// CastSpell casts a spell from hand, or a commander from the command
// zone.
type CastSpell struct {
	Player  rules.PlayerID
	Card    rules.CardID
	Targets []rules.CardID
}

func (a CastSpell) Actor() rules.PlayerID { return a.Player }

// TapForMana taps a permanent for one mana of the chosen color.
type TapForMana struct {
	Player rules.PlayerID
	Card   rules.CardID
	Color  mana.Color
}

func (a TapForMana) Actor() rules.PlayerID { return a.Player }

// ActivateAbility puts an activated ability of a battlefield permanent
// on the stack.
type ActivateAbility struct {
	Player      rules.PlayerID
	Source      rules.CardID
	Description string
	Effect      func(*Engine) error
}

func (a ActivateAbility) Actor() rules.PlayerID { return a.Player }

// Attack pairs an attacker with the player it attacks.
type Attack struct {
	Attacker rules.CardID
	Defender rules.PlayerID
}

// DeclareAttackers declares the active player's attacks.
type DeclareAttackers struct {
	Player  rules.PlayerID
	Attacks []Attack
}

func (a DeclareAttackers) Actor() rules.PlayerID { return a.Player }

// Block pairs a blocker with the attacker it blocks.
type Block struct {
	Blocker  rules.CardID
	Attacker rules.CardID
}

// DeclareBlockers declares a defending player's blocks.
type DeclareBlockers struct {
	Player rules.PlayerID
	Blocks []Block
}

func (a DeclareBlockers) Actor() rules.PlayerID { return a.Player }

// PassPriority passes priority to the next player.
type PassPriority struct {
	Player rules.PlayerID
}

func (a PassPriority) Actor() rules.PlayerID { return a.Player }

// Concede removes the actor from the game.
type Concede struct {
	Player rules.PlayerID
}

func (a Concede) Actor() rules.PlayerID { return a.Player }

// Submit validates and applies one action. Rules rejections come back
// as *DeniedError and leave the game untouched; other errors indicate
// internal failures. Callers run Tick afterwards to settle state-based
// actions and collect events.
func (e *Engine) Submit(action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return denied(DeniedNotStarted, "game has not started")
	}
	if e.gameOver {
		return denied(DeniedGameOver, "game is over")
	}
	actor, ok := e.player(action.Actor())
	if !ok || actor.Eliminated {
		return denied(DeniedNoPlayer, "player %s is not in the game", action.Actor())
	}

	switch a := action.(type) {
	case PlayLand:
		return e.handlePlayLand(a)
	case CastSpell:
		return e.handleCastSpell(a)
	case TapForMana:
		return e.handleTapForMana(a)
	case ActivateAbility:
		return e.handleActivateAbility(a)
	case DeclareAttackers:
		return e.handleDeclareAttackers(a)
	case DeclareBlockers:
		return e.handleDeclareBlockers(a)
	case PassPriority:
		return e.handlePass(a.Player)
	case Concede:
		e.eliminate(a.Player, rules.ReasonConcede, rules.CardID{})
		return nil
	default:
		return fmt.Errorf("unknown action type %T", action)
	}
}

func (e *Engine) handlePlayLand(a PlayLand) error {
	if e.priority.Holder() != a.Player {
		return denied(DeniedNoPriority, "player %s does not hold priority", a.Player)
	}
	if e.turn.ActivePlayer() != a.Player {
		return denied(DeniedTiming, "lands can only be played on your own turn")
	}
	if !e.turn.CurrentPhase().IsMain() {
		return denied(DeniedTiming, "lands can only be played in a main phase")
	}
	if !e.stack.IsEmpty() {
		return denied(DeniedTiming, "lands cannot be played while the stack has objects")
	}
	c, ok := e.lookupCard(a.Card)
	if !ok {
		return denied(DeniedWrongZone, "unknown card %s", a.Card)
	}
	if c.Owner != a.Player {
		return denied(DeniedNotYours, "%s does not belong to you", c.Name())
	}
	if !e.zones.InZone(a.Card, ZoneHand) {
		return denied(DeniedWrongZone, "%s is not in your hand", c.Name())
	}
	if !c.IsType(TypeLand) {
		return denied(DeniedTiming, "%s is not a land", c.Name())
	}
	p, _ := e.player(a.Player)
	if p.LandsPlayed >= e.cfg.LandLimit {
		return denied(DeniedLandLimit, "already played %d land(s) this turn", p.LandsPlayed)
	}

	if err := e.moveCard(a.Card, ZoneBattlefield); err != nil {
		return err
	}
	p.LandsPlayed++
	e.priority.ResetPasses()
	e.bus.Publish(rules.Event{Type: rules.EventLandPlayed, Card: a.Card, Player: a.Player})
	return nil
}

func (e *Engine) handleCastSpell(a CastSpell) error {
	if e.priority.Holder() != a.Player {
		return denied(DeniedNoPriority, "player %s does not hold priority", a.Player)
	}
	c, ok := e.lookupCard(a.Card)
	if !ok {
		return denied(DeniedWrongZone, "unknown card %s", a.Card)
	}
	if c.Owner != a.Player {
		return denied(DeniedNotYours, "%s does not belong to you", c.Name())
	}
	if c.IsType(TypeLand) {
		return denied(DeniedTiming, "lands are played, not cast")
	}

	fromCommand := e.zones.InZone(a.Card, ZoneCommand)
	if fromCommand {
		if !c.Commander {
			return denied(DeniedWrongZone, "%s cannot be cast from the command zone", c.Name())
		}
	} else if !e.zones.InZone(a.Card, ZoneHand) {
		return denied(DeniedWrongZone, "%s is not in a castable zone", c.Name())
	}

	instantSpeed := c.IsType(TypeInstant) || c.HasAbility(AbilityFlash)
	if !instantSpeed {
		if e.turn.ActivePlayer() != a.Player {
			return denied(DeniedTiming, "%s can only be cast on your own turn", c.Name())
		}
		if !e.turn.CurrentPhase().IsMain() {
			return denied(DeniedTiming, "%s can only be cast in a main phase", c.Name())
		}
		if !e.stack.IsEmpty() {
			return denied(DeniedTiming, "%s cannot be cast while the stack has objects", c.Name())
		}
	}

	cost := c.Def.Cost
	tax := 0
	if fromCommand {
		tax = e.commanders.Tax(a.Card)
		cost = cost.WithAdditionalGeneric(tax)
	}
	p, _ := e.player(a.Player)
	if !p.Pool.CanPay(cost) {
		return denied(DeniedCantPay, "cannot pay %s for %s", cost, c.Name())
	}
	if err := p.Pool.Pay(cost); err != nil {
		return err
	}

	if err := e.moveCard(a.Card, ZoneStack); err != nil {
		return err
	}
	targets := append([]rules.CardID(nil), a.Targets...)
	e.stack.Push(rules.StackItem{
		ID:          uuid.New().String(),
		Controller:  a.Player,
		Source:      a.Card,
		Kind:        rules.StackItemKindSpell,
		Description: c.Name(),
		Targets:     targets,
		Resolve: func() error {
			if c.Def.Types.IsPermanentType() {
				return e.moveCard(a.Card, ZoneBattlefield)
			}
			return e.moveCard(a.Card, ZoneGraveyard)
		},
	})
	e.priority.ResetPasses()
	e.bus.Publish(rules.Event{Type: rules.EventSpellCast, Card: a.Card, Player: a.Player})
	if fromCommand {
		e.bus.Publish(rules.Event{Type: rules.EventCommanderCast, Card: a.Card, Player: a.Player, Amount: tax})
	}
	return nil
}

func (e *Engine) handleTapForMana(a TapForMana) error {
	c, ok := e.lookupCard(a.Card)
	if !ok {
		return denied(DeniedWrongZone, "unknown card %s", a.Card)
	}
	if c.Controller != a.Player {
		return denied(DeniedNotYours, "%s is not under your control", c.Name())
	}
	if c.Perm == nil || !e.zones.InZone(a.Card, ZoneBattlefield) {
		return denied(DeniedWrongZone, "%s is not on the battlefield", c.Name())
	}
	if c.Perm.Tapped {
		return denied(DeniedTiming, "%s is already tapped", c.Name())
	}
	if !c.Def.Produces.Contains(a.Color) {
		return denied(DeniedTiming, "%s does not produce that color", c.Name())
	}

	c.Perm.Tapped = true
	p, _ := e.player(a.Player)
	p.Pool.Add(a.Color, 1)
	e.priority.ResetPasses()
	e.bus.Publish(rules.Event{Type: rules.EventTapped, Card: a.Card, Player: a.Player})
	return nil
}

func (e *Engine) handleActivateAbility(a ActivateAbility) error {
	if e.priority.Holder() != a.Player {
		return denied(DeniedNoPriority, "player %s does not hold priority", a.Player)
	}
	c, ok := e.lookupCard(a.Source)
	if !ok {
		return denied(DeniedWrongZone, "unknown card %s", a.Source)
	}
	if c.Controller != a.Player {
		return denied(DeniedNotYours, "%s is not under your control", c.Name())
	}
	if !e.zones.InZone(a.Source, ZoneBattlefield) {
		return denied(DeniedWrongZone, "%s is not on the battlefield", c.Name())
	}
	if a.Effect == nil {
		return fmt.Errorf("ability on %s has no effect", c.Name())
	}

	e.stack.Push(rules.StackItem{
		ID:          uuid.New().String(),
		Controller:  a.Player,
		Source:      a.Source,
		Kind:        rules.StackItemKindActivated,
		Description: a.Description,
		Resolve:     func() error { return a.Effect(e) },
	})
	e.priority.ResetPasses()
	e.bus.Publish(rules.Event{
		Type:        rules.EventAbilityActivated,
		Card:        a.Source,
		Player:      a.Player,
		Description: a.Description,
	})
	return nil
}

func (e *Engine) handleDeclareAttackers(a DeclareAttackers) error {
	if e.turn.ActivePlayer() != a.Player {
		return denied(DeniedCombat, "only the active player declares attackers")
	}
	if e.turn.CurrentStep() != rules.StepDeclareAttackers {
		return denied(DeniedTiming, "attackers are declared in the declare attackers step")
	}
	if e.priority.Holder() != a.Player {
		return denied(DeniedNoPriority, "player %s does not hold priority", a.Player)
	}
	for _, atk := range a.Attacks {
		if p, ok := e.player(atk.Defender); !ok || p.Eliminated {
			return denied(DeniedCombat, "cannot attack player %s", atk.Defender)
		}
		if err := e.combat.DeclareAttacker(atk.Attacker, atk.Defender); err != nil {
			return denied(DeniedCombat, "%v", err)
		}
	}
	e.priority.ResetPasses()
	return nil
}

func (e *Engine) handleDeclareBlockers(a DeclareBlockers) error {
	if e.turn.CurrentStep() != rules.StepDeclareBlockers {
		return denied(DeniedTiming, "blockers are declared in the declare blockers step")
	}
	for _, blk := range a.Blocks {
		blocker, ok := e.lookupCard(blk.Blocker)
		if !ok || blocker.Controller != a.Player {
			return denied(DeniedNotYours, "blocker %s is not under your control", blk.Blocker)
		}
		if err := e.combat.DeclareBlocker(blk.Blocker, blk.Attacker); err != nil {
			return denied(DeniedCombat, "%v", err)
		}
	}
	e.priority.ResetPasses()
	return nil
}

// handlePass records a pass. When every remaining player has passed in
// succession the top of the stack resolves with priority returning to
// the active player, or, with an empty stack, the game advances a step.
// The combat damage step only advances once both damage passes are
// spent.
func (e *Engine) handlePass(player rules.PlayerID) error {
	if e.priority.Holder() != player {
		return denied(DeniedNoPriority, "player %s does not hold priority", player)
	}
	next := e.nextSeatAfter(player)
	if err := e.priority.Pass(player, next); err != nil {
		return denied(DeniedNoPriority, "%v", err)
	}
	if !e.priority.AllPassed(e.activeSeats()) {
		return nil
	}

	if !e.stack.IsEmpty() {
		return e.resolveTop()
	}
	if e.turn.CurrentStep() == rules.StepCombatDamage && e.combat.InCombat() {
		if e.combat.ResolveDamage(e) {
			e.priority.Reset(e.prioritySeat())
			return nil
		}
	}
	e.advanceToNextStep()
	return nil
}

func (e *Engine) resolveTop() error {
	item, err := e.stack.Pop()
	if err != nil {
		return err
	}
	if item.Resolve != nil {
		if err := item.Resolve(); err != nil {
			e.logger.Error("stack item resolution failed",
				zap.String("item", item.Description), zap.Error(err))
		}
	}
	e.bus.Publish(rules.Event{
		Type:        rules.EventStackItemResolved,
		ID:          item.ID,
		Controller:  item.Controller,
		Source:      item.Source,
		Description: item.Description,
	})
	e.priority.Reset(e.prioritySeat())
	return nil
}
