package game

import (
	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// stepGrantsPriority reports whether players receive priority during a
// step. Untap and cleanup are turn-based actions only.
func stepGrantsPriority(s rules.Step) bool {
	return s != rules.StepUntap && s != rules.StepCleanup
}

// enterStep performs the turn-based actions of the current step and
// keeps advancing until the game sits in a step where players hold
// priority. The active player receives priority there.
func (e *Engine) enterStep() {
	for {
		step := e.turn.CurrentStep()
		e.performStepActions(step)
		if stepGrantsPriority(step) {
			e.priority.Reset(e.prioritySeat())
			return
		}
		e.advanceStepLocked()
	}
}

// prioritySeat returns the active player, or, when the active player
// left the game mid-turn, the next living seat. Priority must never
// rest with an eliminated player.
func (e *Engine) prioritySeat() rules.PlayerID {
	active := e.turn.ActivePlayer()
	if p, ok := e.player(active); ok && !p.Eliminated {
		return active
	}
	return e.nextSeatAfter(active)
}

// advanceToNextStep moves past the current step, then settles into the
// next priority-bearing step.
func (e *Engine) advanceToNextStep() {
	e.advanceStepLocked()
	e.enterStep()
}

func (e *Engine) advanceStepLocked() {
	prevPhase := e.turn.CurrentPhase()
	if e.turn.CurrentStep() == rules.StepEndCombat {
		e.combat.EndCombat()
	}
	next := e.nextSeatAfter(e.turn.ActivePlayer())
	phase, step, wrapped := e.turn.AdvanceStep(next)
	if wrapped {
		active := e.turn.ActivePlayer()
		for _, seat := range e.seats {
			if p, ok := e.player(seat); ok {
				p.LandsPlayed = 0
				p.CardsDrawn = 0
			}
		}
		e.bus.Publish(rules.Event{
			Type:   rules.EventBeginTurn,
			Player: active,
			Amount: e.turn.TurnNumber(),
		})
	}
	if phase != prevPhase {
		e.bus.Publish(rules.Event{
			Type:        rules.EventPhaseChanged,
			Player:      e.turn.ActivePlayer(),
			Description: phase.String(),
		})
	}
	e.bus.Publish(rules.Event{
		Type:        rules.EventStepChanged,
		Player:      e.turn.ActivePlayer(),
		Description: step.String(),
	})
}

func (e *Engine) performStepActions(step rules.Step) {
	switch step {
	case rules.StepUntap:
		e.untapStep()
	case rules.StepDraw:
		e.drawCard(e.turn.ActivePlayer())
	case rules.StepCombatDamage:
		if e.combat.InCombat() {
			e.combat.ResolveDamage(e)
		}
	case rules.StepCleanup:
		e.cleanupStep()
	}
}

// untapQuery adapts engine state to untap condition evaluation.
type untapQuery struct{ e *Engine }

func (q untapQuery) CardExists(card rules.CardID) bool {
	return q.e.zones.InZone(card, ZoneBattlefield)
}

func (q untapQuery) Controls(player rules.PlayerID, card rules.CardID) bool {
	c, ok := q.e.lookupCard(card)
	return ok && c.Controller == player && q.e.zones.InZone(card, ZoneBattlefield)
}

func (q untapQuery) Life(player rules.PlayerID) int {
	p, ok := q.e.player(player)
	if !ok {
		return 0
	}
	return p.Life
}

// untapStep clears summoning sickness and untaps the active player's
// permanents, honoring any untap conditions they carry. Conditions that
// apply only to a single untap step fall off afterwards.
func (e *Engine) untapStep() {
	active := e.turn.ActivePlayer()
	query := untapQuery{e: e}
	for _, id := range e.zones.Cards(active, ZoneBattlefield) {
		c, ok := e.lookupCard(id)
		if !ok || c.Perm == nil {
			continue
		}
		c.Perm.SummoningSickness = false

		prevented := false
		kept := c.Perm.UntapConditions[:0]
		for _, cond := range c.Perm.UntapConditions {
			if cond.PreventsUntap(c.Controller, query) {
				prevented = true
				if cond.Expired() {
					continue
				}
			}
			kept = append(kept, cond)
		}
		c.Perm.UntapConditions = kept

		if c.Perm.Tapped && !prevented {
			c.Perm.Tapped = false
			e.bus.Publish(rules.Event{Type: rules.EventUntapped, Card: id, Player: active})
		} else if c.Perm.Tapped {
			e.logger.Debug("untap prevented",
				zap.String("card", id.String()),
				zap.String("player", active.String()))
		}
	}
}

// cleanupStep wears off damage and empties all mana pools.
func (e *Engine) cleanupStep() {
	for _, seat := range e.seats {
		p, ok := e.player(seat)
		if !ok || p.Eliminated {
			continue
		}
		p.Pool.Empty()
		for _, id := range e.zones.Cards(seat, ZoneBattlefield) {
			if c, ok := e.lookupCard(id); ok && c.Perm != nil {
				c.Perm.Damage = 0
				c.Perm.DeathtouchDamaged = false
				for src := range c.Perm.DamageBySource {
					delete(c.Perm.DamageBySource, src)
				}
			}
		}
	}
}
