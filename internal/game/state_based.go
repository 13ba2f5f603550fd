package game

import (
	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

type elimination struct {
	player rules.PlayerID
	reason rules.EliminationReason
	source rules.CardID
}

// runStateBasedActions performs one sweep of the state-based checks and
// reports whether anything happened. The caller loops until a sweep
// changes nothing. Decisions are gathered from a consistent view of the
// state before any of them is applied, so one sweep's effects cannot
// feed its own checks.
func (e *Engine) runStateBasedActions() bool {
	var eliminations []elimination
	var deaths []rules.CardID

	for _, seat := range e.activeSeats() {
		p, ok := e.player(seat)
		if !ok {
			continue
		}
		switch {
		case p.Life <= 0:
			eliminations = append(eliminations, elimination{player: seat, reason: rules.ReasonLifeLoss})
		case p.DrewFromEmptyLibrary:
			eliminations = append(eliminations, elimination{player: seat, reason: rules.ReasonEmptyLibrary})
		case e.cfg.CommanderDamageEnabled:
			if cmdr, hit := e.commanders.OffendingCommander(seat, e.cfg.CommanderDamageThreshold); hit {
				eliminations = append(eliminations, elimination{
					player: seat,
					reason: rules.ReasonCommanderDamage,
					source: cmdr,
				})
			}
		}

		for _, id := range e.zones.Cards(seat, ZoneBattlefield) {
			c, ok := e.lookupCard(id)
			if !ok || c.Perm == nil || !c.IsType(TypeCreature) {
				continue
			}
			toughness := c.EffectiveToughness()
			if toughness <= 0 || c.Perm.Damage >= toughness || c.Perm.DeathtouchDamaged {
				deaths = append(deaths, id)
			}
		}
	}

	for _, id := range deaths {
		if err := e.moveCard(id, ZoneGraveyard); err != nil {
			e.logger.Error("state-based destruction failed",
				zap.String("card", id.String()), zap.Error(err))
		}
	}
	for _, el := range eliminations {
		e.eliminate(el.player, el.reason, el.source)
	}

	performed := len(deaths) > 0 || len(eliminations) > 0
	if performed {
		e.bus.Publish(rules.Event{
			Type:   rules.EventStateBasedActions,
			Amount: len(deaths) + len(eliminations),
		})
	}
	return performed
}
