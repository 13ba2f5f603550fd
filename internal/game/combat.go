package game

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// PlayerDamageSink receives combat damage dealt to players and lifelink
// gains. The engine implements it over its player table.
type PlayerDamageSink interface {
	DealCombatDamage(player rules.PlayerID, amount int, source rules.CardID, fromCommander bool)
	GainLife(player rules.PlayerID, amount int)
}

// damageAssignment is one buffered packet of combat damage. All
// assignments for a pass are computed from a consistent snapshot of the
// combat state before any of them is applied, so simultaneous damage
// cannot observe its own effects.
type damageAssignment struct {
	source       rules.CardID
	targetCard   rules.CardID
	targetPlayer rules.PlayerID
	amount       int
	deathtouch   bool
	lifelink     bool
	controller   rules.PlayerID
	commander    bool
}

// CombatManager owns one combat's attacker and blocker declarations and
// the two-pass damage resolution. State is cleared unconditionally when
// combat ends, even if damage never happened.
type CombatManager struct {
	mu         sync.Mutex
	attackers  map[rules.CardID]rules.PlayerID
	attackOrd  []rules.CardID
	blockers   map[rules.CardID][]rules.CardID
	blockerOf  map[rules.CardID]rules.CardID
	blocked    map[rules.CardID]bool
	damageStep int

	lookup     func(rules.CardID) (*Card, bool)
	commanders *CommanderTracker
	bus        *rules.EventBus
	logger     *zap.Logger
}

// NewCombatManager builds a combat manager over the given card lookup.
func NewCombatManager(lookup func(rules.CardID) (*Card, bool), commanders *CommanderTracker, bus *rules.EventBus, logger *zap.Logger) *CombatManager {
	cm := &CombatManager{
		lookup:     lookup,
		commanders: commanders,
		bus:        bus,
		logger:     logger,
	}
	cm.reset()
	return cm
}

func (cm *CombatManager) reset() {
	cm.attackers = make(map[rules.CardID]rules.PlayerID)
	cm.attackOrd = nil
	cm.blockers = make(map[rules.CardID][]rules.CardID)
	cm.blockerOf = make(map[rules.CardID]rules.CardID)
	cm.blocked = make(map[rules.CardID]bool)
	cm.damageStep = 0
}

// DeclareAttacker validates and records an attack against a player.
// The attacker taps unless it has vigilance.
func (cm *CombatManager) DeclareAttacker(attacker rules.CardID, defender rules.PlayerID) error {
	card, ok := cm.lookup(attacker)
	if !ok {
		return fmt.Errorf("attacker %s not found", attacker)
	}
	if card.Controller == defender {
		return fmt.Errorf("%s cannot attack its own controller", card.Name())
	}
	if !card.CanAttack() {
		return fmt.Errorf("%s cannot attack", card.Name())
	}

	cm.mu.Lock()
	if _, dup := cm.attackers[attacker]; dup {
		cm.mu.Unlock()
		return fmt.Errorf("%s is already attacking", card.Name())
	}
	cm.attackers[attacker] = defender
	cm.attackOrd = append(cm.attackOrd, attacker)
	cm.mu.Unlock()

	if !card.HasAbility(AbilityVigilance) {
		card.Perm.Tapped = true
		cm.bus.Publish(rules.Event{Type: rules.EventTapped, Card: attacker, Player: card.Controller})
	}
	cm.bus.Publish(rules.Event{
		Type:       rules.EventAttackerDeclared,
		Card:       attacker,
		Player:     defender,
		Controller: card.Controller,
	})
	return nil
}

// DeclareBlocker validates and records a block. A creature blocks at
// most one attacker; an attacker may be blocked by several creatures.
func (cm *CombatManager) DeclareBlocker(blocker, attacker rules.CardID) error {
	blockerCard, ok := cm.lookup(blocker)
	if !ok {
		return fmt.Errorf("blocker %s not found", blocker)
	}
	attackerCard, ok := cm.lookup(attacker)
	if !ok {
		return fmt.Errorf("attacker %s not found", attacker)
	}

	cm.mu.Lock()
	defender, attacking := cm.attackers[attacker]
	cm.mu.Unlock()
	if !attacking {
		return fmt.Errorf("%s is not attacking", attackerCard.Name())
	}
	if blockerCard.Controller != defender {
		return fmt.Errorf("%s is not controlled by the defending player", blockerCard.Name())
	}
	if !blockerCard.CanBlockAttacker(attackerCard) {
		return fmt.Errorf("%s cannot block %s", blockerCard.Name(), attackerCard.Name())
	}

	cm.mu.Lock()
	if _, dup := cm.blockerOf[blocker]; dup {
		cm.mu.Unlock()
		return fmt.Errorf("%s is already blocking", blockerCard.Name())
	}
	cm.blockers[attacker] = append(cm.blockers[attacker], blocker)
	cm.blockerOf[blocker] = attacker
	cm.blocked[attacker] = true
	cm.mu.Unlock()

	cm.bus.Publish(rules.Event{
		Type:       rules.EventBlockerDeclared,
		Card:       blocker,
		Source:     attacker,
		Controller: blockerCard.Controller,
	})
	return nil
}

// InCombat reports whether any attack has been declared.
func (cm *CombatManager) InCombat() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.attackers) > 0
}

// Attackers returns the declared attackers in declaration order.
func (cm *CombatManager) Attackers() []rules.CardID {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	out := make([]rules.CardID, len(cm.attackOrd))
	copy(out, cm.attackOrd)
	return out
}

// BlockersOf returns the blockers assigned to an attacker, in order.
func (cm *CombatManager) BlockersOf(attacker rules.CardID) []rules.CardID {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	src := cm.blockers[attacker]
	out := make([]rules.CardID, len(src))
	copy(out, src)
	return out
}

// RemoveFromCombat drops a creature from combat. Called when a
// participant leaves the battlefield between damage passes.
func (cm *CombatManager) RemoveFromCombat(card rules.CardID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.attackers[card]; ok {
		delete(cm.attackers, card)
		for i, id := range cm.attackOrd {
			if id == card {
				cm.attackOrd = append(cm.attackOrd[:i], cm.attackOrd[i+1:]...)
				break
			}
		}
		for _, blocker := range cm.blockers[card] {
			delete(cm.blockerOf, blocker)
		}
		delete(cm.blockers, card)
		delete(cm.blocked, card)
		return
	}
	if attacker, ok := cm.blockerOf[card]; ok {
		delete(cm.blockerOf, card)
		assigned := cm.blockers[attacker]
		for i, id := range assigned {
			if id == card {
				cm.blockers[attacker] = append(assigned[:i], assigned[i+1:]...)
				break
			}
		}
	}
}

// HasFirstStrikePass reports whether any combat participant has first
// strike or double strike, requiring a separate early damage pass.
func (cm *CombatManager) HasFirstStrikePass() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for attacker := range cm.attackers {
		if cm.strikesFirst(attacker) {
			return true
		}
		for _, blocker := range cm.blockers[attacker] {
			if cm.strikesFirst(blocker) {
				return true
			}
		}
	}
	return false
}

func (cm *CombatManager) strikesFirst(id rules.CardID) bool {
	card, ok := cm.lookup(id)
	return ok && (card.HasAbility(AbilityFirstStrike) || card.HasAbility(AbilityDoubleStrike))
}

// dealsInPass reports whether a creature deals damage in the given pass.
// Double strike deals in both passes.
func (cm *CombatManager) dealsInPass(id rules.CardID, firstStrike bool) bool {
	card, ok := cm.lookup(id)
	if !ok {
		return false
	}
	if card.HasAbility(AbilityDoubleStrike) {
		return true
	}
	if firstStrike {
		return card.HasAbility(AbilityFirstStrike)
	}
	return !card.HasAbility(AbilityFirstStrike)
}

// ResolveDamage runs the next damage pass: the first-strike pass when
// one is due, otherwise the regular pass. It reports whether a pass was
// applied; once both passes are spent it applies nothing and returns
// false. All assignments are buffered before any is applied.
func (cm *CombatManager) ResolveDamage(sink PlayerDamageSink) bool {
	cm.mu.Lock()
	if cm.damageStep >= 2 {
		cm.mu.Unlock()
		return false
	}
	firstStrike := cm.damageStep == 0
	if firstStrike && !cm.hasFirstStrikeLocked() {
		// No early pass needed; the single pass is the regular one.
		firstStrike = false
		cm.damageStep = 1
	}
	cm.damageStep++
	assignments := cm.computeAssignmentsLocked(firstStrike)
	cm.mu.Unlock()

	cm.apply(assignments, sink)
	return true
}

func (cm *CombatManager) hasFirstStrikeLocked() bool {
	for attacker := range cm.attackers {
		if cm.strikesFirst(attacker) {
			return true
		}
		for _, blocker := range cm.blockers[attacker] {
			if cm.strikesFirst(blocker) {
				return true
			}
		}
	}
	return false
}

// computeAssignmentsLocked snapshots one pass of combat damage. Blocked
// attackers split power evenly across blockers, dropping the remainder
// unless the attacker has trample, in which case the remainder carries
// over to the defending player.
func (cm *CombatManager) computeAssignmentsLocked(firstStrike bool) []damageAssignment {
	var out []damageAssignment
	for _, attacker := range cm.attackOrd {
		card, ok := cm.lookup(attacker)
		if !ok {
			continue
		}
		defender := cm.attackers[attacker]
		blockers := cm.blockers[attacker]

		if cm.dealsInPass(attacker, firstStrike) {
			power := card.EffectivePower()
			if power > 0 {
				switch {
				case len(blockers) == 0 && !cm.blocked[attacker]:
					out = append(out, damageAssignment{
						source:       attacker,
						targetPlayer: defender,
						amount:       power,
						lifelink:     card.HasAbility(AbilityLifelink),
						controller:   card.Controller,
						commander:    card.Commander,
					})
				case len(blockers) == 0:
					// Blocked, but every blocker has left combat.
					// Trample pushes the full power through; anything
					// else deals no damage.
					if card.HasAbility(AbilityTrample) {
						out = append(out, damageAssignment{
							source:       attacker,
							targetPlayer: defender,
							amount:       power,
							lifelink:     card.HasAbility(AbilityLifelink),
							controller:   card.Controller,
							commander:    card.Commander,
						})
					}
				default:
					share := power / len(blockers)
					for _, blocker := range blockers {
						if share > 0 {
							out = append(out, damageAssignment{
								source:     attacker,
								targetCard: blocker,
								amount:     share,
								deathtouch: card.HasAbility(AbilityDeathtouch),
								lifelink:   card.HasAbility(AbilityLifelink),
								controller: card.Controller,
							})
						}
					}
					if rem := power - share*len(blockers); rem > 0 && card.HasAbility(AbilityTrample) {
						out = append(out, damageAssignment{
							source:       attacker,
							targetPlayer: defender,
							amount:       rem,
							lifelink:     card.HasAbility(AbilityLifelink),
							controller:   card.Controller,
							commander:    card.Commander,
						})
					}
				}
			}
		}

		for _, blocker := range blockers {
			if !cm.dealsInPass(blocker, firstStrike) {
				continue
			}
			blockerCard, ok := cm.lookup(blocker)
			if !ok {
				continue
			}
			if power := blockerCard.EffectivePower(); power > 0 {
				out = append(out, damageAssignment{
					source:     blocker,
					targetCard: attacker,
					amount:     power,
					deathtouch: blockerCard.HasAbility(AbilityDeathtouch),
					lifelink:   blockerCard.HasAbility(AbilityLifelink),
					controller: blockerCard.Controller,
				})
			}
		}
	}
	return out
}

func (cm *CombatManager) apply(assignments []damageAssignment, sink PlayerDamageSink) {
	for _, a := range assignments {
		if !a.targetPlayer.IsZero() {
			sink.DealCombatDamage(a.targetPlayer, a.amount, a.source, a.commander)
			if a.commander {
				cm.commanders.AddCombatDamage(a.source, a.targetPlayer, a.amount)
			}
			cm.bus.Publish(rules.Event{
				Type:          rules.EventCombatDamage,
				Source:        a.source,
				Player:        a.targetPlayer,
				Amount:        a.amount,
				CombatDamage:  true,
				FromCommander: a.commander,
			})
		} else {
			target, ok := cm.lookup(a.targetCard)
			if !ok || target.Perm == nil {
				continue
			}
			target.Perm.Damage += a.amount
			target.Perm.DamageBySource[a.source] += a.amount
			if a.deathtouch {
				target.Perm.DeathtouchDamaged = true
			}
			cm.bus.Publish(rules.Event{
				Type:         rules.EventCombatDamage,
				Source:       a.source,
				Card:         a.targetCard,
				Amount:       a.amount,
				CombatDamage: true,
			})
		}
		if a.lifelink {
			sink.GainLife(a.controller, a.amount)
		}
	}
}

// EndCombat clears every declaration and the damage pass counter. It is
// safe to call whether or not combat happened.
func (cm *CombatManager) EndCombat() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reset()
}
