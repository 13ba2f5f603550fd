package game

import (
	"fmt"
	"strings"

	"github.com/opencommander/commander-engine-go/internal/game/counters"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// CardType is a bitflag set of card types. A card may carry several
// types at once, e.g. an artifact creature.
type CardType uint16

const (
	TypeLand CardType = 1 << iota
	TypeCreature
	TypeArtifact
	TypeEnchantment
	TypePlaneswalker
	TypeInstant
	TypeSorcery
	TypeBattle
)

// cardTypeOrder fixes the canonical display order for type lines.
var cardTypeOrder = []struct {
	t    CardType
	name string
}{
	{TypeLand, "Land"},
	{TypeCreature, "Creature"},
	{TypeArtifact, "Artifact"},
	{TypeEnchantment, "Enchantment"},
	{TypePlaneswalker, "Planeswalker"},
	{TypeBattle, "Battle"},
	{TypeInstant, "Instant"},
	{TypeSorcery, "Sorcery"},
}

// Has reports whether the set includes the given type.
func (ct CardType) Has(t CardType) bool { return ct&t != 0 }

// IsPermanentType reports whether a card of these types becomes a
// permanent when it resolves.
func (ct CardType) IsPermanentType() bool {
	return ct&(TypeInstant|TypeSorcery) == 0 && ct != 0
}

// String renders the types in canonical order, space separated.
func (ct CardType) String() string {
	var parts []string
	for _, entry := range cardTypeOrder {
		if ct.Has(entry.t) {
			parts = append(parts, entry.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, " ")
}

// SuperType is a bitflag set of supertypes.
type SuperType uint8

const (
	SuperBasic SuperType = 1 << iota
	SuperLegendary
	SuperSnow
)

// Has reports whether the set includes the given supertype.
func (st SuperType) Has(s SuperType) bool { return st&s != 0 }

// Ability is a bitflag set of static keyword abilities.
type Ability uint16

const (
	AbilityFlash Ability = 1 << iota
	AbilityFlying
	AbilityFirstStrike
	AbilityDoubleStrike
	AbilityVigilance
	AbilityHaste
	AbilityTrample
	AbilityDeathtouch
	AbilityReach
	AbilityDefender
	AbilityLifelink
)

// Has reports whether the set includes the given ability.
func (a Ability) Has(ab Ability) bool { return a&ab != 0 }

// CardDefinition is the immutable printed face of a card. Runtime state
// lives on Card and PermanentState.
type CardDefinition struct {
	Name       string
	Types      CardType
	SuperTypes SuperType
	Subtypes   []string
	Cost       mana.Cost
	Power      int
	Toughness  int
	Abilities  Ability
	Produces   mana.ColorSet
	Text       string
}

// NewCardDefinition validates and builds a definition. Every card needs
// a name and at least one type; every nonland card needs a mana cost.
func NewCardDefinition(name, costStr string, types CardType, opts ...CardOption) (*CardDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("card definition missing name")
	}
	if types == 0 {
		return nil, fmt.Errorf("card %q has no types", name)
	}
	cost, err := mana.ParseCost(costStr)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", name, err)
	}
	if !types.Has(TypeLand) && costStr == "" {
		return nil, fmt.Errorf("nonland card %q missing mana cost", name)
	}
	def := &CardDefinition{Name: name, Types: types, Cost: cost}
	for _, opt := range opts {
		opt(def)
	}
	return def, nil
}

// CardOption configures optional definition fields.
type CardOption func(*CardDefinition)

// WithPT sets printed power and toughness.
func WithPT(power, toughness int) CardOption {
	return func(d *CardDefinition) {
		d.Power = power
		d.Toughness = toughness
	}
}

// WithAbilities sets the static keyword abilities.
func WithAbilities(a Ability) CardOption {
	return func(d *CardDefinition) { d.Abilities = a }
}

// WithSuperTypes sets the supertypes.
func WithSuperTypes(s SuperType) CardOption {
	return func(d *CardDefinition) { d.SuperTypes = s }
}

// WithSubtypes sets the subtype line.
func WithSubtypes(subtypes ...string) CardOption {
	return func(d *CardDefinition) { d.Subtypes = subtypes }
}

// WithManaProduction marks the colors the card can tap for.
func WithManaProduction(cs mana.ColorSet) CardOption {
	return func(d *CardDefinition) { d.Produces = cs }
}

// WithText sets the rules text.
func WithText(text string) CardOption {
	return func(d *CardDefinition) { d.Text = text }
}

// ColorIdentity returns the card's color identity from its cost.
func (d *CardDefinition) ColorIdentity() mana.ColorSet {
	return d.Cost.Colors()
}

// PermanentState is the battlefield-only state of a card. It is nil
// while the card sits in any other zone.
type PermanentState struct {
	Tapped            bool
	SummoningSickness bool
	TurnEntered       int
	Damage            int
	DamageBySource    map[rules.CardID]int
	DeathtouchDamaged bool
	Counters          counters.Counters
	UntapConditions   []rules.UntapCondition
	AttachedTo        rules.CardID
	Attachments       []rules.CardID
}

func newPermanentState(turn int, sick bool) *PermanentState {
	return &PermanentState{
		SummoningSickness: sick,
		TurnEntered:       turn,
		DamageBySource:    make(map[rules.CardID]int),
		Counters:          counters.New(),
	}
}

// Card is a card instance inside a game.
type Card struct {
	ID         rules.CardID
	Def        *CardDefinition
	Owner      rules.PlayerID
	Controller rules.PlayerID
	Commander  bool
	Perm       *PermanentState
}

// Name returns the printed card name.
func (c *Card) Name() string { return c.Def.Name }

// IsType reports whether the card has the given type.
func (c *Card) IsType(t CardType) bool { return c.Def.Types.Has(t) }

// HasAbility reports whether the card has the given static ability.
func (c *Card) HasAbility(a Ability) bool { return c.Def.Abilities.Has(a) }

// EffectivePower returns printed power plus counter boosts.
func (c *Card) EffectivePower() int {
	power := c.Def.Power
	if c.Perm != nil {
		dp, _ := c.Perm.Counters.Boost()
		power += dp
	}
	return power
}

// EffectiveToughness returns printed toughness plus counter boosts.
func (c *Card) EffectiveToughness() int {
	toughness := c.Def.Toughness
	if c.Perm != nil {
		_, dt := c.Perm.Counters.Boost()
		toughness += dt
	}
	return toughness
}

// CanAttack reports whether the creature could be declared as an
// attacker this turn: untapped, not a defender, and free of summoning
// sickness unless it has haste.
func (c *Card) CanAttack() bool {
	if c.Perm == nil || !c.IsType(TypeCreature) {
		return false
	}
	if c.Perm.Tapped || c.HasAbility(AbilityDefender) {
		return false
	}
	if c.Perm.SummoningSickness && !c.HasAbility(AbilityHaste) {
		return false
	}
	return true
}

// CanBlock reports whether the creature could be declared as a blocker.
func (c *Card) CanBlock() bool {
	return c.Perm != nil && c.IsType(TypeCreature) && !c.Perm.Tapped
}

// CanBlockAttacker applies evasion: flying is only blocked by flying or
// reach.
func (c *Card) CanBlockAttacker(attacker *Card) bool {
	if !c.CanBlock() {
		return false
	}
	if attacker.HasAbility(AbilityFlying) &&
		!c.HasAbility(AbilityFlying) && !c.HasAbility(AbilityReach) {
		return false
	}
	return true
}
