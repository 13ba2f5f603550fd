package rules

// UntapConditionKind enumerates the closed set of "doesn't untap"
// conditions a permanent may carry.
type UntapConditionKind int

const (
	// UntapUnconditional never untaps.
	UntapUnconditional UntapConditionKind = iota
	// UntapNextUntapOnly skips exactly one untap step; the caller removes
	// the condition after it fires.
	UntapNextUntapOnly
	// UntapWhileExists skips untap while the referenced card exists.
	UntapWhileExists
	// UntapWhileControlling skips untap while the permanent's controller
	// controls the referenced card.
	UntapWhileControlling
	// UntapWhileLifeBelow skips untap while the controller's life total is
	// below the threshold.
	UntapWhileLifeBelow
	// UntapCustom carries free text the engine cannot evaluate; it is
	// treated as preventing untap.
	UntapCustom
)

func (k UntapConditionKind) String() string {
	switch k {
	case UntapUnconditional:
		return "UNCONDITIONAL"
	case UntapNextUntapOnly:
		return "NEXT_UNTAP_ONLY"
	case UntapWhileExists:
		return "WHILE_EXISTS"
	case UntapWhileControlling:
		return "WHILE_CONTROLLING"
	case UntapWhileLifeBelow:
		return "WHILE_LIFE_BELOW"
	case UntapCustom:
		return "CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// UntapCondition is a tagged variant; only the fields relevant to Kind
// are meaningful.
type UntapCondition struct {
	Kind      UntapConditionKind
	Ref       CardID
	LifeBelow int
	Text      string
}

// UntapQuery supplies the state an untap condition is evaluated against.
type UntapQuery interface {
	CardExists(card CardID) bool
	Controls(player PlayerID, card CardID) bool
	Life(player PlayerID) int
}

// PreventsUntap evaluates the condition for a permanent controlled by the
// given player. It is a pure match over current state.
func (c UntapCondition) PreventsUntap(controller PlayerID, q UntapQuery) bool {
	switch c.Kind {
	case UntapUnconditional:
		return true
	case UntapNextUntapOnly:
		return true
	case UntapWhileExists:
		return q.CardExists(c.Ref)
	case UntapWhileControlling:
		return q.Controls(controller, c.Ref)
	case UntapWhileLifeBelow:
		return q.Life(controller) < c.LifeBelow
	case UntapCustom:
		return true
	default:
		return false
	}
}

// Expired reports whether the condition should be dropped after an untap
// step in which it applied.
func (c UntapCondition) Expired() bool {
	return c.Kind == UntapNextUntapOnly
}
