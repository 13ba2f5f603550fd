package game

import (
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// Player is one seat in the game.
type Player struct {
	ID   rules.PlayerID
	Name string
	Life int

	// LandsPlayed counts land drops this turn; it resets when the
	// player's turn begins.
	LandsPlayed int

	// CardsDrawn counts draws this turn, for all seats. Resets on turn
	// wrap.
	CardsDrawn int

	// DrewFromEmptyLibrary flags a failed draw. State-based actions
	// eliminate the player on the next sweep.
	DrewFromEmptyLibrary bool

	Eliminated bool
	Pool       *mana.Pool
}

// Config holds the rule knobs for a game.
type Config struct {
	StartingLife             int
	CommanderDamageThreshold int
	LandLimit                int
	CommanderTaxStep         int
	CommanderDamageEnabled   bool
}

// DefaultConfig returns the standard multiplayer commander settings.
func DefaultConfig() Config {
	return Config{
		StartingLife:             40,
		CommanderDamageThreshold: 21,
		LandLimit:                1,
		CommanderTaxStep:         2,
		CommanderDamageEnabled:   true,
	}
}
