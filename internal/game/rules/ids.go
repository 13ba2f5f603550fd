package rules

import "github.com/opencommander/commander-engine-go/internal/entity"

// PlayerID identifies a player. It is an arena handle, so stale
// references from earlier ticks are detectable.
type PlayerID entity.Handle

// IsZero returns true for the invalid zero ID.
func (id PlayerID) IsZero() bool {
	return entity.Handle(id).IsZero()
}

func (id PlayerID) String() string {
	if id.IsZero() {
		return "player-nil"
	}
	return "p" + entity.Handle(id).String()[1:]
}

// CardID identifies a card across all zones.
type CardID entity.Handle

// IsZero returns true for the invalid zero ID.
func (id CardID) IsZero() bool {
	return entity.Handle(id).IsZero()
}

func (id CardID) String() string {
	if id.IsZero() {
		return "card-nil"
	}
	return "c" + entity.Handle(id).String()[1:]
}
