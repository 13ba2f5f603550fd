package game

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// Zone identifies one of the game's zones.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneLibrary
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
	ZoneExile
	ZoneStack
	ZoneCommand
)

var zoneNames = map[Zone]string{
	ZoneNone:        "none",
	ZoneLibrary:     "library",
	ZoneHand:        "hand",
	ZoneBattlefield: "battlefield",
	ZoneGraveyard:   "graveyard",
	ZoneExile:       "exile",
	ZoneStack:       "stack",
	ZoneCommand:     "command",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// IsVisible reports whether cards in the zone are public information.
func (z Zone) IsVisible() bool {
	switch z {
	case ZoneLibrary, ZoneHand:
		return false
	default:
		return true
	}
}

// zoneKey addresses one player's instance of a zone. Every zone here is
// tracked per owner, including the shared-feeling battlefield, so that
// ownership queries stay cheap.
type zoneKey struct {
	owner rules.PlayerID
	zone  Zone
}

// cardLocation is the reverse index entry for a card.
type cardLocation struct {
	owner rules.PlayerID
	zone  Zone
}

// ZoneManager owns all card placement. Cards live in exactly one zone
// at a time; moves go through MoveCard so the reverse index, ordering,
// and zone-change events stay consistent.
type ZoneManager struct {
	mu       sync.Mutex
	contents map[zoneKey][]rules.CardID
	index    map[rules.CardID]cardLocation
	bus      *rules.EventBus
	logger   *zap.Logger
}

// NewZoneManager returns an empty zone manager.
func NewZoneManager(bus *rules.EventBus, logger *zap.Logger) *ZoneManager {
	return &ZoneManager{
		contents: make(map[zoneKey][]rules.CardID),
		index:    make(map[rules.CardID]cardLocation),
		bus:      bus,
		logger:   logger,
	}
}

// Place puts a card into a zone without treating it as a move. Used
// during game setup for libraries and command zones.
func (zm *ZoneManager) Place(card rules.CardID, owner rules.PlayerID, zone Zone) {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	zm.detachLocked(card)
	key := zoneKey{owner: owner, zone: zone}
	zm.contents[key] = append(zm.contents[key], card)
	zm.index[card] = cardLocation{owner: owner, zone: zone}
}

// MoveCard moves a card between zones on behalf of a player and emits a
// zone-change event. If the reverse index disagrees with the zone
// contents the mismatch is logged and repaired before the move is
// applied; the move itself still happens.
func (zm *ZoneManager) MoveCard(card rules.CardID, owner rules.PlayerID, to Zone) (from Zone, err error) {
	zm.mu.Lock()
	loc, ok := zm.index[card]
	if !ok {
		zm.mu.Unlock()
		return ZoneNone, fmt.Errorf("card %s is not in any zone", card)
	}
	from = loc.zone
	if !zm.removeFromLocked(zoneKey{owner: loc.owner, zone: loc.zone}, card) {
		// Index said one thing, zone contents another. Repair by
		// scanning all zones for the stray entry, then proceed.
		zm.logger.Warn("zone index mismatch, repairing",
			zap.String("card", card.String()),
			zap.String("indexed_zone", loc.zone.String()))
		for key := range zm.contents {
			if zm.removeFromLocked(key, card) {
				from = key.zone
				break
			}
		}
	}
	key := zoneKey{owner: owner, zone: to}
	zm.contents[key] = append(zm.contents[key], card)
	zm.index[card] = cardLocation{owner: owner, zone: to}
	zm.mu.Unlock()

	zm.bus.Publish(rules.Event{
		Type:       rules.EventZoneChange,
		Card:       card,
		Player:     owner,
		FromZone:   int(from),
		ToZone:     int(to),
		WasVisible: from.IsVisible(),
		IsVisible:  to.IsVisible(),
	})
	return from, nil
}

// ZoneOf returns the current zone and owner of a card.
func (zm *ZoneManager) ZoneOf(card rules.CardID) (Zone, rules.PlayerID, bool) {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	loc, ok := zm.index[card]
	if !ok {
		return ZoneNone, rules.PlayerID{}, false
	}
	return loc.zone, loc.owner, true
}

// InZone reports whether the card currently sits in the given zone.
func (zm *ZoneManager) InZone(card rules.CardID, zone Zone) bool {
	z, _, ok := zm.ZoneOf(card)
	return ok && z == zone
}

// Cards returns the ordered contents of a player's zone. The returned
// slice is a copy.
func (zm *ZoneManager) Cards(owner rules.PlayerID, zone Zone) []rules.CardID {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	src := zm.contents[zoneKey{owner: owner, zone: zone}]
	out := make([]rules.CardID, len(src))
	copy(out, src)
	return out
}

// Count returns the number of cards in a player's zone.
func (zm *ZoneManager) Count(owner rules.PlayerID, zone Zone) int {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	return len(zm.contents[zoneKey{owner: owner, zone: zone}])
}

// Top returns the top card of a player's library.
func (zm *ZoneManager) Top(owner rules.PlayerID, zone Zone) (rules.CardID, bool) {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	src := zm.contents[zoneKey{owner: owner, zone: zone}]
	if len(src) == 0 {
		return rules.CardID{}, false
	}
	return src[len(src)-1], true
}

// RemoveAll empties a player's zone and returns what it held. Used when
// a player leaves the game.
func (zm *ZoneManager) RemoveAll(owner rules.PlayerID, zone Zone) []rules.CardID {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	key := zoneKey{owner: owner, zone: zone}
	cards := zm.contents[key]
	delete(zm.contents, key)
	for _, card := range cards {
		delete(zm.index, card)
	}
	return cards
}

func (zm *ZoneManager) detachLocked(card rules.CardID) {
	if loc, ok := zm.index[card]; ok {
		zm.removeFromLocked(zoneKey{owner: loc.owner, zone: loc.zone}, card)
		delete(zm.index, card)
	}
}

func (zm *ZoneManager) removeFromLocked(key zoneKey, card rules.CardID) bool {
	cards := zm.contents[key]
	for i, id := range cards {
		if id == card {
			zm.contents[key] = append(cards[:i], cards[i+1:]...)
			return true
		}
	}
	return false
}
