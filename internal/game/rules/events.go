package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn structure events
	EventBeginTurn    EventType = "BEGIN_TURN"
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventStepChanged  EventType = "STEP_CHANGED"

	// Zone events
	EventZoneChange EventType = "ZONE_CHANGE"

	// Card events
	EventDrawCard   EventType = "DRAW_CARD"
	EventLandPlayed EventType = "LAND_PLAYED"
	EventSpellCast  EventType = "SPELL_CAST"

	// Untap/tap events
	EventTapped   EventType = "TAPPED"
	EventUntapped EventType = "UNTAPPED"

	// Stack events
	EventAbilityActivated  EventType = "ABILITY_ACTIVATED"
	EventStackItemResolved EventType = "STACK_ITEM_RESOLVED"
	EventStackItemRemoved  EventType = "STACK_ITEM_REMOVED"

	// Combat events
	EventAttackerDeclared EventType = "ATTACKER_DECLARED"
	EventBlockerDeclared  EventType = "BLOCKER_DECLARED"
	EventCombatDamage     EventType = "COMBAT_DAMAGE"

	// Commander events
	EventCommanderCast     EventType = "COMMANDER_CAST"
	EventCommanderRedirect EventType = "COMMANDER_REDIRECT"

	// Player events
	EventPlayerEliminated EventType = "PLAYER_ELIMINATED"
	EventGameOver         EventType = "GAME_OVER"

	// State-based actions event
	EventStateBasedActions EventType = "STATE_BASED_ACTIONS"
)

// EliminationReason explains why a player left the game.
type EliminationReason string

const (
	ReasonLifeLoss        EliminationReason = "LIFE_LOSS"
	ReasonEmptyLibrary    EliminationReason = "EMPTY_LIBRARY"
	ReasonCommanderDamage EliminationReason = "COMMANDER_DAMAGE"
	ReasonConcede         EliminationReason = "CONCEDE"
	ReasonCardEffect      EliminationReason = "CARD_EFFECT"
)

// Event represents a state change that collaborators may react to.
// Fields are populated per type; unused fields hold zero values.
type Event struct {
	Type       EventType
	ID         string
	Card       CardID
	Source     CardID
	Player     PlayerID
	Controller PlayerID
	Amount     int

	// Zone change fields
	FromZone   int
	ToZone     int
	WasVisible bool
	IsVisible  bool

	// Combat damage fields
	CombatDamage  bool
	FromCommander bool

	// Elimination fields
	Reason EliminationReason

	Description string
	Timestamp   time.Time
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// type filtering. Delivery is in-order within a publish.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	if typed, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typed {
			listener.Callback(event)
		}
	}
}

// EventLog records events in emission order for once-per-tick draining.
// Consumers see events in exactly the order they were produced; there is
// no reordering or priority queue here.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewEventLog creates an empty log and subscribes it to the bus.
func NewEventLog(bus *EventBus) *EventLog {
	log := &EventLog{}
	bus.Subscribe(log.record)
	return log
}

func (l *EventLog) record(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Drain returns all recorded events in order and clears the log.
func (l *EventLog) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

// Len returns the number of pending events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
