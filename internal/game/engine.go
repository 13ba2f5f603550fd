package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/entity"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// NotificationHandler receives drained events, typically to forward
// them to connected clients.
type NotificationHandler func([]rules.Event)

// Engine is one running game. All mutation goes through Submit and
// Tick; reads are safe from any goroutine.
type Engine struct {
	mu     sync.Mutex
	id     string
	cfg    Config
	logger *zap.Logger

	bus      *rules.EventBus
	eventLog *rules.EventLog

	players *entity.Arena[*Player]
	cards   *entity.Arena[*Card]
	seats   []rules.PlayerID

	zones      *ZoneManager
	turn       *rules.TurnManager
	priority   *rules.PriorityTracker
	stack      *rules.StackManager
	combat     *CombatManager
	commanders *CommanderTracker

	started  bool
	gameOver bool
	winner   rules.PlayerID

	notify NotificationHandler
}

// NewEngine builds an engine with no players. The game does not run
// until Start is called.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		id:      uuid.New().String(),
		cfg:     cfg,
		logger:  logger,
		bus:     rules.NewEventBus(),
		players: entity.NewArena[*Player](),
		cards:   entity.NewArena[*Card](),
		stack:   rules.NewStackManager(),
	}
	e.eventLog = rules.NewEventLog(e.bus)
	e.zones = NewZoneManager(e.bus, logger)
	e.commanders = NewCommanderTracker(cfg.CommanderTaxStep)
	e.combat = NewCombatManager(e.lookupCard, e.commanders, e.bus, logger)
	return e
}

// ID returns the game's unique identifier.
func (e *Engine) ID() string { return e.id }

// SetNotificationHandler installs the sink for drained events.
func (e *Engine) SetNotificationHandler(fn NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = fn
}

// AddPlayer seats a player. Only valid before Start.
func (e *Engine) AddPlayer(name string) (rules.PlayerID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return rules.PlayerID{}, fmt.Errorf("game already started")
	}
	p := &Player{Name: name, Life: e.cfg.StartingLife, Pool: mana.NewPool()}
	id := rules.PlayerID(e.players.Insert(p))
	p.ID = id
	e.seats = append(e.seats, id)
	e.logger.Info("player seated", zap.String("player", id.String()), zap.String("name", name))
	return id, nil
}

// AddCard creates a card for a player and places it in a zone.
func (e *Engine) AddCard(def *CardDefinition, owner rules.PlayerID, zone Zone) (rules.CardID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.players.Get(entity.Handle(owner)); !ok {
		return rules.CardID{}, fmt.Errorf("unknown player %s", owner)
	}
	card := &Card{Def: def, Owner: owner, Controller: owner}
	id := rules.CardID(e.cards.Insert(card))
	card.ID = id
	e.zones.Place(id, owner, zone)
	if zone == ZoneBattlefield {
		card.Perm = newPermanentState(e.turnNumber(), card.IsType(TypeCreature))
	}
	return id, nil
}

// SetCommander designates a card as its owner's commander and moves it
// to the command zone.
func (e *Engine) SetCommander(card rules.CardID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.lookupCard(card)
	if !ok {
		return fmt.Errorf("unknown card %s", card)
	}
	if !c.Def.SuperTypes.Has(SuperLegendary) {
		return fmt.Errorf("%s is not legendary", c.Name())
	}
	if err := e.commanders.Register(card, c.Owner, c.Def.ColorIdentity()); err != nil {
		return err
	}
	c.Commander = true
	e.zones.Place(card, c.Owner, ZoneCommand)
	return nil
}

// Start begins the game with the first seated player active.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("game already started")
	}
	if len(e.seats) < 2 {
		return fmt.Errorf("need at least 2 players, have %d", len(e.seats))
	}
	first := e.seats[0]
	e.turn = rules.NewTurnManager(first)
	e.priority = rules.NewPriorityTracker(first)
	e.started = true
	e.bus.Publish(rules.Event{Type: rules.EventBeginTurn, Player: first, Amount: 1})
	e.logger.Info("game started",
		zap.String("game", e.id),
		zap.Int("players", len(e.seats)),
		zap.String("active", first.String()))
	// Walk through the empty untap step so the first player starts
	// with priority in the upkeep.
	e.enterStep()
	return nil
}

// Player returns the seat for an id.
func (e *Engine) Player(id rules.PlayerID) (*Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player(id)
}

func (e *Engine) player(id rules.PlayerID) (*Player, bool) {
	return e.players.Get(entity.Handle(id))
}

// Card returns the card instance for an id.
func (e *Engine) Card(id rules.CardID) (*Card, bool) {
	return e.lookupCard(id)
}

func (e *Engine) lookupCard(id rules.CardID) (*Card, bool) {
	return e.cards.Get(entity.Handle(id))
}

// Zones exposes the zone manager for read access.
func (e *Engine) Zones() *ZoneManager { return e.zones }

// Stack exposes the stack manager for read access.
func (e *Engine) Stack() *rules.StackManager { return e.stack }

// Combat exposes the combat manager for read access.
func (e *Engine) Combat() *CombatManager { return e.combat }

// Commanders exposes the commander tracker.
func (e *Engine) Commanders() *CommanderTracker { return e.commanders }

// Turn returns turn number, phase and step.
func (e *Engine) Turn() (int, rules.Phase, rules.Step) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.turn == nil {
		return 0, 0, 0
	}
	return e.turn.TurnNumber(), e.turn.CurrentPhase(), e.turn.CurrentStep()
}

// Started reports whether the game is running.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Seats returns all seated players in seat order, eliminated included.
func (e *Engine) Seats() []rules.PlayerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]rules.PlayerID, len(e.seats))
	copy(out, e.seats)
	return out
}

// ActivePlayer returns whose turn it is.
func (e *Engine) ActivePlayer() rules.PlayerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.turn == nil {
		return rules.PlayerID{}
	}
	return e.turn.ActivePlayer()
}

// PriorityHolder returns who holds priority.
func (e *Engine) PriorityHolder() rules.PlayerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.priority == nil {
		return rules.PlayerID{}
	}
	return e.priority.Holder()
}

// GameOver reports whether the game ended, and the winner if so.
func (e *Engine) GameOver() (bool, rules.PlayerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameOver, e.winner
}

func (e *Engine) turnNumber() int {
	if e.turn == nil {
		return 0
	}
	return e.turn.TurnNumber()
}

// activeSeats returns non-eliminated players in seat order.
func (e *Engine) activeSeats() []rules.PlayerID {
	out := make([]rules.PlayerID, 0, len(e.seats))
	for _, id := range e.seats {
		if p, ok := e.player(id); ok && !p.Eliminated {
			out = append(out, id)
		}
	}
	return out
}

// nextSeatAfter returns the next non-eliminated player after the given
// one in seat order.
func (e *Engine) nextSeatAfter(id rules.PlayerID) rules.PlayerID {
	n := len(e.seats)
	start := 0
	for i, seat := range e.seats {
		if seat == id {
			start = i
			break
		}
	}
	for i := 1; i <= n; i++ {
		candidate := e.seats[(start+i)%n]
		if p, ok := e.player(candidate); ok && !p.Eliminated {
			return candidate
		}
	}
	return rules.PlayerID{}
}

// DealCombatDamage applies combat damage to a player's life total.
func (e *Engine) DealCombatDamage(player rules.PlayerID, amount int, source rules.CardID, fromCommander bool) {
	p, ok := e.player(player)
	if !ok || p.Eliminated {
		return
	}
	p.Life -= amount
}

// GainLife raises a player's life total.
func (e *Engine) GainLife(player rules.PlayerID, amount int) {
	p, ok := e.player(player)
	if !ok || p.Eliminated {
		return
	}
	p.Life += amount
}

// moveCard is every zone transition's single entry point. Commanders
// leaving the battlefield or the stack for a graveyard or exile are
// redirected to the command zone; battlefield entry and exit maintain
// permanent state, combat membership, and commander cast counts.
func (e *Engine) moveCard(card rules.CardID, to Zone) error {
	c, ok := e.lookupCard(card)
	if !ok {
		return fmt.Errorf("unknown card %s", card)
	}
	cur, _, _ := e.zones.ZoneOf(card)
	if c.Commander && (cur == ZoneBattlefield || cur == ZoneStack) {
		if redirected, ok := RedirectZone(to); ok {
			e.bus.Publish(rules.Event{
				Type:     rules.EventCommanderRedirect,
				Card:     card,
				Player:   c.Owner,
				FromZone: int(to),
				ToZone:   int(redirected),
			})
			to = redirected
		}
	}
	from, err := e.zones.MoveCard(card, c.Owner, to)
	if err != nil {
		return err
	}
	if from == ZoneBattlefield && to != ZoneBattlefield {
		e.leaveBattlefield(c)
	}
	if to == ZoneBattlefield && from != ZoneBattlefield {
		c.Perm = newPermanentState(e.turnNumber(), c.IsType(TypeCreature))
		if c.Commander && from == ZoneStack {
			e.commanders.RecordBattlefieldEntry(card)
		}
	}
	return nil
}

// leaveBattlefield tears down battlefield-only state: attachments
// detach, combat forgets the creature, permanent state drops.
func (e *Engine) leaveBattlefield(c *Card) {
	if c.Perm == nil {
		return
	}
	for _, attached := range c.Perm.Attachments {
		if a, ok := e.lookupCard(attached); ok && a.Perm != nil {
			a.Perm.AttachedTo = rules.CardID{}
		}
	}
	if !c.Perm.AttachedTo.IsZero() {
		if host, ok := e.lookupCard(c.Perm.AttachedTo); ok && host.Perm != nil {
			for i, id := range host.Perm.Attachments {
				if id == c.ID {
					host.Perm.Attachments = append(host.Perm.Attachments[:i], host.Perm.Attachments[i+1:]...)
					break
				}
			}
		}
	}
	e.combat.RemoveFromCombat(c.ID)
	c.Perm = nil
}

// Attach puts an aura or equipment onto a host permanent.
func (e *Engine) Attach(attachment, host rules.CardID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.lookupCard(attachment)
	if !ok || a.Perm == nil {
		return fmt.Errorf("attachment %s is not on the battlefield", attachment)
	}
	h, ok := e.lookupCard(host)
	if !ok || h.Perm == nil {
		return fmt.Errorf("host %s is not on the battlefield", host)
	}
	if !a.Perm.AttachedTo.IsZero() {
		return fmt.Errorf("%s is already attached", a.Name())
	}
	a.Perm.AttachedTo = host
	h.Perm.Attachments = append(h.Perm.Attachments, attachment)
	return nil
}

// drawCard moves the top of the player's library to their hand. A draw
// from an empty library does not fail immediately; it flags the player
// for the next state-based sweep.
func (e *Engine) drawCard(player rules.PlayerID) {
	p, ok := e.player(player)
	if !ok || p.Eliminated {
		return
	}
	top, ok := e.zones.Top(player, ZoneLibrary)
	if !ok {
		p.DrewFromEmptyLibrary = true
		e.logger.Debug("draw from empty library", zap.String("player", player.String()))
		return
	}
	if err := e.moveCard(top, ZoneHand); err != nil {
		e.logger.Error("draw failed", zap.String("player", player.String()), zap.Error(err))
		return
	}
	p.CardsDrawn++
	e.bus.Publish(rules.Event{Type: rules.EventDrawCard, Player: player, Card: top})
}

// eliminate removes a player from the game: their stack objects vanish
// and every card they own leaves its zone. source names the card behind
// the elimination (the offending commander) when one exists.
func (e *Engine) eliminate(player rules.PlayerID, reason rules.EliminationReason, source rules.CardID) {
	p, ok := e.player(player)
	if !ok || p.Eliminated {
		return
	}
	p.Eliminated = true

	removed := e.stack.RemoveWhere(func(item rules.StackItem) bool {
		return item.Controller == player
	})
	for _, item := range removed {
		e.bus.Publish(rules.Event{
			Type:        rules.EventStackItemRemoved,
			ID:          item.ID,
			Controller:  item.Controller,
			Source:      item.Source,
			Description: item.Description,
		})
	}

	for zone := ZoneLibrary; zone <= ZoneCommand; zone++ {
		for _, card := range e.zones.RemoveAll(player, zone) {
			if c, ok := e.lookupCard(card); ok {
				e.leaveBattlefield(c)
				e.cards.Remove(entity.Handle(card))
			}
		}
	}

	if e.priority != nil && e.priority.Holder() == player {
		e.priority.SetHolder(e.nextSeatAfter(player))
	}

	e.bus.Publish(rules.Event{
		Type:   rules.EventPlayerEliminated,
		Player: player,
		Reason: reason,
		Source: source,
	})
	e.logger.Info("player eliminated",
		zap.String("game", e.id),
		zap.String("player", player.String()),
		zap.String("reason", string(reason)))
}

// checkGameOver ends the game when at most one player remains.
func (e *Engine) checkGameOver() {
	if e.gameOver || !e.started {
		return
	}
	alive := e.activeSeats()
	if len(alive) > 1 {
		return
	}
	e.gameOver = true
	if len(alive) == 1 {
		e.winner = alive[0]
	}
	e.bus.Publish(rules.Event{Type: rules.EventGameOver, Player: e.winner})
	e.logger.Info("game over", zap.String("game", e.id), zap.String("winner", e.winner.String()))
}

// Tick runs state-based actions to a fixpoint, checks for game end, and
// drains the event log in emission order. The engine's outer loop calls
// it after every submitted action.
func (e *Engine) Tick() []rules.Event {
	e.mu.Lock()
	if e.started && !e.gameOver {
		for i := 0; ; i++ {
			if i >= maxSBAIterations {
				e.logger.Warn("state-based actions did not converge", zap.String("game", e.id))
				break
			}
			if !e.runStateBasedActions() {
				break
			}
		}
		e.checkGameOver()
	}
	notify := e.notify
	e.mu.Unlock()

	events := e.eventLog.Drain()
	if notify != nil && len(events) > 0 {
		notify(events)
	}
	return events
}

// maxSBAIterations bounds the state-based fixpoint loop.
const maxSBAIterations = 32
