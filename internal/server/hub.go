package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/entity"
	"github.com/opencommander/commander-engine-go/internal/game"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
	"github.com/opencommander/commander-engine-go/internal/protocol"
)

// DeckBuilder stocks a freshly seated player's library and command
// zone before the game starts.
type DeckBuilder func(e *game.Engine, player rules.PlayerID) error

// Hub manages WebSocket connections and the engine for one game room.
type Hub struct {
	mu         sync.Mutex
	engine     *game.Engine
	buildDeck  DeckBuilder
	logger     *zap.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan IncomingMessage
}

func NewHub(engine *game.Engine, buildDeck DeckBuilder, logger *zap.Logger) *Hub {
	return &Hub{
		engine:     engine,
		buildDeck:  buildDeck,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan IncomingMessage, 256),
	}
}

// Run processes connections and messages until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			client.SendEnvelope(protocol.MustEnvelope(protocol.MsgGameState, h.stateMsg()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.incoming:
			h.handleMessage(msg)

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleMessage(msg IncomingMessage) {
	switch msg.Envelope.Type {
	case protocol.MsgJoin:
		h.handleJoin(msg)
	case protocol.MsgStartGame:
		h.handleStartGame(msg)
	default:
		h.handleGameAction(msg)
	}
}

func (h *Hub) handleJoin(msg IncomingMessage) {
	var join protocol.JoinMsg
	if err := json.Unmarshal(msg.Envelope.Payload, &join); err != nil {
		h.sendError(msg.Client, "", "invalid join message")
		return
	}
	if join.Name == "" {
		h.sendError(msg.Client, "", "name required")
		return
	}
	id, err := h.engine.AddPlayer(join.Name)
	if err != nil {
		h.sendError(msg.Client, "", err.Error())
		return
	}
	if h.buildDeck != nil {
		if err := h.buildDeck(h.engine, id); err != nil {
			h.sendError(msg.Client, "", fmt.Sprintf("building deck: %v", err))
			return
		}
	}
	msg.Client.PlayerID = id
	msg.Client.SendEnvelope(protocol.MustEnvelope(protocol.MsgJoined, protocol.JoinedMsg{
		GameID: h.engine.ID(),
		Player: refOfPlayer(id),
	}))
	h.broadcastState()
}

func (h *Hub) handleStartGame(msg IncomingMessage) {
	if err := h.engine.Start(); err != nil {
		h.sendError(msg.Client, "", err.Error())
		return
	}
	h.settle()
}

func (h *Hub) handleGameAction(msg IncomingMessage) {
	if msg.Client.PlayerID.IsZero() {
		h.sendError(msg.Client, "", "join before acting")
		return
	}
	action, err := h.parseAction(msg.Client.PlayerID, msg.Envelope)
	if err != nil {
		h.sendError(msg.Client, "", err.Error())
		return
	}
	if err := h.engine.Submit(action); err != nil {
		var d *game.DeniedError
		if errors.As(err, &d) {
			h.sendError(msg.Client, string(d.Code), d.Reason)
		} else {
			h.logger.Error("action failed",
				zap.String("type", msg.Envelope.Type),
				zap.Error(err))
			h.sendError(msg.Client, "", "internal error")
		}
		return
	}
	h.settle()
}

// settle runs a tick, broadcasts the drained events, then the fresh
// public state.
func (h *Hub) settle() {
	events := h.engine.Tick()
	h.broadcastEvents(events)
	h.broadcastState()
}

func (h *Hub) parseAction(actor rules.PlayerID, env protocol.Envelope) (game.Action, error) {
	switch env.Type {
	case protocol.MsgPlayLand:
		var m protocol.PlayLandMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("invalid %s payload", env.Type)
		}
		return game.PlayLand{Player: actor, Card: cardOfRef(m.Card)}, nil

	case protocol.MsgCastSpell:
		var m protocol.CastSpellMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("invalid %s payload", env.Type)
		}
		targets := make([]rules.CardID, len(m.Targets))
		for i, t := range m.Targets {
			targets[i] = cardOfRef(t)
		}
		return game.CastSpell{Player: actor, Card: cardOfRef(m.Card), Targets: targets}, nil

	case protocol.MsgTapForMana:
		var m protocol.TapForManaMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("invalid %s payload", env.Type)
		}
		color, ok := mana.ParseColor(m.Color)
		if !ok {
			return nil, fmt.Errorf("unknown color %q", m.Color)
		}
		return game.TapForMana{Player: actor, Card: cardOfRef(m.Card), Color: color}, nil

	case protocol.MsgDeclareAttackers:
		var m protocol.DeclareAttackersMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("invalid %s payload", env.Type)
		}
		attacks := make([]game.Attack, len(m.Attacks))
		for i, a := range m.Attacks {
			attacks[i] = game.Attack{
				Attacker: cardOfRef(a.Attacker),
				Defender: playerOfRef(a.Defender),
			}
		}
		return game.DeclareAttackers{Player: actor, Attacks: attacks}, nil

	case protocol.MsgDeclareBlockers:
		var m protocol.DeclareBlockersMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, fmt.Errorf("invalid %s payload", env.Type)
		}
		blocks := make([]game.Block, len(m.Blocks))
		for i, b := range m.Blocks {
			blocks[i] = game.Block{
				Blocker:  cardOfRef(b.Blocker),
				Attacker: cardOfRef(b.Attacker),
			}
		}
		return game.DeclareBlockers{Player: actor, Blocks: blocks}, nil

	case protocol.MsgPass:
		return game.PassPriority{Player: actor}, nil

	case protocol.MsgConcede:
		return game.Concede{Player: actor}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

func (h *Hub) broadcastEvents(events []rules.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		for client := range h.clients {
			msg := h.eventMsgFor(client.PlayerID, ev)
			client.SendEnvelope(protocol.MustEnvelope(protocol.MsgEvent, msg))
		}
	}
}

func (h *Hub) broadcastState() {
	state := protocol.MustEnvelope(protocol.MsgGameState, h.stateMsg())
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.SendEnvelope(state)
	}
}

func (h *Hub) stateMsg() protocol.GameStateMsg {
	e := h.engine
	turn, phase, step := e.Turn()
	msg := protocol.GameStateMsg{
		GameID:    e.ID(),
		Started:   e.Started(),
		Turn:      turn,
		Active:    refOfPlayer(e.ActivePlayer()),
		Priority:  refOfPlayer(e.PriorityHolder()),
		StackSize: e.Stack().Len(),
	}
	if msg.Started {
		msg.Phase = phase.String()
		msg.Step = step.String()
	}
	for _, id := range e.Seats() {
		p, ok := e.Player(id)
		if !ok {
			continue
		}
		msg.Players = append(msg.Players, protocol.PlayerView{
			Player:     refOfPlayer(id),
			Name:       p.Name,
			Life:       p.Life,
			HandSize:   e.Zones().Count(id, game.ZoneHand),
			Library:    e.Zones().Count(id, game.ZoneLibrary),
			Eliminated: p.Eliminated,
		})
		for _, cardID := range e.Zones().Cards(id, game.ZoneBattlefield) {
			c, ok := e.Card(cardID)
			if !ok || c.Perm == nil {
				continue
			}
			msg.Battlefield = append(msg.Battlefield, protocol.PermanentView{
				Card:       refOfCard(cardID),
				Name:       c.Name(),
				Controller: refOfPlayer(c.Controller),
				Tapped:     c.Perm.Tapped,
				Damage:     c.Perm.Damage,
				Commander:  c.Commander,
			})
		}
	}
	if over, winner := e.GameOver(); over {
		msg.GameOver = true
		if !winner.IsZero() {
			ref := refOfPlayer(winner)
			msg.Winner = &ref
		}
	}
	return msg
}

// eventMsgFor renders an event for one viewer. Card identity in moves
// between hidden zones is blanked unless the viewer owns the card; a
// draw by another player keeps the event but not the card.
func (h *Hub) eventMsgFor(viewer rules.PlayerID, ev rules.Event) protocol.EventMsg {
	msg := protocol.EventMsg{
		Type:        string(ev.Type),
		Amount:      ev.Amount,
		Reason:      string(ev.Reason),
		Description: ev.Description,
	}
	if !ev.Player.IsZero() {
		ref := refOfPlayer(ev.Player)
		msg.Player = &ref
	}
	if !ev.Source.IsZero() {
		ref := refOfCard(ev.Source)
		msg.Source = &ref
	}

	hidden := false
	if ev.Type == rules.EventZoneChange {
		msg.FromZone = game.Zone(ev.FromZone).String()
		msg.ToZone = game.Zone(ev.ToZone).String()
		hidden = !ev.WasVisible && !ev.IsVisible && viewer != ev.Player
	}
	if ev.Type == rules.EventDrawCard && viewer != ev.Player {
		hidden = true
	}
	if !ev.Card.IsZero() && !hidden {
		ref := refOfCard(ev.Card)
		msg.Card = &ref
		if c, ok := h.engine.Card(ev.Card); ok {
			msg.CardName = c.Name()
		}
	}
	return msg
}

func (h *Hub) sendError(client *Client, code, message string) {
	client.SendEnvelope(protocol.MustEnvelope(protocol.MsgError, protocol.ErrorMsg{
		Code:    code,
		Message: message,
	}))
}

func refOfPlayer(id rules.PlayerID) protocol.Ref {
	h := entity.Handle(id)
	return protocol.Ref{Index: h.Index, Generation: h.Generation}
}

func refOfCard(id rules.CardID) protocol.Ref {
	h := entity.Handle(id)
	return protocol.Ref{Index: h.Index, Generation: h.Generation}
}

func playerOfRef(r protocol.Ref) rules.PlayerID {
	return rules.PlayerID(entity.Handle{Index: r.Index, Generation: r.Generation})
}

func cardOfRef(r protocol.Ref) rules.CardID {
	return rules.CardID(entity.Handle{Index: r.Index, Generation: r.Generation})
}
