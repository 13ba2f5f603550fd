package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/opencommander/commander-engine-go/internal/entity"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// Snapshot captures a whole game at a quiescent point. Entities are
// referenced by dense indices: players and cards are renumbered
// 0..n-1 in arena order when the snapshot is taken, so a snapshot of a
// restored game reproduces the same records and checksum. An index of
// -1 means "no reference".
type Snapshot struct {
	GameID  string
	Config  Config
	Started bool

	TurnNumber  int
	StepIndex   int
	ActiveIdx   int32
	PriorityIdx int32
	GameOver    bool
	WinnerIdx   int32
	Seats       []int32

	Players    []PlayerRecord
	Cards      []CardRecord
	Zones      []ZoneRecord
	Commanders []CommanderSnapshot
}

// PlayerRecord is one player; its index is its position in the slice.
// Floating mana is part of the record: pools empty at cleanup only, so
// a quiescent main-phase snapshot can legitimately carry mana.
type PlayerRecord struct {
	Name                 string
	Life                 int
	LandsPlayed          int
	CardsDrawn           int
	DrewFromEmptyLibrary bool
	Eliminated           bool
	Mana                 map[uint8]int
	ManaColorless        int
}

// CardRecord is one card; its index is its position in the slice.
type CardRecord struct {
	Def       CardDefinition
	OwnerIdx  int32
	Commander bool
	Perm      *PermRecord
}

// PermRecord is the battlefield state of a card, nil off battlefield.
type PermRecord struct {
	Tapped            bool
	SummoningSickness bool
	TurnEntered       int
	Damage            int
	DeathtouchDamaged bool
	DamageBySource    map[int32]int
	Counters          map[string]int
	UntapConditions   []UntapConditionRecord
	AttachedToIdx     int32
	AttachmentIdxs    []int32
}

// UntapConditionRecord persists one untap condition.
type UntapConditionRecord struct {
	Kind      int
	RefIdx    int32
	LifeBelow int
	Text      string
}

// ZoneRecord is the ordered contents of one player's zone.
type ZoneRecord struct {
	OwnerIdx int32
	Zone     int
	CardIdxs []int32
}

// CommanderSnapshot persists one commander's format state.
type CommanderSnapshot struct {
	CardIdx   int32
	OwnerIdx  int32
	CastCount int
	Damage    map[int32]int
}

const noIndex int32 = -1

// Snapshot captures the current game. It refuses to run mid-stack or
// mid-combat since closures on the stack cannot be persisted.
func (e *Engine) Snapshot() (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stack.IsEmpty() {
		return nil, fmt.Errorf("cannot snapshot with %d object(s) on the stack", e.stack.Len())
	}
	if e.combat.InCombat() {
		return nil, fmt.Errorf("cannot snapshot during combat")
	}

	playerIdx := make(map[rules.PlayerID]int32)
	var playerOrder []rules.PlayerID
	e.players.ForEach(func(h entity.Handle, _ *Player) {
		id := rules.PlayerID(h)
		playerIdx[id] = int32(len(playerOrder))
		playerOrder = append(playerOrder, id)
	})
	cardIdx := make(map[rules.CardID]int32)
	var cardOrder []rules.CardID
	e.cards.ForEach(func(h entity.Handle, _ *Card) {
		id := rules.CardID(h)
		cardIdx[id] = int32(len(cardOrder))
		cardOrder = append(cardOrder, id)
	})

	pidx := func(id rules.PlayerID) int32 {
		if i, ok := playerIdx[id]; ok {
			return i
		}
		return noIndex
	}
	cidx := func(id rules.CardID) int32 {
		if i, ok := cardIdx[id]; ok {
			return i
		}
		return noIndex
	}

	snap := &Snapshot{
		GameID:  e.id,
		Config:  e.cfg,
		Started: e.started,
	}
	if e.started {
		snap.TurnNumber = e.turn.TurnNumber()
		snap.StepIndex = e.turn.StepIndex()
		snap.ActiveIdx = pidx(e.turn.ActivePlayer())
		snap.PriorityIdx = pidx(e.priority.Holder())
	}
	snap.GameOver = e.gameOver
	snap.WinnerIdx = pidx(e.winner)
	for _, seat := range e.seats {
		snap.Seats = append(snap.Seats, pidx(seat))
	}

	for _, id := range playerOrder {
		p, _ := e.player(id)
		rec := PlayerRecord{
			Name:                 p.Name,
			Life:                 p.Life,
			LandsPlayed:          p.LandsPlayed,
			CardsDrawn:           p.CardsDrawn,
			DrewFromEmptyLibrary: p.DrewFromEmptyLibrary,
			Eliminated:           p.Eliminated,
			Mana:                 make(map[uint8]int),
		}
		colored, colorless := p.Pool.Contents()
		for color, n := range colored {
			rec.Mana[uint8(color)] = n
		}
		rec.ManaColorless = colorless
		snap.Players = append(snap.Players, rec)
	}

	for _, id := range cardOrder {
		c, _ := e.lookupCard(id)
		rec := CardRecord{
			Def:       *c.Def,
			OwnerIdx:  pidx(c.Owner),
			Commander: c.Commander,
		}
		if c.Perm != nil {
			perm := &PermRecord{
				Tapped:            c.Perm.Tapped,
				SummoningSickness: c.Perm.SummoningSickness,
				TurnEntered:       c.Perm.TurnEntered,
				Damage:            c.Perm.Damage,
				DeathtouchDamaged: c.Perm.DeathtouchDamaged,
				DamageBySource:    make(map[int32]int),
				Counters:          make(map[string]int),
				AttachedToIdx:     cidx(c.Perm.AttachedTo),
			}
			for src, n := range c.Perm.DamageBySource {
				if i := cidx(src); i != noIndex {
					perm.DamageBySource[i] = n
				}
			}
			for name, n := range c.Perm.Counters {
				perm.Counters[name] = n
			}
			for _, cond := range c.Perm.UntapConditions {
				perm.UntapConditions = append(perm.UntapConditions, UntapConditionRecord{
					Kind:      int(cond.Kind),
					RefIdx:    cidx(cond.Ref),
					LifeBelow: cond.LifeBelow,
					Text:      cond.Text,
				})
			}
			for _, att := range c.Perm.Attachments {
				if i := cidx(att); i != noIndex {
					perm.AttachmentIdxs = append(perm.AttachmentIdxs, i)
				}
			}
			rec.Perm = perm
		}
		snap.Cards = append(snap.Cards, rec)
	}

	for _, owner := range playerOrder {
		for zone := ZoneLibrary; zone <= ZoneCommand; zone++ {
			cards := e.zones.Cards(owner, zone)
			if len(cards) == 0 {
				continue
			}
			rec := ZoneRecord{OwnerIdx: pidx(owner), Zone: int(zone)}
			for _, card := range cards {
				rec.CardIdxs = append(rec.CardIdxs, cidx(card))
			}
			snap.Zones = append(snap.Zones, rec)
		}
	}

	for _, rec := range e.commanders.snapshotRecords() {
		cs := CommanderSnapshot{
			CardIdx:   cidx(rec.Card),
			OwnerIdx:  pidx(rec.Owner),
			CastCount: rec.CastCount,
			Damage:    make(map[int32]int),
		}
		for player, n := range rec.DamageDealt {
			if i := pidx(player); i != noIndex {
				cs.Damage[i] = n
			}
		}
		snap.Commanders = append(snap.Commanders, cs)
	}
	sort.Slice(snap.Commanders, func(i, j int) bool {
		return snap.Commanders[i].CardIdx < snap.Commanders[j].CardIdx
	})

	return snap, nil
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a gob-encoded snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}

// Checksum hashes a canonical rendering of the snapshot. Gob encodes
// maps in iteration order, so the hash is computed over a string built
// with sorted keys instead of over the encoded bytes.
func (s *Snapshot) Checksum() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "game:%s|turn:%d|step:%d|active:%d|prio:%d|over:%t|winner:%d|",
		s.GameID, s.TurnNumber, s.StepIndex, s.ActiveIdx, s.PriorityIdx, s.GameOver, s.WinnerIdx)
	fmt.Fprintf(&b, "seats:%v|", s.Seats)
	for i, p := range s.Players {
		fmt.Fprintf(&b, "p%d:%s,%d,%d,%d,%t,%t,cl:%d", i, p.Name, p.Life, p.LandsPlayed, p.CardsDrawn,
			p.DrewFromEmptyLibrary, p.Eliminated, p.ManaColorless)
		writeSortedColorMap(&b, p.Mana)
		b.WriteByte('|')
	}
	for i, c := range s.Cards {
		fmt.Fprintf(&b, "c%d:%s,%s,%s,%d,%t", i, c.Def.Name, c.Def.Types, c.Def.Cost, c.OwnerIdx, c.Commander)
		if c.Perm != nil {
			fmt.Fprintf(&b, ",perm:%t,%t,%d,%d,%t,att:%d",
				c.Perm.Tapped, c.Perm.SummoningSickness, c.Perm.TurnEntered,
				c.Perm.Damage, c.Perm.DeathtouchDamaged, c.Perm.AttachedToIdx)
			writeSortedIntMap(&b, c.Perm.DamageBySource)
			writeSortedStringMap(&b, c.Perm.Counters)
			for _, cond := range c.Perm.UntapConditions {
				fmt.Fprintf(&b, ",u:%d,%d,%d,%s", cond.Kind, cond.RefIdx, cond.LifeBelow, cond.Text)
			}
			fmt.Fprintf(&b, ",atts:%v", c.Perm.AttachmentIdxs)
		}
		b.WriteByte('|')
	}
	for _, z := range s.Zones {
		fmt.Fprintf(&b, "z%d.%d:%v|", z.OwnerIdx, z.Zone, z.CardIdxs)
	}
	for _, cs := range s.Commanders {
		fmt.Fprintf(&b, "cmd%d:%d,%d", cs.CardIdx, cs.OwnerIdx, cs.CastCount)
		writeSortedIntMap(&b, cs.Damage)
		b.WriteByte('|')
	}
	return fmt.Sprintf("%x", sha256.Sum256(b.Bytes()))
}

func writeSortedIntMap(b *bytes.Buffer, m map[int32]int) {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		fmt.Fprintf(b, ",%d=%d", k, m[k])
	}
}

func writeSortedColorMap(b *bytes.Buffer, m map[uint8]int) {
	keys := make([]uint8, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		fmt.Fprintf(b, ",%d=%d", k, m[k])
	}
}

func writeSortedStringMap(b *bytes.Buffer, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ",%s=%d", k, m[k])
	}
}

// RestoreEngine rebuilds a game from a snapshot. Entities are inserted
// in record order into fresh arenas; each assigned handle is verified
// to land on the slot the record's index names, so every reference in
// the snapshot maps onto exactly one live entity.
func RestoreEngine(snap *Snapshot, logger *zap.Logger) (*Engine, error) {
	e := NewEngine(snap.Config, logger)
	e.id = snap.GameID

	players := make([]rules.PlayerID, len(snap.Players))
	for i, rec := range snap.Players {
		p := &Player{
			Name:                 rec.Name,
			Life:                 rec.Life,
			LandsPlayed:          rec.LandsPlayed,
			CardsDrawn:           rec.CardsDrawn,
			DrewFromEmptyLibrary: rec.DrewFromEmptyLibrary,
			Eliminated:           rec.Eliminated,
			Pool:                 mana.NewPool(),
		}
		for color, n := range rec.Mana {
			p.Pool.Add(mana.Color(color), n)
		}
		p.Pool.AddColorless(rec.ManaColorless)
		h := e.players.Insert(p)
		if h.Index != uint32(i) {
			return nil, fmt.Errorf("player record %d restored to slot %d", i, h.Index)
		}
		p.ID = rules.PlayerID(h)
		players[i] = p.ID
	}
	pref := func(idx int32) (rules.PlayerID, error) {
		if idx == noIndex {
			return rules.PlayerID{}, nil
		}
		if int(idx) >= len(players) {
			return rules.PlayerID{}, fmt.Errorf("player index %d out of range", idx)
		}
		return players[idx], nil
	}

	cards := make([]rules.CardID, len(snap.Cards))
	for i, rec := range snap.Cards {
		owner, err := pref(rec.OwnerIdx)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		def := rec.Def
		c := &Card{Def: &def, Owner: owner, Controller: owner, Commander: rec.Commander}
		h := e.cards.Insert(c)
		if h.Index != uint32(i) {
			return nil, fmt.Errorf("card record %d restored to slot %d", i, h.Index)
		}
		c.ID = rules.CardID(h)
		cards[i] = c.ID
	}
	cref := func(idx int32) (rules.CardID, error) {
		if idx == noIndex {
			return rules.CardID{}, nil
		}
		if int(idx) >= len(cards) {
			return rules.CardID{}, fmt.Errorf("card index %d out of range", idx)
		}
		return cards[idx], nil
	}

	// Second pass: permanent state, which references other cards.
	for i, rec := range snap.Cards {
		if rec.Perm == nil {
			continue
		}
		c, _ := e.lookupCard(cards[i])
		perm := newPermanentState(rec.Perm.TurnEntered, rec.Perm.SummoningSickness)
		perm.Tapped = rec.Perm.Tapped
		perm.Damage = rec.Perm.Damage
		perm.DeathtouchDamaged = rec.Perm.DeathtouchDamaged
		for srcIdx, n := range rec.Perm.DamageBySource {
			src, err := cref(srcIdx)
			if err != nil {
				return nil, fmt.Errorf("card %d damage source: %w", i, err)
			}
			perm.DamageBySource[src] = n
		}
		for name, n := range rec.Perm.Counters {
			perm.Counters.Add(name, n)
		}
		for _, cond := range rec.Perm.UntapConditions {
			ref, err := cref(cond.RefIdx)
			if err != nil {
				return nil, fmt.Errorf("card %d untap condition: %w", i, err)
			}
			perm.UntapConditions = append(perm.UntapConditions, rules.UntapCondition{
				Kind:      rules.UntapConditionKind(cond.Kind),
				Ref:       ref,
				LifeBelow: cond.LifeBelow,
				Text:      cond.Text,
			})
		}
		attachedTo, err := cref(rec.Perm.AttachedToIdx)
		if err != nil {
			return nil, fmt.Errorf("card %d attachment host: %w", i, err)
		}
		perm.AttachedTo = attachedTo
		for _, attIdx := range rec.Perm.AttachmentIdxs {
			att, err := cref(attIdx)
			if err != nil {
				return nil, fmt.Errorf("card %d attachment: %w", i, err)
			}
			perm.Attachments = append(perm.Attachments, att)
		}
		c.Perm = perm
	}

	for _, z := range snap.Zones {
		owner, err := pref(z.OwnerIdx)
		if err != nil {
			return nil, fmt.Errorf("zone record: %w", err)
		}
		for _, cardIdx := range z.CardIdxs {
			card, err := cref(cardIdx)
			if err != nil {
				return nil, fmt.Errorf("zone record: %w", err)
			}
			e.zones.Place(card, owner, Zone(z.Zone))
		}
	}

	for _, cs := range snap.Commanders {
		card, err := cref(cs.CardIdx)
		if err != nil {
			return nil, fmt.Errorf("commander record: %w", err)
		}
		owner, err := pref(cs.OwnerIdx)
		if err != nil {
			return nil, fmt.Errorf("commander record: %w", err)
		}
		damage := make(map[rules.PlayerID]int)
		for idx, n := range cs.Damage {
			player, err := pref(idx)
			if err != nil {
				return nil, fmt.Errorf("commander damage record: %w", err)
			}
			damage[player] = n
		}
		rec := &CommanderRecord{
			Card:        card,
			Owner:       owner,
			CastCount:   cs.CastCount,
			DamageDealt: damage,
		}
		// Identity derives from the cost, so it is recomputed rather
		// than persisted.
		if c, ok := e.lookupCard(card); ok {
			rec.Identity = c.Def.ColorIdentity()
		}
		e.commanders.restore(rec)
	}

	for _, seatIdx := range snap.Seats {
		seat, err := pref(seatIdx)
		if err != nil {
			return nil, fmt.Errorf("seat record: %w", err)
		}
		e.seats = append(e.seats, seat)
	}

	if snap.Started {
		active, err := pref(snap.ActiveIdx)
		if err != nil {
			return nil, fmt.Errorf("active player: %w", err)
		}
		holder, err := pref(snap.PriorityIdx)
		if err != nil {
			return nil, fmt.Errorf("priority holder: %w", err)
		}
		e.turn = rules.NewTurnManager(active)
		if err := e.turn.Restore(snap.TurnNumber, snap.StepIndex, active); err != nil {
			return nil, err
		}
		e.priority = rules.NewPriorityTracker(holder)
		e.started = true
	}
	e.gameOver = snap.GameOver
	winner, err := pref(snap.WinnerIdx)
	if err != nil {
		return nil, fmt.Errorf("winner: %w", err)
	}
	e.winner = winner
	return e, nil
}
