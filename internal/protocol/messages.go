package protocol

// Message types: Server → Client
const (
	MsgJoined    = "joined"
	MsgGameState = "game_state"
	MsgEvent     = "event"
	MsgError     = "error"
)

// Message types: Client → Server
const (
	MsgJoin             = "join"
	MsgStartGame        = "start_game"
	MsgPlayLand         = "play_land"
	MsgCastSpell        = "cast_spell"
	MsgTapForMana       = "tap_for_mana"
	MsgDeclareAttackers = "declare_attackers"
	MsgDeclareBlockers  = "declare_blockers"
	MsgPass             = "pass"
	MsgConcede          = "concede"
)

// Ref identifies a player or card on the wire. Both parts must match
// for the server to accept it; a ref kept across an entity's removal
// is rejected rather than resolving to a new occupant of the slot.
type Ref struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool { return r.Generation == 0 }

// JoinMsg is sent by a player to claim a seat.
type JoinMsg struct {
	Name string `json:"name"`
}

// JoinedMsg confirms a seat claim.
type JoinedMsg struct {
	GameID string `json:"game_id"`
	Player Ref    `json:"player"`
}

// ErrorMsg is sent to a client when a request fails. Code is set for
// rules rejections and empty for transport or parse failures.
type ErrorMsg struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// PlayLandMsg plays a land from hand.
type PlayLandMsg struct {
	Card Ref `json:"card"`
}

// CastSpellMsg casts a spell from hand or the command zone.
type CastSpellMsg struct {
	Card    Ref   `json:"card"`
	Targets []Ref `json:"targets,omitempty"`
}

// TapForManaMsg taps a permanent for one mana of the given color
// symbol (W, U, B, R or G).
type TapForManaMsg struct {
	Card  Ref    `json:"card"`
	Color string `json:"color"`
}

// AttackMsg pairs an attacker with the player it attacks.
type AttackMsg struct {
	Attacker Ref `json:"attacker"`
	Defender Ref `json:"defender"`
}

// DeclareAttackersMsg declares the active player's attacks.
type DeclareAttackersMsg struct {
	Attacks []AttackMsg `json:"attacks"`
}

// BlockMsg pairs a blocker with the attacker it blocks.
type BlockMsg struct {
	Blocker  Ref `json:"blocker"`
	Attacker Ref `json:"attacker"`
}

// DeclareBlockersMsg declares a defending player's blocks.
type DeclareBlockersMsg struct {
	Blocks []BlockMsg `json:"blocks"`
}

// EventMsg mirrors one engine event. Card details from hidden zones
// are blanked for clients other than the card's controller.
type EventMsg struct {
	Type        string `json:"event"`
	Card        *Ref   `json:"card,omitempty"`
	CardName    string `json:"card_name,omitempty"`
	Source      *Ref   `json:"source,omitempty"`
	Player      *Ref   `json:"player,omitempty"`
	Amount      int    `json:"amount,omitempty"`
	FromZone    string `json:"from_zone,omitempty"`
	ToZone      string `json:"to_zone,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

// PlayerView is one seat in the game state broadcast.
type PlayerView struct {
	Player     Ref    `json:"player"`
	Name       string `json:"name"`
	Life       int    `json:"life"`
	HandSize   int    `json:"hand_size"`
	Library    int    `json:"library"`
	Eliminated bool   `json:"eliminated"`
}

// PermanentView describes a battlefield card.
type PermanentView struct {
	Card       Ref    `json:"card"`
	Name       string `json:"name"`
	Controller Ref    `json:"controller"`
	Tapped     bool   `json:"tapped"`
	Damage     int    `json:"damage,omitempty"`
	Commander  bool   `json:"commander,omitempty"`
}

// GameStateMsg is the public view of the game, safe to broadcast to
// every client.
type GameStateMsg struct {
	GameID      string          `json:"game_id"`
	Started     bool            `json:"started"`
	Turn        int             `json:"turn"`
	Phase       string          `json:"phase,omitempty"`
	Step        string          `json:"step,omitempty"`
	Active      Ref             `json:"active"`
	Priority    Ref             `json:"priority"`
	StackSize   int             `json:"stack_size"`
	Players     []PlayerView    `json:"players"`
	Battlefield []PermanentView `json:"battlefield"`
	GameOver    bool            `json:"game_over"`
	Winner      *Ref            `json:"winner,omitempty"`
}
