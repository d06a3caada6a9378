// Package protocol defines the JSON messages exchanged over the game socket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"slide_to_glory/internal/game"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownAction    = errors.New("unknown action")
)

// client → server
const (
	ActionPlayerInfo = "player_info"
	ActionRoll       = "roll"
	ActionReset      = "reset"
)

// server → client
const (
	TypeGameState        = "game_state"
	TypePlayerInfoUpdate = "player_info_update"
	TypeStateUpdate      = "state_update"
	TypeNotice           = "notice"
	TypeReset            = "reset"
)

// Inbound is one of PlayerInfo, Roll or Reset.
type Inbound interface{ isInbound() }

type PlayerInfo struct {
	DisplayName   string
	DisplayAvatar string
}

type Roll struct {
	// Player is echoed for diagnostics only; the server trusts the socket.
	Player string
}

type Reset struct{}

func (PlayerInfo) isInbound() {}
func (Roll) isInbound()       {}
func (Reset) isInbound()      {}

type clientMessage struct {
	Action        string `json:"action"`
	Type          string `json:"type,omitempty"` // older clients tagged reset with type
	DisplayName   string `json:"display_name,omitempty"`
	DisplayAvatar string `json:"display_avatar,omitempty"`
	Player        string `json:"player,omitempty"`
}

// DecodeInbound parses a client payload into its variant.
func DecodeInbound(data []byte) (Inbound, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if msg.Action == "" && msg.Type == ActionReset {
		msg.Action = ActionReset
	}

	switch msg.Action {
	case ActionPlayerInfo:
		if msg.DisplayName == "" {
			return nil, fmt.Errorf("%w: player_info without display_name", ErrMalformedMessage)
		}
		avatar := msg.DisplayAvatar
		if avatar == "" {
			avatar = game.DefaultAvatar
		}
		return PlayerInfo{DisplayName: msg.DisplayName, DisplayAvatar: avatar}, nil
	case ActionRoll:
		return Roll{Player: msg.Player}, nil
	case ActionReset:
		return Reset{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
}

// EncodeInbound is the client-side counterpart of DecodeInbound.
func EncodeInbound(in Inbound) ([]byte, error) {
	var msg clientMessage
	switch v := in.(type) {
	case PlayerInfo:
		msg = clientMessage{Action: ActionPlayerInfo, DisplayName: v.DisplayName, DisplayAvatar: v.DisplayAvatar}
	case Roll:
		msg = clientMessage{Action: ActionRoll, Player: v.Player}
	case Reset:
		msg = clientMessage{Action: ActionReset}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, in)
	}
	return json.Marshal(msg)
}

// Message is every server → client payload, tagged by Type. Which fields are
// meaningful depends on the type; an absent turn means no one holds it.
type Message struct {
	Type      string                   `json:"type"`
	Message   string                   `json:"message,omitempty"`
	Positions map[string]int           `json:"positions,omitempty"`
	Players   map[string]game.Identity `json:"players,omitempty"`
	Order     []string                 `json:"order,omitempty"`
	Turn      string                   `json:"turn,omitempty"`
	LastRoll  int                      `json:"last_roll,omitempty"`
	Player    string                   `json:"player,omitempty"`
	Phase     game.Phase               `json:"phase,omitempty"`
}

// CarriesTurn reports whether an absent turn field should clear the turn.
func (m Message) CarriesTurn() bool {
	switch m.Type {
	case TypeGameState, TypeStateUpdate, TypeNotice:
		return true
	}
	return false
}

func GameState(s game.Snapshot) Message {
	return Message{
		Type:      TypeGameState,
		Positions: s.Positions,
		Players:   s.Players,
		Order:     s.Order,
		Turn:      s.Turn,
		Phase:     s.Phase,
	}
}

func PlayerInfoUpdate(s game.Snapshot) Message {
	return Message{Type: TypePlayerInfoUpdate, Players: s.Players}
}

func StateUpdate(s game.Snapshot) Message {
	return Message{
		Type:      TypeStateUpdate,
		Positions: s.Positions,
		Players:   s.Players,
		Order:     s.Order,
		Turn:      s.Turn,
		LastRoll:  s.LastRoll,
		Player:    s.Player,
		Phase:     s.Phase,
	}
}

func Notice(text string, s game.Snapshot) Message {
	return Message{
		Type:      TypeNotice,
		Message:   text,
		Positions: s.Positions,
		Players:   s.Players,
		Order:     s.Order,
		Turn:      s.Turn,
		Phase:     s.Phase,
	}
}

func ResetMessage() Message { return Message{Type: TypeReset} }

func JoinedNotice(id string) string { return id + " joined the game!" }

func LeftNotice(id string) string { return id + " left the game." }
