// Package client folds server snapshots into the fixed two-slot view a player
// sees, and carries the socket that feeds it.
package client

import (
	"fmt"
	"slices"

	"slide_to_glory/internal/game"
	"slide_to_glory/internal/protocol"
)

const (
	HostSlot  = 0
	GuestSlot = 1
)

// Slot is one of the two visual seats on the board. ID is empty while vacant.
type Slot struct {
	ID       string
	Name     string
	Avatar   string
	Position int
}

// Reconciler is owned by the interactive loop; it is not safe for concurrent use.
type Reconciler struct {
	self string
	own  int

	slots  [2]Slot
	idents *game.IdentityMap
	turn   string
	phase  game.Phase
	status string
}

// NewReconciler pins self to slot 0 when hosting and slot 1 otherwise.
func NewReconciler(self string, host bool) *Reconciler {
	own := GuestSlot
	if host {
		own = HostSlot
	}
	r := &Reconciler{
		self:   self,
		own:    own,
		idents: game.NewIdentityMap(),
		phase:  game.PhaseLobby,
		status: "Waiting for opponent...",
	}
	r.slots[own] = r.seat(self, 0)
	return r
}

// Apply folds one server message into the view.
func (r *Reconciler) Apply(msg protocol.Message) {
	if msg.Type == protocol.TypeReset {
		r.reset()
		return
	}

	// every non-reset message carries the full identity map
	r.idents = game.IdentityMapFrom(msg.Players)

	if msg.Positions != nil {
		r.reseat(participants(msg))
		for id, pos := range msg.Positions {
			if i, ok := r.slotOf(id); ok {
				r.slots[i].Position = pos
			}
		}
	}
	r.refreshNames()

	if msg.CarriesTurn() {
		r.turn = msg.Turn
	}
	if msg.Phase != "" {
		r.phase = msg.Phase
	}

	switch msg.Type {
	case protocol.TypeStateUpdate:
		r.status = r.rollStatus(msg)
	case protocol.TypeNotice:
		r.status = msg.Message
	case protocol.TypeGameState:
		r.status = r.waitingStatus()
	}
}

func (r *Reconciler) reset() {
	for i := range r.slots {
		r.slots[i].Position = game.StartPosition
	}
	r.turn = ""
	r.phase = game.PhaseLobby
	r.status = "Game reset. " + r.waitingStatus()
}

// participants returns the session's join order, falling back to sorted
// position keys for messages without one.
func participants(msg protocol.Message) []string {
	if len(msg.Order) > 0 {
		return msg.Order
	}
	ids := make([]string, 0, len(msg.Positions))
	for id := range msg.Positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// reseat recomputes slot assignment from the participant set: self keeps its
// pinned slot, the first other participant takes the remaining one.
func (r *Reconciler) reseat(ids []string) {
	other := 1 - r.own
	var opponent string
	for _, id := range ids {
		if id != r.self {
			opponent = id
			break
		}
	}

	if opponent == "" {
		r.slots[other] = Slot{}
	} else if r.slots[other].ID != opponent {
		r.slots[other] = r.seat(opponent, 0)
	}
	if !slices.Contains(ids, r.self) {
		r.slots[r.own].Position = 0
	}
}

func (r *Reconciler) seat(id string, pos int) Slot {
	ident := r.idents.Resolve(id)
	return Slot{ID: id, Name: ident.DisplayName, Avatar: ident.DisplayAvatar, Position: pos}
}

func (r *Reconciler) refreshNames() {
	for i := range r.slots {
		if r.slots[i].ID == "" {
			continue
		}
		ident := r.idents.Resolve(r.slots[i].ID)
		r.slots[i].Name = ident.DisplayName
		r.slots[i].Avatar = ident.DisplayAvatar
	}
}

func (r *Reconciler) slotOf(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := range r.slots {
		if r.slots[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (r *Reconciler) name(id string) string {
	return r.idents.Resolve(id).DisplayName
}

func (r *Reconciler) rollStatus(msg protocol.Message) string {
	if msg.Player == "" {
		return r.waitingStatus()
	}
	roller := r.name(msg.Player)
	if msg.Positions[msg.Player] >= game.FinalPosition {
		return fmt.Sprintf("%s rolled %d and wins!", roller, msg.LastRoll)
	}
	if r.turn == "" {
		return fmt.Sprintf("%s rolled %d.", roller, msg.LastRoll)
	}
	return fmt.Sprintf("%s rolled %d, now %s's turn.", roller, msg.LastRoll, r.name(r.turn))
}

func (r *Reconciler) waitingStatus() string {
	switch {
	case r.phase == game.PhaseFinished:
		return "Game over."
	case !r.full():
		return "Waiting for opponent..."
	case r.turn == "":
		return "First to roll goes first."
	default:
		return r.name(r.turn) + "'s turn."
	}
}

func (r *Reconciler) full() bool {
	return r.slots[0].ID != "" && r.slots[1].ID != ""
}

// CanRoll reports whether the roll control should be offered to this player.
func (r *Reconciler) CanRoll() bool {
	if r.phase == game.PhaseFinished || !r.full() {
		return false
	}
	return r.turn == "" || r.turn == r.self
}

// TurnSlot is the slot allowed to roll; false before the first roll.
func (r *Reconciler) TurnSlot() (int, bool) {
	return r.slotOf(r.turn)
}

// PlayerID resolves a name shown on the board back to its connection id.
// Players that never announced an identity are shown under their raw id.
func (r *Reconciler) PlayerID(name string) (string, bool) {
	if id, ok := r.idents.LookupName(name); ok {
		return id, true
	}
	if _, ok := r.slotOf(name); ok {
		return name, true
	}
	return "", false
}

func (r *Reconciler) Slots() [2]Slot    { return r.slots }
func (r *Reconciler) OwnSlot() int      { return r.own }
func (r *Reconciler) Status() string    { return r.status }
func (r *Reconciler) Phase() game.Phase { return r.phase }

// Winner returns the slot sitting on the final tile, if any.
func (r *Reconciler) Winner() (Slot, bool) {
	for _, s := range r.slots {
		if s.ID != "" && s.Position >= game.FinalPosition {
			return s, true
		}
	}
	return Slot{}, false
}
