package game

import (
	"errors"
	"slices"
)

var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotParticipant     = errors.New("not a participant")
	ErrWaitingForOpponent = errors.New("waiting for opponent")
	ErrGameFinished       = errors.New("game already finished")
	ErrGameInProgress     = errors.New("game still in progress")
	ErrSessionFull        = errors.New("session full")
)

const (
	StartPosition = 0
	FinalPosition = 100

	MaxParticipants = 2
)

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Snapshot is a deep copy of the authoritative board state.
type Snapshot struct {
	Order     []string
	Positions map[string]int
	Players   map[string]Identity
	Turn      string
	LastRoll  int
	Player    string
	Phase     Phase
}

// RollResult describes one accepted roll.
type RollResult struct {
	Player   string
	Roll     int
	From     int
	To       int
	Finished bool
}

// Board is the per-session turn/position state machine. It is not safe for
// concurrent use; the owning room serializes every call.
type Board struct {
	order      []string
	positions  map[string]int
	identities *IdentityMap
	turn       string
	lastRoll   int
	lastRoller string
	die        Die
}

func NewBoard(die Die) *Board {
	if die == nil {
		die = CryptoDie{}
	}
	return &Board{
		positions:  make(map[string]int),
		identities: NewIdentityMap(),
		die:        die,
	}
}

// Join appends id to the turn order and reports whether it is new.
// Re-joining keeps the prior position. A third distinct id gets ErrSessionFull.
func (b *Board) Join(id string) (bool, error) {
	if b.IsParticipant(id) {
		return false, nil
	}
	if len(b.order) >= MaxParticipants {
		return false, ErrSessionFull
	}
	b.order = append(b.order, id)
	b.positions[id] = StartPosition
	return true, nil
}

func (b *Board) IsParticipant(id string) bool {
	return slices.Contains(b.order, id)
}

func (b *Board) Announce(id string, ident Identity) error {
	if !b.IsParticipant(id) {
		return ErrNotParticipant
	}
	b.identities.Set(id, ident)
	return nil
}

func (b *Board) Roll(id string) (RollResult, error) {
	switch {
	case !b.IsParticipant(id):
		return RollResult{}, ErrNotParticipant
	case b.Phase() == PhaseFinished:
		return RollResult{}, ErrGameFinished
	case len(b.order) < 2:
		return RollResult{}, ErrWaitingForOpponent
	case b.turn != "" && b.turn != id:
		return RollResult{}, ErrNotYourTurn
	}

	// first mover takes the turn
	if b.turn == "" {
		b.turn = id
	}

	roll := b.die.Roll()
	from := b.positions[id]
	to := min(from+roll, FinalPosition)
	b.positions[id] = to
	b.lastRoll = roll
	b.lastRoller = id
	b.turn = b.next(id)

	return RollResult{
		Player:   id,
		Roll:     roll,
		From:     from,
		To:       to,
		Finished: to == FinalPosition,
	}, nil
}

// Leave drops the participant. A leaving turn holder passes the turn to
// whoever followed them; with fewer than two left the turn is unset.
func (b *Board) Leave(id string) bool {
	idx := slices.Index(b.order, id)
	if idx < 0 {
		return false
	}
	b.order = slices.Delete(b.order, idx, idx+1)
	switch {
	case len(b.order) < 2:
		b.turn = ""
	case b.turn == id:
		b.turn = b.order[idx%len(b.order)]
	}
	delete(b.positions, id)
	b.identities.Remove(id)
	if b.lastRoller == id {
		b.lastRoller = ""
		b.lastRoll = 0
	}
	return true
}

func (b *Board) Reset() error {
	if b.Phase() != PhaseFinished {
		return ErrGameInProgress
	}
	for id := range b.positions {
		b.positions[id] = StartPosition
	}
	b.turn = ""
	b.lastRoll = 0
	b.lastRoller = ""
	return nil
}

func (b *Board) Phase() Phase {
	for _, pos := range b.positions {
		if pos >= FinalPosition {
			return PhaseFinished
		}
	}
	if b.turn == "" || len(b.order) < 2 {
		return PhaseLobby
	}
	return PhaseInProgress
}

// Winner returns the participant at the final position, if any.
func (b *Board) Winner() (string, bool) {
	for _, id := range b.order {
		if b.positions[id] >= FinalPosition {
			return id, true
		}
	}
	return "", false
}

func (b *Board) Participants() []string { return slices.Clone(b.order) }

func (b *Board) Len() int { return len(b.order) }

func (b *Board) Turn() string { return b.turn }

func (b *Board) Position(id string) (int, bool) {
	pos, ok := b.positions[id]
	return pos, ok
}

func (b *Board) Snapshot() Snapshot {
	positions := make(map[string]int, len(b.positions))
	for id, pos := range b.positions {
		positions[id] = pos
	}
	return Snapshot{
		Order:     slices.Clone(b.order),
		Positions: positions,
		Players:   b.identities.All(),
		Turn:      b.turn,
		LastRoll:  b.lastRoll,
		Player:    b.lastRoller,
		Phase:     b.Phase(),
	}
}

func (b *Board) next(id string) string {
	idx := slices.Index(b.order, id)
	return b.order[(idx+1)%len(b.order)]
}
