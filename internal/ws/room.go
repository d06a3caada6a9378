package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/game"
	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/protocol"
)

// StatsRecorder receives the outcome of every finished game.
type StatsRecorder interface {
	UpdateStats(ctx context.Context, username string, result domain.GameResult, duration time.Duration) error
}

type roomMsg interface{ isRoomMsg() }

type joinMsg struct {
	client *Client
	reply  chan error
}

type leaveMsg struct {
	client *Client
	last   bool // the hub already forgot this room
}

type inboundMsg struct {
	client *Client
	data   []byte
}

type viewMsg struct{ reply chan View }

type stopMsg struct{}

func (joinMsg) isRoomMsg()    {}
func (leaveMsg) isRoomMsg()   {}
func (inboundMsg) isRoomMsg() {}
func (viewMsg) isRoomMsg()    {}
func (stopMsg) isRoomMsg()    {}

// View is a read-only copy of a room for callers outside the room goroutine.
type View struct {
	Token       string
	Connections int
	Snapshot    game.Snapshot
}

// Room owns one session. Every mutation of its board happens on the Run
// goroutine, in inbox order.
type Room struct {
	Token string

	inbox chan roomMsg
	done  chan struct{}

	board     *game.Board
	clients   map[*Client]struct{}
	stats     StatsRecorder
	log       *slog.Logger
	createdAt time.Time
	startedAt time.Time

	// guarded by Hub.mu
	conns    int
	attached bool
}

func NewRoom(token string, die game.Die, stats StatsRecorder) *Room {
	return &Room{
		Token:     token,
		inbox:     make(chan roomMsg, 64),
		done:      make(chan struct{}),
		board:     game.NewBoard(die),
		clients:   make(map[*Client]struct{}),
		stats:     stats,
		log:       logger.Session(token),
		createdAt: time.Now(),
	}
}

func (r *Room) Run() {
	defer close(r.done)
	r.log.Debug("room started")

	for m := range r.inbox {
		switch msg := m.(type) {
		case joinMsg:
			msg.reply <- r.handleJoin(msg.client)

		case leaveMsg:
			r.handleLeave(msg.client)
			if msg.last {
				r.log.Info("room is empty, closing")
				r.closeAll()
				return
			}

		case inboundMsg:
			r.handleInbound(msg.client, msg.data)

		case viewMsg:
			msg.reply <- View{
				Token:       r.Token,
				Connections: len(r.clients),
				Snapshot:    r.board.Snapshot(),
			}

		case stopMsg:
			r.log.Info("room stopped")
			r.closeAll()
			return
		}
	}
}

// submit never blocks on a room that has already exited.
func (r *Room) submit(m roomMsg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.done:
		return false
	}
}

// Submit hands a raw inbound payload from c to the room.
func (r *Room) Submit(c *Client, data []byte) bool {
	return r.submit(inboundMsg{client: c, data: data})
}

// View asks the room goroutine for a consistent copy of its state.
func (r *Room) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !r.submit(viewMsg{reply: reply}) {
		return View{}, ErrSessionNotFound
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return View{}, ErrSessionNotFound
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Done is closed once the room goroutine has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) handleJoin(c *Client) error {
	added, err := r.board.Join(c.PlayerID)
	if err != nil {
		r.log.Info("join refused", "player", c.PlayerID, "error", err)
		return err
	}
	r.clients[c] = struct{}{}
	if added {
		r.log.Info("player joined", "player", c.PlayerID, "players", r.board.Len())
	} else {
		pos, _ := r.board.Position(c.PlayerID)
		r.log.Info("player reconnected", "player", c.PlayerID, "position", pos)
	}

	snap := r.board.Snapshot()
	r.sendTo(c, protocol.GameState(snap))
	r.broadcastExcept(c, protocol.Notice(protocol.JoinedNotice(c.PlayerID), snap))
	return nil
}

func (r *Room) handleLeave(c *Client) {
	r.removeClient(c)

	if r.hasConnection(c.PlayerID) {
		// an older socket of a reconnecting player closed late
		r.log.Info("stale connection closed", "player", c.PlayerID)
		return
	}

	r.board.Leave(c.PlayerID)
	r.log.Info("player left", "player", c.PlayerID, "players", r.board.Len())

	if len(r.clients) > 0 {
		r.broadcast(protocol.Notice(protocol.LeftNotice(c.PlayerID), r.board.Snapshot()))
	}
}

func (r *Room) handleInbound(c *Client, data []byte) {
	if _, ok := r.clients[c]; !ok {
		// dropped for a full buffer; its leave is still on the way
		InboundMessages.WithLabelValues("detached", "dropped").Inc()
		return
	}
	in, err := protocol.DecodeInbound(data)
	if err != nil {
		r.log.Warn("dropping inbound message", "player", c.PlayerID, "error", err)
		InboundMessages.WithLabelValues("invalid", "dropped").Inc()
		return
	}

	switch v := in.(type) {
	case protocol.PlayerInfo:
		ident := game.Identity{DisplayName: v.DisplayName, DisplayAvatar: v.DisplayAvatar}
		if err := r.board.Announce(c.PlayerID, ident); err != nil {
			r.log.Warn("player_info rejected", "player", c.PlayerID, "error", err)
			InboundMessages.WithLabelValues(protocol.ActionPlayerInfo, "rejected").Inc()
			return
		}
		InboundMessages.WithLabelValues(protocol.ActionPlayerInfo, "ok").Inc()
		r.broadcast(protocol.PlayerInfoUpdate(r.board.Snapshot()))

	case protocol.Roll:
		opening := r.board.Turn() == ""
		res, err := r.board.Roll(c.PlayerID)
		if err != nil {
			r.log.Debug("roll ignored", "player", c.PlayerID, "claimed", v.Player, "error", err)
			InboundMessages.WithLabelValues(protocol.ActionRoll, "rejected").Inc()
			return
		}
		if opening {
			r.startedAt = time.Now()
		}
		InboundMessages.WithLabelValues(protocol.ActionRoll, "ok").Inc()
		Rolls.Inc()
		r.log.Debug("rolled", "player", res.Player, "roll", res.Roll, "from", res.From, "to", res.To)

		r.broadcast(protocol.StateUpdate(r.board.Snapshot()))
		if res.Finished {
			r.finishGame()
		}

	case protocol.Reset:
		if err := r.board.Reset(); err != nil {
			r.log.Debug("reset ignored", "player", c.PlayerID, "error", err)
			InboundMessages.WithLabelValues(protocol.ActionReset, "rejected").Inc()
			return
		}
		InboundMessages.WithLabelValues(protocol.ActionReset, "ok").Inc()
		r.log.Info("game reset", "player", c.PlayerID)
		r.broadcast(protocol.ResetMessage())
		r.broadcast(protocol.GameState(r.board.Snapshot()))
	}
}

func (r *Room) finishGame() {
	winner, ok := r.board.Winner()
	if !ok {
		return
	}
	GamesFinished.Inc()
	var duration time.Duration
	if !r.startedAt.IsZero() {
		duration = time.Since(r.startedAt).Round(time.Second)
	}
	r.log.Info("game finished", "winner", winner, "duration", duration)

	if r.stats == nil {
		return
	}

	players := r.board.Participants()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, p := range players {
			result := domain.GameResultLoss
			if p == winner {
				result = domain.GameResultWin
			}
			if err := r.stats.UpdateStats(ctx, p, result, duration); err != nil {
				r.log.Warn("stats update failed", "player", p, "error", err)
			}
		}
	}()
}

func (r *Room) hasConnection(playerID string) bool {
	for c := range r.clients {
		if c.PlayerID == playerID {
			return true
		}
	}
	return false
}

// removeClient closes the client's send queue exactly once; its write pump
// then closes the socket.
func (r *Room) removeClient(c *Client) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	close(c.Send)
}

func (r *Room) closeAll() {
	for c := range r.clients {
		r.removeClient(c)
	}
}

func (r *Room) encode(msg protocol.Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal failed", "type", msg.Type, "error", err)
		return nil, false
	}
	return data, true
}

func (r *Room) sendTo(c *Client, msg protocol.Message) {
	data, ok := r.encode(msg)
	if !ok {
		return
	}
	r.deliver(c, data)
}

func (r *Room) deliver(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		r.log.Warn("send buffer full, dropping client", "player", c.PlayerID)
		SlowClientsDropped.Inc()
		r.removeClient(c)
	}
}

func (r *Room) broadcast(msg protocol.Message) {
	r.broadcastExcept(nil, msg)
}

func (r *Room) broadcastExcept(skip *Client, msg protocol.Message) {
	data, ok := r.encode(msg)
	if !ok {
		return
	}
	for c := range r.clients {
		if c == skip {
			continue
		}
		r.deliver(c, data)
	}
}
