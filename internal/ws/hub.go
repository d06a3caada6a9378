package ws

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"slide_to_glory/internal/game"
	"slide_to_glory/internal/logger"
)

var ErrSessionNotFound = errors.New("session not found")

// Hub is the session store: token -> room. Rooms never share a lock; the hub
// lock only covers the map and the per-room connection counts.
type Hub struct {
	Rooms map[string]*Room
	mu    sync.RWMutex

	stats  StatsRecorder
	newDie func() game.Die
}

type HubOption func(*Hub)

// WithDie overrides the dice used by newly created rooms.
func WithDie(f func() game.Die) HubOption {
	return func(h *Hub) { h.newDie = f }
}

func NewHub(stats StatsRecorder, opts ...HubOption) *Hub {
	h := &Hub{
		Rooms:  make(map[string]*Room),
		stats:  stats,
		newDie: func() game.Die { return game.CryptoDie{} },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create registers an empty session and returns its token.
func (h *Hub) Create() string {
	token := uuid.NewString()
	room := NewRoom(token, h.newDie(), h.stats)

	h.mu.Lock()
	h.Rooms[token] = room
	h.mu.Unlock()

	SessionsActive.Inc()
	logger.Info("session created", "session", token)
	go room.Run()
	return token
}

func (h *Hub) Exists(token string) bool {
	_, ok := h.Room(token)
	return ok
}

func (h *Hub) Room(token string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.Rooms[token]
	return r, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Rooms)
}

// CanJoin reports whether id would be seated in the session right now.
func (h *Hub) CanJoin(ctx context.Context, token, id string) error {
	room, ok := h.Room(token)
	if !ok {
		return ErrSessionNotFound
	}
	v, err := room.View(ctx)
	if err != nil {
		return err
	}
	order := v.Snapshot.Order
	if len(order) >= game.MaxParticipants && !slices.Contains(order, id) {
		return game.ErrSessionFull
	}
	return nil
}

// Attach registers c with the session and waits for the room to seat it.
// A third distinct participant is refused with game.ErrSessionFull.
func (h *Hub) Attach(token string, c *Client) (*Room, error) {
	h.mu.Lock()
	room, ok := h.Rooms[token]
	if !ok {
		h.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	room.conns++
	room.attached = true
	c.room = room
	h.mu.Unlock()

	ConnectionsActive.Inc()
	reply := make(chan error, 1)
	if !room.submit(joinMsg{client: c, reply: reply}) {
		h.abortAttach(c)
		return nil, ErrSessionNotFound
	}

	var err error
	select {
	case err = <-reply:
	case <-room.done:
		err = ErrSessionNotFound
	}
	if err != nil {
		h.abortAttach(c)
		return nil, err
	}
	return room, nil
}

// abortAttach undoes the bookkeeping of an attach the room never accepted.
func (h *Hub) abortAttach(c *Client) {
	c.detachOnce.Do(func() {
		h.mu.Lock()
		room := c.room
		c.room = nil
		last := h.release(room)
		h.mu.Unlock()

		ConnectionsActive.Dec()
		if last {
			room.submit(stopMsg{})
		}
	})
}

// Detach removes c from its session. The last connection out destroys the
// session: the token is unknown from this point on.
func (h *Hub) Detach(c *Client) {
	c.detachOnce.Do(func() {
		h.mu.Lock()
		room := c.room
		if room == nil {
			h.mu.Unlock()
			return
		}
		last := h.release(room)
		h.mu.Unlock()

		ConnectionsActive.Dec()
		room.submit(leaveMsg{client: c, last: last})
	})
}

// release drops one connection from room and forgets the room when it was
// the last one. Caller holds mu.
func (h *Hub) release(room *Room) bool {
	room.conns--
	if room.conns > 0 {
		return false
	}
	if h.Rooms[room.Token] == room {
		delete(h.Rooms, room.Token)
		SessionsActive.Dec()
	}
	return true
}

// StartCleanup reaps sessions that were created but never attached to.
func (h *Hub) StartCleanup(ctx context.Context, ttl, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.cleanupStaleRooms(ttl)
			}
		}
	}()
}

func (h *Hub) cleanupStaleRooms(ttl time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, room := range h.Rooms {
		if room.attached || room.conns > 0 || now.Sub(room.createdAt) <= ttl {
			continue
		}
		delete(h.Rooms, token)
		SessionsActive.Dec()
		room.submit(stopMsg{})
		removed++
		logger.Info("cleaned up stale session", "session", token)
	}
	return removed
}

// Shutdown stops every room and forgets all sessions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := h.Rooms
	h.Rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		SessionsActive.Dec()
		room.submit(stopMsg{})
	}
}
