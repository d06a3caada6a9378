package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"slide_to_glory/internal/domain"
	"slide_to_glory/internal/game"
	"slide_to_glory/internal/protocol"
)

const within = 500 * time.Millisecond

// helper: receive one message with a timeout so tests never hang
func recv(t *testing.T, c *Client) protocol.Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send queue of %s closed unexpectedly", c.PlayerID)
		var msg protocol.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message to %s", c.PlayerID)
		return protocol.Message{}
	}
}

func recvType(t *testing.T, c *Client, typ string) protocol.Message {
	t.Helper()
	msg := recv(t, c)
	require.Equal(t, typ, msg.Type, "unexpected message for %s: %+v", c.PlayerID, msg)
	return msg
}

func recvNothing(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			return
		}
		t.Fatalf("expected no message for %s, got %s", c.PlayerID, data)
	case <-time.After(wait):
	}
}

func send(t *testing.T, c *Client, in protocol.Inbound) {
	t.Helper()
	data, err := protocol.EncodeInbound(in)
	require.NoError(t, err)
	require.True(t, c.room.Submit(c, data))
}

func newTestHub(stats StatsRecorder, rolls ...int) *Hub {
	return NewHub(stats, WithDie(func() game.Die { return &game.FixedDie{Rolls: rolls} }))
}

func attach(t *testing.T, h *Hub, token, id string) *Client {
	t.Helper()
	c := NewClient(id, nil, h)
	_, err := h.Attach(token, c)
	require.NoError(t, err)
	return c
}

// startTwoPlayer attaches p1 then p2 and drains the join traffic.
func startTwoPlayer(t *testing.T, h *Hub) (string, *Client, *Client) {
	t.Helper()
	token := h.Create()
	p1 := attach(t, h, token, "p1")
	recvType(t, p1, protocol.TypeGameState)
	p2 := attach(t, h, token, "p2")
	recvType(t, p2, protocol.TypeGameState)
	recvType(t, p1, protocol.TypeNotice)
	return token, p1, p2
}

func TestHub_AttachUnknownSession(t *testing.T) {
	h := newTestHub(nil)
	_, err := h.Attach("nope", NewClient("p1", nil, h))
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.False(t, h.Exists("nope"))
}

func TestHub_CreateRegistersEmptyLobby(t *testing.T) {
	h := newTestHub(nil)
	token := h.Create()
	require.True(t, h.Exists(token))

	room, ok := h.Room(token)
	require.True(t, ok)
	view, err := room.View(context.Background())
	require.NoError(t, err)
	require.Zero(t, view.Connections)
	require.Empty(t, view.Snapshot.Order)
	require.Equal(t, game.PhaseLobby, view.Snapshot.Phase)
}

func TestRoom_JoinSendsSnapshotToJoinerAndNoticeToOthers(t *testing.T) {
	h := newTestHub(nil)
	token := h.Create()

	p1 := attach(t, h, token, "p1")
	first := recvType(t, p1, protocol.TypeGameState)
	require.Equal(t, map[string]int{"p1": 0}, first.Positions)
	require.Empty(t, first.Turn)

	p2 := attach(t, h, token, "p2")
	state := recvType(t, p2, protocol.TypeGameState)
	require.Equal(t, []string{"p1", "p2"}, state.Order)
	require.Equal(t, map[string]int{"p1": 0, "p2": 0}, state.Positions)

	notice := recvType(t, p1, protocol.TypeNotice)
	require.Equal(t, "p2 joined the game!", notice.Message)
	recvNothing(t, p2, 50*time.Millisecond)
}

func TestRoom_FirstRollFlipsTurn(t *testing.T) {
	h := newTestHub(nil, 4)
	_, p1, p2 := startTwoPlayer(t, h)

	send(t, p1, protocol.Roll{Player: "p1"})

	for _, c := range []*Client{p1, p2} {
		upd := recvType(t, c, protocol.TypeStateUpdate)
		require.Equal(t, 4, upd.Positions["p1"])
		require.Equal(t, "p2", upd.Turn)
		require.Equal(t, 4, upd.LastRoll)
		require.Equal(t, "p1", upd.Player)
		require.Equal(t, game.PhaseInProgress, upd.Phase)
	}
}

func TestRoom_OutOfTurnRollIsSilent(t *testing.T) {
	h := newTestHub(nil, 3)
	_, p1, p2 := startTwoPlayer(t, h)

	send(t, p1, protocol.Roll{})
	recvType(t, p1, protocol.TypeStateUpdate)
	recvType(t, p2, protocol.TypeStateUpdate)

	send(t, p1, protocol.Roll{})
	recvNothing(t, p1, 100*time.Millisecond)
	recvNothing(t, p2, 20*time.Millisecond)

	room, _ := h.Room(p1.room.Token)
	view, err := room.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, view.Snapshot.Positions["p1"])
	require.Equal(t, "p2", view.Snapshot.Turn)
}

func TestRoom_MalformedMessageIsDropped(t *testing.T) {
	h := newTestHub(nil, 2)
	_, p1, p2 := startTwoPlayer(t, h)

	require.True(t, p1.room.Submit(p1, []byte(`{"action":`)))
	require.True(t, p1.room.Submit(p1, []byte(`{"action":"teleport"}`)))
	recvNothing(t, p2, 50*time.Millisecond)

	send(t, p1, protocol.Roll{})
	recvType(t, p2, protocol.TypeStateUpdate)
}

func TestRoom_PlayerInfoConvergesInAnyOrder(t *testing.T) {
	ana := protocol.PlayerInfo{DisplayName: "Ana", DisplayAvatar: "🐍"}
	bo := protocol.PlayerInfo{DisplayName: "Bo", DisplayAvatar: "😎"}

	final := func(p1First bool) map[string]game.Identity {
		h := newTestHub(nil)
		_, p1, p2 := startTwoPlayer(t, h)
		if p1First {
			send(t, p1, ana)
			send(t, p2, bo)
		} else {
			send(t, p2, bo)
			send(t, p1, ana)
		}
		recvType(t, p1, protocol.TypePlayerInfoUpdate)
		recvType(t, p2, protocol.TypePlayerInfoUpdate)
		last1 := recvType(t, p1, protocol.TypePlayerInfoUpdate)
		last2 := recvType(t, p2, protocol.TypePlayerInfoUpdate)
		require.Equal(t, last1.Players, last2.Players)
		return last1.Players
	}

	want := map[string]game.Identity{
		"p1": {DisplayName: "Ana", DisplayAvatar: "🐍"},
		"p2": {DisplayName: "Bo", DisplayAvatar: "😎"},
	}
	require.Equal(t, want, final(true))
	require.Equal(t, want, final(false))
}

func TestRoom_ReannouncingIdentityIsIdempotent(t *testing.T) {
	h := newTestHub(nil)
	_, p1, p2 := startTwoPlayer(t, h)
	ana := protocol.PlayerInfo{DisplayName: "Ana", DisplayAvatar: "🐍"}

	send(t, p1, ana)
	first := recvType(t, p2, protocol.TypePlayerInfoUpdate)
	send(t, p1, ana)
	second := recvType(t, p2, protocol.TypePlayerInfoUpdate)
	require.Equal(t, first, second)
}

func TestRoom_DisconnectBroadcastsLeaveNotice(t *testing.T) {
	h := newTestHub(nil, 5)
	_, p1, p2 := startTwoPlayer(t, h)

	send(t, p1, protocol.Roll{})
	recvType(t, p1, protocol.TypeStateUpdate)
	recvType(t, p2, protocol.TypeStateUpdate)

	h.Detach(p2)

	notice := recvType(t, p1, protocol.TypeNotice)
	require.Equal(t, "p2 left the game.", notice.Message)
	require.Equal(t, map[string]int{"p1": 5}, notice.Positions)
	require.NotContains(t, notice.Players, "p2")
	require.Empty(t, notice.Turn)
	require.Equal(t, game.PhaseLobby, notice.Phase)
}

func TestHub_RefusesThirdParticipant(t *testing.T) {
	h := newTestHub(nil)
	token, p1, p2 := startTwoPlayer(t, h)

	require.ErrorIs(t, h.CanJoin(context.Background(), token, "p3"), game.ErrSessionFull)
	require.NoError(t, h.CanJoin(context.Background(), token, "p1"))

	p3 := NewClient("p3", nil, h)
	_, err := h.Attach(token, p3)
	require.ErrorIs(t, err, game.ErrSessionFull)
	require.Nil(t, p3.room)
	recvNothing(t, p1, 50*time.Millisecond)
	recvNothing(t, p2, 20*time.Millisecond)

	room, _ := h.Room(token)
	h.mu.RLock()
	conns := room.conns
	h.mu.RUnlock()
	require.Equal(t, 2, conns)

	view, err := room.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, view.Snapshot.Order)
	require.Equal(t, 2, view.Connections)
}

func TestHub_AttachToStoppedRoomRollsBack(t *testing.T) {
	h := newTestHub(nil)
	token := h.Create()
	room, _ := h.Room(token)
	require.True(t, room.submit(stopMsg{}))
	<-room.Done()

	c := NewClient("p1", nil, h)
	_, err := h.Attach(token, c)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Nil(t, c.room)

	h.mu.RLock()
	conns := room.conns
	h.mu.RUnlock()
	require.Zero(t, conns)
	require.False(t, h.Exists(token))

	h.Detach(c) // no-op after a failed attach
}

func TestRoom_IgnoresInboundFromDroppedClient(t *testing.T) {
	h := newTestHub(nil, 2)
	token, p1, p2 := startTwoPlayer(t, h)

	// a stalled reader: p1's queue is full, so the next broadcast drops it
	for i := 0; i < sendBuffer; i++ {
		p1.Send <- []byte(`{}`)
	}
	send(t, p2, protocol.PlayerInfo{DisplayName: "Bo", DisplayAvatar: "😎"})
	recvType(t, p2, protocol.TypePlayerInfoUpdate)

	send(t, p1, protocol.Roll{})
	recvNothing(t, p2, 100*time.Millisecond)

	room, _ := h.Room(token)
	view, err := room.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"p1": 0, "p2": 0}, view.Snapshot.Positions)
	require.Empty(t, view.Snapshot.Turn)
	require.Equal(t, 1, view.Connections)
}

func TestHub_LastDetachDestroysSession(t *testing.T) {
	h := newTestHub(nil)
	token, p1, p2 := startTwoPlayer(t, h)
	room, _ := h.Room(token)

	h.Detach(p1)
	require.True(t, h.Exists(token))
	h.Detach(p2)
	h.Detach(p2) // second detach is a no-op

	require.False(t, h.Exists(token))
	_, err := h.Attach(token, NewClient("p3", nil, h))
	require.ErrorIs(t, err, ErrSessionNotFound)

	select {
	case <-room.Done():
	case <-time.After(within):
		t.Fatal("room goroutine did not exit")
	}
}

func TestRoom_StaleConnectionKeepsParticipant(t *testing.T) {
	h := newTestHub(nil, 6)
	token, p1, p2 := startTwoPlayer(t, h)

	send(t, p1, protocol.Roll{})
	recvType(t, p1, protocol.TypeStateUpdate)
	recvType(t, p2, protocol.TypeStateUpdate)

	// p1 reconnects before the old socket is noticed as dead
	p1b := attach(t, h, token, "p1")
	state := recvType(t, p1b, protocol.TypeGameState)
	require.Equal(t, 6, state.Positions["p1"])
	recvType(t, p2, protocol.TypeNotice)

	h.Detach(p1)
	recvNothing(t, p2, 50*time.Millisecond)

	room, _ := h.Room(token)
	view, err := room.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, view.Snapshot.Order)
	require.Equal(t, 6, view.Snapshot.Positions["p1"])
	require.Equal(t, 2, view.Connections)
}

type fakeStats struct {
	mu      sync.Mutex
	results map[string]domain.GameResult
	done    chan struct{}
}

func (f *fakeStats) UpdateStats(_ context.Context, username string, result domain.GameResult, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[username] = result
	if len(f.results) == 2 {
		close(f.done)
	}
	return nil
}

func TestRoom_FinishRecordsStatsAndAllowsReset(t *testing.T) {
	stats := &fakeStats{results: map[string]domain.GameResult{}, done: make(chan struct{})}
	h := newTestHub(stats, 6)
	_, p1, p2 := startTwoPlayer(t, h)

	current, other := p1, p2
	for i := 0; i < 40; i++ {
		send(t, current, protocol.Roll{})
		upd := recvType(t, p1, protocol.TypeStateUpdate)
		recvType(t, p2, protocol.TypeStateUpdate)
		if upd.Phase == game.PhaseFinished {
			require.Equal(t, game.FinalPosition, upd.Positions["p1"])
			break
		}
		current, other = other, current
	}

	select {
	case <-stats.done:
	case <-time.After(within):
		t.Fatal("stats were not recorded")
	}
	require.Equal(t, domain.GameResultWin, stats.results["p1"])
	require.Equal(t, domain.GameResultLoss, stats.results["p2"])

	// finished games only accept reset
	send(t, p2, protocol.Roll{})
	recvNothing(t, p1, 50*time.Millisecond)

	send(t, p2, protocol.Reset{})
	recvType(t, p1, protocol.TypeReset)
	state := recvType(t, p1, protocol.TypeGameState)
	require.Equal(t, map[string]int{"p1": 0, "p2": 0}, state.Positions)
	require.Empty(t, state.Turn)
	require.Equal(t, game.PhaseLobby, state.Phase)
}

func TestHub_CleanupReapsNeverAttachedSessions(t *testing.T) {
	h := newTestHub(nil)
	stale := h.Create()
	live := h.Create()
	c := attach(t, h, live, "p1")
	recvType(t, c, protocol.TypeGameState)

	require.Equal(t, 1, h.cleanupStaleRooms(-time.Second))
	require.False(t, h.Exists(stale))
	require.True(t, h.Exists(live))
}
