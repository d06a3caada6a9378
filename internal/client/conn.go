package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"slide_to_glory/internal/logger"
	"slide_to_glory/internal/protocol"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session full")
	ErrClosed          = errors.New("connection closed")
	ErrSendQueueFull   = errors.New("send queue full")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	queueSize  = 16
)

// Conn is the network side of a player. Decoded server messages come out of
// Inbound; sends are queued and never wait for the server.
type Conn struct {
	Self string

	ws   *websocket.Conn
	in   chan protocol.Message
	out  chan []byte
	done chan struct{}
}

// WSURL turns an http(s) base URL into the socket URL for token and username.
func WSURL(base, token, username string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path += "/ws/" + token + "/" + username
	return u.String(), nil
}

// Dial opens the socket. The server refuses an unknown session with 404 and a
// session that already seats two other players with 409.
func Dial(ctx context.Context, base, token, username string) (*Conn, error) {
	addr, err := WSURL(base, token, username)
	if err != nil {
		return nil, err
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return nil, ErrSessionNotFound
			case http.StatusConflict:
				return nil, ErrSessionFull
			}
		}
		return nil, err
	}
	return &Conn{
		Self: username,
		ws:   ws,
		in:   make(chan protocol.Message, queueSize),
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}, nil
}

// Inbound is closed when Run returns.
func (c *Conn) Inbound() <-chan protocol.Message { return c.in }

// Run pumps the socket until ctx is cancelled or either side fails.
func (c *Conn) Run(ctx context.Context) error {
	defer close(c.done)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(c.in)
		return c.readPump(ctx)
	})
	g.Go(func() error {
		return c.writePump(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		// unblocks the read pump
		_ = c.ws.Close()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (c *Conn) readPump(ctx context.Context) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.ws.SetPingHandler(func(data string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		var msg protocol.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosed
			}
			return err
		}
		select {
		case c.in <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return ctx.Err()
		}
	}
}

func (c *Conn) send(in protocol.Inbound) error {
	data, err := protocol.EncodeInbound(in)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
		logger.Warn("dropping outbound message", "player", c.Self)
		return ErrSendQueueFull
	}
}

func (c *Conn) Roll() error {
	return c.send(protocol.Roll{Player: c.Self})
}

func (c *Conn) AnnounceIdentity(name, avatar string) error {
	return c.send(protocol.PlayerInfo{DisplayName: name, DisplayAvatar: avatar})
}

func (c *Conn) Reset() error {
	return c.send(protocol.Reset{})
}
