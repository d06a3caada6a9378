package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"slide_to_glory/internal/client"
	"slide_to_glory/internal/protocol"
)

// Drives two players against a running server until one wins or the
// deadline passes.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := flag.String("base", "http://127.0.0.1:"+port, "server base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "give up after")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sess, err := client.NewAPI(*base).CreateSession(ctx)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	fmt.Println("session", sess.SessionID, "invite", sess.InviteLink)

	a := connect(ctx, *base, sess.SessionID, "smokeA", true)
	b := connect(ctx, *base, sess.SessionID, "smokeB", false)

	_ = a.conn.AnnounceIdentity("Smoke A", "🅰️")
	_ = b.conn.AnnounceIdentity("Smoke B", "🅱️")

	players := []*smokePlayer{a, b}
	for {
		for _, p := range players {
			select {
			case msg, ok := <-p.conn.Inbound():
				if !ok {
					log.Fatalf("%s: connection closed", p.conn.Self)
				}
				p.view.Apply(msg)
				if msg.Type == protocol.TypeStateUpdate {
					fmt.Printf("%s sees: %s\n", p.conn.Self, p.view.Status())
				}
				if w, won := p.view.Winner(); won {
					fmt.Printf("winner: %s (%s)\n", w.Name, w.ID)
					return
				}
				if p.view.CanRoll() {
					_ = p.conn.Roll()
				}
			case <-time.After(50 * time.Millisecond):
			case <-ctx.Done():
				log.Fatalf("smoke test timed out: %v", ctx.Err())
			}
		}
	}
}

type smokePlayer struct {
	conn *client.Conn
	view *client.Reconciler
}

func connect(ctx context.Context, base, token, name string, host bool) *smokePlayer {
	conn, err := client.Dial(ctx, base, token, name)
	if err != nil {
		log.Fatalf("dial %s: %v", name, err)
	}
	go func() {
		if err := conn.Run(ctx); err != nil {
			log.Printf("%s: %v", name, err)
		}
	}()
	return &smokePlayer{conn: conn, view: client.NewReconciler(name, host)}
}
