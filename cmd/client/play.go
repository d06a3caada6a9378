package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"slide_to_glory/internal/client"
	"slide_to_glory/internal/game"
	"slide_to_glory/internal/logger"
)

const help = "commands: r (roll), reset, name <display name>, avatar <avatar>, stats [player], q (quit)"

// Play is the interactive loop. It is the only goroutine that touches the
// reconciler; the socket and stdin feed it through channels.
func Play(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	logger.InitWriter(os.Stderr, cfg.logLevel, false)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	api := client.NewAPI(cfg.server)
	if cfg.password != "" {
		if err := api.Login(ctx, cfg.username, cfg.password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	token := client.TokenFromInvite(cfg.join)
	if cfg.hosting() {
		sess, err := api.CreateSession(ctx)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		token = sess.SessionID
		fmt.Fprintf(out, "Hosting. Share this invite: %s\n", sess.InviteLink)
		fmt.Fprintf(out, "QR code: %s/qr.png\n", sess.InviteLink)
	}

	conn, err := client.Dial(ctx, cfg.server, token, cfg.username)
	if err != nil {
		return fmt.Errorf("join %s: %w", token, err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(ctx) }()

	me := game.Identity{DisplayName: cfg.displayName(), DisplayAvatar: cfg.avatar}
	if err := conn.AnnounceIdentity(me.DisplayName, me.DisplayAvatar); err != nil {
		logger.Warn("announce failed", "error", err)
	}

	view := client.NewReconciler(cfg.username, cfg.hosting())
	lines := readLines(ctx, in)
	fmt.Fprintln(out, help)

	for {
		select {
		case msg, ok := <-conn.Inbound():
			if !ok {
				fmt.Fprintln(out, "Disconnected.")
				return <-runErr
			}
			view.Apply(msg)
			render(out, view)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := command(ctx, out, api, conn, view, cfg, &me, line); quit {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func command(ctx context.Context, out io.Writer, api *client.API, conn *client.Conn, view *client.Reconciler, cfg *Config, me *game.Identity, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "r", "roll":
		if !view.CanRoll() {
			fmt.Fprintln(out, "Not your turn.")
			return false
		}
		err = conn.Roll()
	case "reset":
		err = conn.Reset()
	case "name", "avatar":
		next, ierr := identityCommand(fields, *me)
		if ierr != nil {
			fmt.Fprintln(out, ierr)
			return false
		}
		*me = next
		err = conn.AnnounceIdentity(me.DisplayName, me.DisplayAvatar)
	case "stats":
		who := cfg.username
		if len(fields) > 1 {
			who = strings.Join(fields[1:], " ")
			if id, ok := view.PlayerID(who); ok {
				who = id
			}
		}
		s, serr := api.Stats(ctx, who)
		if serr != nil {
			err = serr
			break
		}
		fmt.Fprintf(out, "%s: %d wins, %d losses, fastest win %ds\n", s.Username, s.Wins, s.Losses, s.FastestWinSeconds)
	case "q", "quit", "exit":
		return true
	default:
		fmt.Fprintln(out, help)
	}
	if err != nil {
		fmt.Fprintln(out, "error:", err)
	}
	return false
}

// identityCommand applies "name <display name>" or "avatar <avatar>" to cur.
// Display names may contain spaces.
func identityCommand(fields []string, cur game.Identity) (game.Identity, error) {
	value := strings.Join(fields[1:], " ")
	switch fields[0] {
	case "name":
		if value == "" {
			return cur, errors.New("usage: name <display name>")
		}
		cur.DisplayName = value
	case "avatar":
		if value == "" {
			return cur, errors.New("usage: avatar <avatar>")
		}
		cur.DisplayAvatar = value
	default:
		return cur, fmt.Errorf("unknown identity command %q", fields[0])
	}
	return cur, nil
}

func render(out io.Writer, view *client.Reconciler) {
	turnSlot, hasTurn := view.TurnSlot()
	for i, s := range view.Slots() {
		marker := "  "
		if hasTurn && i == turnSlot {
			marker = "> "
		}
		if s.ID == "" {
			fmt.Fprintf(out, "%sslot %d: (empty)\n", marker, i)
			continue
		}
		you := ""
		if i == view.OwnSlot() {
			you = " (you)"
		}
		fmt.Fprintf(out, "%sslot %d: %s %s%s at %d\n", marker, i, s.Avatar, s.Name, you, s.Position)
	}
	fmt.Fprintln(out, view.Status())
	if view.CanRoll() {
		fmt.Fprintln(out, "Your roll. Type r.")
	}
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
