package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/certportal/internal/client/guard"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Navigate(ctx context.Context, path string, args []string) error
	Back(ctx context.Context) error
	Help(ctx context.Context) error
	Menu(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Refresh(ctx context.Context) error
	Stats(ctx context.Context) error
	Verify(ctx context.Context, id string) error
	Reject(ctx context.Context, id, reason string) error
}

// runREPL starts a simple read–eval–print loop for the portal client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Pages are opened by name or by path:
//
//	home | login | register | dashboard   open that page
//	upload [path]                         upload a certificate
//	admin [page]                          admin console
//	go <path> [args...]                   open any route by path
//	back                                  previous page
//
// Commands:
//
//	help, menu, whoami, refresh, logout
//	stats, verify <id>, reject <id> [reason...]   (admin)
//	exit | quit
//
// Errors returned by command handlers are not fatal; handlers print what
// the user needs to see.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "certportal %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			_ = a.Help(ctx)

		case "menu":
			_ = a.Menu(ctx)

		case "home":
			_ = a.Navigate(ctx, guard.PathHome, nil)

		case "login":
			_ = a.Navigate(ctx, guard.PathLogin, nil)

		case "register":
			_ = a.Navigate(ctx, guard.PathRegister, nil)

		case "dashboard":
			_ = a.Navigate(ctx, guard.PathDashboard, nil)

		case "upload":
			_ = a.Navigate(ctx, guard.PathUpload, args)

		case "admin":
			_ = a.Navigate(ctx, guard.PathAdmin, args)

		case "go":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: go <path>")
				continue
			}
			_ = a.Navigate(ctx, args[0], args[1:])

		case "back":
			_ = a.Back(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "verify":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: verify <id>")
				continue
			}
			_ = a.Verify(ctx, args[0])

		case "reject":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: reject <id> [reason]")
				continue
			}
			_ = a.Reject(ctx, args[0], strings.Join(args[1:], " "))

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

// Help lists the commands available in the current session.
func (a *App) Help(_ context.Context) error {
	snap := a.session.Snapshot()
	switch {
	case snap.User == nil:
		a.println("Available commands: home, login, register, menu, back, whoami, exit")
	case snap.User.IsAdmin():
		a.println("Available commands: home, dashboard, upload [path], admin [page], stats, verify <id>, reject <id> [reason], menu, back, whoami, refresh, logout, exit")
	default:
		a.println("Available commands: home, dashboard, upload [path], menu, back, whoami, refresh, logout, exit")
	}
	return nil
}

// Menu prints the pages the current user may open.
func (a *App) Menu(_ context.Context) error {
	snap := a.session.Snapshot()
	if snap.User == nil {
		for _, r := range guard.Routes() {
			if r.Access == guard.AccessPublic {
				a.printf("  %-12s %s\n", r.Path, r.Title)
			}
		}
		return nil
	}
	for _, r := range guard.PermittedRoutes(snap.User.Role) {
		a.printf("  %-12s %s\n", r.Path, r.Title)
	}
	a.println("  logout")
	return nil
}
