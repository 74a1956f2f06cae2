package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Store(ctx context.Context) error
	Get(ctx context.Context) error
	List(ctx context.Context) error
	Remove(ctx context.Context) error
	Search(ctx context.Context) error
	History(ctx context.Context) error
	Stats(ctx context.Context) error
	Export(ctx context.Context) error
	Cleanup(ctx context.Context) error
	Prefs(ctx context.Context) error
	Users(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit". Commands that need a session are refused while logged
// out.
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("eldermate %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: store, get, (l)ist, remove, search, history, stats, export, cleanup, prefs, users, deluser, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if !a.isLoggedIn() {
				printlnFn("Please login first (or type 'help')")
				continue
			}
			switch cmd {
			case "store":
				_ = a.Store(ctx)
			case "get":
				_ = a.Get(ctx)
			case "l", "list":
				_ = a.List(ctx)
			case "remove":
				_ = a.Remove(ctx)
			case "search":
				_ = a.Search(ctx)
			case "history":
				_ = a.History(ctx)
			case "stats":
				_ = a.Stats(ctx)
			case "export":
				_ = a.Export(ctx)
			case "cleanup":
				_ = a.Cleanup(ctx)
			case "prefs":
				_ = a.Prefs(ctx)
			case "users":
				_ = a.Users(ctx)
			case "deluser":
				_ = a.DeleteAccount(ctx)
			case "logout":
				_ = a.Logout(ctx)
			default:
				printlnFn("Unknown command:", cmd)
			}
		}
	}
}
