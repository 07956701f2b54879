package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/maunavault/internal/client/session"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	status() session.Status
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Status(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	SetMeta(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Wipe(ctx context.Context) error
}

var errUsage = errors.New("usage")

func helpText(st session.Status) string {
	switch st {
	case session.Unlocked:
		return "Available commands: status, show [collection], add <collection>, set-meta name=value..., " +
			"export [file], passwd, wipe, lock, logout, exit"
	case session.Locked:
		return "Available commands: unlock, status, logout, exit"
	default:
		return "Available commands: register, login, exit"
	}
}

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a. Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, promptFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, promptFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText(a.status()))
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "unlock":
			cmdErr = a.Unlock(ctx)
		case "lock":
			cmdErr = a.Lock(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "set-meta":
			cmdErr = a.SetMeta(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "wipe":
			cmdErr = a.Wipe(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fail(w, explain(cmdErr))
		}
	}
}
