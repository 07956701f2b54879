package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/maunavault/internal/client/client"
	"github.com/dmitrijs2005/maunavault/internal/client/config"
	"github.com/dmitrijs2005/maunavault/internal/client/services"
	"github.com/dmitrijs2005/maunavault/internal/client/session"
	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/logging"
)

// exitFn is a test seam for os.Exit.
var exitFn = os.Exit

type App struct {
	config  *config.Config
	vault   services.VaultService
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(logging.BackendSlog, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := client.NewRepositories(db)
	vault := services.NewVault(api, api, repos.Metadata, session.New(), logger, services.Options{
		KDF:           c.KDF(),
		RetryAttempts: c.RetryAttempts,
		RetryBackoff:  c.RetryBackoff,
	})

	a := newApp(vault, bufio.NewReader(os.Stdin), os.Stdout)
	a.config = c
	a.logger = logger
	a.closers = []func() error{
		func() error { vault.Close(); return nil },
		api.Close,
		db.Close,
	}
	return a, nil
}

func newApp(v services.VaultService, r *bufio.Reader, w io.Writer) *App {
	return &App{vault: v, reader: r, out: w, logger: logging.Nop()}
}

// Close drops the key and releases the connection and the database.
func (a *App) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.logger.Error(context.Background(), "close", "error", err)
		}
	}
	a.closers = nil
}

// initSignalHandler clears the key on SIGINT/SIGTERM before exiting.
func (a *App) initSignalHandler(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigs:
			a.vault.Lock()
			a.Close()
			fmt.Fprintln(a.out)
			exitFn(130)
		case <-ctx.Done():
			signal.Stop(sigs)
		}
	}()
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	a.initSignalHandler(ctx)

	fmt.Fprintln(a.out, "Welcome to MaunaVault CLI (type 'help' for commands)")
	a.resume(ctx)

	runREPL(ctx, a, a.prompt, a.reader, a.out)
	a.vault.Lock()
}

// resume restores a saved sign-in and asks for the password to unlock it.
func (a *App) resume(ctx context.Context) {
	st, err := a.vault.Resume(ctx)
	if err != nil {
		fail(a.out, explain(err))
		return
	}
	if st != session.Locked {
		return
	}
	hint(a.out, "Signed in as "+a.vault.Email()+", the vault is locked")
	if err := a.Unlock(ctx); err != nil {
		fail(a.out, explain(err))
	}
}

func (a *App) status() session.Status {
	return a.vault.Status()
}

func (a *App) prompt() string {
	st := a.vault.Status()
	if st == session.LoggedOut {
		return "mv> "
	}
	return fmt.Sprintf("mv (%s %s)> ", a.vault.Email(), st)
}

// explain turns service errors into messages a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, services.ErrCredentialUnconfirmed):
		return errors.New("password change incomplete: your data is now encrypted with the NEW password " +
			"but the server did not confirm the sign-in change; log in with the new password, " +
			"and if that is refused, log in with the old password and unlock with the new one")
	case errors.Is(err, services.ErrPasswordChangeIncomplete):
		return errors.New("password change incomplete: your data is now encrypted with the NEW password " +
			"but the account still signs in with the OLD one; log in with the old password and unlock with the new one")
	case errors.Is(err, services.ErrIncorrectPassword):
		return errors.New("incorrect password")
	case errors.Is(err, services.ErrNoActiveSession):
		return errors.New("no active session: login or unlock first")
	case errors.Is(err, common.ErrVersionConflict):
		return errors.New("the vault was changed from another device: run the command again")
	case errors.Is(err, client.ErrUnavailable):
		return errors.New("server unavailable")
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("unauthorized: check email and password")
	}
	return err
}
