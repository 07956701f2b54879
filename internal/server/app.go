// Package server wires the MaunaVault backend together: configuration,
// logging, the PostgreSQL store, the optional S3 archive of replaced
// records, and the gRPC server. Run blocks until a termination signal
// arrives or the server fails.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/maunavault/internal/buildinfo"
	"github.com/dmitrijs2005/maunavault/internal/logging"
	"github.com/dmitrijs2005/maunavault/internal/server/archive"
	"github.com/dmitrijs2005/maunavault/internal/server/config"
	"github.com/dmitrijs2005/maunavault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/maunavault/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/maunavault/internal/server/grpc"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	userService   *services.UserService
	recordService *services.RecordService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var archiver archive.Archiver = archive.Nop{}
	if c.ArchiveEnabled {
		s3a, err := archive.NewS3Archiver(ctx, c)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		archiver = s3a
		logger.Info(ctx, "Archiving replaced records", "bucket", c.S3Bucket)
	}

	us := services.NewUserService(db, rm, c)
	rs := services.NewRecordService(db, rm, archiver, logger)

	return &App{config: c, logger: logger, db: db, userService: us, recordService: rs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		app.logger.Info(context.Background(), "Shutdown signal received")
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "version", buildinfo.String())

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.recordService, app.config.SecretKey)
		return s.Run(ctx)
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(context.Background(), "closing database", "error", cerr)
	}
	if err != nil {
		app.logger.Error(context.Background(), "server stopped", "error", err)
	}
	return err
}
