package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/tourney/internal/backup"
	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/AdamBeresnev/tourney/internal/db"
	"github.com/AdamBeresnev/tourney/internal/live"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/roomcode"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	snapshots := store.NewSnapshotStore(database)
	sinks := []service.SnapshotSink{snapshots}
	var remote *backup.R2Sink
	if cfg.Backup.Enabled() {
		remote, err = backup.NewR2Sink(ctx, cfg.Backup, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, remote)
	}

	clock := schedule.Real{}
	codes := roomcode.NewDefault()
	economy := store.NewEconomyStore(database)
	writer := service.NewSnapshotWriter(cfg.SnapshotInterval, logger, sinks...)
	hub := live.NewHub(logger, cfg.CORSAllowedOrigins)

	links := service.NewLinkRegistry(clock, writer, logger)
	tournaments := service.NewTournamentService(service.TournamentDeps{
		Scheduler: clock,
		Codes:     codes,
		Links:     links,
		Rewards:   service.NewRewardService(economy, economy, logger),
		Notifier:  hub,
		Snapshots: writer,
		Logger:    logger,
	})
	pool := service.NewPoolService(service.PoolDeps{
		Clock:     clock,
		Codes:     codes,
		MatchSize: cfg.PoolMatchSize,
		Logger:    logger,
	})

	snap, err := loadState(ctx, snapshots, remote, logger)
	if err != nil {
		return err
	}
	service.RestoreState(ctx, snap, tournaments, links)
	logger.Info("state restored", "tournaments", len(snap.Tournaments), "links", len(snap.Links))

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	if cfg.DBDriver == db.DriverSQLite {
		sessionManager.Store = sqlite3store.New(database.DB)
	}

	if cfg.Discord.Enabled() {
		middleware.InitAuth(cfg.Discord)
	} else {
		logger.Warn("DISCORD_KEY not set, sign in is disabled")
	}

	app := &application{
		logger:         logger,
		sessionManager: sessionManager,
		tournaments:    tournaments,
		links:          links,
		pool:           pool,
		economy:        economy,
		hub:            hub,
		adminSecret:    []byte(cfg.AdminJWTSecret),
		allowedOrigins: cfg.CORSAllowedOrigins,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return writer.Run(gctx, service.StateSource(tournaments, links, clock))
	})
	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// loadState prefers the database and falls back to the remote backup when the
// database holds nothing yet.
func loadState(ctx context.Context, local *store.SnapshotStore, remote *backup.R2Sink, logger *slog.Logger) (bracket.Snapshot, error) {
	snap, err := local.LoadSnapshot(ctx)
	if err != nil {
		return bracket.Snapshot{}, err
	}
	if len(snap.Tournaments) > 0 || len(snap.Links) > 0 || remote == nil {
		return snap, nil
	}

	backupSnap, err := remote.LoadSnapshot(ctx)
	if errors.Is(err, backup.ErrNoSnapshot) {
		return snap, nil
	}
	if err != nil {
		return bracket.Snapshot{}, err
	}
	logger.Info("database empty, restoring from backup", "taken_at", backupSnap.TakenAt)
	return backupSnap, nil
}
