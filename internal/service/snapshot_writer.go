package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"golang.org/x/sync/errgroup"
)

const shutdownFlushTimeout = 10 * time.Second

// SnapshotSink stores a whole-state snapshot, replacing the previous one.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, snap bracket.Snapshot) error
}

type SnapshotSource func() bracket.Snapshot

// SnapshotWriter persists state in the background. Requests coalesce: any number
// of Request calls between two writes produce one write.
type SnapshotWriter struct {
	sinks    []SnapshotSink
	interval time.Duration
	logger   *slog.Logger
	pending  chan struct{}
}

func NewSnapshotWriter(interval time.Duration, logger *slog.Logger, sinks ...SnapshotSink) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotWriter{
		sinks:    sinks,
		interval: interval,
		logger:   logger,
		pending:  make(chan struct{}, 1),
	}
}

func (w *SnapshotWriter) Request() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// Run writes on request and every interval until ctx is done, then flushes once more.
func (w *SnapshotWriter) Run(ctx context.Context, source SnapshotSource) error {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			err := w.Flush(flushCtx, source())
			cancel()
			return err
		case <-w.pending:
			_ = w.Flush(ctx, source())
		case <-tick:
			_ = w.Flush(ctx, source())
		}
	}
}

// Flush writes snap to every sink concurrently. Failures are logged and the
// in-memory state is left untouched.
func (w *SnapshotWriter) Flush(ctx context.Context, snap bracket.Snapshot) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range w.sinks {
		g.Go(func() error {
			if err := sink.SaveSnapshot(gctx, snap); err != nil {
				return fmt.Errorf("%T: %w", sink, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist snapshot", "error", err)
		return err
	}
	w.logger.DebugContext(ctx, "snapshot persisted",
		"tournaments", len(snap.Tournaments),
		"links", len(snap.Links),
	)
	return nil
}

// StateSource builds snapshots from the live services.
func StateSource(tournaments *TournamentService, links *LinkRegistry, clock schedule.Clock) SnapshotSource {
	return func() bracket.Snapshot {
		return bracket.Snapshot{
			Tournaments: tournaments.ListAllTournaments(context.Background()),
			Links:       links.List(),
			TakenAt:     clock.Now(),
		}
	}
}

// RestoreState loads a snapshot into the live services. Links go first so that
// restored tournaments see them.
func RestoreState(ctx context.Context, snap bracket.Snapshot, tournaments *TournamentService, links *LinkRegistry) {
	links.Restore(snap.Links)
	tournaments.Restore(ctx, snap.Tournaments)
}
