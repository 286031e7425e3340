package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/db"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.InitDB(db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type sequentialCodes struct {
	mu sync.Mutex
	n  int
}

func (c *sequentialCodes) Generate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("ROOM%02d", c.n)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(_ uuid.UUID, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type countingRequester struct {
	n atomic.Int32
}

func (c *countingRequester) Request() { c.n.Add(1) }

type recordingDisburser struct {
	mu       sync.Mutex
	outcomes []RewardOutcome
}

func (d *recordingDisburser) Disburse(_ context.Context, o RewardOutcome) (RewardResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, o)
	return RewardResult{}, nil
}

type engine struct {
	svc       *TournamentService
	clock     *schedule.Manual
	links     *LinkRegistry
	notifier  *recordingNotifier
	snapshots *countingRequester
	rewards   *recordingDisburser
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	clock := schedule.NewManual(baseTime)
	e := &engine{
		clock:     clock,
		notifier:  &recordingNotifier{},
		snapshots: &countingRequester{},
		rewards:   &recordingDisburser{},
	}
	e.links = NewLinkRegistry(clock, nil, nil)
	e.svc = NewTournamentService(TournamentDeps{
		Scheduler: clock,
		Codes:     &sequentialCodes{},
		Links:     e.links,
		Rewards:   e.rewards,
		Notifier:  e.notifier,
		Snapshots: e.snapshots,
	})
	return e
}

// link gives every external id an account named "acc-<id>".
func (e *engine) link(t *testing.T, externalIDs ...string) {
	t.Helper()
	for _, id := range externalIDs {
		_, err := e.links.Link(context.Background(), id, "acc-"+id, "Player "+id)
		require.NoError(t, err)
	}
}

func (e *engine) create(t *testing.T, cfg TournamentConfig) bracket.Tournament {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "Test Cup"
	}
	tournament, err := e.svc.CreateTournament(context.Background(), cfg)
	require.NoError(t, err)
	return tournament
}

func (e *engine) register(t *testing.T, id uuid.UUID, externalIDs ...string) {
	t.Helper()
	for _, ext := range externalIDs {
		_, err := e.svc.RegisterPlayer(context.Background(), id, ext)
		require.NoError(t, err)
	}
}

// started creates a tournament with the given linked players and starts it by hand.
func (e *engine) started(t *testing.T, cfg TournamentConfig, externalIDs ...string) bracket.Tournament {
	t.Helper()
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = len(externalIDs)
	}
	e.link(t, externalIDs...)
	tournament := e.create(t, cfg)
	e.register(t, tournament.ID, externalIDs...)
	started, err := e.svc.StartTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Equal(t, bracket.TournamentInProgress, started.Status)
	return started
}

func (e *engine) get(t *testing.T, id uuid.UUID) bracket.Tournament {
	t.Helper()
	tournament, err := e.svc.GetTournament(context.Background(), id)
	require.NoError(t, err)
	return tournament
}

// waitingMatch finds the open match between two players.
func waitingMatch(t *testing.T, tournament bracket.Tournament, a, b string) bracket.Match {
	t.Helper()
	for _, m := range tournament.Matches {
		if m.Status == bracket.MatchWaiting && m.Slot(a) >= 0 && m.Slot(b) >= 0 {
			return m
		}
	}
	require.FailNow(t, "no waiting match", "%s vs %s", a, b)
	return bracket.Match{}
}
