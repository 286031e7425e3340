package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/roomcode"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"github.com/AdamBeresnev/tourney/internal/utils"
	"github.com/google/uuid"
)

const (
	defaultMaxPlayers = 4
	defaultRounds     = 2

	labelNow    = "now"
	labelManual = "manual"
)

type CodeGenerator interface {
	Generate() string
}

type LinkResolver interface {
	Resolve(externalID string) (bracket.PlayerLink, bool)
}

type RewardDisburser interface {
	Disburse(ctx context.Context, outcome RewardOutcome) (RewardResult, error)
}

type TournamentDeps struct {
	Scheduler schedule.Scheduler
	Codes     CodeGenerator
	Links     LinkResolver
	Rewards   RewardDisburser
	Notifier  Notifier
	Snapshots SnapshotRequester
	Logger    *slog.Logger
}

type TournamentConfig struct {
	Name       string                 `json:"name"`
	Style      string                 `json:"style"`
	Map        string                 `json:"map"`
	Emojis     string                 `json:"emojis"`
	MaxPlayers int                    `json:"maxPlayers"`
	Rounds     int                    `json:"rounds"`
	OpensAt    string                 `json:"registrationTime"`
	StartsAt   string                 `json:"startTime"`
	Rewards    []bracket.RewardBucket `json:"rewards"`
	CreatedBy  string                 `json:"-"`
}

// aggregate is one tournament plus the lock and timers that guard it.
type aggregate struct {
	seq         uint64
	mu          sync.Mutex
	t           bracket.Tournament
	deleted     bool
	cancelOpen  schedule.CancelFunc
	cancelStart schedule.CancelFunc
}

func (a *aggregate) stopTimers() {
	if a.cancelOpen != nil {
		a.cancelOpen()
		a.cancelOpen = nil
	}
	if a.cancelStart != nil {
		a.cancelStart()
		a.cancelStart = nil
	}
}

// TournamentService runs the single elimination lifecycle of every tournament
// held in memory.
type TournamentService struct {
	scheduler schedule.Scheduler
	codes     CodeGenerator
	links     LinkResolver
	rewards   RewardDisburser
	notifier  Notifier
	snapshots SnapshotRequester
	logger    *slog.Logger

	mu          sync.RWMutex
	tournaments map[uuid.UUID]*aggregate
	seq         uint64
}

func NewTournamentService(deps TournamentDeps) *TournamentService {
	s := &TournamentService{
		scheduler:   deps.Scheduler,
		codes:       deps.Codes,
		links:       deps.Links,
		rewards:     deps.Rewards,
		notifier:    deps.Notifier,
		snapshots:   deps.Snapshots,
		logger:      deps.Logger,
		tournaments: make(map[uuid.UUID]*aggregate),
	}
	if s.scheduler == nil {
		s.scheduler = schedule.Real{}
	}
	if s.codes == nil {
		s.codes = roomcode.NewDefault()
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.snapshots == nil {
		s.snapshots = nopRequester{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *TournamentService) CreateTournament(ctx context.Context, cfg TournamentConfig) (bracket.Tournament, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return bracket.Tournament{}, validationError("name is required")
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = defaultMaxPlayers
	}
	if cfg.MaxPlayers < 2 {
		return bracket.Tournament{}, validationError("maxPlayers must be at least 2, got %d", cfg.MaxPlayers)
	}
	if cfg.Rounds == 0 {
		cfg.Rounds = defaultRounds
	}
	if cfg.Rounds < 0 {
		return bracket.Tournament{}, validationError("rounds must be positive, got %d", cfg.Rounds)
	}
	for _, b := range cfg.Rewards {
		if b.PlacementLowest < 1 || b.PlacementHighest < b.PlacementLowest {
			return bracket.Tournament{}, validationError("invalid reward placement range [%d, %d]", b.PlacementLowest, b.PlacementHighest)
		}
		for _, line := range b.Rewards {
			if line.Type != bracket.RewardCurrency && line.Type != bracket.RewardCosmetic {
				return bracket.Tournament{}, validationError("unknown reward type %q", line.Type)
			}
		}
	}

	now := s.scheduler.Now()
	opensAt, err := schedule.ResolveDeadline(cfg.OpensAt, now)
	if err != nil {
		return bracket.Tournament{}, validationError("registrationTime: %v", err)
	}
	startsAt, err := schedule.ResolveDeadline(cfg.StartsAt, now)
	if err != nil {
		return bracket.Tournament{}, validationError("startTime: %v", err)
	}

	t := bracket.Tournament{
		ID:                   uuid.New(),
		Name:                 cfg.Name,
		Style:                strings.TrimSpace(cfg.Style),
		Map:                  strings.TrimSpace(cfg.Map),
		Emojis:               strings.TrimSpace(cfg.Emojis),
		MaxPlayers:           cfg.MaxPlayers,
		Rounds:               cfg.Rounds,
		RegistrationLabel:    labelOr(cfg.OpensAt, labelNow),
		StartLabel:           labelOr(cfg.StartsAt, labelManual),
		RegistrationOpenTime: opensAt,
		TournamentStartTime:  startsAt,
		Status:               bracket.TournamentWaiting,
		Players:              []bracket.Participant{},
		Matches:              []bracket.Match{},
		Rewards:              cfg.Rewards,
		CreatedBy:            cfg.CreatedBy,
		CreatedAt:            now,
	}
	if opensAt != nil {
		t.Status = bracket.TournamentScheduled
	}

	agg := &aggregate{t: t}
	agg.mu.Lock()
	s.insert(agg)
	s.armTimers(agg)
	created := agg.t.Clone()
	agg.mu.Unlock()

	s.logger.InfoContext(ctx, "tournament created",
		"tournament_id", t.ID,
		"name", t.Name,
		"status", t.Status,
		"max_players", t.MaxPlayers,
	)
	s.notifier.Publish(t.ID, EventTournamentCreated, created)
	s.snapshots.Request()
	return created, nil
}

// armTimers schedules the pending transitions of agg. Caller holds agg.mu.
func (s *TournamentService) armTimers(agg *aggregate) {
	id := agg.t.ID
	if agg.t.Status == bracket.TournamentScheduled && agg.t.RegistrationOpenTime != nil {
		agg.cancelOpen = s.scheduler.ScheduleOnce(*agg.t.RegistrationOpenTime, func() {
			s.openRegistration(id)
		})
	}
	if agg.t.TournamentStartTime != nil {
		agg.cancelStart = s.scheduler.ScheduleOnce(*agg.t.TournamentStartTime, func() {
			s.startOnSchedule(id)
		})
	}
}

func (s *TournamentService) openRegistration(id uuid.UUID) {
	agg, ok := s.get(id)
	if !ok {
		return
	}

	agg.mu.Lock()
	if agg.deleted || agg.t.Status != bracket.TournamentScheduled {
		agg.mu.Unlock()
		return
	}
	agg.cancelOpen = nil
	agg.t.Status = bracket.TournamentWaiting
	snapshot := agg.t.Clone()
	agg.mu.Unlock()

	s.logger.Info("registration opened", "tournament_id", id)
	s.notifier.Publish(id, EventRegistrationOpened, snapshot)
	s.snapshots.Request()
}

// startOnSchedule starts the tournament when its start time passes, or cancels
// it when fewer than two players showed up.
func (s *TournamentService) startOnSchedule(id uuid.UUID) {
	agg, ok := s.get(id)
	if !ok {
		return
	}

	agg.mu.Lock()
	if agg.deleted {
		agg.mu.Unlock()
		return
	}
	agg.cancelStart = nil
	events := s.startOrCancel(agg)
	agg.mu.Unlock()

	s.emit(id, events)
}

// startOrCancel applies the start deadline. Caller holds agg.mu.
func (s *TournamentService) startOrCancel(agg *aggregate) []event {
	t := &agg.t
	if t.Status != bracket.TournamentScheduled && t.Status != bracket.TournamentWaiting {
		return nil
	}
	if len(t.Players) < 2 {
		agg.stopTimers()
		t.Status = bracket.TournamentCancelled
		s.logger.Info("tournament cancelled", "tournament_id", t.ID, "players", len(t.Players))
		return []event{{name: EventTournamentCancelled, payload: t.Clone()}}
	}
	return s.begin(agg)
}

// begin moves the tournament into round one. Caller holds agg.mu.
func (s *TournamentService) begin(agg *aggregate) []event {
	agg.stopTimers()
	t := &agg.t
	t.Status = bracket.TournamentInProgress
	t.CurrentRound = 1
	matches := s.createMatches(t)

	s.logger.Info("tournament started", "tournament_id", t.ID, "players", len(t.Players), "matches", len(matches))
	return []event{
		{name: EventTournamentStarted, payload: t.Clone()},
		{name: EventRoundStarted, payload: matches},
	}
}

func (s *TournamentService) RegisterPlayer(ctx context.Context, tournamentID uuid.UUID, externalID string) (bracket.Participant, error) {
	agg, ok := s.get(tournamentID)
	if !ok {
		return bracket.Participant{}, ErrTournamentNotFound
	}

	agg.mu.Lock()
	defer agg.mu.Unlock()
	if agg.deleted {
		return bracket.Participant{}, ErrTournamentNotFound
	}

	t := &agg.t
	now := s.scheduler.Now()
	if t.Status == bracket.TournamentScheduled {
		if t.RegistrationOpenTime != nil && now.Before(*t.RegistrationOpenTime) {
			return bracket.Participant{}, errNotOpenYet(schedule.MinutesUntil(*t.RegistrationOpenTime, now), t.RegistrationLabel)
		}
		// The open timer is late; the deadline is what counts.
		t.Status = bracket.TournamentWaiting
	}
	if t.Status != bracket.TournamentWaiting {
		return bracket.Participant{}, ErrAlreadyStarted
	}
	if t.IsFull() {
		return bracket.Participant{}, ErrTournamentFull
	}
	if _, exists := t.FindPlayer(externalID); exists {
		return bracket.Participant{}, ErrAlreadyRegistered
	}
	link, ok := s.resolveLink(externalID)
	if !ok {
		return bracket.Participant{}, ErrNotLinked
	}

	p := bracket.Participant{
		AccountID:    link.AccountID,
		ExternalID:   externalID,
		DisplayName:  link.DisplayName,
		RegisteredAt: now,
	}
	t.Players = append(t.Players, p)

	s.logger.InfoContext(ctx, "player registered",
		"tournament_id", t.ID,
		"external_id", externalID,
		"players", len(t.Players),
		"max_players", t.MaxPlayers,
	)
	s.notifier.Publish(t.ID, EventPlayerRegistered, p)
	s.snapshots.Request()
	return p, nil
}

func (s *TournamentService) resolveLink(externalID string) (bracket.PlayerLink, bool) {
	if s.links == nil {
		return bracket.PlayerLink{}, false
	}
	return s.links.Resolve(externalID)
}

// StartTournament starts a tournament by hand. Before a configured start time
// it does nothing and returns the current state.
func (s *TournamentService) StartTournament(ctx context.Context, id uuid.UUID) (bracket.Tournament, error) {
	agg, ok := s.get(id)
	if !ok {
		return bracket.Tournament{}, ErrTournamentNotFound
	}

	agg.mu.Lock()
	if agg.deleted {
		agg.mu.Unlock()
		return bracket.Tournament{}, ErrTournamentNotFound
	}
	t := &agg.t
	if t.Status != bracket.TournamentScheduled && t.Status != bracket.TournamentWaiting {
		agg.mu.Unlock()
		return bracket.Tournament{}, ErrAlreadyStarted
	}
	if t.TournamentStartTime != nil && s.scheduler.Now().Before(*t.TournamentStartTime) {
		current := t.Clone()
		agg.mu.Unlock()
		s.logger.InfoContext(ctx, "start requested before start time, ignoring",
			"tournament_id", id,
			"start_time", current.TournamentStartTime,
		)
		return current, nil
	}
	if len(t.Players) < 2 {
		agg.mu.Unlock()
		return bracket.Tournament{}, ErrNotEnoughPlayers
	}
	events := s.begin(agg)
	started := t.Clone()
	agg.mu.Unlock()

	s.emit(id, events)
	return started, nil
}

func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	agg, ok := s.tournaments[id]
	if ok {
		delete(s.tournaments, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrTournamentNotFound
	}

	agg.mu.Lock()
	agg.deleted = true
	agg.stopTimers()
	agg.mu.Unlock()

	s.logger.InfoContext(ctx, "tournament deleted", "tournament_id", id)
	s.notifier.Publish(id, EventTournamentDeleted, map[string]string{"id": id.String()})
	s.snapshots.Request()
	return nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (bracket.Tournament, error) {
	agg, ok := s.get(id)
	if !ok {
		return bracket.Tournament{}, ErrTournamentNotFound
	}
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.t.Clone(), nil
}

// ListActiveTournaments returns scheduled, waiting and in progress tournaments.
func (s *TournamentService) ListActiveTournaments(ctx context.Context) []bracket.Tournament {
	var active []bracket.Tournament
	for _, t := range s.ListAllTournaments(ctx) {
		if t.Status.Active() {
			active = append(active, t)
		}
	}
	return active
}

// ListAllTournaments returns every tournament in creation order.
func (s *TournamentService) ListAllTournaments(ctx context.Context) []bracket.Tournament {
	aggs := s.all()
	tournaments := make([]bracket.Tournament, 0, len(aggs))
	for _, agg := range aggs {
		agg.mu.Lock()
		tournaments = append(tournaments, agg.t.Clone())
		agg.mu.Unlock()
	}
	return tournaments
}

// Restore loads tournaments from a snapshot. Deadlines still ahead are re-armed;
// deadlines that passed while the process was down are applied right away.
func (s *TournamentService) Restore(ctx context.Context, tournaments []bracket.Tournament) {
	now := s.scheduler.Now()
	for _, t := range tournaments {
		if t.Players == nil {
			t.Players = []bracket.Participant{}
		}
		if t.Matches == nil {
			t.Matches = []bracket.Match{}
		}
		agg := &aggregate{t: t}

		agg.mu.Lock()
		s.insert(agg)

		var events []event
		if agg.t.Status == bracket.TournamentScheduled && agg.t.RegistrationOpenTime != nil && !agg.t.RegistrationOpenTime.After(now) {
			agg.t.Status = bracket.TournamentWaiting
		}
		if agg.t.Status.Active() && agg.t.Status != bracket.TournamentInProgress && agg.t.TournamentStartTime != nil && !agg.t.TournamentStartTime.After(now) {
			events = s.startOrCancel(agg)
		}
		if agg.t.Status == bracket.TournamentScheduled || agg.t.Status == bracket.TournamentWaiting {
			s.armTimers(agg)
		}
		status := agg.t.Status
		agg.mu.Unlock()

		s.logger.InfoContext(ctx, "tournament restored", "tournament_id", t.ID, "status", status)
		s.emit(t.ID, events)
	}
}

func (s *TournamentService) get(id uuid.UUID) (*aggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg, ok := s.tournaments[id]
	return agg, ok
}

func (s *TournamentService) insert(agg *aggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	agg.seq = s.seq
	s.tournaments[agg.t.ID] = agg
}

func (s *TournamentService) all() []*aggregate {
	s.mu.RLock()
	aggs := make([]*aggregate, 0, len(s.tournaments))
	for _, agg := range s.tournaments {
		aggs = append(aggs, agg)
	}
	s.mu.RUnlock()

	sort.Slice(aggs, func(i, j int) bool {
		return aggs[i].seq < aggs[j].seq
	})
	return aggs
}

func (s *TournamentService) emit(id uuid.UUID, events []event) {
	if len(events) == 0 {
		return
	}
	for _, e := range events {
		s.notifier.Publish(id, e.name, e.payload)
	}
	s.snapshots.Request()
}

func labelOr(label, fallback string) string {
	if l := utils.StringOrNil(label); l != nil {
		return *l
	}
	return fallback
}
