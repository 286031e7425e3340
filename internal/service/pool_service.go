package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/roomcode"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"github.com/google/uuid"
)

const DefaultPoolMatchSize = 2

type PoolDeps struct {
	Clock     schedule.Clock
	Codes     CodeGenerator
	MatchSize int
	Logger    *slog.Logger
}

type PoolRegistration struct {
	Player            bracket.PoolPlayer `json:"player"`
	AlreadyRegistered bool               `json:"alreadyRegistered"`
	Match             *bracket.PoolMatch `json:"match,omitempty"`
}

type PoolStats struct {
	bracket.PoolPlayer
	TotalMatches int    `json:"totalMatches"`
	WinRate      string `json:"winRate"`
}

type PoolSummary struct {
	Waiting       int `json:"waiting"`
	InMatch       int `json:"inMatch"`
	TotalPlayers  int `json:"totalPlayers"`
	ActiveMatches int `json:"activeMatches"`
	TotalMatches  int `json:"totalMatches"`
}

type PoolResult struct {
	Match bracket.PoolMatch  `json:"match"`
	Next  *bracket.PoolMatch `json:"next,omitempty"`
}

// PoolService is the always-on pool: players queue up and are matched as soon
// as enough of them are waiting. It has no end condition.
type PoolService struct {
	clock     schedule.Clock
	codes     CodeGenerator
	matchSize int
	logger    *slog.Logger

	mu      sync.Mutex
	players map[string]*bracket.PoolPlayer
	queue   []string
	matches map[uuid.UUID]*bracket.PoolMatch
	order   []uuid.UUID
}

func NewPoolService(deps PoolDeps) *PoolService {
	s := &PoolService{
		clock:     deps.Clock,
		codes:     deps.Codes,
		matchSize: deps.MatchSize,
		logger:    deps.Logger,
		players:   make(map[string]*bracket.PoolPlayer),
		matches:   make(map[uuid.UUID]*bracket.PoolMatch),
	}
	if s.clock == nil {
		s.clock = schedule.Real{}
	}
	if s.codes == nil {
		s.codes = roomcode.NewDefault()
	}
	if s.matchSize < 2 {
		s.matchSize = DefaultPoolMatchSize
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// AutoRegister adds a player to the queue. Repeat calls are harmless and report
// AlreadyRegistered. A match is attempted right after.
func (s *PoolService) AutoRegister(ctx context.Context, id, displayName, altID string) (PoolRegistration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return PoolRegistration{}, validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.players[id]; ok {
		return PoolRegistration{Player: *p, AlreadyRegistered: true}, nil
	}

	p := &bracket.PoolPlayer{
		ID:           id,
		DisplayName:  strings.TrimSpace(displayName),
		AltID:        strings.TrimSpace(altID),
		Status:       bracket.PoolWaiting,
		RegisteredAt: s.clock.Now(),
	}
	s.players[id] = p
	s.queue = append(s.queue, id)
	s.logger.InfoContext(ctx, "pool player registered", "external_id", id, "waiting", len(s.queue))

	reg := PoolRegistration{Player: *p}
	if m := s.tryPair(ctx); m != nil {
		reg.Match = m
		reg.Player = *s.players[id]
	}
	return reg, nil
}

// TryPair is the public entry point for pairing outside of registration. It matches the
// players who have waited longest, if enough are queued.
func (s *PoolService) TryPair(ctx context.Context) *bracket.PoolMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryPair(ctx)
}

func (s *PoolService) tryPair(ctx context.Context) *bracket.PoolMatch {
	if len(s.queue) < s.matchSize {
		return nil
	}

	ids := s.queue[:s.matchSize]
	s.queue = append([]string(nil), s.queue[s.matchSize:]...)

	m := &bracket.PoolMatch{
		ID:        uuid.New(),
		RoomCode:  s.codes.Generate(),
		Players:   make([]bracket.PoolMatchPlayer, 0, len(ids)),
		Status:    bracket.MatchWaiting,
		CreatedAt: s.clock.Now(),
	}
	for _, id := range ids {
		p := s.players[id]
		p.Status = bracket.PoolInMatch
		m.Players = append(m.Players, bracket.PoolMatchPlayer{ID: p.ID, DisplayName: p.DisplayName, AltID: p.AltID})
	}
	s.matches[m.ID] = m
	s.order = append(s.order, m.ID)

	s.logger.InfoContext(ctx, "pool match created", "match_id", m.ID, "room_code", m.RoomCode, "players", ids)
	c := clonePoolMatch(m)
	return &c
}

// ReportWinner closes a match, updates records, puts everyone back in the queue
// with the winner first and tries to pair again.
func (s *PoolService) ReportWinner(ctx context.Context, matchID uuid.UUID, winnerID string) (PoolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return PoolResult{}, ErrMatchNotFound
	}
	if m.Status == bracket.MatchFinished {
		return PoolResult{}, ErrMatchAlreadyFinished
	}
	winnerIdx := -1
	for i, p := range m.Players {
		if p.ID == winnerID {
			winnerIdx = i
			break
		}
	}
	if winnerIdx < 0 {
		return PoolResult{}, ErrNotAParticipant
	}

	now := s.clock.Now()
	winner := m.Players[winnerIdx]
	m.Status = bracket.MatchFinished
	m.Winner = &winner
	m.FinishedAt = &now

	requeue := []string{winner.ID}
	for _, mp := range m.Players {
		p := s.players[mp.ID]
		if mp.ID == winner.ID {
			p.Wins++
		} else {
			p.Losses++
			requeue = append(requeue, mp.ID)
		}
		p.Status = bracket.PoolWaiting
	}
	s.queue = append(s.queue, requeue...)

	s.logger.InfoContext(ctx, "pool match finished", "match_id", m.ID, "winner", winner.ID)

	res := PoolResult{Match: clonePoolMatch(m)}
	res.Next = s.tryPair(ctx)
	return res, nil
}

// Leave removes a waiting player from the pool. Players in a match must finish it first.
func (s *PoolService) Leave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return ErrPoolPlayerNotFound
	}
	if p.Status == bracket.PoolInMatch {
		return ErrPlayerInMatch
	}
	delete(s.players, id)
	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.logger.InfoContext(ctx, "pool player left", "external_id", id)
	return nil
}

func (s *PoolService) Stats(id string) (PoolStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return PoolStats{}, ErrPoolPlayerNotFound
	}
	return statsFor(*p), nil
}

// Ranking orders players by wins, then by fewer losses, then by who joined first.
func (s *PoolService) Ranking(limit int) []PoolStats {
	s.mu.Lock()
	players := make([]bracket.PoolPlayer, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, *p)
	}
	s.mu.Unlock()

	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.RegisteredAt.Before(b.RegisteredAt)
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}

	ranking := make([]PoolStats, 0, len(players))
	for _, p := range players {
		ranking = append(ranking, statsFor(p))
	}
	return ranking
}

func (s *PoolService) Summary() PoolSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := PoolSummary{TotalPlayers: len(s.players), TotalMatches: len(s.matches)}
	for _, p := range s.players {
		if p.Status == bracket.PoolWaiting {
			sum.Waiting++
		} else {
			sum.InMatch++
		}
	}
	for _, m := range s.matches {
		if m.Status == bracket.MatchWaiting {
			sum.ActiveMatches++
		}
	}
	return sum
}

// ActiveMatches returns unfinished matches, oldest first.
func (s *PoolService) ActiveMatches() []bracket.PoolMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := []bracket.PoolMatch{}
	for _, id := range s.order {
		if m := s.matches[id]; m.Status == bracket.MatchWaiting {
			active = append(active, clonePoolMatch(m))
		}
	}
	return active
}

// Queue returns the waiting player ids in pairing order.
func (s *PoolService) Queue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.queue...)
}

func statsFor(p bracket.PoolPlayer) PoolStats {
	total := p.Wins + p.Losses
	rate := 0.0
	if total > 0 {
		rate = float64(p.Wins) / float64(total) * 100
	}
	return PoolStats{
		PoolPlayer:   p,
		TotalMatches: total,
		WinRate:      fmt.Sprintf("%.2f%%", rate),
	}
}

func clonePoolMatch(m *bracket.PoolMatch) bracket.PoolMatch {
	c := *m
	c.Players = append([]bracket.PoolMatchPlayer(nil), m.Players...)
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	return c
}
