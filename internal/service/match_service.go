package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
)

// createMatches opens the matches of t.CurrentRound. Caller holds the aggregate lock.
func (s *TournamentService) createMatches(t *bracket.Tournament) []bracket.Match {
	pairs, sittingOut := pairConsecutive(t.ActivePlayers())
	now := s.scheduler.Now()

	matches := make([]bracket.Match, 0, len(pairs))
	for _, pair := range pairs {
		m := bracket.Match{
			ID:           uuid.New(),
			TournamentID: t.ID,
			Round:        t.CurrentRound,
			Players:      [2]bracket.MatchPlayer{toMatchPlayer(pair[0]), toMatchPlayer(pair[1])},
			RoomCode:     s.codes.Generate(),
			Status:       bracket.MatchWaiting,
			CreatedAt:    now,
		}
		matches = append(matches, m)
	}
	t.Matches = append(t.Matches, matches...)

	if sittingOut != nil {
		s.logger.Info("player sits out the round",
			"tournament_id", t.ID,
			"round", t.CurrentRound,
			"external_id", sittingOut.ExternalID,
		)
	}
	return matches
}

// ReportWinner records the result of a match and advances the bracket once the
// whole round is decided.
func (s *TournamentService) ReportWinner(ctx context.Context, tournamentID, matchID uuid.UUID, winnerExternalID string) (bracket.Match, error) {
	agg, ok := s.get(tournamentID)
	if !ok {
		return bracket.Match{}, ErrTournamentNotFound
	}

	agg.mu.Lock()
	if agg.deleted {
		agg.mu.Unlock()
		return bracket.Match{}, ErrTournamentNotFound
	}
	t := &agg.t
	match, ok := t.FindMatch(matchID)
	if !ok {
		agg.mu.Unlock()
		return bracket.Match{}, ErrMatchNotFound
	}
	if match.Status == bracket.MatchFinished {
		agg.mu.Unlock()
		return bracket.Match{}, ErrMatchAlreadyFinished
	}
	slot := match.Slot(winnerExternalID)
	if slot < 0 {
		agg.mu.Unlock()
		return bracket.Match{}, ErrNotAParticipant
	}

	now := s.scheduler.Now()
	winner := match.Players[slot]
	loser := match.Players[1-slot]
	match.Status = bracket.MatchFinished
	match.Winner = &winner
	match.FinishedAt = &now

	s.mustPlayer(t, winner.ExternalID).Wins++
	lost := s.mustPlayer(t, loser.ExternalID)
	lost.Eliminated = true
	lost.EliminatedRound = match.Round

	s.logger.InfoContext(ctx, "match finished",
		"tournament_id", t.ID,
		"match_id", match.ID,
		"round", match.Round,
		"winner", winner.ExternalID,
		"loser", loser.ExternalID,
	)

	finished := match.Clone()
	events := []event{{name: EventMatchFinished, payload: finished}}
	var outcomes []RewardOutcome
	if roundComplete(t, t.CurrentRound) {
		events = append(events, s.advanceRound(t)...)
		if t.Status == bracket.TournamentFinished {
			outcomes = rewardOutcomes(t)
		}
	}
	agg.mu.Unlock()

	s.emit(tournamentID, events)
	s.disburse(ctx, outcomes)
	return finished, nil
}

// advanceRound crowns the last player standing or pairs the survivors for the
// next round. Caller holds the aggregate lock.
func (s *TournamentService) advanceRound(t *bracket.Tournament) []event {
	active := t.ActivePlayers()
	switch len(active) {
	case 0:
		panic(fmt.Sprintf("tournament %s: no active players left after round %d", t.ID, t.CurrentRound))
	case 1:
		now := s.scheduler.Now()
		champion := active[0]
		t.Status = bracket.TournamentFinished
		t.Winner = &champion
		t.FinishedAt = &now
		s.logger.Info("tournament finished", "tournament_id", t.ID, "winner", champion.ExternalID, "rounds", t.CurrentRound)
		return []event{{name: EventTournamentFinished, payload: t.Clone()}}
	default:
		t.CurrentRound++
		matches := s.createMatches(t)
		s.logger.Info("round started", "tournament_id", t.ID, "round", t.CurrentRound, "matches", len(matches))
		return []event{{name: EventRoundStarted, payload: matches}}
	}
}

func (s *TournamentService) mustPlayer(t *bracket.Tournament, externalID string) *bracket.Participant {
	p, ok := t.FindPlayer(externalID)
	if !ok {
		panic(fmt.Sprintf("tournament %s: match player %s is not registered", t.ID, externalID))
	}
	return p
}

func roundComplete(t *bracket.Tournament, round int) bool {
	for _, m := range t.RoundMatches(round) {
		if m.Status != bracket.MatchFinished {
			return false
		}
	}
	return true
}

// PendingMatchesForPlayer lists the waiting matches of externalID across all
// tournaments, with the tournament details the game client needs.
func (s *TournamentService) PendingMatchesForPlayer(ctx context.Context, externalID string) []bracket.PendingMatch {
	pending := []bracket.PendingMatch{}
	for _, agg := range s.all() {
		agg.mu.Lock()
		t := &agg.t
		for _, m := range t.Matches {
			if m.Status != bracket.MatchWaiting || m.Slot(externalID) < 0 {
				continue
			}
			pending = append(pending, bracket.PendingMatch{
				Match:          m,
				TournamentName: t.Name,
				Map:            t.Map,
				Style:          t.Style,
				Emojis:         t.Emojis,
			})
		}
		agg.mu.Unlock()
	}
	return pending
}

func rewardOutcomes(t *bracket.Tournament) []RewardOutcome {
	if len(t.Rewards) == 0 {
		return nil
	}
	ranks := placements(t.Players)
	outcomes := make([]RewardOutcome, 0, len(t.Players))
	for _, p := range t.Players {
		if p.AccountID == "" {
			continue
		}
		outcomes = append(outcomes, RewardOutcome{
			TournamentID: t.ID,
			AccountID:    p.AccountID,
			Placement:    ranks[p.ExternalID],
			Table:        append([]bracket.RewardBucket(nil), t.Rewards...),
		})
	}
	return outcomes
}

func (s *TournamentService) disburse(ctx context.Context, outcomes []RewardOutcome) {
	if s.rewards == nil {
		return
	}
	for _, o := range outcomes {
		res, err := s.rewards.Disburse(ctx, o)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to disburse rewards",
				"tournament_id", o.TournamentID,
				"account_id", o.AccountID,
				"placement", o.Placement,
				"error", err,
			)
			continue
		}
		if res.NoReward {
			continue
		}
		s.logger.InfoContext(ctx, "rewards disbursed",
			"tournament_id", o.TournamentID,
			"account_id", o.AccountID,
			"placement", o.Placement,
			"lines", len(res.Applied),
		)
	}
}
