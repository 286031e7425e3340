package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullBracket_FourPlayers(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	tournament := e.started(t, TournamentConfig{}, "alice", "bob", "carol", "dave")

	require.Len(t, tournament.Matches, 2)
	m1 := waitingMatch(t, tournament, "alice", "bob")
	m2 := waitingMatch(t, tournament, "carol", "dave")
	assert.Equal(t, "ROOM01", m1.RoomCode)
	assert.Equal(t, "ROOM02", m2.RoomCode)
	assert.Equal(t, 1, m1.Round)

	finished, err := e.svc.ReportWinner(ctx, tournament.ID, m1.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchFinished, finished.Status)
	require.NotNil(t, finished.Winner)
	assert.Equal(t, "alice", finished.Winner.ExternalID)
	assert.True(t, finished.IsWinner(0))
	assert.True(t, finished.IsLoser(1))

	got := e.get(t, tournament.ID)
	assert.Equal(t, 1, got.CurrentRound, "round stays open until every match is decided")
	assert.Len(t, got.Matches, 2)

	_, err = e.svc.ReportWinner(ctx, tournament.ID, m2.ID, "dave")
	require.NoError(t, err)

	got = e.get(t, tournament.ID)
	assert.Equal(t, 2, got.CurrentRound)
	require.Len(t, got.Matches, 3)
	final := waitingMatch(t, got, "alice", "dave")
	assert.Equal(t, 2, final.Round)
	assert.Equal(t, "alice", final.Players[0].ExternalID)

	_, err = e.svc.ReportWinner(ctx, tournament.ID, final.ID, "dave")
	require.NoError(t, err)

	got = e.get(t, tournament.ID)
	assert.Equal(t, bracket.TournamentFinished, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "dave", got.Winner.ExternalID)
	assert.Equal(t, 2, got.Winner.Wins)
	assert.NotNil(t, got.FinishedAt)

	eliminated := map[string]int{}
	for _, p := range got.Players {
		if p.Eliminated {
			eliminated[p.ExternalID] = p.EliminatedRound
		}
	}
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1, "carol": 1}, eliminated)
	assert.Contains(t, e.notifier.Events(), EventTournamentFinished)
}

func TestOddPlayerSitsOut(t *testing.T) {
	ctx := context.Background()

	t.Run("three players", func(t *testing.T) {
		e := newEngine(t)
		tournament := e.started(t, TournamentConfig{}, "alice", "bob", "carol")
		require.Len(t, tournament.Matches, 1)

		_, err := e.svc.ReportWinner(ctx, tournament.ID, tournament.Matches[0].ID, "alice")
		require.NoError(t, err)

		got := e.get(t, tournament.ID)
		carol, ok := got.FindPlayer("carol")
		require.True(t, ok)
		assert.False(t, carol.Eliminated, "sitting out never eliminates")
		assert.Equal(t, 0, carol.Wins)

		final := waitingMatch(t, got, "alice", "carol")
		_, err = e.svc.ReportWinner(ctx, tournament.ID, final.ID, "carol")
		require.NoError(t, err)

		got = e.get(t, tournament.ID)
		assert.Equal(t, bracket.TournamentFinished, got.Status)
		assert.Equal(t, "carol", got.Winner.ExternalID)
		assert.Equal(t, 1, got.Winner.Wins)
	})

	t.Run("five players", func(t *testing.T) {
		e := newEngine(t)
		tournament := e.started(t, TournamentConfig{MaxPlayers: 8}, "p1", "p2", "p3", "p4", "p5")
		require.Len(t, tournament.Matches, 2)

		_, err := e.svc.ReportWinner(ctx, tournament.ID, waitingMatch(t, tournament, "p1", "p2").ID, "p1")
		require.NoError(t, err)
		_, err = e.svc.ReportWinner(ctx, tournament.ID, waitingMatch(t, tournament, "p3", "p4").ID, "p3")
		require.NoError(t, err)

		got := e.get(t, tournament.ID)
		assert.Equal(t, 2, got.CurrentRound)
		require.Len(t, got.RoundMatches(2), 1, "p5 sits out again")
		round2 := waitingMatch(t, got, "p1", "p3")

		_, err = e.svc.ReportWinner(ctx, tournament.ID, round2.ID, "p3")
		require.NoError(t, err)

		got = e.get(t, tournament.ID)
		assert.Equal(t, 3, got.CurrentRound)
		final := waitingMatch(t, got, "p3", "p5")
		assert.Equal(t, "p3", final.Players[0].ExternalID, "registration order decides the slots")

		_, err = e.svc.ReportWinner(ctx, tournament.ID, final.ID, "p5")
		require.NoError(t, err)
		got = e.get(t, tournament.ID)
		assert.Equal(t, "p5", got.Winner.ExternalID)
		assert.Len(t, got.Matches, 4, "n-1 matches for n players")
	})
}

func TestReportWinner_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	tournament := e.started(t, TournamentConfig{}, "alice", "bob", "carol", "dave")
	m1 := waitingMatch(t, tournament, "alice", "bob")

	tests := []struct {
		name         string
		tournamentID uuid.UUID
		matchID      uuid.UUID
		winner       string
		expected     error
	}{
		{name: "unknown tournament", tournamentID: uuid.New(), matchID: m1.ID, winner: "alice", expected: ErrTournamentNotFound},
		{name: "unknown match", tournamentID: tournament.ID, matchID: uuid.New(), winner: "alice", expected: ErrMatchNotFound},
		{name: "winner from another match", tournamentID: tournament.ID, matchID: m1.ID, winner: "carol", expected: ErrNotAParticipant},
		{name: "stranger", tournamentID: tournament.ID, matchID: m1.ID, winner: "mallory", expected: ErrNotAParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ReportWinner(ctx, tt.tournamentID, tt.matchID, tt.winner)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("already finished", func(t *testing.T) {
		_, err := e.svc.ReportWinner(ctx, tournament.ID, m1.ID, "bob")
		require.NoError(t, err)

		_, err = e.svc.ReportWinner(ctx, tournament.ID, m1.ID, "alice")
		assert.ErrorIs(t, err, ErrMatchAlreadyFinished)
		_, err = e.svc.ReportWinner(ctx, tournament.ID, m1.ID, "mallory")
		assert.ErrorIs(t, err, ErrMatchAlreadyFinished, "finished is checked before membership")

		got := e.get(t, tournament.ID)
		bob, _ := got.FindPlayer("bob")
		assert.Equal(t, 1, bob.Wins, "rejected reports change nothing")
	})
}

func TestAdvanceRound_BrokenInvariantsPanic(t *testing.T) {
	e := newEngine(t)

	t.Run("no active players", func(t *testing.T) {
		broken := bracket.Tournament{
			ID:           uuid.New(),
			Status:       bracket.TournamentInProgress,
			CurrentRound: 1,
			Players: []bracket.Participant{
				{ExternalID: "a", Eliminated: true},
				{ExternalID: "b", Eliminated: true},
			},
		}
		assert.Panics(t, func() { e.svc.advanceRound(&broken) })
	})

	t.Run("unregistered match player", func(t *testing.T) {
		broken := bracket.Tournament{ID: uuid.New()}
		assert.Panics(t, func() { e.svc.mustPlayer(&broken, "ghost") })
	})
}

func TestPendingMatchesForPlayer(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	first := e.started(t, TournamentConfig{Name: "First", Map: "Block Dash", Style: "1v1", Emojis: "🏆"}, "alice", "bob")
	second := e.started(t, TournamentConfig{Name: "Second"}, "carol", "alice")

	pending := e.svc.PendingMatchesForPlayer(ctx, "alice")
	require.Len(t, pending, 2)
	assert.Equal(t, "First", pending[0].TournamentName)
	assert.Equal(t, "Block Dash", pending[0].Map)
	assert.Equal(t, "1v1", pending[0].Style)
	assert.Equal(t, "🏆", pending[0].Emojis)
	assert.Equal(t, "Second", pending[1].TournamentName)
	assert.Equal(t, second.ID, pending[1].TournamentID)

	_, err := e.svc.ReportWinner(ctx, first.ID, first.Matches[0].ID, "bob")
	require.NoError(t, err)

	pending = e.svc.PendingMatchesForPlayer(ctx, "alice")
	require.Len(t, pending, 1)
	assert.Equal(t, "Second", pending[0].TournamentName)

	assert.Empty(t, e.svc.PendingMatchesForPlayer(ctx, "nobody"))
}

func TestReportWinner_DisbursesRewards(t *testing.T) {
	ctx := context.Background()
	rewards := []bracket.RewardBucket{
		{PlacementLowest: 1, PlacementHighest: 1, Rewards: []bracket.RewardLine{{Type: bracket.RewardCurrency, Currency: "gems", Amount: 100}}},
		{PlacementLowest: 2, PlacementHighest: 2, Rewards: []bracket.RewardLine{{Type: bracket.RewardCosmetic, CosmeticID: "skin-silver"}}},
	}

	e := newEngine(t)
	tournament := e.started(t, TournamentConfig{Rewards: rewards}, "alice", "bob", "carol", "dave")

	_, err := e.svc.ReportWinner(ctx, tournament.ID, waitingMatch(t, tournament, "alice", "bob").ID, "alice")
	require.NoError(t, err)
	_, err = e.svc.ReportWinner(ctx, tournament.ID, waitingMatch(t, tournament, "carol", "dave").ID, "dave")
	require.NoError(t, err)
	assert.Empty(t, e.rewards.outcomes, "nothing is paid before the final")

	got := e.get(t, tournament.ID)
	_, err = e.svc.ReportWinner(ctx, tournament.ID, waitingMatch(t, got, "alice", "dave").ID, "dave")
	require.NoError(t, err)

	placements := map[string]int{}
	for _, o := range e.rewards.outcomes {
		assert.Equal(t, tournament.ID, o.TournamentID)
		assert.Equal(t, rewards, o.Table)
		placements[o.AccountID] = o.Placement
	}
	assert.Equal(t, map[string]int{
		"acc-dave":  1,
		"acc-alice": 2,
		"acc-bob":   3,
		"acc-carol": 3,
	}, placements)
}

func TestReportWinner_NoRewardTable(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	tournament := e.started(t, TournamentConfig{}, "alice", "bob")

	_, err := e.svc.ReportWinner(ctx, tournament.ID, tournament.Matches[0].ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, bracket.TournamentFinished, e.get(t, tournament.ID).Status)
	assert.Empty(t, e.rewards.outcomes)
}

func TestPlacements(t *testing.T) {
	players := []bracket.Participant{
		{ExternalID: "r1a", Eliminated: true, EliminatedRound: 1},
		{ExternalID: "champ"},
		{ExternalID: "r3", Eliminated: true, EliminatedRound: 3},
		{ExternalID: "r1b", Eliminated: true, EliminatedRound: 1},
		{ExternalID: "r2", Eliminated: true, EliminatedRound: 2},
	}

	assert.Equal(t, map[string]int{
		"champ": 1,
		"r3":    2,
		"r2":    3,
		"r1a":   4,
		"r1b":   4,
	}, placements(players))
}

func TestPairConsecutive(t *testing.T) {
	names := func(ids ...string) []bracket.Participant {
		var ps []bracket.Participant
		for _, id := range ids {
			ps = append(ps, bracket.Participant{ExternalID: id})
		}
		return ps
	}

	tests := []struct {
		name       string
		players    []bracket.Participant
		wantPairs  [][2]string
		sittingOut string
	}{
		{name: "even", players: names("a", "b", "c", "d"), wantPairs: [][2]string{{"a", "b"}, {"c", "d"}}},
		{name: "odd", players: names("a", "b", "c"), wantPairs: [][2]string{{"a", "b"}}, sittingOut: "c"},
		{name: "single", players: names("a"), sittingOut: "a"},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, out := pairConsecutive(tt.players)
			var got [][2]string
			for _, p := range pairs {
				got = append(got, [2]string{p[0].ExternalID, p[1].ExternalID})
			}
			assert.Equal(t, tt.wantPairs, got)
			if tt.sittingOut == "" {
				assert.Nil(t, out)
			} else {
				require.NotNil(t, out)
				assert.Equal(t, tt.sittingOut, out.ExternalID)
			}
		})
	}
}
