package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, matchSize int) (*PoolService, *schedule.Manual) {
	t.Helper()
	clock := schedule.NewManual(baseTime)
	return NewPoolService(PoolDeps{Clock: clock, Codes: &sequentialCodes{}, MatchSize: matchSize}), clock
}

// join registers players one second apart so join order is unambiguous.
func join(t *testing.T, pool *PoolService, clock *schedule.Manual, ids ...string) []*bracket.PoolMatch {
	t.Helper()
	var matches []*bracket.PoolMatch
	for _, id := range ids {
		reg, err := pool.AutoRegister(context.Background(), id, "Player "+id, "")
		require.NoError(t, err)
		require.False(t, reg.AlreadyRegistered)
		if reg.Match != nil {
			matches = append(matches, reg.Match)
		}
		clock.Advance(time.Second)
	}
	return matches
}

func playerIDs(m *bracket.PoolMatch) []string {
	var ids []string
	for _, p := range m.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestAutoRegister(t *testing.T) {
	ctx := context.Background()
	pool, _ := newPool(t, 0)

	first, err := pool.AutoRegister(ctx, "alice", "Alice", "stumble-1")
	require.NoError(t, err)
	assert.False(t, first.AlreadyRegistered)
	assert.Nil(t, first.Match)
	assert.Equal(t, bracket.PoolWaiting, first.Player.Status)
	assert.Equal(t, "stumble-1", first.Player.AltID)

	again, err := pool.AutoRegister(ctx, "alice", "Alice", "stumble-1")
	require.NoError(t, err)
	assert.True(t, again.AlreadyRegistered)
	assert.Nil(t, again.Match)
	assert.Equal(t, []string{"alice"}, pool.Queue())

	second, err := pool.AutoRegister(ctx, "bob", "Bob", "")
	require.NoError(t, err)
	require.NotNil(t, second.Match)
	assert.Equal(t, []string{"alice", "bob"}, playerIDs(second.Match))
	assert.Equal(t, "ROOM01", second.Match.RoomCode)
	assert.Equal(t, bracket.PoolInMatch, second.Player.Status)
	assert.Empty(t, pool.Queue())

	_, err = pool.AutoRegister(ctx, "  ", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPool_PairsLongestWaitingFirst(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 2)

	matches := join(t, pool, clock, "p1", "p2", "p3", "p4", "p5")
	require.Len(t, matches, 2)
	assert.Equal(t, []string{"p1", "p2"}, playerIDs(matches[0]))
	assert.Equal(t, []string{"p3", "p4"}, playerIDs(matches[1]))
	assert.Equal(t, []string{"p5"}, pool.Queue())

	res, err := pool.ReportWinner(ctx, matches[0].ID, "p2")
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchFinished, res.Match.Status)
	assert.Equal(t, "p2", res.Match.Winner.ID)

	require.NotNil(t, res.Next)
	assert.Equal(t, []string{"p5", "p2"}, playerIDs(res.Next), "p5 waited longest, then the winner")
	assert.Equal(t, []string{"p1"}, pool.Queue())
}

func TestPool_ReportWinnerErrors(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 2)
	matches := join(t, pool, clock, "alice", "bob")
	require.Len(t, matches, 1)
	m := matches[0]

	_, err := pool.ReportWinner(ctx, uuid.New(), "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = pool.ReportWinner(ctx, m.ID, "mallory")
	assert.ErrorIs(t, err, ErrNotAParticipant)

	_, err = pool.ReportWinner(ctx, m.ID, "alice")
	require.NoError(t, err)

	_, err = pool.ReportWinner(ctx, m.ID, "bob")
	assert.ErrorIs(t, err, ErrMatchAlreadyFinished)
}

func TestPool_StatsAndRanking(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 2)

	m := join(t, pool, clock, "alice", "bob")[0]
	res, err := pool.ReportWinner(ctx, m.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	res, err = pool.ReportWinner(ctx, res.Next.ID, "alice")
	require.NoError(t, err)
	res, err = pool.ReportWinner(ctx, res.Next.ID, "bob")
	require.NoError(t, err)
	join(t, pool, clock, "carol")

	alice, err := pool.Stats("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, alice.Wins)
	assert.Equal(t, 1, alice.Losses)
	assert.Equal(t, 3, alice.TotalMatches)
	assert.Equal(t, "66.67%", alice.WinRate)

	bob, err := pool.Stats("bob")
	require.NoError(t, err)
	assert.Equal(t, "33.33%", bob.WinRate)

	ranking := pool.Ranking(10)
	require.Len(t, ranking, 3)
	assert.Equal(t, "alice", ranking[0].ID)
	assert.Equal(t, "bob", ranking[1].ID)
	assert.Equal(t, "carol", ranking[2].ID)

	top := pool.Ranking(1)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].ID)

	_, err = pool.Stats("nobody")
	assert.ErrorIs(t, err, ErrPoolPlayerNotFound)
}

func TestPool_StatsWithoutMatches(t *testing.T) {
	pool, clock := newPool(t, 2)
	join(t, pool, clock, "alice")

	stats, err := pool.Stats("alice")
	require.NoError(t, err)
	assert.Equal(t, "0.00%", stats.WinRate)
	assert.Equal(t, 0, stats.TotalMatches)
}

func TestPool_Leave(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 2)
	join(t, pool, clock, "alice", "bob", "carol")

	err := pool.Leave(ctx, "alice")
	assert.ErrorIs(t, err, ErrPlayerInMatch)

	require.NoError(t, pool.Leave(ctx, "carol"))
	assert.Empty(t, pool.Queue())

	err = pool.Leave(ctx, "carol")
	assert.ErrorIs(t, err, ErrPoolPlayerNotFound)

	reg, err := pool.AutoRegister(ctx, "carol", "Carol", "")
	require.NoError(t, err)
	assert.False(t, reg.AlreadyRegistered, "a player who left can come back")
}

func TestPool_SummaryAndActiveMatches(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 2)
	matches := join(t, pool, clock, "p1", "p2", "p3", "p4", "p5")

	sum := pool.Summary()
	assert.Equal(t, PoolSummary{Waiting: 1, InMatch: 4, TotalPlayers: 5, ActiveMatches: 2, TotalMatches: 2}, sum)

	active := pool.ActiveMatches()
	require.Len(t, active, 2)
	assert.Equal(t, matches[0].ID, active[0].ID)

	_, err := pool.ReportWinner(ctx, matches[1].ID, "p3")
	require.NoError(t, err)

	active = pool.ActiveMatches()
	require.Len(t, active, 2, "p5 and p3 were paired right away")
	assert.Equal(t, matches[0].ID, active[0].ID)
	assert.Equal(t, []string{"p5", "p3"}, playerIDs(&active[1]))

	sum = pool.Summary()
	assert.Equal(t, 1, sum.Waiting)
	assert.Equal(t, 3, sum.TotalMatches)
}

func TestPool_LargerMatches(t *testing.T) {
	ctx := context.Background()
	pool, clock := newPool(t, 3)

	matches := join(t, pool, clock, "a", "b", "c", "d")
	require.Len(t, matches, 1)
	assert.Equal(t, []string{"a", "b", "c"}, playerIDs(matches[0]))

	res, err := pool.ReportWinner(ctx, matches[0].ID, "b")
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	assert.Equal(t, []string{"d", "b", "a"}, playerIDs(res.Next))

	a, _ := pool.Stats("a")
	c, _ := pool.Stats("c")
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, 1, c.Losses)
	assert.Equal(t, []string{"c"}, pool.Queue())
}
