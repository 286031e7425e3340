package views

import (
	"sort"

	"github.com/AdamBeresnev/tourney/internal/bracket"
)

type BracketData struct {
	Rounds    map[int][]bracket.Match
	RoundNums []int
}

// PrepareBracketData groups matches by round, keeping creation order inside a round.
func PrepareBracketData(matches []bracket.Match) BracketData {
	rounds := make(map[int][]bracket.Match)
	var roundNums []int

	for _, m := range matches {
		if _, exists := rounds[m.Round]; !exists {
			roundNums = append(roundNums, m.Round)
		}
		rounds[m.Round] = append(rounds[m.Round], m)
	}

	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.SliceStable(rounds[r], func(i, j int) bool {
			return rounds[r][i].CreatedAt.Before(rounds[r][j].CreatedAt)
		})
	}

	return BracketData{Rounds: rounds, RoundNums: roundNums}
}

// Standings orders participants by wins, survivors first, then by registration.
func Standings(players []bracket.Participant) []bracket.Participant {
	out := append([]bracket.Participant(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Eliminated != b.Eliminated {
			return !a.Eliminated
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.RegisteredAt.Before(b.RegisteredAt)
	})
	return out
}
