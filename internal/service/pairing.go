package service

import "github.com/AdamBeresnev/tourney/internal/bracket"

// pairConsecutive pairs players (0,1), (2,3)... in the order given. With an odd
// count the last player is left out of the round.
func pairConsecutive(players []bracket.Participant) (pairs [][2]bracket.Participant, sittingOut *bracket.Participant) {
	for i := 0; i+1 < len(players); i += 2 {
		pairs = append(pairs, [2]bracket.Participant{players[i], players[i+1]})
	}
	if len(players)%2 == 1 {
		last := players[len(players)-1]
		sittingOut = &last
	}
	return pairs, sittingOut
}

// placements ranks a finished tournament. The champion is first and players
// knocked out in the same round share 1 + the number of players who lasted longer.
func placements(players []bracket.Participant) map[string]int {
	lasted := func(p bracket.Participant) int {
		if !p.Eliminated {
			return int(^uint(0) >> 1)
		}
		return p.EliminatedRound
	}

	ranks := make(map[string]int, len(players))
	for _, p := range players {
		better := 0
		for _, other := range players {
			if lasted(other) > lasted(p) {
				better++
			}
		}
		ranks[p.ExternalID] = better + 1
	}
	return ranks
}

func toMatchPlayer(p bracket.Participant) bracket.MatchPlayer {
	return bracket.MatchPlayer{
		AccountID:   p.AccountID,
		ExternalID:  p.ExternalID,
		DisplayName: p.DisplayName,
	}
}
