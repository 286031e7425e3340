package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting"
	MatchFinished MatchStatus = "finished"
)

type MatchPlayer struct {
	AccountID   string `json:"accountId"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

type Match struct {
	ID           uuid.UUID      `json:"id"`
	TournamentID uuid.UUID      `json:"tournamentId"`
	Round        int            `json:"round"`
	Players      [2]MatchPlayer `json:"players"`
	RoomCode     string         `json:"roomCode"`
	Status       MatchStatus    `json:"status"`
	Winner       *MatchPlayer   `json:"winner,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
}

// Slot returns the index of the player in the match, or -1.
func (m *Match) Slot(externalID string) int {
	for i, p := range m.Players {
		if p.ExternalID == externalID {
			return i
		}
	}
	return -1
}

func (m *Match) IsWinner(slot int) bool {
	return m.Status == MatchFinished && m.Winner != nil && m.Winner.ExternalID == m.Players[slot].ExternalID
}

func (m *Match) IsLoser(slot int) bool {
	return m.Status == MatchFinished && m.Winner != nil && m.Winner.ExternalID != m.Players[slot].ExternalID
}

// Clone copies the match including its pointer fields.
func (m Match) Clone() Match {
	if m.Winner != nil {
		w := *m.Winner
		m.Winner = &w
	}
	if m.FinishedAt != nil {
		f := *m.FinishedAt
		m.FinishedAt = &f
	}
	return m
}

// PendingMatch is a waiting match decorated with the tournament it belongs to.
type PendingMatch struct {
	Match
	TournamentName string `json:"tournamentName"`
	Map            string `json:"map,omitempty"`
	Style          string `json:"style,omitempty"`
	Emojis         string `json:"emojis,omitempty"`
}
