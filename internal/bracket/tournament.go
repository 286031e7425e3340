package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentScheduled  TournamentStatus = "scheduled"
	TournamentWaiting    TournamentStatus = "waiting"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentFinished   TournamentStatus = "finished"
	TournamentCancelled  TournamentStatus = "cancelled"
)

// Active reports whether the tournament still accepts players or has matches to play.
func (s TournamentStatus) Active() bool {
	switch s {
	case TournamentScheduled, TournamentWaiting, TournamentInProgress:
		return true
	}
	return false
}

type Tournament struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Style      string    `json:"style,omitempty"`
	Map        string    `json:"map,omitempty"`
	Emojis     string    `json:"emojis,omitempty"`
	MaxPlayers int       `json:"maxPlayers"`
	Rounds     int       `json:"rounds"`

	// Labels are the operator's raw input, kept for display
	RegistrationLabel    string     `json:"registrationLabel"`
	StartLabel           string     `json:"startLabel"`
	RegistrationOpenTime *time.Time `json:"registrationOpenTime,omitempty"`
	TournamentStartTime  *time.Time `json:"tournamentStartTime,omitempty"`

	Status       TournamentStatus `json:"status"`
	Players      []Participant    `json:"players"`
	Matches      []Match          `json:"matches"`
	CurrentRound int              `json:"currentRound"`
	Winner       *Participant     `json:"winner,omitempty"`
	Rewards      []RewardBucket   `json:"rewards,omitempty"`

	CreatedBy  string     `json:"createdBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func (t *Tournament) FindPlayer(externalID string) (*Participant, bool) {
	for i := range t.Players {
		if t.Players[i].ExternalID == externalID {
			return &t.Players[i], true
		}
	}
	return nil, false
}

func (t *Tournament) FindMatch(id uuid.UUID) (*Match, bool) {
	for i := range t.Matches {
		if t.Matches[i].ID == id {
			return &t.Matches[i], true
		}
	}
	return nil, false
}

// ActivePlayers returns the players not yet eliminated, in registration order.
func (t *Tournament) ActivePlayers() []Participant {
	var active []Participant
	for _, p := range t.Players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

func (t *Tournament) RoundMatches(round int) []Match {
	var matches []Match
	for _, m := range t.Matches {
		if m.Round == round {
			matches = append(matches, m)
		}
	}
	return matches
}

func (t *Tournament) IsFull() bool {
	return len(t.Players) >= t.MaxPlayers
}

// Clone returns a deep copy that is safe to hand out while the original keeps mutating.
func (t *Tournament) Clone() Tournament {
	c := *t
	c.Players = append([]Participant(nil), t.Players...)
	c.Matches = make([]Match, len(t.Matches))
	for i, m := range t.Matches {
		c.Matches[i] = m.Clone()
	}
	c.Rewards = append([]RewardBucket(nil), t.Rewards...)
	if t.Winner != nil {
		w := *t.Winner
		c.Winner = &w
	}
	return c
}
