package bracket

import "time"

type Participant struct {
	AccountID    string    `json:"accountId"`
	ExternalID   string    `json:"externalId"`
	DisplayName  string    `json:"displayName"`
	RegisteredAt time.Time `json:"registeredAt"`
	Wins         int       `json:"wins"`
	Eliminated   bool      `json:"eliminated"`
	// Round the player lost in, zero while still alive
	EliminatedRound int `json:"eliminatedRound,omitempty"`
}
