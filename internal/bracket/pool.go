package bracket

import (
	"time"

	"github.com/google/uuid"
)

type PoolPlayerStatus string

const (
	PoolWaiting PoolPlayerStatus = "waiting"
	PoolInMatch PoolPlayerStatus = "in_match"
)

type PoolPlayer struct {
	ID           string           `json:"id"`
	DisplayName  string           `json:"displayName"`
	AltID        string           `json:"altId,omitempty"`
	Status       PoolPlayerStatus `json:"status"`
	Wins         int              `json:"wins"`
	Losses       int              `json:"losses"`
	RegisteredAt time.Time        `json:"registeredAt"`
}

type PoolMatchPlayer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AltID       string `json:"altId,omitempty"`
}

type PoolMatch struct {
	ID         uuid.UUID         `json:"id"`
	RoomCode   string            `json:"roomCode"`
	Players    []PoolMatchPlayer `json:"players"`
	Status     MatchStatus       `json:"status"`
	Winner     *PoolMatchPlayer  `json:"winner,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
}
