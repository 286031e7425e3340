package bracket

import "time"

// Snapshot is the whole persisted state. Saves overwrite it entirely.
type Snapshot struct {
	Tournaments []Tournament `json:"tournaments"`
	Links       []PlayerLink `json:"links"`
	TakenAt     time.Time    `json:"takenAt"`
}
