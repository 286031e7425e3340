package bracket

import "time"

// PlayerLink maps a chat identity to an in-game account. Last write wins.
type PlayerLink struct {
	ExternalID  string    `db:"external_id" json:"externalId"`
	AccountID   string    `db:"account_id" json:"accountId"`
	DisplayName string    `db:"display_name" json:"displayName"`
	LinkedAt    time.Time `db:"linked_at" json:"linkedAt"`
}
