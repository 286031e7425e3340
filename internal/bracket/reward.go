package bracket

type RewardType string

const (
	RewardCurrency RewardType = "currency"
	RewardCosmetic RewardType = "cosmetic"
)

type RewardLine struct {
	Type       RewardType `json:"type"`
	Currency   string     `json:"currency,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
	CosmeticID string     `json:"cosmeticId,omitempty"`
}

// RewardBucket pays out to every placement in [PlacementLowest, PlacementHighest].
type RewardBucket struct {
	PlacementLowest  int          `json:"placementLowest"`
	PlacementHighest int          `json:"placementHighest"`
	Rewards          []RewardLine `json:"rewards"`
}

func (b RewardBucket) Covers(placement int) bool {
	return placement >= b.PlacementLowest && placement <= b.PlacementHighest
}

func FindBucket(table []RewardBucket, placement int) (RewardBucket, bool) {
	for _, b := range table {
		if b.Covers(placement) {
			return b, true
		}
	}
	return RewardBucket{}, false
}
