package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/google/uuid"
)

// Economy applies reward lines to an account.
type Economy interface {
	CreditCurrency(ctx context.Context, accountID, currency string, amount int64) error
	GrantCosmetic(ctx context.Context, accountID, cosmeticID string) error
}

// ClaimLedger remembers which accounts collected rewards for which tournament.
// MarkClaimed reports false when the claim already existed.
type ClaimLedger interface {
	MarkClaimed(ctx context.Context, tournamentID uuid.UUID, accountID string) (bool, error)
}

type RewardOutcome struct {
	TournamentID uuid.UUID
	AccountID    string
	Placement    int
	Table        []bracket.RewardBucket
}

type RewardResult struct {
	NoReward bool                 `json:"noReward"`
	Bucket   bracket.RewardBucket `json:"bucket"`
	Applied  []bracket.RewardLine `json:"applied"`
}

type RewardService struct {
	economy Economy
	claims  ClaimLedger
	logger  *slog.Logger
}

func NewRewardService(economy Economy, claims ClaimLedger, logger *slog.Logger) *RewardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RewardService{economy: economy, claims: claims, logger: logger}
}

// Disburse pays the bucket covering the placement. A placement outside every
// bucket is not an error. The claim is recorded before any line is applied so
// a second call never pays twice.
func (s *RewardService) Disburse(ctx context.Context, outcome RewardOutcome) (RewardResult, error) {
	if outcome.AccountID == "" {
		return RewardResult{}, validationError("accountId is required")
	}
	bucket, ok := bracket.FindBucket(outcome.Table, outcome.Placement)
	if !ok {
		return RewardResult{NoReward: true}, nil
	}

	fresh, err := s.claims.MarkClaimed(ctx, outcome.TournamentID, outcome.AccountID)
	if err != nil {
		return RewardResult{}, fmt.Errorf("failed to record reward claim: %w", err)
	}
	if !fresh {
		return RewardResult{}, ErrRewardAlreadyClaimed
	}

	res := RewardResult{Bucket: bucket}
	for _, line := range bucket.Rewards {
		if err := s.apply(ctx, outcome.AccountID, line); err != nil {
			return res, fmt.Errorf("failed to apply %s reward: %w", line.Type, err)
		}
		res.Applied = append(res.Applied, line)
	}
	return res, nil
}

func (s *RewardService) apply(ctx context.Context, accountID string, line bracket.RewardLine) error {
	switch line.Type {
	case bracket.RewardCurrency:
		return s.economy.CreditCurrency(ctx, accountID, line.Currency, line.Amount)
	case bracket.RewardCosmetic:
		return s.economy.GrantCosmetic(ctx, accountID, line.CosmeticID)
	default:
		s.logger.WarnContext(ctx, "skipping unknown reward type", "type", line.Type, "account_id", accountID)
		return nil
	}
}
