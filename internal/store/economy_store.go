package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EconomyStore keeps account balances, owned cosmetics and reward claims.
type EconomyStore struct {
	db *sqlx.DB
}

const (
	creditCurrencyQuery = `
		INSERT INTO account_balances (account_id, currency, amount) VALUES (?, ?, ?)
		ON CONFLICT (account_id, currency) DO UPDATE SET amount = account_balances.amount + excluded.amount
	`
	grantCosmeticQuery = `
		INSERT INTO account_cosmetics (account_id, cosmetic_id, granted_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`
	markClaimedQuery = `
		INSERT INTO reward_claims (tournament_id, account_id, claimed_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`
	getBalanceQuery   = "SELECT amount FROM account_balances WHERE account_id = ? AND currency = ?"
	getCosmeticsQuery = "SELECT cosmetic_id FROM account_cosmetics WHERE account_id = ? ORDER BY cosmetic_id ASC"
)

func NewEconomyStore(db *sqlx.DB) *EconomyStore {
	return &EconomyStore{db: db}
}

func (s *EconomyStore) CreditCurrency(ctx context.Context, accountID, currency string, amount int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(creditCurrencyQuery), accountID, currency, amount)
	return err
}

// GrantCosmetic is idempotent: granting an owned cosmetic changes nothing.
func (s *EconomyStore) GrantCosmetic(ctx context.Context, accountID, cosmeticID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(grantCosmeticQuery), accountID, cosmeticID, time.Now().UTC())
	return err
}

// MarkClaimed records the claim and reports false if it was already there.
func (s *EconomyStore) MarkClaimed(ctx context.Context, tournamentID uuid.UUID, accountID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(markClaimedQuery), tournamentID.String(), accountID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *EconomyStore) Balance(ctx context.Context, accountID, currency string) (int64, error) {
	var amount int64
	err := s.db.GetContext(ctx, &amount, s.db.Rebind(getBalanceQuery), accountID, currency)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (s *EconomyStore) Cosmetics(ctx context.Context, accountID string) ([]string, error) {
	cosmetics := []string{}
	err := s.db.SelectContext(ctx, &cosmetics, s.db.Rebind(getCosmeticsQuery), accountID)
	return cosmetics, err
}
