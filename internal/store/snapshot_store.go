package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/jmoiron/sqlx"
)

type SnapshotStore struct {
	db *sqlx.DB
}

type tournamentRow struct {
	ID        string    `db:"id"`
	Position  int       `db:"position"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	deleteTournamentsQuery = "DELETE FROM tournaments"
	insertTournamentsQuery = `
		INSERT INTO tournaments (id, position, name, status, payload, created_at, updated_at)
		VALUES (:id, :position, :name, :status, :payload, :created_at, :updated_at)
	`
	selectTournamentsQuery = "SELECT * FROM tournaments ORDER BY position ASC"

	deleteLinksQuery = "DELETE FROM player_links"
	insertLinksQuery = `
		INSERT INTO player_links (external_id, account_id, display_name, linked_at)
		VALUES (:external_id, :account_id, :display_name, :linked_at)
	`
	selectLinksQuery = "SELECT * FROM player_links ORDER BY external_id ASC"
)

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveSnapshot replaces everything stored with snap in one transaction.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap bracket.Snapshot) error {
	rows := make([]tournamentRow, 0, len(snap.Tournaments))
	for i, t := range snap.Tournaments {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
		}
		rows = append(rows, tournamentRow{
			ID:        t.ID.String(),
			Position:  i,
			Name:      t.Name,
			Status:    string(t.Status),
			Payload:   string(payload),
			CreatedAt: t.CreatedAt,
			UpdatedAt: snap.TakenAt,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteTournamentsQuery); err != nil {
		return fmt.Errorf("failed to clear tournaments: %w", err)
	}
	if len(rows) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertTournamentsQuery, rows); err != nil {
			return fmt.Errorf("failed to insert tournaments: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, deleteLinksQuery); err != nil {
		return fmt.Errorf("failed to clear player links: %w", err)
	}
	if len(snap.Links) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertLinksQuery, snap.Links); err != nil {
			return fmt.Errorf("failed to insert player links: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (bracket.Snapshot, error) {
	var rows []tournamentRow
	if err := s.db.SelectContext(ctx, &rows, selectTournamentsQuery); err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to load tournaments: %w", err)
	}

	snap := bracket.Snapshot{Tournaments: make([]bracket.Tournament, 0, len(rows))}
	for _, row := range rows {
		t, err := decodeTournament(row)
		if err != nil {
			return bracket.Snapshot{}, err
		}
		snap.Tournaments = append(snap.Tournaments, t)
		if row.UpdatedAt.After(snap.TakenAt) {
			snap.TakenAt = row.UpdatedAt
		}
	}

	if err := s.db.SelectContext(ctx, &snap.Links, selectLinksQuery); err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to load player links: %w", err)
	}
	return snap, nil
}

func decodeTournament(row tournamentRow) (bracket.Tournament, error) {
	var t bracket.Tournament
	if err := json.Unmarshal([]byte(row.Payload), &t); err != nil {
		return bracket.Tournament{}, fmt.Errorf("failed to decode tournament %s: %w", row.ID, err)
	}
	return t, nil
}
