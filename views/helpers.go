package views

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/identity"
)

func GetIdentity(ctx context.Context) *identity.Identity {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil
	}
	return &id
}

func statusLabel(s bracket.TournamentStatus) string {
	switch s {
	case bracket.TournamentScheduled:
		return "Scheduled"
	case bracket.TournamentWaiting:
		return "Registration open"
	case bracket.TournamentInProgress:
		return "In progress"
	case bracket.TournamentFinished:
		return "Finished"
	case bracket.TournamentCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

func timeOr(t *time.Time, label string) string {
	if t == nil {
		return label
	}
	return t.UTC().Format("15:04 MST")
}

func playerCount(t bracket.Tournament) string {
	return fmt.Sprintf("%d/%d", len(t.Players), t.MaxPlayers)
}
