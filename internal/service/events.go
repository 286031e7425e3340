package service

import "github.com/google/uuid"

const (
	EventTournamentCreated   = "tournament.created"
	EventRegistrationOpened  = "registration.opened"
	EventPlayerRegistered    = "player.registered"
	EventTournamentStarted   = "tournament.started"
	EventRoundStarted        = "round.started"
	EventMatchFinished       = "match.finished"
	EventTournamentFinished  = "tournament.finished"
	EventTournamentCancelled = "tournament.cancelled"
	EventTournamentDeleted   = "tournament.deleted"
)

// Notifier receives lifecycle events. Implementations must not block.
type Notifier interface {
	Publish(tournamentID uuid.UUID, event string, payload any)
}

// SnapshotRequester asks for the whole state to be persisted soon. It must not block.
type SnapshotRequester interface {
	Request()
}

type nopNotifier struct{}

func (nopNotifier) Publish(uuid.UUID, string, any) {}

type nopRequester struct{}

func (nopRequester) Request() {}

type event struct {
	name    string
	payload any
}
