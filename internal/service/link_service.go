package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/schedule"
)

// LinkRegistry maps chat identities to game accounts.
type LinkRegistry struct {
	mu        sync.RWMutex
	links     map[string]bracket.PlayerLink
	clock     schedule.Clock
	snapshots SnapshotRequester
	logger    *slog.Logger
}

func NewLinkRegistry(clock schedule.Clock, snapshots SnapshotRequester, logger *slog.Logger) *LinkRegistry {
	if clock == nil {
		clock = schedule.Real{}
	}
	if snapshots == nil {
		snapshots = nopRequester{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkRegistry{
		links:     make(map[string]bracket.PlayerLink),
		clock:     clock,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Link records or overwrites the link for externalID. Already registered
// participants keep the account they registered with.
func (r *LinkRegistry) Link(ctx context.Context, externalID, accountID, displayName string) (bracket.PlayerLink, error) {
	externalID = strings.TrimSpace(externalID)
	accountID = strings.TrimSpace(accountID)
	if externalID == "" {
		return bracket.PlayerLink{}, validationError("externalId is required")
	}
	if accountID == "" {
		return bracket.PlayerLink{}, validationError("accountId is required")
	}

	link := bracket.PlayerLink{
		ExternalID:  externalID,
		AccountID:   accountID,
		DisplayName: strings.TrimSpace(displayName),
		LinkedAt:    r.clock.Now(),
	}

	r.mu.Lock()
	r.links[externalID] = link
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "player linked", "external_id", externalID, "account_id", accountID)
	r.snapshots.Request()
	return link, nil
}

func (r *LinkRegistry) Resolve(externalID string) (bracket.PlayerLink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[externalID]
	return link, ok
}

func (r *LinkRegistry) Get(externalID string) (bracket.PlayerLink, error) {
	link, ok := r.Resolve(externalID)
	if !ok {
		return bracket.PlayerLink{}, ErrLinkNotFound
	}
	return link, nil
}

func (r *LinkRegistry) List() []bracket.PlayerLink {
	r.mu.RLock()
	links := make([]bracket.PlayerLink, 0, len(r.links))
	for _, l := range r.links {
		links = append(links, l)
	}
	r.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		return links[i].ExternalID < links[j].ExternalID
	})
	return links
}

// Restore replaces the registry content with links loaded from a snapshot.
func (r *LinkRegistry) Restore(links []bracket.PlayerLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = make(map[string]bracket.PlayerLink, len(links))
	for _, l := range links {
		r.links[l.ExternalID] = l
	}
}
