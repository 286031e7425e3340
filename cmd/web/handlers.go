package main

import (
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/AdamBeresnev/tourney/internal/identity"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultRankingLimit = 10

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func (app *application) tournamentListPage(w http.ResponseWriter, r *http.Request) {
	tournaments := app.tournaments.ListAllTournaments(r.Context())
	if err := views.Render(w, r, views.TournamentList(tournaments)); err != nil {
		app.logger.ErrorContext(r.Context(), "failed to render tournament list", "error", err)
	}
}

func (app *application) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to get tournament", err)
		return
	}
	if err := views.Render(w, r, views.TournamentPage(t)); err != nil {
		app.logger.ErrorContext(r.Context(), "failed to render tournament", "tournament_id", id, "error", err)
	}
}

func (app *application) tournamentSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := app.tournaments.GetTournament(r.Context(), id); err != nil {
		httputil.ServiceError(w, "Failed to get tournament", err)
		return
	}
	app.hub.ServeWs(w, r, id.String())
}

func (app *application) linkSelf(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountID string `json:"accountId"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}
	who, _ := identity.FromContext(r.Context())

	link, err := app.links.Link(r.Context(), who.ExternalID, input.AccountID, who.DisplayName)
	if err != nil {
		httputil.ServiceError(w, "Failed to link account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, link)
}

func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, app.tournaments.ListAllTournaments(r.Context()))
}

func (app *application) listActiveTournaments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, app.tournaments.ListActiveTournaments(r.Context()))
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var cfg service.TournamentConfig
	if err := httputil.ReadJSON(w, r, &cfg); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}
	cfg.CreatedBy = middleware.AdminSubject(r.Context())

	t, err := app.tournaments.CreateTournament(r.Context(), cfg)
	if err != nil {
		httputil.ServiceError(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (app *application) registerPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var input struct {
		ExternalID string `json:"externalId"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	p, err := app.tournaments.RegisterPlayer(r.Context(), id, input.ExternalID)
	if err != nil {
		httputil.ServiceError(w, "Failed to register player", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := app.tournaments.StartTournament(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to start tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (app *application) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := app.tournaments.DeleteTournament(r.Context(), id); err != nil {
		httputil.ServiceError(w, "Failed to delete tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) reportWinner(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchId")
	if !ok {
		return
	}
	var input struct {
		WinnerExternalID string `json:"winnerExternalId"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	m, err := app.tournaments.ReportWinner(r.Context(), tournamentID, matchID, input.WinnerExternalID)
	if err != nil {
		httputil.ServiceError(w, "Failed to report winner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (app *application) pendingMatches(w http.ResponseWriter, r *http.Request) {
	matches := app.tournaments.PendingMatchesForPlayer(r.Context(), chi.URLParam(r, "externalId"))
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) getLink(w http.ResponseWriter, r *http.Request) {
	link, err := app.links.Get(chi.URLParam(r, "externalId"))
	if err != nil {
		httputil.ServiceError(w, "Failed to get link", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, link)
}

func (app *application) createLink(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ExternalID  string `json:"externalId"`
		AccountID   string `json:"accountId"`
		DisplayName string `json:"displayName"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	link, err := app.links.Link(r.Context(), input.ExternalID, input.AccountID, input.DisplayName)
	if err != nil {
		httputil.ServiceError(w, "Failed to link account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, link)
}

func (app *application) accountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, currency := chi.URLParam(r, "accountId"), chi.URLParam(r, "currency")
	balance, err := app.economy.Balance(r.Context(), accountID, currency)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"currency":  currency,
		"balance":   balance,
	})
}

func (app *application) accountCosmetics(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	cosmetics, err := app.economy.Cosmetics(r.Context(), accountID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get cosmetics", err)
		return
	}
	if cosmetics == nil {
		cosmetics = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"cosmetics": cosmetics,
	})
}

func (app *application) poolSummary(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, app.pool.Summary())
}

func (app *application) poolMatches(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, app.pool.ActiveMatches())
}

func (app *application) poolQueue(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, app.pool.Queue())
}

func (app *application) poolRanking(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer", err)
			return
		}
		limit = n
	}
	httputil.WriteJSON(w, http.StatusOK, app.pool.Ranking(limit))
}

func (app *application) poolPlayer(w http.ResponseWriter, r *http.Request) {
	stats, err := app.pool.Stats(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ServiceError(w, "Failed to get pool player", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (app *application) poolJoin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		AltID       string `json:"altId"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	reg, err := app.pool.AutoRegister(r.Context(), input.ID, input.DisplayName, input.AltID)
	if err != nil {
		httputil.ServiceError(w, "Failed to join pool", err)
		return
	}
	status := http.StatusCreated
	if reg.AlreadyRegistered {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, reg)
}

func (app *application) poolLeave(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID string `json:"id"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}
	if err := app.pool.Leave(r.Context(), input.ID); err != nil {
		httputil.ServiceError(w, "Failed to leave pool", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) poolReportWinner(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "matchId")
	if !ok {
		return
	}
	var input struct {
		WinnerID string `json:"winnerId"`
	}
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	res, err := app.pool.ReportWinner(r.Context(), matchID, input.WinnerID)
	if err != nil {
		httputil.ServiceError(w, "Failed to report pool winner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
