package main

import (
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/AdamBeresnev/tourney/internal/identity"
	"github.com/AdamBeresnev/tourney/internal/live"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/markbates/goth/gothic"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	tournaments    *service.TournamentService
	links          *service.LinkRegistry
	pool           *service.PoolService
	economy        *store.EconomyStore
	hub            *live.Hub
	adminSecret    []byte
	allowedOrigins []string
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Browser pages and sign in share the session.
	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadIdentity(app.sessionManager))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/tournaments", http.StatusFound)
		})
		r.Get("/tournaments", app.tournamentListPage)
		r.Get("/tournaments/{id}", app.tournamentPage)

		r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
			gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, chi.URLParam(r, "provider")))
		})
		r.Get("/auth/{provider}/callback", app.authCallback)

		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			if err := app.sessionManager.Destroy(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to destroy session", err)
				return
			}
			http.Redirect(w, r, "/tournaments", http.StatusFound)
		})

		r.With(middleware.RequireIdentity).Post("/link", app.linkSelf)
	})

	r.Get("/ws/lobby", func(w http.ResponseWriter, r *http.Request) {
		app.hub.ServeWs(w, r, live.LobbyRoom)
	})
	r.Get("/ws/tournaments/{id}", app.tournamentSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tournaments", app.listTournaments)
		r.Get("/tournaments/active", app.listActiveTournaments)
		r.Get("/tournaments/{id}", app.getTournament)
		r.Post("/tournaments/{id}/register", app.registerPlayer)
		r.Post("/tournaments/{id}/matches/{matchId}/winner", app.reportWinner)
		r.Get("/players/{externalId}/matches", app.pendingMatches)
		r.Get("/links/{externalId}", app.getLink)

		r.Get("/accounts/{accountId}/balances/{currency}", app.accountBalance)
		r.Get("/accounts/{accountId}/cosmetics", app.accountCosmetics)

		r.Route("/pool", func(r chi.Router) {
			r.Get("/", app.poolSummary)
			r.Get("/matches", app.poolMatches)
			r.Get("/queue", app.poolQueue)
			r.Get("/ranking", app.poolRanking)
			r.Get("/players/{id}", app.poolPlayer)
			r.Post("/join", app.poolJoin)
			r.Post("/leave", app.poolLeave)
			r.Post("/matches/{matchId}/winner", app.poolReportWinner)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(app.adminSecret))

			r.Post("/tournaments", app.createTournament)
			r.Post("/tournaments/{id}/start", app.startTournament)
			r.Delete("/tournaments/{id}", app.deleteTournament)
			r.Post("/links", app.createLink)
		})
	})

	return r
}

func (app *application) authCallback(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	id := identity.FromGothUser(gothUser)
	if err := middleware.StoreIdentity(r.Context(), app.sessionManager, id); err != nil {
		httputil.InternalServerError(w, "Failed to store session", err)
		return
	}
	app.logger.InfoContext(r.Context(), "signed in", "provider", id.Provider, "external_id", id.ExternalID)

	http.Redirect(w, r, "/tournaments", http.StatusFound)
}
