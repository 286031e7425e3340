package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/AdamBeresnev/tourney/internal/identity"
	"github.com/alexedwards/scs/v2"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
)

const (
	sessionProvider    = "identity.provider"
	sessionExternalID  = "identity.externalID"
	sessionDisplayName = "identity.displayName"
	sessionAvatarURL   = "identity.avatarURL"
)

func InitAuth(cfg config.DiscordConfig) {
	goth.UseProviders(
		discord.New(cfg.Key, cfg.Secret, cfg.CallbackURL, discord.ScopeIdentify),
	)
}

// StoreIdentity renews the session token and remembers who signed in.
func StoreIdentity(ctx context.Context, sessionManager *scs.SessionManager, id identity.Identity) error {
	if err := sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	sessionManager.Put(ctx, sessionProvider, id.Provider)
	sessionManager.Put(ctx, sessionExternalID, id.ExternalID)
	sessionManager.Put(ctx, sessionDisplayName, id.DisplayName)
	sessionManager.Put(ctx, sessionAvatarURL, id.AvatarURL)
	return nil
}

// LoadIdentity puts the signed-in identity, if any, on the request context.
func LoadIdentity(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			externalID := sessionManager.GetString(ctx, sessionExternalID)
			if externalID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx = identity.WithIdentity(ctx, identity.Identity{
				Provider:    sessionManager.GetString(ctx, sessionProvider),
				ExternalID:  externalID,
				DisplayName: sessionManager.GetString(ctx, sessionDisplayName),
				AvatarURL:   sessionManager.GetString(ctx, sessionAvatarURL),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); !ok {
			httputil.Unauthorized(w, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
