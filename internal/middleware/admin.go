package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AdamBeresnev/tourney/internal/httputil"
	"github.com/golang-jwt/jwt/v5"
)

type ContextKey string

const AdminSubjectKey ContextKey = "adminSubject"

const RoleAdmin = "admin"

var ErrNotAdmin = errors.New("token does not carry the admin role")

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintAdminToken signs an HS256 token for subject. A zero ttl means no expiry.
func MintAdminToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseAdminToken(secret []byte, raw string) (*AdminClaims, error) {
	var claims AdminClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse admin token: %w", err)
	}
	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return &claims, nil
}

// RequireAdmin accepts only requests bearing a valid admin token.
// An empty secret rejects everything.
func RequireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				httputil.Forbidden(w, "admin access is disabled")
				return
			}
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				httputil.Unauthorized(w, "missing bearer token")
				return
			}

			claims, err := ParseAdminToken(secret, raw)
			if errors.Is(err, ErrNotAdmin) {
				httputil.Forbidden(w, "admin role required")
				return
			}
			if err != nil {
				httputil.Unauthorized(w, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminSubject(ctx context.Context) string {
	sub, _ := ctx.Value(AdminSubjectKey).(string)
	return sub
}
