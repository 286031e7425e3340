// Command admin-token prints a bearer token for the admin API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/AdamBeresnev/tourney/internal/middleware"
)

func main() {
	subject := flag.String("sub", "admin", "token subject, recorded as the creator of tournaments")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.AdminJWTSecret == "" {
		slog.Error("ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := middleware.MintAdminToken([]byte(cfg.AdminJWTSecret), *subject, *ttl, time.Now())
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
