// Package main is the entry point for the Game List web server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (from env vars)
//  2. Create the logger
//  3. Build and start the server
//
// All actual logic lives in internal/server and below, which is what lets the
// tests start the whole application without a process.
//
// ENVIRONMENT:
//
//	PORT            listen port (default 8080)
//	DB_PATH         SQLite file (default data/gamelist.db)
//	SESSION_SECRET  cookie signing key, required, 16+ characters
//	SESSION_TTL     browser-session login lifetime (default 24h)
//	REMEMBER_TTL    "remember me" login lifetime (default 8760h)
//	COOKIE_SECURE   "true" to mark cookies HTTPS-only
//	BCRYPT_COST     bcrypt work factor (default 12)
//	APP_ENV         "production" switches logs to JSON
//	LOG_LEVEL       debug, info, warn or error (default debug, info in production)
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/game-list/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	// Text logs for a terminal, JSON logs when something else reads them.
	production := os.Getenv("APP_ENV") == "production"
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q: %v\n", v, err)
			os.Exit(1)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if production {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	// writeJSON in the handler package logs through the default logger.
	slog.SetDefault(logger)

	// === 2. READ CONFIGURATION ===
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the data directory exists (like `mkdir -p`).
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads server.Config from the environment.
func loadConfig() (server.Config, error) {
	cfg := server.Config{
		Port:   8080,
		DBPath: "data/gamelist.db",
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	// SESSION_SECRET must be a long random string, e.g.
	//   SESSION_SECRET=$(openssl rand -hex 32)
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		return cfg, errors.New("SESSION_SECRET is required")
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL"); err != nil {
		return cfg, err
	}
	if cfg.RememberTTL, err = durationEnv("REMEMBER_TTL"); err != nil {
		return cfg, err
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

// durationEnv parses a time.ParseDuration value; unset means zero, which the
// session service replaces with its default.
func durationEnv(name string) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
