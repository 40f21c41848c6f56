// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	OwnerKeySalt string
	AdminIDs     []string
	LogLevel     string
	StoreTimeout time.Duration
}

// IsAdmin reports whether userID is configured as a super-admin
func (c Config) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first if present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var adminIDs string

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.DurationVar(&cfg.StoreTimeout, "store-timeout", 0, "Per-operation database timeout")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.OwnerKeySalt, "owner-salt", "", "Owner key salt (prefer env)")
	fs.StringVar(&adminIDs, "admins", "", "Comma separated super-admin user IDs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabasePostgres {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "livepoll.db"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}

	if cfg.StoreTimeout == 0 {
		if s := os.Getenv("STORE_TIMEOUT"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid STORE_TIMEOUT env variable")
			}
			cfg.StoreTimeout = d
		} else {
			cfg.StoreTimeout = 5 * time.Second
		}
	}

	if adminIDs == "" {
		adminIDs = os.Getenv("ADMIN_IDS")
	}
	for _, id := range strings.Split(adminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	// Secrets - MUST be provided
	if cfg.OwnerKeySalt == "" {
		cfg.OwnerKeySalt = os.Getenv("OWNER_KEY_SALT")
	}
	if cfg.OwnerKeySalt == "" {
		return Config{}, errors.New("OWNER_KEY_SALT required")
	}

	return cfg, nil
}
