package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	RelayBaseURL string
	RelayWSURL   string

	BotPrefix  string
	EgressMode string
	DryRun     bool

	XUserID    string
	XSessionID string

	DatabaseURL string
	RedisURL    string

	HTTPListenAddr string
	AdminToken     string
	AdminUser      string

	AllowedRooms []string

	GuestName         string
	RecentBattleLimit int
	CatalogRefreshSec int
	StoreTimeoutSec   int
	ContestResetByBot bool
}

func Load() (*AppConfig, error) {
	// Optional .env for local runs; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &AppConfig{
		EgressMode:        "auto",
		HTTPListenAddr:    ":8090",
		GuestName:         "Guest Goblin",
		RecentBattleLimit: 5,
		CatalogRefreshSec: 300,
		StoreTimeoutSec:   5,
	}

	cfg.RelayBaseURL = strings.TrimSpace(os.Getenv("RELAY_BASE_URL"))
	cfg.RelayWSURL = strings.TrimSpace(os.Getenv("RELAY_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))
	if v := strings.TrimSpace(os.Getenv("EGRESS_MODE")); v != "" {
		cfg.EgressMode = v
	}
	if v := strings.TrimSpace(os.Getenv("DRY_RUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DryRun = b
		}
	}

	cfg.XUserID = strings.TrimSpace(os.Getenv("X_USER_ID"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if v := strings.TrimSpace(os.Getenv("HTTP_LISTEN_ADDR")); v != "" {
		cfg.HTTPListenAddr = v
	}
	cfg.AdminToken = strings.TrimSpace(os.Getenv("ADMIN_TOKEN"))
	cfg.AdminUser = strings.TrimSpace(os.Getenv("ADMIN_USER"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ROOMS")); v != "" {
		parts := strings.Split(v, ",")
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("GUEST_NAME")); v != "" {
		cfg.GuestName = v
	}
	if v := strings.TrimSpace(os.Getenv("RECENT_BATTLE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecentBattleLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CATALOG_REFRESH_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CatalogRefreshSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STORE_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StoreTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CONTEST_RESET_BY_BOT")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.ContestResetByBot = b
		}
	}

	if cfg.RelayBaseURL == "" {
		return nil, errors.New("RELAY_BASE_URL is required")
	}
	if cfg.RelayWSURL == "" {
		return nil, errors.New("RELAY_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}

	return cfg, nil
}
