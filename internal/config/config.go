package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"holdem-tafel/holdem"
	"holdem-tafel/internal/history"
)

const defaultListenAddr = ":8000"

type Config struct {
	ListenAddr      string
	OriginAllowlist []string

	Game    holdem.Config
	History history.Config

	LogLevel  logrus.Level
	LogFormat string
}

// Load reads an optional .env file (files are skipped when missing) and
// then the process environment. Variables already set in the environment
// win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	game := holdem.DefaultConfig()
	game.StartBalance = envInt64OrDefault("START_BALANCE", game.StartBalance)
	game.SmallBlind = envInt64OrDefault("SMALL_BLIND", game.SmallBlind)
	game.BigBlind = envInt64OrDefault("BIG_BLIND", game.BigBlind)
	game.ActionTimeout = envDurationOrDefault("ACTION_TIMEOUT", game.ActionTimeout)
	game.HandDelay = envDurationOrDefault("HAND_DELAY", game.HandDelay)
	game.Seed = envInt64OrDefault("GAME_SEED", 0)

	cfg := Config{
		ListenAddr:      envOrDefault("LISTEN_ADDR", defaultListenAddr),
		OriginAllowlist: splitList(os.Getenv("ORIGIN_ALLOWLIST")),
		Game:            game,
		History: history.Config{
			Mode:         history.Mode(strings.ToLower(envOrDefault("HISTORY_MODE", string(history.ModeMemory)))),
			DatabasePath: strings.TrimSpace(os.Getenv("HISTORY_DATABASE_PATH")),
			DatabaseDSN:  historyDSNFromEnv(),
			RecentLimit:  envIntOrDefault("HISTORY_RECENT_LIMIT", 200),
		},
		LogFormat: strings.ToLower(envOrDefault("LOG_FORMAT", "text")),
	}

	level, err := logrus.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.Game.SmallBlind > cfg.Game.BigBlind {
		return Config{}, fmt.Errorf("SMALL_BLIND (%d) exceeds BIG_BLIND (%d)", cfg.Game.SmallBlind, cfg.Game.BigBlind)
	}
	return cfg, nil
}

// Logger builds the root logger for the configured level and format.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func historyDSNFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("HISTORY_DATABASE_DSN")); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envInt64OrDefault(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// envDurationOrDefault accepts Go durations ("45s") or plain seconds.
func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
