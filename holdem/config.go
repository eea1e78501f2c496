package holdem

import (
	"fmt"
	"time"
)

const (
	DefaultMaxPlayers    = 8
	DefaultStartBalance  = 100
	DefaultSmallBlind    = 1
	DefaultBigBlind      = 2
	DefaultActionTimeout = 30 * time.Second
	DefaultHandDelay     = 3 * time.Second
)

type Config struct {
	// Table
	MaxPlayers int
	MinPlayers int

	// Chips
	StartBalance int64
	SmallBlind   int64
	BigBlind     int64

	// Per-turn wait before an implicit fold (0 disables).
	ActionTimeout time.Duration
	// Pause between hands in Run.
	HandDelay time.Duration

	// RNG seed (0 => time-based)
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:    DefaultMaxPlayers,
		MinPlayers:    2,
		StartBalance:  DefaultStartBalance,
		SmallBlind:    DefaultSmallBlind,
		BigBlind:      DefaultBigBlind,
		ActionTimeout: DefaultActionTimeout,
		HandDelay:     DefaultHandDelay,
	}
}

func (c Config) validate() error {
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("MaxPlayers must be > 0")
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("MinPlayers must be >= 2")
	}
	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must be <= MaxPlayers")
	}
	if c.SmallBlind < 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.StartBalance < 0 {
		return fmt.Errorf("StartBalance must be >= 0")
	}
	if c.ActionTimeout < 0 || c.HandDelay < 0 {
		return fmt.Errorf("timeouts must be >= 0")
	}
	return nil
}
