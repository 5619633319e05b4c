/*
Package config loads runtime configuration from environment variables.

A .env file in the working directory is loaded first if present; real
environment variables take precedence. Every setting has a default, so
the server runs with zero configuration out of the box.
*/
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/symplora/leave-engine/leave"
)

// Config holds everything the server needs to start.
type Config struct {
	Port   string
	DBPath string

	MaxConsecutiveDays int
	HorizonDays        int

	Allocations map[leave.LeaveType]int
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./leave.db"),

		MaxConsecutiveDays: getEnvInt("MAX_CONSECUTIVE_DAYS", 30),
		HorizonDays:        getEnvInt("HORIZON_DAYS", 365),

		Allocations: map[leave.LeaveType]int{
			leave.LeaveAnnual:    getEnvInt("ALLOCATION_ANNUAL", 21),
			leave.LeaveSick:      getEnvInt("ALLOCATION_SICK", 10),
			leave.LeaveEmergency: getEnvInt("ALLOCATION_EMERGENCY", 5),
			leave.LeaveMaternity: getEnvInt("ALLOCATION_MATERNITY", 90),
			leave.LeavePaternity: getEnvInt("ALLOCATION_PATERNITY", 15),
		},
	}
}

// Rules converts the configured limits into the domain rule set.
func (c *Config) Rules() leave.Rules {
	allocations := make(map[leave.LeaveType]decimal.Decimal, len(c.Allocations))
	for t, days := range c.Allocations {
		allocations[t] = decimal.NewFromInt(int64(days))
	}
	return leave.Rules{
		MaxConsecutiveDays: decimal.NewFromInt(int64(c.MaxConsecutiveDays)),
		HorizonDays:        c.HorizonDays,
		Allocations:        allocations,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
