package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the booking
// engine.
type Config struct {
	SQLiteDSN           string
	SweepInterval       time.Duration
	CheckInGrace        time.Duration
	AvailabilityHorizon time.Duration
}

// Load parses configuration values from the current process environment.
//
// Every field has a sensible default; values that are present but malformed
// are rejected rather than silently ignored.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:           "file:booking.db",
		SweepInterval:       time.Minute,
		CheckInGrace:        10 * time.Minute,
		AvailabilityHorizon: 7 * 24 * time.Hour,
	}

	invalid := make([]string, 0, 3)

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if value := strings.TrimSpace(os.Getenv("BOOKING_SWEEP_INTERVAL")); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "BOOKING_SWEEP_INTERVAL")
		} else {
			cfg.SweepInterval = interval
		}
	}

	if value := strings.TrimSpace(os.Getenv("BOOKING_CHECKIN_GRACE")); value != "" {
		grace, err := time.ParseDuration(value)
		if err != nil || grace <= 0 {
			invalid = append(invalid, "BOOKING_CHECKIN_GRACE")
		} else {
			cfg.CheckInGrace = grace
		}
	}

	if value := strings.TrimSpace(os.Getenv("BOOKING_AVAILABILITY_HORIZON")); value != "" {
		horizon, err := time.ParseDuration(value)
		if err != nil || horizon <= 0 {
			invalid = append(invalid, "BOOKING_AVAILABILITY_HORIZON")
		} else {
			cfg.AvailabilityHorizon = horizon
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
