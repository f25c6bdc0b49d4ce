package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarConfig holds the calendar display defaults. Env vars seed it and an
// optional YAML file (CALENDAR_CONFIG) overrides any field it sets.
type CalendarConfig struct {
	// Timezone is the IANA zone events are displayed in (e.g. "Europe/Berlin").
	// Empty means the server's local zone.
	Timezone string `yaml:"timezone"`

	// WeekStart is "sunday" or "monday" (default).
	WeekStart string `yaml:"week_start"`

	// StartHour and EndHour bound the week/day visible hour range [start, end).
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`

	// SlotMinutes is the week/day slot length. Must divide 60.
	SlotMinutes int `yaml:"slot_minutes"`

	// MaxEventsPerCell caps events shown in one month cell.
	MaxEventsPerCell int `yaml:"max_events_per_cell"`

	// ViewStateTTL is how long an owner's saved view state lives in Redis.
	ViewStateTTL time.Duration `yaml:"view_state_ttl"`

	// PendingTTL bounds how long an in-flight write marker blocks further
	// gestures on the same event if the writer never clears it.
	PendingTTL time.Duration `yaml:"pending_ttl"`
}

// calendarFile mirrors CalendarConfig with pointer fields so that keys
// missing from the file leave the env-derived values alone.
type calendarFile struct {
	Timezone         *string `yaml:"timezone"`
	WeekStart        *string `yaml:"week_start"`
	StartHour        *int    `yaml:"start_hour"`
	EndHour          *int    `yaml:"end_hour"`
	SlotMinutes      *int    `yaml:"slot_minutes"`
	MaxEventsPerCell *int    `yaml:"max_events_per_cell"`
	ViewStateTTL     *string `yaml:"view_state_ttl"`
	PendingTTL       *string `yaml:"pending_ttl"`
}

// LoadFile overlays settings from a YAML file.
func (c *CalendarConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading calendar config %s: %w", path, err)
	}
	return c.overlay(data)
}

func (c *CalendarConfig) overlay(data []byte) error {
	var f calendarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing calendar config: %w", err)
	}

	if f.Timezone != nil {
		c.Timezone = *f.Timezone
	}
	if f.WeekStart != nil {
		c.WeekStart = *f.WeekStart
	}
	if f.StartHour != nil {
		c.StartHour = *f.StartHour
	}
	if f.EndHour != nil {
		c.EndHour = *f.EndHour
	}
	if f.SlotMinutes != nil {
		c.SlotMinutes = *f.SlotMinutes
	}
	if f.MaxEventsPerCell != nil {
		c.MaxEventsPerCell = *f.MaxEventsPerCell
	}
	if f.ViewStateTTL != nil {
		d, err := time.ParseDuration(*f.ViewStateTTL)
		if err != nil {
			return fmt.Errorf("parsing view_state_ttl: %w", err)
		}
		c.ViewStateTTL = d
	}
	if f.PendingTTL != nil {
		d, err := time.ParseDuration(*f.PendingTTL)
		if err != nil {
			return fmt.Errorf("parsing pending_ttl: %w", err)
		}
		c.PendingTTL = d
	}
	return nil
}

// Normalize fills zero or out-of-range values with defaults so that a
// partially filled config still yields a usable grid. A slot length that
// does not divide 60 or an empty hour range falls back to 60 minutes and
// 0-24, because the grid builder treats those as caller contract violations.
func (c *CalendarConfig) Normalize() {
	switch strings.ToLower(c.WeekStart) {
	case "sunday":
		c.WeekStart = "sunday"
	case "monday", "":
		c.WeekStart = "monday"
	default:
		slog.Warn("unknown calendar week start, using monday", slog.String("week_start", c.WeekStart))
		c.WeekStart = "monday"
	}

	if c.StartHour < 0 || c.StartHour > 23 {
		c.StartHour = 0
	}
	if c.EndHour <= c.StartHour || c.EndHour > 24 {
		c.StartHour, c.EndHour = 0, 24
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes > 60 || 60%c.SlotMinutes != 0 {
		c.SlotMinutes = 60
	}
	if c.MaxEventsPerCell <= 0 {
		c.MaxEventsPerCell = 3
	}
	if c.ViewStateTTL <= 0 {
		c.ViewStateTTL = 30 * 24 * time.Hour
	}
	if c.PendingTTL <= 0 {
		c.PendingTTL = 30 * time.Second
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c CalendarConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown calendar timezone, using local",
			slog.String("timezone", c.Timezone),
			slog.Any("error", err),
		)
		return time.Local
	}
	return loc
}
