package config

import (
	"fmt"
	"time"

	"github.com/SensorsIot/Energy-Management/core/tariff"
)

// TariffConfig describes the tariff calendar in local civil time.
type TariffConfig struct {
	WeekdayCheapStart  string   `json:"weekday_cheap_start"`
	WeekdayCheapEnd    string   `json:"weekday_cheap_end"`
	WeekendAllDayCheap bool     `json:"weekend_all_day_cheap"`
	Holidays           []string `json:"holidays"`
	// Timezone is the IANA name of the calendar's reference timezone.
	Timezone string `json:"timezone"`
	// SlotMinutes is the forecast slot width.
	SlotMinutes int `json:"slot_minutes"`
}

// SetDefaults applies sane defaults.
func (c *TariffConfig) SetDefaults() {
	if c.WeekdayCheapStart == "" {
		c.WeekdayCheapStart = "21:00"
	}
	if c.WeekdayCheapEnd == "" {
		c.WeekdayCheapEnd = "06:00"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Zurich"
	}
	if c.SlotMinutes == 0 {
		c.SlotMinutes = 15
	}
}

// Validate checks the clock times, holidays and timezone parse.
func (c TariffConfig) Validate() error {
	_, err := c.Calendar()
	return err
}

// Calendar builds the core calendar from the section.
func (c TariffConfig) Calendar() (*tariff.Calendar, error) {
	start, err := tariff.ParseClock(c.WeekdayCheapStart)
	if err != nil {
		return nil, fmt.Errorf("weekday_cheap_start: %w", err)
	}
	end, err := tariff.ParseClock(c.WeekdayCheapEnd)
	if err != nil {
		return nil, fmt.Errorf("weekday_cheap_end: %w", err)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return tariff.NewCalendar(tariff.Options{
		CheapStart:         start,
		CheapEnd:           end,
		WeekendAllDayCheap: c.WeekendAllDayCheap,
		Holidays:           c.Holidays,
		Location:           loc,
		SlotWidth:          time.Duration(c.SlotMinutes) * time.Minute,
	})
}

// SlotWidth returns the configured slot width as a duration.
func (c TariffConfig) SlotWidth() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}
