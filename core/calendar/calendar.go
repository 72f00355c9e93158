// Package calendar maps between slot indices and wall-clock time. The
// scheduling core works purely on 1-based working-hour indices; everything
// touching datetimes (state identification, delay intake, the CLI) goes
// through a Calendar built from the project's working-hour pattern.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Calendar is an immutable, strictly increasing sequence of slot start times.
type Calendar struct {
	cfg   Config
	slots []time.Time
}

// maxGenerationDays caps the day walk so a degenerate pattern cannot loop
// forever.
const maxGenerationDays = 40000

// New generates a calendar of exactly horizon slots, starting with the first
// working hour at or after projectStart.
func New(cfg Config, projectStart time.Time, horizon int) (*Calendar, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calendar config: %w", err)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be >= 1, got %d", horizon)
	}

	days, err := cfg.weekdays()
	if err != nil {
		return nil, err
	}
	mins := cfg.daySlotMinutes()

	slots := make([]time.Time, 0, horizon)
	day := dateOf(projectStart)
	for walked := 0; len(slots) < horizon; walked++ {
		if walked > maxGenerationDays {
			return nil, fmt.Errorf("could not generate %d slots within %d days", horizon, maxGenerationDays)
		}
		if days[day.Weekday()] {
			for _, m := range mins {
				slot := day.Add(time.Duration(m) * time.Minute)
				if slot.Before(projectStart) {
					continue
				}
				slots = append(slots, slot)
				if len(slots) == horizon {
					break
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return &Calendar{cfg: cfg, slots: slots}, nil
}

// Len returns the number of slots.
func (c *Calendar) Len() int { return len(c.slots) }

// HoursPerDay returns the slot count of one full working day.
func (c *Calendar) HoursPerDay() int { return c.cfg.HoursPerDay() }

// TimeOf returns the start time of the 1-based slot index.
func (c *Calendar) TimeOf(index int) (time.Time, bool) {
	if index < 1 || index > len(c.slots) {
		return time.Time{}, false
	}
	return c.slots[index-1], true
}

// IndexOf returns the first slot starting at or after t. It reports false
// when t lies beyond the last slot.
func (c *Calendar) IndexOf(t time.Time) (int, bool) {
	i := sort.Search(len(c.slots), func(i int) bool {
		return !c.slots[i].Before(t)
	})
	if i == len(c.slots) {
		return 0, false
	}
	return i + 1, true
}
