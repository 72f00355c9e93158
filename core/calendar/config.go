package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config defines the working-hour pattern of a project. Clock fields use the
// "15:04" form. An empty break disables the midday gap.
type Config struct {
	WorkingDays  []string `json:"working_days" yaml:"working_days"`
	DayStart     string   `json:"day_start" yaml:"day_start"`
	DayEnd       string   `json:"day_end" yaml:"day_end"`
	BreakStart   string   `json:"break_start" yaml:"break_start"`
	BreakEnd     string   `json:"break_end" yaml:"break_end"`
	SafetyFactor float64  `json:"safety_factor" yaml:"safety_factor"`
	// Horizon overrides the estimated slot count when positive.
	Horizon int `json:"horizon" yaml:"horizon"`
}

// SetDefaults applies the standard construction week: Monday to Friday,
// 08:00-17:00 with a 12:00-13:00 break and a 20% horizon safety margin.
func (c *Config) SetDefaults() {
	if len(c.WorkingDays) == 0 {
		c.WorkingDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}
	if c.DayStart == "" {
		c.DayStart = "08:00"
	}
	if c.DayEnd == "" {
		c.DayEnd = "17:00"
	}
	if c.BreakStart == "" && c.BreakEnd == "" {
		c.BreakStart = "12:00"
		c.BreakEnd = "13:00"
	}
	if c.SafetyFactor == 0 {
		c.SafetyFactor = 1.2
	}
}

// Validate checks the pattern and requires at least one full working hour per
// working day.
func (c Config) Validate() error {
	if len(c.WorkingDays) == 0 {
		return fmt.Errorf("working_days must not be empty")
	}
	if _, err := c.weekdays(); err != nil {
		return err
	}
	dayStart, err := parseClock(c.DayStart)
	if err != nil {
		return fmt.Errorf("day_start: %w", err)
	}
	dayEnd, err := parseClock(c.DayEnd)
	if err != nil {
		return fmt.Errorf("day_end: %w", err)
	}
	if dayEnd <= dayStart {
		return fmt.Errorf("day_end %s must be after day_start %s", c.DayEnd, c.DayStart)
	}
	if (c.BreakStart == "") != (c.BreakEnd == "") {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	if c.BreakStart != "" {
		bs, err := parseClock(c.BreakStart)
		if err != nil {
			return fmt.Errorf("break_start: %w", err)
		}
		be, err := parseClock(c.BreakEnd)
		if err != nil {
			return fmt.Errorf("break_end: %w", err)
		}
		if be <= bs {
			return fmt.Errorf("break_end %s must be after break_start %s", c.BreakEnd, c.BreakStart)
		}
	}
	if c.SafetyFactor < 1 {
		return fmt.Errorf("safety_factor must be >= 1, got %v", c.SafetyFactor)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must not be negative")
	}
	if len(c.daySlotMinutes()) == 0 {
		return fmt.Errorf("working day %s-%s leaves no full hour outside the break", c.DayStart, c.DayEnd)
	}
	return nil
}

// HoursPerDay returns the number of working-hour slots in one full day.
func (c Config) HoursPerDay() int {
	return len(c.daySlotMinutes())
}

// EstimateHorizon sizes the planning horizon in slots for a project running
// from start to end: working days between the dates (inclusive) times slots
// per day, padded by the safety factor. Never below one.
func (c Config) EstimateHorizon(start, end time.Time) int {
	days, _ := c.weekdays()
	perDay := c.HoursPerDay()
	count := 0
	for d := dateOf(start); !d.After(dateOf(end)); d = d.AddDate(0, 0, 1) {
		if days[d.Weekday()] {
			count++
		}
	}
	horizon := int(float64(count*perDay)*c.SafetyFactor + 0.999999)
	if horizon < 1 {
		horizon = 1
	}
	return horizon
}

// daySlotMinutes returns the start minutes of the hour slots of one working
// day, stepping from day start and skipping hours overlapping the break.
func (c Config) daySlotMinutes() []int {
	dayStart, err1 := parseClock(c.DayStart)
	dayEnd, err2 := parseClock(c.DayEnd)
	if err1 != nil || err2 != nil {
		return nil
	}
	breakStart, breakEnd := -1, -1
	if c.BreakStart != "" && c.BreakEnd != "" {
		bs, err1 := parseClock(c.BreakStart)
		be, err2 := parseClock(c.BreakEnd)
		if err1 == nil && err2 == nil {
			breakStart, breakEnd = bs, be
		}
	}
	var mins []int
	for m := dayStart; m+60 <= dayEnd; m += 60 {
		if breakStart >= 0 && m < breakEnd && m+60 > breakStart {
			continue
		}
		mins = append(mins, m)
	}
	return mins
}

func (c Config) weekdays() (map[time.Weekday]bool, error) {
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	out := make(map[time.Weekday]bool, len(c.WorkingDays))
	for _, d := range c.WorkingDays {
		wd, ok := names[strings.ToLower(strings.TrimSpace(d))]
		if !ok {
			return nil, fmt.Errorf("unknown working day %q", d)
		}
		out[wd] = true
	}
	return out, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
