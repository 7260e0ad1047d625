// Package sla computes response and resolution due dates by walking
// business hours forward over a weekly schedule with public holidays.
package sla

import (
	"fmt"
	"time"

	"github.com/facilityworks/helpdesk/internal/config"
	"github.com/facilityworks/helpdesk/internal/domain"
)

// DayHours is the open/close window of a business day, expressed as
// offsets from midnight UTC. A day absent from the schedule is closed.
type DayHours struct {
	Open  time.Duration
	Close time.Duration
}

// Schedule maps weekdays to their business windows.
type Schedule map[time.Weekday]DayHours

// Targets are per-priority business-hour budgets.
type Targets struct {
	ResponseHours   float64
	ResolutionHours float64
}

// Policy maps priorities to their SLA targets.
type Policy map[domain.TicketPriority]Targets

// Calculator adds business hours to UTC instants.
type Calculator struct {
	schedule Schedule
	holidays map[string]struct{}
}

// epsilon guards float comparisons when consuming fractional hours.
const epsilon = 1e-6

// maxIterations bounds the day-walk for misconfigured schedules.
const maxIterations = 1000

// NewCalculator builds a calculator. Holidays are matched by calendar
// date in UTC.
func NewCalculator(schedule Schedule, holidays []time.Time) *Calculator {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.UTC().Format("2006-01-02")] = struct{}{}
	}
	return &Calculator{schedule: schedule, holidays: set}
}

// AddBusinessHours advances start by the given number of business
// hours, skipping closed days and holidays and clamping to each day's
// open/close window. Start is normalized to UTC.
func (c *Calculator) AddBusinessHours(start time.Time, hours float64) (time.Time, error) {
	if hours < 0 {
		return time.Time{}, fmt.Errorf("business hours to add cannot be negative: %v", hours)
	}
	current := start.UTC()
	if hours == 0 {
		return current, nil
	}

	remaining := hours
	for i := 0; remaining > epsilon && i < maxIterations; i++ {
		day := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
		window, openToday := c.schedule[current.Weekday()]
		if !openToday || c.isHoliday(day) {
			current = day.AddDate(0, 0, 1)
			continue
		}

		dayOpen := day.Add(window.Open)
		dayClose := day.Add(window.Close)
		if current.Before(dayOpen) {
			current = dayOpen
		}
		if !current.Before(dayClose) {
			current = day.AddDate(0, 0, 1)
			continue
		}

		available := dayClose.Sub(current).Hours()
		if remaining <= available+epsilon {
			current = current.Add(time.Duration(remaining * float64(time.Hour)))
			remaining = 0
			break
		}
		remaining -= available
		current = day.AddDate(0, 0, 1)
	}

	if remaining > epsilon {
		return time.Time{}, fmt.Errorf("schedule walk did not converge; %.2f business hours left", remaining)
	}
	return current, nil
}

func (c *Calculator) isHoliday(day time.Time) bool {
	_, ok := c.holidays[day.Format("2006-01-02")]
	return ok
}

// Targets returns the SLA budget for a priority. Unknown priorities
// fall back to the medium budget.
func (p Policy) Targets(priority domain.TicketPriority) Targets {
	if t, ok := p[priority]; ok {
		return t
	}
	return p[domain.TicketPriorityMedium]
}

// FromConfig builds the Monday-through-Friday calculator and the
// per-priority policy out of the environment configuration.
func FromConfig(cfg config.SLAConfig) (*Calculator, Policy, error) {
	window := DayHours{
		Open:  time.Duration(cfg.BusinessOpenHour) * time.Hour,
		Close: time.Duration(cfg.BusinessCloseHour) * time.Hour,
	}
	schedule := Schedule{
		time.Monday:    window,
		time.Tuesday:   window,
		time.Wednesday: window,
		time.Thursday:  window,
		time.Friday:    window,
	}

	holidays := make([]time.Time, 0, len(cfg.Holidays))
	for _, raw := range cfg.Holidays {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid holiday %q: %w", raw, err)
		}
		holidays = append(holidays, day)
	}

	policy := Policy{
		domain.TicketPriorityLow:    {ResponseHours: cfg.ResponseHoursLow, ResolutionHours: cfg.ResolveHoursLow},
		domain.TicketPriorityMedium: {ResponseHours: cfg.ResponseHoursMedium, ResolutionHours: cfg.ResolveHoursMedium},
		domain.TicketPriorityHigh:   {ResponseHours: cfg.ResponseHoursHigh, ResolutionHours: cfg.ResolveHoursHigh},
	}
	return NewCalculator(schedule, holidays), policy, nil
}
