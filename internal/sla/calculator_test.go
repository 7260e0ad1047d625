package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityworks/helpdesk/internal/config"
	"github.com/facilityworks/helpdesk/internal/domain"
)

// nineToFive is a Monday-through-Friday 09:00-17:00 UTC schedule.
func nineToFive() Schedule {
	window := DayHours{Open: 9 * time.Hour, Close: 17 * time.Hour}
	return Schedule{
		time.Monday:    window,
		time.Tuesday:   window,
		time.Wednesday: window,
		time.Thursday:  window,
		time.Friday:    window,
	}
}

func TestAddBusinessHours(t *testing.T) {
	// 2024-01-01 is a Monday.
	monday := func(hour int) time.Time {
		return time.Date(2024, time.January, 1, hour, 0, 0, 0, time.UTC)
	}

	t.Run("within the same day", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(10), 4)
		require.NoError(t, err)
		assert.Equal(t, monday(14), due)
	})

	t.Run("spills into the next day", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(15), 4)
		require.NoError(t, err)
		// Two hours Monday, two more Tuesday morning.
		assert.Equal(t, time.Date(2024, time.January, 2, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("weekend skipped", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		friday := time.Date(2024, time.January, 5, 16, 0, 0, 0, time.UTC)
		due, err := calc.AddBusinessHours(friday, 2)
		require.NoError(t, err)
		// One hour Friday, one more on Monday morning.
		assert.Equal(t, time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("holiday skipped", func(t *testing.T) {
		newYear := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		calc := NewCalculator(nineToFive(), []time.Time{newYear})
		due, err := calc.AddBusinessHours(monday(10), 1)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("start before opening clamps to open", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(6), 1)
		require.NoError(t, err)
		assert.Equal(t, monday(10), due)
	})

	t.Run("start after closing rolls to next day", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(20), 1)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("fractional hours", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(10), 1.5)
		require.NoError(t, err)
		assert.Equal(t, monday(10).Add(90*time.Minute), due)
	})

	t.Run("zero hours returns start", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		due, err := calc.AddBusinessHours(monday(10), 0)
		require.NoError(t, err)
		assert.Equal(t, monday(10), due)
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		calc := NewCalculator(nineToFive(), nil)
		_, err := calc.AddBusinessHours(monday(10), -1)
		require.Error(t, err)
	})

	t.Run("empty schedule never converges", func(t *testing.T) {
		calc := NewCalculator(Schedule{}, nil)
		_, err := calc.AddBusinessHours(monday(10), 1)
		require.Error(t, err)
	})
}

func TestPolicyTargets(t *testing.T) {
	policy := Policy{
		domain.TicketPriorityMedium: {ResponseHours: 8, ResolutionHours: 40},
		domain.TicketPriorityHigh:   {ResponseHours: 2, ResolutionHours: 8},
	}

	assert.Equal(t, Targets{ResponseHours: 2, ResolutionHours: 8}, policy.Targets(domain.TicketPriorityHigh))
	// Unknown priorities fall back to medium.
	assert.Equal(t, Targets{ResponseHours: 8, ResolutionHours: 40}, policy.Targets(domain.TicketPriority("URGENT")))
}

func TestFromConfig(t *testing.T) {
	t.Run("builds weekday calculator and policy", func(t *testing.T) {
		calc, policy, err := FromConfig(config.SLAConfig{
			BusinessOpenHour:    9,
			BusinessCloseHour:   17,
			Holidays:            []string{"2024-12-25"},
			ResponseHoursMedium: 8,
			ResolveHoursMedium:  40,
		})
		require.NoError(t, err)
		require.NotNil(t, calc)
		assert.Equal(t, 8.0, policy.Targets(domain.TicketPriorityMedium).ResponseHours)

		// Christmas 2024 falls on a Wednesday and must be skipped.
		start := time.Date(2024, time.December, 24, 16, 0, 0, 0, time.UTC)
		due, err := calc.AddBusinessHours(start, 2)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.December, 26, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("malformed holiday rejected", func(t *testing.T) {
		_, _, err := FromConfig(config.SLAConfig{
			BusinessOpenHour:  9,
			BusinessCloseHour: 17,
			Holidays:          []string{"25/12/2024"},
		})
		require.Error(t, err)
	})
}
