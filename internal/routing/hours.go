package routing

import (
	"fmt"
	"time"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/config"
)

// Business hours are Monday through Friday, 08:00 inclusive to 18:00
// exclusive, in the configured local timezone.
const (
	businessOpenHour  = 8
	businessCloseHour = 18
)

// holidays lists observed company holidays as fixed month/day pairs.
// Moveable holidays use fixed-date approximations.
var holidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // New Year's Day
	{time.May, 31},      // Memorial Day (approx)
	{time.July, 4},      // Independence Day
	{time.September, 1}, // Labor Day (approx)
	{time.November, 27}, // Thanksgiving (approx)
	{time.December, 24}, // Christmas Eve
	{time.December, 25}, // Christmas Day
}

// TimeVerdict describes where a moment falls relative to the business
// calendar and which after-hours action applies, if any.
type TimeVerdict struct {
	IsBusinessHours bool
	IsHoliday       bool
	NextBusinessDay time.Time
	Action          config.AfterHoursAction
	TransferTarget  string
}

// InHours reports whether the contact should route to live agents.
func (v TimeVerdict) InHours() bool {
	return v.IsBusinessHours && !v.IsHoliday
}

// HoursEvaluator answers business-hours questions for a fixed timezone
// and after-hours policy.
type HoursEvaluator struct {
	location *time.Location
	action   config.AfterHoursAction
	transfer string
}

func NewHoursEvaluator(cfg *config.Config) (*HoursEvaluator, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &HoursEvaluator{
		location: loc,
		action:   cfg.AfterHours,
		transfer: cfg.TransferNumber,
	}, nil
}

// Evaluate classifies the given moment in the evaluator's timezone.
func (e *HoursEvaluator) Evaluate(now time.Time) TimeVerdict {
	local := now.In(e.location)

	verdict := TimeVerdict{
		IsBusinessHours: isBusinessHours(local),
		IsHoliday:       isHoliday(local),
		NextBusinessDay: e.nextBusinessDay(local),
	}

	if !verdict.InHours() {
		verdict.Action = e.action
		if e.action == config.AfterHoursTransfer {
			verdict.TransferTarget = e.transfer
		}
	}

	return verdict
}

func isBusinessHours(local time.Time) bool {
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := local.Hour()
	return hour >= businessOpenHour && hour < businessCloseHour
}

func isHoliday(local time.Time) bool {
	for _, h := range holidays {
		if local.Month() == h.month && local.Day() == h.day {
			return true
		}
	}
	return false
}

// nextBusinessDay returns the opening time of the next weekday that is
// not a holiday, starting from the day after the given moment.
func (e *HoursEvaluator) nextBusinessDay(local time.Time) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), businessOpenHour, 0, 0, 0, e.location)
	for {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		if isHoliday(day) {
			continue
		}
		return day
	}
}
