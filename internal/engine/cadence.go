// Package engine implements the plan resolution engine: cadence scheduling,
// template selection, baseline materialization, override resolution, and
// diff-aware override staging. Everything in this package is pure logic:
// no I/O, no clock, no caches. Correctness depends on recomputing from the
// inputs on every call.
package engine

import (
	"time"

	"fitarc/backend/internal/domain"
)

// Cadence is the number of active training days per week.
type Cadence int

const (
	CadenceThreeDays Cadence = 3
	CadenceFourDays  Cadence = 4
	CadenceFiveDays  Cadence = 5
	CadenceSixDays   Cadence = 6
)

// DayKeyLayout is the canonical day format used in override rows and
// virtual element identifiers.
const DayKeyLayout = "2006-01-02"

// Fixed weekday rule table per cadence. A date is an active day iff its
// weekday is listed for the user's cadence.
var cadenceWeekdays = map[Cadence]map[time.Weekday]bool{
	CadenceThreeDays: {time.Monday: true, time.Wednesday: true, time.Friday: true},
	CadenceFourDays:  {time.Monday: true, time.Tuesday: true, time.Thursday: true, time.Friday: true},
	CadenceFiveDays:  {time.Monday: true, time.Tuesday: true, time.Wednesday: true, time.Thursday: true, time.Friday: true},
	CadenceSixDays:   {time.Monday: true, time.Tuesday: true, time.Wednesday: true, time.Thursday: true, time.Friday: true, time.Saturday: true},
}

// IsValid reports whether the cadence is one of the supported patterns.
func (c Cadence) IsValid() bool {
	_, ok := cadenceWeekdays[c]
	return ok
}

// DayStart normalizes a timestamp to UTC midnight. All schedule arithmetic
// happens at day precision.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a timestamp as the canonical day key.
func DayKey(t time.Time) string {
	return DayStart(t).Format(DayKeyLayout)
}

// IsActiveDay reports whether date is an active training day for the given
// phase start and cadence. Dates before the phase start are never active.
func IsActiveDay(startDate time.Time, cadence Cadence, date time.Time) bool {
	start := DayStart(startDate)
	day := DayStart(date)
	if day.Before(start) {
		return false
	}
	days, ok := cadenceWeekdays[cadence]
	if !ok {
		return false
	}
	return days[day.Weekday()]
}

// SlotIndex returns the zero-based ordinal of date among active days counted
// from startDate (inclusive) through date (inclusive). The second return is
// false when date precedes the start or is not itself an active day.
//
// Slot indices are strictly increasing across active dates, which is what
// makes tag rotation and slot-mod template picks deterministic.
func SlotIndex(startDate time.Time, cadence Cadence, date time.Time) (int, bool) {
	start := DayStart(startDate)
	day := DayStart(date)
	if day.Before(start) || !IsActiveDay(startDate, cadence, date) {
		return 0, false
	}
	count := 0
	for d := start; !d.After(day); d = d.AddDate(0, 0, 1) {
		if IsActiveDay(startDate, cadence, d) {
			count++
		}
	}
	return count - 1, true
}

// splitRotations maps a training split to its ordered tag cycle.
var splitRotations = map[domain.TrainingSplit][]string{
	domain.SplitFullBody:     {"full_body"},
	domain.SplitUpperLower:   {"upper", "lower"},
	domain.SplitPushPullLegs: {"push", "pull", "legs"},
}

// RotationTags returns the ordered tag cycle for a split. An unknown split
// degrades to the full-body rotation so selection can always proceed.
func RotationTags(split domain.TrainingSplit) []string {
	if tags, ok := splitRotations[split]; ok {
		return tags
	}
	return splitRotations[domain.SplitFullBody]
}

// TagForSlot derives the day-kind tag for a slot: the rotation position is
// the slot index modulo the split's cycle length.
func TagForSlot(split domain.TrainingSplit, slotIndex int) string {
	tags := RotationTags(split)
	return tags[slotIndex%len(tags)]
}

// MealTagForDate derives the meal-plan variant key for a date: training days
// eat the training_day variant, everything else the default one.
func MealTagForDate(startDate time.Time, cadence Cadence, date time.Time) string {
	if IsActiveDay(startDate, cadence, date) {
		return string(domain.EatingModeTrainingDay)
	}
	return string(domain.EatingModeDefault)
}
