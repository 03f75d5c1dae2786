package schedule

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultSessionLength is the fallback slot step, in minutes, applied when a
// grid spec carries no usable session length.
const DefaultSessionLength = 90

// RecurrenceSpec describes a weekly repeating generation request: a weekday
// selection, an inclusive date range and a wall-clock time of day.
type RecurrenceSpec struct {
	Weekdays  []time.Weekday
	StartDate string // dateLayout
	EndDate   string // dateLayout
	TimeOfDay string // "15:04"
}

// Validate reports field level problems with the spec. A nil result means the
// spec can be expanded. Callers that drive forms should consult this before
// invoking the generator; the generator itself treats an invalid spec as a
// no-op rather than an error.
func (s RecurrenceSpec) Validate() map[string]string {
	problems := make(map[string]string)

	start, startErr := time.Parse(dateLayout, strings.TrimSpace(s.StartDate))
	if startErr != nil {
		problems["start_date"] = "start date is required"
	}
	end, endErr := time.Parse(dateLayout, strings.TrimSpace(s.EndDate))
	if endErr != nil {
		problems["end_date"] = "end date is required"
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		problems["end_date"] = "end date must not be before start date"
	}
	if len(uniqueWeekdays(s.Weekdays)) == 0 {
		problems["weekdays"] = "at least one weekday is required"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// expand generates the canonical entries for the spec. Weekday selection and
// date iteration use wall-clock semantics in loc; results are normalized to
// UTC. An invalid spec expands to nothing.
func (s RecurrenceSpec) expand(loc *time.Location) []string {
	if s.Validate() != nil {
		return nil
	}

	start, _ := time.Parse(dateLayout, strings.TrimSpace(s.StartDate))
	end, _ := time.Parse(dateLayout, strings.TrimSpace(s.EndDate))
	selected := make(map[time.Weekday]struct{}, len(s.Weekdays))
	for _, day := range uniqueWeekdays(s.Weekdays) {
		selected[day] = struct{}{}
	}
	minutes := parseClockMinutes(s.TimeOfDay)

	results := make([]string, 0)
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		day := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc)
		if _, ok := selected[day.Weekday()]; !ok {
			continue
		}
		results = append(results, NormalizeInstant(minutesToInstant(day, minutes)))
	}
	return results
}

// GridSpec describes a dense same-day repeating slot generation request: an
// inclusive date range, a first and last slot start time of day and the slot
// step in minutes.
type GridSpec struct {
	StartDate     string // dateLayout
	EndDate       string // dateLayout
	FirstStart    string // "15:04"
	LastStart     string // "15:04"
	SessionLength int    // minutes; DefaultSessionLength when not positive
}

// Validate reports field level problems with the spec. Same contract as
// RecurrenceSpec.Validate.
func (s GridSpec) Validate() map[string]string {
	problems := make(map[string]string)

	start, startErr := time.Parse(dateLayout, strings.TrimSpace(s.StartDate))
	if startErr != nil {
		problems["start_date"] = "start date is required"
	}
	end, endErr := time.Parse(dateLayout, strings.TrimSpace(s.EndDate))
	if endErr != nil {
		problems["end_date"] = "end date is required"
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		problems["end_date"] = "end date must not be before start date"
	}
	if parseClockMinutes(s.LastStart) < parseClockMinutes(s.FirstStart) {
		problems["last_start"] = "last start must not be before first start"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func (s GridSpec) expand(loc *time.Location) []string {
	if s.Validate() != nil {
		return nil
	}

	start, _ := time.Parse(dateLayout, strings.TrimSpace(s.StartDate))
	end, _ := time.Parse(dateLayout, strings.TrimSpace(s.EndDate))
	step := s.SessionLength
	if step <= 0 {
		step = DefaultSessionLength
	}
	firstMin := parseClockMinutes(s.FirstStart)
	lastMin := parseClockMinutes(s.LastStart)

	results := make([]string, 0)
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		day := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc)
		// A slot whose start exactly equals the last start is included.
		for m := firstMin; m <= lastMin; m += step {
			results = append(results, NormalizeInstant(minutesToInstant(day, m)))
		}
	}
	return results
}

// parseClockMinutes converts an "HH:MM" value to minutes of day. Unparsable
// components default to zero so that partial form input degrades gracefully.
func parseClockMinutes(value string) int {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	hours := 0
	if len(parts) > 0 {
		if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			hours = h
		}
	}
	minutes := 0
	if len(parts) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			minutes = m
		}
	}
	return hours*60 + minutes
}

// minutesToInstant positions a minutes-of-day offset on a calendar day using
// wall-clock construction, so the result survives DST transitions the same
// way a user-facing time picker would.
func minutesToInstant(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}

func uniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}
	return result
}
