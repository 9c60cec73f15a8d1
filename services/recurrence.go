package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nimven/autotourney/models"
)

// ResolveOccurrence turns a template's weekly recurrence plus a week anchor
// into the absolute start instant: the Monday of the anchor's week (at local
// midnight in the template's timezone) plus Weekday days, at WallTime.
func ResolveOccurrence(rec models.Recurrence, weekAnchor time.Time) (time.Time, error) {
	if rec.Weekday < 0 || rec.Weekday > 6 {
		return time.Time{}, fmt.Errorf("weekday must be between 0 and 6, got %d", rec.Weekday)
	}
	if rec.Timezone == "" {
		return time.Time{}, fmt.Errorf("recurrence has no timezone")
	}
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q", rec.Timezone)
	}
	hour, minute, err := parseWallTime(rec.WallTime)
	if err != nil {
		return time.Time{}, err
	}

	monday := MondayOf(weekAnchor.In(loc))
	// time.Date normalizes the day offset across month boundaries and picks
	// the wall clock reading valid in loc on that date (DST included).
	return time.Date(monday.Year(), monday.Month(), monday.Day()+rec.Weekday, hour, minute, 0, 0, loc), nil
}

// MondayOf rolls an instant back to the most recent Monday at midnight in
// the instant's own location.
func MondayOf(t time.Time) time.Time {
	days := (int(t.Weekday()) + 6) % 7
	t = t.AddDate(0, 0, -days)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LegacyRecurrence derives the structured recurrence from a legacy absolute
// start timestamp: weekday and wall time come from the UTC decomposition and
// the timezone is fixed to UTC. The timestamp is floored to the minute, which
// is how legacy records were entered.
func LegacyRecurrence(startDate int64) models.Recurrence {
	t := time.Unix(startDate-startDate%60, 0).UTC()
	return models.Recurrence{
		Weekday:  (int(t.Weekday()) + 6) % 7,
		WallTime: fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()),
		Timezone: "UTC",
	}
}

// templateRecurrence returns the structured recurrence of a template,
// deriving it from the legacy startDate field when only that is present.
func templateRecurrence(doc models.TemplateDoc) (models.Recurrence, bool) {
	if rec, ok := doc.Recurrence(); ok {
		return rec, true
	}
	if start, ok := doc.Int("startDate"); ok {
		return LegacyRecurrence(int64(start)), true
	}
	return models.Recurrence{}, false
}

func parseWallTime(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("wall time %q is not in HH:MM form", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("wall time %q has an invalid hour", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("wall time %q has an invalid minute", value)
	}
	return hour, minute, nil
}
