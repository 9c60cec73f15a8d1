package services

import (
	"testing"
	"time"

	"github.com/nimven/autotourney/models"
)

func TestResolveOccurrence(t *testing.T) {
	rec := models.Recurrence{Weekday: 2, WallTime: "18:30", Timezone: "UTC"}

	// 2026-08-26 is a Wednesday, weekday index 2.
	anchor := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	got, err := ResolveOccurrence(rec, anchor)
	if err != nil {
		t.Fatalf("ResolveOccurrence returned error: %v", err)
	}

	want := time.Date(2026, time.August, 26, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ResolveOccurrence = %v, want %v", got, want)
	}
}

func TestResolveOccurrenceSameWeekAnchors(t *testing.T) {
	rec := models.Recurrence{Weekday: 6, WallTime: "09:15", Timezone: "UTC"}

	monday := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.August, 30, 23, 59, 0, 0, time.UTC)

	fromMonday, err := ResolveOccurrence(rec, monday)
	if err != nil {
		t.Fatalf("ResolveOccurrence returned error: %v", err)
	}
	fromSunday, err := ResolveOccurrence(rec, sunday)
	if err != nil {
		t.Fatalf("ResolveOccurrence returned error: %v", err)
	}
	if !fromMonday.Equal(fromSunday) {
		t.Errorf("anchors in the same week resolved differently: %v vs %v", fromMonday, fromSunday)
	}
}

func TestResolveOccurrenceZonedWallTime(t *testing.T) {
	rec := models.Recurrence{Weekday: 4, WallTime: "20:00", Timezone: "Europe/Berlin"}

	anchor := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	got, err := ResolveOccurrence(rec, anchor)
	if err != nil {
		t.Fatalf("ResolveOccurrence returned error: %v", err)
	}

	berlin, _ := time.LoadLocation("Europe/Berlin")
	want := time.Date(2026, time.August, 28, 20, 0, 0, 0, berlin)
	if !got.Equal(want) {
		t.Errorf("ResolveOccurrence = %v, want %v", got, want)
	}
}

func TestResolveOccurrenceErrors(t *testing.T) {
	anchor := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		rec  models.Recurrence
	}{
		{"weekday too large", models.Recurrence{Weekday: 7, WallTime: "10:00", Timezone: "UTC"}},
		{"negative weekday", models.Recurrence{Weekday: -1, WallTime: "10:00", Timezone: "UTC"}},
		{"missing timezone", models.Recurrence{Weekday: 0, WallTime: "10:00"}},
		{"unknown timezone", models.Recurrence{Weekday: 0, WallTime: "10:00", Timezone: "Mars/Olympus"}},
		{"bad wall time", models.Recurrence{Weekday: 0, WallTime: "25:00", Timezone: "UTC"}},
		{"wall time without minutes", models.Recurrence{Weekday: 0, WallTime: "18", Timezone: "UTC"}},
		{"minute out of range", models.Recurrence{Weekday: 0, WallTime: "18:60", Timezone: "UTC"}},
	}
	for _, tc := range cases {
		if _, err := ResolveOccurrence(tc.rec, anchor); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestMondayOf(t *testing.T) {
	monday := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
	}{
		{"monday midnight", monday},
		{"monday evening", time.Date(2026, time.August, 24, 22, 45, 0, 0, time.UTC)},
		{"wednesday", time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2026, time.August, 30, 23, 59, 59, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := MondayOf(tc.in); !got.Equal(monday) {
			t.Errorf("%s: MondayOf = %v, want %v", tc.name, got, monday)
		}
	}
}

func TestLegacyRecurrence(t *testing.T) {
	// 2021-06-09 was a Wednesday; the seconds must be floored away.
	start := time.Date(2021, time.June, 9, 18, 30, 45, 0, time.UTC)

	rec := LegacyRecurrence(start.Unix())
	if rec.Weekday != 2 {
		t.Errorf("Weekday = %d, want 2", rec.Weekday)
	}
	if rec.WallTime != "18:30" {
		t.Errorf("WallTime = %q, want \"18:30\"", rec.WallTime)
	}
	if rec.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want \"UTC\"", rec.Timezone)
	}
}

// A migrated legacy timestamp must resolve back to its own start instant when
// anchored to its own week.
func TestLegacyRecurrenceRoundTrip(t *testing.T) {
	start := time.Date(2021, time.June, 9, 18, 30, 0, 0, time.UTC)

	rec := LegacyRecurrence(start.Unix())
	got, err := ResolveOccurrence(rec, start)
	if err != nil {
		t.Fatalf("ResolveOccurrence returned error: %v", err)
	}
	if !got.Equal(start) {
		t.Errorf("round trip = %v, want %v", got, start)
	}
}
