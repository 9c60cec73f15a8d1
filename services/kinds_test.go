package services

import (
	"testing"
	"time"

	"github.com/nimven/autotourney/models"
)

func TestFilterAllowedFieldsArena(t *testing.T) {
	doc := models.TemplateDoc{
		"type":       models.KindArena,
		"name":       "Weekly Blitz",
		"clockTime":  180,
		"minutes":    60,
		"recurrence": models.Recurrence{Weekday: 0, WallTime: "19:00", Timezone: "UTC"},
		"nbRounds":   9,
		"spectators": true,
	}

	out := FilterAllowedFields(doc)
	for _, key := range []string{"type", "name", "clockTime", "minutes", "recurrence"} {
		if _, ok := out[key]; !ok {
			t.Errorf("allowed key %q was dropped", key)
		}
	}
	// nbRounds belongs to swiss, spectators to nobody.
	for _, key := range []string{"nbRounds", "spectators"} {
		if _, ok := out[key]; ok {
			t.Errorf("key %q should have been filtered out", key)
		}
	}
}

func TestFilterAllowedFieldsUnknownKind(t *testing.T) {
	doc := models.TemplateDoc{"type": "roundrobin", "name": "x"}
	if out := FilterAllowedFields(doc); len(out) != 0 {
		t.Errorf("unknown kind produced %d fields, want none", len(out))
	}
}

func TestArenaShapeRequest(t *testing.T) {
	startsAt := time.Date(2026, time.August, 26, 18, 30, 0, 0, time.UTC)
	doc := models.TemplateDoc{
		"id":                           "tpl1",
		"type":                         models.KindArena,
		"name":                         "Weekly Blitz",
		"clockTime":                    90,
		"minutes":                      60,
		"password":                     "",
		"conditions.minRating.rating":  0,
		"conditions.nbRatedGame.nb":    20,
		"conditions.teamMember.teamId": "my-team",
		"recurrence":                   models.Recurrence{},
	}

	fields := arenaKind{}.shapeRequest(doc, startsAt)

	if got := fields["clockTime"]; got != "1.5" {
		t.Errorf("clockTime = %v, want \"1.5\"", got)
	}
	if got := fields["startDate"]; got != startsAt.UnixMilli() {
		t.Errorf("startDate = %v, want %d", got, startsAt.UnixMilli())
	}
	for _, key := range []string{"id", "type", "recurrence", "password", "conditions.minRating.rating"} {
		if _, ok := fields[key]; ok {
			t.Errorf("key %q should not travel to the host", key)
		}
	}
	if got := fields["conditions.nbRatedGame.nb"]; got != 20 {
		t.Errorf("conditions.nbRatedGame.nb = %v, want 20", got)
	}
	if got := fields["conditions.teamMember.teamId"]; got != "my-team" {
		t.Errorf("conditions.teamMember.teamId = %v, want \"my-team\"", got)
	}
}

func TestSwissShapeRequest(t *testing.T) {
	startsAt := time.Date(2026, time.August, 26, 18, 30, 0, 0, time.UTC)
	clock := map[string]any{"limit": 300, "increment": 2}
	doc := models.TemplateDoc{
		"id":       "tpl2",
		"type":     models.KindSwiss,
		"name":     "Team Swiss",
		"clock":    clock,
		"nbRounds": 7,
		"password": "hunter2",
	}

	fields := swissKind{}.shapeRequest(doc, startsAt)

	if got := fields["startsAt"]; got != startsAt.UnixMilli() {
		t.Errorf("startsAt = %v, want %d", got, startsAt.UnixMilli())
	}
	if _, ok := fields["startDate"]; ok {
		t.Error("swiss requests must not carry startDate")
	}
	// The nested clock passes through untouched.
	if got, ok := fields["clock"].(map[string]any); !ok || got["limit"] != 300 {
		t.Errorf("clock = %v, want the original nested object", fields["clock"])
	}
	if got := fields["password"]; got != "hunter2" {
		t.Errorf("password = %v, want \"hunter2\"", got)
	}
}
