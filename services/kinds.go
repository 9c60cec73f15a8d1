package services

import (
	"context"
	"time"

	"github.com/nimven/autotourney/models"
)

// swissStandingsLimit caps the ranked players fetched for a swiss
// tournament. The qualified-win check runs against this capped list.
const swissStandingsLimit = 10

// TournamentHost is the remote host boundary the services speak to.
// *lichess.Client is the production implementation.
type TournamentHost interface {
	CreateTournament(ctx context.Context, token, kind string, fields map[string]any) (map[string]any, error)
	GetTournament(ctx context.Context, token, kind, id string) (map[string]any, error)
	GetArenaStandings(ctx context.Context, token, id string) ([]models.Standing, error)
	GetSwissStandings(ctx context.Context, token, id string, limit int) ([]models.Standing, error)
	GetUser(ctx context.Context, token, username string) (map[string]any, error)
}

// tournamentKind is the closed set of behaviors that differ between the two
// tournament systems: which template fields are legal, how a creation request
// is shaped, and how standings are fetched.
type tournamentKind interface {
	name() string
	allowedFields() map[string]struct{}
	shapeRequest(doc models.TemplateDoc, startsAt time.Time) map[string]any
	fetchStandings(ctx context.Context, host TournamentHost, token, id string) ([]models.Standing, error)
}

var tournamentKinds = map[string]tournamentKind{
	models.KindArena: arenaKind{},
	models.KindSwiss: swissKind{},
}

// FilterAllowedFields keeps only the attributes allowed for the document's
// kind. An unknown kind yields an empty document, not an error.
func FilterAllowedFields(doc models.TemplateDoc) models.TemplateDoc {
	kind, ok := tournamentKinds[doc.Kind()]
	if !ok {
		return models.TemplateDoc{}
	}
	allowed := kind.allowedFields()
	out := models.TemplateDoc{}
	for key, value := range doc {
		if _, ok := allowed[key]; ok {
			out[key] = value
		}
	}
	return out
}

// Keys that describe the template itself and never travel to the host.
var templateOnlyFields = map[string]struct{}{
	"id":         {},
	"type":       {},
	"startDate":  {},
	"recurrence": {},
	"index":      {},
}

// Optional conditions signal "unset" with a non-positive value; an empty
// password means no password. The host rejects requests carrying them.
var optionalConditionFields = []string{
	"conditions.minRating.rating",
	"conditions.maxRating.rating",
	"conditions.nbRatedGame.nb",
}

func baseRequestFields(doc models.TemplateDoc) map[string]any {
	fields := map[string]any{}
	for key, value := range doc {
		if _, skip := templateOnlyFields[key]; skip {
			continue
		}
		fields[key] = value
	}
	for _, key := range optionalConditionFields {
		if n, ok := doc.Int(key); ok && n <= 0 {
			delete(fields, key)
		}
	}
	if doc.Password() == "" {
		delete(fields, "password")
	}
	return fields
}

type arenaKind struct{}

func (arenaKind) name() string { return models.KindArena }

func (arenaKind) allowedFields() map[string]struct{} {
	return fieldSet(
		"id", "type", "name", "clockTime", "clockIncrement", "minutes",
		"startDate", "recurrence", "index", "variant", "rated", "berserkable",
		"streakable", "hasChat", "description", "password",
		"conditions.teamMember.teamId", "conditions.minRating.rating",
		"conditions.maxRating.rating", "conditions.nbRatedGame.nb",
	)
}

func (arenaKind) shapeRequest(doc models.TemplateDoc, startsAt time.Time) map[string]any {
	fields := baseRequestFields(doc)
	// Persisted clock time is seconds; the arena endpoint takes decimal minutes.
	if seconds, ok := doc.Int("clockTime"); ok {
		fields["clockTime"] = FormatClockMinutes(seconds)
	}
	fields["startDate"] = startsAt.UnixMilli()
	return fields
}

func (arenaKind) fetchStandings(ctx context.Context, host TournamentHost, token, id string) ([]models.Standing, error) {
	return host.GetArenaStandings(ctx, token, id)
}

type swissKind struct{}

func (swissKind) name() string { return models.KindSwiss }

func (swissKind) allowedFields() map[string]struct{} {
	return fieldSet(
		"id", "type", "name", "clock", "nbRounds", "startDate", "recurrence",
		"index", "variant", "rated", "description", "password",
		"conditions.teamMember.teamId", "conditions.minRating.rating",
		"conditions.maxRating.rating", "conditions.nbRatedGame.nb",
	)
}

func (swissKind) shapeRequest(doc models.TemplateDoc, startsAt time.Time) map[string]any {
	fields := baseRequestFields(doc)
	// The swiss clock is a nested object already in seconds; it passes
	// through untouched. Only the start field name differs from arena.
	fields["startsAt"] = startsAt.UnixMilli()
	return fields
}

func (swissKind) fetchStandings(ctx context.Context, host TournamentHost, token, id string) ([]models.Standing, error) {
	return host.GetSwissStandings(ctx, token, id, swissStandingsLimit)
}

func fieldSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
