package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
)

type fakeTemplateRepo struct {
	docs []models.TemplateDoc
}

func (r *fakeTemplateRepo) Insert(ctx context.Context, doc models.TemplateDoc) error {
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeTemplateRepo) Get(ctx context.Context, user, set, id string) (models.TemplateDoc, error) {
	for _, doc := range r.docs {
		if doc.ID() == id {
			return doc, nil
		}
	}
	return nil, repositories.ErrTemplateNotFound
}

func (r *fakeTemplateRepo) List(ctx context.Context, user, set string) ([]models.TemplateDoc, error) {
	return r.docs, nil
}

func (r *fakeTemplateRepo) ListByIDs(ctx context.Context, user, set string, ids []string) ([]models.TemplateDoc, error) {
	out := []models.TemplateDoc{}
	for _, doc := range r.docs {
		for _, id := range ids {
			if doc.ID() == id {
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, doc models.TemplateDoc) error {
	for i, existing := range r.docs {
		if existing.ID() == doc.ID() {
			r.docs[i] = doc
			return nil
		}
	}
	return repositories.ErrTemplateNotFound
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, user, set, id string) error {
	for i, doc := range r.docs {
		if doc.ID() == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTemplateNotFound
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments []*models.Tournament
	saved       int
}

func (r *fakeTournamentRepo) InsertIfAbsent(ctx context.Context, tournaments []*models.Tournament) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, t := range tournaments {
		if r.exists(t.User, t.TournamentSet, t.Template, t.StartsAt) {
			continue
		}
		r.tournaments = append(r.tournaments, t)
		inserted++
	}
	return inserted, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, user, set string) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Tournament{}, r.tournaments...), nil
}

func (r *fakeTournamentRepo) ListStartedSince(ctx context.Context, user, set string, since int64) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Tournament{}
	for _, t := range r.tournaments {
		if t.StartsAt >= since {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) Exists(ctx context.Context, user, set, template string, startsAt int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exists(user, set, template, startsAt), nil
}

func (r *fakeTournamentRepo) exists(user, set, template string, startsAt int64) bool {
	for _, t := range r.tournaments {
		if t.User == user && t.TournamentSet == set && t.Template == template && t.StartsAt == startsAt {
			return true
		}
	}
	return false
}

func (r *fakeTournamentRepo) Save(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
	return nil
}

type fakeHost struct {
	mu        sync.Mutex
	created   []map[string]any
	failWith  map[string]error // keyed by tournament name
	standings map[string][]models.Standing
	fetches   int
}

func (h *fakeHost) CreateTournament(ctx context.Context, token, kind string, fields map[string]any) (map[string]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	name, _ := fields["name"].(string)
	if err, ok := h.failWith[name]; ok {
		return nil, err
	}
	created := map[string]any{
		"id":       "remote-" + strings.ReplaceAll(name, " ", "-"),
		"fullName": name,
		"system":   kind,
	}
	h.created = append(h.created, created)
	return created, nil
}

func (h *fakeHost) GetTournament(ctx context.Context, token, kind, id string) (map[string]any, error) {
	return map[string]any{"id": id}, nil
}

func (h *fakeHost) GetArenaStandings(ctx context.Context, token, id string) ([]models.Standing, error) {
	return h.fetch(id)
}

func (h *fakeHost) GetSwissStandings(ctx context.Context, token, id string, limit int) ([]models.Standing, error) {
	return h.fetch(id)
}

func (h *fakeHost) fetch(id string) ([]models.Standing, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetches++
	standings, ok := h.standings[id]
	if !ok {
		return nil, &lichess.Error{Code: 404, Message: "not found"}
	}
	return standings, nil
}

func (h *fakeHost) GetUser(ctx context.Context, token, username string) (map[string]any, error) {
	return map[string]any{"id": username}, nil
}

func arenaTemplate(id, name string, weekday int, wallTime string) models.TemplateDoc {
	return models.TemplateDoc{
		"id":        id,
		"type":      models.KindArena,
		"name":      name,
		"clockTime": 180,
		"minutes":   60,
		"recurrence": map[string]any{
			"weekday":   weekday,
			"wall_time": wallTime,
			"timezone":  "UTC",
		},
	}
}

func newScheduleServiceForTest(templates *fakeTemplateRepo, tournaments *fakeTournamentRepo, host *fakeHost, now time.Time) *ScheduleService {
	s := NewScheduleService(templates, tournaments, host, nil, slog.Default())
	s.now = func() time.Time { return now }
	return s
}

func TestCreateBatchMixedOutcomes(t *testing.T) {
	// Wednesday noon; Friday is still ahead, Monday already gone.
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

	badTz := arenaTemplate("t-badtz", "Broken Zone", 4, "18:00")
	badTz["recurrence"] = map[string]any{"weekday": 4, "wall_time": "18:00", "timezone": "Nowhere/Void"}

	templates := &fakeTemplateRepo{docs: []models.TemplateDoc{
		badTz,
		arenaTemplate("t-past", "Monday Arena", 0, "10:00"),
		arenaTemplate("t-ok", "Friday Arena", 4, "18:00"),
	}}
	tournaments := &fakeTournamentRepo{}
	host := &fakeHost{}
	s := newScheduleServiceForTest(templates, tournaments, host, now)

	report, err := s.CreateBatch(context.Background(), CreateBatchInput{
		User: "nimven", Token: "tok", WeekAnchor: now,
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	if len(report) != 3 {
		t.Fatalf("report has %d entries, want 3", len(report))
	}
	if report["t-badtz"].Success || report["t-badtz"].Error == "" {
		t.Errorf("t-badtz = %+v, want an error", report["t-badtz"])
	}
	if report["t-past"].Success || !strings.Contains(report["t-past"].Error, "past") {
		t.Errorf("t-past = %+v, want a start-in-the-past error", report["t-past"])
	}
	if !report["t-ok"].Success {
		t.Errorf("t-ok = %+v, want success", report["t-ok"])
	}

	if len(host.created) != 1 {
		t.Errorf("host created %d tournaments, want 1", len(host.created))
	}
	if len(tournaments.tournaments) != 1 {
		t.Fatalf("persisted %d tournaments, want 1", len(tournaments.tournaments))
	}
	persisted := tournaments.tournaments[0]
	wantStart := time.Date(2026, time.August, 28, 18, 0, 0, 0, time.UTC).Unix()
	if persisted.StartsAt != wantStart {
		t.Errorf("persisted StartsAt = %d, want %d", persisted.StartsAt, wantStart)
	}
	if persisted.Template != "t-ok" {
		t.Errorf("persisted Template = %q, want \"t-ok\"", persisted.Template)
	}
}

func TestCreateBatchSkipsExistingOccurrence(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	startsAt := time.Date(2026, time.August, 28, 18, 0, 0, 0, time.UTC).Unix()

	templates := &fakeTemplateRepo{docs: []models.TemplateDoc{
		arenaTemplate("t-ok", "Friday Arena", 4, "18:00"),
	}}
	tournaments := &fakeTournamentRepo{tournaments: []*models.Tournament{{
		ID: "remote-1", User: "nimven", TournamentSet: models.DefaultTournamentSet,
		Template: "t-ok", StartsAt: startsAt,
	}}}
	host := &fakeHost{}
	s := newScheduleServiceForTest(templates, tournaments, host, now)

	report, err := s.CreateBatch(context.Background(), CreateBatchInput{
		User: "nimven", Token: "tok", WeekAnchor: now,
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	result := report["t-ok"]
	if result.Success || !strings.Contains(result.Error, "already created") {
		t.Errorf("result = %+v, want an already-created error", result)
	}
	if len(host.created) != 0 {
		t.Errorf("host created %d tournaments, want 0", len(host.created))
	}
}

func TestCreateBatchHostRejection(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

	templates := &fakeTemplateRepo{docs: []models.TemplateDoc{
		arenaTemplate("t-ok", "Friday Arena", 4, "18:00"),
		arenaTemplate("t-rejected", "Saturday Arena", 5, "18:00"),
	}}
	tournaments := &fakeTournamentRepo{}
	host := &fakeHost{failWith: map[string]error{
		"Saturday Arena": &lichess.Error{Code: 400, Message: "This user cannot create tournaments"},
	}}
	s := newScheduleServiceForTest(templates, tournaments, host, now)

	report, err := s.CreateBatch(context.Background(), CreateBatchInput{
		User: "nimven", Token: "tok", WeekAnchor: now,
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	// The remote message surfaces verbatim and the sibling still succeeds.
	if got := report["t-rejected"].Error; got != "This user cannot create tournaments" {
		t.Errorf("t-rejected error = %q, want the remote message", got)
	}
	if !report["t-ok"].Success {
		t.Errorf("t-ok = %+v, want success despite the sibling failure", report["t-ok"])
	}
	if len(tournaments.tournaments) != 1 {
		t.Errorf("persisted %d tournaments, want 1", len(tournaments.tournaments))
	}
}

func TestCreateBatchSelectsRequestedTemplates(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

	templates := &fakeTemplateRepo{docs: []models.TemplateDoc{
		arenaTemplate("t-one", "One", 4, "18:00"),
		arenaTemplate("t-two", "Two", 5, "18:00"),
	}}
	tournaments := &fakeTournamentRepo{}
	host := &fakeHost{}
	s := newScheduleServiceForTest(templates, tournaments, host, now)

	report, err := s.CreateBatch(context.Background(), CreateBatchInput{
		User: "nimven", Token: "tok", WeekAnchor: now, TemplateIDs: []string{"t-two"},
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	if len(report) != 1 {
		t.Fatalf("report has %d entries, want 1", len(report))
	}
	if _, ok := report["t-two"]; !ok {
		t.Error("report is missing the requested template")
	}
}
