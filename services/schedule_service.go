package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/live"
	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
)

// ScheduleService materializes templates into tournaments on the remote
// host: it resolves each template's recurrence against a week anchor, skips
// occurrences that already exist, fires all creation requests together and
// merges the per-template outcomes into one report.
type ScheduleService struct {
	templates   repositories.TemplateRepository
	tournaments repositories.TournamentRepository
	host        TournamentHost
	hub         *live.Hub
	logger      *slog.Logger
	now         func() time.Time
}

func NewScheduleService(
	templates repositories.TemplateRepository,
	tournaments repositories.TournamentRepository,
	host TournamentHost,
	hub *live.Hub,
	logger *slog.Logger,
) *ScheduleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		templates:   templates,
		tournaments: tournaments,
		host:        host,
		hub:         hub,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateBatchInput selects the templates to materialize. An empty
// TemplateIDs means every template in the user's default set.
type CreateBatchInput struct {
	User        string
	Token       string
	WeekAnchor  time.Time
	TemplateIDs []string
}

// TemplateResult is one entry of the batch report.
type TemplateResult struct {
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Tournament map[string]any `json:"tournament,omitempty"`
	Password   string         `json:"password,omitempty"`
}

// BatchReport maps template ids to their outcome. Every selected template
// appears exactly once.
type BatchReport map[string]TemplateResult

// pending is a template that survived resolution and is ready to create.
type pending struct {
	doc      models.TemplateDoc
	fields   map[string]any
	startsAt time.Time
}

func (s *ScheduleService) CreateBatch(ctx context.Context, in CreateBatchInput) (BatchReport, error) {
	var templates []models.TemplateDoc
	var err error
	if len(in.TemplateIDs) == 0 {
		templates, err = s.templates.List(ctx, in.User, models.DefaultTournamentSet)
	} else {
		templates, err = s.templates.ListByIDs(ctx, in.User, models.DefaultTournamentSet, in.TemplateIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	report := BatchReport{}
	now := s.now()
	survivors := make([]pending, 0, len(templates))

	for _, t := range templates {
		id := t.ID()
		kind, ok := tournamentKinds[t.Kind()]
		if !ok {
			report[id] = TemplateResult{Error: fmt.Sprintf("Unknown tournament type %q", t.Kind())}
			continue
		}

		rec, ok := templateRecurrence(t)
		if !ok {
			report[id] = TemplateResult{Error: fmt.Sprintf("Template %s has no schedule", t.Name())}
			continue
		}
		startsAt, err := ResolveOccurrence(rec, in.WeekAnchor)
		if err != nil {
			report[id] = TemplateResult{Error: fmt.Sprintf("Cannot schedule tournament %s: %v", t.Name(), err)}
			continue
		}
		if !startsAt.After(now.In(startsAt.Location())) {
			report[id] = TemplateResult{Error: fmt.Sprintf("Cannot create tournament %s as it would start in the past", t.Name())}
			continue
		}

		// Advisory duplicate check; the bulk insert below is the real guard.
		exists, err := s.tournaments.Exists(ctx, in.User, models.DefaultTournamentSet, id, startsAt.Unix())
		if err != nil {
			s.logger.Error("duplicate check failed", slog.String("template", id), slog.Any("error", err))
			report[id] = TemplateResult{Error: "Internal error"}
			continue
		}
		if exists {
			report[id] = TemplateResult{Error: fmt.Sprintf("Tournament %s is already created for this week", t.Name())}
			continue
		}

		doc := FilterAllowedFields(t)
		survivors = append(survivors, pending{
			doc:      doc,
			fields:   kind.shapeRequest(doc, startsAt),
			startsAt: startsAt,
		})
	}

	// All creation requests go out together; a failing sibling never cancels
	// the others, so the group's goroutines always return nil and the
	// outcome travels by index instead.
	type outcome struct {
		created map[string]any
		err     error
	}
	outcomes := make([]outcome, len(survivors))

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range survivors {
		g.Go(func() error {
			created, err := s.host.CreateTournament(gCtx, in.Token, p.doc.Kind(), p.fields)
			outcomes[i] = outcome{created: created, err: err}
			return nil
		})
	}
	_ = g.Wait()

	created := make([]*models.Tournament, 0, len(survivors))
	for i, p := range survivors {
		id := p.doc.ID()
		out := outcomes[i]
		if out.err != nil {
			var remote *lichess.Error
			if errors.As(out.err, &remote) {
				report[id] = TemplateResult{Error: remote.Message}
			} else {
				s.logger.Error("tournament creation failed",
					slog.String("template", id), slog.Any("error", out.err))
				report[id] = TemplateResult{Error: "Internal error"}
			}
			s.broadcast(in.User, live.TypeTournamentFailed, map[string]any{
				"template": id,
				"error":    report[id].Error,
			})
			continue
		}

		remoteID, _ := out.created["id"].(string)
		t := &models.Tournament{
			ID:            remoteID,
			User:          in.User,
			TournamentSet: models.DefaultTournamentSet,
			Template:      id,
			Password:      p.doc.Password(),
			StartsAt:      p.startsAt.Unix(),
			Created:       now.Unix(),
			Fields:        out.created,
		}
		created = append(created, t)

		// The host does not echo secrets back; the password rides along
		// from the template.
		report[id] = TemplateResult{Success: true, Tournament: out.created, Password: p.doc.Password()}
		s.broadcast(in.User, live.TypeTournamentCreated, map[string]any{
			"template":   id,
			"tournament": out.created,
		})
	}

	if len(created) > 0 {
		if _, err := s.tournaments.InsertIfAbsent(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to persist created tournaments: %w", err)
		}
	}

	s.broadcast(in.User, live.TypeBatchFinished, report)
	return report, nil
}

// ListTournaments returns the user's persisted tournaments, newest first.
func (s *ScheduleService) ListTournaments(ctx context.Context, user string) ([]*models.Tournament, error) {
	return s.tournaments.List(ctx, user, models.DefaultTournamentSet)
}

func (s *ScheduleService) broadcast(user, msgType string, payload any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(user, live.Message{Type: msgType, Payload: payload})
}
