package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
)

// TemplateService owns the template store adapter: field allow-listing, clock
// unit conversion and the legacy recurrence shim.
type TemplateService struct {
	templates repositories.TemplateRepository
	logger    *slog.Logger
}

func NewTemplateService(templates repositories.TemplateRepository, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{templates: templates, logger: logger}
}

func (s *TemplateService) Get(ctx context.Context, user, id string) (models.TemplateDoc, error) {
	doc, err := s.templates.Get(ctx, user, models.DefaultTournamentSet, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTemplateNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	s.ensureRecurrence(ctx, doc)
	return renderTemplate(doc), nil
}

func (s *TemplateService) List(ctx context.Context, user string) ([]models.TemplateDoc, error) {
	docs, err := s.templates.List(ctx, user, models.DefaultTournamentSet)
	if err != nil {
		return nil, err
	}
	out := make([]models.TemplateDoc, 0, len(docs))
	for _, doc := range docs {
		s.ensureRecurrence(ctx, doc)
		out = append(out, renderTemplate(doc))
	}
	return out, nil
}

// Create allow-lists the submitted attributes, converts the clock time to
// seconds and assigns a fresh id.
func (s *TemplateService) Create(ctx context.Context, user string, body models.TemplateDoc) (string, error) {
	doc, err := shapeForStorage(body)
	if err != nil {
		return "", err
	}
	id := newID()
	doc["id"] = id
	doc["user"] = user
	doc["tournament_set"] = models.DefaultTournamentSet

	if err := s.templates.Insert(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to store template: %w", err)
	}
	return id, nil
}

func (s *TemplateService) Update(ctx context.Context, user, id string, body models.TemplateDoc) error {
	doc, err := shapeForStorage(body)
	if err != nil {
		return err
	}
	doc["id"] = id
	doc["user"] = user
	doc["tournament_set"] = models.DefaultTournamentSet

	err = s.templates.Update(ctx, doc)
	if errors.Is(err, repositories.ErrTemplateNotFound) {
		return ErrTemplateNotFound
	}
	return err
}

func (s *TemplateService) Delete(ctx context.Context, user, id string) error {
	err := s.templates.Delete(ctx, user, models.DefaultTournamentSet, id)
	if errors.Is(err, repositories.ErrTemplateNotFound) {
		return ErrTemplateNotFound
	}
	return err
}

// ensureRecurrence runs the compatibility shim: a template that still only
// carries the legacy absolute startDate gets the structured recurrence
// derived and persisted once. The legacy field itself stays in place.
func (s *TemplateService) ensureRecurrence(ctx context.Context, doc models.TemplateDoc) {
	if _, ok := doc.Recurrence(); ok {
		return
	}
	start, ok := doc.Int("startDate")
	if !ok {
		return
	}
	doc["recurrence"] = LegacyRecurrence(int64(start))
	if err := s.templates.Update(ctx, doc); err != nil {
		s.logger.Warn("failed to persist migrated recurrence",
			slog.String("template", doc.ID()), slog.Any("error", err))
	}
}

// renderTemplate is the external representation: allow-listed fields with
// the clock time rendered in minutes.
func renderTemplate(doc models.TemplateDoc) models.TemplateDoc {
	out := FilterAllowedFields(doc)
	if seconds, ok := out.Int("clockTime"); ok {
		out["clockTime"] = FormatClockMinutes(seconds)
	}
	return out
}

// shapeForStorage filters the raw attributes for the declared kind and
// converts the clock time from minutes to whole seconds.
func shapeForStorage(body models.TemplateDoc) (models.TemplateDoc, error) {
	doc := FilterAllowedFields(body)
	if raw, present := doc["clockTime"]; present {
		switch v := raw.(type) {
		case string:
			seconds, err := ParseClockMinutes(v)
			if err != nil {
				return nil, err
			}
			doc["clockTime"] = seconds
		case float64:
			doc["clockTime"] = int(math.Round(v * 60))
		case int:
			doc["clockTime"] = v * 60
		default:
			return nil, fmt.Errorf("%w: unsupported clockTime value", ErrInvalidClockTime)
		}
	}
	return doc, nil
}

// newID returns a URL-safe random identifier, the document id format for
// templates and diplomas.
func newID() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
