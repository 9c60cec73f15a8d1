package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
	"github.com/nimven/autotourney/storage"
)

// DiplomaService manages diploma layouts. Metadata lives in the document
// store, the field layout payload goes to object storage under a per-diploma
// key.
type DiplomaService struct {
	diplomas repositories.DiplomaRepository
	store    storage.ObjectStore
	logger   *slog.Logger
}

func NewDiplomaService(diplomas repositories.DiplomaRepository, store storage.ObjectStore, logger *slog.Logger) *DiplomaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiplomaService{diplomas: diplomas, store: store, logger: logger}
}

// Diploma is the external representation: metadata plus the raw field layout
// payload.
type Diploma struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Index  int             `json:"index"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

func fieldsKey(user, id string) string {
	return fmt.Sprintf("diplomas/%s-%s", user, id)
}

// Save stores a diploma layout. A zero id creates a new diploma; an existing
// id overwrites its metadata and payload in place.
func (s *DiplomaService) Save(ctx context.Context, user, id, name string, index int, fields []byte) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: diploma name is required", ErrValidationFailed)
	}
	if id == "" {
		id = newID()
	}

	key := fieldsKey(user, id)
	if _, err := s.store.Upload(ctx, key, "application/json", bytes.NewReader(fields)); err != nil {
		return "", fmt.Errorf("failed to store diploma fields: %w", err)
	}

	tpl := &models.DiplomaTemplate{
		ID:        id,
		User:      user,
		Name:      name,
		Index:     index,
		FieldsKey: key,
	}
	if err := s.diplomas.Upsert(ctx, tpl); err != nil {
		return "", fmt.Errorf("failed to store diploma: %w", err)
	}
	return id, nil
}

// Get returns one diploma with its field layout payload attached.
func (s *DiplomaService) Get(ctx context.Context, user, id string) (*Diploma, error) {
	tpl, err := s.diplomas.Get(ctx, user, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDiplomaNotFound) {
			return nil, ErrDiplomaNotFound
		}
		return nil, err
	}

	fields, err := s.downloadFields(ctx, tpl)
	if err != nil {
		return nil, err
	}
	return &Diploma{ID: tpl.ID, Name: tpl.Name, Index: tpl.Index, Fields: fields}, nil
}

// List returns the user's diplomas in display order, metadata only.
func (s *DiplomaService) List(ctx context.Context, user string) ([]*Diploma, error) {
	templates, err := s.diplomas.List(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]*Diploma, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, &Diploma{ID: tpl.ID, Name: tpl.Name, Index: tpl.Index})
	}
	return out, nil
}

// Rename changes the display name without touching the payload.
func (s *DiplomaService) Rename(ctx context.Context, user, id, name string) error {
	if name == "" {
		return fmt.Errorf("%w: diploma name is required", ErrValidationFailed)
	}
	tpl, err := s.diplomas.Get(ctx, user, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDiplomaNotFound) {
			return ErrDiplomaNotFound
		}
		return err
	}
	tpl.Name = name
	return s.diplomas.Upsert(ctx, tpl)
}

// Delete removes the diploma and its stored payload. A missing payload
// object is not an error, the metadata row is authoritative.
func (s *DiplomaService) Delete(ctx context.Context, user, id string) error {
	tpl, err := s.diplomas.Get(ctx, user, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDiplomaNotFound) {
			return ErrDiplomaNotFound
		}
		return err
	}

	if err := s.diplomas.Remove(ctx, user, id); err != nil {
		if errors.Is(err, repositories.ErrDiplomaNotFound) {
			return ErrDiplomaNotFound
		}
		return err
	}

	if tpl.FieldsKey != "" {
		if err := s.store.Delete(ctx, tpl.FieldsKey); err != nil {
			s.logger.Warn("failed to delete diploma fields",
				slog.String("key", tpl.FieldsKey), slog.Any("error", err))
		}
	}
	return nil
}

// Duplicate copies a diploma, payload included, under a fresh id.
func (s *DiplomaService) Duplicate(ctx context.Context, user, id string) (string, error) {
	tpl, err := s.diplomas.Get(ctx, user, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDiplomaNotFound) {
			return "", ErrDiplomaNotFound
		}
		return "", err
	}

	fields, err := s.downloadFields(ctx, tpl)
	if err != nil {
		return "", err
	}

	return s.Save(ctx, user, "", fmt.Sprintf("%s (copy)", tpl.Name), tpl.Index+1, fields)
}

func (s *DiplomaService) downloadFields(ctx context.Context, tpl *models.DiplomaTemplate) ([]byte, error) {
	if tpl.FieldsKey == "" {
		return nil, nil
	}
	body, err := s.store.Download(ctx, tpl.FieldsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load diploma fields: %w", err)
	}
	defer body.Close()

	fields, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read diploma fields: %w", err)
	}
	return fields, nil
}
