package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/nimven/autotourney/models"
)

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRepository interface {
	Insert(ctx context.Context, doc models.TemplateDoc) error
	Get(ctx context.Context, user, set, id string) (models.TemplateDoc, error)
	List(ctx context.Context, user, set string) ([]models.TemplateDoc, error)
	ListByIDs(ctx context.Context, user, set string, ids []string) ([]models.TemplateDoc, error)
	Update(ctx context.Context, doc models.TemplateDoc) error
	Delete(ctx context.Context, user, set, id string) error
}

type postgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) TemplateRepository {
	return &postgresTemplateRepository{db: db}
}

func (r *postgresTemplateRepository) Insert(ctx context.Context, doc models.TemplateDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode template document: %w", err)
	}

	query := `
		INSERT INTO templates (user_id, tournament_set, id, doc)
		VALUES ($1, $2, $3, $4)`

	_, err = r.db.ExecContext(ctx, query, doc.User(), doc.String("tournament_set"), doc.ID(), raw)
	return err
}

func (r *postgresTemplateRepository) Get(ctx context.Context, user, set, id string) (models.TemplateDoc, error) {
	query := `
		SELECT doc FROM templates
		WHERE user_id = $1 AND tournament_set = $2 AND id = $3`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, user, set, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return decodeTemplate(raw)
}

func (r *postgresTemplateRepository) List(ctx context.Context, user, set string) ([]models.TemplateDoc, error) {
	query := `
		SELECT doc FROM templates
		WHERE user_id = $1 AND tournament_set = $2
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, user, set)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTemplates(rows)
}

func (r *postgresTemplateRepository) ListByIDs(ctx context.Context, user, set string, ids []string) ([]models.TemplateDoc, error) {
	query := `
		SELECT doc FROM templates
		WHERE user_id = $1 AND tournament_set = $2 AND id = ANY($3)
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, user, set, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTemplates(rows)
}

func (r *postgresTemplateRepository) Update(ctx context.Context, doc models.TemplateDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode template document: %w", err)
	}

	query := `
		UPDATE templates SET doc = $4
		WHERE user_id = $1 AND tournament_set = $2 AND id = $3`

	res, err := r.db.ExecContext(ctx, query, doc.User(), doc.String("tournament_set"), doc.ID(), raw)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *postgresTemplateRepository) Delete(ctx context.Context, user, set, id string) error {
	query := `DELETE FROM templates WHERE user_id = $1 AND tournament_set = $2 AND id = $3`

	res, err := r.db.ExecContext(ctx, query, user, set, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func decodeTemplate(raw []byte) (models.TemplateDoc, error) {
	var doc models.TemplateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode template document: %w", err)
	}
	return doc, nil
}

func collectTemplates(rows *sql.Rows) ([]models.TemplateDoc, error) {
	docs := []models.TemplateDoc{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeTemplate(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
