package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nimven/autotourney/models"
)

var ErrDiplomaNotFound = errors.New("diploma template not found")

type DiplomaRepository interface {
	Upsert(ctx context.Context, tpl *models.DiplomaTemplate) error
	Get(ctx context.Context, user, id string) (*models.DiplomaTemplate, error)
	List(ctx context.Context, user string) ([]*models.DiplomaTemplate, error)
	Remove(ctx context.Context, user, id string) error
}

type postgresDiplomaRepository struct {
	db *sql.DB
}

func NewPostgresDiplomaRepository(db *sql.DB) DiplomaRepository {
	return &postgresDiplomaRepository{db: db}
}

func (r *postgresDiplomaRepository) Upsert(ctx context.Context, tpl *models.DiplomaTemplate) error {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("failed to encode diploma document: %w", err)
	}

	query := `
		INSERT INTO diploma_templates (user_id, id, doc) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, id) DO UPDATE SET doc = excluded.doc`

	_, err = r.db.ExecContext(ctx, query, tpl.User, tpl.ID, raw)
	return err
}

func (r *postgresDiplomaRepository) Get(ctx context.Context, user, id string) (*models.DiplomaTemplate, error) {
	query := `SELECT doc FROM diploma_templates WHERE user_id = $1 AND id = $2`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, user, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiplomaNotFound
		}
		return nil, err
	}

	tpl := &models.DiplomaTemplate{}
	if err := json.Unmarshal(raw, tpl); err != nil {
		return nil, fmt.Errorf("failed to decode diploma document: %w", err)
	}
	return tpl, nil
}

func (r *postgresDiplomaRepository) List(ctx context.Context, user string) ([]*models.DiplomaTemplate, error) {
	query := `
		SELECT doc FROM diploma_templates
		WHERE user_id = $1
		ORDER BY (doc->>'index')::int, id`

	rows, err := r.db.QueryContext(ctx, query, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*models.DiplomaTemplate{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		tpl := &models.DiplomaTemplate{}
		if err := json.Unmarshal(raw, tpl); err != nil {
			return nil, fmt.Errorf("failed to decode diploma document: %w", err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *postgresDiplomaRepository) Remove(ctx context.Context, user, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM diploma_templates WHERE user_id = $1 AND id = $2`, user, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDiplomaNotFound
	}
	return nil
}
