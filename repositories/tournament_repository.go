package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nimven/autotourney/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	// InsertIfAbsent persists the given tournaments in one transaction.
	// Rows colliding on (user, set, template, starts_at) are skipped, which
	// makes the duplicate pre-check in the orchestrator advisory only.
	InsertIfAbsent(ctx context.Context, tournaments []*models.Tournament) (int, error)
	List(ctx context.Context, user, set string) ([]*models.Tournament, error)
	ListStartedSince(ctx context.Context, user, set string, since int64) ([]*models.Tournament, error)
	Exists(ctx context.Context, user, set, template string, startsAt int64) (bool, error)
	// Save rewrites the stored document for an already-persisted tournament.
	// Used to attach fetched standings and stats sync timestamps.
	Save(ctx context.Context, t *models.Tournament) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) InsertIfAbsent(ctx context.Context, tournaments []*models.Tournament) (int, error) {
	if len(tournaments) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tournaments (user_id, tournament_set, template_id, starts_at, remote_id, created, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, tournament_set, template_id, starts_at) DO NOTHING`

	inserted := 0
	for _, t := range tournaments {
		raw, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("failed to encode tournament document: %w", err)
		}
		res, err := tx.ExecContext(ctx, query,
			t.User, t.TournamentSet, t.Template, t.StartsAt, t.ID, t.Created, raw)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tournament insert: %w", err)
	}
	return inserted, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, user, set string) ([]*models.Tournament, error) {
	query := `
		SELECT doc FROM tournaments
		WHERE user_id = $1 AND tournament_set = $2
		ORDER BY created DESC`

	rows, err := r.db.QueryContext(ctx, query, user, set)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTournaments(rows)
}

func (r *postgresTournamentRepository) ListStartedSince(ctx context.Context, user, set string, since int64) ([]*models.Tournament, error) {
	query := `
		SELECT doc FROM tournaments
		WHERE user_id = $1 AND tournament_set = $2 AND starts_at >= $3
		ORDER BY starts_at`

	rows, err := r.db.QueryContext(ctx, query, user, set, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTournaments(rows)
}

func (r *postgresTournamentRepository) Exists(ctx context.Context, user, set, template string, startsAt int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tournaments
			WHERE user_id = $1 AND tournament_set = $2 AND template_id = $3 AND starts_at = $4
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, user, set, template, startsAt).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresTournamentRepository) Save(ctx context.Context, t *models.Tournament) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament document: %w", err)
	}

	query := `
		UPDATE tournaments SET doc = $5
		WHERE user_id = $1 AND tournament_set = $2 AND template_id = $3 AND starts_at = $4`

	res, err := r.db.ExecContext(ctx, query, t.User, t.TournamentSet, t.Template, t.StartsAt, raw)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func collectTournaments(rows *sql.Rows) ([]*models.Tournament, error) {
	tournaments := []*models.Tournament{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t := &models.Tournament{}
		if err := json.Unmarshal(raw, t); err != nil {
			return nil, fmt.Errorf("failed to decode tournament document: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
