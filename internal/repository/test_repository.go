package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-scoring/internal/model"
)

// TestRepository handles test definition data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test, questionCount int) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, variant, definition, question_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Variant, t.Definition, questionCount,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a test with its definition.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, variant, definition, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Variant, &t.Definition, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Update overwrites a test. questionCount is refreshed with the definition.
func (r *TestRepository) Update(ctx context.Context, t *model.Test, questionCount int) error {
	return r.pool.QueryRow(ctx,
		`UPDATE tests
		 SET title = $1, variant = $2, definition = $3, question_count = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING updated_at`,
		t.Title, t.Variant, t.Definition, questionCount, t.ID,
	).Scan(&t.UpdatedAt)
}

// Delete removes a test and, through the foreign key, its submissions.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns a page of tests, newest first, with submission counts.
func (r *TestRepository) List(ctx context.Context, page, perPage int, variant string) ([]model.TestSummary, int64, error) {
	offset := (page - 1) * perPage

	where := ""
	args := []any{}
	if variant != "" {
		args = append(args, variant)
		where = fmt.Sprintf(" WHERE t.variant = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tests t"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, offset)
	query := `
		SELECT t.id, t.title, t.variant, t.question_count, t.created_at,
		       (SELECT COUNT(*) FROM submissions s WHERE s.test_id = t.id) AS submission_count
		FROM tests t` + where + fmt.Sprintf(`
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tests []model.TestSummary
	for rows.Next() {
		var t model.TestSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Variant, &t.QuestionCount, &t.CreatedAt, &t.SubmissionCount); err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}

// ListAll returns every test with its definition, for cache warming.
func (r *TestRepository) ListAll(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, variant, definition, created_at, updated_at FROM tests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Variant, &t.Definition, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}
