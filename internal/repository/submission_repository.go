package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-scoring/internal/model"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `id, test_id, candidate_ref, status, answers, correct_count, total_count,
	percentage, band, details, started_at, submitted_at, scored_at`

// Create inserts a new IN_PROGRESS submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	s.Status = model.SubmissionStatusInProgress
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (test_id, candidate_ref, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, started_at`,
		s.TestID, s.CandidateRef, s.Status,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByID retrieves a submission with its answers and result.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.TestID, &s.CandidateRef, &s.Status, &s.Answers, &s.CorrectCount, &s.TotalCount,
		&s.Percentage, &s.Band, &s.Details, &s.StartedAt, &s.SubmittedAt, &s.ScoredAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MergeAnswer writes one autosaved answer into the stored answers object.
// Finished submissions are left untouched.
func (r *SubmissionRepository) MergeAnswer(ctx context.Context, id uuid.UUID, key string, value json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = COALESCE(answers, '{}'::jsonb) || jsonb_build_object($2::text, $3::jsonb)
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, key, string(value),
	)
	return err
}

// MarkSubmitted stores the final answers and closes the attempt. It reports
// false when the submission was no longer in progress.
func (r *SubmissionRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, answers json.RawMessage, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET status = 'SUBMITTED', answers = $2::jsonb, submitted_at = $3
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		id, string(answers), at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// BulkSaveScores writes a batch of results with one UNNEST update. A
// submission that already holds a result is only overwritten by a re-score.
func (r *SubmissionRepository) BulkSaveScores(ctx context.Context, batch []model.ScorePayload) error {
	n := len(batch)
	ids := make([]uuid.UUID, n)
	correct := make([]int, n)
	total := make([]int, n)
	pct := make([]float64, n)
	bands := make([]float64, n)
	details := make([]string, n)
	submittedAt := make([]time.Time, n)
	rescore := make([]bool, n)

	for i, p := range batch {
		raw, err := json.Marshal(p.Result.Details)
		if err != nil {
			return err
		}
		ids[i] = p.SubmissionID
		correct[i] = p.Result.CorrectCount
		total[i] = p.Result.TotalCount
		pct[i] = p.Result.Percentage
		bands[i] = p.Result.Band
		details[i] = string(raw)
		submittedAt[i] = p.SubmittedAt
		rescore[i] = p.Rescore
	}

	query := `
		UPDATE submissions AS s
		SET status = CASE WHEN t.total_count = 0 THEN 'UNSCORABLE' ELSE 'SCORED' END,
		    correct_count = t.correct_count,
		    total_count = t.total_count,
		    percentage = t.percentage,
		    band = t.band,
		    details = t.details::jsonb,
		    submitted_at = COALESCE(s.submitted_at, t.submitted_at),
		    scored_at = NOW()
		FROM (
			SELECT *
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::int[],
				$4::float8[],
				$5::float8[],
				$6::text[],
				$7::timestamptz[],
				$8::bool[]
			) AS u (id, correct_count, total_count, percentage, band, details, submitted_at, rescore)
		) AS t
		WHERE s.id = t.id
		  AND (t.rescore OR s.status IN ('IN_PROGRESS', 'SUBMITTED'))
	`

	_, err := r.pool.Exec(ctx, query, ids, correct, total, pct, bands, details, submittedAt, rescore)
	return err
}

// SaveScore is the single-row form of BulkSaveScores.
func (r *SubmissionRepository) SaveScore(ctx context.Context, p model.ScorePayload) error {
	raw, err := json.Marshal(p.Result.Details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE submissions
		 SET status = CASE WHEN $3::int = 0 THEN 'UNSCORABLE' ELSE 'SCORED' END,
		     correct_count = $2,
		     total_count = $3,
		     percentage = $4,
		     band = $5,
		     details = $6::jsonb,
		     submitted_at = COALESCE(submitted_at, $7),
		     scored_at = NOW()
		 WHERE id = $1
		   AND ($8 OR status IN ('IN_PROGRESS', 'SUBMITTED'))`,
		p.SubmissionID, p.Result.CorrectCount, p.Result.TotalCount, p.Result.Percentage,
		p.Result.Band, string(raw), p.SubmittedAt, p.Rescore,
	)
	return err
}

// ListFinishedIDs pages through the finished submissions of a test by id.
func (r *SubmissionRepository) ListFinishedIDs(ctx context.Context, testID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM submissions
		 WHERE test_id = $1 AND status <> 'IN_PROGRESS' AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		testID, after, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListResults returns every finished submission of a test with its details.
func (r *SubmissionRepository) ListResults(ctx context.Context, testID uuid.UUID) ([]model.SubmissionResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, candidate_ref, status, COALESCE(correct_count, 0), COALESCE(total_count, 0),
		        COALESCE(percentage, 0), COALESCE(band, 0), submitted_at, details
		 FROM submissions
		 WHERE test_id = $1 AND status <> 'IN_PROGRESS'
		 ORDER BY submitted_at NULLS LAST, candidate_ref`,
		testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.SubmissionResult
	for rows.Next() {
		var (
			res     model.SubmissionResult
			details []byte
		)
		if err := rows.Scan(&res.SubmissionID, &res.CandidateRef, &res.Status, &res.CorrectCount,
			&res.TotalCount, &res.Percentage, &res.Band, &res.SubmittedAt, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &res.Details); err != nil {
				return nil, err
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
