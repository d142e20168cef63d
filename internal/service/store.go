package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/model"
)

var (
	ErrTestNotFound       = errors.New("test not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("submission already submitted")
	ErrNotScorable        = errors.New("submission is not scorable")
	ErrResultPending      = errors.New("result not available yet")
	ErrInvalidDefinition  = errors.New("invalid test definition")
	ErrInvalidAnswers     = errors.New("invalid answers payload")
)

// TestStore persists test definitions.
type TestStore interface {
	Create(ctx context.Context, t *model.Test, questionCount int) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	Update(ctx context.Context, t *model.Test, questionCount int) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, page, perPage int, variant string) ([]model.TestSummary, int64, error)
	ListAll(ctx context.Context) ([]model.Test, error)
}

// SubmissionStore persists submissions.
type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, answers json.RawMessage, at time.Time) (bool, error)
	ListFinishedIDs(ctx context.Context, testID, after uuid.UUID, limit int) ([]uuid.UUID, error)
	ListResults(ctx context.Context, testID uuid.UUID) ([]model.SubmissionResult, error)
}

// DefinitionCache keeps test definitions close to the scorer.
type DefinitionCache interface {
	Definition(ctx context.Context, testID string) ([]byte, string, error)
	SetDefinition(ctx context.Context, testID string, definition []byte, variant string) error
	DeleteDefinition(ctx context.Context, testID string) error
}

// AnswerBuffer holds autosaved answers until the submission is scored.
type AnswerBuffer interface {
	BufferAnswer(ctx context.Context, submissionID, testID, key string, value []byte) error
	BufferedAnswers(ctx context.Context, submissionID string) (map[string]string, error)
}

// Publisher enqueues work for the background workers.
type Publisher interface {
	Push(ctx context.Context, name string, v any) error
}
