// Package worker holds the background consumers of the Redis work queues.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/model"
)

// pollTimeout bounds one blocking pop so workers notice shutdown.
const pollTimeout = 1 * time.Second

// Queue is the subset of queue.RedisQueue the workers use.
type Queue interface {
	Push(ctx context.Context, name string, v any) error
	PushRaw(ctx context.Context, name string, raw []byte) error
	Pop(ctx context.Context, name string, timeout time.Duration) ([]byte, error)
	TryPop(ctx context.Context, name string) ([]byte, error)
}

// ScoreStore persists score results.
type ScoreStore interface {
	BulkSaveScores(ctx context.Context, batch []model.ScorePayload) error
	SaveScore(ctx context.Context, p model.ScorePayload) error
}

// AnswerStore persists autosaved answers.
type AnswerStore interface {
	MergeAnswer(ctx context.Context, id uuid.UUID, key string, value json.RawMessage) error
}

// BufferCleaner drops autosave buffers once a result is stored.
type BufferCleaner interface {
	ClearBuffers(ctx context.Context, submissionIDs ...string) error
}

// Rescorer produces a fresh result for a finished submission.
type Rescorer interface {
	Rescore(ctx context.Context, id uuid.UUID) (model.ScorePayload, error)
}
