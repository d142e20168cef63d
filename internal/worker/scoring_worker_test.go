package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func scorePayload(correct int) model.ScorePayload {
	return model.ScorePayload{
		SubmissionID: uuid.New(),
		Result:       scoring.ScoreResult{CorrectCount: correct, TotalCount: 3, Details: []scoring.Detail{}},
		SubmittedAt:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestScoringWorkerFlushesOnShutdown(t *testing.T) {
	q := newFakeQueue()
	store := new(MockScoreStore)
	buffers := new(MockBufferCleaner)
	a, b := scorePayload(1), scorePayload(2)
	require.NoError(t, q.Push(context.Background(), config.WorkerKey.PersistScoresQueue, a))
	require.NoError(t, q.Push(context.Background(), config.WorkerKey.PersistScoresQueue, b))

	store.On("BulkSaveScores", mock.Anything, mock.MatchedBy(func(batch []model.ScorePayload) bool {
		return len(batch) == 2 && batch[0].SubmissionID == a.SubmissionID && batch[1].Result.CorrectCount == 2
	})).Return(nil)
	buffers.On("ClearBuffers", mock.Anything, []string{a.SubmissionID.String(), b.SubmissionID.String()}).Return(nil)

	w := NewScoringWorker(store, buffers, q, 50, time.Hour, zerolog.Nop())
	runUntilDrained(t, q, config.WorkerKey.PersistScoresQueue, w.Start)

	store.AssertExpectations(t)
	buffers.AssertExpectations(t)
}

func TestScoringWorkerFlushesFullBatches(t *testing.T) {
	q := newFakeQueue()
	store := new(MockScoreStore)
	buffers := new(MockBufferCleaner)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(context.Background(), config.WorkerKey.PersistScoresQueue, scorePayload(i)))
	}

	store.On("BulkSaveScores", mock.Anything, mock.MatchedBy(func(batch []model.ScorePayload) bool {
		return len(batch) == 1
	})).Return(nil)
	buffers.On("ClearBuffers", mock.Anything, mock.Anything).Return(nil)

	w := NewScoringWorker(store, buffers, q, 1, time.Hour, zerolog.Nop())
	runUntilDrained(t, q, config.WorkerKey.PersistScoresQueue, w.Start)

	store.AssertNumberOfCalls(t, "BulkSaveScores", 3)
}

func TestScoringWorkerFallsBackToSingleWrites(t *testing.T) {
	q := newFakeQueue()
	store := new(MockScoreStore)
	buffers := new(MockBufferCleaner)
	ok, failing := scorePayload(1), scorePayload(2)

	store.On("BulkSaveScores", mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))
	store.On("SaveScore", mock.Anything, ok).Return(nil)
	store.On("SaveScore", mock.Anything, failing).Return(errors.New("connection reset"))
	buffers.On("ClearBuffers", mock.Anything, []string{ok.SubmissionID.String()}).Return(nil)

	w := NewScoringWorker(store, buffers, q, 50, time.Hour, zerolog.Nop())
	w.flushSafe(context.Background(), []model.ScorePayload{ok, failing})

	require.Equal(t, 1, q.Len(config.WorkerKey.PersistScoresQueue))
	var requeued model.ScorePayload
	q.decode(t, config.WorkerKey.PersistScoresQueue, 0, &requeued)
	assert.Equal(t, failing.SubmissionID, requeued.SubmissionID)
	buffers.AssertExpectations(t)
}

func TestScoringWorkerKeepsBuffersOfRescores(t *testing.T) {
	store := new(MockScoreStore)
	buffers := new(MockBufferCleaner)
	p := scorePayload(3)
	p.Rescore = true

	store.On("BulkSaveScores", mock.Anything, mock.Anything).Return(nil)
	buffers.On("ClearBuffers", mock.Anything, []string{}).Return(nil)

	w := NewScoringWorker(store, buffers, newFakeQueue(), 50, time.Hour, zerolog.Nop())
	w.flushSafe(context.Background(), []model.ScorePayload{p})

	buffers.AssertExpectations(t)
}

func TestScoringWorkerIgnoresEmptyFlush(t *testing.T) {
	store := new(MockScoreStore)
	w := NewScoringWorker(store, new(MockBufferCleaner), newFakeQueue(), 0, 0, zerolog.Nop())

	w.flushSafe(context.Background(), nil)

	store.AssertNotCalled(t, "BulkSaveScores", mock.Anything, mock.Anything)
	assert.Equal(t, 50, w.batchSize)
	assert.Equal(t, 2*time.Second, w.timeout)
}
