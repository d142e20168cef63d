package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/queue"
)

// ScoringWorker consumes persist_scores_queue and writes results in batches.
type ScoringWorker struct {
	store     ScoreStore
	buffers   BufferCleaner
	queue     Queue
	batchSize int
	timeout   time.Duration
	log       zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker. A batch is flushed when it
// holds batchSize results or timeout has passed since the last flush.
func NewScoringWorker(store ScoreStore, buffers BufferCleaner, q Queue, batchSize int, timeout time.Duration, log zerolog.Logger) *ScoringWorker {
	if batchSize < 1 {
		batchSize = 50
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ScoringWorker{
		store:     store,
		buffers:   buffers,
		queue:     q,
		batchSize: batchSize,
		timeout:   timeout,
		log:       log.With().Str("component", "scoring_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Dur("timeout", w.timeout).Msg("ScoringWorker started")

	batch := make([]model.ScorePayload, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.timeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, config.WorkerKey.PersistScoresQueue, pollTimeout)
			if err != nil {
				if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop error")
				}
				continue
			}

			var p model.ScorePayload
			if err := json.Unmarshal(raw, &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch write with per-row fallback
// ----------------------------------------------------------------

func (w *ScoringWorker) flushSafe(ctx context.Context, batch []model.ScorePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.BulkSaveScores(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("Bulk score update failed, using fallback")

		saved := make([]model.ScorePayload, 0, len(batch))
		for _, p := range batch {
			if err := w.store.SaveScore(ctx, p); err != nil {
				w.log.Error().Err(err).Str("submission_id", p.SubmissionID.String()).Msg("SaveScore failed, requeueing")
				if err := w.queue.Push(ctx, config.WorkerKey.PersistScoresQueue, p); err != nil {
					w.log.Error().Err(err).Str("submission_id", p.SubmissionID.String()).Msg("Requeue failed, result lost")
				}
				continue
			}
			saved = append(saved, p)
		}
		w.clearBuffers(ctx, saved)
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Score batch written")
	w.clearBuffers(ctx, batch)
}

// clearBuffers deletes autosave buffers of stored results in one pipeline.
func (w *ScoringWorker) clearBuffers(ctx context.Context, stored []model.ScorePayload) {
	ids := make([]string, 0, len(stored))
	for _, p := range stored {
		if !p.Rescore {
			ids = append(ids, p.SubmissionID.String())
		}
	}
	if err := w.buffers.ClearBuffers(ctx, ids...); err != nil {
		w.log.Warn().Err(err).Int("count", len(ids)).Msg("Failed to clear autosave buffers")
	}
}
