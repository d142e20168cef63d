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

// AutosaveWorker consumes persist_answers_queue and merges answers into the
// submission row.
type AutosaveWorker struct {
	store      AnswerStore
	queue      Queue
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(store AnswerStore, q Queue, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		store:      store,
		queue:      q,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	raw, err := w.queue.Pop(ctx, config.WorkerKey.PersistAnswersQueue, pollTimeout)
	if err != nil {
		if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Queue pop error")
		}
		return
	}

	var payload model.AnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAnswer(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("submission_id", payload.SubmissionID.String()).
			Str("key", payload.Key).
			Dur("retry_in", w.retryDelay).
			Msg("Persist error, requeueing")
		if err := w.queue.PushRaw(ctx, config.WorkerKey.PersistAnswersQueue, raw); err != nil {
			w.log.Error().Err(err).Msg("Requeue failed, answer kept only in buffer")
		}
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *AutosaveWorker) persistAnswer(ctx context.Context, p *model.AnswerPayload) error {
	value, err := json.Marshal(p.Answer)
	if err != nil {
		return err
	}
	return w.store.MergeAnswer(ctx, p.SubmissionID, p.Key, value)
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.queue.TryPop(ctx, config.WorkerKey.PersistAnswersQueue)
		if err != nil {
			break
		}

		var payload model.AnswerPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAnswer(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			_ = w.queue.PushRaw(ctx, config.WorkerKey.PersistAnswersQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
