package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/queue"
	"github.com/stemsi/exstem-scoring/internal/service"
)

const maxRescoreAttempts = 3

// RescoreWorker consumes rescore_queue, scores each submission again and
// hands the result to the ScoringWorker flagged as a re-score.
type RescoreWorker struct {
	rescorer Rescorer
	queue    Queue
	log      zerolog.Logger
}

// NewRescoreWorker creates a new RescoreWorker.
func NewRescoreWorker(rescorer Rescorer, q Queue, log zerolog.Logger) *RescoreWorker {
	return &RescoreWorker{
		rescorer: rescorer,
		queue:    q,
		log:      log.With().Str("component", "rescore_worker").Logger(),
	}
}

// Start runs until ctx is cancelled. Unfinished jobs stay queued.
func (w *RescoreWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *RescoreWorker) processNext(ctx context.Context) {
	raw, err := w.queue.Pop(ctx, config.WorkerKey.RescoreQueue, pollTimeout)
	if err != nil {
		if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Queue pop error")
		}
		return
	}

	var job model.RescoreJob
	if err := json.Unmarshal(raw, &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	w.handle(ctx, job)
}

func (w *RescoreWorker) handle(ctx context.Context, job model.RescoreJob) {
	log := w.log.With().Str("submission_id", job.SubmissionID.String()).Logger()

	payload, err := w.rescorer.Rescore(ctx, job.SubmissionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) || errors.Is(err, service.ErrTestNotFound) {
			log.Warn().Err(err).Msg("Dropping re-score of missing submission")
			return
		}
		job.Attempts++
		if job.Attempts >= maxRescoreAttempts {
			log.Error().Err(err).Int("attempts", job.Attempts).Msg("Re-score failed, giving up")
			return
		}
		log.Warn().Err(err).Int("attempts", job.Attempts).Msg("Re-score failed, requeueing")
		if err := w.queue.Push(ctx, config.WorkerKey.RescoreQueue, job); err != nil {
			log.Error().Err(err).Msg("Requeue failed")
		}
		return
	}

	if err := w.queue.Push(ctx, config.WorkerKey.PersistScoresQueue, payload); err != nil {
		log.Error().Err(err).Msg("Failed to queue re-scored result")
		return
	}
	log.Debug().
		Int("correct", payload.Result.CorrectCount).
		Int("total", payload.Result.TotalCount).
		Msg("Submission re-scored")
}
