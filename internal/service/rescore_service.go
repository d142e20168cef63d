package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
)

// RescoreService queues finished submissions to be scored again, for
// example after a correction to a test's answer key.
type RescoreService struct {
	repo     SubmissionStore
	tests    DefinitionSource
	queue    Publisher
	pageSize int
	log      zerolog.Logger
}

// NewRescoreService creates a new RescoreService.
func NewRescoreService(repo SubmissionStore, tests DefinitionSource, queue Publisher, pageSize int, log zerolog.Logger) *RescoreService {
	if pageSize < 1 {
		pageSize = 200
	}
	return &RescoreService{
		repo:     repo,
		tests:    tests,
		queue:    queue,
		pageSize: pageSize,
		log:      log.With().Str("component", "rescore_service").Logger(),
	}
}

// Enqueue pushes a RescoreJob for every finished submission of a test and
// returns how many were queued.
func (s *RescoreService) Enqueue(ctx context.Context, testID uuid.UUID) (int, error) {
	if _, err := s.tests.Definition(ctx, testID); err != nil {
		return 0, err
	}

	queued := 0
	after := uuid.Nil
	for {
		ids, err := s.repo.ListFinishedIDs(ctx, testID, after, s.pageSize)
		if err != nil {
			return queued, fmt.Errorf("list finished submissions: %w", err)
		}
		for _, id := range ids {
			job := model.RescoreJob{SubmissionID: id, TestID: testID}
			if err := s.queue.Push(ctx, config.WorkerKey.RescoreQueue, job); err != nil {
				return queued, fmt.Errorf("queue rescore: %w", err)
			}
			queued++
		}
		if len(ids) < s.pageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	s.log.Info().
		Str("test_id", testID.String()).
		Int("queued", queued).
		Msg("Re-score pass queued")
	return queued, nil
}
