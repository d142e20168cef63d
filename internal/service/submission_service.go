package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

// answerKey bounds the hash fields a client may write.
var answerKey = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)

// DefinitionSource resolves the scoring definition of a stored test.
type DefinitionSource interface {
	Definition(ctx context.Context, id uuid.UUID) (scoring.TestDefinition, error)
}

// SubmissionService handles the lifecycle of a candidate's attempt.
type SubmissionService struct {
	repo   SubmissionStore
	tests  DefinitionSource
	buffer AnswerBuffer
	queue  Publisher
	engine *scoring.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	repo SubmissionStore,
	tests DefinitionSource,
	buffer AnswerBuffer,
	queue Publisher,
	engine *scoring.Engine,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		repo:   repo,
		tests:  tests,
		buffer: buffer,
		queue:  queue,
		engine: engine,
		log:    log.With().Str("component", "submission_service").Logger(),
		now:    time.Now,
	}
}

// Start opens a new attempt at a test.
func (s *SubmissionService) Start(ctx context.Context, testID uuid.UUID, req model.StartSubmissionRequest) (*model.Submission, error) {
	if _, err := s.tests.Definition(ctx, testID); err != nil {
		return nil, err
	}

	sub := &model.Submission{TestID: testID, CandidateRef: req.CandidateRef}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

// GetByID returns a stored submission.
func (s *SubmissionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// Active returns a submission that still accepts answers.
func (s *SubmissionService) Active(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.Finished() {
		return nil, ErrAlreadySubmitted
	}
	return sub, nil
}

// Autosave buffers a set of answers for an open submission.
func (s *SubmissionService) Autosave(ctx context.Context, id uuid.UUID, answers map[string]any) error {
	sub, err := s.Active(ctx, id)
	if err != nil {
		return err
	}
	for key, ans := range answers {
		if err := s.SaveAnswer(ctx, sub, key, ans); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnswer buffers one answer in Redis and queues it for the database.
// The caller has already checked the submission is open.
func (s *SubmissionService) SaveAnswer(ctx context.Context, sub *model.Submission, key string, ans any) error {
	if !answerKey.MatchString(key) {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidAnswers, key)
	}
	raw, err := json.Marshal(ans)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if err := s.buffer.BufferAnswer(ctx, sub.ID.String(), sub.TestID.String(), key, raw); err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}

	payload := model.AnswerPayload{SubmissionID: sub.ID, Key: key, Answer: ans}
	if err := s.queue.Push(ctx, config.WorkerKey.PersistAnswersQueue, payload); err != nil {
		return fmt.Errorf("queue answer: %w", err)
	}
	return nil
}

// Submit closes the attempt and scores it in memory. Buffered answers win
// over persisted ones. The result is returned immediately while the
// ScoringWorker persists it.
func (s *SubmissionService) Submit(ctx context.Context, id uuid.UUID) (scoring.ScoreResult, error) {
	sub, err := s.Active(ctx, id)
	if err != nil {
		return scoring.ScoreResult{}, err
	}

	def, err := s.tests.Definition(ctx, sub.TestID)
	if err != nil {
		return scoring.ScoreResult{}, err
	}

	bag, err := s.collectAnswers(ctx, sub)
	if err != nil {
		return scoring.ScoreResult{}, err
	}
	raw, err := json.Marshal(bag)
	if err != nil {
		return scoring.ScoreResult{}, fmt.Errorf("encode answers: %w", err)
	}

	submittedAt := s.now()
	ok, err := s.repo.MarkSubmitted(ctx, id, raw, submittedAt)
	if err != nil {
		return scoring.ScoreResult{}, fmt.Errorf("mark submitted: %w", err)
	}
	if !ok {
		return scoring.ScoreResult{}, ErrAlreadySubmitted
	}

	res := s.engine.Score(def, bag)
	if !res.Scorable() {
		s.log.Warn().
			Str("submission_id", id.String()).
			Str("test_id", sub.TestID.String()).
			Msg("Submission has no scorable questions, flagging for review")
	}

	payload := model.ScorePayload{SubmissionID: id, Result: res, SubmittedAt: submittedAt}
	if err := s.queue.Push(ctx, config.WorkerKey.PersistScoresQueue, payload); err != nil {
		return scoring.ScoreResult{}, fmt.Errorf("queue score: %w", err)
	}
	return res, nil
}

// Result returns the persisted result of a submission. An unscorable
// submission returns its empty result together with ErrNotScorable.
func (s *SubmissionService) Result(ctx context.Context, id uuid.UUID) (*scoring.ScoreResult, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch sub.Status {
	case model.SubmissionStatusScored, model.SubmissionStatusUnscorable:
	default:
		return nil, ErrResultPending
	}

	res, err := sub.Result()
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if res == nil {
		return nil, ErrResultPending
	}
	if sub.Status == model.SubmissionStatusUnscorable {
		return res, ErrNotScorable
	}
	return res, nil
}

// Rescore scores the stored answers of a finished submission again.
func (s *SubmissionService) Rescore(ctx context.Context, id uuid.UUID) (model.ScorePayload, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return model.ScorePayload{}, err
	}
	if !sub.Status.Finished() {
		return model.ScorePayload{}, fmt.Errorf("rescore %s: submission still in progress", id)
	}

	def, err := s.tests.Definition(ctx, sub.TestID)
	if err != nil {
		return model.ScorePayload{}, err
	}
	bag, err := storedAnswers(sub)
	if err != nil {
		return model.ScorePayload{}, err
	}

	submittedAt := s.now()
	if sub.SubmittedAt != nil {
		submittedAt = *sub.SubmittedAt
	}
	return model.ScorePayload{
		SubmissionID: id,
		Result:       s.engine.Score(def, bag),
		SubmittedAt:  submittedAt,
		Rescore:      true,
	}, nil
}

// collectAnswers merges persisted answers with the Redis buffer.
func (s *SubmissionService) collectAnswers(ctx context.Context, sub *model.Submission) (scoring.AnswerBag, error) {
	persisted, err := storedAnswers(sub)
	if err != nil {
		return nil, err
	}

	buffered, err := s.buffer.BufferedAnswers(ctx, sub.ID.String())
	if err != nil {
		s.log.Warn().Err(err).Str("submission_id", sub.ID.String()).Msg("Answer buffer unavailable, using persisted answers")
		return persisted, nil
	}
	return persisted.Merge(decodeBuffered(buffered)), nil
}

func storedAnswers(sub *model.Submission) (scoring.AnswerBag, error) {
	if len(sub.Answers) == 0 {
		return scoring.AnswerBag{}, nil
	}
	bag, err := scoring.ParseAnswerBag(sub.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	return bag, nil
}

// decodeBuffered turns JSON-encoded hash values back into answers. Values
// that are not JSON are kept as plain strings.
func decodeBuffered(m map[string]string) scoring.AnswerBag {
	bag := make(scoring.AnswerBag, len(m))
	for k, v := range m {
		var ans any
		if err := json.Unmarshal([]byte(v), &ans); err != nil {
			ans = v
		}
		bag[k] = ans
	}
	return bag
}
