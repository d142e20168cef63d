package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	repo   *MockSubmissionStore
	tests  *MockDefinitionSource
	buffer *MockAnswerBuffer
	queue  *MockPublisher
	svc    *SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	f := &submissionFixture{
		repo:   new(MockSubmissionStore),
		tests:  new(MockDefinitionSource),
		buffer: new(MockAnswerBuffer),
		queue:  new(MockPublisher),
	}
	f.svc = NewSubmissionService(f.repo, f.tests, f.buffer, f.queue, scoring.New(), zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func mustTestDefinition(t *testing.T) scoring.TestDefinition {
	t.Helper()
	def, err := scoring.ParseTestDefinition([]byte(threeQuestionTest))
	require.NoError(t, err)
	return def
}

func TestSubmissionServiceStart(t *testing.T) {
	f := newSubmissionFixture(t)
	testID := uuid.New()

	f.tests.On("Definition", mock.Anything, testID).Return(mustTestDefinition(t), nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Submission) bool {
		return s.TestID == testID && s.CandidateRef == "cand-7"
	})).Return(nil)

	sub, err := f.svc.Start(context.Background(), testID, model.StartSubmissionRequest{CandidateRef: "cand-7"})

	require.NoError(t, err)
	assert.Equal(t, "cand-7", sub.CandidateRef)
	f.repo.AssertExpectations(t)
}

func TestSubmissionServiceStartUnknownTest(t *testing.T) {
	f := newSubmissionFixture(t)
	testID := uuid.New()
	f.tests.On("Definition", mock.Anything, testID).Return(nil, ErrTestNotFound)

	_, err := f.svc.Start(context.Background(), testID, model.StartSubmissionRequest{CandidateRef: "x"})

	assert.ErrorIs(t, err, ErrTestNotFound)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmissionServiceAutosave(t *testing.T) {
	f := newSubmissionFixture(t)
	sub := &model.Submission{ID: uuid.New(), TestID: uuid.New(), Status: model.SubmissionStatusInProgress}

	f.repo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	f.buffer.On("BufferAnswer", mock.Anything, sub.ID.String(), sub.TestID.String(), "q_1_0", []byte(`["a","b"]`)).Return(nil)
	f.queue.On("Push", mock.Anything, config.WorkerKey.PersistAnswersQueue, model.AnswerPayload{
		SubmissionID: sub.ID, Key: "q_1_0", Answer: []any{"a", "b"},
	}).Return(nil)

	err := f.svc.Autosave(context.Background(), sub.ID, map[string]any{"q_1_0": []any{"a", "b"}})

	require.NoError(t, err)
	f.buffer.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestSubmissionServiceAutosaveRejectsFinished(t *testing.T) {
	f := newSubmissionFixture(t)
	id := uuid.New()
	f.repo.On("GetByID", mock.Anything, id).Return(&model.Submission{ID: id, Status: model.SubmissionStatusScored}, nil)

	err := f.svc.Autosave(context.Background(), id, map[string]any{"q1": "a"})

	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	f.buffer.AssertNotCalled(t, "BufferAnswer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmissionServiceGetByIDNotFound(t *testing.T) {
	f := newSubmissionFixture(t)
	id := uuid.New()
	f.repo.On("GetByID", mock.Anything, id).Return(nil, pgx.ErrNoRows)

	_, err := f.svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServiceSubmitMergesBufferedAnswers(t *testing.T) {
	f := newSubmissionFixture(t)
	sub := &model.Submission{
		ID:      uuid.New(),
		TestID:  uuid.New(),
		Status:  model.SubmissionStatusInProgress,
		Answers: json.RawMessage(`{"q1": "a", "q2": "wrong"}`),
	}
	submittedAt := f.svc.now()

	f.repo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	f.tests.On("Definition", mock.Anything, sub.TestID).Return(mustTestDefinition(t), nil)
	f.buffer.On("BufferedAnswers", mock.Anything, sub.ID.String()).Return(map[string]string{"q2": `"b"`, "q3": "c"}, nil)
	f.repo.On("MarkSubmitted", mock.Anything, sub.ID, mock.MatchedBy(func(raw json.RawMessage) bool {
		var stored map[string]any
		return json.Unmarshal(raw, &stored) == nil && stored["q2"] == "b" && stored["q3"] == "c"
	}), submittedAt).Return(true, nil)
	f.queue.On("Push", mock.Anything, config.WorkerKey.PersistScoresQueue, mock.MatchedBy(func(p model.ScorePayload) bool {
		return p.SubmissionID == sub.ID && p.Result.CorrectCount == 3 && !p.Rescore && p.SubmittedAt.Equal(submittedAt)
	})).Return(nil)

	res, err := f.svc.Submit(context.Background(), sub.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, res.CorrectCount)
	assert.Equal(t, 3, res.TotalCount)
	f.repo.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestSubmissionServiceSubmitLosesRace(t *testing.T) {
	f := newSubmissionFixture(t)
	sub := &model.Submission{ID: uuid.New(), TestID: uuid.New(), Status: model.SubmissionStatusInProgress}

	f.repo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	f.tests.On("Definition", mock.Anything, sub.TestID).Return(mustTestDefinition(t), nil)
	f.buffer.On("BufferedAnswers", mock.Anything, sub.ID.String()).Return(nil, errors.New("redis down"))
	f.repo.On("MarkSubmitted", mock.Anything, sub.ID, mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.svc.Submit(context.Background(), sub.ID)

	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	f.queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmissionServiceResult(t *testing.T) {
	correct, total, pct, band := 2, 3, 66.67, 2.0
	tests := []struct {
		name    string
		sub     model.Submission
		wantErr error
		wantNil bool
	}{
		{"in progress", model.Submission{Status: model.SubmissionStatusInProgress}, ErrResultPending, true},
		{"submitted", model.Submission{Status: model.SubmissionStatusSubmitted}, ErrResultPending, true},
		{"scored", model.Submission{
			Status: model.SubmissionStatusScored, CorrectCount: &correct, TotalCount: &total,
			Percentage: &pct, Band: &band, Details: json.RawMessage(`[{"questionNumber": 1, "isCorrect": true}]`),
		}, nil, false},
		{"unscorable", model.Submission{Status: model.SubmissionStatusUnscorable, TotalCount: new(int)}, ErrNotScorable, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSubmissionFixture(t)
			sub := tc.sub
			sub.ID = uuid.New()
			f.repo.On("GetByID", mock.Anything, sub.ID).Return(&sub, nil)

			res, err := f.svc.Result(context.Background(), sub.ID)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, res.CorrectCount)
				assert.Len(t, res.Details, 1)
			}
			assert.Equal(t, tc.wantNil, res == nil)
		})
	}
}

func TestSubmissionServiceRescore(t *testing.T) {
	f := newSubmissionFixture(t)
	submittedAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	sub := &model.Submission{
		ID:          uuid.New(),
		TestID:      uuid.New(),
		Status:      model.SubmissionStatusScored,
		Answers:     json.RawMessage(`{"q1": "a", "q2": "b"}`),
		SubmittedAt: &submittedAt,
	}
	f.repo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	f.tests.On("Definition", mock.Anything, sub.TestID).Return(mustTestDefinition(t), nil)

	p, err := f.svc.Rescore(context.Background(), sub.ID)

	require.NoError(t, err)
	assert.True(t, p.Rescore)
	assert.Equal(t, 2, p.Result.CorrectCount)
	assert.Equal(t, submittedAt, p.SubmittedAt)
}

func TestSubmissionServiceRescoreSkipsOpenAttempt(t *testing.T) {
	f := newSubmissionFixture(t)
	id := uuid.New()
	f.repo.On("GetByID", mock.Anything, id).Return(&model.Submission{ID: id, Status: model.SubmissionStatusInProgress}, nil)

	_, err := f.svc.Rescore(context.Background(), id)

	assert.Error(t, err)
	f.tests.AssertNotCalled(t, "Definition", mock.Anything, mock.Anything)
}

func TestDecodeBuffered(t *testing.T) {
	bag := decodeBuffered(map[string]string{
		"q1": `"text"`,
		"q2": `["a","c"]`,
		"q3": "not json",
	})

	assert.Equal(t, scoring.AnswerBag{"q1": "text", "q2": []any{"a", "c"}, "q3": "not json"}, bag)
}

func TestSubmissionServiceSaveAnswerRejectsBadKeys(t *testing.T) {
	f := newSubmissionFixture(t)
	sub := &model.Submission{ID: uuid.New(), TestID: uuid.New()}

	for _, key := range []string{"", "q 1", "submission:*", string(make([]byte, 65))} {
		err := f.svc.SaveAnswer(context.Background(), sub, key, "a")
		assert.ErrorIs(t, err, ErrInvalidAnswers, key)
	}
	f.buffer.AssertNotCalled(t, "BufferAnswer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
