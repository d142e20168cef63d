package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stretchr/testify/mock"
)

const threeQuestionTest = `{
	"title": "Mock reading",
	"parts": [{"sections": [{"questions": [
		{"correctAnswer": "a"}, {"correctAnswer": "b"}, {"correctAnswer": "c"}
	]}]}]
}`

// MockTestStore is a mock implementation of TestStore
type MockTestStore struct {
	mock.Mock
}

func (m *MockTestStore) Create(ctx context.Context, t *model.Test, questionCount int) error {
	args := m.Called(ctx, t, questionCount)
	return args.Error(0)
}

func (m *MockTestStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Test)
	return t, args.Error(1)
}

func (m *MockTestStore) Update(ctx context.Context, t *model.Test, questionCount int) error {
	args := m.Called(ctx, t, questionCount)
	return args.Error(0)
}

func (m *MockTestStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTestStore) List(ctx context.Context, page, perPage int, variant string) ([]model.TestSummary, int64, error) {
	args := m.Called(ctx, page, perPage, variant)
	return args.Get(0).([]model.TestSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestStore) ListAll(ctx context.Context) ([]model.Test, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Test), args.Error(1)
}

// MockSubmissionStore is a mock implementation of SubmissionStore
type MockSubmissionStore struct {
	mock.Mock
}

func (m *MockSubmissionStore) Create(ctx context.Context, s *model.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubmissionStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*model.Submission)
	return s, args.Error(1)
}

func (m *MockSubmissionStore) MarkSubmitted(ctx context.Context, id uuid.UUID, answers json.RawMessage, at time.Time) (bool, error) {
	args := m.Called(ctx, id, answers, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionStore) ListFinishedIDs(ctx context.Context, testID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, testID, after, limit)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSubmissionStore) ListResults(ctx context.Context, testID uuid.UUID) ([]model.SubmissionResult, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).([]model.SubmissionResult), args.Error(1)
}

// MockDefinitionCache is a mock implementation of DefinitionCache
type MockDefinitionCache struct {
	mock.Mock
}

func (m *MockDefinitionCache) Definition(ctx context.Context, testID string) ([]byte, string, error) {
	args := m.Called(ctx, testID)
	raw, _ := args.Get(0).([]byte)
	return raw, args.String(1), args.Error(2)
}

func (m *MockDefinitionCache) SetDefinition(ctx context.Context, testID string, definition []byte, variant string) error {
	args := m.Called(ctx, testID, definition, variant)
	return args.Error(0)
}

func (m *MockDefinitionCache) DeleteDefinition(ctx context.Context, testID string) error {
	args := m.Called(ctx, testID)
	return args.Error(0)
}

// MockAnswerBuffer is a mock implementation of AnswerBuffer
type MockAnswerBuffer struct {
	mock.Mock
}

func (m *MockAnswerBuffer) BufferAnswer(ctx context.Context, submissionID, testID, key string, value []byte) error {
	args := m.Called(ctx, submissionID, testID, key, value)
	return args.Error(0)
}

func (m *MockAnswerBuffer) BufferedAnswers(ctx context.Context, submissionID string) (map[string]string, error) {
	args := m.Called(ctx, submissionID)
	answers, _ := args.Get(0).(map[string]string)
	return answers, args.Error(1)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Push(ctx context.Context, name string, v any) error {
	args := m.Called(ctx, name, v)
	return args.Error(0)
}

// MockDefinitionSource is a mock implementation of DefinitionSource
type MockDefinitionSource struct {
	mock.Mock
}

func (m *MockDefinitionSource) Definition(ctx context.Context, id uuid.UUID) (scoring.TestDefinition, error) {
	args := m.Called(ctx, id)
	def, _ := args.Get(0).(scoring.TestDefinition)
	return def, args.Error(1)
}
