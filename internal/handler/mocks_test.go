package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// MockScoringService is a mock implementation of ScoringService
type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) Evaluate(req model.EvaluateRequest) (scoring.ScoreResult, error) {
	args := m.Called(req)
	return args.Get(0).(scoring.ScoreResult), args.Error(1)
}

func (m *MockScoringService) Band(correct int, variant string) model.BandResponse {
	args := m.Called(correct, variant)
	return args.Get(0).(model.BandResponse)
}

// MockTestService is a mock implementation of TestService
type MockTestService struct {
	mock.Mock
}

func (m *MockTestService) Create(ctx context.Context, req model.CreateTestRequest) (*model.Test, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*model.Test)
	return t, args.Error(1)
}

func (m *MockTestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Test)
	return t, args.Error(1)
}

func (m *MockTestService) Update(ctx context.Context, id uuid.UUID, req model.UpdateTestRequest) (*model.Test, error) {
	args := m.Called(ctx, id, req)
	t, _ := args.Get(0).(*model.Test)
	return t, args.Error(1)
}

func (m *MockTestService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTestService) List(ctx context.Context, q model.ListTestsQuery) ([]model.TestSummary, int64, error) {
	args := m.Called(ctx, q)
	list, _ := args.Get(0).([]model.TestSummary)
	return list, args.Get(1).(int64), args.Error(2)
}

// MockSubmissionService is a mock implementation of SubmissionService
type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Start(ctx context.Context, testID uuid.UUID, req model.StartSubmissionRequest) (*model.Submission, error) {
	args := m.Called(ctx, testID, req)
	s, _ := args.Get(0).(*model.Submission)
	return s, args.Error(1)
}

func (m *MockSubmissionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*model.Submission)
	return s, args.Error(1)
}

func (m *MockSubmissionService) Active(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*model.Submission)
	return s, args.Error(1)
}

func (m *MockSubmissionService) Autosave(ctx context.Context, id uuid.UUID, answers map[string]any) error {
	args := m.Called(ctx, id, answers)
	return args.Error(0)
}

func (m *MockSubmissionService) SaveAnswer(ctx context.Context, sub *model.Submission, key string, ans any) error {
	args := m.Called(ctx, sub, key, ans)
	return args.Error(0)
}

func (m *MockSubmissionService) Submit(ctx context.Context, id uuid.UUID) (scoring.ScoreResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(scoring.ScoreResult), args.Error(1)
}

func (m *MockSubmissionService) Result(ctx context.Context, id uuid.UUID) (*scoring.ScoreResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*scoring.ScoreResult)
	return r, args.Error(1)
}

// MockRescoreService is a mock implementation of RescoreService
type MockRescoreService struct {
	mock.Mock
}

func (m *MockRescoreService) Enqueue(ctx context.Context, testID uuid.UUID) (int, error) {
	args := m.Called(ctx, testID)
	return args.Int(0), args.Error(1)
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Write(ctx context.Context, testID uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, testID, w)
	if body, ok := args.Get(0).([]byte); ok {
		w.Write(body)
	}
	return args.Error(1)
}

// MockQueueInspector is a mock implementation of QueueInspector
type MockQueueInspector struct {
	mock.Mock
}

func (m *MockQueueInspector) Len(ctx context.Context, names ...string) (map[string]int64, error) {
	args := m.Called(ctx, names)
	depths, _ := args.Get(0).(map[string]int64)
	return depths, args.Error(1)
}

// envelope mirrors response.Response with a raw data field.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func perform(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
