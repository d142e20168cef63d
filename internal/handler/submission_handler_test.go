package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSubmissionRouter(svc SubmissionService) *gin.Engine {
	h := NewSubmissionHandler(svc, zerolog.Nop())
	r := gin.New()
	r.POST("/tests/:test_id/submissions", h.StartSubmission)
	r.GET("/submissions/:submission_id", h.GetSubmission)
	r.PUT("/submissions/:submission_id/answers", h.SaveAnswers)
	r.POST("/submissions/:submission_id/submit", h.SubmitSubmission)
	r.GET("/submissions/:submission_id/result", h.GetResult)
	return r
}

func TestSubmissionHandler_StartSubmission(t *testing.T) {
	testID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockSubmissionService)
		svc.On("Start", mock.Anything, testID, model.StartSubmissionRequest{CandidateRef: "cand-7"}).
			Return(&model.Submission{ID: uuid.New(), TestID: testID, CandidateRef: "cand-7", Status: model.SubmissionStatusInProgress}, nil)

		w, env := perform(t, newSubmissionRouter(svc), http.MethodPost, "/tests/"+testID.String()+"/submissions", `{"candidate_ref":"cand-7"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, string(env.Data), `"status":"IN_PROGRESS"`)
	})

	t.Run("unknown test", func(t *testing.T) {
		svc := new(MockSubmissionService)
		svc.On("Start", mock.Anything, testID, mock.Anything).Return(nil, service.ErrTestNotFound)

		w, env := perform(t, newSubmissionRouter(svc), http.MethodPost, "/tests/"+testID.String()+"/submissions", `{"candidate_ref":"cand-7"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrTestNotFound, env.Error.Code)
	})

	t.Run("missing candidate", func(t *testing.T) {
		svc := new(MockSubmissionService)
		w, env := perform(t, newSubmissionRouter(svc), http.MethodPost, "/tests/"+testID.String()+"/submissions", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, env.Error.Fields, "candidate_ref")
	})
}

func TestSubmissionHandler_SaveAnswers(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"saved", `{"answers":{"1":"true","q2":["A","C"]}}`, nil, http.StatusOK, ""},
		{"empty answers", `{"answers":{}}`, nil, http.StatusBadRequest, response.ErrValidation},
		{"closed attempt", `{"answers":{"1":"a"}}`, service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
		{"bad key", `{"answers":{"a b":"x"}}`, service.ErrInvalidAnswers, http.StatusBadRequest, response.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSubmissionService)
			svc.On("Autosave", mock.Anything, id, mock.Anything).Return(tt.err).Maybe()

			w, env := perform(t, newSubmissionRouter(svc), http.MethodPut, "/submissions/"+id.String()+"/answers", tt.body)

			assert.Equal(t, tt.status, w.Code)
			if tt.code == "" {
				assert.JSONEq(t, `{"saved":2}`, string(env.Data))
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestSubmissionHandler_SubmitSubmission(t *testing.T) {
	id := uuid.New()

	t.Run("graded", func(t *testing.T) {
		svc := new(MockSubmissionService)
		svc.On("Submit", mock.Anything, id).Return(scoring.ScoreResult{CorrectCount: 30, TotalCount: 40, Percentage: 75, Band: 7}, nil)

		w, env := perform(t, newSubmissionRouter(svc), http.MethodPost, "/submissions/"+id.String()+"/submit", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Result scoring.ScoreResult `json:"result"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 7.0, data.Result.Band)
	})

	t.Run("second submit conflicts", func(t *testing.T) {
		svc := new(MockSubmissionService)
		svc.On("Submit", mock.Anything, id).Return(scoring.ScoreResult{}, service.ErrAlreadySubmitted)

		w, env := perform(t, newSubmissionRouter(svc), http.MethodPost, "/submissions/"+id.String()+"/submit", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, response.ErrAlreadySubmitted, env.Error.Code)
	})
}

func TestSubmissionHandler_GetResult(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		res    *scoring.ScoreResult
		err    error
		status int
		code   response.ErrCode
	}{
		{"scored", &scoring.ScoreResult{CorrectCount: 10, TotalCount: 40, Band: 3.5}, nil, http.StatusOK, ""},
		{"pending", nil, service.ErrResultPending, http.StatusAccepted, response.ErrResultPending},
		{"unscorable", &scoring.ScoreResult{Details: []scoring.Detail{}}, service.ErrNotScorable, http.StatusUnprocessableEntity, response.ErrNotScorable},
		{"missing", nil, service.ErrSubmissionNotFound, http.StatusNotFound, response.ErrSubmissionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSubmissionService)
			svc.On("Result", mock.Anything, id).Return(tt.res, tt.err)

			w, env := perform(t, newSubmissionRouter(svc), http.MethodGet, "/submissions/"+id.String()+"/result", nil)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
			}
			if tt.res != nil {
				assert.Contains(t, string(env.Data), `"result"`)
			}
		})
	}
}

func TestSubmissionHandler_GetSubmission(t *testing.T) {
	svc := new(MockSubmissionService)
	w, env := perform(t, newSubmissionRouter(svc), http.MethodGet, "/submissions/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)
	svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
