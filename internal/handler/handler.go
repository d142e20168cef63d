// Package handler holds the gin handlers of the scoring API.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/service"
)

// ScoringService is the stateless scoring surface.
type ScoringService interface {
	Evaluate(req model.EvaluateRequest) (scoring.ScoreResult, error)
	Band(correct int, variant string) model.BandResponse
}

// TestService manages stored tests.
type TestService interface {
	Create(ctx context.Context, req model.CreateTestRequest) (*model.Test, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateTestRequest) (*model.Test, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q model.ListTestsQuery) ([]model.TestSummary, int64, error)
}

// SubmissionService manages candidate attempts.
type SubmissionService interface {
	Start(ctx context.Context, testID uuid.UUID, req model.StartSubmissionRequest) (*model.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	Active(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	Autosave(ctx context.Context, id uuid.UUID, answers map[string]any) error
	SaveAnswer(ctx context.Context, sub *model.Submission, key string, ans any) error
	Submit(ctx context.Context, id uuid.UUID) (scoring.ScoreResult, error)
	Result(ctx context.Context, id uuid.UUID) (*scoring.ScoreResult, error)
}

// RescoreService queues re-score passes.
type RescoreService interface {
	Enqueue(ctx context.Context, testID uuid.UUID) (int, error)
}

// ExportService renders result workbooks.
type ExportService interface {
	Write(ctx context.Context, testID uuid.UUID, w io.Writer) error
}

// QueueInspector reports work queue depths.
type QueueInspector interface {
	Len(ctx context.Context, names ...string) (map[string]int64, error)
}

// failWithServiceError maps a service error onto the response envelope.
// Unknown errors are logged and reported as internal.
func failWithServiceError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSubmissionNotFound)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrInvalidDefinition):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidDefinition)
	case errors.Is(err, service.ErrInvalidAnswers):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrResultPending):
		response.Fail(c, http.StatusAccepted, response.ErrResultPending)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramID parses a uuid path parameter, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
