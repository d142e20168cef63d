package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/service"
	"github.com/stemsi/exstem-scoring/internal/validator"
)

// SubmissionHandler handles the candidate attempt lifecycle over HTTP.
type SubmissionHandler struct {
	submissionService SubmissionService
	log               zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService SubmissionService, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "submission_handler").Logger(),
	}
}

// StartSubmission godoc
// POST /api/v1/tests/:test_id/submissions
// Opens a new attempt for a candidate.
func (h *SubmissionHandler) StartSubmission(c *gin.Context) {
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.StartSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissionService.Start(c.Request.Context(), testID, req)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"submission": sub})
}

// GetSubmission godoc
// GET /api/v1/submissions/:submission_id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, ok := paramID(c, "submission_id")
	if !ok {
		return
	}

	sub, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// SaveAnswers godoc
// PUT /api/v1/submissions/:submission_id/answers
// Buffers answers for an open attempt. The database write is asynchronous.
func (h *SubmissionHandler) SaveAnswers(c *gin.Context) {
	id, ok := paramID(c, "submission_id")
	if !ok {
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.submissionService.Autosave(c.Request.Context(), id, req.Answers); err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": len(req.Answers)})
}

// SubmitSubmission godoc
// POST /api/v1/submissions/:submission_id/submit
// Closes the attempt and returns its score.
func (h *SubmissionHandler) SubmitSubmission(c *gin.Context) {
	id, ok := paramID(c, "submission_id")
	if !ok {
		return
	}

	res, err := h.submissionService.Submit(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// GetResult godoc
// GET /api/v1/submissions/:submission_id/result
// Unscorable attempts answer 422 with the empty result attached.
func (h *SubmissionHandler) GetResult(c *gin.Context) {
	id, ok := paramID(c, "submission_id")
	if !ok {
		return
	}

	res, err := h.submissionService.Result(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotScorable) {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrNotScorable, gin.H{"result": res})
		return
	}
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}
