package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/validator"
)

// ScoringHandler serves stateless scoring endpoints.
type ScoringHandler struct {
	scoringService ScoringService
	log            zerolog.Logger
}

// NewScoringHandler creates a new ScoringHandler.
func NewScoringHandler(scoringService ScoringService, log zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		scoringService: scoringService,
		log:            log.With().Str("component", "scoring_handler").Logger(),
	}
}

// Evaluate godoc
// POST /api/v1/scoring/evaluate
// Scores answers against a test supplied in the request.
func (h *ScoringHandler) Evaluate(c *gin.Context) {
	var req model.EvaluateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.scoringService.Evaluate(req)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Band godoc
// GET /api/v1/scoring/band?correct=&variant=
func (h *ScoringHandler) Band(c *gin.Context) {
	var q model.BandQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	response.Success(c, http.StatusOK, h.scoringService.Band(*q.Correct, q.Variant))
}
