package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
	"github.com/stemsi/exstem-scoring/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TestHandler handles test definition endpoints.
type TestHandler struct {
	testService    TestService
	rescoreService RescoreService
	exportService  ExportService
	log            zerolog.Logger
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService TestService, rescoreService RescoreService, exportService ExportService, log zerolog.Logger) *TestHandler {
	return &TestHandler{
		testService:    testService,
		rescoreService: rescoreService,
		exportService:  exportService,
		log:            log.With().Str("component", "test_handler").Logger(),
	}
}

// ListTests godoc
// GET /api/v1/tests
func (h *TestHandler) ListTests(c *gin.Context) {
	q := model.ListTestsQuery{Page: 1, PerPage: 20}
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tests, total, err := h.testService.List(c.Request.Context(), q)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}
	if tests == nil {
		tests = []model.TestSummary{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tests": tests}, response.NewPagination(q.Page, q.PerPage, total))
}

// CreateTest godoc
// POST /api/v1/tests
// Stores a test after checking that it has scorable questions.
func (h *TestHandler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	t, err := h.testService.Create(c.Request.Context(), req)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": t})
}

// GetTest godoc
// GET /api/v1/tests/:test_id
func (h *TestHandler) GetTest(c *gin.Context) {
	id, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	t, err := h.testService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// UpdateTest godoc
// PUT /api/v1/tests/:test_id
func (h *TestHandler) UpdateTest(c *gin.Context) {
	id, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	t, err := h.testService.Update(c.Request.Context(), id, req)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// DeleteTest godoc
// DELETE /api/v1/tests/:test_id
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	if err := h.testService.Delete(c.Request.Context(), id); err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// RescoreTest godoc
// POST /api/v1/tests/:test_id/rescore
// Queues every finished submission of the test to be scored again.
func (h *TestHandler) RescoreTest(c *gin.Context) {
	id, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	queued, err := h.rescoreService.Enqueue(c.Request.Context(), id)
	if err != nil {
		failWithServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": queued})
}

// ExportResults godoc
// GET /api/v1/tests/:test_id/results/export
// Streams an xlsx workbook with one Results row per submission and one
// Details row per scored sub-question.
func (h *TestHandler) ExportResults(c *gin.Context) {
	id, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, id))
	if err := h.exportService.Write(c.Request.Context(), id, c.Writer); err != nil {
		if c.Writer.Written() {
			h.log.Error().Err(err).Str("test_id", id.String()).Msg("Export aborted mid-stream")
			return
		}
		c.Header("Content-Type", "")
		c.Header("Content-Disposition", "")
		failWithServiceError(c, h.log, err)
	}
}
