package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/response"
)

// SystemHandler reports worker queue state.
type SystemHandler struct {
	queues QueueInspector
	log    zerolog.Logger
}

func NewSystemHandler(queues QueueInspector, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		queues: queues,
		log:    log.With().Str("component", "system_handler").Logger(),
	}
}

// QueueDepths godoc
// GET /api/v1/system/queues
func (h *SystemHandler) QueueDepths(c *gin.Context) {
	depths, err := h.queues.Len(c.Request.Context(), config.WorkerKey.Queues()...)
	if err != nil {
		h.log.Error().Err(err).Msg("Queue depth lookup failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.QueueStats{Queues: depths})
}
