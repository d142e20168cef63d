package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/service"
	ws "github.com/stemsi/exstem-scoring/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles WebSocket submission streaming.
type WSHandler struct {
	submissionService SubmissionService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(submissionService SubmissionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// SubmissionStream godoc
// WS /ws/v1/submissions/:submission_id/stream
// Upgrades to WebSocket for per-answer autosave and instant scoring.
func (h *WSHandler) SubmissionStream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	ctx := c.Request.Context()
	sub, err := h.submissionService.Active(ctx, id)
	if err != nil {
		ws.WriteError(conn, streamErrorMessage(err))
		return
	}

	wsLog := h.log.With().
		Str("submission_id", id.String()).
		Str("test_id", sub.TestID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	for {
		action, raw, err := ws.ReadMessage(conn)
		if errors.Is(err, ws.ErrMalformed) {
			ws.WriteError(conn, "malformed message")
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch action {
		case ws.ActionAutosave:
			h.handleAutosave(ctx, conn, wsLog, sub, raw)
		case ws.ActionSubmit:
			if h.handleSubmit(ctx, conn, wsLog, sub) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(action))
		}
	}
}

// handleAutosave buffers a single answer and queues it for persistence.
func (h *WSHandler) handleAutosave(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, sub *model.Submission, raw []byte) {
	var msg ws.AutosaveRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "malformed message")
		return
	}
	if msg.Key == "" || len(msg.Answer) == 0 {
		ws.WriteError(conn, "key and ans are required")
		return
	}

	var ans any
	if err := json.Unmarshal(msg.Answer, &ans); err != nil {
		ws.WriteError(conn, "malformed answer")
		return
	}

	if err := h.submissionService.SaveAnswer(ctx, sub, msg.Key, ans); err != nil {
		if !errors.Is(err, service.ErrInvalidAnswers) {
			wsLog.Error().Err(err).Str("key", msg.Key).Msg("Autosave failed")
		}
		ws.WriteError(conn, streamErrorMessage(err))
		return
	}

	ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved", Key: msg.Key})
}

// handleSubmit scores the attempt and reports the result. It returns true
// when the stream should close.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, sub *model.Submission) bool {
	res, err := h.submissionService.Submit(ctx, sub.ID)
	if err != nil {
		if !errors.Is(err, service.ErrAlreadySubmitted) {
			wsLog.Error().Err(err).Msg("Submit failed")
		}
		ws.WriteError(conn, streamErrorMessage(err))
		return errors.Is(err, service.ErrAlreadySubmitted)
	}

	wsLog.Info().
		Int("correct", res.CorrectCount).
		Int("total", res.TotalCount).
		Float64("band", res.Band).
		Msg("Submission graded")

	ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, Status: "completed", Result: res})
	return true
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return "submission not found"
	case errors.Is(err, service.ErrAlreadySubmitted):
		return "submission already submitted"
	case errors.Is(err, service.ErrTestNotFound):
		return "test not found"
	case errors.Is(err, service.ErrInvalidAnswers):
		return "invalid answer"
	default:
		return "internal error"
	}
}
