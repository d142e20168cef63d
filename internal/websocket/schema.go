package websocket

import (
	"encoding/json"

	"github.com/stemsi/exstem-scoring/internal/scoring"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save a single answer. Ans may be
// any JSON value: a string, an array of picks or an object of sub-answers.
type AutosaveRequest struct {
	Action Action          `json:"action"`
	Key    string          `json:"key"`
	Answer json.RawMessage `json:"ans"`
}

// SubmitRequest is sent by the client to finish and score the submission.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	Key    string `json:"key"`
}

type GradedResponse struct {
	Event  Event               `json:"event"`
	Status string              `json:"status"`
	Result scoring.ScoreResult `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
