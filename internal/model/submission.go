package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

// SubmissionStatus enumerates submission states.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusSubmitted  SubmissionStatus = "SUBMITTED"
	SubmissionStatusScored     SubmissionStatus = "SCORED"
	// SubmissionStatusUnscorable marks a submission whose test produced no
	// scorable rows. It waits for manual review.
	SubmissionStatusUnscorable SubmissionStatus = "UNSCORABLE"
)

// Finished reports whether the attempt has ended.
func (s SubmissionStatus) Finished() bool {
	return s == SubmissionStatusSubmitted || s == SubmissionStatusScored || s == SubmissionStatusUnscorable
}

// Submission is one candidate's attempt at a test.
type Submission struct {
	ID           uuid.UUID        `json:"id"`
	TestID       uuid.UUID        `json:"test_id"`
	CandidateRef string           `json:"candidate_ref"`
	Status       SubmissionStatus `json:"status"`
	Answers      json.RawMessage  `json:"answers,omitempty"`
	CorrectCount *int             `json:"correct_count,omitempty"`
	TotalCount   *int             `json:"total_count,omitempty"`
	Percentage   *float64         `json:"percentage,omitempty"`
	Band         *float64         `json:"band,omitempty"`
	Details      json.RawMessage  `json:"details,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
	ScoredAt     *time.Time       `json:"scored_at,omitempty"`
}

// Result rebuilds the stored ScoreResult. It is nil until the submission
// has been scored.
func (s *Submission) Result() (*scoring.ScoreResult, error) {
	if s.TotalCount == nil {
		return nil, nil
	}
	res := &scoring.ScoreResult{
		TotalCount: *s.TotalCount,
		Details:    []scoring.Detail{},
	}
	if s.CorrectCount != nil {
		res.CorrectCount = *s.CorrectCount
	}
	if s.Percentage != nil {
		res.Percentage = *s.Percentage
	}
	if s.Band != nil {
		res.Band = *s.Band
	}
	if len(s.Details) > 0 {
		if err := json.Unmarshal(s.Details, &res.Details); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// StartSubmissionRequest is the payload for opening a submission.
type StartSubmissionRequest struct {
	CandidateRef string `json:"candidate_ref" binding:"required,min=1,max=128"`
}

// SaveAnswersRequest is the payload for an autosave over HTTP. Values may be
// strings, arrays or objects.
type SaveAnswersRequest struct {
	Answers map[string]any `json:"answers" binding:"required,min=1"`
}

// EvaluateRequest is the payload for stateless scoring. Test and Answers may
// be JSON objects or JSON-encoded strings.
type EvaluateRequest struct {
	Test    json.RawMessage `json:"test" binding:"required"`
	Answers json.RawMessage `json:"answers" binding:"required"`
	Variant string          `json:"variant" binding:"omitempty,variant"`
}

// BandQuery is the query for a band lookup.
type BandQuery struct {
	Correct *int   `form:"correct" binding:"required,min=0,max=40"`
	Variant string `form:"variant" binding:"omitempty,variant"`
}

// BandResponse is the answer to a band lookup.
type BandResponse struct {
	Correct int     `json:"correct"`
	Variant string  `json:"variant"`
	Band    float64 `json:"band"`
}

// ScorePayload is queued for the ScoringWorker. Rescore lifts the guard
// that protects finished attempts.
type ScorePayload struct {
	SubmissionID uuid.UUID           `json:"submission_id"`
	Result       scoring.ScoreResult `json:"result"`
	SubmittedAt  time.Time           `json:"submitted_at"`
	Rescore      bool                `json:"rescore,omitempty"`
}

// AnswerPayload is queued for the AutosaveWorker.
type AnswerPayload struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	Key          string    `json:"key"`
	Answer       any       `json:"answer"`
}

// RescoreJob is queued for the RescoreWorker. Attempts counts failed runs.
type RescoreJob struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	TestID       uuid.UUID `json:"test_id"`
	Attempts     int       `json:"attempts,omitempty"`
}

// SubmissionResult is one exported row.
type SubmissionResult struct {
	SubmissionID uuid.UUID        `json:"submission_id"`
	CandidateRef string           `json:"candidate_ref"`
	Status       SubmissionStatus `json:"status"`
	CorrectCount int              `json:"correct_count"`
	TotalCount   int              `json:"total_count"`
	Percentage   float64          `json:"percentage"`
	Band         float64          `json:"band"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
	Details      []scoring.Detail `json:"details"`
}

// QueueStats reports the depth of each work queue.
type QueueStats struct {
	Queues map[string]int64 `json:"queues"`
}
