package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Test is a stored test definition.
type Test struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Variant    string          `json:"variant"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TestSummary is a test without its definition, used in listings.
type TestSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Variant         string    `json:"variant"`
	QuestionCount   int       `json:"question_count"`
	SubmissionCount int       `json:"submission_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateTestRequest is the payload for storing a new test.
type CreateTestRequest struct {
	Title      string          `json:"title" binding:"required,min=3,max=255"`
	Variant    string          `json:"variant" binding:"omitempty,variant"`
	Definition json.RawMessage `json:"definition" binding:"required"`
}

// UpdateTestRequest is the payload for updating an existing test.
type UpdateTestRequest struct {
	Title      string          `json:"title" binding:"omitempty,min=3,max=255"`
	Variant    string          `json:"variant" binding:"omitempty,variant"`
	Definition json.RawMessage `json:"definition" binding:"omitempty"`
}

// ListTestsQuery holds pagination parameters for listing tests.
type ListTestsQuery struct {
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	Variant string `form:"variant" binding:"omitempty,variant"`
}
