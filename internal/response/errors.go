package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Scoring ───────────────────────────────────────────────────────
	ErrTestNotFound       ErrCode = "TEST_NOT_FOUND"
	ErrSubmissionNotFound ErrCode = "SUBMISSION_NOT_FOUND"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrInvalidDefinition  ErrCode = "INVALID_DEFINITION"
	ErrNotScorable        ErrCode = "NOT_SCORABLE"
	ErrResultPending      ErrCode = "RESULT_PENDING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Scoring ───────────────────────────────────────────────────────
	case ErrTestNotFound:
		return "Test not found."
	case ErrSubmissionNotFound:
		return "Submission not found."
	case ErrAlreadySubmitted:
		return "This submission has already been submitted."
	case ErrInvalidDefinition:
		return "The test definition has no scorable questions."
	case ErrNotScorable:
		return "The submission could not be scored and was flagged for manual review."
	case ErrResultPending:
		return "The result is not available yet."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
