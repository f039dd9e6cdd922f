package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrNotDraftOwner    ErrCode = "NOT_DRAFT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidValue   ErrCode = "INVALID_VALUE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam assembly ─────────────────────────────────────────────────
	ErrDuplicateQuestion     ErrCode = "DUPLICATE_QUESTION"
	ErrInvalidOrdering       ErrCode = "INVALID_ORDERING"
	ErrEmptyExam             ErrCode = "EMPTY_EXAM"
	ErrAlreadyFinalized      ErrCode = "ALREADY_FINALIZED"
	ErrGenerationUnavailable ErrCode = "GENERATION_UNAVAILABLE"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired. Please log in again."
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Your role does not permit this action."
	case ErrNotDraftOwner:
		return "Only the draft owner may edit this exam draft."
	case ErrValidation:
		return "One or more fields failed validation."
	case ErrInvalidID:
		return "The identifier in the URL is not valid."
	case ErrInvalidPayload:
		return "The request body could not be parsed."
	case ErrInvalidValue:
		return "A supplied value is out of range."
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource was modified by someone else. Reload and retry."
	case ErrDuplicateQuestion:
		return "This question is already part of the exam draft."
	case ErrInvalidOrdering:
		return "The ordering must contain exactly the questions currently in the draft."
	case ErrEmptyExam:
		return "An exam must contain at least one question before it can be finalized."
	case ErrAlreadyFinalized:
		return "This exam has already been finalized and can no longer be edited."
	case ErrGenerationUnavailable:
		return "The question generation service is currently unavailable."
	case ErrInternal:
		return "An internal error occurred. Please try again later."
	default:
		return "Unknown error."
	}
}
