package engine

import "errors"

// Engine errors. All are recoverable-by-caller conditions; storage failures
// from the persistence layer propagate unchanged and are not wrapped into
// these sentinels.
var (
	ErrNotFound              = errors.New("referenced entity not found")
	ErrDuplicateQuestion     = errors.New("question already present in draft")
	ErrInvalidOrdering       = errors.New("ordering does not match draft contents")
	ErrInvalidValue          = errors.New("invalid value")
	ErrEmptyExam             = errors.New("draft has no questions")
	ErrAlreadyFinalized      = errors.New("draft is already finalized")
	ErrPermission            = errors.New("role not allowed to author exams")
	ErrGenerationUnavailable = errors.New("question generation capability unavailable")
)
