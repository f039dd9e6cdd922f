package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// QuestionTypes lists all known types in canonical order. Bucket iteration and
// apportionment tie-breaks follow this order, so it must stay stable.
var QuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
	QuestionTypeEssay,
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Difficulty bounds for questions. The scale is inclusive on both ends.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Question is a single bank question. Once referenced by a finalized exam the
// exam keeps its own snapshot, so later edits never rewrite committed exams.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	CourseID      uuid.UUID    `json:"course_id"`
	ChapterID     uuid.UUID    `json:"chapter_id"`
	Content       string       `json:"content"`
	Type          QuestionType `json:"type"`
	Difficulty    int          `json:"difficulty"`
	DefaultPoints int          `json:"default_points"`
	Tags          []string     `json:"tags"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	CreatedBy     uuid.UUID    `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	ChapterID     uuid.UUID `json:"chapter_id" binding:"required"`
	Content       string    `json:"content" binding:"required,min=1,max=5000"`
	Type          string    `json:"type" binding:"required,oneof=multiple_choice true_false short_answer essay"`
	Difficulty    int       `json:"difficulty" binding:"required,min=1,max=5"`
	DefaultPoints int       `json:"default_points" binding:"omitempty,min=1"`
	Tags          []string  `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	Options       []string  `json:"options" binding:"omitempty,dive,min=1"`
	CorrectAnswer string    `json:"correct_answer" binding:"omitempty,max=5000"`
	Explanation   string    `json:"explanation" binding:"omitempty,max=5000"`
}
