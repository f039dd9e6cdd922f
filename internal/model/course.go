package model

import (
	"time"

	"github.com/google/uuid"
)

// Course is a top-level container of chapters.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter belongs to a course. ILOs (intended learning outcomes) are free text
// written by the professor and fed verbatim into generation prompts.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	ILOs      string    `json:"ilos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// CreateChapterRequest is the payload for adding a chapter to a course.
type CreateChapterRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=255"`
	Summary string `json:"summary" binding:"omitempty,max=5000"`
	ILOs    string `json:"ilos" binding:"omitempty,max=5000"`
}
