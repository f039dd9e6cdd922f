package model

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus enumerates ExamDraft states. The transition is one-way:
// a finalized draft never becomes editable again.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusFinalized DraftStatus = "finalized"
)

// DraftItem is one entry in an exam draft: a question reference with its
// assigned point value. Type and difficulty are denormalized from the question
// at add time so totals can be computed without refetching the bank.
type DraftItem struct {
	QuestionID uuid.UUID    `json:"question_id"`
	Points     int          `json:"points"`
	Type       QuestionType `json:"type"`
	Difficulty int          `json:"difficulty"`
}

// ExamDraft is the mutable authoring state of an exam. Items are kept in
// presentation order; indices are dense 0..n-1 with no gaps. Version is the
// optimistic-concurrency counter checked by the persistence layer on save.
type ExamDraft struct {
	ID        uuid.UUID   `json:"id"`
	CourseID  uuid.UUID   `json:"course_id"`
	Title     string      `json:"title"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Status    DraftStatus `json:"status"`
	Items     []DraftItem `json:"items"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PointTotal sums the assigned point values of all items.
func (d *ExamDraft) PointTotal() int {
	total := 0
	for _, it := range d.Items {
		total += it.Points
	}
	return total
}

// ExamTotals is the snapshot frozen at finalization. It is computed exactly
// once and never recomputed, even if bank questions are edited afterwards.
type ExamTotals struct {
	PointTotal          int                  `json:"point_total"`
	QuestionCount       int                  `json:"question_count"`
	DifficultyHistogram map[int]int          `json:"difficulty_histogram"`
	TypeDistribution    map[QuestionType]int `json:"type_distribution"`
}

// Exam is the immutable committed form of a draft. Read-only everywhere
// outside the persistence layer.
type Exam struct {
	ID          uuid.UUID   `json:"id"`
	CourseID    uuid.UUID   `json:"course_id"`
	Title       string      `json:"title"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Items       []DraftItem `json:"items"`
	Totals      ExamTotals  `json:"totals"`
	FinalizedAt time.Time   `json:"finalized_at"`
}

// CreateDraftRequest is the payload for opening a new exam draft.
type CreateDraftRequest struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	Title    string    `json:"title" binding:"required,min=3,max=255"`
}

// AddQuestionRequest is the payload for adding a bank question to a draft.
type AddQuestionRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Points     int       `json:"points" binding:"omitempty,min=1"`
}

// SetPointsRequest is the payload for changing an item's point value.
type SetPointsRequest struct {
	Points int `json:"points" binding:"required"`
}

// ReorderRequest is the payload for reordering draft items. The id list must
// be exactly the set of questions currently in the draft.
type ReorderRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1"`
}

// AutoBuildRequest is the payload for the auto-build path. Counts are
// absolute; proportions must be converted by the caller before submission.
type AutoBuildRequest struct {
	Total            int            `json:"total" binding:"required,min=1,max=100"`
	ChapterIDs       []uuid.UUID    `json:"chapter_ids" binding:"omitempty"`
	TypeCounts       map[string]int `json:"type_counts" binding:"required"`
	DifficultyCounts map[string]int `json:"difficulty_counts" binding:"required"`
	Tags             []string       `json:"tags" binding:"omitempty"`
	ExcludeIDs       []uuid.UUID    `json:"exclude_ids" binding:"omitempty"`
	UseGeneration    bool           `json:"use_generation"`
}
