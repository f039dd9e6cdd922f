package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/model"
)

// Composer is the exam draft state machine. It is the only component allowed
// to mutate an ExamDraft; once Finalize succeeds the resulting Exam belongs to
// the persistence layer and is read-only everywhere else.
type Composer struct {
	draft *model.ExamDraft
}

// NewComposer opens a fresh draft for the given owner. The role tag is
// re-checked here even though the HTTP layer already gates by role.
func NewComposer(role model.Role, ownerID, courseID uuid.UUID, title string) (*Composer, error) {
	if !role.CanAuthorExams() {
		return nil, ErrPermission
	}
	now := time.Now().UTC()
	return &Composer{draft: &model.ExamDraft{
		ID:        uuid.New(),
		CourseID:  courseID,
		Title:     title,
		OwnerID:   ownerID,
		Status:    model.DraftStatusDraft,
		Items:     []model.DraftItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}}, nil
}

// Resume wraps a previously persisted draft. Operations on a finalized draft
// fail with ErrAlreadyFinalized.
func Resume(role model.Role, draft *model.ExamDraft) (*Composer, error) {
	if !role.CanAuthorExams() {
		return nil, ErrPermission
	}
	return &Composer{draft: draft}, nil
}

// Draft exposes the underlying draft for persistence and display. Callers
// must not mutate it directly.
func (c *Composer) Draft() *model.ExamDraft {
	return c.draft
}

// AddQuestion appends a question at the end of the ordering with the given
// point value.
func (c *Composer) AddQuestion(q model.Question, points int) error {
	if err := c.editable(); err != nil {
		return err
	}
	if points <= 0 {
		return fmt.Errorf("%w: point value must be positive, got %d", ErrInvalidValue, points)
	}
	if c.indexOf(q.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.ID)
	}
	c.draft.Items = append(c.draft.Items, model.DraftItem{
		QuestionID: q.ID,
		Points:     points,
		Type:       q.Type,
		Difficulty: q.Difficulty,
	})
	c.touch()
	return nil
}

// RemoveQuestion deletes the item for id and compacts the ordering.
func (c *Composer) RemoveQuestion(id uuid.UUID) error {
	if err := c.editable(); err != nil {
		return err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: question %s not in draft", ErrNotFound, id)
	}
	c.draft.Items = append(c.draft.Items[:idx], c.draft.Items[idx+1:]...)
	c.touch()
	return nil
}

// Reorder replaces the ordering. The id list must be exactly the set of
// questions currently in the draft, each appearing once.
func (c *Composer) Reorder(ids []uuid.UUID) error {
	if err := c.editable(); err != nil {
		return err
	}
	if len(ids) != len(c.draft.Items) {
		return fmt.Errorf("%w: got %d ids, draft has %d items", ErrInvalidOrdering, len(ids), len(c.draft.Items))
	}
	byID := make(map[uuid.UUID]model.DraftItem, len(c.draft.Items))
	for _, it := range c.draft.Items {
		byID[it.QuestionID] = it
	}
	reordered := make([]model.DraftItem, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidOrdering, id)
		}
		seen[id] = struct{}{}
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: question %s not in draft", ErrInvalidOrdering, id)
		}
		reordered = append(reordered, item)
	}
	c.draft.Items = reordered
	c.touch()
	return nil
}

// SetPointValue changes the points assigned to an item.
func (c *Composer) SetPointValue(id uuid.UUID, points int) error {
	if err := c.editable(); err != nil {
		return err
	}
	if points <= 0 {
		return fmt.Errorf("%w: point value must be positive, got %d", ErrInvalidValue, points)
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: question %s not in draft", ErrNotFound, id)
	}
	c.draft.Items[idx].Points = points
	c.touch()
	return nil
}

// Finalize commits the draft. Totals are computed here exactly once and
// frozen into the exam; later edits to bank questions never touch them.
// A second call always fails with ErrAlreadyFinalized.
func (c *Composer) Finalize() (*model.Exam, error) {
	if c.draft.Status == model.DraftStatusFinalized {
		return nil, ErrAlreadyFinalized
	}
	if len(c.draft.Items) == 0 {
		return nil, ErrEmptyExam
	}

	totals := model.ExamTotals{
		QuestionCount:       len(c.draft.Items),
		DifficultyHistogram: make(map[int]int),
		TypeDistribution:    make(map[model.QuestionType]int),
	}
	items := make([]model.DraftItem, len(c.draft.Items))
	copy(items, c.draft.Items)
	for _, it := range items {
		totals.PointTotal += it.Points
		totals.DifficultyHistogram[it.Difficulty]++
		totals.TypeDistribution[it.Type]++
	}

	c.draft.Status = model.DraftStatusFinalized
	c.touch()

	return &model.Exam{
		ID:          c.draft.ID,
		CourseID:    c.draft.CourseID,
		Title:       c.draft.Title,
		OwnerID:     c.draft.OwnerID,
		Items:       items,
		Totals:      totals,
		FinalizedAt: c.draft.UpdatedAt,
	}, nil
}

func (c *Composer) editable() error {
	if c.draft.Status == model.DraftStatusFinalized {
		return ErrAlreadyFinalized
	}
	return nil
}

func (c *Composer) indexOf(id uuid.UUID) int {
	for i, it := range c.draft.Items {
		if it.QuestionID == id {
			return i
		}
	}
	return -1
}

func (c *Composer) touch() {
	c.draft.UpdatedAt = time.Now().UTC()
}
