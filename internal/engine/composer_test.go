package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/model"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(model.RoleProfessor, qid(1), qid(2), "Midterm")
	require.NoError(t, err)
	return c
}

func TestNewComposerRequiresAuthorRole(t *testing.T) {
	_, err := NewComposer(model.RoleStudent, qid(1), qid(2), "Midterm")
	assert.ErrorIs(t, err, ErrPermission)

	_, err = Resume(model.RoleStudent, &model.ExamDraft{})
	assert.ErrorIs(t, err, ErrPermission)

	for _, role := range []model.Role{model.RoleProfessor, model.RoleAdmin} {
		_, err := NewComposer(role, qid(1), qid(2), "Midterm")
		assert.NoError(t, err, "role %s", role)
	}
}

func TestComposerAddQuestion(t *testing.T) {
	c := newTestComposer(t)
	q := bankQuestion(10, qid(2), model.QuestionTypeMultipleChoice, 2)

	require.NoError(t, c.AddQuestion(q, 5))
	require.Len(t, c.Draft().Items, 1)
	assert.Equal(t, q.ID, c.Draft().Items[0].QuestionID)
	assert.Equal(t, 5, c.Draft().Items[0].Points)
	assert.Equal(t, q.Type, c.Draft().Items[0].Type)
	assert.Equal(t, q.Difficulty, c.Draft().Items[0].Difficulty)

	err := c.AddQuestion(q, 3)
	assert.ErrorIs(t, err, ErrDuplicateQuestion)
	assert.Len(t, c.Draft().Items, 1)

	err = c.AddQuestion(bankQuestion(11, qid(2), model.QuestionTypeEssay, 3), 0)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestComposerRemoveQuestion(t *testing.T) {
	c := newTestComposer(t)
	a := bankQuestion(10, qid(2), model.QuestionTypeMultipleChoice, 1)
	b := bankQuestion(11, qid(2), model.QuestionTypeMultipleChoice, 1)
	d := bankQuestion(12, qid(2), model.QuestionTypeMultipleChoice, 1)
	require.NoError(t, c.AddQuestion(a, 1))
	require.NoError(t, c.AddQuestion(b, 1))
	require.NoError(t, c.AddQuestion(d, 1))

	require.NoError(t, c.RemoveQuestion(b.ID))

	// Ordering compacts around the removed item.
	require.Len(t, c.Draft().Items, 2)
	assert.Equal(t, a.ID, c.Draft().Items[0].QuestionID)
	assert.Equal(t, d.ID, c.Draft().Items[1].QuestionID)

	err := c.RemoveQuestion(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Reordering [A, B] to [B, A] keeps each item's point value attached to its
// question; a partial id list is rejected and leaves the draft untouched.
func TestComposerReorder(t *testing.T) {
	c := newTestComposer(t)
	a := bankQuestion(10, qid(2), model.QuestionTypeMultipleChoice, 1)
	b := bankQuestion(11, qid(2), model.QuestionTypeEssay, 3)
	require.NoError(t, c.AddQuestion(a, 2))
	require.NoError(t, c.AddQuestion(b, 5))

	require.NoError(t, c.Reorder([]uuid.UUID{b.ID, a.ID}))

	items := c.Draft().Items
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].QuestionID)
	assert.Equal(t, 5, items[0].Points)
	assert.Equal(t, a.ID, items[1].QuestionID)
	assert.Equal(t, 2, items[1].Points)

	err := c.Reorder([]uuid.UUID{a.ID})
	assert.ErrorIs(t, err, ErrInvalidOrdering)
	assert.Equal(t, items, c.Draft().Items)

	err = c.Reorder([]uuid.UUID{a.ID, a.ID})
	assert.ErrorIs(t, err, ErrInvalidOrdering)

	err = c.Reorder([]uuid.UUID{a.ID, qid(99)})
	assert.ErrorIs(t, err, ErrInvalidOrdering)
}

func TestComposerSetPointValue(t *testing.T) {
	c := newTestComposer(t)
	q := bankQuestion(10, qid(2), model.QuestionTypeShortAnswer, 2)
	require.NoError(t, c.AddQuestion(q, 1))

	require.NoError(t, c.SetPointValue(q.ID, 10))
	assert.Equal(t, 10, c.Draft().Items[0].Points)
	assert.Equal(t, 10, c.Draft().PointTotal())

	assert.ErrorIs(t, c.SetPointValue(q.ID, 0), ErrInvalidValue)
	assert.ErrorIs(t, c.SetPointValue(q.ID, -3), ErrInvalidValue)
	assert.ErrorIs(t, c.SetPointValue(qid(99), 5), ErrNotFound)
}

func TestComposerFinalize(t *testing.T) {
	c := newTestComposer(t)

	_, err := c.Finalize()
	assert.ErrorIs(t, err, ErrEmptyExam)

	require.NoError(t, c.AddQuestion(bankQuestion(10, qid(2), model.QuestionTypeMultipleChoice, 1), 2))
	require.NoError(t, c.AddQuestion(bankQuestion(11, qid(2), model.QuestionTypeMultipleChoice, 2), 3))
	require.NoError(t, c.AddQuestion(bankQuestion(12, qid(2), model.QuestionTypeEssay, 3), 5))

	exam, err := c.Finalize()
	require.NoError(t, err)

	assert.Equal(t, c.Draft().ID, exam.ID)
	assert.Equal(t, 10, exam.Totals.PointTotal)
	assert.Equal(t, 3, exam.Totals.QuestionCount)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, exam.Totals.DifficultyHistogram)
	assert.Equal(t, map[model.QuestionType]int{
		model.QuestionTypeMultipleChoice: 2,
		model.QuestionTypeEssay:          1,
	}, exam.Totals.TypeDistribution)
	assert.Equal(t, model.DraftStatusFinalized, c.Draft().Status)

	// The state machine is one-way: no edits, no second finalize.
	_, err = c.Finalize()
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.ErrorIs(t, c.AddQuestion(bankQuestion(13, qid(2), model.QuestionTypeEssay, 3), 1), ErrAlreadyFinalized)
	assert.ErrorIs(t, c.RemoveQuestion(exam.Items[0].QuestionID), ErrAlreadyFinalized)
	assert.ErrorIs(t, c.Reorder([]uuid.UUID{qid(12), qid(11), qid(10)}), ErrAlreadyFinalized)
	assert.ErrorIs(t, c.SetPointValue(exam.Items[0].QuestionID, 9), ErrAlreadyFinalized)
}

func TestFinalizedTotalsAreFrozen(t *testing.T) {
	c := newTestComposer(t)
	require.NoError(t, c.AddQuestion(bankQuestion(10, qid(2), model.QuestionTypeEssay, 3), 4))

	exam, err := c.Finalize()
	require.NoError(t, err)

	// Mutating the draft's slice afterwards must not reach the exam snapshot.
	c.Draft().Items[0].Points = 100
	assert.Equal(t, 4, exam.Items[0].Points)
	assert.Equal(t, 4, exam.Totals.PointTotal)
}
