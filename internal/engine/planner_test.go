package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/model"
)

func bankQuestion(n int, course uuid.UUID, qt model.QuestionType, difficulty int) model.Question {
	return model.Question{
		ID:            qid(n),
		CourseID:      course,
		ChapterID:     qid(900),
		Content:       "question",
		Type:          qt,
		Difficulty:    difficulty,
		DefaultPoints: 2,
	}
}

func TestPlannerRecordsAvailability(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	source.Add(
		bankQuestion(10, course, model.QuestionTypeMultipleChoice, 1),
		bankQuestion(11, course, model.QuestionTypeMultipleChoice, 1),
		bankQuestion(12, course, model.QuestionTypeMultipleChoice, 2),
	)

	spec := SelectionSpec{
		CourseID:         course,
		Total:            4,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeMultipleChoice: 4},
		DifficultyCounts: map[int]int{1: 2, 2: 2},
	}

	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	require.Len(t, plan.Buckets, 2)
	assert.Equal(t, 2, plan.Buckets[0].Requested)
	assert.Equal(t, 2, plan.Buckets[0].Available)
	assert.Equal(t, 2, plan.Buckets[1].Requested)
	assert.Equal(t, 1, plan.Buckets[1].Available)
	assert.Equal(t, 1, plan.Shortfall())
	assert.Len(t, plan.Pool, 3)
}

func TestPlannerDeterministic(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	for i := 0; i < 20; i++ {
		source.Add(bankQuestion(100+i, course, model.QuestionTypeShortAnswer, 1+i%3))
	}

	spec := SelectionSpec{
		CourseID:         course,
		Total:            9,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeShortAnswer: 9},
		DifficultyCounts: map[int]int{1: 3, 2: 3, 3: 3},
	}

	planner := NewPlanner(source)
	first, err := planner.Plan(context.Background(), spec)
	require.NoError(t, err)
	second, err := planner.Plan(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, first.Buckets, second.Buckets)
	assert.Equal(t, first.Pool, second.Pool)
}

func TestPlannerExcludesAndDeduplicates(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	keep := bankQuestion(20, course, model.QuestionTypeTrueFalse, 2)
	skip := bankQuestion(21, course, model.QuestionTypeTrueFalse, 2)
	source.Add(keep, skip, keep) // duplicate insert must not double-count

	spec := SelectionSpec{
		CourseID:         course,
		Total:            2,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeTrueFalse: 2},
		DifficultyCounts: map[int]int{2: 2},
		Exclude:          []uuid.UUID{skip.ID},
	}

	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	require.Len(t, plan.Pool, 1)
	assert.Equal(t, keep.ID, plan.Pool[0].Question.ID)
	assert.Equal(t, ProvenanceRepository, plan.Pool[0].Provenance)
	assert.Equal(t, 1, plan.Shortfall())
}

func TestPlannerUnknownCourse(t *testing.T) {
	source := NewMemorySource()
	spec := SelectionSpec{
		CourseID:         qid(404),
		Total:            1,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 1},
		DifficultyCounts: map[int]int{3: 1},
	}

	_, err := NewPlanner(source).Plan(context.Background(), spec)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlannerRejectsInvalidSpec(t *testing.T) {
	source := NewMemorySource()
	source.AddCourse(qid(1))
	spec := SelectionSpec{
		CourseID:         qid(1),
		Total:            5,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 3},
		DifficultyCounts: map[int]int{1: 5},
	}

	_, err := NewPlanner(source).Plan(context.Background(), spec)
	assert.ErrorIs(t, err, ErrInvalidValue)
}
