package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/model"
)

func TestBalanceExactWhenPoolCovers(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	for i := 0; i < 6; i++ {
		source.Add(bankQuestion(30+i, course, model.QuestionTypeMultipleChoice, 1))
	}

	spec := SelectionSpec{
		CourseID:         course,
		Total:            4,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeMultipleChoice: 4},
		DifficultyCounts: map[int]int{1: 4},
	}
	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	selection := Balance(spec, plan.Buckets, plan.Pool)

	assert.Equal(t, 4, selection.Report.SelectedTotal)
	assert.Equal(t, 0, selection.Report.UnmetDemand())
	require.Len(t, selection.Candidates, 4)
	// id-ascending tie-break means the four lowest ids win.
	for i, c := range selection.Candidates {
		assert.Equal(t, qid(30+i), c.Question.ID)
	}
}

// With surplus supply in every (type, difficulty) cell, the selection must
// reproduce both requested marginals exactly, not just the type counts.
func TestBalanceAbundantBankMeetsBothMarginals(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	id := 200
	for _, qt := range []model.QuestionType{model.QuestionTypeMultipleChoice, model.QuestionTypeEssay} {
		for d := 1; d <= 3; d++ {
			for i := 0; i < 10; i++ {
				source.Add(bankQuestion(id, course, qt, d))
				id++
			}
		}
	}

	spec := SelectionSpec{
		CourseID: course,
		Total:    10,
		TypeCounts: map[model.QuestionType]int{
			model.QuestionTypeMultipleChoice: 6,
			model.QuestionTypeEssay:          4,
		},
		DifficultyCounts: map[int]int{1: 2, 2: 4, 3: 4},
	}
	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	selection := Balance(spec, plan.Buckets, plan.Pool)

	assert.Equal(t, 10, selection.Report.SelectedTotal)
	assert.Equal(t, 0, selection.Report.UnmetDemand())
	assert.Equal(t, map[model.QuestionType]int{
		model.QuestionTypeMultipleChoice: 6,
		model.QuestionTypeEssay:          4,
	}, selection.Report.TypeDistribution())
	assert.Equal(t, map[int]int{1: 2, 2: 4, 3: 4}, selection.Report.DifficultyHistogram())
}

func TestBalancePrefersRepositoryOverGenerated(t *testing.T) {
	course := qid(1)
	repo := Candidate{
		Question:   bankQuestion(50, course, model.QuestionTypeEssay, 3),
		Provenance: ProvenanceRepository,
	}
	gen := Candidate{
		Question:   bankQuestion(10, course, model.QuestionTypeEssay, 3),
		Provenance: ProvenanceGenerated,
	}

	spec := SelectionSpec{
		CourseID:         course,
		Total:            1,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 1},
		DifficultyCounts: map[int]int{3: 1},
	}
	requests := []BucketRequest{{
		Bucket:    Bucket{Type: model.QuestionTypeEssay, Difficulty: 3},
		Requested: 1,
		Available: 1,
	}}

	// The generated candidate has the lower id; provenance still wins.
	selection := Balance(spec, requests, []Candidate{gen, repo})

	require.Len(t, selection.Candidates, 1)
	assert.Equal(t, repo.Question.ID, selection.Candidates[0].Question.ID)
	assert.Equal(t, ProvenanceRepository, selection.Candidates[0].Provenance)
}

func TestBalanceRedistributesDeficit(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	// Difficulty 1 is oversupplied, difficulty 2 undersupplied.
	for i := 0; i < 8; i++ {
		source.Add(bankQuestion(60+i, course, model.QuestionTypeShortAnswer, 1))
	}
	source.Add(bankQuestion(70, course, model.QuestionTypeShortAnswer, 2))

	spec := SelectionSpec{
		CourseID:         course,
		Total:            8,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeShortAnswer: 8},
		DifficultyCounts: map[int]int{1: 4, 2: 4},
	}
	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	selection := Balance(spec, plan.Buckets, plan.Pool)

	// 4 + 1 direct picks, then the deficit of 3 tops up difficulty 1.
	assert.Equal(t, 8, selection.Report.SelectedTotal)
	assert.Equal(t, 0, selection.Report.UnmetDemand())
	hist := selection.Report.DifficultyHistogram()
	assert.Equal(t, 7, hist[1])
	assert.Equal(t, 1, hist[2])
}

// The worked distribution scenario: 10 questions requested as 6 multiple
// choice + 4 essay over difficulties {1:2, 2:4, 3:4}, against a bank holding
// only 2 MC at difficulty 1, 4 MC at difficulty 2, and 3 essays at
// difficulty 3. Every usable question is taken and the residual essay demand
// is reported, not raised.
func TestBalanceScarceBank(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	source.Add(
		bankQuestion(101, course, model.QuestionTypeMultipleChoice, 1),
		bankQuestion(102, course, model.QuestionTypeMultipleChoice, 1),
		bankQuestion(103, course, model.QuestionTypeMultipleChoice, 2),
		bankQuestion(104, course, model.QuestionTypeMultipleChoice, 2),
		bankQuestion(105, course, model.QuestionTypeMultipleChoice, 2),
		bankQuestion(106, course, model.QuestionTypeMultipleChoice, 2),
		bankQuestion(107, course, model.QuestionTypeEssay, 3),
		bankQuestion(108, course, model.QuestionTypeEssay, 3),
		bankQuestion(109, course, model.QuestionTypeEssay, 3),
	)

	spec := SelectionSpec{
		CourseID: course,
		Total:    10,
		TypeCounts: map[model.QuestionType]int{
			model.QuestionTypeMultipleChoice: 6,
			model.QuestionTypeEssay:          4,
		},
		DifficultyCounts: map[int]int{1: 2, 2: 4, 3: 4},
	}
	plan, err := NewPlanner(source).Plan(context.Background(), spec)
	require.NoError(t, err)

	selection := Balance(spec, plan.Buckets, plan.Pool)

	assert.Equal(t, 10, selection.Report.RequestedTotal)
	assert.Equal(t, 9, selection.Report.SelectedTotal)
	assert.Equal(t, 1, selection.Report.UnmetDemand())

	types := selection.Report.TypeDistribution()
	assert.Equal(t, 6, types[model.QuestionTypeMultipleChoice])
	assert.Equal(t, 3, types[model.QuestionTypeEssay])

	hist := selection.Report.DifficultyHistogram()
	assert.Equal(t, map[int]int{1: 2, 2: 4, 3: 3}, hist)
}

func TestBalanceEmptyPool(t *testing.T) {
	spec := SelectionSpec{
		CourseID:         qid(1),
		Total:            3,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 3},
		DifficultyCounts: map[int]int{2: 3},
	}
	requests := []BucketRequest{{
		Bucket:    Bucket{Type: model.QuestionTypeEssay, Difficulty: 2},
		Requested: 3,
	}}

	selection := Balance(spec, requests, nil)

	assert.Empty(t, selection.Candidates)
	assert.Equal(t, 0, selection.Report.SelectedTotal)
	assert.Equal(t, 3, selection.Report.UnmetDemand())
}
