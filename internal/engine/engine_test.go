package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/model"
)

// fakeGenerator hands back a fixed number of candidates per request and
// records what it was asked for.
type fakeGenerator struct {
	nextID   int
	requests []GenerationRequest
	err      error
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerationRequest) ([]Candidate, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	out := make([]Candidate, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		g.nextID++
		out = append(out, Candidate{
			Question: model.Question{
				ID:         qid(9000 + g.nextID),
				CourseID:   req.Chapter.CourseID,
				ChapterID:  req.Chapter.ChapterID,
				Content:    "generated",
				Type:       req.Type,
				Difficulty: req.Difficulty,
			},
			Provenance: ProvenanceGenerated,
		})
	}
	return out, nil
}

func TestAutoBuildRepositoryOnly(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	for i := 0; i < 10; i++ {
		source.Add(bankQuestion(200+i, course, model.QuestionTypeMultipleChoice, 1+i%2))
	}

	eng := New(source, nil, zerolog.Nop())
	c := newTestComposer(t)

	spec := SelectionSpec{
		CourseID:         course,
		Total:            4,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeMultipleChoice: 4},
		DifficultyCounts: map[int]int{1: 2, 2: 2},
	}

	selection, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, selection.Report.SelectedTotal)
	require.Len(t, c.Draft().Items, 4)
	for _, it := range c.Draft().Items {
		assert.Equal(t, 2, it.Points) // bank default points carried over
	}
	// Auto-build never finalizes.
	assert.Equal(t, model.DraftStatusDraft, c.Draft().Status)
}

func TestAutoBuildExcludesDraftItems(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	for i := 0; i < 3; i++ {
		source.Add(bankQuestion(210+i, course, model.QuestionTypeEssay, 3))
	}

	eng := New(source, nil, zerolog.Nop())
	c := newTestComposer(t)

	spec := SelectionSpec{
		CourseID:         course,
		Total:            3,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 3},
		DifficultyCounts: map[int]int{3: 3},
	}

	first, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, false)
	require.NoError(t, err)
	require.Equal(t, 3, first.Report.SelectedTotal)

	// The bank is exhausted: a second build finds nothing new and must not
	// try to re-add what the draft already holds.
	second, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Report.SelectedTotal)
	assert.Equal(t, 3, second.Report.UnmetDemand())
	assert.Len(t, c.Draft().Items, 3)
}

func TestAutoBuildFillsShortfallFromGenerator(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	source.Add(
		bankQuestion(220, course, model.QuestionTypeEssay, 3),
	)

	gen := &fakeGenerator{}
	eng := New(source, gen, zerolog.Nop())
	c := newTestComposer(t)

	chapter := ChapterContext{
		CourseID:     course,
		ChapterID:    qid(900),
		CourseTitle:  "Databases",
		ChapterTitle: "Normalization",
	}
	spec := SelectionSpec{
		CourseID:         course,
		Total:            3,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 3},
		DifficultyCounts: map[int]int{3: 3},
	}

	selection, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, chapter, true)
	require.NoError(t, err)

	assert.Equal(t, 3, selection.Report.SelectedTotal)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, model.QuestionTypeEssay, gen.requests[0].Type)
	assert.Equal(t, 3, gen.requests[0].Difficulty)
	assert.Equal(t, 2, gen.requests[0].Count)
	assert.Equal(t, chapter, gen.requests[0].Chapter)

	// The bank question is still preferred over generated fills.
	byProvenance := map[Provenance]int{}
	for _, cand := range selection.Candidates {
		byProvenance[cand.Provenance]++
	}
	assert.Equal(t, 1, byProvenance[ProvenanceRepository])
	assert.Equal(t, 2, byProvenance[ProvenanceGenerated])

	// Generated questions without default points fall back to one point.
	require.Len(t, c.Draft().Items, 3)
	for _, it := range c.Draft().Items {
		if it.QuestionID == qid(220) {
			assert.Equal(t, 2, it.Points)
		} else {
			assert.Equal(t, 1, it.Points)
		}
	}
}

func TestAutoBuildSkipsGeneratorWhenNotRequested(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	source.AddCourse(course)

	gen := &fakeGenerator{}
	eng := New(source, gen, zerolog.Nop())
	c := newTestComposer(t)

	spec := SelectionSpec{
		CourseID:         course,
		Total:            2,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeTrueFalse: 2},
		DifficultyCounts: map[int]int{1: 2},
	}

	selection, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, false)
	require.NoError(t, err)

	assert.Empty(t, gen.requests)
	assert.Equal(t, 2, selection.Report.UnmetDemand())
	assert.Empty(t, c.Draft().Items)
}

func TestAutoBuildGeneratorFailureLeavesDraftUntouched(t *testing.T) {
	course := qid(1)
	source := NewMemorySource()
	source.AddCourse(course)

	gen := &fakeGenerator{err: ErrGenerationUnavailable}
	eng := New(source, gen, zerolog.Nop())
	c := newTestComposer(t)

	spec := SelectionSpec{
		CourseID:         course,
		Total:            2,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 2},
		DifficultyCounts: map[int]int{3: 2},
	}

	_, err := eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, true)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.Empty(t, c.Draft().Items)
}

func TestAutoBuildPermissionAndState(t *testing.T) {
	source := NewMemorySource()
	source.AddCourse(qid(1))
	eng := New(source, nil, zerolog.Nop())

	spec := SelectionSpec{
		CourseID:         qid(1),
		Total:            1,
		TypeCounts:       map[model.QuestionType]int{model.QuestionTypeEssay: 1},
		DifficultyCounts: map[int]int{3: 1},
	}

	c := newTestComposer(t)
	_, err := eng.AutoBuild(context.Background(), model.RoleStudent, c, spec, ChapterContext{}, false)
	assert.ErrorIs(t, err, ErrPermission)

	require.NoError(t, c.AddQuestion(bankQuestion(10, qid(1), model.QuestionTypeEssay, 3), 1))
	_, err = c.Finalize()
	require.NoError(t, err)

	_, err = eng.AutoBuild(context.Background(), model.RoleProfessor, c, spec, ChapterContext{}, false)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}
