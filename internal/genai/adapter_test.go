package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// fakeProvider returns a canned response or error and records the prompts it
// was handed.
type fakeProvider struct {
	response string
	err      error
	system   string
	user     string
	delay    time.Duration
}

func (p *fakeProvider) Complete(ctx context.Context, system, user string) (string, error) {
	p.system = system
	p.user = user
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.response, p.err
}

func essayRequest(count int) engine.GenerationRequest {
	return engine.GenerationRequest{
		Chapter: engine.ChapterContext{
			CourseID:     uuid.New(),
			ChapterID:    uuid.New(),
			CourseTitle:  "Databases",
			ChapterTitle: "Normalization",
			ILOs:         "Explain 3NF decomposition",
		},
		Type:       model.QuestionTypeEssay,
		Difficulty: 3,
		Count:      count,
	}
}

func TestGenerateNormalizesQuestions(t *testing.T) {
	provider := &fakeProvider{response: `{
		"questions": [
			{"content": "  Explain third normal form.  ", "correct_answer": "see rubric", "explanation": "tests decomposition", "difficulty": 4}
		]
	}`}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	req := essayRequest(1)
	candidates, err := adapter.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	q := candidates[0].Question
	assert.Equal(t, engine.ProvenanceGenerated, candidates[0].Provenance)
	assert.Equal(t, "Explain third normal form.", q.Content)
	// The request's bucket wins over whatever difficulty the model claims.
	assert.Equal(t, req.Type, q.Type)
	assert.Equal(t, req.Difficulty, q.Difficulty)
	assert.Equal(t, req.Chapter.CourseID, q.CourseID)
	assert.Equal(t, req.Chapter.ChapterID, q.ChapterID)
	assert.Equal(t, 1, q.DefaultPoints)
	assert.NotEqual(t, uuid.Nil, q.ID)
}

func TestGenerateDropsInvalidItems(t *testing.T) {
	provider := &fakeProvider{response: `{
		"questions": [
			{"content": "valid one", "difficulty": 3},
			{"content": "   "},
			{"content": "difficulty out of scale", "difficulty": 9},
			{"content": "valid two", "difficulty": 2}
		]
	}`}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	candidates, err := adapter.Generate(context.Background(), essayRequest(4))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "valid one", candidates[0].Question.Content)
	assert.Equal(t, "valid two", candidates[1].Question.Content)
}

func TestGenerateMultipleChoiceNeedsOptions(t *testing.T) {
	provider := &fakeProvider{response: `{
		"questions": [
			{"content": "pick one", "options": ["only choice"], "difficulty": 2},
			{"content": "pick two", "options": ["a", "b", "c"], "correct_answer": "a", "difficulty": 2}
		]
	}`}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	req := essayRequest(2)
	req.Type = model.QuestionTypeMultipleChoice
	req.Difficulty = 2

	candidates, err := adapter.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "pick two", candidates[0].Question.Content)
	assert.Equal(t, []string{"a", "b", "c"}, candidates[0].Question.Options)
}

func TestGenerateCapsAtRequestedCount(t *testing.T) {
	provider := &fakeProvider{response: `{
		"questions": [
			{"content": "one", "difficulty": 3},
			{"content": "two", "difficulty": 3},
			{"content": "three", "difficulty": 3}
		]
	}`}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	candidates, err := adapter.Generate(context.Background(), essayRequest(2))
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	provider := &fakeProvider{response: "```json\n{\"questions\": [{\"content\": \"fenced\", \"difficulty\": 3}]}\n```"}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	candidates, err := adapter.Generate(context.Background(), essayRequest(1))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "fenced", candidates[0].Question.Content)
}

func TestGenerateProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	_, err := adapter.Generate(context.Background(), essayRequest(1))
	assert.ErrorIs(t, err, engine.ErrGenerationUnavailable)
}

func TestGenerateUnparseableResponse(t *testing.T) {
	provider := &fakeProvider{response: "I'm sorry, I cannot help with that."}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	_, err := adapter.Generate(context.Background(), essayRequest(1))
	assert.ErrorIs(t, err, engine.ErrGenerationUnavailable)
}

func TestGenerateTimeout(t *testing.T) {
	provider := &fakeProvider{
		response: `{"questions": []}`,
		delay:    200 * time.Millisecond,
	}
	adapter := NewAdapter(provider, 10*time.Millisecond, zerolog.Nop())

	_, err := adapter.Generate(context.Background(), essayRequest(1))
	assert.ErrorIs(t, err, engine.ErrGenerationUnavailable)
}

func TestGeneratePromptCarriesChapterContext(t *testing.T) {
	provider := &fakeProvider{response: `{"questions": []}`}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	req := essayRequest(2)
	_, err := adapter.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, provider.user, req.Chapter.CourseTitle)
	assert.Contains(t, provider.user, req.Chapter.ChapterTitle)
	assert.Contains(t, provider.user, req.Chapter.ILOs)
	assert.Equal(t, generateSystemPrompt, provider.system)
}

func TestAnalyzeClampsRating(t *testing.T) {
	question := model.Question{
		ID:         uuid.New(),
		Content:    "Explain BCNF.",
		Type:       model.QuestionTypeEssay,
		Difficulty: 3,
	}

	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"in range", `{"difficulty_rating": 3.5, "improvement_suggestions": "tighten wording"}`, 3.5},
		{"below scale", `{"difficulty_rating": 0.2}`, 1},
		{"above scale", `{"difficulty_rating": 11}`, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{response: tt.response}
			adapter := NewAdapter(provider, 0, zerolog.Nop())

			analysis, err := adapter.Analyze(context.Background(), question, "Databases", "Normalization", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, analysis.DifficultyRating)
		})
	}
}

func TestAnalyzeProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	adapter := NewAdapter(provider, 0, zerolog.Nop())

	_, err := adapter.Analyze(context.Background(), model.Question{}, "", "", "")
	assert.ErrorIs(t, err, engine.ErrGenerationUnavailable)
}
