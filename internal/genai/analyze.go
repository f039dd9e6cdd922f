package genai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// Analysis is the model's assessment of an authored question.
type Analysis struct {
	DifficultyRating       float64 `json:"difficulty_rating"`
	ImprovementSuggestions string  `json:"improvement_suggestions"`
}

// Analyze rates a question's difficulty on the 1-5 scale and suggests
// improvements, using the chapter's ILOs as the reference point. It shares
// the adapter's provider and timeout handling with Generate.
func (a *Adapter) Analyze(ctx context.Context, q model.Question, courseTitle, chapterTitle, ilos string) (*Analysis, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.provider.Complete(ctx, analyzeSystemPrompt, buildAnalyzePrompt(q, courseTitle, chapterTitle, ilos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrGenerationUnavailable, err)
	}

	var result Analysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("%w: unparseable analysis: %v", engine.ErrGenerationUnavailable, err)
	}
	if result.DifficultyRating < float64(model.MinDifficulty) {
		result.DifficultyRating = float64(model.MinDifficulty)
	}
	if result.DifficultyRating > float64(model.MaxDifficulty) {
		result.DifficultyRating = float64(model.MaxDifficulty)
	}

	a.log.Debug().
		Str("question_id", q.ID.String()).
		Float64("difficulty_rating", result.DifficultyRating).
		Msg("question analyzed")

	return &result, nil
}
