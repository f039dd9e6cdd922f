package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// Adapter wraps the generation capability behind engine.Generator. Every
// returned question is validated against the same shape constraints as bank
// questions before it may enter a candidate pool; invalid items are dropped
// and logged, never surfaced as errors. Only total failure to reach the
// capability (including the per-call timeout) maps to
// engine.ErrGenerationUnavailable.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAdapter creates an Adapter. timeout bounds every provider call; zero
// means no bound beyond the caller's context.
func NewAdapter(provider Provider, timeout time.Duration, log zerolog.Logger) *Adapter {
	return &Adapter{
		provider: provider,
		timeout:  timeout,
		log:      log.With().Str("component", "genai").Logger(),
	}
}

// generatedQuestion is the JSON shape the model is instructed to emit.
type generatedQuestion struct {
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    int      `json:"difficulty"`
}

type generatedBatch struct {
	Questions []generatedQuestion `json:"questions"`
}

// Generate implements engine.Generator. A request for count items may yield
// fewer — the engine's report accounts for the gap.
func (a *Adapter) Generate(ctx context.Context, req engine.GenerationRequest) ([]engine.Candidate, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.provider.Complete(ctx, generateSystemPrompt, buildGeneratePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrGenerationUnavailable, err)
	}

	var batch generatedBatch
	if err := json.Unmarshal([]byte(extractJSON(raw)), &batch); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", engine.ErrGenerationUnavailable, err)
	}

	now := time.Now().UTC()
	candidates := make([]engine.Candidate, 0, req.Count)
	dropped := 0
	for _, gq := range batch.Questions {
		if len(candidates) == req.Count {
			break
		}
		if !a.valid(gq, req) {
			dropped++
			continue
		}
		candidates = append(candidates, engine.Candidate{
			Provenance: engine.ProvenanceGenerated,
			Question: model.Question{
				ID:            uuid.New(),
				CourseID:      req.Chapter.CourseID,
				ChapterID:     req.Chapter.ChapterID,
				Content:       strings.TrimSpace(gq.Content),
				Type:          req.Type,
				Difficulty:    req.Difficulty,
				DefaultPoints: 1,
				Options:       gq.Options,
				CorrectAnswer: strings.TrimSpace(gq.CorrectAnswer),
				Explanation:   strings.TrimSpace(gq.Explanation),
				CreatedAt:     now,
				UpdatedAt:     now,
			},
		})
	}

	if dropped > 0 {
		a.log.Warn().
			Str("type", string(req.Type)).
			Int("difficulty", req.Difficulty).
			Int("dropped", dropped).
			Msg("generated questions failed validation")
	}
	a.log.Debug().
		Int("requested", req.Count).
		Int("admitted", len(candidates)).
		Msg("generation batch processed")

	return candidates, nil
}

// valid applies the bank-question shape constraints to a generated item.
func (a *Adapter) valid(gq generatedQuestion, req engine.GenerationRequest) bool {
	if strings.TrimSpace(gq.Content) == "" {
		return false
	}
	if gq.Difficulty != 0 && (gq.Difficulty < model.MinDifficulty || gq.Difficulty > model.MaxDifficulty) {
		return false
	}
	if !req.Type.Valid() {
		return false
	}
	if req.Type == model.QuestionTypeMultipleChoice && len(gq.Options) < 2 {
		return false
	}
	return true
}

// extractJSON trims any prose the model wrapped around the JSON object.
// Some hosts ignore the response-format hint and add markdown fences.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}
