package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/model"
)

// ChapterContext is the material handed to the generation capability so it
// can write questions in scope. ILOs come straight from the chapter record.
type ChapterContext struct {
	CourseID     uuid.UUID
	ChapterID    uuid.UUID
	CourseTitle  string
	ChapterTitle string
	ILOs         string
}

// GenerationRequest asks the external capability for count questions of one
// bucket. The capability may return fewer; that is not an error.
type GenerationRequest struct {
	Chapter    ChapterContext
	Type       model.QuestionType
	Difficulty int
	Count      int
}

// Generator is the pluggable question-generation capability. Implementations
// return validated, normalized candidates tagged generated. They fail with
// ErrGenerationUnavailable only when the capability cannot be reached at all;
// partial fulfilment returns the shorter slice and a nil error.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) ([]Candidate, error)
}

// Engine wires the planner, balancer and generation adapter into the
// auto-build path. It holds no per-request state; all mutation goes through
// the Composer passed into each call.
type Engine struct {
	planner *Planner
	gen     Generator
	log     zerolog.Logger
}

// New creates an Engine. gen may be nil when no generation capability is
// configured; auto-build then runs repository-only.
func New(source QuestionSource, gen Generator, log zerolog.Logger) *Engine {
	return &Engine{
		planner: NewPlanner(source),
		gen:     gen,
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// AutoBuild runs Planner → (generation for short buckets, when requested and
// configured) → Balancer, then bulk-adds the selection to the composer's
// draft. Questions already in the draft are excluded from planning, so
// repeated auto-builds never produce duplicates. Draft mutation happens only
// after the full selection batch is computed; a failure anywhere before that
// leaves the draft untouched. AutoBuild never finalizes — the caller keeps
// control for manual adjustment.
func (e *Engine) AutoBuild(ctx context.Context, role model.Role, c *Composer, spec SelectionSpec, chapter ChapterContext, useGeneration bool) (Selection, error) {
	if !role.CanAuthorExams() {
		return Selection{}, ErrPermission
	}
	if err := c.editable(); err != nil {
		return Selection{}, err
	}

	for _, it := range c.Draft().Items {
		spec.Exclude = append(spec.Exclude, it.QuestionID)
	}

	plan, err := e.planner.Plan(ctx, spec)
	if err != nil {
		return Selection{}, err
	}

	pool := plan.Pool
	if useGeneration && e.gen != nil && plan.Shortfall() > 0 {
		generated, err := e.fillShortfall(ctx, plan, chapter)
		if err != nil {
			return Selection{}, err
		}
		pool = append(pool, generated...)
	}

	selection := Balance(spec, plan.Buckets, pool)

	for _, cand := range selection.Candidates {
		points := cand.Question.DefaultPoints
		if points <= 0 {
			points = 1
		}
		if err := c.AddQuestion(cand.Question, points); err != nil {
			return Selection{}, fmt.Errorf("add selected question: %w", err)
		}
	}

	e.log.Info().
		Str("draft_id", c.Draft().ID.String()).
		Int("requested", selection.Report.RequestedTotal).
		Int("selected", selection.Report.SelectedTotal).
		Int("unmet", selection.Report.UnmetDemand()).
		Bool("generation", useGeneration && e.gen != nil).
		Msg("auto-build completed")

	return selection, nil
}

// fillShortfall asks the generator to cover each short bucket. Generated
// candidates land in the pool with generated provenance, so the balancer
// still prefers repository questions where both exist.
func (e *Engine) fillShortfall(ctx context.Context, plan *Plan, chapter ChapterContext) ([]Candidate, error) {
	var out []Candidate
	for _, b := range plan.Buckets {
		missing := b.Requested - b.Available
		if missing <= 0 {
			continue
		}
		candidates, err := e.gen.Generate(ctx, GenerationRequest{
			Chapter:    chapter,
			Type:       b.Type,
			Difficulty: b.Difficulty,
			Count:      missing,
		})
		if err != nil {
			return nil, fmt.Errorf("generate for bucket %s: %w", b.Bucket, err)
		}
		if len(candidates) < missing {
			e.log.Warn().
				Str("bucket", b.Bucket.String()).
				Int("requested", missing).
				Int("returned", len(candidates)).
				Msg("generation under-delivered, shortfall remains")
		}
		out = append(out, candidates...)
	}
	return out, nil
}
