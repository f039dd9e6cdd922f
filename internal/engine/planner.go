package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/model"
)

// Provenance records where a candidate came from. Repository candidates win
// ties against generated ones during balancing.
type Provenance string

const (
	ProvenanceRepository Provenance = "repository"
	ProvenanceGenerated  Provenance = "generated"
)

// Candidate is a question considered for selection, with its provenance and
// the score assigned by the balancer.
type Candidate struct {
	Question   model.Question `json:"question"`
	Provenance Provenance     `json:"provenance"`
	Score      float64        `json:"score"`
}

// BucketRequest pairs a bucket with its requested and available counts.
// Available is filled by the planner; a bucket with Available < Requested is
// short and may be handed to the generation adapter.
type BucketRequest struct {
	Bucket
	Requested int `json:"requested"`
	Available int `json:"available"`
}

// Plan is the planner's output: the deduplicated repository candidate pool
// plus the per-bucket request/availability ledger.
type Plan struct {
	Spec    SelectionSpec
	Buckets []BucketRequest
	Pool    []Candidate
}

// Shortfall returns the total number of requested questions no bucket can
// currently cover from the pool.
func (p *Plan) Shortfall() int {
	total := 0
	for _, b := range p.Buckets {
		if b.Available < b.Requested {
			total += b.Requested - b.Available
		}
	}
	return total
}

// Planner turns a SelectionSpec into a candidate pool. It issues one fetch
// per (type, difficulty) bucket and merges the results, so the repository
// only ever sees narrow, indexable queries. Identical spec + identical
// repository state always yields an identical plan.
type Planner struct {
	source QuestionSource
}

// NewPlanner creates a Planner over the given source.
func NewPlanner(source QuestionSource) *Planner {
	return &Planner{source: source}
}

// Plan decomposes the spec into per-bucket fetches and merges the results
// into a deduplicated pool tagged from-repository. Empty buckets are recorded
// in the request ledger, never silently dropped.
func (p *Planner) Plan(ctx context.Context, spec SelectionSpec) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	buckets := spec.bucketRequests()
	pool := make([]Candidate, 0, spec.Total)
	seen := make(map[uuid.UUID]struct{})

	for i, b := range buckets {
		questions, err := p.source.Fetch(ctx, FetchParams{
			CourseID:      spec.CourseID,
			ChapterIDs:    spec.ChapterIDs,
			Types:         []model.QuestionType{b.Type},
			MinDifficulty: b.Difficulty,
			MaxDifficulty: b.Difficulty,
			Tags:          spec.Tags,
			Exclude:       spec.Exclude,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch bucket %s: %w", b.Bucket, err)
		}

		available := 0
		for _, q := range questions {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			pool = append(pool, Candidate{Question: q, Provenance: ProvenanceRepository})
			available++
		}
		buckets[i].Available = available
	}

	return &Plan{Spec: spec, Buckets: buckets, Pool: pool}, nil
}
