package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/model"
)

// Bucket is the unit of distribution matching: a (type, difficulty) pairing.
type Bucket struct {
	Type       model.QuestionType `json:"type"`
	Difficulty int                `json:"difficulty"`
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s/%d", b.Type, b.Difficulty)
}

// SelectionSpec describes what an auto-built exam should contain. TypeCounts
// and DifficultyCounts are absolute counts and must each sum to Total; use
// ProportionsToCounts to convert proportional requests first.
type SelectionSpec struct {
	CourseID         uuid.UUID
	ChapterIDs       []uuid.UUID
	Total            int
	TypeCounts       map[model.QuestionType]int
	DifficultyCounts map[int]int
	Tags             []string
	Exclude          []uuid.UUID
}

// Validate checks internal consistency of the spec.
func (s *SelectionSpec) Validate() error {
	if s.CourseID == uuid.Nil {
		return fmt.Errorf("%w: course id required", ErrInvalidValue)
	}
	if s.Total <= 0 {
		return fmt.Errorf("%w: total must be positive, got %d", ErrInvalidValue, s.Total)
	}
	typeSum := 0
	for t, n := range s.TypeCounts {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown question type %q", ErrInvalidValue, t)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for type %q", ErrInvalidValue, t)
		}
		typeSum += n
	}
	if typeSum != s.Total {
		return fmt.Errorf("%w: type counts sum to %d, want %d", ErrInvalidValue, typeSum, s.Total)
	}
	diffSum := 0
	for d, n := range s.DifficultyCounts {
		if d < model.MinDifficulty || d > model.MaxDifficulty {
			return fmt.Errorf("%w: difficulty %d out of range", ErrInvalidValue, d)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for difficulty %d", ErrInvalidValue, d)
		}
		diffSum += n
	}
	if diffSum != s.Total {
		return fmt.Errorf("%w: difficulty counts sum to %d, want %d", ErrInvalidValue, diffSum, s.Total)
	}
	return nil
}

// bucketRequests derives the requested count per (type, difficulty) bucket
// from the two marginal distributions. Types are walked in canonical order
// and each type's count is apportioned by largest remainder over the
// difficulty quotas still unassigned, so both marginals hold exactly: each
// type's row sums to its TypeCounts entry and each difficulty's column sums
// to its DifficultyCounts entry. Because both marginals sum to Total, the
// last type consumes exactly the leftover quotas. Buckets are returned in
// canonical order: type order, then difficulty ascending.
func (s *SelectionSpec) bucketRequests() []BucketRequest {
	diffs := make([]int, 0, len(s.DifficultyCounts))
	for d := model.MinDifficulty; d <= model.MaxDifficulty; d++ {
		if s.DifficultyCounts[d] > 0 {
			diffs = append(diffs, d)
		}
	}
	remaining := make([]float64, len(diffs))
	for i, d := range diffs {
		remaining[i] = float64(s.DifficultyCounts[d])
	}

	var reqs []BucketRequest
	for _, t := range model.QuestionTypes {
		ct := s.TypeCounts[t]
		if ct == 0 {
			continue
		}
		counts := apportion(ct, remaining)
		for i, d := range diffs {
			remaining[i] -= float64(counts[i])
			if counts[i] == 0 {
				continue
			}
			reqs = append(reqs, BucketRequest{
				Bucket:    Bucket{Type: t, Difficulty: d},
				Requested: counts[i],
			})
		}
	}
	return reqs
}

// ProportionsToCounts converts requested proportions over difficulty buckets
// into absolute counts summing exactly to total, via largest-remainder
// apportionment (ties go to the lower difficulty).
func ProportionsToCounts(proportions map[int]float64, total int) map[int]int {
	diffs := make([]int, 0, len(proportions))
	for d := model.MinDifficulty; d <= model.MaxDifficulty; d++ {
		if proportions[d] > 0 {
			diffs = append(diffs, d)
		}
	}
	weights := make([]float64, len(diffs))
	for i, d := range diffs {
		weights[i] = proportions[d]
	}
	counts := apportion(total, weights)
	out := make(map[int]int, len(diffs))
	for i, d := range diffs {
		out[d] = counts[i]
	}
	return out
}

// TypeProportionsToCounts is the question-type analogue of
// ProportionsToCounts; ties go to the earlier type in canonical order.
func TypeProportionsToCounts(proportions map[model.QuestionType]float64, total int) map[model.QuestionType]int {
	types := make([]model.QuestionType, 0, len(proportions))
	for _, t := range model.QuestionTypes {
		if proportions[t] > 0 {
			types = append(types, t)
		}
	}
	weights := make([]float64, len(types))
	for i, t := range types {
		weights[i] = proportions[t]
	}
	counts := apportion(total, weights)
	out := make(map[model.QuestionType]int, len(types))
	for i, t := range types {
		out[t] = counts[i]
	}
	return out
}

// apportion splits total into integer shares proportional to weights using
// largest-remainder apportionment: floor each quota, then hand the remaining
// units to the buckets with the largest fractional remainders, ties broken by
// lowest index. The returned shares always sum exactly to total.
func apportion(total int, weights []float64) []int {
	shares := make([]int, len(weights))
	if total == 0 || len(weights) == 0 {
		return shares
	}
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	if weightSum == 0 {
		return shares
	}

	type remainder struct {
		idx  int
		frac float64
	}
	remainders := make([]remainder, len(weights))
	allocated := 0
	for i, w := range weights {
		quota := float64(total) * w / weightSum
		shares[i] = int(quota)
		allocated += shares[i]
		remainders[i] = remainder{idx: i, frac: quota - float64(shares[i])}
	}

	// Stable selection sort on (fraction desc, index asc) keeps the result
	// deterministic without relying on sort stability guarantees.
	left := total - allocated
	for left > 0 {
		best := -1
		for i := range remainders {
			if remainders[i].idx < 0 {
				continue
			}
			if best == -1 || remainders[i].frac > remainders[best].frac {
				best = i
			}
		}
		if best == -1 {
			break
		}
		shares[remainders[best].idx]++
		remainders[best].idx = -1
		left--
	}
	return shares
}
