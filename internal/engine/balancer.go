package engine

import (
	"bytes"
	"sort"

	"github.com/coursekit/examforge/internal/model"
)

// Candidate scores by provenance. Repository questions outrank generated ones
// so a generated question is only picked when the bank cannot cover a bucket.
const (
	scoreRepository = 2.0
	scoreGenerated  = 1.0
)

// BucketOutcome is the per-bucket row of the selection report.
type BucketOutcome struct {
	Bucket
	Requested int `json:"requested"`
	Available int `json:"available"`
	Selected  int `json:"selected"`
}

// Shortfall is the unmet demand for this bucket.
func (o BucketOutcome) Shortfall() int {
	if o.Selected >= o.Requested {
		return 0
	}
	return o.Requested - o.Selected
}

// SelectionReport records requested-vs-achieved counts so callers can detect
// drift from the requested distribution. It accompanies every selection; a
// shortfall is reported here, never raised as an error.
type SelectionReport struct {
	RequestedTotal int             `json:"requested_total"`
	SelectedTotal  int             `json:"selected_total"`
	Buckets        []BucketOutcome `json:"buckets"`
}

// UnmetDemand is the requested-minus-achieved total.
func (r SelectionReport) UnmetDemand() int {
	return r.RequestedTotal - r.SelectedTotal
}

// TypeDistribution returns the achieved per-type counts.
func (r SelectionReport) TypeDistribution() map[model.QuestionType]int {
	out := make(map[model.QuestionType]int)
	for _, b := range r.Buckets {
		if b.Selected > 0 {
			out[b.Type] += b.Selected
		}
	}
	return out
}

// DifficultyHistogram returns the achieved per-difficulty counts.
func (r SelectionReport) DifficultyHistogram() map[int]int {
	out := make(map[int]int)
	for _, b := range r.Buckets {
		if b.Selected > 0 {
			out[b.Difficulty] += b.Selected
		}
	}
	return out
}

// Selection is the balancer's output: the chosen candidates in presentation
// order plus the full report.
type Selection struct {
	Candidates []Candidate
	Report     SelectionReport
}

// Balance picks from the combined pool (repository + generated) the subset
// that best satisfies the spec. When every bucket has enough candidates it
// selects exactly the requested count per bucket. When a bucket is short, the
// deficit is redistributed across buckets that still have surplus,
// proportionally to their surplus via largest remainder, preserving the
// requested total as the primary constraint. Ties inside a bucket break by
// provenance (repository first) then id ascending, so the result is fully
// deterministic. Balance never fabricates questions: what the pool cannot
// cover shows up as unmet demand in the report.
func Balance(spec SelectionSpec, requests []BucketRequest, pool []Candidate) Selection {
	groups := make(map[Bucket][]Candidate, len(requests))
	for _, c := range pool {
		key := Bucket{Type: c.Question.Type, Difficulty: c.Question.Difficulty}
		groups[key] = append(groups[key], c)
	}
	for key, group := range groups {
		for i := range group {
			if group[i].Provenance == ProvenanceGenerated {
				group[i].Score = scoreGenerated
			} else {
				group[i].Score = scoreRepository
			}
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Score != group[j].Score {
				return group[i].Score > group[j].Score
			}
			return bytes.Compare(group[i].Question.ID[:], group[j].Question.ID[:]) < 0
		})
		groups[key] = group
	}

	take := make([]int, len(requests))
	for i, req := range requests {
		take[i] = min(req.Requested, len(groups[req.Bucket]))
	}

	redistribute(requests, groups, take, spec.Total)

	outcomes := make([]BucketOutcome, len(requests))
	var selected []Candidate
	total := 0
	for i, req := range requests {
		group := groups[req.Bucket]
		selected = append(selected, group[:take[i]]...)
		total += take[i]
		outcomes[i] = BucketOutcome{
			Bucket:    req.Bucket,
			Requested: req.Requested,
			Available: len(group),
			Selected:  take[i],
		}
	}

	return Selection{
		Candidates: selected,
		Report: SelectionReport{
			RequestedTotal: spec.Total,
			SelectedTotal:  total,
			Buckets:        outcomes,
		},
	}
}

// redistribute tops up short buckets from buckets with leftover availability.
// Each pass apportions the outstanding deficit over the surpluses by largest
// remainder, capped at each bucket's surplus; passes repeat until either the
// deficit or the surplus is exhausted.
func redistribute(requests []BucketRequest, groups map[Bucket][]Candidate, take []int, total int) {
	for {
		taken := 0
		for _, t := range take {
			taken += t
		}
		deficit := total - taken
		if deficit <= 0 {
			return
		}

		surplus := make([]float64, len(requests))
		var surplusSum int
		for i, req := range requests {
			s := len(groups[req.Bucket]) - take[i]
			if s > 0 {
				surplus[i] = float64(s)
				surplusSum += s
			}
		}
		if surplusSum == 0 {
			return
		}

		if deficit >= surplusSum {
			for i, req := range requests {
				take[i] = len(groups[req.Bucket])
			}
			return
		}

		extra := apportion(deficit, surplus)
		progressed := false
		for i := range requests {
			headroom := len(groups[requests[i].Bucket]) - take[i]
			grant := min(extra[i], headroom)
			if grant > 0 {
				take[i] += grant
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}
