package engine

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/model"
)

// FetchParams narrows a question fetch. Zero-value fields mean "no filter"
// except CourseID, which is always required.
type FetchParams struct {
	CourseID      uuid.UUID
	ChapterIDs    []uuid.UUID
	Types         []model.QuestionType
	MinDifficulty int
	MaxDifficulty int
	Tags          []string
	Exclude       []uuid.UUID
}

// QuestionSource is the engine's read-only view over stored questions.
// Implementations must return no duplicates, respect the exclusion set
// exactly, and order results by id ascending so identical inputs always
// produce identical candidate pools. Fetch fails with ErrNotFound only when
// the course itself does not exist; an empty result for a valid scope is not
// an error.
type QuestionSource interface {
	Fetch(ctx context.Context, p FetchParams) ([]model.Question, error)
}

// MemorySource is an in-memory QuestionSource. It backs engine tests and the
// seed tooling; production uses the pgx-backed repository.
type MemorySource struct {
	mu        sync.RWMutex
	courses   map[uuid.UUID]struct{}
	questions []model.Question
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{courses: make(map[uuid.UUID]struct{})}
}

// AddCourse registers a course so fetches against it are valid.
func (m *MemorySource) AddCourse(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[id] = struct{}{}
}

// Add stores questions, registering their courses as a side effect.
func (m *MemorySource) Add(questions ...model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		m.courses[q.CourseID] = struct{}{}
		m.questions = append(m.questions, q)
	}
}

// Fetch implements QuestionSource.
func (m *MemorySource) Fetch(_ context.Context, p FetchParams) ([]model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.courses[p.CourseID]; !ok {
		return nil, ErrNotFound
	}

	excluded := make(map[uuid.UUID]struct{}, len(p.Exclude))
	for _, id := range p.Exclude {
		excluded[id] = struct{}{}
	}

	var out []model.Question
	seen := make(map[uuid.UUID]struct{})
	for _, q := range m.questions {
		if q.CourseID != p.CourseID {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		if _, ex := excluded[q.ID]; ex {
			continue
		}
		if len(p.ChapterIDs) > 0 && !containsID(p.ChapterIDs, q.ChapterID) {
			continue
		}
		if len(p.Types) > 0 && !containsType(p.Types, q.Type) {
			continue
		}
		if p.MinDifficulty > 0 && q.Difficulty < p.MinDifficulty {
			continue
		}
		if p.MaxDifficulty > 0 && q.Difficulty > p.MaxDifficulty {
			continue
		}
		if len(p.Tags) > 0 && !hasAnyTag(q.Tags, p.Tags) {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsType(types []model.QuestionType, t model.QuestionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
