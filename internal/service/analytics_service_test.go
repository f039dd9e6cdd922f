package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// fakeSummaryCache is an in-memory stand-in for the Redis commands the
// analytics service issues.
type fakeSummaryCache struct {
	data  map[string][]byte
	queue [][]byte
	sets  int
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{data: make(map[string][]byte)}
}

func (f *fakeSummaryCache) Get(_ context.Context, key string) *redis.StringCmd {
	if raw, ok := f.data[key]; ok {
		return redis.NewStringResult(string(raw), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeSummaryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = v
	case string:
		f.data[key] = []byte(v)
	}
	f.sets++
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeSummaryCache) RPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		if raw, ok := v.([]byte); ok {
			f.queue = append(f.queue, raw)
		}
	}
	return redis.NewIntResult(int64(len(f.queue)), nil)
}

type fakeExamFetcher struct {
	exams map[uuid.UUID]*model.Exam
	calls int
}

func (f *fakeExamFetcher) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	f.calls++
	exam, ok := f.exams[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return exam, nil
}

func finalizedExam(id uuid.UUID) *model.Exam {
	return &model.Exam{
		ID:       id,
		CourseID: uuid.New(),
		Title:    "Calculus Midterm",
		OwnerID:  uuid.New(),
		Totals: model.ExamTotals{
			PointTotal:          20,
			QuestionCount:       10,
			DifficultyHistogram: map[int]int{1: 2, 2: 4, 3: 4},
			TypeDistribution: map[model.QuestionType]int{
				model.QuestionTypeMultipleChoice: 6,
				model.QuestionTypeEssay:          4,
			},
		},
		FinalizedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetSummaryServedFromCache(t *testing.T) {
	examID := uuid.New()
	cache := newFakeSummaryCache()
	fetcher := &fakeExamFetcher{exams: map[uuid.UUID]*model.Exam{examID: finalizedExam(examID)}}
	svc := NewAnalyticsService(cache, fetcher, nil, zerolog.Nop())

	svc.ExamFinalized(context.Background(), finalizedExam(examID))
	require.Len(t, cache.queue, 1)

	summary, err := svc.GetSummary(context.Background(), examID)
	require.NoError(t, err)
	assert.Equal(t, examID, summary.ExamID)
	assert.Equal(t, 20, summary.PointTotal)
	// A warm cache never touches durable storage.
	assert.Zero(t, fetcher.calls)
}

func TestGetSummaryFallsBackToExamRow(t *testing.T) {
	examID := uuid.New()
	cache := newFakeSummaryCache()
	fetcher := &fakeExamFetcher{exams: map[uuid.UUID]*model.Exam{examID: finalizedExam(examID)}}
	svc := NewAnalyticsService(cache, fetcher, nil, zerolog.Nop())

	// Nothing cached: the expired-TTL case.
	summary, err := svc.GetSummary(context.Background(), examID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "Calculus Midterm", summary.Title)
	assert.Equal(t, 10, summary.QuestionCount)
	assert.Equal(t, map[int]int{1: 2, 2: 4, 3: 4}, summary.DifficultyHistogram)
	assert.Equal(t, map[model.QuestionType]int{
		model.QuestionTypeMultipleChoice: 6,
		model.QuestionTypeEssay:          4,
	}, summary.TypeDistribution)

	// The rebuilt summary is written back, so the next read is a cache hit.
	again, err := svc.GetSummary(context.Background(), examID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, summary.ExamID, again.ExamID)
}

func TestGetSummaryUnknownExam(t *testing.T) {
	cache := newFakeSummaryCache()
	fetcher := &fakeExamFetcher{exams: map[uuid.UUID]*model.Exam{}}
	svc := NewAnalyticsService(cache, fetcher, nil, zerolog.Nop())

	_, err := svc.GetSummary(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
