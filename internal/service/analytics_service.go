package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/config"
	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/websocket"
)

// summaryTTL keeps cached summaries around long enough for dashboards while
// the worker owns the durable copy in PostgreSQL.
const summaryTTL = 7 * 24 * time.Hour

// ExamSummary is the read-only analytics fact emitted when an exam is
// finalized. The engine computes it once; no component recomputes it.
type ExamSummary struct {
	Event               string                     `json:"event"`
	ExamID              uuid.UUID                  `json:"exam_id"`
	CourseID            uuid.UUID                  `json:"course_id"`
	Title               string                     `json:"title"`
	PointTotal          int                        `json:"point_total"`
	QuestionCount       int                        `json:"question_count"`
	DifficultyHistogram map[int]int                `json:"difficulty_histogram"`
	TypeDistribution    map[model.QuestionType]int `json:"type_distribution"`
	FinalizedAt         time.Time                  `json:"finalized_at"`
}

// summaryCache is the slice of the Redis API the service touches.
// *redis.Client satisfies it.
type summaryCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ExamFetcher loads a finalized exam from durable storage.
// repository.ExamRepository satisfies it.
type ExamFetcher interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// AnalyticsService relays finalization facts to their consumers: the Redis
// cache for dashboards, the worker queue for durable aggregation, and the
// websocket feed for anyone watching live. It renders nothing.
type AnalyticsService struct {
	rdb   summaryCache
	exams ExamFetcher
	hub   *websocket.Hub
	log   zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService. hub may be nil.
func NewAnalyticsService(rdb summaryCache, exams ExamFetcher, hub *websocket.Hub, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		rdb:   rdb,
		exams: exams,
		hub:   hub,
		log:   log.With().Str("component", "analytics_service").Logger(),
	}
}

func summaryFromExam(exam *model.Exam) ExamSummary {
	return ExamSummary{
		Event:               "exam.finalized",
		ExamID:              exam.ID,
		CourseID:            exam.CourseID,
		Title:               exam.Title,
		PointTotal:          exam.Totals.PointTotal,
		QuestionCount:       exam.Totals.QuestionCount,
		DifficultyHistogram: exam.Totals.DifficultyHistogram,
		TypeDistribution:    exam.Totals.TypeDistribution,
		FinalizedAt:         exam.FinalizedAt,
	}
}

// ExamFinalized implements FinalizeListener. Delivery is best-effort: the
// exam is already committed, so failures here are logged and swallowed.
func (s *AnalyticsService) ExamFinalized(ctx context.Context, exam *model.Exam) {
	summary := summaryFromExam(exam)

	payload, err := json.Marshal(summary)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal exam summary")
		return
	}

	key := config.CacheKey.ExamSummary(exam.ID.String())
	if err := s.rdb.Set(ctx, key, payload, summaryTTL).Err(); err != nil {
		s.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("cache exam summary")
	}
	if err := s.rdb.RPush(ctx, config.CacheKey.AnalyticsQueue(), payload).Err(); err != nil {
		s.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("enqueue exam summary")
	}

	if s.hub != nil {
		s.hub.Broadcast(summary)
	}
}

// GetSummary retrieves the summary for an exam. The Redis cache is only an
// accelerator: when the entry has expired, the summary is rebuilt from the
// frozen totals on the exams row and written back to the cache.
func (s *AnalyticsService) GetSummary(ctx context.Context, examID uuid.UUID) (*ExamSummary, error) {
	key := config.CacheKey.ExamSummary(examID.String())
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var summary ExamSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, err
		}
		return &summary, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	summary := summaryFromExam(exam)

	if payload, err := json.Marshal(summary); err == nil {
		if err := s.rdb.Set(ctx, key, payload, summaryTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("recache exam summary")
		}
	}
	return &summary, nil
}
