package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/config"
	"github.com/coursekit/examforge/internal/service"
)

const (
	analyticsPollTimeout = 2 * time.Second
	analyticsRetryDelay  = 5 * time.Second
)

// AnalyticsWorker consumes finalization summaries from the Redis queue and
// persists them as durable analytics rows. The API write path never waits on
// this: a slow worker delays dashboards, not finalization.
type AnalyticsWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAnalyticsWorker creates a new AnalyticsWorker.
func NewAnalyticsWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AnalyticsWorker {
	return &AnalyticsWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "analytics_worker").Logger(),
	}
}

// Start runs the consume loop until the context is cancelled.
func (w *AnalyticsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AnalyticsWorker started")
	queue := config.CacheKey.AnalyticsQueue()

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("AnalyticsWorker stopped")
			return
		}

		result, err := w.rdb.BLPop(ctx, analyticsPollTimeout, queue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("poll analytics queue")
			time.Sleep(analyticsRetryDelay)
			continue
		}
		// BLPop returns [key, value].
		if len(result) < 2 {
			continue
		}

		if err := w.record(ctx, []byte(result[1])); err != nil {
			w.log.Error().Err(err).Msg("record exam analytics")
			// Requeue so a transient DB outage does not lose the fact.
			if pushErr := w.rdb.RPush(ctx, queue, result[1]).Err(); pushErr != nil {
				w.log.Error().Err(pushErr).Msg("requeue exam analytics")
			}
			time.Sleep(analyticsRetryDelay)
		}
	}
}

func (w *AnalyticsWorker) record(ctx context.Context, payload []byte) error {
	var summary service.ExamSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		// Malformed payloads are dropped, not requeued forever.
		w.log.Warn().Err(err).Msg("discard malformed analytics payload")
		return nil
	}

	histogram, err := json.Marshal(summary.DifficultyHistogram)
	if err != nil {
		return err
	}
	distribution, err := json.Marshal(summary.TypeDistribution)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO exam_analytics (exam_id, course_id, point_total, question_count,
		 difficulty_histogram, type_distribution, finalized_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (exam_id) DO NOTHING`,
		summary.ExamID, summary.CourseID, summary.PointTotal, summary.QuestionCount,
		histogram, distribution, summary.FinalizedAt)
	return err
}
