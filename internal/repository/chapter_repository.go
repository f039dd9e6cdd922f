package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// ChapterRepository handles chapter data access.
type ChapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterRepository creates a new ChapterRepository.
func NewChapterRepository(pool *pgxpool.Pool) *ChapterRepository {
	return &ChapterRepository{pool: pool}
}

// Create inserts a new chapter.
func (r *ChapterRepository) Create(ctx context.Context, ch *model.Chapter) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chapters (course_id, title, summary, ilos)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		ch.CourseID, ch.Title, ch.Summary, ch.ILOs,
	).Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
}

// GetByID retrieves a chapter by id.
func (r *ChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	var ch model.Chapter
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, summary, ilos, created_at, updated_at
		 FROM chapters WHERE id = $1`, id,
	).Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Summary, &ch.ILOs, &ch.CreatedAt, &ch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListByCourse retrieves all chapters for a course in creation order.
func (r *ChapterRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Chapter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, summary, ilos, created_at, updated_at
		 FROM chapters WHERE course_id = $1
		 ORDER BY created_at, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Summary, &ch.ILOs, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}
