package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// QuestionRepository handles question data access. It implements
// engine.QuestionSource for the assembly engine: stable id-ascending order,
// exact exclusion, ErrNotFound only when the course itself is missing.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, course_id, chapter_id, content, question_type, difficulty,
	default_points, tags, options, correct_answer, explanation, created_by, created_at, updated_at`

func scanQuestion(row pgx.Row) (model.Question, error) {
	var q model.Question
	err := row.Scan(&q.ID, &q.CourseID, &q.ChapterID, &q.Content, &q.Type, &q.Difficulty,
		&q.DefaultPoints, &q.Tags, &q.Options, &q.CorrectAnswer, &q.Explanation,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (course_id, chapter_id, content, question_type, difficulty,
		 default_points, tags, options, correct_answer, explanation, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		q.CourseID, q.ChapterID, q.Content, q.Type, q.Difficulty,
		q.DefaultPoints, q.Tags, q.Options, q.CorrectAnswer, q.Explanation, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// CreateWithID inserts a question keeping its pre-assigned id. Used for
// generated questions admitted into a draft, whose ids are minted by the
// generation adapter before persistence.
func (r *QuestionRepository) CreateWithID(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO questions (id, course_id, chapter_id, content, question_type, difficulty,
		 default_points, tags, options, correct_answer, explanation, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		q.ID, q.CourseID, q.ChapterID, q.Content, q.Type, q.Difficulty,
		q.DefaultPoints, q.Tags, q.Options, q.CorrectAnswer, q.Explanation, q.CreatedBy)
	return err
}

// GetByID retrieves a question by id.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM questions WHERE id = $1`, questionColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByChapter retrieves questions for a chapter with pagination.
func (r *QuestionRepository) ListByChapter(ctx context.Context, chapterID uuid.UUID, limit, offset int) ([]model.Question, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE chapter_id = $1`, chapterID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM questions WHERE chapter_id = $1 ORDER BY id LIMIT $2 OFFSET $3`, questionColumns),
		chapterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// Fetch implements engine.QuestionSource over PostgreSQL. The id-ascending
// order relies on Postgres comparing uuids bytewise, which matches the
// engine's in-memory tie-break.
func (r *QuestionRepository) Fetch(ctx context.Context, p engine.FetchParams) ([]model.Question, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, p.CourseID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, engine.ErrNotFound
	}

	where := []string{"course_id = $1"}
	args := []interface{}{p.CourseID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(p.ChapterIDs) > 0 {
		where = append(where, fmt.Sprintf("chapter_id = ANY(%s)", arg(p.ChapterIDs)))
	}
	if len(p.Types) > 0 {
		types := make([]string, len(p.Types))
		for i, t := range p.Types {
			types[i] = string(t)
		}
		where = append(where, fmt.Sprintf("question_type = ANY(%s)", arg(types)))
	}
	if p.MinDifficulty > 0 {
		where = append(where, fmt.Sprintf("difficulty >= %s", arg(p.MinDifficulty)))
	}
	if p.MaxDifficulty > 0 {
		where = append(where, fmt.Sprintf("difficulty <= %s", arg(p.MaxDifficulty)))
	}
	if len(p.Tags) > 0 {
		where = append(where, fmt.Sprintf("tags && %s", arg(p.Tags)))
	}
	if len(p.Exclude) > 0 {
		where = append(where, fmt.Sprintf("NOT (id = ANY(%s))", arg(p.Exclude)))
	}

	query := fmt.Sprintf(`SELECT %s FROM questions WHERE %s ORDER BY id`,
		questionColumns, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
