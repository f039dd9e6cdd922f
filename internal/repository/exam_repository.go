package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// ErrVersionConflict is returned when a draft save loses the optimistic
// version check — another session saved the draft first.
var ErrVersionConflict = errors.New("draft was modified by another session")

// ExamRepository persists exam drafts and finalized exams. The engine treats
// these as opaque storage operations and adds no retry logic on top.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// SaveDraft upserts a draft. Concurrent edits are serialized here with an
// optimistic version check, not by the engine: the update only applies when
// the stored version still matches the one the draft was loaded at.
func (r *ExamRepository) SaveDraft(ctx context.Context, draft *model.ExamDraft) error {
	items, err := json.Marshal(draft.Items)
	if err != nil {
		return fmt.Errorf("marshal draft items: %w", err)
	}

	if draft.Version == 0 {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO exam_drafts (id, course_id, title, owner_id, status, items, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
			 RETURNING version`,
			draft.ID, draft.CourseID, draft.Title, draft.OwnerID, draft.Status, items,
			draft.CreatedAt, draft.UpdatedAt,
		).Scan(&draft.Version)
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_drafts
		 SET title = $2, status = $3, items = $4, version = version + 1, updated_at = $5
		 WHERE id = $1 AND version = $6`,
		draft.ID, draft.Title, draft.Status, items, draft.UpdatedAt, draft.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	draft.Version++
	return nil
}

// LoadDraft retrieves a draft by id.
func (r *ExamRepository) LoadDraft(ctx context.Context, id uuid.UUID) (*model.ExamDraft, error) {
	var d model.ExamDraft
	var items []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, owner_id, status, items, version, created_at, updated_at
		 FROM exam_drafts WHERE id = $1`, id,
	).Scan(&d.ID, &d.CourseID, &d.Title, &d.OwnerID, &d.Status, &items, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &d.Items); err != nil {
		return nil, fmt.Errorf("unmarshal draft items: %w", err)
	}
	if d.Items == nil {
		d.Items = []model.DraftItem{}
	}
	return &d, nil
}

// ListDraftsByOwner retrieves drafts owned by a user, most recent first.
func (r *ExamRepository) ListDraftsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.ExamDraft, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_drafts WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, owner_id, status, items, version, created_at, updated_at
		 FROM exam_drafts WHERE owner_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var drafts []model.ExamDraft
	for rows.Next() {
		var d model.ExamDraft
		var items []byte
		if err := rows.Scan(&d.ID, &d.CourseID, &d.Title, &d.OwnerID, &d.Status, &items,
			&d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(items, &d.Items); err != nil {
			return nil, 0, fmt.Errorf("unmarshal draft items: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, total, rows.Err()
}

// SaveExam persists a finalized exam and its ordered question rows in one
// transaction, alongside the draft's terminal status.
func (r *ExamRepository) SaveExam(ctx context.Context, exam *model.Exam) error {
	histogram, err := json.Marshal(exam.Totals.DifficultyHistogram)
	if err != nil {
		return fmt.Errorf("marshal difficulty histogram: %w", err)
	}
	distribution, err := json.Marshal(exam.Totals.TypeDistribution)
	if err != nil {
		return fmt.Errorf("marshal type distribution: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO exams (id, course_id, title, owner_id, point_total, question_count,
		 difficulty_histogram, type_distribution, finalized_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		exam.ID, exam.CourseID, exam.Title, exam.OwnerID,
		exam.Totals.PointTotal, exam.Totals.QuestionCount, histogram, distribution, exam.FinalizedAt)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	for pos, it := range exam.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO exam_questions (exam_id, question_id, position, points, question_type, difficulty)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			exam.ID, it.QuestionID, pos, it.Points, it.Type, it.Difficulty)
		if err != nil {
			return fmt.Errorf("insert exam question at %d: %w", pos, err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE exam_drafts SET status = $2, updated_at = $3 WHERE id = $1`,
		exam.ID, model.DraftStatusFinalized, exam.FinalizedAt)
	if err != nil {
		return fmt.Errorf("mark draft finalized: %w", err)
	}

	return tx.Commit(ctx)
}

// GetExam retrieves a finalized exam with its ordered items.
func (r *ExamRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	var e model.Exam
	var histogram, distribution []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, owner_id, point_total, question_count,
		 difficulty_histogram, type_distribution, finalized_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.CourseID, &e.Title, &e.OwnerID, &e.Totals.PointTotal,
		&e.Totals.QuestionCount, &histogram, &distribution, &e.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(histogram, &e.Totals.DifficultyHistogram); err != nil {
		return nil, fmt.Errorf("unmarshal difficulty histogram: %w", err)
	}
	if err := json.Unmarshal(distribution, &e.Totals.TypeDistribution); err != nil {
		return nil, fmt.Errorf("unmarshal type distribution: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, points, question_type, difficulty
		 FROM exam_questions WHERE exam_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it model.DraftItem
		if err := rows.Scan(&it.QuestionID, &it.Points, &it.Type, &it.Difficulty); err != nil {
			return nil, err
		}
		e.Items = append(e.Items, it)
	}
	return &e, rows.Err()
}

// ListExamsByOwner retrieves finalized exams owned by a user, newest first,
// without their item lists.
func (r *ExamRepository) ListExamsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, owner_id, point_total, question_count,
		 difficulty_histogram, type_distribution, finalized_at
		 FROM exams WHERE owner_id = $1
		 ORDER BY finalized_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var histogram, distribution []byte
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Title, &e.OwnerID, &e.Totals.PointTotal,
			&e.Totals.QuestionCount, &histogram, &distribution, &e.FinalizedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(histogram, &e.Totals.DifficultyHistogram); err != nil {
			return nil, 0, fmt.Errorf("unmarshal difficulty histogram: %w", err)
		}
		if err := json.Unmarshal(distribution, &e.Totals.TypeDistribution); err != nil {
			return nil, 0, fmt.Errorf("unmarshal type distribution: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}
