package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/genai"
	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/repository"
	"github.com/coursekit/examforge/internal/response"
)

// QuestionService handles question authoring and AI-assisted analysis.
type QuestionService struct {
	questions *repository.QuestionRepository
	chapters  *repository.ChapterRepository
	courses   *repository.CourseRepository
	ai        *genai.Adapter
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService. ai may be nil when no
// generation capability is configured; Analyze then fails with
// engine.ErrGenerationUnavailable.
func NewQuestionService(
	questions *repository.QuestionRepository,
	chapters *repository.ChapterRepository,
	courses *repository.CourseRepository,
	ai *genai.Adapter,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		chapters:  chapters,
		courses:   courses,
		ai:        ai,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Create authors a new question under a chapter. The course reference is
// derived from the chapter so the two can never disagree.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	chapter, err := s.chapters.GetByID(ctx, q.ChapterID)
	if err != nil {
		return fmt.Errorf("resolve chapter: %w", err)
	}
	q.CourseID = chapter.CourseID
	if q.DefaultPoints <= 0 {
		q.DefaultPoints = 1
	}
	return s.questions.Create(ctx, q)
}

// Get retrieves a question by id.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// ListByChapter retrieves questions for a chapter with pagination.
func (s *QuestionService) ListByChapter(ctx context.Context, chapterID uuid.UUID, page, perPage int) ([]model.Question, *response.Pagination, error) {
	limit, offset, pagination := paginate(page, perPage)

	questions, total, err := s.questions.ListByChapter(ctx, chapterID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	fillTotals(pagination, total)
	return questions, pagination, nil
}

// Analyze asks the AI capability to rate a question's difficulty against its
// chapter's ILOs and suggest improvements.
func (s *QuestionService) Analyze(ctx context.Context, questionID uuid.UUID) (*genai.Analysis, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("question analysis: %w", errGenerationDisabled)
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapters.GetByID(ctx, q.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("resolve chapter: %w", err)
	}
	course, err := s.courses.GetByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, fmt.Errorf("resolve course: %w", err)
	}

	return s.ai.Analyze(ctx, *q, course.Title, chapter.Title, chapter.ILOs)
}
