package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/repository"
	"github.com/coursekit/examforge/internal/response"
)

// CatalogService handles course and chapter business logic.
type CatalogService struct {
	courses  *repository.CourseRepository
	chapters *repository.ChapterRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(courses *repository.CourseRepository, chapters *repository.ChapterRepository) *CatalogService {
	return &CatalogService{courses: courses, chapters: chapters}
}

// CreateCourse inserts a new course.
func (s *CatalogService) CreateCourse(ctx context.Context, course *model.Course) error {
	return s.courses.Create(ctx, course)
}

// GetCourse retrieves a course by id.
func (s *CatalogService) GetCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// ListCourses retrieves courses with pagination.
func (s *CatalogService) ListCourses(ctx context.Context, page, perPage int) ([]model.Course, *response.Pagination, error) {
	limit, offset, pagination := paginate(page, perPage)

	courses, total, err := s.courses.List(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	fillTotals(pagination, total)
	return courses, pagination, nil
}

// CreateChapter inserts a new chapter under a course.
func (s *CatalogService) CreateChapter(ctx context.Context, ch *model.Chapter) error {
	if _, err := s.courses.GetByID(ctx, ch.CourseID); err != nil {
		return err
	}
	return s.chapters.Create(ctx, ch)
}

// GetChapter retrieves a chapter by id.
func (s *CatalogService) GetChapter(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	return s.chapters.GetByID(ctx, id)
}

// ListChapters retrieves all chapters for a course.
func (s *CatalogService) ListChapters(ctx context.Context, courseID uuid.UUID) ([]model.Chapter, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	chapters, err := s.chapters.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if chapters == nil {
		chapters = []model.Chapter{}
	}
	return chapters, nil
}

// paginate clamps page arguments the way every list endpoint expects them.
func paginate(page, perPage int) (limit, offset int, p *response.Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage, (page - 1) * perPage, &response.Pagination{Page: page, PerPage: perPage}
}

func fillTotals(p *response.Pagination, total int) {
	p.TotalItems = total
	p.TotalPages = (total + p.PerPage - 1) / p.PerPage
}
