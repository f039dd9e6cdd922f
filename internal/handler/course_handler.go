package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/middleware"
	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/response"
	"github.com/coursekit/examforge/internal/service"
	"github.com/coursekit/examforge/internal/validator"
)

// CourseHandler handles course and chapter management endpoints.
type CourseHandler struct {
	catalogService *service.CatalogService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(catalogService *service.CatalogService) *CourseHandler {
	return &CourseHandler{catalogService: catalogService}
}

// ListCourses godoc
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	courses, pagination, err := h.catalogService.ListCourses(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"courses": courses}, pagination)
}

// CreateCourse godoc
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   claims.UserID,
	}
	if err := h.catalogService.CreateCourse(c.Request.Context(), course); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// GetCourse godoc
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := h.catalogService.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// ListChapters godoc
// GET /api/v1/courses/:id/chapters
func (h *CourseHandler) ListChapters(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	chapters, err := h.catalogService.ListChapters(c.Request.Context(), courseID)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"chapters": chapters})
}

// CreateChapter godoc
// POST /api/v1/courses/:id/chapters
func (h *CourseHandler) CreateChapter(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateChapterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	chapter := &model.Chapter{
		CourseID: courseID,
		Title:    req.Title,
		Summary:  req.Summary,
		ILOs:     req.ILOs,
	}
	if err := h.catalogService.CreateChapter(c.Request.Context(), chapter); err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"chapter": chapter})
}
