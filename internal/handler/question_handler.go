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

// QuestionHandler handles question authoring and analysis endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreateQuestion godoc
// POST /api/v1/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := &model.Question{
		ChapterID:     req.ChapterID,
		Content:       req.Content,
		Type:          model.QuestionType(req.Type),
		Difficulty:    req.Difficulty,
		DefaultPoints: req.DefaultPoints,
		Tags:          req.Tags,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		CreatedBy:     claims.UserID,
	}
	if err := h.questionService.Create(c.Request.Context(), question); err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// ListByChapter godoc
// GET /api/v1/chapters/:id/questions
func (h *QuestionHandler) ListByChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	questions, pagination, err := h.questionService.ListByChapter(c.Request.Context(), chapterID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// AnalyzeQuestion godoc
// POST /api/v1/questions/:id/analyze
// Asks the AI capability to rate difficulty and suggest improvements.
func (h *QuestionHandler) AnalyzeQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	analysis, err := h.questionService.Analyze(c.Request.Context(), id)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"analysis": analysis})
}
