package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursekit/examforge/internal/middleware"
	"github.com/coursekit/examforge/internal/model"
	"github.com/coursekit/examforge/internal/repository"
	"github.com/coursekit/examforge/internal/response"
	"github.com/coursekit/examforge/internal/service"
	"github.com/coursekit/examforge/internal/validator"
)

// ExamHandler handles exam draft assembly and finalization endpoints.
type ExamHandler struct {
	assemblyService  *service.AssemblyService
	analyticsService *service.AnalyticsService
	examRepo         *repository.ExamRepository
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	assemblyService *service.AssemblyService,
	analyticsService *service.AnalyticsService,
	examRepo *repository.ExamRepository,
) *ExamHandler {
	return &ExamHandler{
		assemblyService:  assemblyService,
		analyticsService: analyticsService,
		examRepo:         examRepo,
	}
}

// CreateDraft godoc
// POST /api/v1/drafts
func (h *ExamHandler) CreateDraft(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateDraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.assemblyService.CreateDraft(c.Request.Context(), claims.Role, claims.UserID, req.CourseID, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"draft": draft})
}

// ListDrafts godoc
// GET /api/v1/drafts
func (h *ExamHandler) ListDrafts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	drafts, total, err := h.examRepo.ListDraftsByOwner(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if drafts == nil {
		drafts = []model.ExamDraft{}
	}
	pagination := &response.Pagination{
		Page: page, PerPage: perPage,
		TotalItems: total, TotalPages: (total + perPage - 1) / perPage,
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"drafts": drafts}, pagination)
}

// GetDraft godoc
// GET /api/v1/drafts/:id
func (h *ExamHandler) GetDraft(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}

	draft, err := h.assemblyService.GetDraft(c.Request.Context(), claims.Role, claims.UserID, draftID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, draft)
}

// AddQuestion godoc
// POST /api/v1/drafts/:id/questions
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.assemblyService.AddQuestion(c.Request.Context(), claims.Role, claims.UserID, draftID, req.QuestionID, req.Points)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, draft)
}

// RemoveQuestion godoc
// DELETE /api/v1/drafts/:id/questions/:qid
func (h *ExamHandler) RemoveQuestion(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("qid"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	draft, err := h.assemblyService.RemoveQuestion(c.Request.Context(), claims.Role, claims.UserID, draftID, questionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, draft)
}

// SetPoints godoc
// PATCH /api/v1/drafts/:id/questions/:qid
func (h *ExamHandler) SetPoints(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("qid"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetPointsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.assemblyService.SetPointValue(c.Request.Context(), claims.Role, claims.UserID, draftID, questionID, req.Points)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, draft)
}

// Reorder godoc
// PUT /api/v1/drafts/:id/order
func (h *ExamHandler) Reorder(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}

	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.assemblyService.Reorder(c.Request.Context(), claims.Role, claims.UserID, draftID, req.QuestionIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, draft)
}

// AutoBuild godoc
// POST /api/v1/drafts/:id/auto-build
// Fills the draft from the question bank (and optionally the generation
// capability), returning the selection report alongside the updated draft so
// the author can see any unmet demand before finalizing.
func (h *ExamHandler) AutoBuild(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}

	var req model.AutoBuildRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, report, err := h.assemblyService.AutoBuild(c.Request.Context(), claims.Role, claims.UserID, draftID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"draft":       draft,
		"point_total": draft.PointTotal(),
		"report":      report,
	})
}

// Finalize godoc
// POST /api/v1/drafts/:id/finalize
func (h *ExamHandler) Finalize(c *gin.Context) {
	claims, draftID, ok := h.draftCall(c)
	if !ok {
		return
	}

	exam, err := h.assemblyService.Finalize(c.Request.Context(), claims.Role, claims.UserID, draftID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	exams, total, err := h.examRepo.ListExamsByOwner(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	pagination := &response.Pagination{
		Page: page, PerPage: perPage,
		TotalItems: total, TotalPages: (total + perPage - 1) / perPage,
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examRepo.GetExam(c.Request.Context(), id)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetExamSummary godoc
// GET /api/v1/exams/:id/summary
func (h *ExamHandler) GetExamSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.analyticsService.GetSummary(c.Request.Context(), id)
	if err != nil {
		response.EngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

func (h *ExamHandler) draftCall(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, draftID, true
}

func (h *ExamHandler) draftResponse(c *gin.Context, draft *model.ExamDraft) {
	response.Success(c, http.StatusOK, gin.H{
		"draft":       draft,
		"point_total": draft.PointTotal(),
	})
}

// fail maps assembly-layer errors before falling back to the engine mapping.
func (h *ExamHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotDraftOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotDraftOwner)
	case errors.Is(err, repository.ErrVersionConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		response.EngineError(c, err)
	}
}
