package handler

import (
	"errors"
	"net/http"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/Paddione/network-quiz/internal/repository"
	"github.com/Paddione/network-quiz/internal/response"
	"github.com/Paddione/network-quiz/internal/service"
	"github.com/Paddione/network-quiz/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminHandler is the quiz content editor: CRUD over the full
// set/chapter/question/option tree. Mutations invalidate the cached play
// snapshot through the quiz service.
type AdminHandler struct {
	quizService *service.QuizService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(quizService *service.QuizService) *AdminHandler {
	return &AdminHandler{quizService: quizService}
}

func failRepoError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// ─── Quiz sets ──────────────────────────────────────────────────────

// ListSets godoc
// GET /api/admin/quiz-sets
// Lists every quiz set, active or not.
func (h *AdminHandler) ListSets(c *gin.Context) {
	sets, err := h.quizService.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz_sets": sets})
}

// CreateSet godoc
// POST /api/admin/quiz-sets
// Creates a quiz set. New sets start inactive so matchmaking never picks
// half-built content.
func (h *AdminHandler) CreateSet(c *gin.Context) {
	var req model.CreateQuizSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set := &model.QuizSet{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    false,
	}
	if err := h.quizService.CreateSet(c.Request.Context(), set); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz_set": set})
}

// UpdateSet godoc
// PUT /api/admin/quiz-sets/:id
// Updates a quiz set's metadata or flips its active flag.
func (h *AdminHandler) UpdateSet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuizSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	set, err := h.quizService.GetSet(c.Request.Context(), id)
	if err != nil {
		failRepoError(c, err)
		return
	}

	if req.Title != "" {
		set.Title = req.Title
	}
	if req.Description != "" {
		set.Description = req.Description
	}
	if req.IsActive != nil {
		set.IsActive = *req.IsActive
	}

	if err := h.quizService.UpdateSet(c.Request.Context(), set); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz_set": set})
}

// DeleteSet godoc
// DELETE /api/admin/quiz-sets/:id
// Deletes a quiz set and its whole content tree.
func (h *AdminHandler) DeleteSet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteSet(c.Request.Context(), id); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Chapters ───────────────────────────────────────────────────────

// ListChapters godoc
// GET /api/admin/quiz-sets/:id/chapters
func (h *AdminHandler) ListChapters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapters, err := h.quizService.ListChapters(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"chapters": chapters})
}

// CreateChapter godoc
// POST /api/admin/quiz-sets/:id/chapters
func (h *AdminHandler) CreateChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateChapterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ch := &model.Chapter{
		QuizSetID:      id,
		Title:          req.Title,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.CreateChapter(c.Request.Context(), ch); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"chapter": ch})
}

// UpdateChapter godoc
// PUT /api/admin/chapters/:id
func (h *AdminHandler) UpdateChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateChapterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ch := &model.Chapter{
		ID:             id,
		Title:          req.Title,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.UpdateChapter(c.Request.Context(), ch); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"chapter": ch})
}

// DeleteChapter godoc
// DELETE /api/admin/chapters/:id
func (h *AdminHandler) DeleteChapter(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteChapter(c.Request.Context(), id); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Questions ──────────────────────────────────────────────────────

// ListQuestions godoc
// GET /api/admin/chapters/:id/questions
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	questions, err := h.quizService.ListQuestions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/admin/chapters/:id/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ChapterID:      id,
		QuestionText:   req.QuestionText,
		Explanation:    req.Explanation,
		Type:           model.QuestionType(req.Type),
		HasImage:       req.ImagePath != nil,
		ImagePath:      req.ImagePath,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.CreateQuestion(c.Request.Context(), q); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/admin/questions/:id
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ID:             id,
		QuestionText:   req.QuestionText,
		Explanation:    req.Explanation,
		Type:           model.QuestionType(req.Type),
		HasImage:       req.ImagePath != nil,
		ImagePath:      req.ImagePath,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.UpdateQuestion(c.Request.Context(), q); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/admin/questions/:id
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteQuestion(c.Request.Context(), id); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Options ────────────────────────────────────────────────────────

// ListOptions godoc
// GET /api/admin/questions/:id/options
func (h *AdminHandler) ListOptions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	options, err := h.quizService.ListOptions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"options": options})
}

// CreateOption godoc
// POST /api/admin/questions/:id/options
func (h *AdminHandler) CreateOption(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	o := &model.Option{
		QuestionID:     id,
		OptionText:     req.OptionText,
		IsCorrect:      req.IsCorrect,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.CreateOption(c.Request.Context(), o); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"option": o})
}

// UpdateOption godoc
// PUT /api/admin/options/:id
func (h *AdminHandler) UpdateOption(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	o := &model.Option{
		ID:             id,
		OptionText:     req.OptionText,
		IsCorrect:      req.IsCorrect,
		SequenceNumber: req.SequenceNumber,
	}
	if err := h.quizService.UpdateOption(c.Request.Context(), o); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"option": o})
}

// DeleteOption godoc
// DELETE /api/admin/options/:id
func (h *AdminHandler) DeleteOption(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteOption(c.Request.Context(), id); err != nil {
		failRepoError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
