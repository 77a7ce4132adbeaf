package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/quiz-grade-api/internal/dto"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/pkg/response"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type questionService interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	Get(ctx context.Context, id int64) (*models.Question, error)
	Create(ctx context.Context, req dto.QuestionRequest, actorID string) (*models.Question, error)
	Update(ctx context.Context, id int64, req dto.QuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, id int64) error
}

// QuestionHandler exposes the question bank.
type QuestionHandler struct {
	service   questionService
	validator *validation.Validator
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(service questionService, validator *validation.Validator) *QuestionHandler {
	if validator == nil {
		validator = validation.New()
	}
	return &QuestionHandler{service: service, validator: validator}
}

// List godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Param type query string false "SINGLE, MULTIPLE or TRUE_FALSE"
// @Param search query string false "Content search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	page, size, err := pageQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.QuestionFilter{
		Type:     models.QuestionType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
	}
	questions, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, pagination(page, size, total))
}

// Get godoc
// @Summary Get question
// @Tags Questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	question, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Create godoc
// @Summary Create question
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body dto.QuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.validator.Error(err, "invalid payload"))
		return
	}
	question, err := h.service.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// Update godoc
// @Summary Update question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param payload body dto.QuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.validator.Error(err, "invalid payload"))
		return
	}
	question, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete question
// @Tags Questions
// @Param id path int true "Question ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
