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

type quizService interface {
	List(ctx context.Context, filter models.QuizFilter) ([]models.QuizListItem, int, error)
	Get(ctx context.Context, id int64) (*models.Quiz, error)
	Create(ctx context.Context, req dto.QuizRequest, actorID string) (*models.Quiz, error)
	Update(ctx context.Context, id int64, req dto.QuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, id int64) error
}

// QuizHandler exposes quiz definitions.
type QuizHandler struct {
	service   quizService
	validator *validation.Validator
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service quizService, validator *validation.Validator) *QuizHandler {
	if validator == nil {
		validator = validation.New()
	}
	return &QuizHandler{service: service, validator: validator}
}

// List godoc
// @Summary List quizzes with cached statistics
// @Tags Quizzes
// @Produce json
// @Param category query string false "ONLINE_AUTO or OFFLINE_MANUAL"
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /quizzes [get]
func (h *QuizHandler) List(c *gin.Context) {
	page, size, err := pageQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.QuizFilter{
		Category: models.QuizCategory(strings.ToUpper(strings.TrimSpace(c.Query("category")))),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
	}
	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination(page, size, total))
}

// Get godoc
// @Summary Get quiz
// @Tags Quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	quiz, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Create godoc
// @Summary Create quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body dto.QuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	var req dto.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.validator.Error(err, "invalid payload"))
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// Update godoc
// @Summary Update quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param payload body dto.QuizRequest true "Quiz payload"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id} [put]
func (h *QuizHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.validator.Error(err, "invalid payload"))
		return
	}
	quiz, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Delete godoc
// @Summary Delete quiz
// @Tags Quizzes
// @Param id path int true "Quiz ID"
// @Success 204
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
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
