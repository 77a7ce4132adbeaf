package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/quiz-grade-api/internal/dto"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/response"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type submissionService interface {
	Submit(ctx context.Context, userID string, quizID int64, req dto.SubmissionRequest) (*models.SubmissionResult, error)
	LatestForCourseHour(ctx context.Context, userID string, courseHourID int64) (*models.QuizAttempt, error)
}

// SubmissionHandler accepts online quiz answers from authenticated learners.
type SubmissionHandler struct {
	service   submissionService
	validator *validation.Validator
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService, validator *validation.Validator) *SubmissionHandler {
	if validator == nil {
		validator = validation.New()
	}
	return &SubmissionHandler{service: service, validator: validator}
}

// Submit godoc
// @Summary Submit answers for an online quiz
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quiz ID"
// @Param payload body dto.SubmissionRequest true "Answers keyed by question id"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /quizzes/{id}/submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	quizID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.validator.Error(err, "invalid payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), userID, quizID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Latest godoc
// @Summary Latest attempt of the caller for a course hour
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quiz ID"
// @Param course_hour_id query int true "Course hour ID"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/attempts/latest [get]
func (h *SubmissionHandler) Latest(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courseHourID, err := intQuery(c, "course_hour_id", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	attempt, err := h.service.LatestForCourseHour(c.Request.Context(), userID, int64(courseHourID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempt, nil)
}
