package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/quiz-grade-api/internal/middleware"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/response"
)

type leaderboardService interface {
	TopToday(ctx context.Context, limit int) ([]models.TopScore, bool, error)
	TopAllTime(ctx context.Context, limit int) ([]models.TopScore, bool, error)
}

// DashboardHandler serves leaderboard widgets.
type DashboardHandler struct {
	service leaderboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service leaderboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// TopScores godoc
// @Summary Top scores of today or of all time
// @Tags Dashboard
// @Produce json
// @Param scope query string false "today (default) or all"
// @Param limit query int false "Number of learners"
// @Success 200 {object} response.Envelope
// @Router /dashboard/top-scores [get]
func (h *DashboardHandler) TopScores(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	var (
		scores   []models.TopScore
		cacheHit bool
	)
	scope := strings.ToLower(strings.TrimSpace(c.DefaultQuery("scope", "today")))
	switch scope {
	case "today":
		scores, cacheHit, err = h.service.TopToday(c.Request.Context(), limit)
	case "all":
		scores, cacheHit, err = h.service.TopAllTime(c.Request.Context(), limit)
	default:
		response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "scope must be today or all"), map[string]string{"scope": scope}))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "scope", scope)
	middleware.SetProcessingTime(c, start)
	response.JSON(c, http.StatusOK, scores, nil, middleware.ExtractMeta(c))
}
