package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/quiz-grade-api/internal/middleware"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func currentUserID(c *gin.Context) string {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return ""
	}
	return claims.UserID
}

// int64Param reads a positive numeric path parameter.
func int64Param(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid "+name), map[string]string{name: raw})
	}
	return id, nil
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid "+name), map[string]string{name: raw})
	}
	return value, nil
}

func pageQuery(c *gin.Context) (int, int, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := intQuery(c, "page_size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, nil
}

func pagination(page, size, total int) *response.Pagination {
	return &response.Pagination{Page: page, PageSize: size, TotalCount: total}
}
