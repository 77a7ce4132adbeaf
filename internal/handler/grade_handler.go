package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/internal/service"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/response"
)

type gradeAnalyzer interface {
	Compute(ctx context.Context, quizID int64, forceRefresh bool) (*models.GradeAnalysis, error)
}

type gradeExporter interface {
	Export(ctx context.Context, quizID int64, format string) (*service.ExportFile, error)
}

type scoreImporter interface {
	ImportFile(ctx context.Context, quizID int64, operatorID, filename string, r io.Reader) (*models.ImportResult, error)
}

type trendAssembler interface {
	TrendFromStrings(ctx context.Context, userID, start, end string) (*models.LearnerTrend, error)
}

// GradeHandler exposes grade analysis, offline imports and learner trends.
type GradeHandler struct {
	analyzer    gradeAnalyzer
	exporter    gradeExporter
	importer    scoreImporter
	trends      trendAssembler
	maxFileSize int64
}

// NewGradeHandler constructs handler. maxFileSize caps multipart uploads in bytes.
func NewGradeHandler(analyzer gradeAnalyzer, exporter gradeExporter, importer scoreImporter, trends trendAssembler, maxFileSize int64) *GradeHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 << 20
	}
	return &GradeHandler{analyzer: analyzer, exporter: exporter, importer: importer, trends: trends, maxFileSize: maxFileSize}
}

// Analysis godoc
// @Summary Grade statistics for a quiz
// @Tags Grades
// @Produce json
// @Param quizId path int true "Quiz ID"
// @Param refresh query bool false "Persist even when there are no participants"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/analysis/{quizId} [get]
func (h *GradeHandler) Analysis(c *gin.Context) {
	quizID, err := int64Param(c, "quizId")
	if err != nil {
		response.Error(c, err)
		return
	}
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	analysis, err := h.analyzer.Compute(c.Request.Context(), quizID, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Export godoc
// @Summary Download the quiz score sheet
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param quizId path int true "Quiz ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /grades/analysis/{quizId}/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	quizID, err := int64Param(c, "quizId")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), quizID, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Import godoc
// @Summary Import offline exam scores
// @Tags Grades
// @Accept multipart/form-data
// @Produce json
// @Param quiz_id formData int true "Offline quiz ID"
// @Param file formData file true "Score sheet (.xlsx or .csv): account, score, comment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades/import [post]
func (h *GradeHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+1<<20)

	if err := c.Request.ParseMultipartForm(h.maxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload"))
		return
	}
	quizID, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("quiz_id")), 10, 64)
	if err != nil || quizID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "quiz_id is required"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if header.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	result, err := h.importer.ImportFile(c.Request.Context(), quizID, currentUserID(c), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Trend godoc
// @Summary Score trend of a learner
// @Tags Grades
// @Produce json
// @Param userId path string true "Learner ID"
// @Param start query string false "Lower bound (date or date-time)"
// @Param end query string false "Upper bound (date or date-time, dates are inclusive)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/students/{userId}/trend [get]
func (h *GradeHandler) Trend(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId is required"))
		return
	}
	trend, err := h.trends.TrendFromStrings(c.Request.Context(), userID, c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trend, nil)
}
