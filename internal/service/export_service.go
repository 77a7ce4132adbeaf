package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/export"
)

// Export formats accepted by ExportService.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var scoreSheetHeaders = []string{"Rank", "Name", "Email", "Score", "Passed", "Comment", "Submitted At"}

type learnerLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered score sheet ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a quiz's score sheet with its distribution summary.
type ExportService struct {
	quizzes  quizReader
	attempts quizAttemptLister
	users    learnerLister
	csv      csvRenderer
	pdf      pdfRenderer
	location *time.Location
	logger   *zap.Logger
}

// NewExportService constructs ExportService. Nil renderers fall back to the package exporters.
func NewExportService(quizzes quizReader, attempts quizAttemptLister, users learnerLister, csv csvRenderer, pdf pdfRenderer, loc *time.Location, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{quizzes: quizzes, attempts: attempts, users: users, csv: csv, pdf: pdf, location: loc, logger: logger}
}

// ScoreSheet returns each learner's latest attempt ordered by score, highest first.
func (s *ExportService) ScoreSheet(ctx context.Context, quizID int64) (*models.Quiz, []models.ScoreSheetEntry, *models.GradeStatistics, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	attempts, err := s.attempts.AllForQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempts")
	}
	latest := latestPerLearner(attempts)

	ids := make([]string, 0, len(latest))
	for _, a := range latest {
		ids = append(ids, a.UserID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learners")
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]models.ScoreSheetEntry, 0, len(latest))
	for _, a := range latest {
		entry := models.ScoreSheetEntry{
			UserID:      a.UserID,
			Score:       a.Score,
			Passed:      a.Passed,
			Comment:     a.Comment,
			SubmittedAt: a.CreatedAt,
		}
		if u, ok := byID[a.UserID]; ok {
			entry.FullName = u.FullName
			entry.Email = u.Email
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	return quiz, entries, summarise(quizID, latest), nil
}

// Export renders the score sheet in the requested format.
func (s *ExportService) Export(ctx context.Context, quizID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	quiz, entries, stats, err := s.ScoreSheet(ctx, quizID)
	if err != nil {
		return nil, err
	}
	dataset := s.dataset(quiz, entries, stats)

	file := &ExportFile{Filename: fmt.Sprintf("quiz-%d-scores.%s", quiz.ID, format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Payload, err = s.pdf.Render(dataset)
	default:
		file.ContentType = "text/csv"
		file.Payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("score sheet exported", zap.Int64("quiz_id", quiz.ID), zap.String("format", format), zap.Int("rows", len(entries)))
	return file, nil
}

func (s *ExportService) dataset(quiz *models.Quiz, entries []models.ScoreSheetEntry, stats *models.GradeStatistics) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for i, e := range entries {
		passed := "No"
		if e.Passed {
			passed = "Yes"
		}
		rows = append(rows, map[string]string{
			"Rank":         strconv.Itoa(i + 1),
			"Name":         e.FullName,
			"Email":        e.Email,
			"Score":        strconv.Itoa(e.Score),
			"Passed":       passed,
			"Comment":      e.Comment,
			"Submitted At": e.SubmittedAt.In(s.location).Format("2006-01-02 15:04"),
		})
	}

	summary := export.Section{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Participants", strconv.Itoa(stats.ParticipantCount)},
			{"Average", strconv.FormatFloat(stats.AvgScore, 'f', 2, 64)},
			{"Highest", strconv.Itoa(stats.MaxScore)},
			{"Lowest", strconv.Itoa(stats.MinScore)},
			{"Median", strconv.FormatFloat(stats.MedianScore, 'f', 1, 64)},
			{"Pass Rate", strconv.FormatFloat(stats.PassRate, 'f', 2, 64)},
		},
	}
	distribution := export.Section{Title: "Distribution", Headers: []string{"Band", "Count"}}
	for _, b := range stats.Distribution {
		distribution.Rows = append(distribution.Rows, []string{b.Band, strconv.Itoa(b.Count)})
	}

	return export.Dataset{
		Title:    fmt.Sprintf("%s (pass %d / %d)", quiz.Title, quiz.PassScore, quiz.TotalScore),
		Headers:  scoreSheetHeaders,
		Rows:     rows,
		Sections: []export.Section{summary, distribution},
	}
}
