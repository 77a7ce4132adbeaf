package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	applog "github.com/noah-isme/quiz-grade-api/pkg/logger"
	"github.com/noah-isme/quiz-grade-api/pkg/spreadsheet"
)

const (
	importColumnAccount = 0
	importColumnScore   = 1
	importColumnComment = 2
	// Data rows are numbered from 2 because row 1 is the header.
	firstDataRow = 2
)

type accountResolver interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDCard(ctx context.Context, idCard string) (*models.User, error)
}

type manualScoreWriter interface {
	UpsertManualScore(ctx context.Context, params models.ManualScoreParams) (*models.QuizAttempt, error)
}

type uploadArchiver interface {
	Save(name string, data []byte) (string, error)
}

// OfflineImportService reconciles offline exam score sheets with learner records.
type OfflineImportService struct {
	quizzes     quizReader
	users       accountResolver
	attempts    manualScoreWriter
	statistics  statisticsComputer
	leaderboard leaderboardInvalidator
	metrics     *MetricsService
	archive     uploadArchiver
	maxRows     int
	logger      *zap.Logger
}

// OfflineImportDeps groups the collaborators of OfflineImportService.
type OfflineImportDeps struct {
	Quizzes     quizReader
	Users       accountResolver
	Attempts    manualScoreWriter
	Statistics  statisticsComputer
	Leaderboard leaderboardInvalidator
	Metrics     *MetricsService
	Archive     uploadArchiver
	MaxRows     int
	Logger      *zap.Logger
}

// NewOfflineImportService constructs OfflineImportService.
func NewOfflineImportService(deps OfflineImportDeps) *OfflineImportService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &OfflineImportService{
		quizzes:     deps.Quizzes,
		users:       deps.Users,
		attempts:    deps.Attempts,
		statistics:  deps.Statistics,
		leaderboard: deps.Leaderboard,
		metrics:     deps.Metrics,
		archive:     deps.Archive,
		maxRows:     deps.MaxRows,
		logger:      deps.Logger,
	}
}

// RowsFromTable maps the account, score and comment columns of an uploaded sheet.
func RowsFromTable(table spreadsheet.Table) []models.ScoreRow {
	rows := make([]models.ScoreRow, 0, len(table.Rows))
	for i := range table.Rows {
		rows = append(rows, models.ScoreRow{
			Account: table.Cell(i, importColumnAccount),
			Score:   table.Cell(i, importColumnScore),
			Comment: table.Cell(i, importColumnComment),
		})
	}
	return rows
}

// ImportFile parses an uploaded .xlsx or .csv sheet and imports its data rows.
// When an archive is configured the raw upload is kept under the batch id.
func (s *OfflineImportService) ImportFile(ctx context.Context, quizID int64, operatorID, filename string, r io.Reader) (*models.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	table, err := spreadsheet.Read(filename, bytes.NewReader(data))
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unreadable score sheet"), map[string]string{"file": err.Error()})
	}
	result, err := s.Import(ctx, quizID, operatorID, RowsFromTable(table))
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		name := fmt.Sprintf("quiz-%d/%s-%s", quizID, result.BatchID, filepath.Base(filename))
		if saved, err := s.archive.Save(name, data); err != nil {
			applog.FromContext(ctx, s.logger).Warn("archive score sheet failed", zap.String("batch_id", result.BatchID), zap.Error(err))
		} else {
			result.ArchivedAs = saved
		}
	}
	return result, nil
}

// Import applies every row independently and returns the tally. Row problems are reported in
// the result, not as an error. Statistics are recomputed afterwards whatever the outcome.
func (s *OfflineImportService) Import(ctx context.Context, quizID int64, operatorID string, rows []models.ScoreRow) (*models.ImportResult, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	if quiz.Category != models.QuizCategoryOfflineManual {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only offline quizzes accept score imports")
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("import is limited to %d rows", s.maxRows))
	}

	result := &models.ImportResult{
		BatchID:   uuid.NewString(),
		QuizID:    quiz.ID,
		TotalRows: len(rows),
		Errors:    []string{},
	}
	log := applog.FromContext(ctx, s.logger).With(zap.String("batch_id", result.BatchID), zap.Int64("quiz_id", quiz.ID), zap.String("operator_id", operatorID))

	for i, row := range rows {
		rowNumber := i + firstDataRow
		skipped, rowErr := s.applyRow(ctx, log, quiz, row)
		switch {
		case skipped:
			result.SkippedCount++
		case rowErr != "":
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNumber, rowErr))
		default:
			result.SuccessCount++
		}
	}

	s.metrics.RecordImportRows("success", result.SuccessCount)
	s.metrics.RecordImportRows("skipped", result.SkippedCount)
	s.metrics.RecordImportRows("error", len(result.Errors))

	result.StatisticsRefreshed = true
	if _, err := s.statistics.Compute(ctx, quiz.ID, true); err != nil {
		result.StatisticsRefreshed = false
		log.Error("statistics recompute after import failed", zap.Error(err))
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	log.Info("offline scores imported",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("success", result.SuccessCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// applyRow reports either a skip, a row error message, or success (false, "").
func (s *OfflineImportService) applyRow(ctx context.Context, log *zap.Logger, quiz *models.Quiz, row models.ScoreRow) (bool, string) {
	account := strings.TrimSpace(row.Account)
	if account == "" {
		return true, ""
	}

	rawScore := strings.TrimSpace(row.Score)
	if rawScore == "" {
		return false, "missing score"
	}
	value, err := strconv.ParseFloat(rawScore, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return false, "invalid score"
	}
	score := int(math.Floor(value + 0.5))
	if score < 0 {
		return false, "score must not be negative"
	}

	user, err := s.resolveAccount(ctx, account)
	if err != nil {
		log.Warn("account lookup failed", zap.String("account", account), zap.Error(err))
		return false, "failed to resolve account"
	}
	if user == nil {
		return false, "account not found"
	}

	_, err = s.attempts.UpsertManualScore(ctx, models.ManualScoreParams{
		UserID:  user.ID,
		QuizID:  quiz.ID,
		Score:   score,
		Passed:  score >= quiz.PassScore,
		Comment: row.Comment,
		TakenAt: quiz.ExamDate,
	})
	if err != nil {
		log.Warn("save imported score failed", zap.String("user_id", user.ID), zap.Error(err))
		return false, "failed to save score"
	}
	return false, ""
}

// resolveAccount tries an exact email match, then an exact id card match. (nil, nil) means no learner.
func (s *OfflineImportService) resolveAccount(ctx context.Context, account string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, account)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	user, err = s.users.FindByIDCard(ctx, account)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return nil, nil
}
