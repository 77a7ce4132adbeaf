package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/orderedset"
)

// answerEvaluator decides whether trimmed, non-blank submitted values match the canonical answer.
type answerEvaluator interface {
	Correct(canonical *orderedset.Set[string], submitted []string) bool
}

// singleAnswerEvaluator serves SINGLE and TRUE_FALSE questions.
// Repeated values count as several answers and score nothing.
type singleAnswerEvaluator struct{}

func (singleAnswerEvaluator) Correct(canonical *orderedset.Set[string], submitted []string) bool {
	if canonical.Len() != 1 || len(submitted) != 1 {
		return false
	}
	return canonical.Values()[0] == submitted[0]
}

// multipleAnswerEvaluator requires the exact canonical set, order and repeats ignored.
type multipleAnswerEvaluator struct{}

func (multipleAnswerEvaluator) Correct(canonical *orderedset.Set[string], submitted []string) bool {
	return canonical.Len() > 0 && canonical.Equal(orderedset.New(submitted...))
}

// ScoreResult is the outcome of grading one submission.
type ScoreResult struct {
	Score   int
	Passed  bool
	Correct []int64
	// Answers holds only the quiz's own questions with normalised values.
	Answers models.AnswerSheet
}

// ScoringEngine grades submissions. It performs no I/O.
type ScoringEngine struct {
	evaluators map[models.QuestionType]answerEvaluator
}

// NewScoringEngine registers the evaluator for each question type.
func NewScoringEngine() *ScoringEngine {
	single := singleAnswerEvaluator{}
	return &ScoringEngine{evaluators: map[models.QuestionType]answerEvaluator{
		models.QuestionTypeSingle:    single,
		models.QuestionTypeTrueFalse: single,
		models.QuestionTypeMultiple:  multipleAnswerEvaluator{},
	}}
}

// Score grades answers against the quiz. Answers for questions outside the quiz are dropped.
// Every quiz question must be present in questions, otherwise a DATA_INTEGRITY error is returned.
func (e *ScoringEngine) Score(quiz *models.Quiz, questions []models.Question, answers map[int64][]string) (*ScoreResult, error) {
	byID := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := &ScoreResult{Answers: models.AnswerSheet{}}
	var missing []string
	for _, id := range orderedset.New([]int64(quiz.QuestionIDs)...).Values() {
		question, ok := byID[id]
		if !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
			continue
		}
		evaluator, ok := e.evaluators[question.Type]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("question %d has unsupported type %q", question.ID, question.Type))
		}

		submitted, answered := answers[id]
		trimmed := trimValues(submitted)
		if answered {
			if question.Type == models.QuestionTypeMultiple {
				result.Answers[id] = orderedset.New(trimmed...).Values()
			} else {
				result.Answers[id] = trimmed
			}
		}
		if evaluator.Correct(normaliseValues(question.Answer), trimmed) {
			result.Score += question.Score
			result.Correct = append(result.Correct, id)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("quiz %d references missing questions", quiz.ID)),
			map[string]string{"question_ids": strings.Join(missing, ",")},
		)
	}

	result.Passed = result.Score >= quiz.PassScore
	return result, nil
}

// trimValues trims values and drops blanks, keeping repeats.
func trimValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// normaliseValues trims values, drops blanks and collapses duplicates in first-seen order.
func normaliseValues(values []string) *orderedset.Set[string] {
	return orderedset.New(trimValues(values)...)
}
