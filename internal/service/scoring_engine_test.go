package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
)

func fivePointQuiz() (*models.Quiz, []models.Question) {
	quiz := &models.Quiz{ID: 1, Category: models.QuizCategoryOnlineAuto, QuestionIDs: models.QuestionIDList{1, 2, 3, 4, 5}, TotalScore: 25, PassScore: 15}
	questions := []models.Question{
		{ID: 1, Type: models.QuestionTypeSingle, Answer: models.StringList{"A"}, Score: 5},
		{ID: 2, Type: models.QuestionTypeMultiple, Answer: models.StringList{"A", "C"}, Score: 5},
		{ID: 3, Type: models.QuestionTypeTrueFalse, Answer: models.StringList{"TRUE"}, Score: 5},
		{ID: 4, Type: models.QuestionTypeSingle, Answer: models.StringList{"B"}, Score: 5},
		{ID: 5, Type: models.QuestionTypeMultiple, Answer: models.StringList{"B", "D"}, Score: 5},
	}
	return quiz, questions
}

func TestScoreThreeOfFiveCorrectPasses(t *testing.T) {
	quiz, questions := fivePointQuiz()
	engine := NewScoringEngine()

	result, err := engine.Score(quiz, questions, map[int64][]string{
		1: {"A"},
		2: {"C", "A"},
		3: {" TRUE "},
		4: {"C"},
		5: {"B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, []int64{1, 2, 3}, result.Correct)
}

func TestScoreIsDeterministic(t *testing.T) {
	quiz, questions := fivePointQuiz()
	engine := NewScoringEngine()
	answers := map[int64][]string{1: {"A"}, 2: {"A", "C"}, 5: {"D", "B"}}

	first, err := engine.Score(quiz, questions, answers)
	require.NoError(t, err)
	second, err := engine.Score(quiz, questions, answers)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreDiscardsForeignAnswersAndNormalises(t *testing.T) {
	quiz, questions := fivePointQuiz()
	result, err := NewScoringEngine().Score(quiz, questions, map[int64][]string{
		1:  {"", "A", "A"},
		2:  {"A", "A", "C", " "},
		99: {"A"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, []int64{2}, result.Correct)
	assert.NotContains(t, result.Answers, int64(99))
	assert.Equal(t, []string{"A", "A"}, result.Answers[1])
	assert.Equal(t, []string{"A", "C"}, result.Answers[2])
}

func TestScoreSingleAnswerRepeatedValueScoresNothing(t *testing.T) {
	quiz, questions := fivePointQuiz()
	cases := map[string]map[int64][]string{
		"single":     {1: {"A", " A "}},
		"true false": {3: {"TRUE", "TRUE"}},
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := NewScoringEngine().Score(quiz, questions, answers)
			require.NoError(t, err)
			assert.Equal(t, 0, result.Score)
			assert.False(t, result.Passed)
		})
	}
}

func TestScoreMultipleCollapsesRepeats(t *testing.T) {
	quiz, questions := fivePointQuiz()
	result, err := NewScoringEngine().Score(quiz, questions, map[int64][]string{2: {"C", " A", "C"}})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Score)
	assert.Equal(t, []string{"C", "A"}, result.Answers[2])
}

func TestScoreSingleRejectsExtraValues(t *testing.T) {
	quiz, questions := fivePointQuiz()
	result, err := NewScoringEngine().Score(quiz, questions, map[int64][]string{1: {"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func TestScoreMultipleRequiresExactSet(t *testing.T) {
	quiz, questions := fivePointQuiz()
	result, err := NewScoringEngine().Score(quiz, questions, map[int64][]string{2: {"A", "B", "C"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func TestScoreEmptyCanonicalNeverMatches(t *testing.T) {
	quiz := &models.Quiz{ID: 2, QuestionIDs: models.QuestionIDList{1}, PassScore: 0}
	questions := []models.Question{{ID: 1, Type: models.QuestionTypeMultiple, Answer: models.StringList{}, Score: 5}}

	result, err := NewScoringEngine().Score(quiz, questions, map[int64][]string{1: {}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.True(t, result.Passed)
}

func TestScoreMissingQuestionIsDataIntegrity(t *testing.T) {
	quiz, questions := fivePointQuiz()
	_, err := NewScoringEngine().Score(quiz, questions[:3], map[int64][]string{1: {"A"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDataIntegrity))

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "4,5", appErr.Details["question_ids"])
}
