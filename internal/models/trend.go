package models

import "time"

// TrendPoint is one quiz outcome in a learner's score history.
type TrendPoint struct {
	AttemptID   int64        `json:"attempt_id"`
	QuizID      int64        `json:"quiz_id"`
	QuizTitle   string       `json:"quiz_title"`
	Category    QuizCategory `json:"category"`
	ExamDate    *time.Time   `json:"exam_date,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Score       int          `json:"score"`
	Passed      bool         `json:"is_passed"`
}

// LearnerTrend wraps the ordered points with the learner they belong to.
type LearnerTrend struct {
	UserID   string       `json:"user_id"`
	FullName string       `json:"full_name"`
	Points   []TrendPoint `json:"points"`
}
