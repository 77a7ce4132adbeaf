package models

import "time"

// QuizAttempt is one row of user_quiz_records.
type QuizAttempt struct {
	ID           int64       `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"user_id"`
	QuizID       int64       `db:"quiz_id" json:"quiz_id"`
	CourseHourID int64       `db:"course_hour_id" json:"course_hour_id"`
	Score        int         `db:"score" json:"score"`
	Passed       bool        `db:"is_passed" json:"is_passed"`
	Comment      string      `db:"comment" json:"comment"`
	Answers      AnswerSheet `db:"user_answers" json:"answers"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// OnlineAttemptParams describes an auto-graded submission to append.
type OnlineAttemptParams struct {
	UserID       string
	QuizID       int64
	CourseHourID int64
	Score        int
	Passed       bool
	Answers      AnswerSheet
}

// ManualScoreParams describes an official score to overwrite or create. A nil TakenAt means now.
type ManualScoreParams struct {
	UserID  string
	QuizID  int64
	Score   int
	Passed  bool
	Comment string
	TakenAt *time.Time
}

// TopScore is one leaderboard entry.
type TopScore struct {
	Rank        int       `db:"rank" json:"rank"`
	UserID      string    `db:"user_id" json:"user_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	QuizID      int64     `db:"quiz_id" json:"quiz_id"`
	QuizTitle   *string   `db:"quiz_title" json:"quiz_title,omitempty"`
	Score       int       `db:"score" json:"score"`
	SubmittedAt time.Time `db:"created_at" json:"submitted_at"`
}

// SubmissionResult is returned after an online quiz is graded and stored.
type SubmissionResult struct {
	AttemptID int64 `json:"attempt_id"`
	Score     int   `json:"score"`
	Passed    bool  `json:"is_passed"`
}

// CourseHourCompletion records that a learner finished a course hour.
type CourseHourCompletion struct {
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   int64     `db:"course_id" json:"course_id"`
	HourID     int64     `db:"hour_id" json:"hour_id"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
