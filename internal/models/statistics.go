package models

import "time"

// Score bands in display order. The last band is open ended.
const (
	Band0To60   = "0-60"
	Band60To70  = "60-70"
	Band70To80  = "70-80"
	Band80To90  = "80-90"
	Band90To100 = "90-100"
)

// BandCount is one histogram bucket.
type BandCount struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

// EmptyDistribution returns every band with a zero count.
func EmptyDistribution() ScoreDistribution {
	return ScoreDistribution{
		{Band: Band0To60},
		{Band: Band60To70},
		{Band: Band70To80},
		{Band: Band80To90},
		{Band: Band90To100},
	}
}

// Total sums the band counts.
func (d ScoreDistribution) Total() int {
	total := 0
	for _, b := range d {
		total += b.Count
	}
	return total
}

// GradeStatistics is the cached per-quiz aggregate stored in grade_statistics.
type GradeStatistics struct {
	ID               int64             `db:"id" json:"id"`
	QuizID           int64             `db:"quiz_id" json:"quiz_id"`
	ParticipantCount int               `db:"participant_count" json:"participant_count"`
	AvgScore         float64           `db:"avg_score" json:"average_score"`
	MaxScore         int               `db:"max_score" json:"max_score"`
	MinScore         int               `db:"min_score" json:"min_score"`
	MedianScore      float64           `db:"median_score" json:"median_score"`
	PassRate         float64           `db:"pass_rate" json:"pass_rate"`
	Distribution     ScoreDistribution `db:"distribution" json:"distribution"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// GradeAnalysis is the statistics read view for one quiz.
type GradeAnalysis struct {
	QuizID            int64             `json:"quiz_id"`
	QuizTitle         string            `json:"quiz_title"`
	Category          QuizCategory      `json:"category"`
	TotalScore        int               `json:"total_score"`
	PassScore         int               `json:"pass_score"`
	ExamDate          *time.Time        `json:"exam_date,omitempty"`
	ParticipantCount  int               `json:"participant_count"`
	AvgScore          float64           `json:"average_score"`
	MaxScore          int               `json:"max_score"`
	MinScore          int               `json:"min_score"`
	MedianScore       float64           `json:"median_score"`
	PassRate          float64           `json:"pass_rate"`
	Distribution      ScoreDistribution `json:"distribution"`
	UpdatedAt         *time.Time        `json:"updated_at,omitempty"`
	PreviousUpdatedAt *time.Time        `json:"previous_updated_at,omitempty"`
	Refreshed         bool              `json:"refreshed"`
}

// ImportResult summarises an offline score upload.
type ImportResult struct {
	BatchID             string   `json:"batch_id"`
	QuizID              int64    `json:"quiz_id"`
	TotalRows           int      `json:"total_rows"`
	SuccessCount        int      `json:"success_count"`
	SkippedCount        int      `json:"skipped_count"`
	Errors              []string `json:"errors"`
	StatisticsRefreshed bool     `json:"statistics_refreshed"`
	ArchivedAs          string   `json:"archived_as,omitempty"`
}

// ScoreRow is one parsed line of an offline score feed. Score holds the raw cell text.
type ScoreRow struct {
	Account string
	Score   string
	Comment string
}

// ScoreSheetEntry is one learner line in an exported score sheet.
type ScoreSheetEntry struct {
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Score       int       `json:"score"`
	Passed      bool      `json:"is_passed"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}
