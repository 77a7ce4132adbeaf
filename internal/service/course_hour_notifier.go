package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/pkg/jobs"
)

// JobTypeCourseHourCompleted is queued when a learner passes the quiz of a course hour.
const JobTypeCourseHourCompleted = "course_hour.completed"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

type courseHourRecorder interface {
	MarkFinished(ctx context.Context, completion models.CourseHourCompletion) error
}

// CourseHourNotifier hands course-hour completions to the background queue.
type CourseHourNotifier struct {
	queue  jobEnqueuer
	now    func() time.Time
	logger *zap.Logger
}

// NewCourseHourNotifier constructs CourseHourNotifier.
func NewCourseHourNotifier(queue jobEnqueuer, logger *zap.Logger) *CourseHourNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseHourNotifier{queue: queue, now: time.Now, logger: logger}
}

// NotifyCompleted enqueues the completion. Failures are logged and never surface to the caller.
func (n *CourseHourNotifier) NotifyCompleted(userID string, courseID, hourID int64) {
	if n == nil || n.queue == nil || hourID <= 0 {
		return
	}
	completion := models.CourseHourCompletion{UserID: userID, CourseID: courseID, HourID: hourID, FinishedAt: n.now().UTC()}
	jobID, err := n.queue.Enqueue(jobs.Job{Type: JobTypeCourseHourCompleted, Payload: completion})
	if err != nil {
		n.logger.Warn("enqueue course hour completion failed", zap.String("user_id", userID), zap.Int64("hour_id", hourID), zap.Error(err))
		return
	}
	n.logger.Debug("course hour completion queued", zap.String("job_id", jobID), zap.String("user_id", userID), zap.Int64("hour_id", hourID))
}

// CourseHourCompletionHandler persists queued completions.
func CourseHourCompletionHandler(store courseHourRecorder) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		completion, ok := job.Payload.(models.CourseHourCompletion)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
		}
		return store.MarkFinished(ctx, completion)
	}
}
