package habit

import (
	"time"

	"github.com/duet-app/duet/internal/model"
)

// TaskStatus is the per-task view model shown next to a personal task.
type TaskStatus struct {
	CompletedToday     bool   `json:"completed_today"`
	TodaysCompletionID *int64 `json:"todays_completion_id,omitempty"`
	CurrentStreak      int    `json:"current_streak"`
	TotalCompletions   int    `json:"total_completions"`
}

// ProjectTask joins a task's completions with the streak calculator.
// CompletedToday is an exact match on today's date, independent of the
// streak's grace-day anchor: the two can legitimately disagree (yesterday
// keeps the streak alive while today's checkbox is still unticked).
func ProjectTask(completions []model.TaskCompletion, today time.Time) TaskStatus {
	todayKey := Day(today)
	status := TaskStatus{TotalCompletions: len(completions)}

	days := make([]string, 0, len(completions))
	for _, c := range completions {
		days = append(days, c.CompletedOn)
		day, err := Normalize(c.CompletedOn)
		if err != nil {
			continue
		}
		if day == todayKey && status.TodaysCompletionID == nil {
			id := c.ID
			status.CompletedToday = true
			status.TodaysCompletionID = &id
		}
	}

	status.CurrentStreak = Streak(days, today)
	return status
}
