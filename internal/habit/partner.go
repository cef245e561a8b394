package habit

import (
	"sort"
	"time"

	"github.com/duet-app/duet/internal/model"
)

// JointDays returns the sorted set of days on which both participants
// completed. Symmetric: swapping the arguments yields the same result.
func JointDays(a, b []model.PartnerTaskCompletion) []string {
	first := make(map[string]struct{}, len(a))
	for _, c := range a {
		day, err := Normalize(c.CompletionDate)
		if err != nil {
			continue
		}
		first[day] = struct{}{}
	}

	joint := make(map[string]struct{})
	for _, c := range b {
		day, err := Normalize(c.CompletionDate)
		if err != nil {
			continue
		}
		if _, ok := first[day]; ok {
			joint[day] = struct{}{}
		}
	}

	days := make([]string, 0, len(joint))
	for d := range joint {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// PartnerStatus is the per-task view model for a partner task, evaluated
// from one participant's perspective.
type PartnerStatus struct {
	CompletedToday        bool   `json:"completed_today"`
	YouCompletedToday     bool   `json:"you_completed_today"`
	PartnerCompletedToday bool   `json:"partner_completed_today"`
	TodaysCompletionID    *int64 `json:"todays_completion_id,omitempty"`
	CurrentStreak         int    `json:"current_streak"`
	TotalCompletions      int    `json:"total_completions"`
}

// ProjectPartner computes joint-day state for an accepted partner task.
// Streak credit and totals count only days both participants completed.
// Tasks in any status other than accepted contribute nothing regardless
// of the underlying completion rows.
func ProjectPartner(task model.PartnerTask, yours, partners []model.PartnerTaskCompletion, today time.Time) PartnerStatus {
	if task.Status != model.PartnerStatusAccepted {
		return PartnerStatus{}
	}

	todayKey := Day(today)
	status := PartnerStatus{}

	for _, c := range yours {
		day, err := Normalize(c.CompletionDate)
		if err != nil {
			continue
		}
		if day == todayKey && status.TodaysCompletionID == nil {
			id := c.ID
			status.YouCompletedToday = true
			status.TodaysCompletionID = &id
		}
	}
	for _, c := range partners {
		day, err := Normalize(c.CompletionDate)
		if err != nil {
			continue
		}
		if day == todayKey {
			status.PartnerCompletedToday = true
			break
		}
	}
	status.CompletedToday = status.YouCompletedToday && status.PartnerCompletedToday

	joint := JointDays(yours, partners)
	status.TotalCompletions = len(joint)
	status.CurrentStreak = Streak(joint, today)
	return status
}
