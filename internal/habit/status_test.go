package habit

import (
	"testing"
	"time"

	"github.com/duet-app/duet/internal/model"
)

var statusToday = time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)

func completionsFor(days ...string) []model.TaskCompletion {
	out := make([]model.TaskCompletion, len(days))
	for i, d := range days {
		out[i] = model.TaskCompletion{ID: int64(i + 1), CompletedOn: d}
	}
	return out
}

func TestProjectTaskEmpty(t *testing.T) {
	status := ProjectTask(nil, statusToday)
	if status.CompletedToday {
		t.Error("expected not completed today")
	}
	if status.CurrentStreak != 0 || status.TotalCompletions != 0 {
		t.Errorf("streak = %d, total = %d, want 0/0", status.CurrentStreak, status.TotalCompletions)
	}
	if status.TodaysCompletionID != nil {
		t.Errorf("todays completion id = %v, want nil", *status.TodaysCompletionID)
	}
}

func TestProjectTaskCompletedToday(t *testing.T) {
	status := ProjectTask(completionsFor("2026-03-14", "2026-03-15"), statusToday)
	if !status.CompletedToday {
		t.Error("expected completed today")
	}
	if status.TodaysCompletionID == nil || *status.TodaysCompletionID != 2 {
		t.Errorf("todays completion id = %v, want 2", status.TodaysCompletionID)
	}
	if status.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", status.CurrentStreak)
	}
	if status.TotalCompletions != 2 {
		t.Errorf("total = %d, want 2", status.TotalCompletions)
	}
}

// The checkbox and the streak answer different questions: a completion only
// yesterday keeps the streak alive while today reads unchecked.
func TestProjectTaskGraceDayDisagreement(t *testing.T) {
	status := ProjectTask(completionsFor("2026-03-13", "2026-03-14"), statusToday)
	if status.CompletedToday {
		t.Error("expected not completed today")
	}
	if status.TodaysCompletionID != nil {
		t.Errorf("todays completion id = %v, want nil", *status.TodaysCompletionID)
	}
	if status.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", status.CurrentStreak)
	}
}

func TestProjectTaskTotalCountsAllRows(t *testing.T) {
	status := ProjectTask(completionsFor("2026-01-01", "2026-02-10", "2026-03-15"), statusToday)
	if status.TotalCompletions != 3 {
		t.Errorf("total = %d, want 3", status.TotalCompletions)
	}
	if status.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", status.CurrentStreak)
	}
}

func TestProjectTaskTimestampCompletedOn(t *testing.T) {
	completions := []model.TaskCompletion{
		{ID: 7, CompletedOn: "2026-03-15T09:30:00Z"},
	}
	status := ProjectTask(completions, statusToday)
	if !status.CompletedToday {
		t.Error("expected completed today")
	}
	if status.TodaysCompletionID == nil || *status.TodaysCompletionID != 7 {
		t.Errorf("todays completion id = %v, want 7", status.TodaysCompletionID)
	}
}
