package habit

import "time"

// maxStreakWalk bounds the backward walk so anomalous data cannot loop forever.
const maxStreakWalk = 1000

// Streak computes the current consecutive-day streak for a set of completion
// days. Input may be unordered, contain duplicates, or hold timestamp-formatted
// values; entries that fail to normalize are skipped.
//
// The walk anchors at today when today is in the set. Otherwise yesterday
// anchors if present — the grace-day rule: a streak is not shown as broken
// merely because the user has not acted yet today. With neither present the
// streak is 0.
func Streak(days []string, today time.Time) int {
	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		day, err := Normalize(d)
		if err != nil {
			continue
		}
		set[day] = struct{}{}
	}
	if len(set) == 0 {
		return 0
	}

	anchor := startOfDay(today)
	if _, ok := set[Day(anchor)]; !ok {
		yesterday := anchor.AddDate(0, 0, -1)
		if _, ok := set[Day(yesterday)]; !ok {
			return 0
		}
		anchor = yesterday
	}

	count := 0
	for i := 0; i < maxStreakWalk; i++ {
		if _, ok := set[Day(anchor)]; !ok {
			break
		}
		count++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return count
}
