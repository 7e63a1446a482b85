package challenge

import (
	"math"
	"sort"
	"time"
)

// progressLookbackDays bounds how much log history feeds the aggregates.
const progressLookbackDays = 365

// ProgressSummary holds the five derived challenge aggregates.
type ProgressSummary struct {
	CurrentStreak    int
	MaxStreak        int
	TotalSuccessDays int
	AchievementRate  float64
	ProgressRate     float64
}

// SummarizeProgress recomputes the derived aggregates from the log
// window. logs may arrive in any order; today is the reference date for
// streak anchoring and progress-rate computation.
//
// The current streak is anchored to today: a challenge with no log for
// today scores 0 even with a long achieved run ending yesterday. This
// is deliberate and must not be changed to anchor on the most recent
// log date.
func SummarizeProgress(ch *Challenge, logs []ChallengeDailyLog, today time.Time) ProgressSummary {
	sorted := make([]ChallengeDailyLog, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LogDate.Before(sorted[j].LogDate)
	})

	achievedByDate := make(map[time.Time]bool, len(sorted))
	for _, l := range sorted {
		achievedByDate[dateOnly(l.LogDate)] = l.IsAchieved
	}

	summary := ProgressSummary{
		CurrentStreak: currentStreak(achievedByDate, today),
		MaxStreak:     maxStreak(sorted),
		ProgressRate:  progressRate(ch, today),
	}

	for _, l := range sorted {
		if l.IsAchieved {
			summary.TotalSuccessDays++
		}
	}
	if len(sorted) > 0 {
		summary.AchievementRate = round2(float64(summary.TotalSuccessDays) / float64(len(sorted)) * 100)
	}

	return summary
}

// currentStreak walks backwards day by day from today, counting
// consecutive achieved logs, and stops at the first missing date or
// non-achieved day.
func currentStreak(achievedByDate map[time.Time]bool, today time.Time) int {
	streak := 0
	expected := dateOnly(today)
	for {
		achieved, ok := achievedByDate[expected]
		if !ok || !achieved {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// maxStreak is a single forward scan over the chronologically ordered
// logs: the counter increments on achieved days and resets otherwise.
func maxStreak(sorted []ChallengeDailyLog) int {
	best, run := 0, 0
	for _, l := range sorted {
		if l.IsAchieved {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// progressRate is the share of the challenge duration already elapsed:
// 0 before the start date, 100 after the end date, otherwise the
// inclusive elapsed-day count over the duration, capped at 100.
func progressRate(ch *Challenge, today time.Time) float64 {
	day := dateOnly(today)
	start := dateOnly(ch.StartDate)
	end := dateOnly(ch.EndDate)

	if day.Before(start) {
		return 0
	}
	if day.After(end) {
		return 100
	}
	if ch.DurationDays <= 0 {
		return 0
	}

	elapsed := int(day.Sub(start).Hours()/24) + 1
	return round2(math.Min(100, float64(elapsed)/float64(ch.DurationDays)*100))
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
