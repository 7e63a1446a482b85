package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func logOn(date time.Time, achieved bool) ChallengeDailyLog {
	return ChallengeDailyLog{LogDate: date, IsAchieved: achieved}
}

func TestSummarizeProgressStreaks(t *testing.T) {
	today := day(2026, 3, 10)
	ch := &Challenge{
		StartDate:    day(2026, 3, 1),
		EndDate:      day(2026, 3, 30),
		DurationDays: 30,
	}

	tests := []struct {
		name            string
		logs            []ChallengeDailyLog
		wantCurrent     int
		wantMax         int
		wantSuccessDays int
		wantAchievement float64
	}{
		{
			name:            "No logs",
			logs:            nil,
			wantCurrent:     0,
			wantMax:         0,
			wantSuccessDays: 0,
			wantAchievement: 0,
		},
		{
			name: "Unbroken run ending today",
			logs: []ChallengeDailyLog{
				logOn(day(2026, 3, 8), true),
				logOn(day(2026, 3, 9), true),
				logOn(day(2026, 3, 10), true),
			},
			wantCurrent:     3,
			wantMax:         3,
			wantSuccessDays: 3,
			wantAchievement: 100,
		},
		{
			name: "Run ending yesterday scores zero current streak",
			logs: []ChallengeDailyLog{
				logOn(day(2026, 3, 5), true),
				logOn(day(2026, 3, 6), true),
				logOn(day(2026, 3, 7), true),
				logOn(day(2026, 3, 8), true),
				logOn(day(2026, 3, 9), true),
			},
			wantCurrent:     0,
			wantMax:         5,
			wantSuccessDays: 5,
			wantAchievement: 100,
		},
		{
			name: "Non-achieved today breaks the current streak",
			logs: []ChallengeDailyLog{
				logOn(day(2026, 3, 8), true),
				logOn(day(2026, 3, 9), true),
				logOn(day(2026, 3, 10), false),
			},
			wantCurrent:     0,
			wantMax:         2,
			wantSuccessDays: 2,
			wantAchievement: 66.67,
		},
		{
			name: "Current streak stops at the first gap",
			logs: []ChallengeDailyLog{
				logOn(day(2026, 3, 6), true),
				logOn(day(2026, 3, 7), true),
				// no log for the 8th
				logOn(day(2026, 3, 9), true),
				logOn(day(2026, 3, 10), true),
			},
			wantCurrent:     2,
			wantMax:         4,
			wantSuccessDays: 4,
			wantAchievement: 100,
		},
		{
			name: "Out of order input is sorted before scanning",
			logs: []ChallengeDailyLog{
				logOn(day(2026, 3, 10), true),
				logOn(day(2026, 3, 8), true),
				logOn(day(2026, 3, 9), false),
				logOn(day(2026, 3, 7), true),
			},
			wantCurrent:     1,
			wantMax:         2,
			wantSuccessDays: 3,
			wantAchievement: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeProgress(ch, tt.logs, today)
			assert.Equal(t, tt.wantCurrent, got.CurrentStreak)
			assert.Equal(t, tt.wantMax, got.MaxStreak)
			assert.Equal(t, tt.wantSuccessDays, got.TotalSuccessDays)
			assert.InDelta(t, tt.wantAchievement, got.AchievementRate, 0.001)

			// Structural invariants that hold for any log window.
			assert.LessOrEqual(t, got.CurrentStreak, got.MaxStreak)
			assert.LessOrEqual(t, got.MaxStreak, got.TotalSuccessDays)
			assert.LessOrEqual(t, got.TotalSuccessDays, len(tt.logs))
		})
	}
}

func TestSummarizeProgressRate(t *testing.T) {
	ch := &Challenge{
		StartDate:    day(2026, 3, 1),
		EndDate:      day(2026, 3, 30),
		DurationDays: 30,
	}

	tests := []struct {
		name  string
		today time.Time
		want  float64
	}{
		{"Before start", day(2026, 2, 20), 0},
		{"First day counts inclusively", day(2026, 3, 1), 3.33},
		{"Mid challenge", day(2026, 3, 15), 50},
		{"Last day", day(2026, 3, 30), 100},
		{"After end", day(2026, 4, 5), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeProgress(ch, nil, tt.today)
			assert.InDelta(t, tt.want, got.ProgressRate, 0.001)
		})
	}
}

func TestSummarizeProgressRateZeroDuration(t *testing.T) {
	ch := &Challenge{
		StartDate:    day(2026, 3, 1),
		EndDate:      day(2026, 3, 30),
		DurationDays: 0,
	}

	got := SummarizeProgress(ch, nil, day(2026, 3, 15))
	assert.Equal(t, 0.0, got.ProgressRate)
}

func TestSummarizeProgressIgnoresLogTimestamps(t *testing.T) {
	today := day(2026, 3, 10)
	ch := &Challenge{
		StartDate:    day(2026, 3, 1),
		EndDate:      day(2026, 3, 30),
		DurationDays: 30,
	}

	// Log dates carrying a time-of-day component still line up as
	// consecutive calendar days.
	logs := []ChallengeDailyLog{
		{LogDate: time.Date(2026, 3, 9, 23, 45, 0, 0, time.UTC), IsAchieved: true},
		{LogDate: time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC), IsAchieved: true},
	}

	got := SummarizeProgress(ch, logs, today)
	assert.Equal(t, 2, got.CurrentStreak)
}
