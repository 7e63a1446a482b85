package handlers

import (
	"github.com/nutripace/backend/internal/api/dto"
	"github.com/nutripace/backend/internal/domain/challenge"
)

func ChallengeToResponse(c *challenge.Challenge) *dto.ChallengeResponse {
	if c == nil {
		return nil
	}
	return &dto.ChallengeResponse{
		ID:               c.ID,
		UserID:           c.UserID,
		Title:            c.Title,
		Description:      c.Description,
		GoalType:         string(c.GoalType),
		GoalDetails:      c.GoalDetails,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		DurationDays:     c.DurationDays,
		Status:           string(c.Status),
		CurrentStreak:    c.CurrentStreak,
		MaxStreak:        c.MaxStreak,
		TotalSuccessDays: c.TotalSuccessDays,
		AchievementRate:  c.AchievementRate,
		ProgressRate:     c.ProgressRate,
		Source:           c.Source,
		SourceID:         c.SourceID,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		CompletedAt:      c.CompletedAt,
	}
}

func ChallengesToResponse(challenges []challenge.Challenge) []dto.ChallengeResponse {
	response := make([]dto.ChallengeResponse, len(challenges))
	for i, c := range challenges {
		response[i] = *ChallengeToResponse(&c)
	}
	return response
}

func ChallengeItemToResponse(i *challenge.ChallengeItem) *dto.ChallengeItemResponse {
	if i == nil {
		return nil
	}
	return &dto.ChallengeItemResponse{
		ID:          i.ID,
		ChallengeID: i.ChallengeID,
		Text:        i.Text,
		OrderIdx:    i.OrderIdx,
		Done:        i.Done,
		DoneAt:      i.DoneAt,
	}
}

func DailyLogToResponse(l *challenge.ChallengeDailyLog) *dto.DailyLogResponse {
	if l == nil {
		return nil
	}
	return &dto.DailyLogResponse{
		ID:              l.ID,
		ChallengeID:     l.ChallengeID,
		LogDate:         l.LogDate.Format("2006-01-02"),
		TargetValue:     l.TargetValue,
		ActualValue:     l.ActualValue,
		IsAchieved:      l.IsAchieved,
		AchievementRate: l.AchievementRate,
	}
}

func ChallengeDetailToResponse(d *challenge.ChallengeDetail) *dto.ChallengeDetailResponse {
	if d == nil {
		return nil
	}
	items := make([]dto.ChallengeItemResponse, len(d.Items))
	for i := range d.Items {
		items[i] = *ChallengeItemToResponse(&d.Items[i])
	}
	logs := make([]dto.DailyLogResponse, len(d.RecentLogs))
	for i := range d.RecentLogs {
		logs[i] = *DailyLogToResponse(&d.RecentLogs[i])
	}
	return &dto.ChallengeDetailResponse{
		Challenge:  *ChallengeToResponse(&d.Challenge),
		Items:      items,
		RecentLogs: logs,
	}
}
