package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateChallengeRequest represents the request to create a new challenge
type CreateChallengeRequest struct {
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	GoalType     string                 `json:"goal_type"`
	GoalDetails  map[string]interface{} `json:"goal_details" binding:"required"`
	StartDate    time.Time              `json:"start_date" binding:"required"`
	DurationDays int                    `json:"duration_days" binding:"required,min=1"`
	Items        []string               `json:"items"`
	Source       string                 `json:"source"`
	SourceID     *string                `json:"source_id,omitempty"`
}

// UpdateChallengeRequest represents the request to update an existing challenge
type UpdateChallengeRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	GoalType    *string                `json:"goal_type,omitempty"`
	GoalDetails map[string]interface{} `json:"goal_details,omitempty"`
	Items       *[]string              `json:"items,omitempty"`
}

// ToggleItemRequest represents the request to set a checklist item's done state
type ToggleItemRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// RecordDailyLogRequest represents a metrics snapshot reported for a date
type RecordDailyLogRequest struct {
	Date    string                 `json:"date" binding:"required"`
	Metrics map[string]interface{} `json:"metrics"`
}

// ChallengeResponse represents a challenge in API responses
type ChallengeResponse struct {
	ID               uuid.UUID              `json:"id"`
	UserID           uuid.UUID              `json:"user_id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	GoalType         string                 `json:"goal_type"`
	GoalDetails      map[string]interface{} `json:"goal_details"`
	StartDate        time.Time              `json:"start_date"`
	EndDate          time.Time              `json:"end_date"`
	DurationDays     int                    `json:"duration_days"`
	Status           string                 `json:"status"`
	CurrentStreak    int                    `json:"current_streak"`
	MaxStreak        int                    `json:"max_streak"`
	TotalSuccessDays int                    `json:"total_success_days"`
	AchievementRate  float64                `json:"achievement_rate"`
	ProgressRate     float64                `json:"progress_rate"`
	Source           string                 `json:"source"`
	SourceID         *string                `json:"source_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}

// ChallengeItemResponse represents a checklist item in API responses
type ChallengeItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	ChallengeID uuid.UUID  `json:"challenge_id"`
	Text        string     `json:"text"`
	OrderIdx    int        `json:"order_idx"`
	Done        bool       `json:"done"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
}

// DailyLogResponse represents a daily evaluation record in API responses
type DailyLogResponse struct {
	ID              uuid.UUID `json:"id"`
	ChallengeID     uuid.UUID `json:"challenge_id"`
	LogDate         string    `json:"log_date"`
	TargetValue     string    `json:"target_value"`
	ActualValue     string    `json:"actual_value"`
	IsAchieved      bool      `json:"is_achieved"`
	AchievementRate float64   `json:"achievement_rate"`
}

// ChallengeDetailResponse bundles a challenge with its checklist and
// recent daily logs
type ChallengeDetailResponse struct {
	Challenge  ChallengeResponse       `json:"challenge"`
	Items      []ChallengeItemResponse `json:"items"`
	RecentLogs []DailyLogResponse      `json:"recent_logs"`
}

// ChallengeListResponse represents the response for listing challenges
type ChallengeListResponse struct {
	Challenges []ChallengeResponse `json:"challenges"`
	TotalCount int                 `json:"total_count"`
}
