package challenge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	StatusActive    ChallengeStatus = "ACTIVE"
	StatusCompleted ChallengeStatus = "COMPLETED"
	StatusAbandoned ChallengeStatus = "ABANDONED"
	StatusFailed    ChallengeStatus = "FAILED"
)

// Challenge provenance sources
const (
	SourceManual  = "MANUAL"
	SourceReport  = "REPORT"
	SourceChatbot = "CHATBOT"
)

// Challenge is a time-boxed personal goal tracked against daily logs.
// CurrentStreak, MaxStreak, TotalSuccessDays, AchievementRate and
// ProgressRate are derived from the log history and are never set by
// clients.
type Challenge struct {
	ID               uuid.UUID              `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	Title            string                 `gorm:"size:255;not null"`
	Description      string                 `gorm:"type:text"`
	GoalType         GoalType               `gorm:"size:32;not null"`
	GoalDetails      map[string]interface{} `gorm:"type:jsonb;default:'{}';serializer:json"`
	StartDate        time.Time              `gorm:"not null"`
	EndDate          time.Time              `gorm:"not null"`
	DurationDays     int                    `gorm:"not null"`
	Status           ChallengeStatus        `gorm:"size:16;not null;default:'ACTIVE'"`
	CurrentStreak    int                    `gorm:"default:0;not null"`
	MaxStreak        int                    `gorm:"default:0;not null"`
	TotalSuccessDays int                    `gorm:"default:0;not null"`
	AchievementRate  float64                `gorm:"default:0;not null"`
	ProgressRate     float64                `gorm:"default:0;not null"`
	Source           string                 `gorm:"size:16;not null;default:'MANUAL'"`
	SourceID         *string                `gorm:"size:64"`
	CreatedAt        time.Time              `gorm:"not null;default:current_timestamp"`
	UpdatedAt        time.Time              `gorm:"not null;default:current_timestamp;autoUpdateTime"`
	CompletedAt      *time.Time             `gorm:"default:null"`
}

// TableName specifies the table name for the Challenge model
func (Challenge) TableName() string {
	return "challenges"
}

// BeforeCreate is called before creating a new challenge record
func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate is called before updating a challenge record
func (c *Challenge) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return nil
}

// ChallengeItem is an ordered checklist entry owned by a challenge. The
// full set is replaced when the challenge is edited; DoneAt is assigned
// by the server on the transition to done.
type ChallengeItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ChallengeID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Text        string     `gorm:"size:255;not null"`
	OrderIdx    int        `gorm:"default:0;not null"`
	Done        bool       `gorm:"default:false;not null"`
	DoneAt      *time.Time `gorm:"default:null"`
	CreatedAt   time.Time  `gorm:"not null;default:current_timestamp"`
	UpdatedAt   time.Time  `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// TableName specifies the table name for the ChallengeItem model
func (ChallengeItem) TableName() string {
	return "challenge_items"
}

// BeforeCreate is called before creating a new item record
func (i *ChallengeItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
	return nil
}

// ChallengeDailyLog is the single per-challenge-per-date evaluation
// record. TargetValue is snapshotted when the row is first written and
// never changes, even if the challenge goal is edited later.
type ChallengeDailyLog struct {
	ID              uuid.UUID              `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ChallengeID     uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_challenge_log_date,priority:1"`
	LogDate         time.Time              `gorm:"type:date;not null;uniqueIndex:idx_challenge_log_date,priority:2"`
	TargetValue     string                 `gorm:"size:255"`
	ActualValue     string                 `gorm:"size:255"`
	IsAchieved      bool                   `gorm:"default:false;not null"`
	AchievementRate float64                `gorm:"default:0;not null"`
	Metrics         map[string]interface{} `gorm:"type:jsonb;default:'{}';serializer:json"`
	CreatedAt       time.Time              `gorm:"not null;default:current_timestamp"`
	UpdatedAt       time.Time              `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// TableName specifies the table name for the ChallengeDailyLog model
func (ChallengeDailyLog) TableName() string {
	return "challenge_daily_logs"
}

// BeforeCreate is called before creating a new log record
func (l *ChallengeDailyLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = time.Now()
	return nil
}

// CreateChallengeInput represents the input for creating a new challenge
type CreateChallengeInput struct {
	UserID       uuid.UUID              `json:"user_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	GoalType     GoalType               `json:"goal_type"`
	GoalDetails  map[string]interface{} `json:"goal_details"`
	StartDate    time.Time              `json:"start_date"`
	DurationDays int                    `json:"duration_days"`
	Items        []string               `json:"items"`
	Source       string                 `json:"source"`
	SourceID     *string                `json:"source_id"`
}

// UpdateChallengeInput represents the input for updating a challenge
type UpdateChallengeInput struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	GoalType    *GoalType              `json:"goal_type,omitempty"`
	GoalDetails map[string]interface{} `json:"goal_details,omitempty"`
	Items       *[]string              `json:"items,omitempty"`
}

// ChallengeDetail bundles a challenge with its checklist and the most
// recent daily logs for detail responses.
type ChallengeDetail struct {
	Challenge  Challenge
	Items      []ChallengeItem
	RecentLogs []ChallengeDailyLog
}
