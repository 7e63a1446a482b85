package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutripace/backend/internal/infrastructure/persistence/postgres/connection"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrItemNotFound      = errors.New("challenge item not found")
	ErrLogNotFound       = errors.New("daily log not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// Repository defines the interface for challenge persistence operations
type Repository interface {
	CreateChallenge(ctx context.Context, ch *Challenge) error
	FindChallengeByID(ctx context.Context, id uuid.UUID) (*Challenge, error)
	FindChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error)
	FindActiveChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error)
	FindAllActiveChallenges(ctx context.Context) ([]Challenge, error)
	UpdateChallenge(ctx context.Context, ch *Challenge) error
	UpdateChallengeProgress(ctx context.Context, id uuid.UUID, summary ProgressSummary) error
	DeleteChallengeCascade(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, item *ChallengeItem) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*ChallengeItem, error)
	FindItemsByChallenge(ctx context.Context, challengeID uuid.UUID) ([]ChallengeItem, error)
	UpdateItem(ctx context.Context, item *ChallengeItem) error
	DeleteItemsByChallenge(ctx context.Context, challengeID uuid.UUID) error

	CreateLog(ctx context.Context, log *ChallengeDailyLog) error
	UpdateLog(ctx context.Context, log *ChallengeDailyLog) error
	FindLogByDate(ctx context.Context, challengeID uuid.UUID, date time.Time) (*ChallengeDailyLog, error)
	FindRecentLogs(ctx context.Context, challengeID uuid.UUID, limit int) ([]ChallengeDailyLog, error)

	// Transaction runs fn against a repository bound to a single
	// database transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) CreateChallenge(ctx context.Context, ch *Challenge) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *repository) FindChallengeByID(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	var ch Challenge
	result := r.db.WithContext(ctx).First(&ch, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, result.Error
	}
	return &ch, nil
}

func (r *repository) FindChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	var challenges []Challenge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *repository) FindActiveChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	var challenges []Challenge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, StatusActive).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *repository) FindAllActiveChallenges(ctx context.Context) ([]Challenge, error) {
	var challenges []Challenge
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Find(&challenges).Error
	return challenges, err
}

func (r *repository) UpdateChallenge(ctx context.Context, ch *Challenge) error {
	result := r.db.WithContext(ctx).Save(ch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

func (r *repository) UpdateChallengeProgress(ctx context.Context, id uuid.UUID, summary ProgressSummary) error {
	result := r.db.WithContext(ctx).Model(&Challenge{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_streak":     summary.CurrentStreak,
			"max_streak":         summary.MaxStreak,
			"total_success_days": summary.TotalSuccessDays,
			"achievement_rate":   summary.AchievementRate,
			"progress_rate":      summary.ProgressRate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// DeleteChallengeCascade removes items, then logs, then the challenge
// itself, in one transaction.
func (r *repository) DeleteChallengeCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", id).Delete(&ChallengeItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", id).Delete(&ChallengeDailyLog{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Challenge{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrChallengeNotFound
		}
		return nil
	})
}

func (r *repository) CreateItem(ctx context.Context, item *ChallengeItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItemByID(ctx context.Context, id uuid.UUID) (*ChallengeItem, error) {
	var item ChallengeItem
	result := r.db.WithContext(ctx).First(&item, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, result.Error
	}
	return &item, nil
}

func (r *repository) FindItemsByChallenge(ctx context.Context, challengeID uuid.UUID) ([]ChallengeItem, error) {
	var items []ChallengeItem
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("order_idx ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) UpdateItem(ctx context.Context, item *ChallengeItem) error {
	result := r.db.WithContext(ctx).Save(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) DeleteItemsByChallenge(ctx context.Context, challengeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Delete(&ChallengeItem{}).Error
}

func (r *repository) CreateLog(ctx context.Context, log *ChallengeDailyLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) UpdateLog(ctx context.Context, log *ChallengeDailyLog) error {
	result := r.db.WithContext(ctx).Save(log)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLogNotFound
	}
	return nil
}

func (r *repository) FindLogByDate(ctx context.Context, challengeID uuid.UUID, date time.Time) (*ChallengeDailyLog, error) {
	var log ChallengeDailyLog
	result := r.db.WithContext(ctx).
		Where("challenge_id = ? AND log_date = ?", challengeID, dateOnly(date)).
		First(&log)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, result.Error
	}
	return &log, nil
}

func (r *repository) FindRecentLogs(ctx context.Context, challengeID uuid.UUID, limit int) ([]ChallengeDailyLog, error) {
	var logs []ChallengeDailyLog
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("log_date DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &repository{db: &connection.Database{DB: tx}}
		return fn(txRepo)
	})
}
