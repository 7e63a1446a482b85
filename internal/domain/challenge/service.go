package challenge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nutripace/backend/internal/domain/events"
	"github.com/nutripace/backend/internal/infrastructure/cache"
)

var (
	ErrNotOwner          = errors.New("challenge does not belong to user")
	ErrGoalTooVague      = errors.New("goal details must contain at least one concrete goal")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Service defines the interface for challenge business logic
type Service interface {
	CreateChallenge(ctx context.Context, input CreateChallengeInput) (*Challenge, error)
	GetChallenge(ctx context.Context, id, userID uuid.UUID) (*ChallengeDetail, error)
	ListChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error)
	ListActiveChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error)
	UpdateChallenge(ctx context.Context, id, userID uuid.UUID, input UpdateChallengeInput) (*Challenge, error)
	CompleteChallenge(ctx context.Context, id, userID uuid.UUID) (*Challenge, error)
	DeleteChallenge(ctx context.Context, id, userID uuid.UUID) error
	ToggleItem(ctx context.Context, itemID, userID uuid.UUID, done bool) (*ChallengeItem, error)

	// RecordDailyLog evaluates the challenge goal against the metrics
	// snapshot for the given date and upserts the per-date log row.
	RecordDailyLog(ctx context.Context, challengeID uuid.UUID, date time.Time, metrics map[string]interface{}) error

	// RefreshAllActiveProgress recomputes derived aggregates for every
	// active challenge and returns the number refreshed.
	RefreshAllActiveProgress(ctx context.Context) (int64, error)
}

type service struct {
	repo   Repository
	redis  *cache.RedisClient
	logger *zap.Logger
}

func NewService(repo Repository, redis *cache.RedisClient, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		redis:  redis,
		logger: logger,
	}
}

// recentLogWindow is how many trailing daily logs the detail view carries.
const recentLogWindow = 7

func (s *service) CreateChallenge(ctx context.Context, input CreateChallengeInput) (*Challenge, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if err := ValidateGoalDetails(input.GoalDetails); err != nil {
		return nil, err
	}

	goalType := input.GoalType
	if !goalType.IsValid() {
		goalType = DeriveGoalType(input.GoalDetails)
	}

	source := input.Source
	if source == "" {
		source = SourceManual
	}

	startDate := dateOnly(input.StartDate)
	ch := &Challenge{
		UserID:       input.UserID,
		Title:        input.Title,
		Description:  input.Description,
		GoalType:     goalType,
		GoalDetails:  input.GoalDetails,
		StartDate:    startDate,
		EndDate:      startDate.AddDate(0, 0, input.DurationDays-1),
		DurationDays: input.DurationDays,
		Status:       StatusActive,
		Source:       source,
		SourceID:     input.SourceID,
	}

	if err := s.repo.CreateChallenge(ctx, ch); err != nil {
		s.logger.Error("Failed to create challenge",
			zap.String("user_id", input.UserID.String()),
			zap.Error(err))
		return nil, err
	}

	s.createItems(ctx, ch.ID, input.Items)

	s.logger.Info("Challenge created",
		zap.String("challenge_id", ch.ID.String()),
		zap.String("user_id", ch.UserID.String()),
		zap.String("goal_type", string(ch.GoalType)))
	s.publishEvent(ctx, events.EventChallengeCreated, ch, nil)

	return ch, nil
}

func (s *service) GetChallenge(ctx context.Context, id, userID uuid.UUID) (*ChallengeDetail, error) {
	ch, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindItemsByChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.FindRecentLogs(ctx, id, recentLogWindow)
	if err != nil {
		return nil, err
	}

	return &ChallengeDetail{
		Challenge:  *ch,
		Items:      items,
		RecentLogs: logs,
	}, nil
}

func (s *service) ListChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	return s.repo.FindChallengesByUser(ctx, userID)
}

func (s *service) ListActiveChallenges(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	return s.repo.FindActiveChallengesByUser(ctx, userID)
}

func (s *service) UpdateChallenge(ctx context.Context, id, userID uuid.UUID, input UpdateChallengeInput) (*Challenge, error) {
	ch, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		ch.Title = *input.Title
	}
	if input.Description != nil {
		ch.Description = *input.Description
	}
	if input.GoalDetails != nil {
		if err := ValidateGoalDetails(input.GoalDetails); err != nil {
			return nil, err
		}
		ch.GoalDetails = input.GoalDetails
		if input.GoalType == nil {
			ch.GoalType = DeriveGoalType(input.GoalDetails)
		}
	}
	if input.GoalType != nil {
		if !input.GoalType.IsValid() {
			return nil, fmt.Errorf("%w: unknown goal type %q", ErrInvalidInput, *input.GoalType)
		}
		ch.GoalType = *input.GoalType
	}

	if err := s.repo.UpdateChallenge(ctx, ch); err != nil {
		s.logger.Error("Failed to update challenge",
			zap.String("challenge_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	// Checklist edits replace the full set.
	if input.Items != nil {
		if err := s.repo.DeleteItemsByChallenge(ctx, id); err != nil {
			return nil, err
		}
		s.createItems(ctx, id, *input.Items)
	}

	s.publishEvent(ctx, events.EventChallengeUpdated, ch, nil)
	return ch, nil
}

func (s *service) CompleteChallenge(ctx context.Context, id, userID uuid.UUID) (*Challenge, error) {
	ch, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if ch.Status != StatusActive {
		return nil, fmt.Errorf("%w: cannot complete challenge in status %s", ErrInvalidTransition, ch.Status)
	}

	now := time.Now()
	ch.Status = StatusCompleted
	ch.CompletedAt = &now

	if err := s.repo.UpdateChallenge(ctx, ch); err != nil {
		return nil, err
	}

	s.logger.Info("Challenge completed",
		zap.String("challenge_id", ch.ID.String()),
		zap.String("user_id", ch.UserID.String()))
	s.publishEvent(ctx, events.EventChallengeCompleted, ch, nil)

	return ch, nil
}

func (s *service) DeleteChallenge(ctx context.Context, id, userID uuid.UUID) error {
	ch, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteChallengeCascade(ctx, id); err != nil {
		s.logger.Error("Failed to delete challenge",
			zap.String("challenge_id", id.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Challenge deleted",
		zap.String("challenge_id", id.String()),
		zap.String("user_id", userID.String()))
	s.publishEvent(ctx, events.EventChallengeDeleted, ch, nil)

	return nil
}

func (s *service) ToggleItem(ctx context.Context, itemID, userID uuid.UUID, done bool) (*ChallengeItem, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	ch, err := s.findOwned(ctx, item.ChallengeID, userID)
	if err != nil {
		return nil, err
	}

	item.Done = done
	if done {
		now := time.Now()
		item.DoneAt = &now
	} else {
		item.DoneAt = nil
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	// Toggling re-scores the current day so checkbox interaction drives
	// progress without a separate metrics report.
	if err := s.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{}); err != nil {
		s.logger.Warn("Failed to record daily log after item toggle",
			zap.String("challenge_id", ch.ID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
	}

	s.publishEvent(ctx, events.EventItemToggled, ch, map[string]interface{}{
		"item_id": itemID.String(),
		"done":    done,
	})

	return item, nil
}

func (s *service) RecordDailyLog(ctx context.Context, challengeID uuid.UUID, date time.Time, metrics map[string]interface{}) error {
	ch, err := s.repo.FindChallengeByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			// Log recording is fire-and-forget for upstream reporters; a
			// deleted challenge is not their failure.
			s.logger.Warn("Skipping daily log for missing challenge",
				zap.String("challenge_id", challengeID.String()))
			return nil
		}
		return err
	}

	if len(ch.GoalDetails) == 0 {
		// Nothing to evaluate against; rows predating goal validation
		// can carry an empty details object.
		s.logger.Warn("Skipping daily log for challenge without goal details",
			zap.String("challenge_id", challengeID.String()))
		return nil
	}

	items, err := s.repo.FindItemsByChallenge(ctx, challengeID)
	if err != nil {
		return err
	}

	if metrics == nil {
		metrics = map[string]interface{}{}
	}
	eval := EvaluateGoal(ch.GoalType, ch.GoalDetails, metrics, items, date)

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.FindLogByDate(ctx, challengeID, date)
		switch {
		case err == nil:
			// TargetValue stays as snapshotted on first write.
			existing.ActualValue = eval.Actual
			existing.IsAchieved = eval.Achieved
			existing.AchievementRate = eval.Rate
			existing.Metrics = metrics
			if err := tx.UpdateLog(ctx, existing); err != nil {
				return err
			}
		case errors.Is(err, ErrLogNotFound):
			log := &ChallengeDailyLog{
				ChallengeID:     challengeID,
				LogDate:         dateOnly(date),
				TargetValue:     formatTarget(ch.GoalType, ch.GoalDetails, items),
				ActualValue:     eval.Actual,
				IsAchieved:      eval.Achieved,
				AchievementRate: eval.Rate,
				Metrics:         metrics,
			}
			if err := tx.CreateLog(ctx, log); err != nil {
				return err
			}
		default:
			return err
		}

		return s.refreshProgress(ctx, tx, ch)
	})
	if err != nil {
		s.logger.Error("Failed to record daily log",
			zap.String("challenge_id", challengeID.String()),
			zap.Time("date", date),
			zap.Error(err))
		return err
	}

	s.publishEvent(ctx, events.EventDailyLogRecorded, ch, map[string]interface{}{
		"date":     dateOnly(date).Format("2006-01-02"),
		"achieved": eval.Achieved,
		"rate":     eval.Rate,
	})

	return nil
}

func (s *service) RefreshAllActiveProgress(ctx context.Context) (int64, error) {
	challenges, err := s.repo.FindAllActiveChallenges(ctx)
	if err != nil {
		return 0, err
	}

	var refreshed int64
	for i := range challenges {
		ch := &challenges[i]
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			return s.refreshProgress(ctx, tx, ch)
		})
		if err != nil {
			s.logger.Error("Failed to refresh challenge progress",
				zap.String("challenge_id", ch.ID.String()),
				zap.Error(err))
			continue
		}
		refreshed++
	}

	s.logger.Info("Refreshed active challenge progress",
		zap.Int64("refreshed", refreshed),
		zap.Int("total", len(challenges)))
	return refreshed, nil
}

// refreshProgress recomputes the derived aggregates from the trailing
// log window and persists them. Callers run it inside a transaction so
// the log write and aggregate update land together.
func (s *service) refreshProgress(ctx context.Context, tx Repository, ch *Challenge) error {
	logs, err := tx.FindRecentLogs(ctx, ch.ID, progressLookbackDays)
	if err != nil {
		return err
	}

	summary := SummarizeProgress(ch, logs, time.Now())
	return tx.UpdateChallengeProgress(ctx, ch.ID, summary)
}

// findOwned loads a challenge and enforces ownership.
func (s *service) findOwned(ctx context.Context, id, userID uuid.UUID) (*Challenge, error) {
	ch, err := s.repo.FindChallengeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.UserID != userID {
		return nil, ErrNotOwner
	}
	return ch, nil
}

// createItems persists the checklist, logging and skipping failed rows
// so one bad item does not lose the rest.
func (s *service) createItems(ctx context.Context, challengeID uuid.UUID, texts []string) {
	for idx, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		item := &ChallengeItem{
			ChallengeID: challengeID,
			Text:        text,
			OrderIdx:    idx,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			s.logger.Warn("Failed to create challenge item",
				zap.String("challenge_id", challengeID.String()),
				zap.Int("order_idx", idx),
				zap.Error(err))
		}
	}
}

func (s *service) publishEvent(ctx context.Context, eventType string, ch *Challenge, details interface{}) {
	if s.redis == nil {
		return
	}
	event := &events.ChallengeEvent{
		EventType:   eventType,
		UserID:      ch.UserID,
		ChallengeID: ch.ID,
		Timestamp:   time.Now(),
		Details:     details,
	}
	if err := s.redis.PublishChallengeEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish challenge event",
			zap.String("event_type", eventType),
			zap.String("challenge_id", ch.ID.String()),
			zap.Error(err))
	}
}

// formatTarget renders the target snapshot stored on a daily log's first
// write: the goal amount for nutrition goals, the per-key amounts for
// combined goals, the checklist size for manual-check goals.
func formatTarget(goalType GoalType, details map[string]interface{}, items []ChallengeItem) string {
	switch {
	case goalType.isManualCheck():
		return fmt.Sprintf("%d items", len(items))
	case goalType == GoalCombined:
		keys := make([]string, 0, len(details))
		for key := range details {
			if key == frequencyKey {
				continue
			}
			if _, ok := goalTypeByKey[key]; ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		segments := make([]string, 0, len(keys))
		for _, key := range keys {
			spec := goalSpecs[goalTypeByKey[key]]
			segments = append(segments, key+" "+formatAmount(parseNumber(details[key]))+spec.unit)
		}
		return strings.Join(segments, ", ")
	default:
		spec, ok := goalSpecs[goalType]
		if !ok {
			return ""
		}
		return formatAmount(parseNumber(details[spec.detailKey])) + spec.unit
	}
}
