package challenge

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory repository mock for service tests
type mockRepository struct {
	challenges map[uuid.UUID]*Challenge
	items      map[uuid.UUID]*ChallengeItem
	logs       map[uuid.UUID]*ChallengeDailyLog
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		challenges: make(map[uuid.UUID]*Challenge),
		items:      make(map[uuid.UUID]*ChallengeItem),
		logs:       make(map[uuid.UUID]*ChallengeDailyLog),
	}
}

func (m *mockRepository) CreateChallenge(ctx context.Context, ch *Challenge) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	cp := *ch
	m.challenges[ch.ID] = &cp
	return nil
}

func (m *mockRepository) FindChallengeByID(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	ch, ok := m.challenges[id]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	cp := *ch
	return &cp, nil
}

func (m *mockRepository) FindChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	var out []Challenge
	for _, ch := range m.challenges {
		if ch.UserID == userID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (m *mockRepository) FindActiveChallengesByUser(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	var out []Challenge
	for _, ch := range m.challenges {
		if ch.UserID == userID && ch.Status == StatusActive {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (m *mockRepository) FindAllActiveChallenges(ctx context.Context) ([]Challenge, error) {
	var out []Challenge
	for _, ch := range m.challenges {
		if ch.Status == StatusActive {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateChallenge(ctx context.Context, ch *Challenge) error {
	if _, ok := m.challenges[ch.ID]; !ok {
		return ErrChallengeNotFound
	}
	cp := *ch
	m.challenges[ch.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateChallengeProgress(ctx context.Context, id uuid.UUID, summary ProgressSummary) error {
	ch, ok := m.challenges[id]
	if !ok {
		return ErrChallengeNotFound
	}
	ch.CurrentStreak = summary.CurrentStreak
	ch.MaxStreak = summary.MaxStreak
	ch.TotalSuccessDays = summary.TotalSuccessDays
	ch.AchievementRate = summary.AchievementRate
	ch.ProgressRate = summary.ProgressRate
	return nil
}

func (m *mockRepository) DeleteChallengeCascade(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.challenges[id]; !ok {
		return ErrChallengeNotFound
	}
	for itemID, item := range m.items {
		if item.ChallengeID == id {
			delete(m.items, itemID)
		}
	}
	for logID, log := range m.logs {
		if log.ChallengeID == id {
			delete(m.logs, logID)
		}
	}
	delete(m.challenges, id)
	return nil
}

func (m *mockRepository) CreateItem(ctx context.Context, item *ChallengeItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*ChallengeItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *mockRepository) FindItemsByChallenge(ctx context.Context, challengeID uuid.UUID) ([]ChallengeItem, error) {
	var out []ChallengeItem
	for _, item := range m.items {
		if item.ChallengeID == challengeID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIdx < out[j].OrderIdx })
	return out, nil
}

func (m *mockRepository) UpdateItem(ctx context.Context, item *ChallengeItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepository) DeleteItemsByChallenge(ctx context.Context, challengeID uuid.UUID) error {
	for id, item := range m.items {
		if item.ChallengeID == challengeID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockRepository) CreateLog(ctx context.Context, log *ChallengeDailyLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateLog(ctx context.Context, log *ChallengeDailyLog) error {
	if _, ok := m.logs[log.ID]; !ok {
		return ErrLogNotFound
	}
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *mockRepository) FindLogByDate(ctx context.Context, challengeID uuid.UUID, date time.Time) (*ChallengeDailyLog, error) {
	target := dateOnly(date)
	for _, log := range m.logs {
		if log.ChallengeID == challengeID && dateOnly(log.LogDate).Equal(target) {
			cp := *log
			return &cp, nil
		}
	}
	return nil, ErrLogNotFound
}

func (m *mockRepository) FindRecentLogs(ctx context.Context, challengeID uuid.UUID, limit int) ([]ChallengeDailyLog, error) {
	var out []ChallengeDailyLog
	for _, log := range m.logs {
		if log.ChallengeID == challengeID {
			out = append(out, *log)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogDate.After(out[j].LogDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func newTestService(repo Repository) Service {
	return NewService(repo, nil, zap.NewNop())
}

func validCreateInput(userID uuid.UUID) CreateChallengeInput {
	return CreateChallengeInput{
		UserID:       userID,
		Title:        "Protein push",
		Description:  "Hit the protein target every day",
		GoalDetails:  map[string]interface{}{"protein": "100g"},
		StartDate:    time.Now(),
		DurationDays: 30,
		Items:        []string{"eggs for breakfast", "shake after workout"},
	}
}

func TestCreateChallenge(t *testing.T) {
	userID := uuid.New()

	t.Run("Creates challenge with derived type and inclusive end date", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		input := validCreateInput(userID)
		input.StartDate = time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)

		ch, err := svc.CreateChallenge(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, GoalProtein, ch.GoalType)
		assert.Equal(t, StatusActive, ch.Status)
		assert.Equal(t, SourceManual, ch.Source)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ch.StartDate)
		assert.Equal(t, time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), ch.EndDate)

		items, err := repo.FindItemsByChallenge(context.Background(), ch.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "eggs for breakfast", items[0].Text)
		assert.Equal(t, 0, items[0].OrderIdx)
		assert.Equal(t, 1, items[1].OrderIdx)
	})

	t.Run("Multiple goal keys derive combined type", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		input := validCreateInput(userID)
		input.GoalDetails = map[string]interface{}{"protein": "100g", "water": "2L"}

		ch, err := svc.CreateChallenge(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, GoalCombined, ch.GoalType)
	})

	t.Run("Explicit goal type wins over derivation", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		input := validCreateInput(userID)
		input.GoalType = GoalHabit
		input.GoalDetails = map[string]interface{}{"protein": "100g"}

		ch, err := svc.CreateChallenge(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, GoalHabit, ch.GoalType)
	})

	t.Run("Rejects empty title", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		input := validCreateInput(userID)
		input.Title = "  "

		_, err := svc.CreateChallenge(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Rejects non-positive duration", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		input := validCreateInput(userID)
		input.DurationDays = 0

		_, err := svc.CreateChallenge(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Rejects frequency-only goal details", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		input := validCreateInput(userID)
		input.GoalDetails = map[string]interface{}{"frequency": "daily"}

		_, err := svc.CreateChallenge(context.Background(), input)
		assert.ErrorIs(t, err, ErrGoalTooVague)
	})
}

func TestUpdateChallenge(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	t.Run("Replaces checklist and re-derives goal type", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
		require.NoError(t, err)

		newItems := []string{"morning run"}
		updated, err := svc.UpdateChallenge(ctx, ch.ID, userID, UpdateChallengeInput{
			GoalDetails: map[string]interface{}{"water": "2L"},
			Items:       &newItems,
		})
		require.NoError(t, err)
		assert.Equal(t, GoalWater, updated.GoalType)

		items, err := repo.FindItemsByChallenge(ctx, ch.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "morning run", items[0].Text)
	})

	t.Run("Rejects update by non-owner", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
		require.NoError(t, err)

		title := "hijacked"
		_, err = svc.UpdateChallenge(ctx, ch.ID, uuid.New(), UpdateChallengeInput{Title: &title})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("Unknown challenge returns not found", func(t *testing.T) {
		svc := newTestService(newMockRepository())

		_, err := svc.UpdateChallenge(ctx, uuid.New(), userID, UpdateChallengeInput{})
		assert.ErrorIs(t, err, ErrChallengeNotFound)
	})
}

func TestCompleteChallenge(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	repo := newMockRepository()
	svc := newTestService(repo)

	ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
	require.NoError(t, err)

	completed, err := svc.CompleteChallenge(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	// Completing twice is an invalid transition.
	_, err = svc.CompleteChallenge(ctx, ch.ID, userID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteChallengeCascades(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	repo := newMockRepository()
	svc := newTestService(repo)

	ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
	require.NoError(t, err)

	require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{"totalProtein": 95.0}))

	err = svc.DeleteChallenge(ctx, ch.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, svc.DeleteChallenge(ctx, ch.ID, userID))

	assert.Empty(t, repo.items)
	assert.Empty(t, repo.logs)
	assert.Empty(t, repo.challenges)
}

func TestRecordDailyLog(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	t.Run("Snapshots target on first write and keeps it on rescore", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
		require.NoError(t, err)

		today := time.Now()
		require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, today, map[string]interface{}{"totalProtein": 95.0}))

		log, err := repo.FindLogByDate(ctx, ch.ID, today)
		require.NoError(t, err)
		assert.Equal(t, "100g", log.TargetValue)
		assert.Equal(t, "95g", log.ActualValue)
		assert.True(t, log.IsAchieved)
		assert.InDelta(t, 95.00, log.AchievementRate, 0.001)

		// Same day again: one row, fresh evaluation, original target.
		require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, today, map[string]interface{}{"totalProtein": 50.0}))
		require.Len(t, repo.logs, 1)

		log, err = repo.FindLogByDate(ctx, ch.ID, today)
		require.NoError(t, err)
		assert.Equal(t, "100g", log.TargetValue)
		assert.Equal(t, "50g", log.ActualValue)
		assert.False(t, log.IsAchieved)
	})

	t.Run("Refreshes derived aggregates in the same pass", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
		require.NoError(t, err)

		require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{"totalProtein": 95.0}))

		stored, err := repo.FindChallengeByID(ctx, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.CurrentStreak)
		assert.Equal(t, 1, stored.MaxStreak)
		assert.Equal(t, 1, stored.TotalSuccessDays)
		assert.InDelta(t, 100, stored.AchievementRate, 0.001)
	})

	t.Run("Missing challenge is a silent no-op", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		err := svc.RecordDailyLog(ctx, uuid.New(), time.Now(), map[string]interface{}{"totalProtein": 95.0})
		assert.NoError(t, err)
		assert.Empty(t, repo.logs)
	})

	t.Run("Empty goal details is a silent no-op", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestService(repo)

		// Rows predating goal validation can carry an empty details
		// object, so seed the store directly.
		ch := &Challenge{
			UserID:       userID,
			Title:        "Legacy challenge",
			GoalType:     GoalProtein,
			GoalDetails:  map[string]interface{}{},
			StartDate:    day(2026, 3, 1),
			EndDate:      day(2026, 3, 30),
			DurationDays: 30,
			Status:       StatusActive,
		}
		require.NoError(t, repo.CreateChallenge(ctx, ch))

		err := svc.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{"totalProtein": 95.0})
		assert.NoError(t, err)
		assert.Empty(t, repo.logs)

		stored, err := repo.FindChallengeByID(ctx, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.TotalSuccessDays)
		assert.InDelta(t, 0, stored.AchievementRate, 0.001)
	})
}

func TestToggleItem(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	repo := newMockRepository()
	svc := newTestService(repo)

	input := validCreateInput(userID)
	input.GoalType = GoalHabit
	input.GoalDetails = map[string]interface{}{"frequency": "daily", "water": "2L"}
	input.Items = []string{"morning run"}

	ch, err := svc.CreateChallenge(ctx, input)
	require.NoError(t, err)

	items, err := repo.FindItemsByChallenge(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	t.Run("Marking done stamps the timestamp and logs the day", func(t *testing.T) {
		item, err := svc.ToggleItem(ctx, items[0].ID, userID, true)
		require.NoError(t, err)
		assert.True(t, item.Done)
		require.NotNil(t, item.DoneAt)

		log, err := repo.FindLogByDate(ctx, ch.ID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "1/1", log.ActualValue)
		assert.True(t, log.IsAchieved)
	})

	t.Run("Unmarking clears the timestamp and rescores", func(t *testing.T) {
		item, err := svc.ToggleItem(ctx, items[0].ID, userID, false)
		require.NoError(t, err)
		assert.False(t, item.Done)
		assert.Nil(t, item.DoneAt)

		log, err := repo.FindLogByDate(ctx, ch.ID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "0/1", log.ActualValue)
		assert.False(t, log.IsAchieved)
	})

	t.Run("Re-marking scores only the final done state", func(t *testing.T) {
		item, err := svc.ToggleItem(ctx, items[0].ID, userID, true)
		require.NoError(t, err)
		assert.True(t, item.Done)
		require.NotNil(t, item.DoneAt)

		require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{}))

		log, err := repo.FindLogByDate(ctx, ch.ID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "1/1", log.ActualValue)
		assert.True(t, log.IsAchieved)
	})

	t.Run("Rejects toggle by non-owner", func(t *testing.T) {
		_, err := svc.ToggleItem(ctx, items[0].ID, uuid.New(), true)
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestGetChallengeDetail(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	repo := newMockRepository()
	svc := newTestService(repo)

	ch, err := svc.CreateChallenge(ctx, validCreateInput(userID))
	require.NoError(t, err)

	require.NoError(t, svc.RecordDailyLog(ctx, ch.ID, time.Now(), map[string]interface{}{"totalProtein": 95.0}))

	detail, err := svc.GetChallenge(ctx, ch.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, detail.Challenge.ID)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.RecentLogs, 1)

	_, err = svc.GetChallenge(ctx, ch.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRefreshAllActiveProgress(t *testing.T) {
	userID := uuid.New()
	ctx := context.Background()

	repo := newMockRepository()
	svc := newTestService(repo)

	active, err := svc.CreateChallenge(ctx, validCreateInput(userID))
	require.NoError(t, err)

	done, err := svc.CreateChallenge(ctx, validCreateInput(userID))
	require.NoError(t, err)
	_, err = svc.CompleteChallenge(ctx, done.ID, userID)
	require.NoError(t, err)

	require.NoError(t, svc.RecordDailyLog(ctx, active.ID, time.Now(), map[string]interface{}{"totalProtein": 95.0}))

	refreshed, err := svc.RefreshAllActiveProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshed)
}
