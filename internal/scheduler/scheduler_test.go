package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybuddy/internal/database"
	"github.com/example/studybuddy/pkg/models"
)

type recordingNotifier struct {
	reminders map[int64]int
}

func (n *recordingNotifier) SendReminder(telegramID int64, dueCount int) error {
	n.reminders[telegramID] = dueCount
	return nil
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	db, err := database.Connect(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserRepository(db)
	items := database.NewVocabularyRepository(db)

	tid := int64(4242)
	user := &models.User{
		TelegramID: &tid, Username: "learner",
		NotificationEnabled: true, NotificationHour: 9, WordsPerDay: 3,
	}
	require.NoError(t, users.Create(ctx, user))

	now := time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	for i := 0; i < 5; i++ {
		item := &models.VocabularyItem{
			UserID: user.ID, Word: fmt.Sprintf("w%d", i), Translation: "t",
			EaseFactor: 2.5, Interval: 1, NextReviewAt: &past,
		}
		require.NoError(t, items.Create(ctx, item))
	}

	notifier := &recordingNotifier{reminders: make(map[int64]int)}
	s := New(notifier, users, items)

	// Outside the user's notification hour nothing is sent
	s.Sweep(ctx, time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC))
	assert.Empty(t, notifier.reminders)

	// At the right hour the reminder is capped at words_per_day
	s.Sweep(ctx, now)
	assert.Equal(t, 3, notifier.reminders[tid])
}

func TestSweepSkipsOutsideWindow(t *testing.T) {
	ctx := context.Background()

	db, err := database.Connect(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserRepository(db)
	items := database.NewVocabularyRepository(db)

	tid := int64(1)
	user := &models.User{
		TelegramID: &tid, Username: "night-owl",
		NotificationEnabled: true, NotificationHour: 3, WordsPerDay: 10,
	}
	require.NoError(t, users.Create(ctx, user))

	notifier := &recordingNotifier{reminders: make(map[int64]int)}
	s := New(notifier, users, items)

	// Hour 3 is outside the default 8-22 window
	s.Sweep(ctx, time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC))
	assert.Empty(t, notifier.reminders)
}
