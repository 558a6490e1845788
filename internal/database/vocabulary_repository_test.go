package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybuddy/pkg/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	user := &models.User{Username: "tester", WordsPerDay: 10, NotificationHour: 9}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user.ID
}

func TestVocabularyRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createTestUser(t, db)
	repo := NewVocabularyRepository(db)

	due := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	item := &models.VocabularyItem{
		UserID:       userID,
		Word:         "ubiquitous",
		Translation:  "вездесущий",
		Definition:   "present everywhere",
		SourceTag:    "manual",
		EaseFactor:   2.5,
		Interval:     1,
		NextReviewAt: &due,
	}
	require.NoError(t, repo.Create(ctx, item))
	require.NotZero(t, item.ID)

	got, err := repo.GetByIDAndUser(ctx, item.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "ubiquitous", got.Word)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.Equal(t, 1, got.Interval)
	assert.False(t, got.Mastered)
	require.NotNil(t, got.NextReviewAt)
	assert.True(t, got.NextReviewAt.Equal(due))

	// Other users cannot see the item
	_, err = repo.GetByIDAndUser(ctx, item.ID, userID+1)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Word lookup is owner-scoped too
	_, err = repo.GetByWordAndUser(ctx, "ubiquitous", userID)
	assert.NoError(t, err)
	_, err = repo.GetByWordAndUser(ctx, "ubiquitous", userID+1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestVocabularyRepositoryDueForUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createTestUser(t, db)
	repo := NewVocabularyRepository(db)

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	recent := now.Add(-1 * time.Hour)
	future := now.Add(72 * time.Hour)

	add := func(word string, nextReview *time.Time, mastered bool) {
		item := &models.VocabularyItem{
			UserID: userID, Word: word, Translation: "t",
			EaseFactor: 2.5, Interval: 1,
			NextReviewAt: nextReview, Mastered: mastered,
		}
		require.NoError(t, repo.Create(ctx, item))
	}

	add("never-scheduled", nil, false)
	add("long-overdue", &past, false)
	add("just-due", &recent, false)
	add("not-yet-due", &future, false)
	add("already-mastered", &past, true)

	due, err := repo.DueForUser(ctx, userID, now, 20)
	require.NoError(t, err)
	require.Len(t, due, 3)

	// Unscheduled items sort first, then soonest-due ascending
	assert.Equal(t, "never-scheduled", due[0].Word)
	assert.Equal(t, "long-overdue", due[1].Word)
	assert.Equal(t, "just-due", due[2].Word)

	count, err := repo.CountDueForUser(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Reads are idempotent
	again, err := repo.DueForUser(ctx, userID, now, 20)
	require.NoError(t, err)
	assert.Equal(t, due, again)
}

func TestVocabularyRepositoryDueLimit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createTestUser(t, db)
	repo := NewVocabularyRepository(db)

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	for i := 0; i < 25; i++ {
		item := &models.VocabularyItem{
			UserID: userID, Word: fmt.Sprintf("word-%02d", i), Translation: "t",
			EaseFactor: 2.5, Interval: 1, NextReviewAt: &past,
		}
		require.NoError(t, repo.Create(ctx, item))
	}

	due, err := repo.DueForUser(ctx, userID, now, 20)
	require.NoError(t, err)
	assert.Len(t, due, 20, "the due query must never return more than the limit")
}

func TestVocabularyRepositoryUpdateReview(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createTestUser(t, db)
	repo := NewVocabularyRepository(db)

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	item := &models.VocabularyItem{
		UserID: userID, Word: "ephemeral", Translation: "мимолётный",
		EaseFactor: 2.5, Interval: 1, NextReviewAt: &now,
	}
	require.NoError(t, repo.Create(ctx, item))

	next := now.AddDate(0, 0, 6)
	item.EaseFactor = 2.6
	item.Interval = 6
	item.Repetitions = 2
	item.NextReviewAt = &next
	item.Mastered = false
	item.LastReviewedAt = &now
	item.ReviewCount = 2
	require.NoError(t, repo.UpdateReview(ctx, item))

	got, err := repo.GetByIDAndUser(ctx, item.ID, userID)
	require.NoError(t, err)
	assert.InDelta(t, 2.6, got.EaseFactor, 0.0001)
	assert.Equal(t, 6, got.Interval)
	assert.Equal(t, 2, got.Repetitions)
	assert.Equal(t, 2, got.ReviewCount)
	require.NotNil(t, got.NextReviewAt)
	assert.True(t, got.NextReviewAt.Equal(next))
	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, got.LastReviewedAt.Equal(now))

	// Updating an item that is not yours reports an error
	item.UserID = userID + 1
	assert.Error(t, repo.UpdateReview(ctx, item))
}

func TestVocabularyRepositoryCounts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createTestUser(t, db)
	repo := NewVocabularyRepository(db)

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	for i, mastered := range []bool{false, true, true} {
		item := &models.VocabularyItem{
			UserID: userID, Word: fmt.Sprintf("w%d", i), Translation: "t",
			EaseFactor: 2.5, Interval: 1, NextReviewAt: &now, Mastered: mastered,
		}
		require.NoError(t, repo.Create(ctx, item))
	}

	total, err := repo.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	mastered, err := repo.CountMasteredByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, mastered)
}
