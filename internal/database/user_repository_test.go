package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybuddy/pkg/models"
)

func TestUserRepositoryEmailLookup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)

	email := "learner@example.com"
	user := &models.User{Email: &email, PasswordHash: "hash", Username: "learner", WordsPerDay: 10, NotificationHour: 9}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryGetOrCreateByTelegramID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)

	first, err := repo.GetOrCreateByTelegramID(ctx, 4242, "tg_user", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "tg_user", first.Username)
	assert.Equal(t, 10, first.WordsPerDay)
	assert.True(t, first.NotificationEnabled)

	second, err := repo.GetOrCreateByTelegramID(ctx, 4242, "renamed", "Ann")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same telegram id must map to the same user")
}

func TestUserRepositoryForNotificationHour(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)

	nine := &models.User{Username: "at-nine", NotificationEnabled: true, NotificationHour: 9, WordsPerDay: 10}
	require.NoError(t, repo.Create(ctx, nine))
	muted := &models.User{Username: "muted", NotificationEnabled: false, NotificationHour: 9, WordsPerDay: 10}
	require.NoError(t, repo.Create(ctx, muted))
	later := &models.User{Username: "at-twenty", NotificationEnabled: true, NotificationHour: 20, WordsPerDay: 10}
	require.NoError(t, repo.Create(ctx, later))

	users, err := repo.ForNotificationHour(ctx, 9)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "at-nine", users[0].Username)
}
