package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybuddy/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT * FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT * FROM users WHERE email = ?")
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTelegramID returns a user by telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT * FROM users WHERE telegram_id = ?")
	if err := r.db.GetContext(ctx, &user, query, telegramID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user and fills in its generated ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if r.db.DriverName() == "postgres" {
		query := `
			INSERT INTO users (
				telegram_id, email, password_hash, username, first_name, is_admin,
				notification_enabled, notification_hour, words_per_day
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`
		return r.db.QueryRowContext(ctx, query,
			user.TelegramID, user.Email, user.PasswordHash, user.Username,
			user.FirstName, user.IsAdmin, user.NotificationEnabled,
			user.NotificationHour, user.WordsPerDay,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	}

	query := `
		INSERT INTO users (
			telegram_id, email, password_hash, username, first_name, is_admin,
			notification_enabled, notification_hour, words_per_day
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.TelegramID, user.Email, user.PasswordHash, user.Username,
		user.FirstName, user.IsAdmin, user.NotificationEnabled,
		user.NotificationHour, user.WordsPerDay,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM users WHERE id = ?", user.ID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

// GetOrCreateByTelegramID looks a user up by telegram ID, registering them
// with defaults on first contact
func (r *UserRepository) GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	user, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	tid := telegramID
	user = &models.User{
		TelegramID:          &tid,
		Username:            username,
		FirstName:           firstName,
		NotificationEnabled: true,
		NotificationHour:    9,
		WordsPerDay:         10,
	}
	if err := r.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ForNotificationHour returns users who want reminders at the given hour
func (r *UserRepository) ForNotificationHour(ctx context.Context, hour int) ([]models.User, error) {
	query := r.db.Rebind(`
		SELECT * FROM users
		WHERE notification_enabled = true AND notification_hour = ?
	`)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

// UpdateSettings persists the reminder preferences of a user
func (r *UserRepository) UpdateSettings(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		UPDATE users SET
			notification_enabled = ?,
			notification_hour = ?,
			words_per_day = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	_, err := r.db.ExecContext(ctx, query,
		user.NotificationEnabled, user.NotificationHour, user.WordsPerDay, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}
	return nil
}
