package models

import "time"

// User represents a learner. A user may be registered through the HTTP API
// (email + password) or through the Telegram bot (telegram_id); either
// identity field may be unset for a given account.
type User struct {
	ID                  int64      `json:"id" db:"id"`
	TelegramID          *int64     `json:"telegram_id,omitempty" db:"telegram_id"`
	Email               *string    `json:"email,omitempty" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Username            string     `json:"username" db:"username"`
	FirstName           string     `json:"first_name" db:"first_name"`
	IsAdmin             bool       `json:"is_admin" db:"is_admin"`
	NotificationEnabled bool       `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int        `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	WordsPerDay         int        `json:"words_per_day" db:"words_per_day"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}
