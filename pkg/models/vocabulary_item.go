package models

import "time"

// VocabularyItem is a single word a learner is studying, together with its
// SM-2 scheduling state. Display fields (word, translation, definition,
// example, audio_ref) are opaque to the scheduler.
type VocabularyItem struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	Word           string     `json:"word" db:"word"`
	Translation    string     `json:"translation" db:"translation"`
	Definition     string     `json:"definition" db:"definition"`
	Example        string     `json:"example" db:"example"`
	AudioRef       string     `json:"audio_ref" db:"audio_ref"`
	SourceTag      string     `json:"source_tag" db:"source_tag"` // manual, import or lesson
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`
	Interval       int        `json:"interval" db:"interval"` // days until next review
	Repetitions    int        `json:"repetitions" db:"repetitions"`
	NextReviewAt   *time.Time `json:"next_review_at" db:"next_review_at"` // nil means immediately due
	Mastered       bool       `json:"mastered" db:"mastered"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	ReviewCount    int        `json:"review_count" db:"review_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
