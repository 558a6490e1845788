package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybuddy/pkg/models"
)

// VocabularyRepository handles database operations for vocabulary items
type VocabularyRepository struct {
	db *sqlx.DB
}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

// Create inserts a new vocabulary item and fills in its generated ID
func (r *VocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	if item.NextReviewAt != nil {
		t := item.NextReviewAt.UTC()
		item.NextReviewAt = &t
	}

	if r.db.DriverName() == "postgres" {
		query := `
			INSERT INTO vocabulary_items (
				user_id, word, translation, definition, example, audio_ref, source_tag,
				ease_factor, "interval", repetitions, next_review_at, mastered, review_count
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at
		`
		return r.db.QueryRowContext(ctx, query,
			item.UserID, item.Word, item.Translation, item.Definition, item.Example,
			item.AudioRef, item.SourceTag, item.EaseFactor, item.Interval,
			item.Repetitions, item.NextReviewAt, item.Mastered, item.ReviewCount,
		).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	}

	// SQLite path: no RETURNING, read the row back after insert
	query := `
		INSERT INTO vocabulary_items (
			user_id, word, translation, definition, example, audio_ref, source_tag,
			ease_factor, "interval", repetitions, next_review_at, mastered, review_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		item.UserID, item.Word, item.Translation, item.Definition, item.Example,
		item.AudioRef, item.SourceTag, item.EaseFactor, item.Interval,
		item.Repetitions, item.NextReviewAt, item.Mastered, item.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	item.ID = id

	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM vocabulary_items WHERE id = ?", item.ID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

// GetByIDAndUser returns an item by ID, scoped to its owner. Items belonging
// to other users are indistinguishable from missing ones (sql.ErrNoRows).
func (r *VocabularyRepository) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	query := r.db.Rebind("SELECT * FROM vocabulary_items WHERE id = ? AND user_id = ?")
	if err := r.db.GetContext(ctx, &item, query, id, userID); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByWordAndUser returns the item for an exact word, scoped to its owner
func (r *VocabularyRepository) GetByWordAndUser(ctx context.Context, word string, userID int64) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	query := r.db.Rebind("SELECT * FROM vocabulary_items WHERE word = ? AND user_id = ?")
	if err := r.db.GetContext(ctx, &item, query, word, userID); err != nil {
		return nil, err
	}
	return &item, nil
}

// DueForUser returns up to limit unmastered items due at the given time,
// soonest first. Items that were never scheduled (next_review_at IS NULL)
// count as already due and sort before everything else.
func (r *VocabularyRepository) DueForUser(ctx context.Context, userID int64, now time.Time, limit int) ([]models.VocabularyItem, error) {
	order := "next_review_at ASC"
	if r.db.DriverName() == "postgres" {
		order = "next_review_at ASC NULLS FIRST"
	}

	query := r.db.Rebind(fmt.Sprintf(`
		SELECT * FROM vocabulary_items
		WHERE user_id = ? AND mastered = false
		  AND (next_review_at IS NULL OR next_review_at <= ?)
		ORDER BY %s
		LIMIT ?
	`, order))

	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, userID, now.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	return items, nil
}

// CountDueForUser returns how many unmastered items are due at the given time
func (r *VocabularyRepository) CountDueForUser(ctx context.Context, userID int64, now time.Time) (int, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM vocabulary_items
		WHERE user_id = ? AND mastered = false
		  AND (next_review_at IS NULL OR next_review_at <= ?)
	`)

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return count, nil
}

// CountByUser returns the total number of items a user is studying
func (r *VocabularyRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := r.db.Rebind("SELECT COUNT(*) FROM vocabulary_items WHERE user_id = ?")

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// CountMasteredByUser returns the number of mastered items for a user
func (r *VocabularyRepository) CountMasteredByUser(ctx context.Context, userID int64) (int, error) {
	query := r.db.Rebind("SELECT COUNT(*) FROM vocabulary_items WHERE user_id = ? AND mastered = true")

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count mastered items: %w", err)
	}
	return count, nil
}

// UpdateReview persists the scheduling fields touched by a review submission
func (r *VocabularyRepository) UpdateReview(ctx context.Context, item *models.VocabularyItem) error {
	if item.NextReviewAt != nil {
		t := item.NextReviewAt.UTC()
		item.NextReviewAt = &t
	}
	if item.LastReviewedAt != nil {
		t := item.LastReviewedAt.UTC()
		item.LastReviewedAt = &t
	}

	query := r.db.Rebind(`
		UPDATE vocabulary_items SET
			ease_factor = ?,
			"interval" = ?,
			repetitions = ?,
			next_review_at = ?,
			mastered = ?,
			last_reviewed_at = ?,
			review_count = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		item.EaseFactor, item.Interval, item.Repetitions, item.NextReviewAt,
		item.Mastered, item.LastReviewedAt, item.ReviewCount,
		item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vocabulary item %d not found for user %d", item.ID, item.UserID)
	}
	return nil
}

// DeleteByIDAndUser removes an item, scoped to its owner
func (r *VocabularyRepository) DeleteByIDAndUser(ctx context.Context, id, userID int64) error {
	query := r.db.Rebind("DELETE FROM vocabulary_items WHERE id = ? AND user_id = ?")
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}
