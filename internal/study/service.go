package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/studybuddy/internal/spaced_repetition"
	"github.com/example/studybuddy/pkg/models"
)

// DueLimit caps how many items a single review session is handed
const DueLimit = 20

var (
	// ErrNotFound is returned when an item does not exist or belongs to
	// another user
	ErrNotFound = errors.New("vocabulary item not found")
	// ErrInvalidQuality is returned when a quality rating is outside 0-5
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
	// ErrInvalidInput is returned when a new item is missing word or translation
	ErrInvalidInput = errors.New("word and translation are required")
	// ErrDuplicateWord is returned when the user already studies the word
	ErrDuplicateWord = errors.New("word already exists for this user")
)

// ItemStore is the persistence surface the service needs
type ItemStore interface {
	Create(ctx context.Context, item *models.VocabularyItem) error
	GetByIDAndUser(ctx context.Context, id, userID int64) (*models.VocabularyItem, error)
	GetByWordAndUser(ctx context.Context, word string, userID int64) (*models.VocabularyItem, error)
	DueForUser(ctx context.Context, userID int64, now time.Time, limit int) ([]models.VocabularyItem, error)
	CountDueForUser(ctx context.Context, userID int64, now time.Time) (int, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CountMasteredByUser(ctx context.Context, userID int64) (int, error)
	UpdateReview(ctx context.Context, item *models.VocabularyItem) error
	DeleteByIDAndUser(ctx context.Context, id, userID int64) error
}

// ExampleGenerator fills in a missing example sentence for a new word.
// Optional; a nil generator disables enrichment.
type ExampleGenerator interface {
	GenerateExample(ctx context.Context, word, translation string) (string, error)
}

// Service orchestrates review sessions: it queries due items, runs the SM-2
// step on submitted reviews and persists the updated scheduling state.
type Service struct {
	items    ItemStore
	sm2      *spaced_repetition.SM2
	examples ExampleGenerator
}

// NewService creates a review service over the given store
func NewService(items ItemStore) *Service {
	return &Service{
		items: items,
		sm2:   spaced_repetition.NewSM2(),
	}
}

// WithExampleGenerator enables example enrichment for newly added words
func (s *Service) WithExampleGenerator(g ExampleGenerator) *Service {
	s.examples = g
	return s
}

// GetDueItems returns up to DueLimit unmastered items due for review at the
// given time, soonest first. Read-only.
func (s *Service) GetDueItems(ctx context.Context, userID int64, now time.Time) ([]models.VocabularyItem, error) {
	items, err := s.items.DueForUser(ctx, userID, now, DueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load due items: %w", err)
	}
	return items, nil
}

// ReviewResult is what a review submission hands back to the caller
type ReviewResult struct {
	NextReviewAt time.Time `json:"next_review_at"`
	Mastered     bool      `json:"mastered"`
	Interval     int       `json:"interval"`
	EaseFactor   float64   `json:"ease_factor"`
	Repetitions  int       `json:"repetitions"`
}

// SubmitReview applies a learner's quality rating (0-5) to one of their
// items: the SM-2 step computes the new scheduling state, mastery is derived
// from the post-update repetition count and the submitted quality, and all
// touched fields are persisted. Mastery is monotonic: a poor review of a
// mastered item reschedules it but never clears the flag.
func (s *Service) SubmitReview(ctx context.Context, userID, itemID int64, quality int, now time.Time) (*ReviewResult, error) {
	if quality < spaced_repetition.MinQuality || quality > spaced_repetition.MaxQuality {
		return nil, ErrInvalidQuality
	}

	item, err := s.items.GetByIDAndUser(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	res := s.sm2.Schedule(quality, item.EaseFactor, item.Interval, item.Repetitions, now)

	item.EaseFactor = res.EaseFactor
	item.Interval = res.Interval
	item.Repetitions = res.Repetitions
	nextReview := res.NextReviewAt
	item.NextReviewAt = &nextReview
	reviewedAt := now
	item.LastReviewedAt = &reviewedAt
	item.ReviewCount++
	if s.sm2.Mastered(res.Repetitions, quality) {
		item.Mastered = true
	}

	if err := s.items.UpdateReview(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist review: %w", err)
	}

	return &ReviewResult{
		NextReviewAt: res.NextReviewAt,
		Mastered:     item.Mastered,
		Interval:     res.Interval,
		EaseFactor:   res.EaseFactor,
		Repetitions:  res.Repetitions,
	}, nil
}

// AddItemInput carries the caller-supplied fields of a new vocabulary item
type AddItemInput struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Definition  string `json:"definition"`
	Example     string `json:"example"`
	AudioRef    string `json:"audio_ref"`
	SourceTag   string `json:"source_tag"`
}

// AddItem creates a new item with scheduler defaults: ease factor 2.5,
// interval 1, zero repetitions, immediately due. When an example generator
// is configured and the input has no example, one is generated; generation
// failures degrade to an empty example.
func (s *Service) AddItem(ctx context.Context, userID int64, input AddItemInput, now time.Time) (*models.VocabularyItem, error) {
	word := strings.TrimSpace(input.Word)
	translation := strings.TrimSpace(input.Translation)
	if word == "" || translation == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.items.GetByWordAndUser(ctx, word, userID); err == nil {
		return nil, ErrDuplicateWord
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate: %w", err)
	}

	example := strings.TrimSpace(input.Example)
	if example == "" && s.examples != nil {
		generated, err := s.examples.GenerateExample(ctx, word, translation)
		if err != nil {
			log.Printf("study: example generation failed for %q: %v", word, err)
		} else {
			example = generated
		}
	}

	sourceTag := input.SourceTag
	if sourceTag == "" {
		sourceTag = "manual"
	}

	due := now
	item := &models.VocabularyItem{
		UserID:       userID,
		Word:         word,
		Translation:  translation,
		Definition:   strings.TrimSpace(input.Definition),
		Example:      example,
		AudioRef:     input.AudioRef,
		SourceTag:    sourceTag,
		EaseFactor:   spaced_repetition.DefaultEaseFactor,
		Interval:     1,
		Repetitions:  0,
		NextReviewAt: &due,
		Mastered:     false,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// DeleteItem removes one of the user's items. Items belonging to other users
// are reported as ErrNotFound, same as missing ones.
func (s *Service) DeleteItem(ctx context.Context, userID, itemID int64) error {
	if _, err := s.items.GetByIDAndUser(ctx, itemID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	if err := s.items.DeleteByIDAndUser(ctx, itemID, userID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Stats returns the user's total, mastered and currently-due item counts
func (s *Service) Stats(ctx context.Context, userID int64, now time.Time) (total, mastered, due int, err error) {
	if total, err = s.items.CountByUser(ctx, userID); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count items: %w", err)
	}
	if mastered, err = s.items.CountMasteredByUser(ctx, userID); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count mastered items: %w", err)
	}
	if due, err = s.items.CountDueForUser(ctx, userID, now); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return total, mastered, due, nil
}
