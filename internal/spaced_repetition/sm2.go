package spaced_repetition

import (
	"math"
	"time"
)

// SM2 implements a simplified SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Responses at or above this quality count as successful
	PassThreshold int
	// Ease factor never drops below this floor
	MinEaseFactor float64
	// Interval after the first successful review, in days
	FirstInterval int
	// Interval after the second consecutive successful review, in days
	SecondInterval int
}

// NewSM2 creates a new SM2 instance with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  3,
		MinEaseFactor:  1.3,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// MinQuality and MaxQuality bound the valid quality range. The algorithm
// itself does not validate quality; callers reject out-of-range values
// before invoking Schedule.
const (
	MinQuality = 0
	MaxQuality = 5
)

// DefaultEaseFactor is the ease factor assigned to a freshly added item
const DefaultEaseFactor = 2.5

// Result is the outcome of one scheduling step. Pure value, no side effects.
type Result struct {
	EaseFactor   float64
	Interval     int // days
	Repetitions  int
	NextReviewAt time.Time
}

// Schedule computes the next review state from the current one. No DB, no
// clock beyond the passed now; all decisions are deterministic.
//
// A quality below the pass threshold resets progress: repetitions go back to
// zero, the item comes due again tomorrow, and the ease factor is left
// untouched. A passing quality adjusts the ease factor (clamped to the
// floor), grows the interval, and increments the repetition count.
func (sm *SM2) Schedule(quality int, easeFactor float64, interval, repetitions int, now time.Time) Result {
	if quality < sm.PassThreshold {
		return Result{
			EaseFactor:   easeFactor,
			Interval:     1,
			Repetitions:  0,
			NextReviewAt: now.AddDate(0, 0, 1),
		}
	}

	newEF := easeFactor + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	if newEF < sm.MinEaseFactor {
		newEF = sm.MinEaseFactor
	}

	// Interval is chosen by the repetition count before incrementing
	var newInterval int
	switch {
	case repetitions == 0:
		newInterval = sm.FirstInterval
	case repetitions == 1:
		newInterval = sm.SecondInterval
	default:
		newInterval = int(math.Round(float64(interval) * newEF))
	}
	if newInterval < 1 {
		newInterval = 1
	}

	return Result{
		EaseFactor:   newEF,
		Interval:     newInterval,
		Repetitions:  repetitions + 1,
		NextReviewAt: now.AddDate(0, 0, newInterval),
	}
}

// Mastered reports whether an item counts as mastered after a review, given
// the post-update repetition count and the quality the learner submitted.
// The check only ever promotes an item; callers keep mastery monotonic.
func (sm *SM2) Mastered(repetitions, quality int) bool {
	return repetitions >= 5 && quality >= int(QualityCorrectHesitation)
}
