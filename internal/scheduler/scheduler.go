package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studybuddy/internal/database"
)

// Default bounds of the window in which reminders may be sent
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers a due-items reminder to a learner
type Notifier interface {
	SendReminder(telegramID int64, dueCount int) error
}

// Scheduler runs the hourly reminder sweep
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	items     *database.VocabularyRepository
	startHour int
	endHour   int
}

// New creates a scheduler instance. The notification window can be narrowed
// with NOTIFICATION_START_HOUR and NOTIFICATION_END_HOUR.
func New(notifier Notifier, users *database.UserRepository, items *database.VocabularyRepository) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		items:     items,
		startHour: hourFromEnv("NOTIFICATION_START_HOUR", DefaultNotificationStartHour),
		endHour:   hourFromEnv("NOTIFICATION_END_HOUR", DefaultNotificationEndHour),
	}
}

func hourFromEnv(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}

// Start begins running the hourly sweep in the background
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(func() {
		s.Sweep(context.Background(), time.Now())
	})
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep finds users whose notification hour matches now and reminds those
// with due items, capped at each user's words-per-day preference
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) {
	currentHour := now.Hour()
	if currentHour < s.startHour || currentHour > s.endHour {
		log.Printf("scheduler: hour %d is outside notification window (%d-%d), skipping",
			currentHour, s.startHour, s.endHour)
		return
	}

	users, err := s.users.ForNotificationHour(ctx, currentHour)
	if err != nil {
		log.Printf("scheduler: failed to get users for notification: %v", err)
		return
	}

	for _, user := range users {
		if user.TelegramID == nil {
			continue
		}

		count, err := s.items.CountDueForUser(ctx, user.ID, now)
		if err != nil {
			log.Printf("scheduler: failed to count due items for user %d: %v", user.ID, err)
			continue
		}
		if count == 0 {
			continue
		}

		if user.WordsPerDay > 0 && count > user.WordsPerDay {
			count = user.WordsPerDay
		}
		if err := s.notifier.SendReminder(*user.TelegramID, count); err != nil {
			log.Printf("scheduler: failed to send reminder to user %d: %v", user.ID, err)
		}
	}
}
