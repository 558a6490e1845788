package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybuddy/internal/database"
	"github.com/example/studybuddy/internal/excel"
	"github.com/example/studybuddy/internal/study"
	"github.com/example/studybuddy/pkg/models"
)

// reviewSession tracks a user's progress through their current batch of due items
type reviewSession struct {
	Items      []models.VocabularyItem
	CurrentIdx int
	Reviewed   int
	MadeItAll  int // items answered with quality >= 3
}

// Bot runs the Telegram review flow on top of the study service
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *database.UserRepository
	study    *study.Service
	importer *excel.Importer

	mu       sync.Mutex
	sessions map[int64]*reviewSession // keyed by telegram chat ID

	awaitingUpload map[int64]bool
	adminIDs       map[int64]bool
}

// New creates a bot from the TELEGRAM_BOT_TOKEN environment variable
func New(users *database.UserRepository, studySvc *study.Service, importer *excel.Importer) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	b := &Bot{
		api:            api,
		users:          users,
		study:          studySvc,
		importer:       importer,
		sessions:       make(map[int64]*reviewSession),
		awaitingUpload: make(map[int64]bool),
		adminIDs:       make(map[int64]bool),
	}

	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: invalid admin user ID: %s", idStr)
				continue
			}
			b.adminIDs[id] = true
		}
	}

	return b, nil
}

// Start consumes Telegram updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.GetOrCreateByTelegramID(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		log.Printf("bot: failed to resolve user %d: %v", msg.From.ID, err)
		b.send(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	switch msg.Command() {
	case "start":
		b.send(msg.Chat.ID, fmt.Sprintf(
			"Hi %s! I schedule your vocabulary reviews.\n\n"+
				"/add word - translation — add a new word\n"+
				"/review — review what's due\n"+
				"/stats — your progress\n"+
				"/import — bulk import from an .xlsx file (admins)",
			msg.From.FirstName))
	case "add":
		b.handleAdd(ctx, user, msg)
	case "review":
		b.startReview(ctx, user, msg.Chat.ID)
	case "stats":
		b.handleStats(ctx, user, msg.Chat.ID)
	case "import":
		if !b.adminIDs[msg.From.ID] {
			b.send(msg.Chat.ID, "Import is available to admins only.")
			return
		}
		b.setAwaitingUpload(msg.Chat.ID, true)
		b.send(msg.Chat.ID, "Send me an .xlsx file: word in column A, translation in B, definition in C, example in D.")
	default:
		b.send(msg.Chat.ID, "Unknown command. Try /review or /add.")
	}
}

// handleAdd parses "/add word - translation" and creates the item
func (b *Bot) handleAdd(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	parts := strings.SplitN(msg.CommandArguments(), "-", 2)
	if len(parts) != 2 {
		b.send(msg.Chat.ID, "Usage: /add word - translation")
		return
	}

	item, err := b.study.AddItem(ctx, user.ID, study.AddItemInput{
		Word:        strings.TrimSpace(parts[0]),
		Translation: strings.TrimSpace(parts[1]),
		SourceTag:   "manual",
	}, time.Now())
	switch {
	case err == nil:
		reply := fmt.Sprintf("Added *%s* — %s. It's due for review right away.", item.Word, item.Translation)
		if item.Example != "" {
			reply += fmt.Sprintf("\n_%s_", item.Example)
		}
		b.sendMarkdown(msg.Chat.ID, reply)
	case err == study.ErrDuplicateWord:
		b.send(msg.Chat.ID, "You're already studying that word.")
	case err == study.ErrInvalidInput:
		b.send(msg.Chat.ID, "Usage: /add word - translation")
	default:
		log.Printf("bot: failed to add item for user %d: %v", user.ID, err)
		b.send(msg.Chat.ID, "Failed to add the word, please try again.")
	}
}

func (b *Bot) handleStats(ctx context.Context, user *models.User, chatID int64) {
	total, mastered, due, err := b.study.Stats(ctx, user.ID, time.Now())
	if err != nil {
		log.Printf("bot: failed to load stats for user %d: %v", user.ID, err)
		b.send(chatID, "Failed to load your stats.")
		return
	}
	b.send(chatID, fmt.Sprintf("Words: %d\nMastered: %d\nDue now: %d", total, mastered, due))
}

// startReview loads the due batch and presents the first item
func (b *Bot) startReview(ctx context.Context, user *models.User, chatID int64) {
	items, err := b.study.GetDueItems(ctx, user.ID, time.Now())
	if err != nil {
		log.Printf("bot: failed to load due items for user %d: %v", user.ID, err)
		b.send(chatID, "Failed to load your due words.")
		return
	}
	if len(items) == 0 {
		b.send(chatID, "Nothing is due right now. Come back later!")
		return
	}

	b.mu.Lock()
	b.sessions[chatID] = &reviewSession{Items: items}
	b.mu.Unlock()

	b.presentItem(chatID, &items[0], 1, len(items))
}

// presentItem shows one card with the 0-5 quality keyboard
func (b *Bot) presentItem(chatID int64, item *models.VocabularyItem, position, total int) {
	text := fmt.Sprintf("(%d/%d) *%s* — %s", position, total, item.Word, item.Translation)
	if item.Definition != "" {
		text += "\n" + item.Definition
	}
	if item.Example != "" {
		text += fmt.Sprintf("\n_%s_", item.Example)
	}
	text += "\n\nHow well did you recall it? 0 = blackout, 5 = perfect."

	var row []tgbotapi.InlineKeyboardButton
	for q := 0; q <= 5; q++ {
		data := fmt.Sprintf("quality:%d:%d", item.ID, q)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(q), data))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(row)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: failed to send review card: %v", err)
	}
}

// handleCallback processes quality button presses: "quality:<itemID>:<q>"
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("bot: failed to ack callback: %v", err)
	}

	parts := strings.Split(cq.Data, ":")
	if len(parts) != 3 || parts[0] != "quality" {
		return
	}
	itemID, err1 := strconv.ParseInt(parts[1], 10, 64)
	quality, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return
	}

	chatID := cq.Message.Chat.ID
	user, err := b.users.GetByTelegramID(ctx, cq.From.ID)
	if err != nil {
		b.send(chatID, "Please /start first.")
		return
	}

	result, err := b.study.SubmitReview(ctx, user.ID, itemID, quality, time.Now())
	if err != nil {
		log.Printf("bot: review of item %d failed: %v", itemID, err)
		b.send(chatID, "Failed to record that review.")
		return
	}

	reply := fmt.Sprintf("Next review in %d day(s).", result.Interval)
	if result.Mastered {
		reply = "Mastered! This word won't come up again."
	} else if quality < 3 {
		reply = "No worries — it'll come back tomorrow."
	}
	b.send(chatID, reply)

	b.advanceSession(chatID, quality)
}

// advanceSession moves the chat's session to the next card or wraps up
func (b *Bot) advanceSession(chatID int64, quality int) {
	b.mu.Lock()
	session, ok := b.sessions[chatID]
	if ok {
		session.Reviewed++
		if quality >= 3 {
			session.MadeItAll++
		}
		session.CurrentIdx++
	}
	var next *models.VocabularyItem
	var position, total int
	done := false
	if ok {
		if session.CurrentIdx < len(session.Items) {
			next = &session.Items[session.CurrentIdx]
			position = session.CurrentIdx + 1
			total = len(session.Items)
		} else {
			done = true
			delete(b.sessions, chatID)
		}
	}
	b.mu.Unlock()

	if next != nil {
		b.presentItem(chatID, next, position, total)
	} else if done {
		b.send(chatID, fmt.Sprintf("Session complete: %d/%d recalled. 🎉", session.MadeItAll, session.Reviewed))
	}
}

// handleDocument downloads an uploaded spreadsheet and runs the bulk import
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAwaitingUpload(msg.Chat.ID) {
		return
	}
	b.setAwaitingUpload(msg.Chat.ID, false)

	if b.importer == nil {
		b.send(msg.Chat.ID, "Import is not configured.")
		return
	}

	user, err := b.users.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		b.send(msg.Chat.ID, "Please /start first.")
		return
	}

	fileURL, err := b.api.GetFileDirectURL(msg.Document.FileID)
	if err != nil {
		log.Printf("bot: failed to resolve file %s: %v", msg.Document.FileID, err)
		b.send(msg.Chat.ID, "Failed to download the file.")
		return
	}

	localPath := filepath.Join(os.TempDir(), msg.Document.FileName)
	if err := downloadFile(ctx, fileURL, localPath); err != nil {
		log.Printf("bot: failed to download %s: %v", fileURL, err)
		b.send(msg.Chat.ID, "Failed to download the file.")
		return
	}
	defer os.Remove(localPath)

	result, err := b.importer.ImportForUser(ctx, user.ID, localPath)
	if err != nil {
		log.Printf("bot: import failed for user %d: %v", user.ID, err)
		b.send(msg.Chat.ID, "Import failed: "+err.Error())
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf(
		"Import finished: %d created, %d skipped, %d errors out of %d rows.",
		result.Created, result.Skipped, len(result.Errors), result.TotalProcessed))
}

// SendReminder implements the scheduler's Notifier interface
func (b *Bot) SendReminder(telegramID int64, dueCount int) error {
	msg := tgbotapi.NewMessage(telegramID, fmt.Sprintf(
		"You have %d word(s) waiting for review. Run /review when you're ready!", dueCount))
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setAwaitingUpload(chatID int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.awaitingUpload[chatID] = true
	} else {
		delete(b.awaitingUpload, chatID)
	}
}

func (b *Bot) isAwaitingUpload(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingUpload[chatID]
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("bot: failed to send message: %v", err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: failed to send message: %v", err)
	}
}
