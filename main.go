package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/studybuddy/internal/ai"
	"github.com/example/studybuddy/internal/api"
	"github.com/example/studybuddy/internal/bot"
	"github.com/example/studybuddy/internal/database"
	"github.com/example/studybuddy/internal/excel"
	"github.com/example/studybuddy/internal/scheduler"
	"github.com/example/studybuddy/internal/study"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	users := database.NewUserRepository(db)
	items := database.NewVocabularyRepository(db)

	studySvc := study.NewService(items)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		chatGPT, err := ai.New(apiKey)
		if err != nil {
			log.Printf("Warning: unable to initialize OpenAI client: %v", err)
		} else {
			studySvc.WithExampleGenerator(chatGPT)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// HTTP API
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := api.NewHandler(users, studySvc, []byte(jwtSecret))
	server := &http.Server{Addr: addr, Handler: api.NewRouter(handler)}
	go func() {
		log.Printf("HTTP API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Telegram bot and the reminder sweep, when a token is configured
	var sched *scheduler.Scheduler
	if os.Getenv("TELEGRAM_BOT_TOKEN") != "" {
		importer := excel.NewImporter(studySvc)
		b, err := bot.New(users, studySvc, importer)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}

		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Bot error: %v", err)
			}
		}()

		if os.Getenv("ENABLE_SCHEDULER") != "false" {
			sched = scheduler.New(b, users, items)
			sched.Start()
		}
	} else {
		log.Println("TELEGRAM_BOT_TOKEN is not set, running without the bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("studybuddy started. Press Ctrl+C to stop.")
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("studybuddy stopped")
}
