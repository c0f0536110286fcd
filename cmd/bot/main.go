// cmd/bot/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/bot"
	"github.com/ohavryliuk/fieldbot/internal/config"
	"github.com/ohavryliuk/fieldbot/internal/database"
	"github.com/ohavryliuk/fieldbot/internal/dialog"
	"github.com/ohavryliuk/fieldbot/internal/repository"
	"github.com/ohavryliuk/fieldbot/internal/service"
	"github.com/ohavryliuk/fieldbot/internal/telegram"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Infof("Connecting to %s database...", cfg.Database.Driver)
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("Failed to close database connection: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migration: %v", err)
	}

	repo := repository.NewSQLTaskRepository(db)
	tasks := service.NewTaskService(repo)
	dialogs := dialog.NewManager(repo)

	client, err := telegram.New(cfg.Bot.Token, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}

	handler := bot.NewHandler(client, tasks, dialogs)
	sweeper := service.NewReminderSweeper(repo, client)

	// The daily sweep runs independently of interactive handling.
	go sweeper.Run(ctx, cfg.Reminder.Hour, cfg.Reminder.Minute)
	go client.Poll(ctx, handler)

	log.Info("🚀 Field-service bot is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("📴 Shutting down...")
	cancel()
	log.Info("✅ Shutdown complete")
}
