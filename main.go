// Package main provides the main entry point for the Odissea film club bot
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulysses-club/odissea/app/handlers"
	"github.com/ulysses-club/odissea/app/router"
	"github.com/ulysses-club/odissea/app/scheduler"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/config"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	log.Println("Starting Odissea club bot...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	if err := app.router.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging directs the standard logger to stdout, a rotated file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" {
		return
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("Failed to create log directory %s, keeping stdout only: %v", dir, err)
			return
		}
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	default:
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC)
}

// initializeApplication wires repositories, clients, flows, and the router
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	admins, err := config.LoadAdminList()
	if err != nil {
		return nil, fmt.Errorf("failed to load admin list: %w", err)
	}
	log.Printf("Admin allowlist loaded with %d chat(s)", admins.Count())

	store, err := repository.NewDocumentStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	votingRepo := repository.NewVotingRepository(store, cfg.Storage.VotingFile)
	meetingRepo := repository.NewMeetingRepository(store, cfg.Storage.MeetingFile)
	historyRepo := repository.NewHistoryRepository(store, cfg.Storage.HistoryFile)
	subscriberRepo := repository.NewSubscriberRepository(store, cfg.Storage.SubscribersFile)

	messenger := services.NewTelegramClient(cfg.Telegram.APIBaseURL, cfg.Telegram.Token, cfg.Telegram.Timeout)

	var contents businessflow.ContentMirror = disabledContentMirror{}
	var meetingMirror businessflow.MeetingMirror
	if cfg.GitHub.Token != "" {
		github := services.NewGitHubClient(cfg.GitHub)
		contents = github
		meetingMirror = github
	} else {
		log.Println("GitHub mirror disabled: no token configured")
	}

	var sheets businessflow.SheetMirror = disabledSheetMirror{}
	if cfg.Sheets.AccessToken != "" {
		sheets = services.NewSheetsClient(cfg.Sheets)
	} else {
		log.Println("Spreadsheet mirror disabled: no access token configured")
	}

	var poster businessflow.SocialPoster = disabledSocialPoster{}
	if cfg.VK.AccessToken != "" {
		poster = services.NewVKClient(cfg.VK)
	} else {
		log.Println("VK posting disabled: no access token configured")
	}

	conversations, stopCache, err := initializeConversationStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	votingFlow := businessflow.NewVotingFlow(votingRepo, meetingRepo)
	meetingFlow := businessflow.NewMeetingFlow(meetingRepo, meetingMirror)
	archiveFlow := businessflow.NewArchiveFlow(votingRepo, meetingRepo, historyRepo, contents, sheets)
	subscriptionFlow := businessflow.NewSubscriptionFlow(subscriberRepo, messenger)
	vkPostFlow := businessflow.NewVKPostFlow(meetingRepo, poster)
	historyFlow := businessflow.NewHistoryFlow(historyRepo)

	botHandler := handlers.NewBotHandler(
		votingFlow, meetingFlow, archiveFlow, subscriptionFlow, vkPostFlow, historyFlow,
		messenger, conversations, admins,
	)

	app := &Application{
		router: router.NewFiberRouter(botHandler, cfg),
		config: cfg,
	}
	if stopCache != nil {
		app.stopFuncs = append(app.stopFuncs, stopCache)
	}

	if cfg.Telegram.WebhookURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Telegram.Timeout)
		defer cancel()
		if err := messenger.SetWebhook(ctx, cfg.Telegram.WebhookURL+"/telegram/webhook", cfg.Telegram.WebhookSecret); err != nil {
			return nil, fmt.Errorf("failed to register webhook: %w", err)
		}
		log.Println("Webhook registered")
	}

	if cfg.Scheduler.WeeklyNotifyEnabled {
		notifier := scheduler.NewWeeklyNotifier(meetingFlow, subscriptionFlow, cfg.Scheduler)
		app.stopFuncs = append(app.stopFuncs, notifier.Start(context.Background()))
	}

	return app, nil
}

// initializeConversationStore picks the Redis-backed store when caching is
// enabled with the redis provider, otherwise the in-process one
func initializeConversationStore(cfg config.CacheConfig) (services.ConversationStore, func(), error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return services.NewMemoryConversationStore(cfg.DefaultTTL), nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)

	stop := func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
	return services.NewRedisConversationStore(client, cfg.RedisPrefix, cfg.DefaultTTL), stop, nil
}

// Disabled mirror stand-ins used when a remote integration is not configured.
// The archive protocol treats an unconfigured mirror as trivially succeeding.

type disabledContentMirror struct{}

func (disabledContentMirror) PublishHistory(ctx context.Context, entries []models.HistoryEntry) error {
	return nil
}

type disabledSheetMirror struct{}

func (disabledSheetMirror) AppendHistoryEntry(ctx context.Context, e models.HistoryEntry) error {
	return nil
}

type disabledSocialPoster struct{}

func (disabledSocialPoster) WallPost(ctx context.Context, message string, attachments []string) (int64, error) {
	return 0, fmt.Errorf("vk posting is not configured")
}
