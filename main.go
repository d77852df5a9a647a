package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"

	appBotPkg "admod-bot/bot"
	"admod-bot/internal/actionlog"
	"admod-bot/internal/auth"
	"admod-bot/internal/botui"
	"admod-bot/internal/config"
	"admod-bot/internal/controller"
	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	locales.Init(cfg.DefaultLanguage)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Audit log is optional: without MongoDB the console still works,
	// decisions are just not persisted locally.
	var logger actionlog.Logger = actionlog.NopLogger{}
	if cfg.MongoDBURI != "" && cfg.MongoDBDatabase != "" {
		client, db, err := actionlog.ConnectDB(cfg)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal(err)
		}
		defer func() {
			if err = client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
				sentry.CaptureException(err)
			} else {
				log.Println("Disconnected from MongoDB.")
			}
		}()
		logger = actionlog.NewMongoLogger(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiClient, err := moderapi.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.Debug)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create moderation API client: %v", err)
	}

	adsStore := store.NewAdsStore(apiClient)
	statsStore := store.NewStatsStore(apiClient)
	detailController := controller.NewAdDetailController(adsStore, nil, nil)
	listController := controller.NewAdsListController(adsStore, nil, nil)
	defer detailController.Close()
	defer listController.Close()

	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	moderatorChecker, err := auth.NewModeratorChecker(bot, cfg.ModeratorChatID)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create moderator checker: %v", err)
	}

	consoleHandler, err := botui.NewHandler(
		bot,
		adsStore,
		statsStore,
		detailController,
		listController,
		moderatorChecker,
		logger,
		cfg.Version,
	)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	appBot, err := appBotPkg.New(appBotPkg.Deps{
		Bot:         bot,
		UpdatesChan: updates,
		Handler:     consoleHandler,
		Debug:       cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	go appBot.Start(ctx)

	<-ctx.Done()
	log.Println("Shutting down bot...")
	log.Println("Bot shutdown complete.")
}
