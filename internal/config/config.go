package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv          string
	Debug           bool
	Version         string
	DefaultLanguage string

	// Moderation service API.
	APIBaseURL string
	APIToken   string

	// Telegram front-end. ModeratorChatID is the chat whose admins are
	// treated as moderators.
	BotToken        string
	ModeratorChatID int64

	SentryDSN       string
	MongoDBURI      string
	MongoDBDatabase string
}

// LoadConfig loads configuration from environment variables. A .env
// file is read if present, but real environment variables win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	chatIDStr := getEnv("MODERATOR_CHAT_ID", "")
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil && chatIDStr != "" {
		return nil, fmt.Errorf("invalid MODERATOR_CHAT_ID: %w", err)
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "ru"),
		APIBaseURL:      getEnv("MODERATION_API_URL", ""),
		APIToken:        getEnv("MODERATION_API_TOKEN", ""),
		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		ModeratorChatID: chatID,
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", ""),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("MODERATION_API_URL is required")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.ModeratorChatID == 0 {
		return nil, fmt.Errorf("MODERATOR_CHAT_ID is required")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}
	if cfg.MongoDBURI == "" || cfg.MongoDBDatabase == "" {
		log.Println("Warning: MongoDB is not configured. Moderation audit log disabled.")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
