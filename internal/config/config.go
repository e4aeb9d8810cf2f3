// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	SiteURL            string
	DatabasePath       string
	LogLevel           string
	CommentSyncMinutes int
	TelegramBotToken   string
	TelegramChatID     int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		return nil, fmt.Errorf("SITE_URL is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/syndicator.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	syncMinutes := 30
	if raw := os.Getenv("COMMENT_SYNC_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid COMMENT_SYNC_MINUTES %q", raw)
		}
		syncMinutes = n
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	var chatID int64
	if token != "" {
		raw := os.Getenv("TELEGRAM_CHAT_ID")
		if raw == "" {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		chatID = id
	}

	return &Config{
		SiteURL:            siteURL,
		DatabasePath:       dbPath,
		LogLevel:           logLevel,
		CommentSyncMinutes: syncMinutes,
		TelegramBotToken:   token,
		TelegramChatID:     chatID,
	}, nil
}
