// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	GitHub    GitHubConfig    `json:"github"`
	Sheets    SheetsConfig    `json:"sheets"`
	VK        VKConfig        `json:"vk"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
	Cache     CacheConfig     `json:"cache"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type TelegramConfig struct {
	Token         string        `json:"token"`
	APIBaseURL    string        `json:"api_base_url"`
	WebhookURL    string        `json:"webhook_url"`
	WebhookSecret string        `json:"webhook_secret"`
	Timeout       time.Duration `json:"timeout"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	EnableMetrics   bool          `json:"enable_metrics"`
}

type StorageConfig struct {
	DataDir         string `json:"data_dir"`
	VotingFile      string `json:"voting_file"`
	MeetingFile     string `json:"meeting_file"`
	HistoryFile     string `json:"history_file"`
	SubscribersFile string `json:"subscribers_file"`
}

type GitHubConfig struct {
	APIBaseURL  string        `json:"api_base_url"`
	Token       string        `json:"token"`
	Owner       string        `json:"owner"`
	Repo        string        `json:"repo"`
	Branch      string        `json:"branch"`
	HistoryPath string        `json:"history_path"`
	MeetingPath string        `json:"meeting_path"`
	RetryCount  int           `json:"retry_count"`
	RetryDelay  time.Duration `json:"retry_delay"`
	Timeout     time.Duration `json:"timeout"`
}

type SheetsConfig struct {
	APIBaseURL    string        `json:"api_base_url"`
	AccessToken   string        `json:"access_token"`
	SpreadsheetID string        `json:"spreadsheet_id"`
	SheetName     string        `json:"sheet_name"`
	Timeout       time.Duration `json:"timeout"`
}

type VKConfig struct {
	APIBaseURL  string        `json:"api_base_url"`
	AccessToken string        `json:"access_token"`
	OwnerID     int64         `json:"owner_id"`
	APIVersion  string        `json:"api_version"`
	Timeout     time.Duration `json:"timeout"`
}

type LoggingConfig struct {
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	Provider    string        `json:"provider"` // redis, memory
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`
}

type SchedulerConfig struct {
	WeeklyNotifyEnabled bool   `json:"weekly_notify_enabled"`
	NotifyWeekday       int    `json:"notify_weekday"` // 0=Sunday .. 6=Saturday
	NotifyHour          int    `json:"notify_hour"`
	NotifyMinute        int    `json:"notify_minute"`
	Timezone            string `json:"timezone"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Telegram: TelegramConfig{
			Token:         getEnvString("TELEGRAM_BOT_TOKEN", ""),
			APIBaseURL:    getEnvString("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			WebhookURL:    getEnvString("TELEGRAM_WEBHOOK_URL", ""),
			WebhookSecret: getEnvString("TELEGRAM_WEBHOOK_SECRET", ""),
			Timeout:       getEnvDuration("TELEGRAM_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			EnableMetrics:   getEnvBool("SERVER_ENABLE_METRICS", true),
		},
		Storage: StorageConfig{
			DataDir:         getEnvString("STORAGE_DATA_DIR", "data"),
			VotingFile:      getEnvString("STORAGE_VOTING_FILE", "voting.json"),
			MeetingFile:     getEnvString("STORAGE_MEETING_FILE", "next-meeting.json"),
			HistoryFile:     getEnvString("STORAGE_HISTORY_FILE", "films.json"),
			SubscribersFile: getEnvString("STORAGE_SUBSCRIBERS_FILE", "subscriptions.json"),
		},
		GitHub: GitHubConfig{
			APIBaseURL:  getEnvString("GITHUB_API_BASE_URL", "https://api.github.com"),
			Token:       getEnvString("GITHUB_TOKEN", ""),
			Owner:       getEnvString("GITHUB_OWNER", "ulysses-club"),
			Repo:        getEnvString("GITHUB_REPO", "odissea"),
			Branch:      getEnvString("GITHUB_BRANCH", "main"),
			HistoryPath: getEnvString("GITHUB_HISTORY_PATH", "assets/data/films.json"),
			MeetingPath: getEnvString("GITHUB_MEETING_PATH", "assets/data/next-meeting.json"),
			RetryCount:  getEnvInt("GITHUB_RETRY_COUNT", 3),
			RetryDelay:  getEnvDuration("GITHUB_RETRY_DELAY", 2*time.Second),
			Timeout:     getEnvDuration("GITHUB_TIMEOUT", 15*time.Second),
		},
		Sheets: SheetsConfig{
			APIBaseURL:    getEnvString("SHEETS_API_BASE_URL", "https://sheets.googleapis.com/v4"),
			AccessToken:   getEnvString("SHEETS_ACCESS_TOKEN", ""),
			SpreadsheetID: getEnvString("SHEETS_SPREADSHEET_ID", ""),
			SheetName:     getEnvString("SHEETS_SHEET_NAME", "Films"),
			Timeout:       getEnvDuration("SHEETS_TIMEOUT", 15*time.Second),
		},
		VK: VKConfig{
			APIBaseURL:  getEnvString("VK_API_BASE_URL", "https://api.vk.com/method"),
			AccessToken: getEnvString("VK_ACCESS_TOKEN", ""),
			OwnerID:     int64(getEnvInt("VK_OWNER_ID", 0)),
			APIVersion:  getEnvString("VK_API_VERSION", "5.199"),
			Timeout:     getEnvDuration("VK_TIMEOUT", 15*time.Second),
		},
		Logging: LoggingConfig{
			Output:     getEnvString("LOG_OUTPUT", "both"),
			FilePath:   getEnvString("LOG_FILE_PATH", "logs/bot.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", false),
			Provider:    getEnvString("CACHE_PROVIDER", "memory"),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "odissea:"),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", 30*time.Minute),
		},
		Scheduler: SchedulerConfig{
			WeeklyNotifyEnabled: getEnvBool("SCHEDULER_WEEKLY_NOTIFY_ENABLED", true),
			NotifyWeekday:       getEnvInt("SCHEDULER_NOTIFY_WEEKDAY", 5), // Friday
			NotifyHour:          getEnvInt("SCHEDULER_NOTIFY_HOUR", 14),
			NotifyMinute:        getEnvInt("SCHEDULER_NOTIFY_MINUTE", 0),
			Timezone:            getEnvString("SCHEDULER_TIMEZONE", "Europe/Moscow"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() error {
	envFile := ".env"

	// Check if .env file exists
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// .env file doesn't exist, continue with environment variables
		return nil
	}

	// Open .env file
	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	// Read file line by line
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				// Set environment variable if not already set
				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64Slice(key string, defaultValue []int64) []int64 {
	if value := os.Getenv(key); value != "" {
		var result []int64
		for _, item := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" {
				continue
			}
			if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				result = append(result, parsed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate telegram configuration
	if cfg.Telegram.Token == "" {
		errors = append(errors, "TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.Telegram.APIBaseURL == "" {
		errors = append(errors, "TELEGRAM_API_BASE_URL is required")
	}
	if cfg.Telegram.WebhookURL != "" && !strings.HasPrefix(cfg.Telegram.WebhookURL, "https://") {
		errors = append(errors, "TELEGRAM_WEBHOOK_URL must be an https URL")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	// Validate storage configuration
	if cfg.Storage.DataDir == "" {
		errors = append(errors, "STORAGE_DATA_DIR is required")
	}

	// Validate GitHub mirror configuration if enabled
	if cfg.GitHub.Token != "" {
		if cfg.GitHub.Owner == "" {
			errors = append(errors, "GITHUB_OWNER is required when GITHUB_TOKEN is set")
		}
		if cfg.GitHub.Repo == "" {
			errors = append(errors, "GITHUB_REPO is required when GITHUB_TOKEN is set")
		}
		if cfg.GitHub.HistoryPath == "" {
			errors = append(errors, "GITHUB_HISTORY_PATH is required when GITHUB_TOKEN is set")
		}
	}
	if cfg.GitHub.RetryCount < 1 {
		errors = append(errors, "GITHUB_RETRY_COUNT must be at least 1")
	}

	// Validate spreadsheet mirror configuration if enabled
	if cfg.Sheets.AccessToken != "" && cfg.Sheets.SpreadsheetID == "" {
		errors = append(errors, "SHEETS_SPREADSHEET_ID is required when SHEETS_ACCESS_TOKEN is set")
	}

	// Validate VK configuration if enabled
	if cfg.VK.AccessToken != "" && cfg.VK.OwnerID == 0 {
		errors = append(errors, "VK_OWNER_ID is required when VK_ACCESS_TOKEN is set")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	// Validate scheduler configuration
	if cfg.Scheduler.NotifyWeekday < 0 || cfg.Scheduler.NotifyWeekday > 6 {
		errors = append(errors, "SCHEDULER_NOTIFY_WEEKDAY must be between 0 and 6")
	}
	if cfg.Scheduler.NotifyHour < 0 || cfg.Scheduler.NotifyHour > 23 {
		errors = append(errors, "SCHEDULER_NOTIFY_HOUR must be between 0 and 23")
	}
	if cfg.Scheduler.NotifyMinute < 0 || cfg.Scheduler.NotifyMinute > 59 {
		errors = append(errors, "SCHEDULER_NOTIFY_MINUTE must be between 0 and 59")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
