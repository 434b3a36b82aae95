// Package config loads bot settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Messenger settings
	Messenger              string // "line" or "telegram"
	LineChannelSecret      string
	LineChannelAccessToken string
	TelegramToken          string
	TelegramChatIDs        []string

	// Generative model settings
	GenerativeProvider    string // "gemini", "openai" or "none"
	GeminiAPIKey          string
	GeminiModel           string
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	MaxGenerativeRequests int // per day, 0 = unlimited
	AIMinInterval         time.Duration

	// Natural Language API settings
	NLAPIEnabled  bool
	NLAPIKey      string
	MaxNLRequests int

	// Summarizer tuning
	SummaryMinCJKRatio float64
	EntityMinSalience  float64
	SummaryCacheTTL    time.Duration

	// RSS settings
	FeedsConfigPath    string
	ScrapeEmptySummary bool

	// Delivery settings
	MaxSubscribers int
	RecordTTL      time.Duration
	SkipDuplicates bool

	// Storage settings
	StorageDriver string // "file" or "postgres"
	DatabaseURL   string
	StoreFilePath string

	// Server and schedule
	Port               string
	TriggerToken       string
	ScheduleTimes      string
	ScheduleCategories []string
	Timezone           string

	// App settings
	Debug          bool
	LogFormat      string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Load reads the env files (.env by default) when present, then the
// environment, then validates. Variables already set are not overridden.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Messenger:              strings.ToLower(getEnvOrDefault("MESSENGER", "line")),
		LineChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		TelegramToken:          os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatIDs:        getEnvList("TELEGRAM_CHAT_IDS", nil),

		GenerativeProvider:    strings.ToLower(getEnvOrDefault("GENERATIVE_PROVIDER", "gemini")),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		MaxGenerativeRequests: getEnvIntOrDefault("MAX_GENERATIVE_REQUESTS", 0),
		AIMinInterval:         getEnvDurationOrDefault("AI_MIN_INTERVAL", 0),

		NLAPIEnabled:  getEnvBoolOrDefault("NL_API_ENABLED", true),
		NLAPIKey:      os.Getenv("GOOGLE_NL_API_KEY"),
		MaxNLRequests: getEnvIntOrDefault("MAX_NL_REQUESTS", 0),

		SummaryMinCJKRatio: getEnvFloatOrDefault("SUMMARY_MIN_CJK_RATIO", 0.3),
		EntityMinSalience:  getEnvFloatOrDefault("ENTITY_MIN_SALIENCE", 0.05),
		SummaryCacheTTL:    getEnvDurationOrDefault("SUMMARY_CACHE_TTL", 6*time.Hour),

		FeedsConfigPath:    getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		ScrapeEmptySummary: getEnvBoolOrDefault("SCRAPE_EMPTY_SUMMARY", true),

		MaxSubscribers: getEnvIntOrDefault("MAX_SUBSCRIBERS", 5),
		RecordTTL:      getEnvDurationOrDefault("RECORD_TTL", 24*time.Hour),
		SkipDuplicates: getEnvBoolOrDefault("SKIP_DUPLICATES", true),

		StorageDriver: strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", "file")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StoreFilePath: getEnvOrDefault("STORE_FILE_PATH", "newsbot.json"),

		Port:               getEnvOrDefault("PORT", "8080"),
		TriggerToken:       os.Getenv("TRIGGER_TOKEN"),
		ScheduleTimes:      os.Getenv("SCHEDULE_TIMES"),
		ScheduleCategories: getEnvList("SCHEDULE_CATEGORIES", []string{"tech", "business"}),
		Timezone:           getEnvOrDefault("TIMEZONE", "Asia/Taipei"),

		Debug:          getEnvBoolOrDefault("DEBUG", false),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:     getEnvDurationOrDefault("RETRY_DELAY", 2*time.Second),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Validate() error {
	switch c.Messenger {
	case "line":
		if c.LineChannelAccessToken == "" {
			return fmt.Errorf("LINE_CHANNEL_ACCESS_TOKEN is required")
		}
		if c.LineChannelSecret == "" {
			return fmt.Errorf("LINE_CHANNEL_SECRET is required")
		}
	case "telegram":
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if len(c.TelegramChatIDs) == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_IDS is required")
		}
	default:
		return fmt.Errorf("MESSENGER must be 'line' or 'telegram'")
	}

	switch c.GenerativeProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "none":
	default:
		return fmt.Errorf("GENERATIVE_PROVIDER must be 'gemini', 'openai' or 'none'")
	}

	switch c.StorageDriver {
	case "file":
		if c.StoreFilePath == "" {
			return fmt.Errorf("STORE_FILE_PATH is required")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be 'file' or 'postgres'")
	}

	if c.MaxSubscribers <= 0 {
		return fmt.Errorf("MAX_SUBSCRIBERS must be positive")
	}
	if c.SummaryMinCJKRatio < 0 || c.SummaryMinCJKRatio > 1 {
		return fmt.Errorf("SUMMARY_MIN_CJK_RATIO must be between 0 and 1")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}
