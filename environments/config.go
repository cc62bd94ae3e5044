package environments

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Provider  ProviderConfig
	Message   MessageConfig
	Reminder  ReminderConfig
	Scheduler SchedulerConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ProviderConfig bounds delivery to supplier chat webhooks.
type ProviderConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

type MessageConfig struct {
	MaxContentLength int
	PendingBatchSize int
}

// ReminderConfig drives the scheduled reminder sweep. Day windows are
// counted against order milestones; Cooldown suppresses repeat reminders to
// the same order between sweeps.
type ReminderConfig struct {
	Interval            time.Duration
	ConfirmAfterDays    int
	StartAfterDays      int
	DeadlineWarningDays int
	ShippingDocsDays    int
	Cooldown            time.Duration
}

type AuthConfig struct {
	MessagesAPIKey  string
	SchedulerAPIKey string
}

// SchedulerConfig controls the background delivery/reminder loop. The alert
// webhook is an internal ops channel, unrelated to supplier webhooks.
type SchedulerConfig struct {
	Interval       time.Duration
	AlertWebhook   string
	AlertThreshold int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "tradeops"),
			Password: GetEnv("DB_PASSWORD", "tradeops123"),
			DBName:   GetEnv("DB_NAME", "factory_messages"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			Timeout:        time.Duration(GetEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxAttempts:    GetEnvAsInt("PROVIDER_MAX_ATTEMPTS", 3),
			RetryBaseDelay: time.Duration(GetEnvAsInt("PROVIDER_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		},
		Message: MessageConfig{
			MaxContentLength: GetEnvAsInt("MESSAGE_MAX_CONTENT_LENGTH", 4000),
			PendingBatchSize: GetEnvAsInt("MESSAGE_PENDING_BATCH_SIZE", 20),
		},
		Reminder: ReminderConfig{
			Interval:            time.Duration(GetEnvAsInt("REMINDER_INTERVAL_MINUTES", 360)) * time.Minute,
			ConfirmAfterDays:    GetEnvAsInt("REMINDER_CONFIRM_AFTER_DAYS", 2),
			StartAfterDays:      GetEnvAsInt("REMINDER_START_AFTER_DAYS", 3),
			DeadlineWarningDays: GetEnvAsInt("REMINDER_DEADLINE_WARNING_DAYS", 7),
			ShippingDocsDays:    GetEnvAsInt("REMINDER_SHIPPING_DOCS_DAYS", 3),
			Cooldown:            time.Duration(GetEnvAsInt("REMINDER_COOLDOWN_HOURS", 24)) * time.Hour,
		},
		Scheduler: SchedulerConfig{
			Interval:       time.Duration(GetEnvAsInt("SCHEDULER_INTERVAL_MINUTES", 5)) * time.Minute,
			AlertWebhook:   GetEnv("SCHEDULER_ALERT_WEBHOOK", ""),
			AlertThreshold: GetEnvAsInt("SCHEDULER_ALERT_THRESHOLD", 3),
		},
		Auth: AuthConfig{
			MessagesAPIKey:  GetEnv("MESSAGES_API_KEY", ""),
			SchedulerAPIKey: GetEnv("SCHEDULER_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
