package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Scheduler SchedulerConfig
	Costing   CostingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Driver string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SchedulerConfig holds cron schedules and the timezone used for day-ages.
type SchedulerConfig struct {
	Timezone           string
	TaskCronSchedule   string
	RepairCronSchedule string
	DigestCronSchedule string
}

// CostingConfig tunes bulk death cost recalculation.
type CostingConfig struct {
	RecalcChunkSize   int
	RecalcConcurrency int
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. An empty access
// token disables the worker channel.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	GroupID       string
}

// Enabled reports whether the WhatsApp channel is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig configures the optional Google Sheets mirror of the finance ledger.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	FinanceRange    string
}

// Enabled reports whether the sheets mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	chunkSize, err := getenvInt("RECALC_CHUNK_SIZE", 50)
	if err != nil {
		return nil, err
	}
	concurrency, err := getenvInt("RECALC_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver: getenvWithDefault("STORAGE_DRIVER", StorageMongoDB),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "flockcare"),
		},
		Scheduler: SchedulerConfig{
			Timezone:           getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			TaskCronSchedule:   getenvWithDefault("TASK_CRON_SCHEDULE", "5 0 * * *"),
			RepairCronSchedule: getenvWithDefault("FINANCE_REPAIR_CRON_SCHEDULE", "*/30 * * * *"),
			DigestCronSchedule: getenvWithDefault("TASK_DIGEST_CRON_SCHEDULE", "0 7 * * *"),
		},
		Costing: CostingConfig{
			RecalcChunkSize:   chunkSize,
			RecalcConcurrency: concurrency,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			GroupID:       os.Getenv("WHATSAPP_GROUP_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			FinanceRange:    getenvWithDefault("FINANCE_SHEET_RANGE", "Finance!A:H"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	switch {
	case c.Scheduler.TaskCronSchedule == "":
		return errors.New("TASK_CRON_SCHEDULE must be provided")
	case c.Scheduler.RepairCronSchedule == "":
		return errors.New("FINANCE_REPAIR_CRON_SCHEDULE must be provided")
	}

	if c.Costing.RecalcChunkSize <= 0 {
		return errors.New("RECALC_CHUNK_SIZE must be positive")
	}
	if c.Costing.RecalcConcurrency <= 0 {
		return errors.New("RECALC_CONCURRENCY must be positive")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.FinanceRange == "" {
		return errors.New("FINANCE_SHEET_RANGE must not be empty")
	}

	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduler.Timezone)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
