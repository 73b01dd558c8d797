package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Archive   ArchiveConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	OpenAI    OpenAIConfig
	Webhook   WebhookConfig
	Dashboard DashboardConfig
	Memory    MemoryConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// ArchiveConfig locates the on-disk tester folders and registry
type ArchiveConfig struct {
	DataDir      string `envconfig:"DATA_DIR" default:"data/beta_testers"`
	RegistryFile string `envconfig:"REGISTRY_FILE" default:"data/beta_testers.json"`
	KeywordsFile string `envconfig:"KEYWORDS_FILE"`
}

// DatabaseConfig holds database configuration. When disabled the tester
// registry is kept in RegistryFile.
type DatabaseConfig struct {
	Enabled     bool   `envconfig:"DB_ENABLED" default:"false"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"telaila"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"2"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string        `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	DedupTTL time.Duration `envconfig:"WEBHOOK_DEDUP_TTL" default:"72h"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"telaila-archive"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL"`
}

// OpenAIConfig configures conversation analysis and memory compression
type OpenAIConfig struct {
	APIKey          string        `envconfig:"OPENAI_API_KEY"`
	Model           string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	MaxOutputTokens int64         `envconfig:"OPENAI_MAX_OUTPUT_TOKENS" default:"3000"`
	Timeout         time.Duration `envconfig:"OPENAI_TIMEOUT" default:"90s"`
}

// WebhookConfig holds the conversation-ended webhook settings
type WebhookConfig struct {
	Secret    string        `envconfig:"ELEVENLABS_WEBHOOK_SECRET"`
	Tolerance time.Duration `envconfig:"WEBHOOK_TOLERANCE" default:"30m"`
	AgentName string        `envconfig:"AGENT_NAME" default:"Aila"`
}

// DashboardConfig carries the report policy thresholds
type DashboardConfig struct {
	Timezone                    string  `envconfig:"DASHBOARD_TIMEZONE" default:"America/Vancouver"`
	ActiveWithinDays            int     `envconfig:"DASHBOARD_ACTIVE_WITHIN_DAYS" default:"7"`
	RecentMoodWindow            int     `envconfig:"DASHBOARD_RECENT_MOOD_WINDOW" default:"5"`
	WeeklyFallbackCount         int     `envconfig:"DASHBOARD_WEEKLY_FALLBACK" default:"3"`
	MaxAlerts                   int     `envconfig:"DASHBOARD_MAX_ALERTS" default:"5"`
	MinRegularConversations     int     `envconfig:"DASHBOARD_MIN_REGULAR_CONVERSATIONS" default:"3"`
	EngagementHighThreshold     float64 `envconfig:"DASHBOARD_ENGAGEMENT_HIGH" default:"2.5"`
	EngagementModerateThreshold float64 `envconfig:"DASHBOARD_ENGAGEMENT_MODERATE" default:"1.5"`
	SymptomModerateMentions     int     `envconfig:"HEALTH_SYMPTOM_MODERATE_MENTIONS" default:"3"`
	DescriptionMaxLength        int     `envconfig:"HEALTH_DESCRIPTION_MAX" default:"350"`
	ContextBefore               int     `envconfig:"HEALTH_CONTEXT_BEFORE" default:"60"`
	ContextAfter                int     `envconfig:"HEALTH_CONTEXT_AFTER" default:"140"`
	ScanKnowledgeBase           bool    `envconfig:"HEALTH_SCAN_KNOWLEDGE_BASE" default:"true"`
	SecondsPerTurn              int     `envconfig:"DASHBOARD_SECONDS_PER_TURN" default:"30"`
}

// MemoryConfig controls knowledge base compression
type MemoryConfig struct {
	CompressThreshold int `envconfig:"MEMORY_COMPRESS_THRESHOLD" default:"15000"`
	KeepSessions      int `envconfig:"MEMORY_KEEP_SESSIONS" default:"3"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	sections := []interface{}{
		&cfg.Server,
		&cfg.Archive,
		&cfg.Database,
		&cfg.Redis,
		&cfg.Storage,
		&cfg.OpenAI,
		&cfg.Webhook,
		&cfg.Dashboard,
		&cfg.Memory,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
		return fmt.Errorf("DASHBOARD_TIMEZONE %q is invalid: %w", c.Dashboard.Timezone, err)
	}
	if c.Dashboard.EngagementHighThreshold <= c.Dashboard.EngagementModerateThreshold {
		return fmt.Errorf("DASHBOARD_ENGAGEMENT_HIGH must be greater than DASHBOARD_ENGAGEMENT_MODERATE")
	}
	if c.Dashboard.MaxAlerts <= 0 {
		return fmt.Errorf("DASHBOARD_MAX_ALERTS must be positive")
	}
	if c.Archive.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Server.Environment == "production" && c.Webhook.Secret == "" {
		return fmt.Errorf("ELEVENLABS_WEBHOOK_SECRET is required in production")
	}
	return nil
}

// Location returns the dashboard's local timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dashboard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
