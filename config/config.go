package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tourbot/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values. It is loaded once at startup and never mutated afterwards.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Timezone string `mapstructure:"TIMEZONE"`

	// Telegram.
	BotToken         string `mapstructure:"BOT_TOKEN"`
	AdminUsername    string `mapstructure:"ADMIN_USERNAME"`
	AdminChatIDsRaw  string `mapstructure:"ADMIN_CHAT_IDS"`
	AdminChatIDRaw   string `mapstructure:"ADMIN_CHAT_ID"`
	MaxUpdatesPerMin int    `mapstructure:"MAX_UPDATES_PER_MIN"`

	// Booking store.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	BookingsFile string `mapstructure:"BOOKINGS_FILE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Conversation sessions.
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Operator notifications: "direct" sends inline, "queue" goes through asynq.
	NotifyMode string `mapstructure:"NOTIFY_MODE"`

	Locations []models.Location `mapstructure:"LOCATIONS"`

	AdminChatIDs []int64          `mapstructure:"-"`
	Schedule     *models.Schedule `mapstructure:"-"`
	TimeLocation *time.Location   `mapstructure:"-"`
}

const (
	StoreFile  = "file"
	StoreMongo = "mongo"

	SessionMemory = "memory"
	SessionRedis  = "redis"

	NotifyDirect = "direct"
	NotifyQueue  = "queue"
)

// DefaultLocations is the excursion schedule used when no config file overrides it.
var DefaultLocations = []models.Location{
	{Name: "Вершины Феодосии", Times: []string{"09:00", "13:00", "17:00"}},
	{Name: "Белая Скала", Times: []string{"08:00", "14:00"}},
	{Name: "Арпатские водопады", Times: []string{"08:00", "14:00"}},
	{Name: "Меганом и мысы Судака", Times: []string{"08:00", "14:00"}},
}

// LoadConfig reads config.yaml (if present) from the current or ./config directory, overlays
// environment variables and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "Europe/Moscow")
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_CHAT_IDS", "")
	v.SetDefault("ADMIN_CHAT_ID", "")
	v.SetDefault("MAX_UPDATES_PER_MIN", 60)
	v.SetDefault("STORE_BACKEND", StoreFile)
	v.SetDefault("BOOKINGS_FILE", "bookings.json")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "tourbot")
	v.SetDefault("SESSION_BACKEND", SessionMemory)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("NOTIFY_MODE", NotifyDirect)
	v.SetDefault("LOCATIONS", locationsDefault())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func locationsDefault() []map[string]any {
	out := make([]map[string]any, 0, len(DefaultLocations))
	for _, loc := range DefaultLocations {
		out = append(out, map[string]any{"name": loc.Name, "times": loc.Times})
	}
	return out
}

func (c *Config) finalize() error {
	ids, err := ParseChatIDs(c.AdminChatIDsRaw)
	if err != nil {
		return fmt.Errorf("ADMIN_CHAT_IDS: %w", err)
	}
	if len(ids) == 0 {
		// Older deployments configured a single operator.
		if ids, err = ParseChatIDs(c.AdminChatIDRaw); err != nil {
			return fmt.Errorf("ADMIN_CHAT_ID: %w", err)
		}
	}
	c.AdminChatIDs = ids

	schedule, err := models.NewSchedule(c.Locations)
	if err != nil {
		return err
	}
	c.Schedule = schedule

	tz, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.TimeLocation = tz

	switch c.StoreBackend {
	case StoreFile, StoreMongo:
	default:
		return fmt.Errorf("STORE_BACKEND: unknown backend %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND: unknown backend %q", c.SessionBackend)
	}
	switch c.NotifyMode {
	case NotifyDirect, NotifyQueue:
	default:
		return fmt.Errorf("NOTIFY_MODE: unknown mode %q", c.NotifyMode)
	}
	if c.MaxUpdatesPerMin <= 0 {
		return fmt.Errorf("MAX_UPDATES_PER_MIN must be positive")
	}
	return nil
}

// ParseChatIDs parses a comma-separated list of numeric chat ids, skipping blanks.
func ParseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsOperator reports whether chatID is on the operator allow-list.
func (c *Config) IsOperator(chatID int64) bool {
	for _, id := range c.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Now returns the current time in the configured timezone.
func (c *Config) Now() time.Time {
	return time.Now().In(c.TimeLocation)
}
