package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"wordler/database"

	"github.com/joho/godotenv"
)

// ErrConfiguration is returned for missing or malformed settings
var ErrConfiguration = errors.New("invalid configuration")

// Store backends
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken    string
	WordleChannelID string // Only messages in this channel are parsed

	// Stats store configuration
	StoreBackend string // "file", "postgres" or "redis"
	DataPath     string // JSON document path for the file backend

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Leaderboard configuration
	LeaderboardSize          int
	LeaderboardMinGames      int
	LeaderboardPostEnabled   bool
	LeaderboardPostHour      int // UTC
	LeaderboardPostMinute    int // UTC
	LeaderboardPostChannelID string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables events

	// Observability configuration
	OTELEnabled          bool
	OTELExporterType     string // "console" or "otlp"
	OTELExporterEndpoint string
	OTELServiceName      string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance, loading it on first use.
// It panics when the environment is invalid; call Load first to handle the
// error instead.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		instance = cfg
	}
	return instance
}

// Load reads configuration from the environment, and from .env when
// present, and installs it as the global instance
func Load() (*Config, error) {
	return install((*Config).Validate)
}

// LoadForStore is Load for offline commands: only the stats store settings
// are required
func LoadForStore() (*Config, error) {
	return install((*Config).ValidateStore)
}

func install(validate func(*Config) error) (*Config, error) {
	// A missing .env is normal in production
	_ = godotenv.Load()

	cfg, err := loadValidated(validate)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PostChannelID returns the channel the daily leaderboard goes to
func (c *Config) PostChannelID() string {
	if c.LeaderboardPostChannelID != "" {
		return c.LeaderboardPostChannelID
	}
	return c.WordleChannelID
}

// load loads and fully validates configuration from environment variables
func load() (*Config, error) {
	return loadValidated((*Config).Validate)
}

// loadValidated parses the environment and applies validate outside the
// test environment
func loadValidated(validate func(*Config) error) (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		WordleChannelID: os.Getenv("WORDLE_CHANNEL_ID"),

		// Store
		StoreBackend: strings.ToLower(getEnvWithDefault("STORE_BACKEND", StoreBackendFile)),
		DataPath:     getEnvWithDefault("DATA_PATH", "./data/wordle_stats.json"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Redis
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		// Leaderboard
		LeaderboardSize:          10,
		LeaderboardMinGames:      1,
		LeaderboardPostChannelID: os.Getenv("LEADERBOARD_POST_CHANNEL_ID"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Observability
		OTELEnabled:          os.Getenv("OTEL_ENABLED") == "true",
		OTELExporterType:     getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTELExporterEndpoint: getEnvWithDefault("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTELServiceName:      getEnvWithDefault("OTEL_SERVICE_NAME", "wordler"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.RedisDB, err = getEnvInt("REDIS_DB", 0, 0); err != nil {
		return nil, err
	}
	if config.LeaderboardSize, err = getEnvInt("LEADERBOARD_SIZE", config.LeaderboardSize, 1); err != nil {
		return nil, err
	}
	if config.LeaderboardMinGames, err = getEnvInt("LEADERBOARD_MIN_GAMES", config.LeaderboardMinGames, 1); err != nil {
		return nil, err
	}

	if postTime := os.Getenv("LEADERBOARD_POST_TIME"); postTime != "" {
		hour, minute, err := ParsePostTime(postTime)
		if err != nil {
			return nil, err
		}
		config.LeaderboardPostEnabled = true
		config.LeaderboardPostHour = hour
		config.LeaderboardPostMinute = minute
	}

	if config.Environment != "test" {
		if err := validate(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks that required settings for the chosen backends are present
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("%w: DISCORD_TOKEN is required", ErrConfiguration)
	}
	if c.WordleChannelID == "" {
		return fmt.Errorf("%w: WORDLE_CHANNEL_ID is required", ErrConfiguration)
	}
	return c.ValidateStore()
}

// ValidateStore checks only the stats store settings. Offline commands that
// never connect to Discord use it.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case StoreBackendFile:
		if c.DataPath == "" {
			return fmt.Errorf("%w: DATA_PATH cannot be empty", ErrConfiguration)
		}
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrConfiguration)
		}
	case StoreBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis store", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrConfiguration, c.StoreBackend)
	}
	return nil
}

// ParsePostTime parses a UTC "HH:MM" wall-clock time
func ParsePostTime(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: LEADERBOARD_POST_TIME must be HH:MM, got %q", ErrConfiguration, value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: invalid hour in LEADERBOARD_POST_TIME %q", ErrConfiguration, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minute in LEADERBOARD_POST_TIME %q", ErrConfiguration, value)
	}

	return hour, minute, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer variable no smaller than min
func getEnvInt(key string, defaultValue, min int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < min {
		return 0, fmt.Errorf("%w: %s must be an integer >= %d, got %q", ErrConfiguration, key, min, value)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig clears the global config instance for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		WordleChannelID:     "wordle-channel",
		StoreBackend:        StoreBackendFile,
		DataPath:            "./data/wordle_stats.json",
		LeaderboardSize:     10,
		LeaderboardMinGames: 1,
		OTELExporterType:    "console",
		OTELServiceName:     "wordler",
		LogLevel:            "info",
		Environment:         "test",
	}
}
