package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Request transition policies, see service.TransitionPolicy.
const (
	TransitionsStrict = "strict"
	TransitionsLegacy = "legacy"
)

// Config holds every runtime setting of the API process.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LockTimeout bounds how long a sale or stock edit waits for the product row lock.
	LockTimeout        time.Duration
	RequestTransitions string
	DefaultThreshold   int

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	KafkaBrokers     []string
	KafkaTopicPrefix string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "3000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisChannel:     getEnv("REDIS_CHANNEL", "inventory.events"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "inventory"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "inventory"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_TIMEZONE", "UTC"),
		)
	}

	var err error
	if cfg.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns, err = intEnv("DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.ConnMaxLifetime, err = durationEnv("DB_CONN_MAX_LIFETIME", time.Hour); err != nil {
		return nil, err
	}
	if cfg.LockTimeout, err = durationEnv("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DefaultThreshold, err = intEnv("DEFAULT_THRESHOLD", 10); err != nil {
		return nil, err
	}
	if cfg.DefaultThreshold < 0 {
		return nil, fmt.Errorf("DEFAULT_THRESHOLD must not be negative, got %d", cfg.DefaultThreshold)
	}

	cfg.RequestTransitions = strings.ToLower(getEnv("REQUEST_TRANSITIONS", TransitionsStrict))
	if cfg.RequestTransitions != TransitionsStrict && cfg.RequestTransitions != TransitionsLegacy {
		return nil, fmt.Errorf("REQUEST_TRANSITIONS must be %q or %q, got %q",
			TransitionsStrict, TransitionsLegacy, cfg.RequestTransitions)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", key)
	}
	return d, nil
}
