package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting of the service.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Assistant AssistantConfig
	Feed      FeedConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	feed, err := loadFeedConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Log:       loadLogConfig(),
		Assistant: assistant,
		Feed:      feed,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr              string
	HeartbeatInterval time.Duration
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	heartbeat, err := parseDurationEnv("HEARTBEAT_INTERVAL", 15*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, HeartbeatInterval: heartbeat}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, HeartbeatInterval: heartbeat}, nil
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

// AssistantConfig bounds the simulated thinking delay.
type AssistantConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

func loadAssistantConfig() (AssistantConfig, error) {
	minDelay, err := parseDurationEnv("THINK_MIN_DELAY", time.Second)
	if err != nil {
		return AssistantConfig{}, err
	}
	maxDelay, err := parseDurationEnv("THINK_MAX_DELAY", 3*time.Second)
	if err != nil {
		return AssistantConfig{}, err
	}
	if minDelay < 0 || maxDelay < minDelay {
		return AssistantConfig{}, fmt.Errorf("invalid thinking delay range [%s, %s)", minDelay, maxDelay)
	}
	return AssistantConfig{MinDelay: minDelay, MaxDelay: maxDelay}, nil
}

// FeedConfig configures the optional alert subscriptions.
type FeedConfig struct {
	SeedFile      string
	NATSURL       string
	NATSToken     string
	NATSSubject   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string
}

// NATSEnabled reports whether a NATS URL was supplied.
func (c FeedConfig) NATSEnabled() bool {
	return c.NATSURL != ""
}

// RedisEnabled reports whether a Redis address was supplied.
func (c FeedConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func loadFeedConfig() (FeedConfig, error) {
	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return FeedConfig{}, err
	} else if override != nil {
		db = *override
	}

	return FeedConfig{
		SeedFile:      strings.TrimSpace(os.Getenv("THREAT_SEED_FILE")),
		NATSURL:       strings.TrimSpace(os.Getenv("NATS_URL")),
		NATSToken:     strings.TrimSpace(os.Getenv("NATS_TOKEN")),
		NATSSubject:   getEnvOrDefault("NATS_SUBJECT", "threatdesk.alerts"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		RedisChannel:  getEnvOrDefault("REDIS_CHANNEL", "threatdesk:alerts"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
