package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from
// environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	// MongoURI empty selects the in-memory storage fallback.
	MongoURI string
	MongoDB  string

	// KafkaBrokers empty keeps fan-out in-process.
	KafkaBrokers     []string
	KafkaTopicPrefix string

	// PresenceActiveWindow scopes the active-members listing;
	// PresenceIdleTimeout demotes silent users to offline. The two are
	// intentionally independent and must not be unified.
	PresenceActiveWindow  time.Duration
	PresenceIdleTimeout   time.Duration
	PresenceSweepInterval time.Duration

	// HeartbeatInterval is advertised to clients as the expected cadence.
	HeartbeatInterval time.Duration

	WSSendBuffer int
}

// ChatTopic names the broker topic carrying message events.
func (c Config) ChatTopic() string {
	return c.KafkaTopicPrefix + "chat.messages"
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "skillconnect"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, raw := range strings.Split(brokers, ",") {
			if b := strings.TrimSpace(raw); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	activeWindow, err := parseDurationEnv("PRESENCE_ACTIVE_WINDOW", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PresenceActiveWindow = activeWindow

	idleTimeout, err := parseDurationEnv("PRESENCE_IDLE_TIMEOUT", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PresenceIdleTimeout = idleTimeout

	sweepInterval, err := parseDurationEnv("PRESENCE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PresenceSweepInterval = sweepInterval

	heartbeat, err := parseDurationEnv("HEARTBEAT_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.HeartbeatInterval = heartbeat

	buffer, err := parseIntEnv("WS_SEND_BUFFER", 128)
	if err != nil {
		return Config{}, err
	}
	cfg.WSSendBuffer = buffer

	if cfg.PresenceIdleTimeout <= 0 {
		return Config{}, fmt.Errorf("PRESENCE_IDLE_TIMEOUT must be positive")
	}
	if cfg.PresenceActiveWindow <= 0 {
		return Config{}, fmt.Errorf("PRESENCE_ACTIVE_WINDOW must be positive")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
