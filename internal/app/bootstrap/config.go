package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for M31.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string
	Version   string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret string

	WebhookVerifyToken string
	WebhookAppSecret   string

	GraphBaseURL     string
	GraphHTTPTimeout time.Duration

	PollInterval     time.Duration
	RecentMediaCount int
	SeenCacheTTL     time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		Version  string `yaml:"version"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
	Instagram struct {
		GraphBaseURL       string `yaml:"graph_base_url"`
		WebhookVerifyToken string `yaml:"webhook_verify_token"`
		WebhookAppSecret   string `yaml:"webhook_app_secret"`
	} `yaml:"instagram"`
	Automation struct {
		PollIntervalSeconds int `yaml:"poll_interval_seconds"`
		RecentMediaCount    int `yaml:"recent_media_count"`
		SeenCacheTTLHours   int `yaml:"seen_cache_ttl_hours"`
	} `yaml:"automation"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "M31-Comment-Automation-Service",
		Version:            "0.1.0",
		HTTPPort:           8080,
		GRPCPort:           9090,
		KafkaTopic:         "automation.events",
		GraphHTTPTimeout:   10 * time.Second,
		PollInterval:       2 * time.Minute,
		RecentMediaCount:   5,
		SeenCacheTTL:       24 * time.Hour,
		MaxDBConns:         20,
		OutboxPollInterval: 5 * time.Second,
		OutboxBatchSize:    100,
		OutboxMaxRetries:   10,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.Version != "" {
			cfg.Version = f.Service.Version
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.KafkaTopic != "" {
			cfg.KafkaTopic = f.Dependencies.KafkaTopic
		}
		if f.Instagram.GraphBaseURL != "" {
			cfg.GraphBaseURL = f.Instagram.GraphBaseURL
		}
		if f.Instagram.WebhookVerifyToken != "" {
			cfg.WebhookVerifyToken = f.Instagram.WebhookVerifyToken
		}
		if f.Instagram.WebhookAppSecret != "" {
			cfg.WebhookAppSecret = f.Instagram.WebhookAppSecret
		}
		if f.Automation.PollIntervalSeconds > 0 {
			cfg.PollInterval = time.Duration(f.Automation.PollIntervalSeconds) * time.Second
		}
		if f.Automation.RecentMediaCount > 0 {
			cfg.RecentMediaCount = f.Automation.RecentMediaCount
		}
		if f.Automation.SeenCacheTTLHours > 0 {
			cfg.SeenCacheTTL = time.Duration(f.Automation.SeenCacheTTLHours) * time.Hour
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.WebhookVerifyToken = envOrDefault("IG_WEBHOOK_VERIFY_TOKEN", cfg.WebhookVerifyToken)
	cfg.WebhookAppSecret = envOrDefault("IG_APP_SECRET", cfg.WebhookAppSecret)
	cfg.GraphBaseURL = envOrDefault("IG_GRAPH_BASE_URL", cfg.GraphBaseURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.GraphHTTPTimeout = time.Duration(envInt("IG_GRAPH_TIMEOUT_SECONDS", int(cfg.GraphHTTPTimeout.Seconds()))) * time.Second
	cfg.PollInterval = time.Duration(envInt("POLL_INTERVAL_SECONDS", int(cfg.PollInterval.Seconds()))) * time.Second
	cfg.RecentMediaCount = envInt("RECENT_MEDIA_COUNT", cfg.RecentMediaCount)
	cfg.SeenCacheTTL = time.Duration(envInt("SEEN_CACHE_TTL_HOURS", int(cfg.SeenCacheTTL.Hours()))) * time.Hour
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.WebhookVerifyToken == "" {
		return Config{}, fmt.Errorf("missing IG_WEBHOOK_VERIFY_TOKEN")
	}
	if cfg.WebhookAppSecret == "" {
		return Config{}, fmt.Errorf("missing IG_APP_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
