package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the console backend.
type Server struct {
	Addr string

	// Event bus tuning.
	LogRingCapacity   int
	SubscriberBuffer  int
	HeartbeatInterval time.Duration

	// Bound on concurrently served operations.
	MaxConcurrentOps int64

	// Admin surface. Empty secret disables the admin routes.
	AdminTokenSecret string

	// Master secret for the local crypto provider. Empty means a random
	// per-process secret, so key bindings do not survive restarts.
	ProviderSecret string

	// Optional backing services. Empty values leave the in-memory defaults.
	Redis        RedisConfig
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string

	// Shutdown behavior.
	ShutdownTimeout         time.Duration
	RemediationDrainTimeout time.Duration
}

// RedisConfig carries go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envString("CONSOLE_ADDR", ":8080"),
		LogRingCapacity:   envInt("LOG_RING_CAPACITY", 1000),
		SubscriberBuffer:  envInt("SUBSCRIBER_BUFFER", 64),
		HeartbeatInterval: envDuration("HEARTBEAT_INTERVAL", 15*time.Second),
		MaxConcurrentOps:  int64(envInt("MAX_CONCURRENT_OPS", 128)),
		AdminTokenSecret:  os.Getenv("ADMIN_TOKEN_SECRET"),
		ProviderSecret:    os.Getenv("PROVIDER_SECRET"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		KafkaBrokers:            envList("KAFKA_BROKERS"),
		KafkaTopic:              envString("KAFKA_TOPIC", "console.events"),
		ShutdownTimeout:         envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RemediationDrainTimeout: envDuration("REMEDIATION_DRAIN_TIMEOUT", 5*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
