package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DataDir       string
	JWTSigningKey string

	Policy   PolicyConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// PolicyConfig points at the external policy decision service.
type PolicyConfig struct {
	URL string
	// Timeout bounds one evaluation call; expiry surfaces as a retryable
	// "decision unavailable" condition, never as a deny verdict.
	Timeout time.Duration
}

// RedisConfig configures the optional verdict cache. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// VerdictTTL bounds how long a cached policy verdict may be reused.
	VerdictTTL time.Duration
}

// PostgresConfig configures the optional SQL request store. Empty URL keeps
// the file-backed store.
type PostgresConfig struct {
	URL string
}

// KafkaConfig configures the optional compliance audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COLLABGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dataDir := os.Getenv("COLLABGATE_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	policyURL := os.Getenv("POLICY_SERVICE_URL")
	if policyURL == "" {
		policyURL = "http://localhost:8181"
	}
	policyTimeout := durationEnv("POLICY_SERVICE_TIMEOUT", 5*time.Second)

	kafkaTopic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "collabgate.audit.compliance"
	}

	return Server{
		Addr:          addr,
		DataDir:       dataDir,
		JWTSigningKey: jwtSigningKey,
		Policy: PolicyConfig{
			URL:     policyURL,
			Timeout: policyTimeout,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			VerdictTTL:   durationEnv("VERDICT_CACHE_TTL", 5*time.Minute),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitEnv("KAFKA_BROKERS"),
			Topic:   kafkaTopic,
		},
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
