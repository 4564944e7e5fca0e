// Package config loads service configuration from environment variables so
// main stays lean. Every subsystem gets its own struct; an empty URL means
// the subsystem is not configured and the service falls back to its
// in-memory implementation.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"vouch/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	StandaloneMode bool
	JWTSigningKey  string
	TokenTTL       time.Duration
}

// Ledger carries the business limits for attestation and grant windows,
// expressed in logical ticks.
type Ledger struct {
	MaxValidityWindow domain.Time
	MaxGrantWindow    domain.Time
}

// PostgresConfig holds the connection settings for the durable stores.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds connection settings for the grant lookup cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RegistryConfig points at the external volunteer and provider registries.
// Ignored in standalone mode, where seedable in-memory registries are used.
type RegistryConfig struct {
	VolunteersURL string
	ProvidersURL  string
}

// Config is the root configuration for the service.
type Config struct {
	Server   Server
	Ledger   Ledger
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Registry RegistryConfig
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("VOUCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("VOUCH_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 15 * time.Minute
	if raw := os.Getenv("VOUCH_TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}

	return Config{
		Server: Server{
			Addr:           addr,
			StandaloneMode: os.Getenv("VOUCH_STANDALONE_MODE") == "true",
			JWTSigningKey:  jwtSigningKey,
			TokenTTL:       tokenTTL,
		},
		Ledger: Ledger{
			MaxValidityWindow: envTicks("VOUCH_MAX_VALIDITY_WINDOW", 100_000),
			MaxGrantWindow:    envTicks("VOUCH_MAX_GRANT_WINDOW", 10_000),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("VOUCH_POSTGRES_URL"),
			MaxOpenConns:    envInt("VOUCH_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("VOUCH_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("VOUCH_REDIS_URL"),
			PoolSize:     envInt("VOUCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VOUCH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitBrokers(os.Getenv("VOUCH_KAFKA_BROKERS")),
			Topic:   envStr("VOUCH_KAFKA_AUDIT_TOPIC", "vouch.audit.events"),
		},
		Registry: RegistryConfig{
			VolunteersURL: os.Getenv("VOUCH_VOLUNTEER_REGISTRY_URL"),
			ProvidersURL:  os.Getenv("VOUCH_PROVIDER_REGISTRY_URL"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func envTicks(key string, fallback domain.Time) domain.Time {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil && v > 0 {
			return domain.Time(v)
		}
	}
	return fallback
}

func splitBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
