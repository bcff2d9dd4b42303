// Package config builds service configuration from the environment so main
// stays lean. Defaults target local development; production overrides every
// secret-bearing value.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Addr          string
	JWTSigningKey string
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// PostgresConfig configures the relational store. An empty URL selects the
// in-memory stores.
type PostgresConfig struct {
	URL string
}

// RedisConfig configures the volume accumulator store. An empty URL selects
// the in-memory accumulator store.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit publisher. Empty brokers select the
// log-only audit path.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv reads configuration from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CREST_ADDR", ":8080"),
		JWTSigningKey: getenv("CREST_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Postgres: PostgresConfig{
			URL: os.Getenv("CREST_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CREST_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: getenv("CREST_KAFKA_AUDIT_TOPIC", "crest.audit.v1"),
		},
	}
	if brokers := os.Getenv("CREST_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
