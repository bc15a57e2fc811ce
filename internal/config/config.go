// Package config loads per-stage pipeline settings from the environment,
// following the typed-settings-struct-with-defaults convention used
// throughout the reference stack's service entrypoints.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Env identifies the deployment environment.
type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// Broker holds the connection settings for the Redis-backed stream broker.
type Broker struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// Addr formats the broker's host:port for a redis.Options.Addr.
func (b Broker) Addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// Store holds the connection settings for the column store.
type Store struct {
	Host        string
	Port        int
	DB          string
	User        string
	Password    string
	TimeoutSecs int
}

// Timeout returns the configured statement/connect timeout as a Duration.
func (s Store) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// DSN builds a libpq-style connection string for pgx.
func (s Store) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s connect_timeout=%d sslmode=disable",
		s.Host, s.Port, s.DB, s.User, s.Password, s.TimeoutSecs,
	)
}

// Base holds the settings common to every stage worker.
type Base struct {
	Broker       Broker
	Store        Store
	Env          Env
	InstanceName string
	LogLevel     string
	HealthAddr   string
}

// LoadBroker reads SIEM_REDIS_* environment variables.
func LoadBroker() Broker {
	return Broker{
		Host:     getEnv("SIEM_REDIS_HOST", "127.0.0.1"),
		Port:     getEnvInt("SIEM_REDIS_PORT", 6379),
		DB:       getEnvInt("SIEM_REDIS_DB", 0),
		Password: os.Getenv("SIEM_REDIS_PASSWORD"),
	}
}

// LoadStore reads SIEM_CH_* environment variables (named for the original
// ClickHouse-backed column store; kept as the env-var prefix for
// deployment continuity).
func LoadStore() Store {
	return Store{
		Host:        getEnv("SIEM_CH_HOST", "127.0.0.1"),
		Port:        getEnvInt("SIEM_CH_PORT", 5432),
		DB:          getEnv("SIEM_CH_DB", "siem"),
		User:        getEnv("SIEM_CH_USER", "siem"),
		Password:    os.Getenv("SIEM_CH_PASSWORD"),
		TimeoutSecs: getEnvInt("SIEM_CH_TIMEOUT_SECS", 10),
	}
}

// LoadBase reads the settings shared by all stages.
func LoadBase() Base {
	return Base{
		Broker:       LoadBroker(),
		Store:        LoadStore(),
		Env:          Env(getEnv("SIEM_ENV", string(EnvDev))),
		InstanceName: getEnv("SIEM_INSTANCE_NAME", "siem-pipeline"),
		LogLevel:     getEnv("SIEM_LOG_LEVEL", "info"),
		HealthAddr:   getEnv("SIEM_HEALTH_ADDR", ":8080"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration reads an environment variable as a number of seconds.
func getEnvDuration(key string, defSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defSeconds)) * time.Second
}
