package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures everything the MCI reads from its environment. Built once
// at process start and passed into constructors; nothing reads the
// environment after FromEnv returns.
type Config struct {
	Addr     string
	Postgres Postgres
	Matching Matching
	// MaxPageSize caps the limit parameter on list endpoints.
	MaxPageSize int
	// RedisURL enables the reference-label cache when set. Empty means
	// lookups always go to Postgres.
	RedisURL string
}

// Postgres holds connection settings for the persistent store.
type Postgres struct {
	User     string
	Password string
	Database string
	Hostname string
	Port     int
}

// DSN renders the lib/pq connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Hostname, p.Port, p.Database)
}

// Matching configures the external match-scoring capability.
type Matching struct {
	// URI is the compute-match endpoint of the matching service.
	URI string
	// Threshold is the global score acceptance threshold. Scores at or
	// above it are treated as a match against an existing individual.
	Threshold float64
	// Timeout bounds the scoring request.
	Timeout time.Duration
}

// ReferenceCacheTTL bounds how long resolved reference labels may be served
// from Redis before a fresh Postgres lookup.
var ReferenceCacheTTL = 5 * time.Minute

// FromEnv builds a Config from environment variables so main stays lean.
// Every variable has a fixed default matching the reference deployment.
func FromEnv() Config {
	return Config{
		Addr: envString("MCI_ADDR", ":8000"),
		Postgres: Postgres{
			User:     envString("POSTGRES_USER", "brighthive"),
			Password: envString("POSTGRES_PASSWORD", "test_password"),
			Database: envString("POSTGRES_DATABASE", "mci_dev"),
			Hostname: envString("POSTGRES_HOSTNAME", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
		},
		Matching: Matching{
			URI:       envString("MATCHING_SERVICE_URI", "http://mcimatchingservice_mci_1:8000/compute-match"),
			Threshold: envFloat("MATCH_THRESHOLD", 0.9),
			Timeout:   envDuration("MATCHING_TIMEOUT", 5*time.Second),
		},
		MaxPageSize: envInt("MAX_PAGE_SIZE", 100),
		RedisURL:    os.Getenv("REDIS_URL"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
