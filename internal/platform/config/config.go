package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Domain tunables (PoW difficulty,
// match radius, donor cooldown) live here so deployments can adjust them
// without code changes; services treat them as inputs.
type Config struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	// Ledger.
	Difficulty    int
	AppendRetries int

	// Matching.
	RadiusKm      float64
	CooldownDays  int
	FanoutCap     int // 0 notifies every match
	NotifyTimeout time.Duration

	// Inventory thresholds.
	CriticalBelow int
	LowBelow      int

	// Leaderboard cache.
	LeaderboardTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("LIFELINE_ADDR", ":8080"),
		PostgresURL:    os.Getenv("LIFELINE_POSTGRES_URL"),
		RedisURL:       os.Getenv("LIFELINE_REDIS_URL"),
		KafkaTopic:     envOr("LIFELINE_KAFKA_TOPIC", "lifeline.notifications"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Difficulty:     envInt("LIFELINE_POW_DIFFICULTY", 3),
		AppendRetries:  envInt("LIFELINE_LEDGER_APPEND_RETRIES", 5),
		RadiusKm:       envFloat("LIFELINE_MATCH_RADIUS_KM", 50),
		CooldownDays:   envInt("LIFELINE_DONOR_COOLDOWN_DAYS", 90),
		FanoutCap:      envInt("LIFELINE_NOTIFY_FANOUT_CAP", 0),
		NotifyTimeout:  envDuration("LIFELINE_NOTIFY_TIMEOUT", 5*time.Second),
		CriticalBelow:  envInt("LIFELINE_INVENTORY_CRITICAL_BELOW", 10),
		LowBelow:       envInt("LIFELINE_INVENTORY_LOW_BELOW", 20),
		LeaderboardTTL: envDuration("LIFELINE_LEADERBOARD_TTL", 30*time.Second),
	}
	if brokers := os.Getenv("LIFELINE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
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
