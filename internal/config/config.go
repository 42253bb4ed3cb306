package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ReferenceDataPath       string
	DefaultRadiusMiles      float64
	DefaultDriveTimeMinutes float64

	// Drive-time batching.
	DriveTimeBatchSize    int
	DriveTimeBatchDelay   time.Duration
	DriveTimeBatchTimeout time.Duration
	DriveTimeAPIURL       string

	// OSRM routing, used when DriveTimeAPIURL is empty.
	OSRMBaseURL   string
	OSRMTimeout   time.Duration
	OSRMRateLimit float64

	// Kafka publishing is disabled when no brokers are configured.
	KafkaBrokers      []string
	KafkaResultsTopic string

	// Shared drive-time cache, disabled when RedisURL is empty.
	RedisURL           string
	DriveTimeSharedTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	radius, err := parsePositiveFloat("DEFAULT_RADIUS_MILES", "15")
	if err != nil {
		return nil, err
	}
	threshold, err := parsePositiveFloat("DEFAULT_DRIVE_TIME_MINUTES", "25")
	if err != nil {
		return nil, err
	}

	batchSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("DRIVE_TIME_BATCH_SIZE", "10"))
	if err != nil || batchSize < 1 || batchSize > 50 {
		return nil, errors.New("invalid DRIVE_TIME_BATCH_SIZE: must be 1-50")
	}

	// A zero delay disables pacing.
	batchDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("DRIVE_TIME_BATCH_DELAY", "100ms"))
	if err != nil || batchDelay < 0 {
		return nil, errors.New("invalid DRIVE_TIME_BATCH_DELAY")
	}
	batchTimeout, err := parsePositiveDuration("DRIVE_TIME_BATCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	osrmTimeout, err := parsePositiveDuration("OSRM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	osrmRate, err := parsePositiveFloat("OSRM_RATE_LIMIT", "10")
	if err != nil {
		return nil, err
	}
	sharedTTL, err := parsePositiveDuration("DRIVE_TIME_SHARED_TTL", "24h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReferenceDataPath:       sharedcfg.EnvOrDefault("REFERENCE_DATA_PATH", "data/US.txt"),
		DefaultRadiusMiles:      radius,
		DefaultDriveTimeMinutes: threshold,

		DriveTimeBatchSize:    batchSize,
		DriveTimeBatchDelay:   batchDelay,
		DriveTimeBatchTimeout: batchTimeout,
		DriveTimeAPIURL:       sharedcfg.EnvOrDefault("DRIVE_TIME_API_URL", ""),

		OSRMBaseURL:   sharedcfg.EnvOrDefault("OSRM_BASE_URL", "https://router.project-osrm.org"),
		OSRMTimeout:   osrmTimeout,
		OSRMRateLimit: osrmRate,

		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "delivery-radius-results"),

		RedisURL:           sharedcfg.EnvOrDefault("REDIS_URL", ""),
		DriveTimeSharedTTL: sharedTTL,
	}

	return cfg, nil
}

// KafkaEnabled reports whether completed queries should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RedisEnabled reports whether drive times are shared through Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func parsePositiveFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || !(v > 0) {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}
