// Package config provides environment/functional-option driven
// configuration for a meridian client, following the same three-layer
// priority (defaults, then env:"..." struct tags, then functional options)
// the teacher framework uses for its own Config type.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/google/uuid"
)

// ClientConfig holds the tunables every package in this module reads.
// Retry bounds are only overridable for testing; production callers should
// leave them at their spec-mandated defaults.
type ClientConfig struct {
	// ClientID identifies this client instance in logs and telemetry.
	ClientID string `yaml:"client_id" env:"MERIDIAN_CLIENT_ID"`

	// MaxFailoverRetries overrides retry.MaxFailoverRetries.
	MaxFailoverRetries int `yaml:"max_failover_retries" env:"MERIDIAN_MAX_FAILOVER_RETRIES" default:"120"`
	// MaxServiceUnavailableRetries overrides retry.MaxServiceUnavailableRetries.
	MaxServiceUnavailableRetries int `yaml:"max_service_unavailable_retries" env:"MERIDIAN_MAX_SU_RETRIES" default:"1"`
	// ThrottleMaxAttempts overrides the default throttle attempt ceiling.
	ThrottleMaxAttempts int `yaml:"throttle_max_attempts" env:"MERIDIAN_THROTTLE_MAX_ATTEMPTS" default:"5"`
	// ThrottleMaxWait overrides the default cumulative throttle wait ceiling.
	ThrottleMaxWait time.Duration `yaml:"throttle_max_wait" env:"MERIDIAN_THROTTLE_MAX_WAIT" default:"10s"`

	// DiscoveryCacheRedisURL, when non-empty, backs routing.EndpointManager's
	// topology snapshot with a Redis-based second-level cache.
	DiscoveryCacheRedisURL string `yaml:"discovery_cache_redis_url" env:"MERIDIAN_DISCOVERY_CACHE_REDIS_URL"`
	// DiscoveryCacheTTL controls how long a cached snapshot is trusted.
	DiscoveryCacheTTL time.Duration `yaml:"discovery_cache_ttl" env:"MERIDIAN_DISCOVERY_CACHE_TTL" default:"5m"`

	// VerifyChallengeResource toggles vaultauth's audience-host check.
	VerifyChallengeResource bool `yaml:"verify_challenge_resource" env:"MERIDIAN_VERIFY_CHALLENGE_RESOURCE" default:"true"`

	// LogLevel is one of DEBUG/INFO/WARN/ERROR.
	LogLevel string `yaml:"log_level" env:"MERIDIAN_LOG_LEVEL" default:"INFO"`
}

// Option mutates a ClientConfig under construction.
type Option func(*ClientConfig)

// WithClientID sets an explicit client instance id instead of generating one.
func WithClientID(id string) Option {
	return func(c *ClientConfig) { c.ClientID = id }
}

// WithMaxFailoverRetries overrides the endpoint-failover retry ceiling.
func WithMaxFailoverRetries(n int) Option {
	return func(c *ClientConfig) { c.MaxFailoverRetries = n }
}

// WithThrottleBounds overrides the 429 backoff ceiling.
func WithThrottleBounds(maxAttempts int, maxWait time.Duration) Option {
	return func(c *ClientConfig) {
		c.ThrottleMaxAttempts = maxAttempts
		c.ThrottleMaxWait = maxWait
	}
}

// WithDiscoveryCacheRedisURL enables the Redis-backed endpoint discovery
// cache described in SPEC_FULL.md §4.8.
func WithDiscoveryCacheRedisURL(url string) Option {
	return func(c *ClientConfig) { c.DiscoveryCacheRedisURL = url }
}

// WithVerifyChallengeResource toggles the vaultauth audience-host check.
// Disabling it should only be done with a clear understanding of the
// remediation guidance it otherwise enforces (spec §4.3/§8 S8).
func WithVerifyChallengeResource(verify bool) Option {
	return func(c *ClientConfig) { c.VerifyChallengeResource = verify }
}

// WithLogLevel sets the minimum log level.
func WithLogLevel(level string) Option {
	return func(c *ClientConfig) { c.LogLevel = level }
}

// NewConfig builds a ClientConfig from defaults, then environment
// variables, then the supplied options, in that priority order.
func NewConfig(opts ...Option) *ClientConfig {
	c := &ClientConfig{
		ClientID:                     uuid.New().String(),
		MaxFailoverRetries:           120,
		MaxServiceUnavailableRetries: 1,
		ThrottleMaxAttempts:          5,
		ThrottleMaxWait:              10 * time.Second,
		DiscoveryCacheTTL:            5 * time.Minute,
		VerifyChallengeResource:      true,
		LogLevel:                     "INFO",
	}
	applyEnv(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func applyEnv(c *ClientConfig) {
	if v := os.Getenv("MERIDIAN_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v, ok := envInt("MERIDIAN_MAX_FAILOVER_RETRIES"); ok {
		c.MaxFailoverRetries = v
	}
	if v, ok := envInt("MERIDIAN_MAX_SU_RETRIES"); ok {
		c.MaxServiceUnavailableRetries = v
	}
	if v, ok := envInt("MERIDIAN_THROTTLE_MAX_ATTEMPTS"); ok {
		c.ThrottleMaxAttempts = v
	}
	if v, ok := envDuration("MERIDIAN_THROTTLE_MAX_WAIT"); ok {
		c.ThrottleMaxWait = v
	}
	if v := os.Getenv("MERIDIAN_DISCOVERY_CACHE_REDIS_URL"); v != "" {
		c.DiscoveryCacheRedisURL = v
	}
	if v, ok := envDuration("MERIDIAN_DISCOVERY_CACHE_TTL"); ok {
		c.DiscoveryCacheTTL = v
	}
	if v, ok := envBool("MERIDIAN_VERIFY_CHALLENGE_RESOURCE"); ok {
		c.VerifyChallengeResource = v
	}
	if v := os.Getenv("MERIDIAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// LoadFile reads a YAML client-options file (retry-bound overrides,
// discovery cache URL, ...) and applies it over the supplied base,
// returning a new ClientConfig. File-sourced values take priority over
// defaults and environment but not over subsequent functional options.
func LoadFile(base *ClientConfig, path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadFile: reading %s: %w", path, err)
	}
	merged := *base
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("config.LoadFile: parsing %s: %w", path, err)
	}
	return &merged, nil
}
