// Package config loads the policy-actors configuration file: logging, the
// northbound server, HTTP clients, the topic bus, guard and the per-actor
// operator parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "POLICY_ACTORS_"

// Bus types.
const (
	BusMemory = "memory"
	BusRedis  = "redis"
)

// Config is the whole configuration file.
type Config struct {
	Logging     logging.Config                    `json:"logging"`
	Server      ServerConfig                      `json:"server"`
	HTTPClients []httpop.ClientConfig             `json:"httpClients,omitempty"`
	Topics      TopicsConfig                      `json:"topics"`
	Guard       actor.GuardConfig                 `json:"guard"`
	Actors      map[string]map[string]interface{} `json:"actors,omitempty"`
}

// ServerConfig configures the northbound API.
type ServerConfig struct {
	Address            string `json:"address"`
	ShutdownTimeoutSec int    `json:"shutdownTimeoutSec,omitempty"`
}

// ShutdownTimeout is the graceful shutdown budget.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

// TopicsConfig selects the topic bus.
type TopicsConfig struct {
	Bus   string            `json:"bus"`
	Redis topic.RedisConfig `json:"redis,omitempty"`
}

// DefaultConfig returns the configuration used for anything the file and
// environment leave unset.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Server: ServerConfig{
			Address:            ":8080",
			ShutdownTimeoutSec: 30,
		},
		Topics: TopicsConfig{Bus: BusMemory},
		Guard:  actor.DefaultGuardConfig(),
		Actors: map[string]map[string]interface{}{},
	}
}

// Load reads the YAML or JSON file at path over the defaults, then applies
// the environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv overrides cfg with the POLICY_ACTORS_* variables that are set.
func LoadFromEnv(cfg *Config) {
	if val := os.Getenv(EnvPrefix + "SERVER_ADDRESS"); val != "" {
		cfg.Server.Address = val
	}

	if val := os.Getenv(EnvPrefix + "LOG_LEVEL"); val != "" {
		cfg.Logging.Level = logging.ParseLevel(val)
	}

	if val := os.Getenv(EnvPrefix + "LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv(EnvPrefix + "TOPIC_BUS"); val != "" {
		cfg.Topics.Bus = strings.ToLower(val)
	}

	if val := os.Getenv(EnvPrefix + "REDIS_ADDRESS"); val != "" {
		cfg.Topics.Redis.Address = val
	}

	if val := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); val != "" {
		cfg.Topics.Redis.Password = val
	}

	if val := os.Getenv(EnvPrefix + "GUARD_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guard.Enabled = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.ShutdownTimeoutSec < 0 {
		errs = append(errs, errors.New("server.shutdownTimeoutSec must not be negative"))
	}

	switch c.Topics.Bus {
	case BusMemory:
	case BusRedis:
		if c.Topics.Redis.Address == "" {
			errs = append(errs, errors.New("topics.redis.address is required for the redis bus"))
		}
	default:
		errs = append(errs, fmt.Errorf("topics.bus %q is not one of %s, %s", c.Topics.Bus, BusMemory, BusRedis))
	}

	names := make(map[string]bool, len(c.HTTPClients))
	for i, client := range c.HTTPClients {
		if err := client.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("httpClients[%d]: %w", i, err))
			continue
		}
		if names[client.Name] {
			errs = append(errs, fmt.Errorf("httpClients[%d]: duplicate name %s", i, client.Name))
		}
		names[client.Name] = true
	}

	if c.Guard.Enabled && (c.Guard.Actor == "" || c.Guard.Operation == "") {
		errs = append(errs, errors.New("guard.actor and guard.operation are required when guard is enabled"))
	}

	return errors.Join(errs...)
}
