package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/policy"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

// =============================================================================
// Config File Model
// =============================================================================

// fileConfig is the on-disk configuration. Every section is optional; unset
// fields keep their defaults.
type fileConfig struct {
	Allocator zone.Config     `toml:"allocator" yaml:"allocator"`
	Policy    policyConfig    `toml:"policy" yaml:"policy"`
	Compat    compatConfig    `toml:"compat" yaml:"compat"`
	Telemetry telemetryConfig `toml:"telemetry" yaml:"telemetry"`
}

type policyConfig struct {
	// Tier is low, medium, high or auto (classify the running host).
	Tier           string `toml:"tier" yaml:"tier"`
	DowngradeAfter int    `toml:"downgrade_after" yaml:"downgrade_after"`
	// Limits overrides individual fields of a tier's built-in limits.
	Limits map[zone.Tier]policy.Override `toml:"limits,omitempty" yaml:"limits,omitempty"`
}

type compatConfig struct {
	Padding               float64 `toml:"padding" yaml:"padding"`
	SimplePositioningOnly bool    `toml:"simple_positioning_only" yaml:"simple_positioning_only"`
	VeryCompactViewport   bool    `toml:"very_compact_viewport" yaml:"very_compact_viewport"`
}

// telemetryConfig selects the event publishers. Environment variables take
// precedence over the file.
type telemetryConfig struct {
	LogEvents     bool   `toml:"log_events" yaml:"log_events" env:"ZONEALLOC_LOG_EVENTS"`
	Buffer        int    `toml:"buffer" yaml:"buffer" env:"ZONEALLOC_EVENT_BUFFER"`
	RedisURL      string `toml:"redis_url" yaml:"redis_url" env:"ZONEALLOC_REDIS_URL"`
	RedisChannel  string `toml:"redis_channel" yaml:"redis_channel" env:"ZONEALLOC_REDIS_CHANNEL"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri" env:"ZONEALLOC_MONGO_URI"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database" env:"ZONEALLOC_MONGO_DATABASE"`
	OTelEndpoint  string `toml:"otel_endpoint" yaml:"otel_endpoint" env:"ZONEALLOC_OTEL_ENDPOINT"`
}

const (
	defaultEventBuffer   = 256
	defaultMongoDatabase = appName
)

func defaultFileConfig() fileConfig {
	return fileConfig{
		Allocator: zone.DefaultConfig(),
		Policy: policyConfig{
			Tier:           "auto",
			DowngradeAfter: policy.DefaultDowngradeAfter,
		},
		Telemetry: telemetryConfig{Buffer: defaultEventBuffer},
	}
}

// =============================================================================
// Loading
// =============================================================================

// loadConfig reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decodeConfig(data, filepath.Ext(path), &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg.Telemetry); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse environment")
	}
	cfg.Allocator = cfg.Allocator.WithDefaults()
	return cfg, cfg.validate()
}

func decodeConfig(data []byte, ext string, cfg *fileConfig) error {
	switch strings.ToLower(ext) {
	case ".toml", "":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode toml")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported config extension %q (want .toml, .yaml or .yml)", ext)
	}
	return nil
}

func (c fileConfig) validate() error {
	if err := c.Allocator.Validate(); err != nil {
		return err
	}
	if _, err := c.tier(); err != nil {
		return err
	}
	if c.Policy.DowngradeAfter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "downgrade_after must not be negative")
	}
	for tier, o := range c.Policy.Limits {
		if _, err := policy.ParseTier(string(tier)); err != nil {
			return err
		}
		if o.Strategy != nil {
			if _, err := zone.ParseStrategy(string(*o.Strategy)); err != nil {
				return err
			}
		}
		if o.MonitorInterval != nil && *o.MonitorInterval < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s monitor_interval must not be negative", tier)
		}
	}
	for _, u := range []string{c.Telemetry.RedisURL, c.Telemetry.MongoURI, c.Telemetry.OTelEndpoint} {
		if u == "" {
			continue
		}
		if err := errors.ValidateURL(u); err != nil {
			return err
		}
	}
	return nil
}

// tier resolves the configured tier; "auto" and "" classify the host.
func (c fileConfig) tier() (zone.Tier, error) {
	switch strings.ToLower(strings.TrimSpace(c.Policy.Tier)) {
	case "", "auto":
		return policy.Classify(policy.DetectDevice()), nil
	default:
		return policy.ParseTier(c.Policy.Tier)
	}
}

// encodeTOML renders the configuration for the config command.
func (c fileConfig) encodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
	}
	return buf.Bytes(), nil
}

func (c fileConfig) encodeYAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return out, nil
}
