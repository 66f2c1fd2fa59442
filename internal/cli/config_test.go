package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/observability"
	"github.com/matzehuels/zonealloc/pkg/policy"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Allocator != zone.DefaultConfig() {
		t.Errorf("Allocator = %+v, want defaults", cfg.Allocator)
	}
	if cfg.Policy.Tier != "auto" {
		t.Errorf("Tier = %q, want auto", cfg.Policy.Tier)
	}
	if cfg.Policy.DowngradeAfter != policy.DefaultDowngradeAfter {
		t.Errorf("DowngradeAfter = %d", cfg.Policy.DowngradeAfter)
	}
	if cfg.Telemetry.Buffer != defaultEventBuffer {
		t.Errorf("Buffer = %d, want %d", cfg.Telemetry.Buffer, defaultEventBuffer)
	}
}

const tomlConfig = `
[allocator]
resize_debounce = "500ms"
rebalance_threshold = 0.5

[allocator.ratios]
edge_margin = 0.05

[policy]
tier = "low"
downgrade_after = 5

[policy.limits.low]
max_occupants = 40
strategy = "balanced"

[compat]
padding = 12.0
simple_positioning_only = true

[telemetry]
log_events = true
redis_channel = "placements"
`

const yamlConfig = `
allocator:
  resize_debounce: 500ms
  rebalance_threshold: 0.5
  ratios:
    edge_margin: 0.05
policy:
  tier: low
  downgrade_after: 5
  limits:
    low:
      max_occupants: 40
      strategy: balanced
compat:
  padding: 12
  simple_positioning_only: true
telemetry:
  log_events: true
  redis_channel: placements
`

func TestLoadConfigFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "zonealloc.toml", tomlConfig},
		{"yaml", "zonealloc.yaml", yamlConfig},
		{"yml", "zonealloc.yml", yamlConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}

			a := cfg.Allocator
			if a.ResizeDebounce != 500*time.Millisecond {
				t.Errorf("ResizeDebounce = %v, want 500ms", a.ResizeDebounce)
			}
			if a.RebalanceThreshold != 0.5 {
				t.Errorf("RebalanceThreshold = %v, want 0.5", a.RebalanceThreshold)
			}
			if a.EdgeMargin != 0.05 {
				t.Errorf("EdgeMargin = %v, want 0.05", a.EdgeMargin)
			}
			// Unset fields keep their defaults.
			if a.CenterZoneSize != zone.SafeRatios.CenterZoneSize {
				t.Errorf("CenterZoneSize = %v, want default", a.CenterZoneSize)
			}
			if a.MonitorInterval != zone.DefaultMonitorInterval {
				t.Errorf("MonitorInterval = %v, want default", a.MonitorInterval)
			}

			if tier, _ := cfg.tier(); tier != zone.TierLow {
				t.Errorf("tier = %q, want low", tier)
			}
			if cfg.Policy.DowngradeAfter != 5 {
				t.Errorf("DowngradeAfter = %d, want 5", cfg.Policy.DowngradeAfter)
			}
			if o := cfg.Policy.Limits[zone.TierLow]; o.MaxOccupants == nil || *o.MaxOccupants != 40 ||
				o.Strategy == nil || *o.Strategy != zone.StrategyBalanced {
				t.Errorf("low limits = %+v", o)
			}
			if cfg.Compat.Padding != 12 || !cfg.Compat.SimplePositioningOnly {
				t.Errorf("Compat = %+v", cfg.Compat)
			}
			if !cfg.Telemetry.LogEvents || cfg.Telemetry.RedisChannel != "placements" {
				t.Errorf("Telemetry = %+v", cfg.Telemetry)
			}
			if cfg.Telemetry.Buffer != defaultEventBuffer {
				t.Errorf("Buffer = %d, want default", cfg.Telemetry.Buffer)
			}
		})
	}
}

func TestPartialTierOverride(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "zonealloc.toml", "[policy]\ntier = \"high\"\n[policy.limits.high]\nmax_occupants = 100\nmonitor_interval = \"2s\"\n"},
		{"yaml", "zonealloc.yaml", "policy:\n  tier: high\n  limits:\n    high:\n      max_occupants: 100\n      monitor_interval: 2s\n"},
	}

	preset := policy.Presets()[zone.TierHigh]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			s, err := cfg.newSession(zone.NewViewport(1920, 1080), "", newLogger(io.Discard, LogInfo),
				observability.NoopAllocatorHooks{}, zone.WithClock(zone.NewManualClock(time.Now())))
			if err != nil {
				t.Fatalf("newSession: %v", err)
			}
			defer s.alloc.Destroy()

			l := s.policy.Limits()
			if l.MaxOccupants != 100 {
				t.Errorf("MaxOccupants = %d, want 100", l.MaxOccupants)
			}
			if l.MonitorInterval != 2*time.Second {
				t.Errorf("MonitorInterval = %v, want 2s", l.MonitorInterval)
			}
			// Everything not named in the file keeps the preset.
			if l.MaxDensity != preset.MaxDensity || !l.CenterPlacement || !l.ComplexPaths ||
				l.Strategy != preset.Strategy || l.MinFrameRate != preset.MinFrameRate {
				t.Errorf("limits = %+v, want preset %+v with max_occupants 100", l, preset)
			}
			if l.KindWeights[zone.KindCenter] != preset.KindWeights[zone.KindCenter] {
				t.Errorf("KindWeights = %v, want %v", l.KindWeights, preset.KindWeights)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ZONEALLOC_REDIS_CHANNEL", "ops")
	t.Setenv("ZONEALLOC_EVENT_BUFFER", "16")
	t.Setenv("ZONEALLOC_LOG_EVENTS", "false")

	cfg, err := loadConfig(writeConfig(t, "zonealloc.toml", tomlConfig))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Telemetry.RedisChannel != "ops" {
		t.Errorf("RedisChannel = %q, want ops", cfg.Telemetry.RedisChannel)
	}
	if cfg.Telemetry.Buffer != 16 {
		t.Errorf("Buffer = %d, want 16", cfg.Telemetry.Buffer)
	}
	if cfg.Telemetry.LogEvents {
		t.Error("LogEvents should be overridden to false")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    errors.Code
	}{
		{"unsupported extension", "zonealloc.json", `{}`, errors.ErrCodeInvalidFormat},
		{"malformed toml", "zonealloc.toml", "[allocator\n", errors.ErrCodeInvalidConfig},
		{"malformed yaml", "zonealloc.yaml", "allocator: [", errors.ErrCodeInvalidConfig},
		{"unknown tier", "zonealloc.toml", "[policy]\ntier = \"ultra\"\n", errors.ErrCodeInvalidTier},
		{"overflowing ratios", "zonealloc.toml", "[allocator.ratios]\nedge_margin = 0.4\ncenter_zone_size = 0.5\n", errors.ErrCodeInvalidConfig},
		{"negative downgrade", "zonealloc.toml", "[policy]\ntier = \"low\"\ndowngrade_after = -1\n", errors.ErrCodeInvalidConfig},
		{"negative limits interval", "zonealloc.toml", "[policy.limits.low]\nmonitor_interval = \"-1s\"\n", errors.ErrCodeInvalidConfig},
		{"unknown limits strategy", "zonealloc.toml", "[policy]\ntier = \"low\"\n[policy.limits.low]\nstrategy = \"spiral\"\n", errors.ErrCodeInvalidStrategy},
		{"bad telemetry url", "zonealloc.toml", "[telemetry]\nredis_url = \"ftp://cache\"\n", errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.file, tt.content))
			if !errors.Is(err, tt.want) {
				t.Errorf("loadConfig error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigEncodeRoundTrip(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "zonealloc.toml", tomlConfig))
	if err != nil {
		t.Fatal(err)
	}

	encoders := map[string]func() ([]byte, error){
		".toml": cfg.encodeTOML,
		".yaml": cfg.encodeYAML,
	}
	for ext, encode := range encoders {
		t.Run(ext, func(t *testing.T) {
			data, err := encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got := defaultFileConfig()
			if err := decodeConfig(data, ext, &got); err != nil {
				t.Fatalf("decode: %v\n%s", err, data)
			}
			if got.Allocator != cfg.Allocator {
				t.Errorf("Allocator = %+v, want %+v", got.Allocator, cfg.Allocator)
			}
			if got.Policy.Tier != cfg.Policy.Tier || got.Compat != cfg.Compat {
				t.Errorf("round trip lost policy/compat: %+v", got)
			}
		})
	}
}
