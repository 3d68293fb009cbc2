package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/harness"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simtemp.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
record_dir: /tmp/simtemp
checks:
  threshold_mc: 24000
  actor_timeout: 3s
  restore: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Device != defaults.DevicePath {
		t.Fatalf("expected default device %s, got %s", defaults.DevicePath, cfg.Device)
	}
	if cfg.SysfsRoot != defaults.SysfsRoot {
		t.Fatalf("expected default sysfs root, got %s", cfg.SysfsRoot)
	}
	if cfg.RecordDir != "/tmp/simtemp" {
		t.Fatalf("expected record dir /tmp/simtemp, got %s", cfg.RecordDir)
	}
	if got := *cfg.Checks.ThresholdMilliC; got != 24000 {
		t.Fatalf("expected threshold 24000, got %d", got)
	}
	if cfg.Checks.SampleCap != defaults.SampleCap {
		t.Fatalf("expected sample cap default %d, got %d", defaults.SampleCap, cfg.Checks.SampleCap)
	}

	s := cfg.Settings()
	if s.ActorTimeout != 3*time.Second {
		t.Fatalf("expected actor timeout 3s, got %s", s.ActorTimeout)
	}
	if s.Restore {
		t.Fatal("expected restore to stay disabled")
	}
}

func TestLoadKeepsZeroThresholds(t *testing.T) {
	path := writeConfig(t, `
checks:
  threshold_mc: 0
  fast_threshold_mc: -5000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	s := cfg.Settings()
	if s.ThresholdMilliC != 0 {
		t.Errorf("expected threshold 0 to survive, got %d", s.ThresholdMilliC)
	}
	if s.FastThresholdMilliC != -5000 {
		t.Errorf("expected fast threshold -5000, got %d", s.FastThresholdMilliC)
	}
}

func TestDefaultMatchesHarness(t *testing.T) {
	if got, want := Default().Settings(), harness.DefaultSettings(); got != want {
		t.Fatalf("settings mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"inverted cadence window": "checks:\n  cadence_min: 12\n  cadence_max: 10\n",
		"cap below window":        "checks:\n  sample_cap: 100\n",
		"alert cap below latency": "checks:\n  alert_cap: 2\n",
		"negative interval":       "checks:\n  fast_interval_ms: -1\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, data))
			if !errors.IsCode(err, errors.ErrCodeConfig) {
				t.Fatalf("expected CONFIG error, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.IsCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected CONFIG error, got %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "checks: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
