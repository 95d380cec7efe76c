package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultThresholds_Valid(t *testing.T) {
	th := DefaultThresholds()
	if err := th.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if th.Upcoding.MinPeerProviders != 20 {
		t.Errorf("upcoding min peers: got %d", th.Upcoding.MinPeerProviders)
	}
	if th.CostOutlier.MinPeerObs != 30 {
		t.Errorf("cost outlier min obs: got %d", th.CostOutlier.MinPeerObs)
	}
	if th.Phantom.AbsoluteCeiling != 50 {
		t.Errorf("phantom ceiling: got %g", th.Phantom.AbsoluteCeiling)
	}
}

func TestLoadThresholdsFile_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	os.WriteFile(path, []byte("upcoding:\n  min_peer_providers: 50\n  min_codes_billed: 3\n  high_z: 2\n  flag_avg_z: 1.5\n  flag_high_z_share: 0.5\nvelocity:\n  min_active_months: 4\n  window_months: 3\n  min_window_obs: 2\n  flag_spike_ratio: 10\n  flag_spike_z: 4\n"), 0644)

	c := Config{Thresholds: DefaultThresholds()}
	if err := c.LoadThresholdsFile(path); err != nil {
		t.Fatalf("LoadThresholdsFile: %v", err)
	}
	if c.Thresholds.Upcoding.MinPeerProviders != 50 {
		t.Errorf("override not applied: got %d", c.Thresholds.Upcoding.MinPeerProviders)
	}
	if c.Thresholds.Velocity.FlagSpikeRatio != 10 {
		t.Errorf("velocity override not applied: got %g", c.Thresholds.Velocity.FlagSpikeRatio)
	}
	// Untouched sections keep their defaults.
	if c.Thresholds.Temporal.MinActiveMonths != 6 {
		t.Errorf("temporal defaults clobbered: got %d", c.Thresholds.Temporal.MinActiveMonths)
	}
}

func TestLoadThresholdsFile_RejectsDegenerate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	os.WriteFile(path, []byte("clustering:\n  clusters: 0\n"), 0644)

	c := Config{Thresholds: DefaultThresholds()}
	if err := c.LoadThresholdsFile(path); err == nil {
		t.Fatal("expected error for zero clusters")
	}
}

func TestLoadThresholdsFile_MissingFile(t *testing.T) {
	var c Config
	if err := c.LoadThresholdsFile("/nonexistent/thresholds.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
