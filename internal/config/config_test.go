package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rudp.toml")
	contents := `
listen_addr = "0.0.0.0:9000"
segment_size = 1024
resend_timeout_seconds = 2.5
fault_drop_rate = 0.1
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SegmentSize != 1024 {
		t.Errorf("SegmentSize = %d", cfg.SegmentSize)
	}
	if cfg.ResendTimeout != 2500*time.Millisecond {
		t.Errorf("ResendTimeout = %v", cfg.ResendTimeout)
	}
	if cfg.DropRate != 0.1 {
		t.Errorf("DropRate = %v", cfg.DropRate)
	}
	// Fields absent from the file keep their defaults.
	if cfg.WindowCapacity != Default().WindowCapacity {
		t.Errorf("WindowCapacity = %d, want default", cfg.WindowCapacity)
	}
}

func TestLoadRejectsUnreadablePath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
