package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samirrijal/trackheat/internal/pkg/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("trackheat-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracks.RootFolder != "workout-routes" {
		t.Errorf("expected workout-routes, got %s", cfg.Tracks.RootFolder)
	}
	if cfg.Tracks.Extension != ".gpx" {
		t.Errorf("expected .gpx, got %s", cfg.Tracks.Extension)
	}
	if cfg.Tracks.OnError != config.OnErrorAbort {
		t.Errorf("expected abort, got %s", cfg.Tracks.OnError)
	}
	if cfg.Heatmap.Radius != 8 || cfg.Heatmap.Blur != 15 {
		t.Errorf("expected radius 8 blur 15, got %d %d", cfg.Heatmap.Radius, cfg.Heatmap.Blur)
	}
	if cfg.Cache.Path != "gpx_cache.bin" {
		t.Errorf("expected gpx_cache.bin, got %s", cfg.Cache.Path)
	}
	if cfg.Telemetry.ServiceName != "trackheat-test" {
		t.Errorf("expected service name trackheat-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yml := `
tracks:
  root_folder: /data/gpx
  on_error: skip
cache:
  path: /tmp/points.bin
  codec: proto
heatmap:
  radius: 12
filter:
  include_undated: true
  timezone: Europe/Madrid
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("trackheat-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracks.RootFolder != "/data/gpx" {
		t.Errorf("expected /data/gpx, got %s", cfg.Tracks.RootFolder)
	}
	if cfg.Tracks.OnError != config.OnErrorSkip {
		t.Errorf("expected skip, got %s", cfg.Tracks.OnError)
	}
	if cfg.Cache.Codec != "proto" {
		t.Errorf("expected proto codec, got %s", cfg.Cache.Codec)
	}
	if cfg.Heatmap.Radius != 12 {
		t.Errorf("expected radius 12, got %d", cfg.Heatmap.Radius)
	}
	if !cfg.Filter.IncludeUndated {
		t.Error("expected include_undated to be true")
	}
	loc, err := cfg.Filter.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "Europe/Madrid" {
		t.Errorf("expected Europe/Madrid, got %s", loc)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRACKHEAT_TRACKS_ROOT_FOLDER", "/env/tracks")

	cfg, err := config.Load("trackheat-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracks.RootFolder != "/env/tracks" {
		t.Errorf("expected /env/tracks, got %s", cfg.Tracks.RootFolder)
	}
}

func validConfig() config.Config {
	return config.Config{
		Tracks:  config.TracksConfig{RootFolder: "tracks", Extension: ".gpx", OnError: config.OnErrorAbort},
		Cache:   config.CacheConfig{Backend: "file", Path: "cache.bin", Codec: "gob", OnCorrupt: config.OnCorruptRecollect},
		Heatmap: config.HeatmapConfig{Radius: 8, Blur: 15, Zoom: 13, Output: "out.html"},
		Filter:  config.FilterConfig{Timezone: "UTC"},
		Server:  config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Tracks.OnError = "retry"
	cfg.Cache.Codec = "json"
	cfg.Heatmap.Radius = 0
	cfg.Filter.Timezone = "Mars/Olympus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"tracks.on_error", "cache.codec", "heatmap.radius", "filter.timezone"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestValidate_ValkeyBackendNeedsAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "valkey"
	cfg.Cache.Key = "k"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey.addr")
	}
	cfg.Valkey.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_DatabaseOptIn(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("trackheat-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Enabled {
		t.Error("expected database disabled by default")
	}
	if cfg.Database.MaxConns != 4 {
		t.Errorf("expected max_conns 4, got %d", cfg.Database.MaxConns)
	}

	cfg.Database.Enabled = true
	cfg.Database.MaxConns = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "database.max_conns") {
		t.Errorf("expected max_conns validation error, got %v", err)
	}
}
