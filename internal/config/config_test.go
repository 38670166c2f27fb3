package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/naei/bubblechart/pkg/layout"
)

func noEnv() envconfig.Lookuper { return envconfig.MapLookuper(map[string]string{}) }

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadWith(context.Background(), t.TempDir(), noEnv())
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Layout != layout.DefaultSettings() {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Addr() != "localhost:8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.Build.Output != "public/widget.wasm" {
		t.Errorf("Build.Output = %q", cfg.Build.Output)
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
layout:
  min_chart_canvas_height: 400
  suppress_window: 600ms
timing:
  chrome_notify_delay: 120ms
dev:
  port: 9000
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWith(context.Background(), dir, noEnv())
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Layout.MinChartCanvasHeight != 400 {
		t.Errorf("MinChartCanvasHeight = %v", cfg.Layout.MinChartCanvasHeight)
	}
	if cfg.Layout.SuppressWindow != 600*time.Millisecond {
		t.Errorf("SuppressWindow = %v", cfg.Layout.SuppressWindow)
	}
	if cfg.Layout.FooterGap != 6 {
		t.Errorf("FooterGap default not applied: %v", cfg.Layout.FooterGap)
	}
	if cfg.Timing.ChromeNotifyDelay != 120*time.Millisecond {
		t.Errorf("ChromeNotifyDelay = %v", cfg.Timing.ChromeNotifyDelay)
	}
	if cfg.Timing.ScrollAckGrace != 140*time.Millisecond {
		t.Errorf("ScrollAckGrace default not applied: %v", cfg.Timing.ScrollAckGrace)
	}
	if cfg.Dev.Port != 9000 || cfg.Dev.Host != "localhost" {
		t.Errorf("Dev = %+v", cfg.Dev)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("dev:\n  port: 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env := envconfig.MapLookuper(map[string]string{
		"BUBBLECHART_DEV_PORT":                "9100",
		"BUBBLECHART_LAYOUT_MIN_HEIGHT_DELTA": "12",
		"BUBBLECHART_TIMING_RESIZE_DEBOUNCE":  "300ms",
		"BUBBLECHART_VERBOSE":                 "true",
		"BUBBLECHART_DEV_WATCH":               "pkg,internal",
		"DEV_PORT":                            "1",
	})

	cfg, err := LoadWith(context.Background(), dir, env)
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Dev.Port != 9100 {
		t.Errorf("Dev.Port = %d, want 9100", cfg.Dev.Port)
	}
	if cfg.Layout.MinHeightDelta != 12 {
		t.Errorf("MinHeightDelta = %d", cfg.Layout.MinHeightDelta)
	}
	if cfg.Timing.ResizeDebounce != 300*time.Millisecond {
		t.Errorf("ResizeDebounce = %v", cfg.Timing.ResizeDebounce)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be set from the environment")
	}
	if len(cfg.Dev.Watch) != 2 || cfg.Dev.Watch[1] != "internal" {
		t.Errorf("Dev.Watch = %v", cfg.Dev.Watch)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "layout: [",
		"bad port":   "dev:\n  port: 70000\n",
		"bad layout": "layout:\n  min_chart_canvas_height: 900\n  min_chart_wrapper_height: 500\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadWith(context.Background(), dir, noEnv()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dev.Port = 8181
	if err := Save(cfg, dir); err != nil {
		t.Fatal(err)
	}
	got, err := LoadWith(context.Background(), dir, noEnv())
	if err != nil {
		t.Fatal(err)
	}
	if got.Dev.Port != 8181 || got.Layout != cfg.Layout {
		t.Errorf("Loaded %+v", got)
	}
}
