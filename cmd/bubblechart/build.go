package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/cache"
	"github.com/naei/bubblechart/internal/config"
	"github.com/naei/bubblechart/pkg/debug"
)

// artifactMaxAge is how long an unused build stays cached.
const artifactMaxAge = 14 * 24 * time.Hour

func newBuildCmd() *cobra.Command {
	var output string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the widget for the browser",
		Long:  `Compiles the widget package with GOOS=js GOARCH=wasm and copies wasm_exec.js next to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			if output != "" {
				cfg.Build.Output = output
			}
			logger := debug.FromContext(ctx)

			b, err := newBuilder(cfg, !noCache, logger)
			if err != nil {
				return err
			}
			res, err := b.Build(ctx)
			if err != nil {
				return err
			}
			if err := copyWasmExec(ctx, filepath.Dir(res.Path)); err != nil {
				logger.Warn("wasm_exec.js not copied", "err", err)
			}
			reportBuild(logger, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to build.output)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always compile, bypassing the artifact cache")
	return cmd
}

// buildResult describes one build.
type buildResult struct {
	Path     string
	Size     int64
	Cached   bool
	Duration time.Duration
}

// builder compiles the widget to wasm, reusing cached artifacts when the
// watched sources are unchanged.
type builder struct {
	root   string
	pkg    string
	output string
	dirs   []string
	cache  *cache.Cache
	logger *log.Logger

	// goVersion is part of the cache key.
	goVersion func(ctx context.Context) string

	mu sync.Mutex
}

func newBuilder(cfg *config.Config, useCache bool, logger *log.Logger) (*builder, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	b := &builder{
		root:      root,
		pkg:       cfg.Build.Package,
		output:    cfg.Build.Output,
		dirs:      cfg.Dev.Watch,
		logger:    debug.Component(logger, "build"),
		goVersion: goVersion,
	}
	if useCache {
		c, err := cache.New(cache.Config{
			Dir:     cfg.Build.CacheDir,
			MaxSize: int64(cfg.Build.MaxSizeMB) << 20,
			MaxAge:  artifactMaxAge,
			Logger:  logger,
		})
		if err != nil {
			b.logger.Warn("build cache unavailable", "err", err)
		} else {
			b.cache = c
		}
	}
	return b, nil
}

func (b *builder) outputPath() string {
	if filepath.IsAbs(b.output) {
		return b.output
	}
	return filepath.Join(b.root, b.output)
}

// Build produces the wasm binary at the configured output path.
func (b *builder) Build(ctx context.Context) (buildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	out := b.outputPath()
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return buildResult{}, fmt.Errorf("create output directory: %w", err)
	}

	var key string
	if b.cache != nil {
		fp, err := cache.Fingerprint(b.root, b.dirs...)
		if err != nil {
			b.logger.Warn("fingerprint failed, building without cache", "err", err)
		} else {
			key = cache.Key(fp, b.goVersion(ctx), b.pkg, "js/wasm")
			if data, ok := b.cache.Get(key); ok {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return buildResult{}, fmt.Errorf("write %s: %w", out, err)
				}
				b.logger.Debug("using cached build", "key", key[:12])
				return buildResult{Path: out, Size: int64(len(data)), Cached: true, Duration: time.Since(start)}, nil
			}
		}
	}

	cmd := exec.CommandContext(ctx, "go", "build", "-trimpath", "-ldflags=-s -w", "-o", out, b.pkg)
	cmd.Dir = b.root
	cmd.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm")
	b.logger.Debug("compiling", "package", b.pkg, "output", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return buildResult{}, fmt.Errorf("go build failed: %w\n%s", err, output)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return buildResult{}, err
	}
	if key != "" {
		if err := b.cache.Put(key, b.pkg, data); err != nil {
			b.logger.Warn("build not cached", "err", err)
		}
	}
	return buildResult{Path: out, Size: int64(len(data)), Duration: time.Since(start)}, nil
}

func goVersion(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "go", "env", "GOVERSION").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// findWasmExec locates wasm_exec.js in the Go installation. Newer releases
// keep it under lib/wasm, older ones under misc/wasm.
func findWasmExec(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "go", "env", "GOROOT").Output()
	if err != nil {
		return "", fmt.Errorf("resolve GOROOT: %w", err)
	}
	root := strings.TrimSpace(string(out))
	for _, rel := range []string{"lib/wasm/wasm_exec.js", "misc/wasm/wasm_exec.js"} {
		p := filepath.Join(root, rel)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("wasm_exec.js not found in " + root)
}

func copyWasmExec(ctx context.Context, dir string) error {
	src, err := findWasmExec(ctx)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "wasm_exec.js"), content, 0644)
}

func reportBuild(logger *log.Logger, res buildResult) {
	source := "compiled"
	if res.Cached {
		source = "cached"
	}
	logger.Info("widget built",
		"path", res.Path,
		"source", source,
		"size", formatSize(res.Size),
		"gzip", formatSize(gzippedSize(res.Path)),
		"took", res.Duration.Round(time.Millisecond))
}

func gzippedSize(path string) int64 {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write(content)
	gz.Close()
	return int64(buf.Len())
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
