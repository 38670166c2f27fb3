package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/config"
	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/renderer/dom"
)

// Dev server paths.
const (
	reloadPath   = "/_bubblechart/reload"
	reloadJSPath = "/_bubblechart/reload.js"
	settingsPath = "/_bubblechart/settings.json"
	previewPath  = "/preview"
)

// watchDebounce collects bursts of file events into one rebuild.
const watchDebounce = 100 * time.Millisecond

// reloadJS reconnects to the dev server and reloads the page on rebuilds.
const reloadJS = `(function () {
  var url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "` + reloadPath + `";
  function connect() {
    var ws = new WebSocket(url);
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "RELOAD") { location.reload(); }
      if (msg.type === "ERROR") { console.error("[bubblechart] " + msg.message); }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

func newServeCmd() *cobra.Command {
	var port int
	var host string
	var noWatch, open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development server",
		Long:  `Builds the widget, serves the static pages and rebuilds with live reload when sources change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			if port != 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if open {
				cfg.Dev.Open = true
			}
			return runServe(cmd.Context(), cfg, !noWatch)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (defaults to dev.port)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "host to bind (defaults to dev.host)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not rebuild on changes")
	cmd.Flags().BoolVar(&open, "open", false, "open the host page in a browser")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, watch bool) error {
	logger := debug.Component(debug.FromContext(ctx), "serve")

	b, err := newBuilder(cfg, true, debug.FromContext(ctx))
	if err != nil {
		return err
	}
	res, err := b.Build(ctx)
	if err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	reportBuild(logger, res)

	s := newDevServer(cfg, b, logger)
	if ds, err := sim.LoadDataset(cfg.Dev.Dataset); err != nil {
		logger.Warn("preview disabled", "err", err)
	} else {
		s.dataset = ds
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()
		s.watcher = watcher
		if err := s.setupWatcher(); err != nil {
			return fmt.Errorf("failed to setup watcher: %w", err)
		}
		go s.watchFiles(ctx)
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: s.routes()}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("dev server running", "url", "http://"+cfg.Addr())
		errc <- srv.ListenAndServe()
	}()
	if cfg.Dev.Open {
		if err := openBrowser(ctx, "http://"+cfg.Addr()); err != nil {
			logger.Warn("could not open browser", "err", err)
		}
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	return cmd.Start()
}

type devServer struct {
	cfg     *config.Config
	builder *builder
	logger  *log.Logger
	dataset *sim.Dataset
	watcher *fsnotify.Watcher

	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool

	// rebuild runs a build; replaced in tests.
	rebuild func(ctx context.Context) error
}

func newDevServer(cfg *config.Config, b *builder, logger *log.Logger) *devServer {
	s := &devServer{
		cfg:     cfg,
		builder: b,
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.rebuild = func(ctx context.Context) error {
		if s.builder == nil {
			return nil
		}
		res, err := s.builder.Build(ctx)
		if err == nil {
			reportBuild(s.logger, res)
		}
		return err
	}
	return s
}

func (s *devServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get(reloadPath, s.handleWebSocket)
	r.Get(reloadJSPath, s.serveReloadJS)
	r.Get(settingsPath, s.serveSettings)
	r.Get(previewPath, s.servePreview)
	r.Get("/widget.wasm", s.serveWASM)
	r.Get("/wasm_exec.js", s.serveWasmExec)
	r.Get("/favicon.ico", s.serveFavicon)
	r.Handle("/*", http.FileServer(http.Dir(s.cfg.Dev.Static)))
	return r
}

func (s *devServer) serveWASM(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/wasm")
	path := s.cfg.Build.Output
	if s.builder != nil {
		path = s.builder.outputPath()
	}
	http.ServeFile(w, r, path)
}

func (s *devServer) serveWasmExec(w http.ResponseWriter, r *http.Request) {
	path, err := findWasmExec(r.Context())
	if err != nil {
		http.Error(w, "Failed to resolve wasm_exec.js", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *devServer) serveReloadJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write([]byte(reloadJS))
}

// settingsPayload is the JSON shape pages hand to
// window.__bubbleLayoutSettings, read back by dom.ParseSettings.
type settingsPayload struct {
	layout.Settings
	SuppressWindowMs float64 `json:"suppressWindowMs"`
}

// serveSettings publishes the configured layout settings so host pages can
// hand them to the widget.
func (s *devServer) serveSettings(w http.ResponseWriter, r *http.Request) {
	l := s.cfg.Layout.WithDefaults()
	payload := settingsPayload{
		Settings:         l,
		SuppressWindowMs: float64(l.SuppressWindow) / float64(time.Millisecond),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("settings encode failed", "err", err)
	}
}

// servePreview renders the selection in the query string natively. The
// query uses the same parameters the widget mirrors into its URL.
func (s *devServer) servePreview(w http.ResponseWriter, r *http.Request) {
	if s.dataset == nil {
		http.Error(w, "No dataset configured", http.StatusServiceUnavailable)
		return
	}
	sel, ok := dom.SelectionFromQuery(r.URL.RawQuery)
	flags := selectionFlags{year: sel.Year, pollutant: sel.PollutantID}
	resolved, err := flags.resolve(s.dataset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		resolved.Categories = sel.Categories
	}

	p, err := renderPreview(r.Context(), s.dataset, resolved, s.cfg.Layout, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if p.Message != "" {
		http.Error(w, p.Message, http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(p.HTML())
}

// serveFavicon serves a project favicon if present, otherwise returns 204 to avoid noisy 404.
func (s *devServer) serveFavicon(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.Dev.Static, "favicon.ico")
	if _, err := os.Stat(path); err == nil {
		http.ServeFile(w, r, path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *devServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("websocket closed", "err", err)
			}
			return
		}
		if msg["type"] == "HELLO" {
			s.clientsMu.Lock()
			err := conn.WriteJSON(map[string]any{"type": "ACK"})
			s.clientsMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// notifyClients broadcasts a message to every connected page. Writes are
// serialised because a websocket connection allows one writer at a time.
func (s *devServer) notifyClients(msgType string, data map[string]any) {
	msg := map[string]any{"type": strings.ToUpper(msgType)}
	for k, v := range data {
		msg[k] = v
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			s.logger.Debug("failed to notify client", "err", err)
		}
	}
}

func (s *devServer) setupWatcher() error {
	dirs := append([]string{s.cfg.Dev.Static}, s.cfg.Dev.Watch...)
	for _, root := range dirs {
		if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if name := d.Name(); path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return s.watcher.Add(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *devServer) watchFiles(ctx context.Context) {
	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	var pending []fsnotify.Event

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if classify(event.Name) == changeNone {
				continue
			}
			pending = append(pending, event)
			debounce.Reset(watchDebounce)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "err", err)
		case <-debounce.C:
			events := pending
			pending = nil
			s.handleFileChanges(ctx, events)
		}
	}
}

type change int

const (
	changeNone change = iota
	changeSource
	changeAsset
)

// classify sorts a changed path: Go sources need a rebuild, page assets
// only a reload. Test files change neither.
func classify(path string) change {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".go" && !strings.HasSuffix(path, "_test.go"):
		return changeSource
	case ext == ".html", ext == ".css", ext == ".js":
		return changeAsset
	default:
		return changeNone
	}
}

func (s *devServer) handleFileChanges(ctx context.Context, events []fsnotify.Event) {
	var source, asset bool
	for _, e := range events {
		switch classify(e.Name) {
		case changeSource:
			source = true
		case changeAsset:
			asset = true
		}
	}

	if source {
		s.logger.Info("sources changed, rebuilding")
		if err := s.rebuild(ctx); err != nil {
			s.logger.Error("build failed", "err", err)
			s.notifyClients("error", map[string]any{"message": fmt.Sprintf("Build failed: %v", err)})
			return
		}
		s.notifyClients("reload", map[string]any{"target": "wasm"})
		return
	}
	if asset {
		s.notifyClients("reload", map[string]any{"target": "page"})
	}
}
