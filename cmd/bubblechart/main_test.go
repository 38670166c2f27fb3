package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/naei/bubblechart/internal/cache"
	"github.com/naei/bubblechart/internal/config"
	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/renderer/dom"
)

func testDataset() *sim.Dataset {
	return &sim.Dataset{
		ActivityUnit: "TJ",
		Pollutants:   []sim.Pollutant{{ID: 5, Name: "PM2.5", Unit: "kt"}, {ID: 7, Name: "NOx", Unit: "kt"}},
		Categories: []sim.CategoryRecord{
			{ID: 1, Name: "Road transport"},
			{ID: 2, Name: "Domestic combustion"},
			{ID: 3, Name: "Energy industries"},
		},
		Values: []sim.Value{
			{Year: 2021, PollutantID: 5, CategoryID: 1, Pollution: 7, Activity: 1600},
			{Year: 2022, PollutantID: 5, CategoryID: 1, Pollution: 10, Activity: 1000},
			{Year: 2022, PollutantID: 5, CategoryID: 2, Pollution: 40, Activity: 400},
			{Year: 2022, PollutantID: 5, CategoryID: 3, Pollution: 2, Activity: 2000},
			{Year: 2020, PollutantID: 7, CategoryID: 1, Pollution: 200, Activity: 1500},
		},
	}
}

func TestSelectionFlags_ResolveDefaults(t *testing.T) {
	var f selectionFlags
	sel, err := f.resolve(testDataset())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sel.PollutantID != 5 || sel.Year != 2022 {
		t.Fatalf("Expected pollutant 5 in 2022, got %d in %d", sel.PollutantID, sel.Year)
	}
	if len(sel.Categories) != 3 {
		t.Fatalf("Expected 3 categories, got %d", len(sel.Categories))
	}
	compared := sel.Compared()
	if len(compared) != 2 || compared[0].ID != 2 || compared[1].ID != 1 {
		t.Errorf("Expected the two largest polluters compared, got %+v", compared)
	}
}

func TestSelectionFlags_ResolveExplicit(t *testing.T) {
	f := selectionFlags{pollutant: 7, categories: "1c,3"}
	sel, err := f.resolve(testDataset())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sel.Year != 2020 {
		t.Errorf("Expected the latest NOx year 2020, got %d", sel.Year)
	}
	if len(sel.Categories) != 2 || !sel.Categories[0].Compare || sel.Categories[1].Compare {
		t.Errorf("Unexpected categories %+v", sel.Categories)
	}
}

func TestSelectionFlags_ResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags selectionFlags
	}{
		{"unknown pollutant", selectionFlags{pollutant: 99}},
		{"bad categories", selectionFlags{categories: "x,y"}},
		{"empty year", selectionFlags{year: 1990}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.flags.resolve(testDataset()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestPrintStatement_NoComparison(t *testing.T) {
	ds := testDataset()
	f := selectionFlags{categories: "1c,2"}
	sel, err := f.resolve(ds)
	if err != nil {
		t.Fatal(err)
	}
	st, err := deriveStatement(context.Background(), ds, sel)
	if err != nil {
		t.Fatalf("deriveStatement: %v", err)
	}
	if st != nil {
		t.Fatalf("Expected no statement with one compared category, got %+v", st)
	}

	var buf bytes.Buffer
	printStatement(&buf, ds, sel, st)
	out := buf.String()
	for _, want := range []string{"PM2.5, 2022", "Road transport", "Select two categories"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatement_Pair(t *testing.T) {
	ds := testDataset()
	f := selectionFlags{categories: "1c,2c"}
	sel, err := f.resolve(ds)
	if err != nil {
		t.Fatal(err)
	}
	st, err := deriveStatement(context.Background(), ds, sel)
	if err != nil {
		t.Fatalf("deriveStatement: %v", err)
	}
	if st == nil {
		t.Fatal("Expected a statement")
	}
	// The headline pair follows energy use.
	if st.PollutionLeader.DisplayName != "Road transport" || st.PollutionRelation != comparison.RelationLower {
		t.Errorf("Expected Road transport with lower pollution, got %q %q", st.PollutionLeader.DisplayName, st.PollutionRelation)
	}

	var buf bytes.Buffer
	printStatement(&buf, ds, sel, st)
	out := buf.String()
	for _, want := range []string{"Road transport: PM2.5 pollution 4.00 times lower than Domestic combustion", "Road transport: energy 2.50 times that of Domestic combustion", "If Domestic combustion replaced Road transport"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestPreview_HTML(t *testing.T) {
	p := &preview{Page: []byte("<html><body><div>chart</div></body></html>")}
	if got := string(p.HTML()); got != string(p.Page) {
		t.Errorf("Expected the page unchanged without markup, got %q", got)
	}

	p.Markup = "<p>cmp</p>"
	got := string(p.HTML())
	if !strings.Contains(got, `<div>chart</div><section id="comparisonDiv" class="comparison-preview"><p>cmp</p></section>`) {
		t.Errorf("Comparison block not placed before </body>: %q", got)
	}
	if strings.Count(got, "</body>") != 1 {
		t.Errorf("Expected one </body>, got %q", got)
	}

	p = &preview{Page: []byte("<div>chart</div>"), Markup: "<p>cmp</p>"}
	if got := string(p.HTML()); !strings.HasPrefix(got, "<div>chart</div><section") {
		t.Errorf("Expected the block appended, got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.size); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want change
	}{
		{"pkg/layout/coordinator.go", changeSource},
		{"pkg/layout/coordinator_test.go", changeNone},
		{"public/index.html", changeAsset},
		{"public/style.CSS", changeAsset},
		{"public/host.js", changeAsset},
		{"README.md", changeNone},
	}
	for _, tt := range tests {
		if got := classify(tt.path); got != tt.want {
			t.Errorf("classify(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func newTestServer(t *testing.T, ds *sim.Dataset) (*devServer, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dev.Static = t.TempDir()
	s := newDevServer(cfg, nil, debug.Discard())
	s.dataset = ds
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return s, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestDevServer_Settings(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, body := get(t, srv.URL+settingsPath)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"suppressWindowMs":450`) {
		t.Errorf("Expected suppressWindowMs in %s", body)
	}

	settings, err := dom.ParseSettings(body)
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if settings.MinChartCanvasHeight != 420 || settings.SuppressWindow != 450*time.Millisecond {
		t.Errorf("Settings did not round trip: %+v", settings)
	}
}

func TestDevServer_Preview(t *testing.T) {
	_, srv := newTestServer(t, testDataset())

	resp, body := get(t, srv.URL+previewPath+"?year=2022&pollutant_id=5&category_ids=1c,2c")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %q", ct)
	}
	for _, want := range []string{"Road transport", "Domestic combustion"} {
		if !strings.Contains(body, want) {
			t.Errorf("Preview missing %q", want)
		}
	}

	resp, _ = get(t, srv.URL+previewPath+"?pollutant_id=99")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown pollutant, got %d", resp.StatusCode)
	}
}

func TestDevServer_PreviewWithoutDataset(t *testing.T) {
	_, srv := newTestServer(t, nil)
	resp, _ := get(t, srv.URL+previewPath)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}
}

func TestDevServer_StaticAndReloadScript(t *testing.T) {
	s, srv := newTestServer(t, nil)
	if err := os.WriteFile(filepath.Join(s.cfg.Dev.Static, "host.html"), []byte("<h1>host</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, body := get(t, srv.URL+"/host.html")
	if resp.StatusCode != http.StatusOK || body != "<h1>host</h1>" {
		t.Errorf("Static file not served: %d %q", resp.StatusCode, body)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Errorf("Expected no-cache headers, got %q", cc)
	}

	resp, body = get(t, srv.URL+reloadJSPath)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, reloadPath) {
		t.Errorf("Reload script not served: %d", resp.StatusCode)
	}

	resp, _ = get(t, srv.URL+"/favicon.ico")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 for a missing favicon, got %d", resp.StatusCode)
	}
}

func TestDevServer_RebuildOnSourceChange(t *testing.T) {
	s, _ := newTestServer(t, nil)
	var builds int
	s.rebuild = func(ctx context.Context) error {
		builds++
		return nil
	}

	s.handleFileChanges(context.Background(), nil)
	if builds != 0 {
		t.Fatalf("Expected no rebuild without events, got %d", builds)
	}
	s.handleFileChanges(context.Background(), changeEvents("public/index.html"))
	if builds != 0 {
		t.Errorf("Expected assets to reload without a rebuild, got %d builds", builds)
	}
	s.handleFileChanges(context.Background(), changeEvents("pkg/widget/controller.go", "public/index.html"))
	if builds != 1 {
		t.Errorf("Expected one rebuild, got %d", builds)
	}
}

func changeEvents(paths ...string) []fsnotify.Event {
	events := make([]fsnotify.Event, 0, len(paths))
	for _, p := range paths {
		events = append(events, fsnotify.Event{Name: p, Op: fsnotify.Write})
	}
	return events
}

func TestBuilder_UsesCachedArtifact(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := cache.New(cache.Config{Dir: filepath.Join(root, ".cache"), Logger: debug.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	fp, err := cache.Fingerprint(root, "pkg")
	if err != nil {
		t.Fatal(err)
	}
	key := cache.Key(fp, "go-test", "./app/widget", "js/wasm")
	if err := c.Put(key, "./app/widget", []byte("\x00asm-cached")); err != nil {
		t.Fatal(err)
	}

	b := &builder{
		root:      root,
		pkg:       "./app/widget",
		output:    "out/widget.wasm",
		dirs:      []string{"pkg"},
		cache:     c,
		logger:    debug.Discard(),
		goVersion: func(context.Context) string { return "go-test" },
	}
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.Cached {
		t.Error("Expected a cached build")
	}
	if res.Path != filepath.Join(root, "out", "widget.wasm") || res.Size != int64(len("\x00asm-cached")) {
		t.Errorf("Unexpected result %+v", res)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil || string(data) != "\x00asm-cached" {
		t.Errorf("Cached artifact not written: %q, %v", data, err)
	}
}
