package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/config"
	"github.com/JonMunkholm/AssetViewer/internal/core"
	_ "github.com/JonMunkholm/AssetViewer/internal/core/tables"
)

const testDump = "INSERT INTO `asset` VALUES " +
	"(1,0,10,20,30,'Laptop','Dent on lid',1,100,NULL,'2021-03-04 10:00:00','Room 2B',NULL,NULL)," +
	"(2,0,10,20,30,'Dock','',1,100,NULL,'2021-03-05 10:00:00','Store',NULL,NULL);\n" +
	"INSERT INTO `assetcategory` VALUES (10,0,'Computers');\n" +
	"INSERT INTO `assetcategoryfield` VALUES (500,'Serial Number');\n" +
	"INSERT INTO `assetupdate` VALUES (1,1,7,'1','2021-03-04 10:00:00');\n" +
	"INSERT INTO `brand` VALUES (20,'Lenovo');\n" +
	"INSERT INTO `customer` VALUES (100,0,0,0,0,0,'Ada',0,'Lovelace');\n" +
	"INSERT INTO `engineer` VALUES (7,0,0,0,0,'Grace',0,'Hopper');\n" +
	"INSERT INTO `mmassetfieldvalue` VALUES (1,1,500,'SN-123');\n" +
	"INSERT INTO `model` VALUES (30,20,'ThinkPad X1');\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            5001,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func testSnapshot(t *testing.T) *core.Snapshot {
	t.Helper()
	snap, _, err := core.Load(context.Background(), strings.NewReader(testDump), 0, core.LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return snap
}

func newTestServer(t *testing.T, svc *core.Service, cfg *config.Config) *Server {
	t.Helper()
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAPI_ListAssets(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	rec := get(t, s, "/api/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var rows []core.AssetSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := core.AssetSummary{ID: "1", Name: "Laptop", Category: "Computers", Brand: "Lenovo", Model: "ThinkPad X1", Customer: "Ada Lovelace", Location: "Room 2B"}
	if len(rows) != 2 || rows[0] != want {
		t.Errorf("rows = %+v", rows)
	}
}

func TestAPI_ListAssets_Query(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"dock", 1},
		{"LOVELACE", 2},
		{"nothing-matches", 0},
	}

	for _, tt := range tests {
		rec := get(t, s, "/api/assets?q="+tt.query, nil)
		var rows []core.AssetSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
			t.Fatalf("q=%q: decode: %v (%s)", tt.query, err, rec.Body.String())
		}
		if rows == nil {
			t.Errorf("q=%q: body is null, want an array", tt.query)
		}
		if len(rows) != tt.want {
			t.Errorf("q=%q: got %d rows, want %d", tt.query, len(rows), tt.want)
		}
	}
}

func TestAPI_AssetDetail(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	rec := get(t, s, "/api/asset/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Info         map[string]string `json:"asset_info"`
		CustomFields map[string]string `json:"custom_fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Info["Asset Name"] != "Laptop" || body.Info["Created By"] != "Grace Hopper" {
		t.Errorf("asset_info = %v", body.Info)
	}
	if body.CustomFields["Serial Number"] != "SN-123" {
		t.Errorf("custom_fields = %v", body.CustomFields)
	}
	if len(body.Info) != 12 {
		t.Errorf("asset_info has %d keys, want 12", len(body.Info))
	}
}

func TestAPI_AssetNotFound(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	rec := get(t, s, "/api/asset/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Asset not found" || body.Code != "AST001" {
		t.Errorf("body = %+v", body)
	}
}

func TestPages(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	tests := []struct {
		name       string
		path       string
		header     http.Header
		wantStatus int
		wantBody   string
	}{
		{"grid", "/", nil, http.StatusOK, `href="/asset/1"`},
		{"grid search", "/?q=dock", nil, http.StatusOK, "1 of 2 assets"},
		{"detail", "/asset/1", nil, http.StatusOK, "Dent on lid"},
		{"missing asset page", "/asset/999", nil, http.StatusNotFound, "AST001"},
		{"missing asset as json", "/asset/999", http.Header{"Accept": {"application/json"}}, http.StatusNotFound, `"code":"AST001"`},
		{"unknown route", "/nope", nil, http.StatusNotFound, "Page not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path, tt.header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), testConfig())

	rec := get(t, s, "/", nil)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	s = newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), cfg)
	if got := get(t, s, "/", nil).Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP = %q with CSP disabled", got)
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Snapshot(context.Context) (*core.Snapshot, error) {
	return nil, errors.New("open dump: open /data/dump.sql: no such file or directory")
}

// unknownFailure is an error with no user-facing mapping.
type unknownFailure struct{}

func (unknownFailure) Name() string { return "unknown" }
func (unknownFailure) Snapshot(context.Context) (*core.Snapshot, error) {
	return nil, errors.New("disk on fire")
}

func TestRespondError_Logs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	tests := []struct {
		name       string
		svc        *core.Service
		path       string
		wantLevel  string
		wantCode   string
		wantMapped bool
	}{
		{"not found", core.NewServiceWithSnapshot(testSnapshot(t)), "/api/asset/404", "WARN", "AST001", true},
		{"unmapped failure", core.NewService(unknownFailure{}), "/api/assets", "ERROR", "ERR000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			get(t, newTestServer(t, tt.svc, testConfig()), tt.path, nil)

			var entry map[string]any
			for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
				var e map[string]any
				if json.Unmarshal(line, &e) == nil && e["msg"] == "request error" {
					entry = e
					break
				}
			}
			if entry == nil {
				t.Fatalf("no request error logged:\n%s", buf.String())
			}
			if entry["level"] != tt.wantLevel || entry["code"] != tt.wantCode || entry["mapped"] != tt.wantMapped {
				t.Errorf("log entry = %v", entry)
			}
		})
	}
}

func TestSourceFailure(t *testing.T) {
	s := newTestServer(t, core.NewService(failingSource{}), testConfig())

	rec := get(t, s, "/api/assets", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "SRC001" {
		t.Errorf("code = %q, want SRC001", body.Code)
	}
	if strings.Contains(rec.Body.String(), "/data/dump.sql") {
		t.Error("response leaks the file path")
	}
}

func TestHealth(t *testing.T) {
	svc := core.NewService(staticSource{snap: testSnapshot(t)})
	s := newTestServer(t, svc, testConfig())

	var before HealthResponse
	rec := get(t, s, "/healthz", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.Status != "ok" || before.Loaded {
		t.Errorf("before load = %+v", before)
	}
	if loaded, _ := svc.Loaded(); loaded {
		t.Fatal("health check triggered a load")
	}

	get(t, s, "/api/assets", nil)

	var after HealthResponse
	rec = get(t, s, "/healthz", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !after.Loaded || after.Assets != 2 || after.SnapshotID == "" || after.Tables == nil {
		t.Errorf("after load = %+v", after)
	}
}

func TestHealth_DuringLoad(t *testing.T) {
	src := &gatedSource{
		snap:    testSnapshot(t),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestServer(t, core.NewService(src), testConfig())

	loading := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		loading <- rec.Code
	}()
	<-src.started

	health := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		health <- rec
	}()

	select {
	case rec := <-health:
		var body HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != http.StatusOK || body.Loaded {
			t.Errorf("healthz during load = %d %+v", rec.Code, body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthz blocked while load in progress")
	}

	close(src.release)
	if code := <-loading; code != http.StatusOK {
		t.Errorf("/api/assets status = %d, want 200", code)
	}
}

// gatedSource returns snap once release is closed.
type gatedSource struct {
	snap     *core.Snapshot
	started  chan struct{}
	release  chan struct{}
	startOne sync.Once
}

func (*gatedSource) Name() string { return "gated" }
func (g *gatedSource) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	g.startOne.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type staticSource struct{ snap *core.Snapshot }

func (staticSource) Name() string { return "static" }
func (s staticSource) Snapshot(context.Context) (*core.Snapshot, error) {
	return s.snap, nil
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, core.NewServiceWithSnapshot(testSnapshot(t)), cfg)

	for i := 0; i < 2; i++ {
		if rec := get(t, s, "/healthz", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := get(t, s, "/healthz", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), "RATE001") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("1.1.1.1") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if rl.allow("1.1.1.1") {
		t.Error("fourth request allowed")
	}
	if !rl.allow("2.2.2.2") {
		t.Error("other IP denied")
	}

	rl.mu.Lock()
	rl.visitors["1.1.1.1"].lastReset = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()
	if !rl.allow("1.1.1.1") {
		t.Error("request after window reset denied")
	}
}
