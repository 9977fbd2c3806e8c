package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/anomaly-classifier/internal/adapters/httpapi"
	"github.com/mikey/anomaly-classifier/internal/artifacts"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/core"
	"go.uber.org/zap/zaptest"
)

// --- test helpers -----------------------------------------------------------

func TestMain(m *testing.M) {
	httpapi.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		MaxBodyBytes:    1024,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Mode:            "test",
	}
}

func newServer(t *testing.T) *httpapi.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return httpapi.NewServer(testConfig(), core.NewAnomalyService(logger, 1), &artifacts.Set{}, logger)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, code int, msg string) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, code, rr.Body.String())
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] != msg {
		t.Errorf("error: got %q, want %q", resp["error"], msg)
	}
}

const internalMsg = "An internal error occurred. Please check the server logs."

type failingClassifier struct{ err error }

func (f failingClassifier) Evaluate(core.Record) (core.Verdict, error) {
	return core.Verdict{}, f.err
}

func (f failingClassifier) ClassifyBatch(context.Context, []core.Record) ([]core.Record, error) {
	return nil, f.err
}

type panickingClassifier struct{ failingClassifier }

func (panickingClassifier) ClassifyBatch(context.Context, []core.Record) ([]core.Record, error) {
	panic("boom")
}

// --- POST /predict ----------------------------------------------------------

func TestPredict_LargeExfiltration(t *testing.T) {
	rr := post(t, newServer(t).Handler(), `[{"size":200000,"attachments":3,"num_recipients":5}]`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out []map[string]interface{}
	decode(t, rr, &out)

	if len(out) != 1 {
		t.Fatalf("len: got %d, want 1", len(out))
	}
	r := out[0]
	if r["anomaly"].(float64) != 1 {
		t.Errorf("anomaly: got %v, want 1", r["anomaly"])
	}
	if r["status"] != "Large Data Exfiltration" {
		t.Errorf("status: got %v", r["status"])
	}
	if r["size"].(float64) != 200000 || r["attachments"].(float64) != 3 || r["num_recipients"].(float64) != 5 {
		t.Errorf("input fields not echoed: %v", r)
	}
	if r["hour"].(float64) != 0 || r["day_of_week"].(float64) != 0 {
		t.Errorf("reserved fields not defaulted: %v", r)
	}
}

func TestPredict_EmptyBatch(t *testing.T) {
	rr := post(t, newServer(t).Handler(), `[]`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body: got %s, want []", got)
	}
}

func TestPredict_NoData(t *testing.T) {
	h := newServer(t).Handler()
	for _, body := range []string{"", "  ", "null", "{}"} {
		assertError(t, post(t, h, body), http.StatusBadRequest, "No data provided.")
	}
}

func TestPredict_InternalErrors(t *testing.T) {
	h := newServer(t).Handler()
	for _, body := range []string{
		`[{"size":`,
		`{"size":1}`,
		`[1,2,3]`,
		`[{"size":"big","attachments":2}]`,
		`[{"size":1}]` + strings.Repeat(" ", 2048),
	} {
		assertError(t, post(t, h, body), http.StatusInternalServerError, internalMsg)
	}
}

func TestPredict_StatusesAndOrder(t *testing.T) {
	body := `[
		{"id":"a","num_recipients":101},
		{"id":"b","num_recipients":100},
		{"id":"c","size":150001,"attachments":2},
		{"id":"d","size":150000,"attachments":2},
		{"id":"e","attachments":11},
		{"id":"f","attachments":10}
	]`
	rr := post(t, newServer(t).Handler(), body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out []map[string]interface{}
	decode(t, rr, &out)

	want := []struct {
		id      string
		anomaly float64
		status  string
	}{
		{"a", 1, "Mass Recipient Anomaly"},
		{"b", 0, "Normal"},
		{"c", 1, "Large Data Exfiltration"},
		{"d", 0, "Normal"},
		{"e", 1, "High Attachment Count"},
		{"f", 0, "Normal"},
	}
	if len(out) != len(want) {
		t.Fatalf("len: got %d, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i]["id"] != w.id || out[i]["anomaly"].(float64) != w.anomaly || out[i]["status"] != w.status {
			t.Errorf("record %d: got %v, want %+v", i, out[i], w)
		}
	}
}

func TestPredict_MissingAttachmentsDefaultsToZero(t *testing.T) {
	rr := post(t, newServer(t).Handler(), `[{"size":999999,"num_recipients":2}]`)
	var out []map[string]interface{}
	decode(t, rr, &out)

	if out[0]["attachments"].(float64) != 0 {
		t.Errorf("attachments: got %v, want 0", out[0]["attachments"])
	}
	if out[0]["status"] != "Normal" {
		t.Errorf("status: got %v, want Normal", out[0]["status"])
	}
}

func TestPredict_ClassifierFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := httpapi.NewServer(testConfig(), failingClassifier{errors.New("db on fire")}, nil, logger)

	rr := post(t, s.Handler(), `[{"size":1}]`)
	assertError(t, rr, http.StatusInternalServerError, internalMsg)
	if strings.Contains(rr.Body.String(), "db on fire") {
		t.Error("internal error details leaked to the client")
	}
}

func TestPredict_Panic(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := httpapi.NewServer(testConfig(), panickingClassifier{}, nil, logger)

	assertError(t, post(t, s.Handler(), `[{"size":1}]`), http.StatusInternalServerError, internalMsg)
}

func TestPredict_RequestID(t *testing.T) {
	h := newServer(t).Handler()

	rr := post(t, h, `[]`)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`[]`))
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID: got %q, want abc-123", got)
	}
}

// --- CORS -------------------------------------------------------------------

func TestCORS_AnyOrigin(t *testing.T) {
	h := newServer(t).Handler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`[]`))
	req.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newServer(t).Handler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://dashboard.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods: got %q, want POST included", got)
	}
}

// --- GET /health ------------------------------------------------------------

func TestHealth(t *testing.T) {
	logger := zaptest.NewLogger(t)
	set := &artifacts.Set{Model: artifacts.Artifact{Path: "m.pkl", Loaded: true}}
	s := httpapi.NewServer(testConfig(), core.NewAnomalyService(logger, 1), set, logger)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp httpapi.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || !resp.ModelLoaded || resp.ScalerLoaded {
		t.Errorf("health: got %+v", resp)
	}
}

// --- lifecycle --------------------------------------------------------------

func TestStartStop(t *testing.T) {
	s := newServer(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Post("http://"+s.Addr()+"/predict", "application/json",
		strings.NewReader(`[{"num_recipients":250}]`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var out []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[0]["status"] != "Mass Recipient Anomaly" {
		t.Errorf("status: got %v", out[0]["status"])
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStart_BadAddress(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	cfg.ListenAddress = "not-an-address"
	s := httpapi.NewServer(cfg, core.NewAnomalyService(logger, 1), nil, logger)

	if err := s.Start(); err == nil {
		t.Fatal("expected listen error")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop on unstarted server: %v", err)
	}
}

// --- gin mode ---------------------------------------------------------------

func TestNewServer_LeavesGinModeAlone(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	for _, mode := range []string{gin.ReleaseMode, gin.DebugMode, ""} {
		cfg := testConfig()
		cfg.Mode = mode
		httpapi.NewServer(cfg, core.NewAnomalyService(logger, 1), &artifacts.Set{}, logger)
		if got := gin.Mode(); got != gin.TestMode {
			t.Errorf("server mode %q: gin mode changed to %q", mode, got)
		}
	}
}

func TestSetMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	tests := map[string]string{
		gin.DebugMode:   gin.DebugMode,
		gin.ReleaseMode: gin.ReleaseMode,
		gin.TestMode:    gin.TestMode,
		"":              gin.ReleaseMode,
		"verbose":       gin.ReleaseMode,
	}
	for in, want := range tests {
		httpapi.SetMode(in)
		if got := gin.Mode(); got != want {
			t.Errorf("SetMode(%q): got %q, want %q", in, got, want)
		}
	}
}
