package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/codewithboateng/prlint/internal/ir"
	"github.com/codewithboateng/prlint/internal/rules"
	"github.com/codewithboateng/prlint/internal/security"
	"github.com/codewithboateng/prlint/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("schema: %v", err)
	}

	reg, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg := rules.NewConfig(reg)

	return &Server{
		DB:              db,
		UserStore:       db,
		Registry:        reg,
		RuleConfig:      cfg,
		Logger:          slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		SessionDuration: time.Hour,
	}, db
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

func loginAs(t *testing.T, db *storage.DB, h http.Handler, username, role string) *http.Cookie {
	t.Helper()
	hash, err := security.HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUser(username, hash, role); err != nil {
		t.Fatalf("create user: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"username": username, "password": "secret"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()

	body, _ := json.Marshal(analyzeReq{
		PR: map[string]string{"title": "test change"},
		Files: []ir.SourceFile{
			{Filepath: "app.py", Content: "def handler(event, unused):\n    return event\n"},
		},
		Save: true,
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/analyze", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze = %d: %s", rec.Code, rec.Body)
	}

	var resp analyzeResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID == "" {
		t.Fatal("no run id")
	}
	found := false
	for _, r := range resp.Results {
		if r.RuleID == "unused-parameter" && r.Message == "Parameter 'unused' of function 'handler' is never used" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unused-parameter finding, got %+v", resp.Results)
	}
	if resp.Report.Summary.TotalIssues != len(resp.Results) {
		t.Fatalf("report total = %d, results = %d", resp.Report.Summary.TotalIssues, len(resp.Results))
	}

	// save=true persisted the run.
	run, err := db.LoadRun(resp.RunID)
	if err != nil {
		t.Fatalf("load saved run: %v", err)
	}
	if run.Source != "api" || run.FileCount != 1 {
		t.Fatalf("saved run = %+v", run)
	}
}

func TestAnalyzeEndpoint_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	for name, body := range map[string]string{
		"bad json":     "{",
		"no files":     `{"files": []}`,
		"missing path": `{"files": [{"content": "x = 1"}]}`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/analyze", bytes.NewReader([]byte(body))))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", name, rec.Code)
		}
	}
}

func TestRulesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/rules", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("rules = %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
		Items []struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 4 {
		t.Fatalf("count = %d, want 4", resp.Count)
	}
}

func TestSuppressionsRequireAdmin(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()

	body := `{"rule_id":"code-smell","reason":"generated","expires_at":"2030-01-01T00:00:00Z"}`

	// No session at all.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/suppressions", bytes.NewReader([]byte(body))))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d, want 401", rec.Code)
	}

	// Viewer session is authenticated but not authorized.
	viewer := loginAs(t, db, h, "bob", "viewer")
	req := httptest.NewRequest("POST", "/api/v1/suppressions", bytes.NewReader([]byte(body)))
	req.AddCookie(viewer)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer = %d, want 403", rec.Code)
	}

	// Admin can create, then list shows it.
	admin := loginAs(t, db, h, "alice", "admin")
	req = httptest.NewRequest("POST", "/api/v1/suppressions", bytes.NewReader([]byte(body)))
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create = %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest("GET", "/api/v1/suppressions?active=1", nil)
	req.AddCookie(admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var list struct {
		Items []storage.Suppression `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].RuleID != "code-smell" {
		t.Fatalf("items = %+v", list.Items)
	}
}

func TestRunsEndpoints(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()

	run := &ir.Run{
		ID:        "run_1",
		StartedAt: time.Now().UTC(),
		Source:    "cli",
		IRVersion: ir.Version,
		FileCount: 1,
		Results: []ir.RuleResult{
			{RuleID: "code-smell", Severity: ir.SeverityInfo, Message: "Magic number 7; consider a named constant", Filepath: "x.py", Line: 1},
		},
	}
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/runs/run_1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get run = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/runs/run_1/results?min_severity=warning", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("results = %d", rec.Code)
	}
	var resp struct {
		Items []ir.RuleResult `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("info finding above warning threshold: %+v", resp.Items)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run = %d, want 404", rec.Code)
	}
}
