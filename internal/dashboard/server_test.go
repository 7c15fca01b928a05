package dashboard

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyeh/denial-dash/internal/kpi"
	"github.com/gyeh/denial-dash/internal/ledger"
	"github.com/gyeh/denial-dash/internal/output"
)

var testNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, logoPath string) *Server {
	t.Helper()
	if logoPath == "" {
		logoPath = filepath.Join(t.TempDir(), "missing.png")
	}
	return New(Options{
		Seed:       42,
		LogoPath:   logoPath,
		SessionTTL: time.Minute,
		Now:        func() time.Time { return testNow },
	})
}

func get(t *testing.T, s *Server, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func fetchSummary(t *testing.T, s *Server, rawQuery string) kpi.Summary {
	t.Helper()
	resp := get(t, s, "/api/kpis?"+rawQuery)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/kpis?%s: status %d: %s", rawQuery, resp.StatusCode, readBody(t, resp))
	}
	var body output.Report
	if err := json.Unmarshal(readBody(t, resp), &body); err != nil {
		t.Fatal(err)
	}
	return body.Summary
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	resp := get(t, s, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp)), `"ok"`) {
		t.Error("expected ok status")
	}
}

func TestDashboardPage_FallbackHeading(t *testing.T) {
	s := newTestServer(t, "")
	resp := get(t, s, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
	body := string(readBody(t, resp))
	for _, want := range []string{FallbackHeading, "Logo not found", "Total Denial Amount", "Summary Insights", "Raw Data (preview)", "/export/csv?"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `src="/logo"`) {
		t.Error("logo image should not be rendered when missing")
	}
	if sessionCookie(resp) == nil {
		t.Error("expected a session cookie")
	}
}

func TestDashboardPage_BrokenLogo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, path)
	body := string(readBody(t, get(t, s, "/")))
	if !strings.Contains(body, FallbackHeading) || !strings.Contains(body, "Logo failed to load") {
		t.Error("expected fallback heading with inline error")
	}
}

func TestDashboardPage_PreviewCapped(t *testing.T) {
	s := newTestServer(t, "")
	body := string(readBody(t, get(t, s, "/?range=Last+12+Months")))
	if !strings.Contains(body, "200 of 360 rows") {
		t.Error("expected preview capped at 200 of 360 rows")
	}
}

func TestLogo(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, path)
	resp := get(t, s, "/logo")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png logo, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if body := string(readBody(t, get(t, s, "/"))); !strings.Contains(body, `src="/logo"`) {
		t.Error("expected logo image on page")
	}

	missing := newTestServer(t, "")
	if resp := get(t, missing, "/logo"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing logo, got %d", resp.StatusCode)
	}
}

func TestSessions_CookieReuse(t *testing.T) {
	s := newTestServer(t, "")
	first := get(t, s, "/api/kpis")
	c := sessionCookie(first)
	if c == nil {
		t.Fatal("no session cookie")
	}

	second := get(t, s, "/api/kpis", c)
	if got := sessionCookie(second); got == nil || got.Value != c.Value {
		t.Error("expected the same session to be reused")
	}
	if s.Sessions().Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Sessions().Len())
	}

	get(t, s, "/api/kpis")
	if s.Sessions().Len() != 2 {
		t.Errorf("expected a second visitor to get a new session, got %d", s.Sessions().Len())
	}
}

func TestSessions_Isolated(t *testing.T) {
	s := newTestServer(t, "")
	a, _ := s.Sessions().Get("")
	b, _ := s.Sessions().Get("")
	if a.ID == b.ID {
		t.Fatal("expected distinct session IDs")
	}
	a.Records[0].Amount = -1
	if b.Records[0].Amount == -1 {
		t.Error("sessions share ledger storage")
	}
}

func TestSessions_Expiry(t *testing.T) {
	now := testNow
	store := NewSessionStore(42, time.Minute, func() time.Time { return now })

	sess, created := store.Get("")
	if !created {
		t.Fatal("expected a new session")
	}
	if again, created := store.Get(sess.ID); created || again.ID != sess.ID {
		t.Error("expected live session to be reused")
	}

	now = now.Add(2 * time.Minute)
	if n := store.Sweep(); n != 1 {
		t.Errorf("expected 1 eviction, got %d", n)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}

	if renewed, created := store.Get(sess.ID); !created || renewed.ID == sess.ID {
		t.Error("expected expired ID to yield a new session")
	}
}

func TestKPIs_Filters(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		query string
		rows  int
	}{
		{"", 7 * 30},
		{"range=Last+3+Months", 4 * 30},
		{"range=Last+12+Months", 12 * 30},
		{"range=Last+12+Months&payer=Aetna", 12 * 5},
		{"range=Last+12+Months&type=Eligibility&type=Timely+Filing", 12 * 6 * 2},
		{"range=Last+12+Months&type=All&type=Eligibility", 12 * 30},
		{"range=Last+12+Months&type=", 0},
	}
	for _, tt := range tests {
		if got := fetchSummary(t, s, tt.query).Rows; got != tt.rows {
			t.Errorf("%q: expected %d rows, got %d", tt.query, tt.rows, got)
		}
	}
}

func TestKPIs_EmptySelection(t *testing.T) {
	s := newTestServer(t, "")
	sum := fetchSummary(t, s, "type=")
	if sum.TotalAmount != 0 || sum.AvgDaysToPay != 0 || sum.CleanClaimRate != 1 {
		t.Errorf("unexpected empty summary: %+v", sum)
	}
}

func TestBadParams(t *testing.T) {
	s := newTestServer(t, "")
	for _, target := range []string{
		"/api/kpis?range=Last+2+Weeks",
		"/api/kpis?payer=Kaiser",
		"/api/kpis?type=Typo",
		"/?range=bogus",
		"/export/csv?payer=Kaiser",
		"/api/charts/by-type?type=Typo",
	} {
		if resp := get(t, s, target); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}

func TestChartData(t *testing.T) {
	s := newTestServer(t, "")
	resp := get(t, s, "/api/charts/by-type")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body chartResponse
	if err := json.Unmarshal(readBody(t, resp), &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != "by-type" || len(body.Labels) != 5 || len(body.Values) != 5 {
		t.Errorf("unexpected chart data: %+v", body)
	}
	for i := 1; i < len(body.Values); i++ {
		if body.Values[i] > body.Values[i-1] {
			t.Error("expected by-type values in descending order")
		}
	}

	if resp := get(t, s, "/api/charts/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chart, got %d", resp.StatusCode)
	}
}

func TestChartPNG(t *testing.T) {
	s := newTestServer(t, "")
	resp := get(t, s, "/charts/trend.png")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(bytes.NewReader(readBody(t, resp))); err != nil {
		t.Errorf("invalid png: %v", err)
	}

	if resp := get(t, s, "/charts/trend.png?type="); resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for empty view, got %d", resp.StatusCode)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		path     string
		mime     string
		filename string
		prefix   string
	}{
		{"/export/csv", "text/csv", "elica_denials.csv", "Date,Month,Payer"},
		{"/export/xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "elica_denials.xlsx", "PK"},
		{"/export/excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "elica_denials.xlsx", "PK"},
		{"/export/pdf", "application/pdf", "elica_denial_snapshot.pdf", "%PDF"},
		{"/export/pdf?charts=1", "application/pdf", "elica_denial_snapshot.pdf", "%PDF"},
		{"/export/parquet", "application/vnd.apache.parquet", "elica_denials.parquet", "PAR1"},
		{"/export/csv?gzip=1", "application/gzip", "elica_denials.csv.gz", "\x1f\x8b"},
	}
	for _, tt := range tests {
		resp := get(t, s, tt.path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.path, resp.StatusCode)
			continue
		}
		if got := resp.Header.Get("Content-Type"); got != tt.mime {
			t.Errorf("%s: content type %q, want %q", tt.path, got, tt.mime)
		}
		if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
			t.Errorf("%s: disposition %q, want %q", tt.path, got, tt.filename)
		}
		if body := readBody(t, resp); !bytes.HasPrefix(body, []byte(tt.prefix)) {
			t.Errorf("%s: body does not start with %q", tt.path, tt.prefix)
		}
	}

	if resp := get(t, s, "/export/docx"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown format, got %d", resp.StatusCode)
	}
}

func TestExport_CSVMatchesFilter(t *testing.T) {
	s := newTestServer(t, "")
	q := url.Values{"payer": {"Cigna"}, "range": {"Last 3 Months"}, "type": {"Bundling/Policy"}}
	body := string(readBody(t, get(t, s, "/export/csv?"+q.Encode())))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 1+4 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	for _, line := range lines[1:] {
		if !strings.Contains(line, ",Cigna,Bundling/Policy,") {
			t.Errorf("row outside filter: %s", line)
		}
	}
}

func TestOptions(t *testing.T) {
	s := newTestServer(t, "")
	body := string(readBody(t, get(t, s, "/api/options")))
	for _, want := range []string{`"All"`, `"Aetna"`, `"Last 6 Months"`, `"Timely Filing"`} {
		if !strings.Contains(body, want) {
			t.Errorf("options missing %s", want)
		}
	}
}

func TestZeroSeed(t *testing.T) {
	s := New(Options{
		Seed:     0,
		LogoPath: filepath.Join(t.TempDir(), "missing.png"),
		Now:      func() time.Time { return testNow },
	})
	cookie := sessionCookie(get(t, s, "/api/kpis"))
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}
	sess, created := s.Sessions().Get(cookie.Value)
	if created {
		t.Fatal("expected the cookie's session to be reused")
	}
	want := ledger.Generate(0, testNow)
	if len(sess.Records) != len(want) || sess.Records[0] != want[0] || sess.Records[len(want)-1] != want[len(want)-1] {
		t.Error("expected the session ledger to be generated with seed 0")
	}
}
