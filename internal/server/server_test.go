package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/lecturedoc/internal/cache"
	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/config"
	"github.com/ziadkadry99/lecturedoc/internal/db"
	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/source"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

type fakeFetcher struct {
	mu  sync.Mutex
	doc string
	err error
}

func (f *fakeFetcher) Location() string { return "fake" }

func (f *fakeFetcher) set(doc string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc, f.err = doc, err
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*source.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return source.Decode([]byte(f.doc), source.Options{
		Encoding: config.EncodingPlain,
		Names:    map[string]string{"1": "Algebra", "2": "Analysis"},
	})
}

type fakeIndex struct {
	synced []string
}

func (f *fakeIndex) Search(_ context.Context, query string, _ int, lectureID string) ([]search.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}
	return []search.Hit{{LectureID: "1", SectionKey: "a", Heading: query, Anchor: "a"}}, nil
}

func (f *fakeIndex) Sync(_ context.Context, _ *catalog.Catalog, fingerprint string, _ progress.Reporter) (bool, error) {
	f.synced = append(f.synced, fingerprint)
	return true, nil
}

const testDoc = `{"1":{"a":"# Sets\nA set is a collection.","b":"# Relations"},"2":{"c":"# Limits"}}`

func setupServer(t *testing.T, f *fakeFetcher, index Index) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.NewStore(database, map[string]string{"1": "Algebra", "2": "Analysis"})
	v := viewer.New(f, store, render.NewRenderer(config.DefaultSectionLink), logger)
	return New(Config{Port: 0}, v, index, logger)
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	v := viewer.New(&fakeFetcher{doc: testDoc}, cache.NewStore(database, nil), render.NewRenderer(""), nil)
	srv := New(Config{Port: 0, AllowAll: true}, v, nil, nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestIndexRedirectsToFirstLecture(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/", "")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/lectures/1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestLecturePage(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/lectures/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q", got)
	}
	body := w.Body.String()
	for _, want := range []string{
		`<h2 class="post-title">Algebra</h2>`,
		`<p class="section-count">2 sections</p>`,
		`1. Sets`,
		`href="/lectures/2"`,
		`tuwel.tuwien.ac.at/mod/opencast/view.php?id=1&amp;e=a`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	w = do(t, srv, "GET", "/lectures/1?expanded=none", "")
	if got := w.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q", got)
	}
	if strings.Contains(w.Body.String(), "subsections") {
		t.Error("collapsed sidebar should not list sections")
	}
}

func TestUnknownLecture(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/lectures/404", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error loading data") {
		t.Error("expected error article")
	}
}

func TestFetchFailureShowsError(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{err: source.ErrFetch}, nil)

	w := do(t, srv, "GET", "/lectures/1", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<div class="error">`) || !strings.Contains(body, "fetch failed") {
		t.Errorf("unexpected body:\n%s", body)
	}
}

func TestLecturesAPI(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/api/lectures?selected=2&expanded=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp lecturesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Lectures) != 2 || resp.Fingerprint == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.Lectures[1].Active || len(resp.Lectures[1].Sections) != 1 {
		t.Errorf("lecture 2 should be active and expanded: %+v", resp.Lectures[1])
	}
	if len(resp.Lectures[0].Sections) != 0 {
		t.Errorf("lecture 1 should be collapsed: %+v", resp.Lectures[0])
	}
}

func TestArticleAPI(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)

	w := do(t, srv, "GET", "/api/lectures/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), `<div class="fade-in">`) {
		t.Errorf("expected article fragment, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "section-count") {
		t.Error("single section lecture should not show a count")
	}
	if w.Header().Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q", w.Header().Get("X-Cache"))
	}
}

func TestCacheEndpoints(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)
	do(t, srv, "GET", "/api/lectures/1", "")
	do(t, srv, "GET", "/api/lectures/2", "")

	w := do(t, srv, "GET", "/api/cache", "")
	var st cache.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Pages != 2 || st.Lectures != 2 {
		t.Errorf("stats = %+v", st)
	}

	w = do(t, srv, "DELETE", "/api/cache", "")
	var cleared map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cleared["cleared"] != 2 {
		t.Errorf("cleared = %v", cleared)
	}

	w = do(t, srv, "GET", "/api/lectures/1", "")
	if w.Header().Get("X-Cache") != "miss" {
		t.Error("cleared cache should miss")
	}
}

func TestSearchAPI(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)
	w := do(t, srv, "POST", "/api/search", `{"query":"sets"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without index, got %d", w.Code)
	}

	srv = setupServer(t, &fakeFetcher{doc: testDoc}, &fakeIndex{})
	w = do(t, srv, "POST", "/api/search", `{"query":"sets"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Heading != "sets" {
		t.Errorf("results = %+v", resp.Results)
	}

	if w := do(t, srv, "POST", "/api/search", `{"query":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty query: expected 400, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/search", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", w.Code)
	}
}

func TestRefreshBroadcastsChange(t *testing.T) {
	f := &fakeFetcher{doc: testDoc}
	index := &fakeIndex{}
	srv := setupServer(t, f, index)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Load the first version.
	resp, err := http.Get(ts.URL + "/api/lectures")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	f.set(`{"1":{"a":"# Sets, revised"}}`, nil)
	resp, err = http.Post(ts.URL+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	var rr refreshResponse
	json.NewDecoder(resp.Body).Decode(&rr)
	resp.Body.Close()
	if !rr.Changed {
		t.Fatal("expected change")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != EventChanged || ev.Fingerprint != rr.Fingerprint {
		t.Errorf("event = %+v", ev)
	}
	if len(index.synced) != 1 || index.synced[0] != rr.Fingerprint {
		t.Errorf("search index not synced: %v", index.synced)
	}

	// A second refresh without changes reports nothing new.
	resp, err = http.Post(ts.URL+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&rr)
	resp.Body.Close()
	if rr.Changed {
		t.Error("unchanged refresh reported a change")
	}
}

func TestPollerBroadcastsChange(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	f := &fakeFetcher{doc: testDoc}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := viewer.New(f, cache.NewStore(database, nil), render.NewRenderer(""), logger)
	srv := New(Config{PollInterval: 20 * time.Millisecond}, v, nil, logger)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := v.Snapshot()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Failed polls leave the displayed catalog alone.
	f.set("", source.ErrFetch)
	srv.startPolling()
	defer srv.Shutdown(context.Background())

	time.Sleep(100 * time.Millisecond)
	if v.Snapshot() != before {
		t.Fatal("failed poll replaced the displayed catalog")
	}
	if w := do(t, srv, "GET", "/lectures/1", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after failed poll, got %d", w.Code)
	}

	f.set(`{"1":{"a":"# Sets, revised"}}`, nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != EventChanged {
		t.Errorf("event = %+v", ev)
	}
	if ev.Fingerprint == before.Fingerprint || ev.Fingerprint != v.Snapshot().Fingerprint {
		t.Errorf("event fingerprint %q, before %q, now %q", ev.Fingerprint, before.Fingerprint, v.Snapshot().Fingerprint)
	}
}

func TestStylesheet(t *testing.T) {
	srv := setupServer(t, &fakeFetcher{doc: testDoc}, nil)
	w := do(t, srv, "GET", "/style.css", "")
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/css") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
}
