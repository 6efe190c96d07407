package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/zachittx/inoutboard/internal/kv"
	"github.com/zachittx/inoutboard/internal/roster"
	"github.com/zachittx/inoutboard/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore implements store.Store and store.ThemeStore for testing.
type mockStore struct {
	mu      sync.Mutex
	records []roster.Record
	theme   roster.Theme
	err     error
	next    int
	subs    map[int]func([]roster.Record)
}

func newMockStore() *mockStore {
	return &mockStore{
		theme: roster.ThemeDark,
		subs:  make(map[int]func([]roster.Record)),
	}
}

func (m *mockStore) Initialize(_ context.Context, defaults []roster.Record) ([]roster.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.records == nil {
		m.records = roster.CopyRecords(defaults)
	}
	return roster.CopyRecords(m.records), nil
}

func (m *mockStore) Subscribe(fn func([]roster.Record)) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *mockStore) SetStatus(_ context.Context, id string, status roster.Status) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	i := roster.IndexOf(m.records, id)
	if i < 0 {
		m.mu.Unlock()
		return nil
	}
	m.records[i].Status = status
	m.records[i].UpdatedAt++
	snapshot := roster.CopyRecords(m.records)
	fns := make([]func([]roster.Record), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(roster.CopyRecords(snapshot))
	}
	return nil
}

func (m *mockStore) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *mockStore) Theme(context.Context) (roster.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme, m.err
}

func (m *mockStore) SetTheme(_ context.Context, t roster.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = t
	return m.err
}

func (m *mockStore) ApplyOverride(ctx context.Context, param string) (roster.Theme, error) {
	if t, ok := roster.ParseTheme(param); ok {
		return t, m.SetTheme(ctx, t)
	}
	return m.Theme(ctx)
}

var testRoster = Roster{
	Defaults: []roster.Record{
		{ID: "a", Name: "Ada", Status: roster.StatusIn},
		{ID: "b", Name: "Bob", Status: roster.StatusOut},
		{ID: "c", Name: "Cy", Status: roster.StatusOut},
	},
	Groups: []roster.Group{
		{Key: "x", Title: "X", Members: []string{"a", "b"}},
		{Key: "y", Title: "Y", Members: []string{"c"}},
	},
}

var testAssets = fstest.MapFS{
	"assets/display.html": {Data: []byte(`<html data-theme="{{.Theme}}"><title>{{.Title}}</title>display</html>`)},
	"assets/kiosk.html":   {Data: []byte(`<html data-theme="{{.Theme}}"><title>{{.Title}}</title>kiosk</html>`)},
}

func newTestServer(ms *mockStore) *Server {
	return NewServer(ms, ms, testRoster, 0, testAssets, "", testLogger())
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// --- Views ---

func TestHandleRoot_Redirect(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
	}{
		{"no hint opens display", "/", nil, "/display"},
		{"narrow client hint opens kiosk", "/", map[string]string{"Sec-CH-Viewport-Width": "800"}, "/kiosk"},
		{"wide client hint opens display", "/", map[string]string{"Sec-CH-Viewport-Width": "1920"}, "/display"},
		{"legacy hint", "/", map[string]string{"Viewport-Width": "600"}, "/kiosk"},
		{"query just below threshold", "/?vw=1023", nil, "/kiosk"},
		{"query at threshold", "/?vw=1024", nil, "/display"},
		{"unparsable width ignored", "/?vw=wide", nil, "/display"},
		{"theme carried over", "/?vw=500&theme=light", nil, "/kiosk?theme=light"},
	}

	srv := newTestServer(newMockStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := serve(srv, req)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
			}
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Errorf("Location = %q, want %q", got, tt.want)
			}
			if rec.Header().Get("Accept-CH") == "" {
				t.Error("Accept-CH header missing")
			}
		})
	}
}

func TestHandleView_RendersTitleAndTheme(t *testing.T) {
	ms := newMockStore()
	srv := NewServer(ms, ms, testRoster, 0, testAssets, `<script>x</script>`, testLogger())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/display", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("title not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("escaped title missing: %s", body)
	}
	if !strings.Contains(body, `data-theme="dark"`) {
		t.Errorf("theme not rendered: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleView_ThemeOverride(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   roster.Theme
	}{
		{"light persists", "/kiosk?theme=light", roster.ThemeLight},
		{"invalid ignored", "/kiosk?theme=blue", roster.ThemeDark},
		{"absent keeps stored", "/kiosk", roster.ThemeDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMockStore()
			srv := newTestServer(ms)

			rec := serve(srv, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if !strings.Contains(rec.Body.String(), `data-theme="`+string(tt.want)+`"`) {
				t.Errorf("body = %s, want theme %s", rec.Body.String(), tt.want)
			}
			if got, _ := ms.Theme(context.Background()); got != tt.want {
				t.Errorf("stored theme = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandler_NoAssetsSkipsViews(t *testing.T) {
	ms := newMockStore()
	srv := NewServer(ms, ms, testRoster, 0, nil, "", testLogger())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/display", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- API ---

func TestHandleRecords(t *testing.T) {
	srv := newTestServer(newMockStore())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var records []roster.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(records) != 3 || records[0].ID != "a" {
		t.Errorf("records = %+v", records)
	}
}

func TestHandleRecords_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.err = errors.New("backend down")
	srv := newTestServer(ms)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleBoard(t *testing.T) {
	srv := newTestServer(newMockStore())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/board", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var board boardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if board.In != 1 || board.Total != 3 {
		t.Errorf("board in/total = %d/%d, want 1/3", board.In, board.Total)
	}
	if len(board.Groups) != 2 || board.Groups[0].Key != "x" || board.Groups[0].In != 1 || board.Groups[0].Total != 2 {
		t.Errorf("groups = %+v", board.Groups)
	}
	if board.Title != defaultTitle {
		t.Errorf("title = %q", board.Title)
	}
}

func TestHandleSetStatus(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode int
	}{
		{"sets in", http.MethodPost, "/api/records/b/status", `{"status":"in"}`, http.StatusNoContent},
		{"unknown id ignored", http.MethodPost, "/api/records/zzz/status", `{"status":"in"}`, http.StatusNoContent},
		{"invalid status", http.MethodPost, "/api/records/b/status", `{"status":"away"}`, http.StatusBadRequest},
		{"status not a string", http.MethodPost, "/api/records/b/status", `{"status":1}`, http.StatusBadRequest},
		{"missing status", http.MethodPost, "/api/records/b/status", `{}`, http.StatusBadRequest},
		{"malformed JSON", http.MethodPost, "/api/records/b/status", `{"status":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/records/b/status", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := newMockStore()
			_, _ = ms.Initialize(context.Background(), testRoster.Defaults)
			srv := newTestServer(ms)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := serve(srv, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestHandleSetStatus_UpdatesStore(t *testing.T) {
	ms := newMockStore()
	_, _ = ms.Initialize(context.Background(), testRoster.Defaults)
	srv := newTestServer(ms)

	req := httptest.NewRequest(http.MethodPost, "/api/records/b/status", strings.NewReader(`{"status":"in"}`))
	serve(srv, req)

	records, _ := ms.Initialize(context.Background(), nil)
	if records[1].Status != roster.StatusIn {
		t.Errorf("b.Status = %q, want in", records[1].Status)
	}
}

func TestHandleSetStatus_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.err = errors.New("backend down")
	srv := newTestServer(ms)

	req := httptest.NewRequest(http.MethodPost, "/api/records/a/status", strings.NewReader(`{"status":"out"}`))
	rec := serve(srv, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleTheme(t *testing.T) {
	ms := newMockStore()
	srv := newTestServer(ms)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/theme", nil))
	if !strings.Contains(rec.Body.String(), `"theme":"dark"`) {
		t.Errorf("GET /api/theme = %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest(http.MethodPut, "/api/theme", strings.NewReader(`{"theme":"light"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if got, _ := ms.Theme(context.Background()); got != roster.ThemeLight {
		t.Errorf("stored theme = %q, want light", got)
	}

	rec = serve(srv, httptest.NewRequest(http.MethodPut, "/api/theme", strings.NewReader(`{"theme":"sepia"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("PUT sepia status = %d, want 400", rec.Code)
	}
}

// --- SSE ---

// sseEvents extracts the data payloads of an SSE body.
func sseEvents(body string) []string {
	var events []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

func TestHandleSSE_InitialBoard(t *testing.T) {
	srv := newTestServer(newMockStore())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := sseEvents(rec.Body.String())
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1: %s", len(events), rec.Body.String())
	}

	var board boardResponse
	if err := json.Unmarshal([]byte(events[0]), &board); err != nil {
		t.Fatalf("failed to parse JSON: %v, data: %s", err, events[0])
	}
	if board.Total != 3 || board.In != 1 {
		t.Errorf("board = %+v", board)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	ms := newMockStore()
	srv := newTestServer(ms)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	if err := ms.SetStatus(context.Background(), "c", roster.StatusIn); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	// give time for update to be written
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	events := sseEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2: %s", len(events), rec.Body.String())
	}
	var board boardResponse
	if err := json.Unmarshal([]byte(events[1]), &board); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if board.In != 2 {
		t.Errorf("streamed board in = %d, want 2", board.In)
	}
}

func TestHandleSSE_UnsubscribesOnExit(t *testing.T) {
	ms := newMockStore()
	srv := newTestServer(ms)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		srv.handleSSE(httptest.NewRecorder(), req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if n := ms.subscribers(); n != 1 {
		t.Errorf("subscribers while connected = %d, want 1", n)
	}

	cancel()
	<-done

	if n := ms.subscribers(); n != 0 {
		t.Errorf("subscribers after disconnect = %d, want 0", n)
	}
}

func TestHandleSSE_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.err = errors.New("backend down")
	srv := newTestServer(ms)

	rec := httptest.NewRecorder()
	srv.handleSSE(rec, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ms.subscribers() != 0 {
		t.Error("subscription leaked after error")
	}
}

func TestHandleSSE_ServerShutdown(t *testing.T) {
	srv := newTestServer(newMockStore())

	// when calling handleSSE directly the request context stands in for
	// the BaseContext derived one
	serverCtx, serverCancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	serverCancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after server shutdown")
	}
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	// allow existing goroutines to settle
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	srv := newTestServer(newMockStore())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 { // small tolerance for runtime variance
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	srv := newTestServer(newMockStore())
	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	started := make(chan struct{})
	var startedCount atomic.Int32

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)

			// use Add's return value to ensure only one goroutine closes the channel
			if startedCount.Add(1) == int32(numClients) {
				close(started)
			}
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
	}

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	ms := newMockStore()
	srv := newTestServer(ms)

	w := &nonFlushWriter{header: make(http.Header)}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
	}
	if ms.subscribers() != 0 {
		t.Error("subscribed without flush support")
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := newTestServer(newMockStore())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

// TestHandleSSE_RemoteChange runs the handler over a real shared store
// and changes a record from a second context on the same backend.
func TestHandleSSE_RemoteChange(t *testing.T) {
	m := kv.NewMemory()
	newShared := func() *store.SharedStore {
		s, err := store.NewShared(store.Config{Backend: m, Notifier: m, Logger: testLogger()})
		if err != nil {
			t.Fatalf("NewShared() error = %v", err)
		}
		return s
	}
	local := newShared()
	remote := newShared()
	prefs, err := store.NewPreferences(store.Config{Backend: m, Notifier: m}, local.Origin())
	if err != nil {
		t.Fatalf("NewPreferences() error = %v", err)
	}

	srv := NewServer(local, prefs, testRoster, 0, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := remote.SetStatus(context.Background(), "c", roster.StatusIn); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	events := sseEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2: %s", len(events), rec.Body.String())
	}
	var board boardResponse
	if err := json.Unmarshal([]byte(events[1]), &board); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if board.Groups[1].In != 1 {
		t.Errorf("group y in = %d, want 1", board.Groups[1].In)
	}
}

// --- Integration tests for shutdown behavior ---
//
// These use httptest.Server for real connections, which support write
// deadlines unlike the recorder.

func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	srv := newTestServer(newMockStore())
	serverCtx, serverCancel := context.WithCancel(context.Background())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// derive request context from server context (simulates BaseContext)
		srv.handleSSE(w, r.WithContext(serverCtx))
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()

		// read until connection closes
		buf := make([]byte, 1024)
		for {
			if _, err := resp.Body.Read(buf); err != nil {
				connDone <- nil
				return
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	ms := newMockStore()
	// port 0 = OS assigns available port
	srv := newTestServer(ms)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Errorf("Start() on available port returned error: %v", err)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	// occupy a port
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	ms := newMockStore()
	srv := NewServer(ms, ms, testRoster, port, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

// --- Benchmark ---

func BenchmarkHandleBoard(b *testing.B) {
	srv := newTestServer(newMockStore())
	h := srv.Handler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/board", nil))
	}
}
