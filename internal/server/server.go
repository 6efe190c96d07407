package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"

	"github.com/zachittx/inoutboard/internal/roster"
	"github.com/zachittx/inoutboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 4 << 10

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "In/Out Board"

	// titlePlaceholder and themePlaceholder are replaced in the view HTML.
	titlePlaceholder = "{{.Title}}"
	themePlaceholder = "{{.Theme}}"

	// kioskMaxWidth is the viewport width below which / opens the kiosk.
	kioskMaxWidth = 1024
)

// view files inside the assets filesystem.
const (
	displayAsset = "assets/display.html"
	kioskAsset   = "assets/kiosk.html"
)

// Roster is the static board configuration the handlers render.
type Roster struct {
	// Defaults seeds and reconciles the persisted record list.
	Defaults []roster.Record

	// Groups orders and titles the display.
	Groups []roster.Group
}

// Server handles HTTP requests for the board views and API.
//
// Routes:
//   - GET /: redirects to /display or /kiosk by viewport width
//   - GET /display, GET /kiosk: the embedded views (?theme= overrides)
//   - GET /api/records: the reconciled record list
//   - GET /api/board: the grouped projection
//   - POST /api/records/{id}/status: sets one record's status
//   - GET /api/theme, PUT /api/theme: the theme preference
//   - GET /api/sse: Server-Sent Events stream of board snapshots
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	themes     store.ThemeStore
	roster     Roster
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: record store shared with other views
//   - themes: theme preference store
//   - r: default records and groups
//   - port: TCP port to listen on
//   - assets: embedded filesystem containing the views (may be nil)
//   - title: board title (defaults to "In/Out Board" if empty)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, themes store.ThemeStore, r Roster, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if title == "" {
		title = defaultTitle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		themes: themes,
		roster: r,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
}

// Handler returns the router serving every route.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}/status", s.handleSetStatus).Methods(http.MethodPost)
	api.HandleFunc("/board", s.handleBoard).Methods(http.MethodGet)
	api.HandleFunc("/theme", s.handleGetTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme", s.handlePutTheme).Methods(http.MethodPut)
	api.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)

	if s.assets != nil {
		r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
		r.HandleFunc("/display", s.handleView(displayAsset)).Methods(http.MethodGet)
		r.HandleFunc("/kiosk", s.handleView(kioskAsset)).Methods(http.MethodGet)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Debug("http server listening", "addr", ln.Addr().String())
	return nil
}

// handleRoot sends narrow viewports to the kiosk and everything else,
// including clients that report no width, to the display.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Accept-CH", "Sec-CH-Viewport-Width, Viewport-Width")
	w.Header().Add("Vary", "Sec-CH-Viewport-Width, Viewport-Width")

	target := "/display"
	if width, ok := viewportWidth(r); ok && width < kioskMaxWidth {
		target = "/kiosk"
	}
	if theme := r.URL.Query().Get("theme"); theme != "" {
		target += "?theme=" + url.QueryEscape(theme)
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// viewportWidth reads the width from client hints or the vw parameter.
func viewportWidth(r *http.Request) (float64, bool) {
	candidates := []string{
		r.Header.Get("Sec-CH-Viewport-Width"),
		r.Header.Get("Viewport-Width"),
		r.URL.Query().Get("vw"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil && v > 0 {
			return v, true
		}
	}
	return 0, false
}

// handleView serves one of the embedded pages, applying any ?theme=
// override before rendering.
func (s *Server) handleView(asset string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(s.assets, asset)
		if err != nil {
			http.Error(w, "View not found", http.StatusInternalServerError)
			return
		}

		theme, err := s.themes.ApplyOverride(r.Context(), r.URL.Query().Get("theme"))
		if err != nil {
			s.logger.Error("failed to resolve theme", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// title is user supplied; escape to prevent XSS
		rendered := strings.NewReplacer(
			titlePlaceholder, html.EscapeString(s.title),
			themePlaceholder, string(theme),
		).Replace(string(content))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := io.WriteString(w, rendered); err != nil {
			s.logger.Error("failed to write view response", "error", err)
		}
	}
}

// boardResponse is the grouped board sent by /api/board and /api/sse.
type boardResponse struct {
	Title  string             `json:"title"`
	In     int                `json:"in"`
	Total  int                `json:"total"`
	Groups []roster.GroupView `json:"groups"`
}

func (s *Server) board(records []roster.Record) boardResponse {
	groups := roster.Project(records, s.roster.Groups)
	resp := boardResponse{Title: s.title, Groups: groups}
	for _, g := range groups {
		resp.In += g.In
		resp.Total += g.Total
	}
	return resp
}

// handleRecords returns the reconciled record list.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Initialize(r.Context(), s.roster.Defaults)
	if err != nil {
		s.logger.Error("failed to load records", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleBoard returns the grouped projection.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Initialize(r.Context(), s.roster.Defaults)
	if err != nil {
		s.logger.Error("failed to load records", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, s.board(records))
}

// handleSetStatus applies {"status":"in"|"out"} to the record in the path.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	field, err := readField(w, r, "status")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status, err := roster.ParseStatus(field)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.SetStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, roster.ErrInvalidStatus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("failed to set status", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("status set", "id", id, "status", status)
	w.WriteHeader(http.StatusNoContent)
}

type themeResponse struct {
	Theme roster.Theme `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.themes.Theme(r.Context())
	if err != nil {
		s.logger.Error("failed to read theme", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// handlePutTheme persists {"theme":"dark"|"light"}.
func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	field, err := readField(w, r, "theme")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	theme, ok := roster.ParseTheme(field)
	if !ok {
		http.Error(w, fmt.Sprintf("theme must be %q or %q", roster.ThemeDark, roster.ThemeLight), http.StatusBadRequest)
		return
	}

	if err := s.themes.SetTheme(r.Context(), theme); err != nil {
		s.logger.Error("failed to set theme", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// readField reads a small JSON object body and returns one string field.
func readField(w http.ResponseWriter, r *http.Request, name string) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("body must be a JSON object")
	}

	result := gjson.GetBytes(body, name)
	if result.Type != gjson.String {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return result.String(), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams board snapshots via Server-Sent Events: one on
// connect, then one per change, whether made through this server or
// by another context sharing the store.
//
// Write deadlines keep slow or disconnected clients from pinning the
// handler goroutine.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	sendBoard := func(records []roster.Record) error {
		data, err := json.Marshal(s.board(records))
		if err != nil {
			s.logger.Error("failed to encode board", "error", err)
			return nil
		}
		return writeAndFlush(data)
	}

	// subscribe before loading so no change slips between the two
	updates := make(chan []roster.Record, 1)
	unsubscribe := s.store.Subscribe(func(records []roster.Record) {
		select {
		case updates <- records:
		default:
			// replace the unsent snapshot with the newer one
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- records:
			default:
			}
		}
	})
	defer unsubscribe()

	records, err := s.store.Initialize(r.Context(), s.roster.Defaults)
	if err != nil {
		s.logger.Error("failed to load records", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if err := sendBoard(records); err != nil {
		return
	}

	for {
		select {
		case records := <-updates:
			if err := sendBoard(records); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
