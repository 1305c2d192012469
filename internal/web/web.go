package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"weekplan/internal/config"
	"weekplan/internal/grid"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/planner"
	"weekplan/internal/store"
)

// Server provides the planner HTTP API and the embedded day-grid UI. The
// same /api/layout payload feeds both the interactive screen surface and
// the paginated export capture, which is what keeps the two in agreement.
type Server struct {
	cfg   *config.Config
	st    *store.Store
	pl    *planner.Planner
	loc   *time.Location
	debug bool
	mux   *http.ServeMux

	// In-memory cache for /api/layout responses, keyed by query window, to
	// avoid redundant fetch/parse/expand work on every request.
	layoutMu    sync.RWMutex
	layoutCache map[string]*layoutCacheEntry
}

// embeddedStatic contains the static day-grid UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a Server. st may be nil when no local database is
// configured; personal-event endpoints then report 503.
func NewServer(cfg *config.Config, st *store.Store, debug bool) *Server {
	pl := planner.New(cfg, st, debug)
	s := &Server{
		cfg:         cfg,
		st:          st,
		pl:          pl,
		loc:         pl.Location(),
		debug:       debug,
		mux:         http.NewServeMux(),
		layoutCache: make(map[string]*layoutCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekplan", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
	s.mux.HandleFunc("/api/personal", s.handlePersonal)

	// Static day-grid UI; all non-/api/* paths fall back to this handler.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded day-grid page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API misses must 404 as API, never as HTML.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// layoutResponse is the JSON response shape for /api/layout.
type layoutResponse struct {
	Days        []dayLayoutDTO  `json:"days"`
	Diagnostics []diagnosticDTO `json:"diagnostics"`
	RangeStart  time.Time       `json:"range_start"`
	RangeEnd    time.Time       `json:"range_end"`
	Timezone    string          `json:"timezone"`
	WeekStart   string          `json:"week_start"`
	SlotCount   int             `json:"slot_count"`
}

type dayLayoutDTO struct {
	Date   string               `json:"date"`
	AllDay []positionedEventDTO `json:"all_day"`
	Timed  []positionedEventDTO `json:"timed"`
}

// positionedEventDTO is the renderer-facing view of one placed event. Both
// surfaces multiply rect fractions by their own scale and never recompute
// slot arithmetic.
type positionedEventDTO struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Notes       string               `json:"notes,omitempty"`
	ActionItems string               `json:"action_items,omitempty"`
	SourceTag   string               `json:"source_tag"`
	Variant     model.Variant        `json:"variant"`
	AllDay      bool                 `json:"all_day"`
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	StartSlot   int                  `json:"start_slot"`
	EndSlot     int                  `json:"end_slot"`
	Column      int                  `json:"column"`
	ColumnCount int                  `json:"column_count"`
	Rect        model.NormalizedRect `json:"rect"`
}

type diagnosticDTO struct {
	EventID string `json:"event_id"`
	Date    string `json:"date,omitempty"`
	Reason  string `json:"reason"`
}

type layoutCacheEntry struct {
	resp      layoutResponse
	updatedAt time.Time
}

const layoutCacheTTL = 30 * time.Second

// handleLayout computes the day layouts for a requested window.
//
// GET /api/layout?days=7&backfill=0
//   - days:     how many future days to include (default from config)
//   - backfill: how many past days to include (default 0)
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	backfill := parseIntDefault(q.Get("backfill"), 0)
	if backfill < 0 {
		backfill = 0
	}

	cacheKey := strconv.Itoa(days) + "/" + strconv.Itoa(backfill)
	now := time.Now()

	s.layoutMu.RLock()
	entry := s.layoutCache[cacheKey]
	s.layoutMu.RUnlock()
	if entry != nil && now.Sub(entry.updatedAt) < layoutCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	resp, err := s.computeLayout(r.Context(), days, backfill)
	if err != nil {
		appLog.Error("api layout failed", err, "days", days, "backfill", backfill)
		writeError(w, http.StatusInternalServerError, "failed to compute layout")
		return
	}

	s.layoutMu.Lock()
	s.layoutCache[cacheKey] = &layoutCacheEntry{resp: resp, updatedAt: time.Now()}
	s.layoutMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// computeLayout runs the planner pipeline and shapes the response.
func (s *Server) computeLayout(ctx context.Context, days, backfill int) (layoutResponse, error) {
	from, to := s.pl.Window(days, backfill)
	res, err := s.pl.Compute(ctx, from, to)
	if err != nil {
		return layoutResponse{}, err
	}

	resp := layoutResponse{
		Days:        make([]dayLayoutDTO, 0, len(res.Days)),
		Diagnostics: make([]diagnosticDTO, 0, len(res.Diagnostics)),
		RangeStart:  from,
		RangeEnd:    to,
		Timezone:    s.loc.String(),
		WeekStart:   s.cfg.WeekStart,
		SlotCount:   grid.SlotsPerDay,
	}
	for _, d := range res.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, toDiagnosticDTO(d))
	}
	for _, day := range res.Days {
		resp.Days = append(resp.Days, toDayDTO(day))
	}
	return resp, nil
}

// personalEventRequest is the POST body for /api/personal.
type personalEventRequest struct {
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	ActionItems string    `json:"action_items"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handlePersonal manages locally stored events.
//
//	GET    /api/personal?days=7&backfill=0  -> list
//	POST   /api/personal                    -> create
//	DELETE /api/personal?id=<uuid>          -> delete
func (s *Server) handlePersonal(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, http.StatusServiceUnavailable, "personal event store not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
		backfill := parseIntDefault(q.Get("backfill"), 0)
		now := time.Now().In(s.loc)

		events, err := s.st.ListBetween(now.AddDate(0, 0, -backfill), now.AddDate(0, 0, days))
		if err != nil {
			appLog.Error("api personal list failed", err)
			writeError(w, http.StatusInternalServerError, "failed to list events")
			return
		}
		writeJSON(w, http.StatusOK, events)

	case http.MethodPost:
		var req personalEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Title == "" || req.Start.IsZero() || req.End.IsZero() {
			writeError(w, http.StatusBadRequest, "title, start and end are required")
			return
		}
		if !req.End.After(req.Start) {
			writeError(w, http.StatusBadRequest, "end must be after start")
			return
		}

		ev, err := s.st.Add(store.NewEvent{
			Title:       req.Title,
			Notes:       req.Notes,
			ActionItems: req.ActionItems,
			AllDay:      req.AllDay,
			Start:       req.Start.In(s.loc),
			End:         req.End.In(s.loc),
		})
		if err != nil {
			appLog.Error("api personal add failed", err)
			writeError(w, http.StatusInternalServerError, "failed to store event")
			return
		}
		s.invalidateLayoutCache()
		writeJSON(w, http.StatusCreated, ev)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		if err := s.st.Delete(id); err != nil {
			appLog.Error("api personal delete failed", err)
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
		s.invalidateLayoutCache()
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) invalidateLayoutCache() {
	s.layoutMu.Lock()
	s.layoutCache = make(map[string]*layoutCacheEntry)
	s.layoutMu.Unlock()
}

func toDayDTO(day model.DayLayout) dayLayoutDTO {
	dto := dayLayoutDTO{
		Date:   day.Date.Format("2006-01-02"),
		AllDay: make([]positionedEventDTO, 0, len(day.AllDay)),
		Timed:  make([]positionedEventDTO, 0, len(day.Timed)),
	}
	for _, pe := range day.AllDay {
		dto.AllDay = append(dto.AllDay, toPositionedDTO(pe))
	}
	for _, pe := range day.Timed {
		dto.Timed = append(dto.Timed, toPositionedDTO(pe))
	}
	return dto
}

func toPositionedDTO(pe model.PositionedEvent) positionedEventDTO {
	return positionedEventDTO{
		ID:          pe.Event.ID,
		Title:       pe.Event.Title,
		Notes:       pe.Event.Notes,
		ActionItems: pe.Event.ActionItems,
		SourceTag:   pe.Event.SourceTag,
		Variant:     pe.Variant,
		AllDay:      pe.AllDay,
		Start:       pe.Event.Start,
		End:         pe.Event.End,
		StartSlot:   pe.StartSlot,
		EndSlot:     pe.EndSlot,
		Column:      pe.Column,
		ColumnCount: pe.ColumnCount,
		Rect:        pe.Rect,
	}
}

func toDiagnosticDTO(d model.Diagnostic) diagnosticDTO {
	dto := diagnosticDTO{EventID: d.EventID, Reason: d.Reason}
	if !d.Date.IsZero() {
		dto.Date = d.Date.Format("2006-01-02")
	}
	return dto
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// StartServer builds a Server and blocks serving HTTP until the listener
// fails or ctx is canceled.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store, debug bool) error {
	s := NewServer(cfg, st, debug)
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", debug)

	srv := &http.Server{Addr: cfg.Listen, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
