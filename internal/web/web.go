package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"marktime/internal/config"
	"marktime/internal/dates"
	"marktime/internal/document"
	"marktime/internal/ics"
	appLog "marktime/internal/log"
	"marktime/internal/model"
	"marktime/internal/parser"
	"marktime/internal/timeline"
)

// maxBodyBytes bounds documents posted to /api/parse.
const maxBodyBytes = 4 << 20

// Server provides the HTTP API an editor or renderer talks to: ad-hoc
// parsing, date previews and the parsed configured documents.
type Server struct {
	cfg    *config.Config
	loader *document.Loader
	mux    *http.ServeMux

	// now is the clock used for "now" in parses and default windows.
	now func() time.Time

	// docsMu guards docs, the parsed configured documents.
	docsMu sync.RWMutex
	docs   *docsCache
	// refreshMu serializes reloads so cron and lazy refreshes do not
	// fetch the same documents twice.
	refreshMu sync.Mutex
}

// docsCache holds the last parse of every configured document.
type docsCache struct {
	docs      []parsedDocument
	updatedAt time.Time
}

type parsedDocument struct {
	Name      string             `json:"name"`
	Location  string             `json:"location"`
	FromCache bool               `json:"from_cache"`
	Timelines timeline.Timelines `json:"timelines"`
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		loader: document.NewLoader(cfg.CacheDir),
		mux:    http.NewServeMux(),
		now:    time.Now,
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="marktime", charset="UTF-8"`)
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
	s.mux.HandleFunc("/api/parse", s.handleParse)
	s.mux.HandleFunc("/api/date", s.handleDate)
	s.mux.HandleFunc("/api/timelines", s.handleTimelines)
	s.mux.HandleFunc("/api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("/api/ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) parseOptions() []parser.Option {
	return []parser.Option{
		parser.WithNow(s.now()),
		parser.WithLocation(s.cfg.Location()),
		parser.WithDateFormat(s.cfg.Format()),
	}
}

// handleParse parses the request body as a document.
//
// POST /api/parse
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	ts := parser.Parse(string(body), s.parseOptions()...)
	appLog.Debug("api parse request", "bytes", len(body), "pages", len(ts.Timelines))
	writeJSON(w, http.StatusOK, ts)
}

type dateResponse struct {
	Text        string            `json:"text"`
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Granularity dates.Granularity `json:"granularity"`
}

// handleDate previews a single date expression.
//
// GET /api/date?text=2020-05/2021
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	dr, ok := parser.ParseDateRange(text, s.parseOptions()...)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "not a date expression")
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{
		Text:        dr.OriginalText,
		From:        dr.From,
		To:          dr.To,
		Granularity: dr.Granularity,
	})
}

type timelinesResponse struct {
	Documents []parsedDocument `json:"documents"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// handleTimelines returns the parsed configured documents.
//
// GET /api/timelines[?document=name]
func (s *Server) handleTimelines(w http.ResponseWriter, r *http.Request) {
	dc, err := s.documents(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load documents")
		return
	}
	docs, ok := selectDocument(dc.docs, r.URL.Query().Get("document"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown document")
		return
	}
	writeJSON(w, http.StatusOK, timelinesResponse{Documents: docs, UpdatedAt: dc.updatedAt})
}

// occurrencesResponse is the JSON response shape for /api/occurrences.
type occurrencesResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	TruncatedUIDs   []string           `json:"truncated_uids,omitempty"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// handleOccurrences returns expanded occurrences of the configured documents
// within a requested time window.
//
// GET /api/occurrences?from=2024-01&to=2024-06-30&document=name
//   - from, to: EDTF dates; to is inclusive of its whole unit
//   - days, backfill: window around now when from/to are absent (defaults 7 and 1)
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := s.cfg.Location()

	rangeStart, rangeEnd, err := s.window(q.Get("from"), q.Get("to"), q.Get("days"), q.Get("backfill"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dc, err := s.documents(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load documents")
		return
	}
	docs, ok := selectDocument(dc.docs, q.Get("document"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown document")
		return
	}

	resp := occurrencesResponse{
		Occurrences:     []model.Occurrence{},
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
		DisplayTimeZone: loc.String(),
	}
	for _, d := range docs {
		res, err := ics.ExpandOccurrences(d.Timelines, ics.ExpandConfig{
			Document:               d.Name,
			DisplayLocation:        loc,
			RangeStart:             rangeStart,
			RangeEnd:               rangeEnd,
			MaxOccurrencesPerEvent: s.cfg.MaxOccurrences,
		})
		if err != nil {
			appLog.Error("api occurrences: expand failed", err, "document", d.Name)
			writeError(w, http.StatusInternalServerError, "failed to expand events")
			return
		}
		resp.Occurrences = append(resp.Occurrences, res.Occurrences...)
		resp.TruncatedUIDs = append(resp.TruncatedUIDs, res.TruncatedEvents...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleICS exports one configured document as iCalendar.
//
// GET /api/ics?document=name
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("document")
	if name == "" {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}
	dc, err := s.documents(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load documents")
		return
	}
	docs, ok := selectDocument(dc.docs, name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown document")
		return
	}
	out, err := ics.Export(docs[0].Timelines, ics.ExportOptions{Stamp: dc.updatedAt})
	if err != nil {
		appLog.Error("api ics: export failed", err, "document", name)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// window resolves the requested occurrence window.
func (s *Server) window(from, to, days, backfill string, loc *time.Location) (time.Time, time.Time, error) {
	if from != "" || to != "" {
		start, _, ok := dates.ParseEDTF(from, loc)
		if !ok {
			return time.Time{}, time.Time{}, errors.New("from must be an EDTF date")
		}
		end, g, ok := dates.ParseEDTF(to, loc)
		if !ok {
			return time.Time{}, time.Time{}, errors.New("to must be an EDTF date")
		}
		end = dates.RoundUp(end, g)
		if end.Before(start) {
			return time.Time{}, time.Time{}, errors.New("to is before from")
		}
		return start, end, nil
	}

	d := parseIntDefault(days, 7)
	if d <= 0 {
		d = 7
	}
	b := parseIntDefault(backfill, 1)
	if b < 0 {
		b = 0
	}
	now := s.now().In(loc)
	return now.AddDate(0, 0, -b), now.AddDate(0, 0, d), nil
}

func selectDocument(docs []parsedDocument, name string) ([]parsedDocument, bool) {
	if name == "" {
		return docs, true
	}
	for _, d := range docs {
		if d.Name == name {
			return []parsedDocument{d}, true
		}
	}
	return nil, false
}

// documents returns the cached documents, reloading them when the cache is
// older than the configured TTL.
func (s *Server) documents(ctx context.Context) (*docsCache, error) {
	s.docsMu.RLock()
	dc := s.docs
	s.docsMu.RUnlock()
	if dc != nil && s.now().Sub(dc.updatedAt) < s.cfg.CacheTTL() {
		return dc, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	return s.docs, nil
}

// Refresh re-reads and re-parses every configured document. Documents that
// fail to load keep their previous parse, if any.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	results, errs := s.loader.LoadAll(ctx, s.cfg.Documents)
	if len(errs) > 0 {
		appLog.Error("refresh: one or more documents failed", errors.Join(errs...), "error_count", len(errs))
	}
	if len(results) == 0 && len(s.cfg.Documents) > 0 && s.cachedDocs() == nil {
		return errors.New("refresh: no document could be loaded")
	}

	loaded := make(map[string]parsedDocument, len(results))
	for _, res := range results {
		loaded[res.Source.Name] = parsedDocument{
			Name:      res.Source.Name,
			Location:  res.Source.Location,
			FromCache: res.FromCache,
			Timelines: parser.Parse(string(res.Body), s.parseOptions()...),
		}
	}

	previous := map[string]parsedDocument{}
	for _, d := range s.cachedDocs() {
		previous[d.Name] = d
	}

	docs := make([]parsedDocument, 0, len(s.cfg.Documents))
	for _, src := range s.cfg.Documents {
		if d, ok := loaded[src.Name]; ok {
			docs = append(docs, d)
		} else if d, ok := previous[src.Name]; ok {
			docs = append(docs, d)
		}
	}

	s.docsMu.Lock()
	s.docs = &docsCache{docs: docs, updatedAt: s.now()}
	s.docsMu.Unlock()

	appLog.Info("documents refreshed", "loaded", len(results), "failed", len(errs))
	return nil
}

func (s *Server) cachedDocs() []parsedDocument {
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	if s.docs == nil {
		return nil
	}
	return s.docs.docs
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
