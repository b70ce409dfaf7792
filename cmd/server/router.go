package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/ioformats"
	"purchase-drivers/internal/parser"
	"purchase-drivers/internal/pipeline"
	"purchase-drivers/internal/store"
	"purchase-drivers/pkg/logger"
)

type analyzeReq struct {
	URL string `json:"url"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

type server struct {
	log         *logger.Logger
	pipeline    *pipeline.Pipeline
	analyzer    *analyzer.Analyzer
	parser      *parser.Parser
	history     *store.Store // nil when history is disabled
	concurrency int
	maxBody     int64
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(logRequest(s.log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// POST /analyze  { "url": "https://..." }
	r.Post("/analyze", s.handleAnalyze)
	// POST /analyze/html?url=https://...  body: page markup already fetched by the caller
	r.Post("/analyze/html", s.handleAnalyzeHTML)
	// POST /analyze/batch  { "urls": ["https://...", "..."] }
	r.Post("/analyze/batch", s.handleBatch)
	// POST /analyze/upload  multipart "file": csv or ndjson list; answers NDJSON
	r.Post("/analyze/upload", s.handleUpload)
	r.Get("/history", s.handleHistory)
	return r
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	report, err := s.pipeline.Run(r.Context(), req.URL)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleAnalyzeHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.parser.Parse(http.MaxBytesReader(w, r.Body, s.maxBody), r.Header.Get("Content-Type"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Analyze(r.URL.Query().Get("url"), doc.Root))
}

func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	writeJSON(w, http.StatusOK, s.pipeline.RunBatch(r.Context(), req.URLs, s.concurrency))
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart parse error"})
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file part 'file' required"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "read error"})
		return
	}
	urls, err := ioformats.ParseURLs(data, filepath.Ext(hdr.Filename))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records := s.pipeline.RunBatch(r.Context(), urls, s.concurrency)
	w.Header().Set("Content-Type", "application/x-ndjson")
	if err := ioformats.WriteNDJSON(w, records); err != nil {
		s.log.Errorf("write ndjson: %v", err)
	}
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	entries, err := s.history.Recent(r.Context(), strings.TrimSpace(r.URL.Query().Get("domain")), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, crawler.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func logRequest(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.With("request_id", chimiddleware.GetReqID(r.Context())).
				Infof("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
