// Package server exposes saved documents over a read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"velo/internal/export"
	"velo/internal/store"
)

type Server struct {
	store  store.Store
	logger *log.Logger
}

func New(st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Get("/{doc}", s.getDocument)
		r.Get("/{doc}/tabs/{tab}", s.getTab)
	})
	r.Get("/images/{id}", s.getImage)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	idx, err := s.index(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, idx)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.document(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// getTab serves the checkpoint record, or a PNG rendering when the tab id
// ends in .png.
func (s *Server) getTab(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.document(w, r)
	if !ok {
		return
	}
	raw, asPNG := strings.CutSuffix(chi.URLParam(r, "tab"), ".png")
	tab, err := uuid.Parse(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tab id")
		return
	}
	cp, err := s.store.LoadCheckpoint(r.Context(), entry.ID, tab)
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, a := range cp.Prune() {
		s.logger.Warn("dropping dangling arrow", "tab", tab, "arrow", a.ID)
	}

	if !asPNG {
		data, err := store.EncodeCheckpoint(cp)
		if err != nil {
			s.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := export.PNG(r.Context(), w, cp, s.store, export.Options{}); err != nil {
		if errors.Is(err, export.ErrEmpty) {
			w.Header().Del("Content-Type")
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("render tab", "tab", tab, "err", err)
	}
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSuffix(chi.URLParam(r, "id"), ".png"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid image id")
		return
	}
	data, err := s.store.LoadImage(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (s *Server) index(ctx context.Context) (store.Index, error) {
	idx, err := s.store.LoadIndex(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return store.Index{Documents: []store.DocumentEntry{}}, nil
	}
	return idx, err
}

// document resolves the {doc} parameter, answering the request itself when
// it cannot.
func (s *Server) document(w http.ResponseWriter, r *http.Request) (store.DocumentEntry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "doc"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return store.DocumentEntry{}, false
	}
	idx, err := s.index(r.Context())
	if err != nil {
		s.fail(w, err)
		return store.DocumentEntry{}, false
	}
	entry, ok := idx.Find(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "document not found")
		return store.DocumentEntry{}, false
	}
	return entry, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error("request failed", "err", err)
	s.respondError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
