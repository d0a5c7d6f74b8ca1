// Package devserver is a local stand-in for the remote todo service. It
// serves the same REST contract the client consumes, over any
// store.Store.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/idilsaglam/planner/internal/model"
	"github.com/idilsaglam/planner/internal/store"
)

const requestIDHeader = "X-Request-ID"

// Server routes todo requests to a store.
type Server struct {
	store  store.Store
	logger *log.Logger
	router *mux.Router
}

// New builds the router:
//
//	GET    /health
//	GET    /api/todos
//	POST   /api/todos
//	PUT    /api/todos/{id}
//	DELETE /api/todos/{id}
func New(st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{store: st, logger: logger, router: mux.NewRouter()}

	s.router.Use(s.logRequests)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	s.router.HandleFunc("/api/todos", s.listTodos).Methods(http.MethodGet)
	s.router.HandleFunc("/api/todos", s.createTodo).Methods(http.MethodPost)
	s.router.HandleFunc("/api/todos/{id}", s.updateTodo).Methods(http.MethodPut)
	s.router.HandleFunc("/api/todos/{id}", s.deleteTodo).Methods(http.MethodDelete)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("todo service listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("todo service stopped")
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTodo(w, r)
	if !ok {
		return
	}
	created, err := s.store.Create(r.Context(), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeTodo(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), mux.Vars(r)["id"], t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Todo deleted"})
}

type message struct {
	Message string `json:"message"`
}

func decodeTodo(w http.ResponseWriter, r *http.Request) (model.Todo, bool) {
	var t model.Todo
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Invalid JSON"})
		return model.Todo{}, false
	}
	return t, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, message{Message: "Todo not found"})
		return
	}
	s.logger.Error("store", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, message{Message: "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Method+" "+r.URL.Path, "status", rec.status,
			"request_id", reqID, "took", time.Since(start).Round(time.Microsecond))
	})
}
