package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// maxBodySize caps PUT bodies and WebSocket messages.
const maxBodySize = 1 << 20

// Server exposes a Registry over HTTP and WebSocket.
type Server struct {
	reg      *Registry
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

// NodeInfo is one entry of the GET /signals listing.
type NodeInfo struct {
	Name     string          `json:"name"`
	Value    json.RawMessage `json:"value"`
	Writable bool            `json:"writable"`
}

// New creates a Server for reg. Unset config fields take their defaults.
func New(reg *Registry, config *Config) *Server {
	config = config.withDefaults()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		reg:    reg,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:  logger.With("component", "server"),
		clients: make(map[*client]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/signals", s.handleList)
	r.Get("/signals/{name}", s.handleGet)
	r.Put("/signals/{name}", s.handlePut)
	r.Get("/ws", s.handleWebSocket)
	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Mount attaches an extra handler, such as promhttp.Handler() on /metrics.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// ListenAndServe listens on config.Address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and closes
// every WebSocket client.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", ln.Addr().String())
		errC <- srv.Serve(ln)
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.closeClients()
	<-errC

	if err != nil {
		return err
	}
	return ctx.Err()
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.reg.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}

	names := s.reg.Names()
	out := make([]NodeInfo, 0, len(names))
	for _, name := range names {
		out = append(out, NodeInfo{
			Name:     name,
			Value:    snapshot[name],
			Writable: s.reg.Writable(name),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.reg.Value(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.reg.Set(chi.URLParam(r, "name"), body); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps registry errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrReadOnly):
		status = http.StatusMethodNotAllowed
	default:
		var nerr *NodeError
		if errors.As(err, &nerr) && nerr.Op == "write" {
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
