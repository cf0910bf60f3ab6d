package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gradledeps/internal/core/ports"
)

// HealthStatus is served on /health while watching.
type HealthStatus struct {
	Status            string    `json:"status"`
	Dir               string    `json:"dir"`
	LastScan          time.Time `json:"last_scan"`
	Modules           int       `json:"modules"`
	Dependencies      int       `json:"dependencies"`
	Cycles            int       `json:"cycles"`
	ApplicationModule string    `json:"application_module,omitempty"`
	Error             string    `json:"error,omitempty"`
}

type healthTracker struct {
	mu   sync.RWMutex
	last ports.WatchUpdate
}

func newHealthTracker(initial ports.WatchUpdate) *healthTracker {
	return &healthTracker{last: initial}
}

func (h *healthTracker) Record(u ports.WatchUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = u
}

// Check reports "down" while the latest rescan failed.
func (h *healthTracker) Check() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u := h.last
	status := HealthStatus{
		Status:            "up",
		Dir:               u.Dir,
		LastScan:          u.At,
		Modules:           u.ModuleCount,
		Dependencies:      u.DependencyCount,
		Cycles:            len(u.Cycles),
		ApplicationModule: u.ApplicationModule,
	}
	if u.Err != nil {
		status.Status = "down"
		status.Error = u.Err.Error()
	}
	return status
}

type ObservabilityServer struct {
	addr   string
	health *healthTracker
	server *http.Server
}

func NewObservabilityServer(addr string, health *healthTracker) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, health: health}
}

func (s *ObservabilityServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Check()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

// Start binds the listener synchronously so address errors surface here, then
// serves in the background.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
