package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HerbHall/switchconnector/internal/plugin"
	"github.com/HerbHall/switchconnector/internal/version"
	pkgplugin "github.com/HerbHall/switchconnector/pkg/plugin"
	"go.uber.org/zap"
)

// Server is the main SwitchConnector server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a new Server instance. metrics, when non-nil, is served on GET /metrics.
func New(addr string, reg *plugin.Registry, metrics http.Handler, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Device calls (RESTCONF then SSH fallback) can take well beyond
			// the usual 15s on slow switches.
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: reg,
		logger:   logger,
		mux:      mux,
	}

	s.registerCoreRoutes(metrics)
	s.mountPluginRoutes()

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes(metrics http.Handler) {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/plugins", s.handlePlugins)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}
}

// mountPluginRoutes registers all plugin routes under /api/v1/{plugin}/.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, pluginName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status, including any plugin that
// reports its own health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	plugins := make(map[string]pkgplugin.HealthStatus)
	for _, p := range s.registry.All() {
		hc, ok := p.(pkgplugin.HealthChecker)
		if !ok {
			continue
		}
		h := hc.Health(r.Context())
		plugins[p.Name()] = h
		if h.Status != pkgplugin.StatusHealthy {
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-SwitchConnector-Version", version.Short())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"service": "switchconnector",
		"version": version.Map(),
		"plugins": plugins,
	})
}

// handlePlugins returns the list of registered plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	plugins := s.registry.All()
	type pluginResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	info := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		info = append(info, pluginResponse{
			Name:    p.Name(),
			Version: p.Version(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-SwitchConnector-Version", version.Short())
	json.NewEncoder(w).Encode(info)
}
