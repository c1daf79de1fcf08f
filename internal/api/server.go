package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/OfekItzhaki/horizon-hcm/internal/version"
	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
	"github.com/OfekItzhaki/horizon-hcm/pkg/netutil"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

// Resources is the data access the handlers need. Implemented by
// store.Store and pgstore.Store.
type Resources interface {
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetApartment(ctx context.Context, id string) (*store.Apartment, error)
	GetPayment(ctx context.Context, id string) (*store.Payment, error)
	GetMaintenanceRequest(ctx context.Context, id string) (*store.MaintenanceRequest, error)
	DeleteMaintenanceRequest(ctx context.Context, id string) error
	DeleteAnnouncement(ctx context.Context, id string) error
	DeleteDocument(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ServerConfig holds configuration options for the API server.
type ServerConfig struct {
	// IdentityHeader carries the authenticated user id. Defaults to X-User-ID.
	IdentityHeader string
	// TrustProxy makes request logs use X-Forwarded-For for the client address.
	TrustProxy bool
	Logger     *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	resources Resources
	guard     *authz.AuthzMiddleware
	cfg       ServerConfig
	logger    *slog.Logger
}

// NewServer creates an API server whose routes are guarded by authorizer.
func NewServer(res Resources, authorizer *authz.Authorizer, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		resources: res,
		guard:     authz.NewAuthzMiddleware(authorizer, authz.WithLogger(logger)),
		cfg:       cfg,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Resident routes
	mux.Handle("GET /api/v1/users/{id}", s.guard.GuardFunc(authz.ResourceUserProfile, s.handleGetUser))

	// Committee routes
	mux.Handle("GET /api/v1/apartments/{id}", s.guard.GuardFunc(authz.ResourceApartment, s.handleGetApartment))
	mux.Handle("GET /api/v1/payments/{id}", s.guard.GuardFunc(authz.ResourcePayment, s.handleGetPayment))

	// Owner-or-committee routes
	mux.Handle("GET /api/v1/maintenance-requests/{id}", s.guard.GuardFunc(authz.ResourceMaintenanceRequest, s.handleGetMaintenanceRequest))
	mux.Handle("DELETE /api/v1/maintenance-requests/{id}", s.guard.GuardFunc(authz.ResourceMaintenanceRequest, s.handleDeleteMaintenanceRequest))

	// Owner-only routes
	mux.Handle("DELETE /api/v1/announcements/{id}", s.guard.GuardFunc(authz.ResourceAnnouncement, s.handleDeleteAnnouncement))
	mux.Handle("DELETE /api/v1/documents/{id}", s.guard.GuardFunc(authz.ResourceDocument, s.handleDeleteDocument))

	// Health routes (no identity required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
}

// Handler returns the full middleware stack around a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.loggingMiddleware(authz.IdentityMiddleware(s.cfg.IdentityHeader)(mux))
}

// ----- Probes -----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.String(),
	})
}

// handleReady returns 503 when the database is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := s.resources.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		status, code = "failed", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"ready":  code == http.StatusOK,
		"checks": map[string]string{"database": status},
	})
}

// ----- Middleware -----

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", netutil.ClientIP(r, s.cfg.TrustProxy),
			"request_id", w.Header().Get("X-Request-ID"),
		)
	})
}

// ----- Helpers -----

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.logger.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", message)
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store errors to 404 or a generic 500.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, what+" not found")
		return
	}
	s.logger.Error("store error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
