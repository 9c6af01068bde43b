package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BlackMission/fccauth/internal/auth"
	"github.com/BlackMission/fccauth/internal/handler"
	"github.com/BlackMission/fccauth/internal/redirect"
	"github.com/BlackMission/fccauth/internal/session"
)

// RequestIDHeader carries the id the logging middleware assigns to each request.
const RequestIDHeader = "X-Request-ID"

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    int
	BaseURL string
}

// Deps holds the service dependencies.
type Deps struct {
	Providers *auth.Registry
	Sessions  *session.Codec
	Returns   *redirect.Allowlist
	Logger    logrus.FieldLogger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     logrus.FieldLogger
}

// New creates a new Server with all routes wired. Each registered provider
// serves its own callback path.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health(deps.Providers))
	mux.HandleFunc("GET /providers", handler.Providers(deps.Providers))
	mux.HandleFunc("GET /signin/{provider}", handler.SignIn(deps.Providers, deps.Returns, cfg.BaseURL, logger))
	mux.HandleFunc("GET /me", handler.Me(deps.Sessions))
	mux.HandleFunc("POST /signout", handler.SignOut(deps.Sessions, deps.Returns, cfg.BaseURL))

	for _, p := range deps.Providers.Providers() {
		mux.Handle("GET "+p.CallbackPath(), p)
	}

	logged := loggingMiddleware(logger, mux)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	return &Server{
		handler: logged,
		logger:  logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           logged,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and serving. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Infof("fccauth listening on %s", ln.Addr())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()[:8]
		w.Header().Set(RequestIDHeader, reqID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		entry := logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"duration":   time.Since(start).Round(time.Microsecond),
			"remote":     r.RemoteAddr,
		})
		if sw.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
