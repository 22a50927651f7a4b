package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/brojonat/solpipe/service/metrics"
	"github.com/brojonat/solpipe/service/transfer"
	"github.com/brojonat/solpipe/service/wallet"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transfer handlers hold the connection open until confirmation, so the write
// deadline has to outlast the confirmation timeout.
const (
	defaultWriteTimeout = 2 * time.Minute
	writeTimeoutMargin  = 30 * time.Second
)

// WriteTimeoutFor returns the HTTP write deadline for a given confirmation
// timeout. Zero means confirmation never times out, so neither does the write.
func WriteTimeoutFor(confirmTimeout time.Duration) time.Duration {
	if confirmTimeout <= 0 {
		return 0
	}
	return confirmTimeout + writeTimeoutMargin
}

// Server represents the HTTP server for the transfer service.
type Server struct {
	addr           string
	service        *transfer.Service
	signer         wallet.Signer
	metrics        *metrics.Metrics
	logger         *slog.Logger
	server         *http.Server
	apiToken       string
	allowedOrigins []string
	writeTimeout   time.Duration
}

// New creates a new HTTP server with the given dependencies.
// The signer is the server's hot wallet. It is optional; without it the
// transfer endpoints answer with a precondition failure and only the
// airdrop endpoint is useful.
// The metrics is optional - if nil, metrics endpoints won't be available.
func New(addr string, service *transfer.Service, signer wallet.Signer, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:         addr,
		service:      service,
		signer:       signer,
		metrics:      m,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
	}
}

// WithAPIToken sets the bearer token required by the transfer and airdrop
// endpoints. Without one those endpoints refuse every request.
func (s *Server) WithAPIToken(token string) *Server {
	s.apiToken = token
	return s
}

// WithAllowedOrigins sets the browser origins allowed to call the API.
// "*" allows any origin. The default allows none.
func (s *Server) WithAllowedOrigins(origins []string) *Server {
	s.allowedOrigins = origins
	return s
}

// WithWriteTimeout overrides the HTTP write deadline. Zero disables it.
func (s *Server) WithWriteTimeout(d time.Duration) *Server {
	s.writeTimeout = d
	return s
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}
	authed := func(h http.Handler) http.Handler {
		return requireToken(s.apiToken, h)
	}

	// Transfer routes
	route("POST /api/v1/transfers/native", "/api/v1/transfers/native", authed(handleSendNative(s.service, s.signer, s.logger)))
	route("POST /api/v1/transfers/token", "/api/v1/transfers/token", authed(handleSendToken(s.service, s.signer, s.logger)))
	route("POST /api/v1/airdrop", "/api/v1/airdrop", authed(handleAirdrop(s.service, s.signer, s.logger)))
	route("GET /api/v1/wallet", "/api/v1/wallet", handleGetWallet(s.service, s.signer))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(s.allowedOrigins, mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if s.signer == nil {
		s.logger.Warn("no hot wallet configured, transfer endpoints will fail")
	} else {
		s.logger.Info("hot wallet loaded", "address", s.signer.PublicKey().String())
	}
	if s.apiToken == "" {
		s.logger.Warn("no API token configured, transfer and airdrop endpoints will refuse requests")
	}
	if s.metrics != nil {
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server. In-flight transfers keep
// waiting for confirmation until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware answers CORS for the configured origins only. Requests
// without an Origin header are not browser cross-origin calls and pass
// through untouched. A disallowed origin may still GET, but gets no CORS
// headers, so the browser hides the response. Anything else from a
// disallowed origin, preflights included, is refused.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !originAllowed(allowed, origin) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, "origin not allowed", http.StatusForbidden)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// requireToken rejects requests that do not carry "Authorization: Bearer <token>".
// An empty token rejects everything.
func requireToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="solpipe"`)
			writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
