package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	checkTimeout    = 3 * time.Second
	shutdownTimeout = 15 * time.Second
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Options configures the routes served next to the bot.
type Options struct {
	Addr string

	// WebhookPath and Webhook are set in webhook mode only.
	WebhookPath string
	Webhook     http.Handler
	Gatherer    prometheus.Gatherer
	Checks      map[string]CheckFunc
}

type Server struct {
	http   *http.Server
	logger *logrus.Entry
}

func New(opts Options, logger *logrus.Entry) *Server {
	logger = logger.WithField("component", "http_server")
	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(opts, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       time.Minute,
			WriteTimeout:      time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
	}
}

// NewRouter builds the health, metrics and webhook routes.
func NewRouter(opts Options, logger *logrus.Entry) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler(opts.Checks, logger)).Methods(http.MethodGet)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if opts.Webhook != nil && opts.WebhookPath != "" {
		r.Handle(opts.WebhookPath, opts.Webhook).Methods(http.MethodPost)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("Starting HTTP server")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]CheckFunc, logger *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK

		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			for name, check := range checks {
				if err := check(ctx); err != nil {
					logger.WithError(err).WithField("check", name).Warn("Health check failed")
					resp.Checks[name] = "unavailable"
					resp.Status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.WithError(err).Warn("Failed to write health response")
		}
	}
}
