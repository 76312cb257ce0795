// Package gateway is the webhook-facing HTTP server. Calendar providers post
// push notifications here; the heavy work runs on a background pool so the
// handler can answer within the provider's timeout.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/worker"
)

// NotificationHandler processes one webhook notification in the background.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, channelID string) error
}

// Server is the webhook HTTP server.
type Server struct {
	cfg     config.GatewayConfig
	handler NotificationHandler
	pool    *worker.Pool
	srv     *http.Server
}

// NewServer creates the gateway server.
func NewServer(cfg config.GatewayConfig, handler NotificationHandler, pool *worker.Pool) *Server {
	s := &Server{cfg: cfg, handler: handler, pool: pool}

	r := mux.NewRouter()
	r.HandleFunc("/webhooks/calendar", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.srv.Handler }

// Run serves until ctx is cancelled, then drains with a shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Gateway listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.pool.Shutdown()
	slog.Info("Gateway stopped")
	return nil
}

// handleWebhook accepts calendar push notifications. The provider retries on
// non-2xx, so every well-formed-or-not notification is acknowledged; only
// the work behind it is conditional.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	channelID := r.Header.Get("X-Goog-Channel-ID")
	resourceID := r.Header.Get("X-Goog-Resource-ID")
	state := r.Header.Get("X-Goog-Resource-State")
	msgNum := r.Header.Get("X-Goog-Message-Number")

	slog.Debug("Webhook notification",
		"channel", channelID, "resource", resourceID, "state", state, "n", msgNum)

	switch {
	case channelID == "" || resourceID == "":
		slog.Warn("Webhook missing channel headers")
	case state == "sync":
		// Initial handshake after channel registration. Nothing changed.
	case state == "exists":
		accepted := s.pool.Submit("webhook:"+channelID, func(ctx context.Context) error {
			return s.handler.HandleNotification(ctx, channelID)
		})
		if !accepted {
			// The provider redelivers and the periodic sweep resyncs, so a
			// dropped notification is recoverable. Stalling the ack is not.
			slog.Warn("Worker pool saturated, dropping notification", "channel", channelID)
		}
	default:
		slog.Debug("Ignoring notification state", "channel", channelID, "state", state)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
