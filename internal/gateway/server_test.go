package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/worker"
)

type recordingHandler struct {
	mu       sync.Mutex
	channels []string
}

func (h *recordingHandler) HandleNotification(_ context.Context, channelID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = append(h.channels, channelID)
	return nil
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.channels...)
}

func newTestServer(t *testing.T) (*Server, *recordingHandler, *worker.Pool) {
	t.Helper()
	h := &recordingHandler{}
	pool := worker.NewPool(context.Background(), 2)
	s := NewServer(config.GatewayConfig{Host: "127.0.0.1", Port: 0}, h, pool)
	return s, h, pool
}

func postWebhook(t *testing.T, s *Server, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendar", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestWebhookTriggersSync(t *testing.T) {
	s, h, pool := newTestServer(t)
	rr := postWebhook(t, s, map[string]string{
		"X-Goog-Channel-ID":     "chan-1",
		"X-Goog-Resource-ID":    "res-1",
		"X-Goog-Resource-State": "exists",
		"X-Goog-Message-Number": "7",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	pool.Wait()
	if got := h.seen(); len(got) != 1 || got[0] != "chan-1" {
		t.Fatalf("handled channels = %v", got)
	}
}

func TestWebhookSyncStateIsHandshake(t *testing.T) {
	s, h, pool := newTestServer(t)
	rr := postWebhook(t, s, map[string]string{
		"X-Goog-Channel-ID":     "chan-1",
		"X-Goog-Resource-ID":    "res-1",
		"X-Goog-Resource-State": "sync",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	pool.Wait()
	if got := h.seen(); len(got) != 0 {
		t.Fatalf("handshake triggered work: %v", got)
	}
}

func TestWebhookNotExistsStateIgnored(t *testing.T) {
	s, h, pool := newTestServer(t)
	rr := postWebhook(t, s, map[string]string{
		"X-Goog-Channel-ID":     "chan-1",
		"X-Goog-Resource-ID":    "res-1",
		"X-Goog-Resource-State": "not_exists",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	pool.Wait()
	if got := h.seen(); len(got) != 0 {
		t.Fatalf("not_exists triggered a sync: %v", got)
	}
}

func TestWebhookAcksWhilePoolSaturated(t *testing.T) {
	h := &recordingHandler{}
	pool := worker.NewPool(context.Background(), 1)
	s := NewServer(config.GatewayConfig{Host: "127.0.0.1", Port: 0}, h, pool)

	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit("hold", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	// The handler must not wait for a pool slot before acknowledging.
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- postWebhook(t, s, map[string]string{
			"X-Goog-Channel-ID":     "chan-1",
			"X-Goog-Resource-ID":    "res-1",
			"X-Goog-Resource-State": "exists",
		})
	}()

	select {
	case rr := <-done:
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook ack blocked on a saturated pool")
	}
	close(release)
	pool.Wait()
	if got := h.seen(); len(got) != 0 {
		t.Fatalf("dropped notification still ran: %v", got)
	}
}

func TestWebhookMissingHeadersStill2xx(t *testing.T) {
	s, h, pool := newTestServer(t)
	rr := postWebhook(t, s, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even for junk", rr.Code)
	}
	pool.Wait()
	if got := h.seen(); len(got) != 0 {
		t.Fatalf("junk notification triggered work: %v", got)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body == "" {
		t.Fatal("empty health body")
	}
}
