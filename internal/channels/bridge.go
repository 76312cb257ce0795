package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hearth-hq/hearth/internal/config"
)

// BridgeNotifier posts messages to an external SMS/email bridge. The bridge
// owns the last mile; hearth only hands it a recipient address and a body.
type BridgeNotifier struct {
	cfg    config.BridgeConfig
	client *http.Client
}

// NewBridgeNotifier creates a bridge notifier from config.
func NewBridgeNotifier(cfg config.BridgeConfig) *BridgeNotifier {
	return &BridgeNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BridgeNotifier) Name() string { return "bridge" }

// CanReach reports whether the recipient has a bridge address.
func (b *BridgeNotifier) CanReach(recipient string) bool {
	if !b.cfg.Enabled || b.cfg.OutboundURL == "" {
		return false
	}
	_, ok := b.cfg.Recipients[recipient]
	return ok
}

// Send posts the message as JSON to the bridge's outbound URL.
func (b *BridgeNotifier) Send(ctx context.Context, recipient, body string) error {
	payload, _ := json.Marshal(map[string]string{
		"to":   b.cfg.Recipients[recipient],
		"body": body,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.OutboundURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.AuthToken)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bridge returned %d", resp.StatusCode)
	}
	return nil
}
