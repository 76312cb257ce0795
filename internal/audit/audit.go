// Package audit streams pipeline events to Kafka for out-of-band review.
// The stream is optional and strictly best-effort: a broker outage must
// never stall the approval pipeline.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hearth-hq/hearth/internal/config"
)

// Record is one audit event on the wire.
type Record struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Publisher writes audit records to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates an audit publisher, or nil when auditing is disabled.
// A nil *Publisher is safe to call.
func NewPublisher(cfg config.AuditConfig) *Publisher {
	if !cfg.Enabled || cfg.Brokers == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

// Record publishes one audit event. Failures are logged and swallowed.
func (p *Publisher) Record(ctx context.Context, event string, fields map[string]any) {
	if p == nil {
		return
	}
	data, err := json.Marshal(Record{Event: event, Timestamp: time.Now().UTC(), Fields: fields})
	if err != nil {
		slog.Warn("Audit record not serializable", "event", event, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: data,
	}); err != nil {
		slog.Warn("Audit publish failed", "event", event, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
