// Package insight persists detection results and dispatches them to the
// household's notification channels, with dedup so the same problem is not
// re-announced on every sync.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/detect"
	"github.com/hearth-hq/hearth/internal/store"
)

// DedupWindow suppresses a re-detected insight with the same household, type
// and title while an earlier one is still pending or sent within this window.
const DedupWindow = 24 * time.Hour

// Sender delivers a rendered message to a recipient.
type Sender interface {
	Send(ctx context.Context, recipient, body string) error
}

// Allower gates outbound sends per recipient.
type Allower interface {
	Allow(key string) bool
}

// Service owns the insight lifecycle: dedup, persist, dispatch.
type Service struct {
	store     *store.Store
	sender    Sender
	limiter   Allower
	household config.HouseholdConfig
}

// NewService wires the insight pipeline.
func NewService(st *store.Store, sender Sender, limiter Allower, household config.HouseholdConfig) *Service {
	return &Service{store: st, sender: sender, limiter: limiter, household: household}
}

// Process persists and dispatches a batch of detected insights. Duplicates
// within the dedup window are dropped. A failed or rate-limited send leaves
// the insight pending for the next pass; errors are aggregated, one bad
// insight never blocks the rest.
func (s *Service) Process(ctx context.Context, insights []detect.Insight) error {
	var errs []error
	for _, in := range insights {
		if err := s.processOne(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("insight %q: %w", in.Title, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) processOne(ctx context.Context, in detect.Insight) error {
	dup, err := s.store.RecentDuplicateExists(s.household.ID, in.Type, in.Title, DedupWindow)
	if err != nil {
		return err
	}
	if dup {
		slog.Debug("Duplicate insight suppressed", "type", in.Type, "title", in.Title)
		return nil
	}

	row := &store.Insight{
		ID:          uuid.NewString(),
		HouseholdID: s.household.ID,
		Type:        in.Type,
		Severity:    in.Severity,
		Title:       in.Title,
		Description: in.Description,
		Recipient:   in.Recipient,
	}
	if in.TemplateData != nil {
		data, _ := json.Marshal(in.TemplateData)
		row.TemplateData = string(data)
	}
	if len(in.RelatedEvents) > 0 {
		ids, _ := json.Marshal(in.RelatedEvents)
		row.RelatedEvents = string(ids)
	}
	if err := s.store.InsertInsight(row); err != nil {
		return err
	}
	return s.dispatch(ctx, row)
}

// DispatchPending retries delivery for insights still in pending state.
func (s *Service) DispatchPending(ctx context.Context) error {
	rows, err := s.store.InsightsByStatus(store.InsightPending)
	if err != nil {
		return err
	}
	var errs []error
	for _, row := range rows {
		if err := s.dispatch(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("insight %s: %w", row.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) dispatch(ctx context.Context, row *store.Insight) error {
	var errs []error
	delivered := false
	for _, recipient := range s.recipients(row.Recipient) {
		if !s.limiter.Allow(recipient) {
			slog.Warn("Notification rate limited", "recipient", recipient, "insight", row.ID)
			continue
		}
		if err := s.sender.Send(ctx, recipient, Render(row)); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		if err := s.store.UpdateInsightStatus(row.ID, store.InsightSent); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recipients resolves the delivery targets: the insight's recipient if set,
// otherwise every parent in the household.
func (s *Service) recipients(recipient string) []string {
	if recipient != "" {
		return []string{recipient}
	}
	out := []string{}
	if s.household.ParentA != "" {
		out = append(out, s.household.ParentA)
	}
	if s.household.ParentB != "" {
		out = append(out, s.household.ParentB)
	}
	return out
}

// Resolve marks an insight handled so it no longer counts for dedup.
func (s *Service) Resolve(id string) error {
	return s.store.UpdateInsightStatus(id, store.InsightResolved)
}

// Render formats an insight for a chat or SMS channel.
func Render(row *store.Insight) string {
	var b strings.Builder
	switch row.Severity {
	case detect.SeverityHigh:
		b.WriteString("⚠️ ")
	case detect.SeverityMedium:
		b.WriteString("📅 ")
	default:
		b.WriteString("💡 ")
	}
	b.WriteString(row.Title)
	if row.Description != "" {
		b.WriteString("\n")
		b.WriteString(row.Description)
	}
	return b.String()
}
