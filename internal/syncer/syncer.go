// Package syncer pulls incremental calendar changes into the local event
// cache when a push notification arrives.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/store"
)

// RelevanceWindow bounds how far back a changed event still feeds detection.
// Older changes are cached all the same but not worth analyzing.
const RelevanceWindow = 7 * 24 * time.Hour

// Result summarizes one sync pass.
type Result struct {
	CalendarID string
	Changed    []*store.Event
	Deleted    []string
}

// Syncer fetches deltas for a subscribed calendar and mirrors them locally.
type Syncer struct {
	store       *store.Store
	provider    calendar.Provider
	householdID string
	// ownerFor maps a calendar id to the household member who owns it.
	ownerFor func(calendarID string) string
	now      func() time.Time
}

// New creates a syncer. ownerFor resolves which parent a calendar belongs to;
// nil means the calendar id itself is used as the owner.
func New(st *store.Store, provider calendar.Provider, householdID string, ownerFor func(string) string) *Syncer {
	if ownerFor == nil {
		ownerFor = func(calendarID string) string { return calendarID }
	}
	return &Syncer{
		store:       st,
		provider:    provider,
		householdID: householdID,
		ownerFor:    ownerFor,
		now:         time.Now,
	}
}

// Sync fetches changes for the calendar since its stored sync token and
// applies them to the cache. The new token is persisted before returning so a
// crash after this call cannot replay the same delta twice.
func (s *Syncer) Sync(ctx context.Context, calendarID string) (*Result, error) {
	sub, err := s.store.ActiveSubscriptionByCalendar(calendarID)
	if err != nil {
		return nil, fmt.Errorf("no active subscription for %s: %w", calendarID, err)
	}

	delta, err := s.provider.FetchDelta(ctx, sub.UserID, calendarID, sub.SyncToken)
	if err != nil {
		return nil, fmt.Errorf("fetch delta for %s: %w", calendarID, err)
	}

	res := &Result{CalendarID: calendarID}
	cutoff := s.now().Add(-RelevanceWindow)
	owner := s.ownerFor(calendarID)
	for _, ev := range delta.Events {
		if ev.Removed {
			if err := s.store.DeleteEvent(calendarID, ev.ID); err != nil {
				return nil, err
			}
			res.Deleted = append(res.Deleted, ev.ID)
			continue
		}
		row := &store.Event{
			ID:          ev.ID,
			CalendarID:  calendarID,
			HouseholdID: s.householdID,
			Owner:       owner,
			Title:       ev.Title,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       ev.Start,
			End:         ev.End,
			Status:      store.EventConfirmed,
		}
		if err := s.store.UpsertEvent(row); err != nil {
			return nil, err
		}
		if ev.End.Before(cutoff) {
			// Cached for the record, too old to re-analyze.
			continue
		}
		res.Changed = append(res.Changed, row)
	}

	if delta.NextSyncToken != "" {
		if err := s.store.UpdateSubscriptionSyncToken(sub.ID, delta.NextSyncToken); err != nil {
			return nil, fmt.Errorf("persist sync token: %w", err)
		}
	}

	slog.Info("Calendar synced", "calendar", calendarID,
		"changed", len(res.Changed), "deleted", len(res.Deleted))
	return res, nil
}

// SyncByChannel resolves the calendar behind a webhook channel id and syncs
// it. Unknown channels are skipped without error: stale notifications from a
// replaced channel can arrive for a while after renewal.
func (s *Syncer) SyncByChannel(ctx context.Context, channelID string) (*Result, error) {
	sub, err := s.store.SubscriptionByChannelID(channelID)
	if err != nil {
		slog.Warn("Notification for unknown channel", "channel", channelID)
		return nil, nil
	}
	if sub.Status != store.SubscriptionActive {
		slog.Debug("Notification for replaced channel", "channel", channelID)
		return nil, nil
	}
	return s.Sync(ctx, sub.CalendarID)
}
