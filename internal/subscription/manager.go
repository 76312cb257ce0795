// Package subscription manages the lifecycle of calendar push-notification
// channels: register, renew before expiry, tear down.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/store"
)

// DefaultRenewWindow is how far ahead of expiry a channel is renewed.
const DefaultRenewWindow = 48 * time.Hour

// Manager owns subscription lifecycle against one provider.
type Manager struct {
	store       *store.Store
	provider    calendar.Provider
	renewWindow time.Duration
}

// NewManager creates a subscription manager. renewWindow <= 0 uses the default.
func NewManager(st *store.Store, provider calendar.Provider, renewWindow time.Duration) *Manager {
	if renewWindow <= 0 {
		renewWindow = DefaultRenewWindow
	}
	return &Manager{store: st, provider: provider, renewWindow: renewWindow}
}

// Register opens a push channel for the calendar and records it. Idempotent:
// an existing active subscription for the calendar is returned as-is.
func (m *Manager) Register(ctx context.Context, userID, calendarID string) (*store.Subscription, error) {
	existing, err := m.store.ActiveSubscriptionByCalendar(calendarID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	ch, err := m.provider.RegisterChannel(ctx, userID, calendarID)
	if err != nil {
		return nil, fmt.Errorf("register channel for %s: %w", calendarID, err)
	}
	sub := &store.Subscription{
		ID:         uuid.NewString(),
		ChannelID:  ch.ChannelID,
		ResourceID: ch.ResourceID,
		UserID:     userID,
		CalendarID: calendarID,
		Expiration: ch.Expiration,
		Status:     store.SubscriptionActive,
	}
	if err := m.store.InsertSubscription(sub); err != nil {
		return nil, err
	}
	slog.Info("Calendar subscription registered",
		"calendar", calendarID, "channel", ch.ChannelID, "expires", ch.Expiration)
	return sub, nil
}

// Renew replaces a subscription's channel with a fresh one, carrying the sync
// token forward so no changes are missed across the swap. The old channel is
// stopped best-effort; the old row is marked expired only after the new row
// is safely recorded.
func (m *Manager) Renew(ctx context.Context, sub *store.Subscription) (*store.Subscription, error) {
	ch, err := m.provider.RegisterChannel(ctx, sub.UserID, sub.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("renew channel for %s: %w", sub.CalendarID, err)
	}
	fresh := &store.Subscription{
		ID:         uuid.NewString(),
		ChannelID:  ch.ChannelID,
		ResourceID: ch.ResourceID,
		UserID:     sub.UserID,
		CalendarID: sub.CalendarID,
		SyncToken:  sub.SyncToken,
		Expiration: ch.Expiration,
		Status:     store.SubscriptionActive,
	}
	if err := m.store.InsertSubscription(fresh); err != nil {
		return nil, err
	}
	if err := m.store.MarkSubscriptionExpired(sub.ID); err != nil {
		slog.Warn("Failed to expire replaced subscription", "id", sub.ID, "error", err)
	}
	if err := m.provider.UnregisterChannel(ctx, sub.UserID, sub.ChannelID, sub.ResourceID); err != nil {
		slog.Warn("Failed to stop old channel", "channel", sub.ChannelID, "error", err)
	}
	slog.Info("Calendar subscription renewed",
		"calendar", sub.CalendarID, "old_channel", sub.ChannelID, "new_channel", ch.ChannelID)
	return fresh, nil
}

// RenewExpiring renews every active subscription expiring within the renew
// window. One failed renewal does not stop the rest.
func (m *Manager) RenewExpiring(ctx context.Context, now time.Time) error {
	subs, err := m.store.ActiveSubscriptionsExpiringWithin(now, m.renewWindow)
	if err != nil {
		return err
	}
	var errs []error
	for _, sub := range subs {
		if _, err := m.Renew(ctx, sub); err != nil {
			slog.Error("Subscription renewal failed", "calendar", sub.CalendarID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Teardown stops every active channel for a calendar and marks the rows
// expired. Provider-side stop failures are logged, not fatal: the channel
// will die at its natural expiration anyway.
func (m *Manager) Teardown(ctx context.Context, calendarID string) error {
	subs, err := m.store.ActiveSubscriptionsByCalendar(calendarID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := m.provider.UnregisterChannel(ctx, sub.UserID, sub.ChannelID, sub.ResourceID); err != nil {
			slog.Warn("Failed to stop channel", "channel", sub.ChannelID, "error", err)
		}
		if err := m.store.MarkSubscriptionExpired(sub.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListExpiringWithin returns active subscriptions expiring before now+window.
func (m *Manager) ListExpiringWithin(now time.Time, window time.Duration) ([]*store.Subscription, error) {
	if window <= 0 {
		window = m.renewWindow
	}
	return m.store.ActiveSubscriptionsExpiringWithin(now, window)
}
