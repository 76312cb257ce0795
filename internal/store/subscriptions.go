package store

import (
	"database/sql"
	"errors"
	"time"
)

// Subscription statuses.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Subscription is one push-notification channel bound to one calendar.
type Subscription struct {
	ID         string
	ChannelID  string
	ResourceID string
	UserID     string
	CalendarID string
	SyncToken  string
	Expiration time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const subscriptionCols = `id, channel_id, resource_id, user_id, calendar_id, COALESCE(sync_token, ''), expiration, status, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.ChannelID, &s.ResourceID, &s.UserID, &s.CalendarID,
		&s.SyncToken, &s.Expiration, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSubscription persists a new subscription row.
func (s *Store) InsertSubscription(sub *Subscription) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err := s.db.Exec(`INSERT INTO subscriptions
		(id, channel_id, resource_id, user_id, calendar_id, sync_token, expiration, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ChannelID, sub.ResourceID, sub.UserID, sub.CalendarID,
		nullIfEmpty(sub.SyncToken), sub.Expiration.UTC(), sub.Status, now, now)
	return err
}

// ActiveSubscriptionByCalendar returns the most recent active subscription for
// a calendar. During a renewal there is a brief window where two rows are
// active; most-recent wins.
func (s *Store) ActiveSubscriptionByCalendar(calendarID string) (*Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions
		WHERE calendar_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		calendarID, SubscriptionActive)
	return scanSubscription(row)
}

// ActiveSubscriptionsByCalendar returns all active subscriptions for a calendar.
func (s *Store) ActiveSubscriptionsByCalendar(calendarID string) ([]*Subscription, error) {
	rows, err := s.db.Query(`SELECT `+subscriptionCols+` FROM subscriptions
		WHERE calendar_id = ? AND status = ?`, calendarID, SubscriptionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// SubscriptionByChannelID looks up a subscription by provider channel id.
func (s *Store) SubscriptionByChannelID(channelID string) (*Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE channel_id = ?`, channelID)
	return scanSubscription(row)
}

// ActiveSubscriptionsExpiringWithin returns active subscriptions whose
// expiration falls before now+window.
func (s *Store) ActiveSubscriptionsExpiringWithin(now time.Time, window time.Duration) ([]*Subscription, error) {
	rows, err := s.db.Query(`SELECT `+subscriptionCols+` FROM subscriptions
		WHERE status = ? AND expiration <= ? ORDER BY expiration ASC`,
		SubscriptionActive, now.Add(window).UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// MarkSubscriptionExpired transitions a subscription to expired.
func (s *Store) MarkSubscriptionExpired(id string) error {
	res, err := s.db.Exec(`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		SubscriptionExpired, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSubscriptionSyncToken writes the sync token for a subscription.
func (s *Store) UpdateSubscriptionSyncToken(id, token string) error {
	res, err := s.db.Exec(`UPDATE subscriptions SET sync_token = ?, updated_at = ? WHERE id = ?`,
		token, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectSubscriptions(rows *sql.Rows) ([]*Subscription, error) {
	var out []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
