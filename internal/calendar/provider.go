// Package calendar defines the external calendar provider contract and the
// Google Calendar implementation.
package calendar

import (
	"context"
	"time"
)

// Event is one calendar event as returned by a delta fetch. Status
// distinguishes removed events from present ones; the provider cannot tell
// "new" from "changed" without a local cache, so present events are all
// reported the same way.
type Event struct {
	ID          string
	CalendarID  string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Removed     bool
}

// Channel identifies one registered push-notification channel.
type Channel struct {
	ChannelID  string
	ResourceID string
	Expiration time.Time
}

// Delta is the result of an incremental fetch.
type Delta struct {
	Events        []Event
	NextSyncToken string
}

// Provider is the calendar provider collaborator contract.
type Provider interface {
	// RegisterChannel opens a push-notification channel for a calendar.
	RegisterChannel(ctx context.Context, userID, calendarID string) (*Channel, error)
	// UnregisterChannel tears down a channel. Best-effort: failures are
	// logged by callers, never fatal.
	UnregisterChannel(ctx context.Context, userID, channelID, resourceID string) error
	// FetchDelta returns events changed since syncToken, or everything when
	// syncToken is empty, plus the token for the next incremental fetch.
	FetchDelta(ctx context.Context, userID, calendarID, syncToken string) (*Delta, error)
}

// Writer mutates calendar events on behalf of an approved action.
type Writer interface {
	// CreateEvent inserts an event and returns its provider id.
	CreateEvent(ctx context.Context, userID string, event Event) (string, error)
	// UpdateEvent rewrites an existing event's details.
	UpdateEvent(ctx context.Context, userID string, event Event) error
	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error
}
