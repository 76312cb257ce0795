package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/store"
)

type fakeProvider struct {
	deltas    map[string]*calendar.Delta
	lastToken string
	err       error
}

func (f *fakeProvider) RegisterChannel(context.Context, string, string) (*calendar.Channel, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) UnregisterChannel(context.Context, string, string, string) error {
	return nil
}

func (f *fakeProvider) FetchDelta(_ context.Context, _, calendarID, syncToken string) (*calendar.Delta, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastToken = syncToken
	if d, ok := f.deltas[calendarID]; ok {
		return d, nil
	}
	return &calendar.Delta{NextSyncToken: "tok-empty"}, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func activeSub(t *testing.T, st *store.Store, calendarID, token string) *store.Subscription {
	t.Helper()
	sub := &store.Subscription{
		ID:         uuid.NewString(),
		ChannelID:  "chan-" + calendarID,
		ResourceID: "res-" + calendarID,
		UserID:     "amy",
		CalendarID: calendarID,
		SyncToken:  token,
		Expiration: time.Now().Add(24 * time.Hour),
		Status:     store.SubscriptionActive,
	}
	if err := st.InsertSubscription(sub); err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
	return sub
}

func TestSyncAppliesDelta(t *testing.T) {
	st := testStore(t)
	now := time.Now()
	p := &fakeProvider{deltas: map[string]*calendar.Delta{
		"cal-1": {
			Events: []calendar.Event{
				{ID: "e1", Title: "Soccer practice", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
				{ID: "e2", Removed: true},
			},
			NextSyncToken: "tok-2",
		},
	}}
	activeSub(t, st, "cal-1", "tok-1")

	// Pre-existing cached event that the delta deletes.
	if err := st.UpsertEvent(&store.Event{
		ID: "e2", CalendarID: "cal-1", HouseholdID: "h1", Owner: "amy",
		Title: "Old", Start: now, End: now.Add(time.Hour), Status: store.EventConfirmed,
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	s := New(st, p, "h1", func(string) string { return "amy" })
	res, err := s.Sync(context.Background(), "cal-1")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if p.lastToken != "tok-1" {
		t.Fatalf("provider called with token %q, want tok-1", p.lastToken)
	}
	if len(res.Changed) != 1 || res.Changed[0].ID != "e1" {
		t.Fatalf("changed = %+v", res.Changed)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != "e2" {
		t.Fatalf("deleted = %v", res.Deleted)
	}

	events, err := st.EventsForHousehold("h1", now.Add(-time.Hour), now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" || events[0].Owner != "amy" {
		t.Fatalf("cache = %+v", events)
	}
}

func TestSyncPersistsNewToken(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{deltas: map[string]*calendar.Delta{
		"cal-1": {NextSyncToken: "tok-2"},
	}}
	sub := activeSub(t, st, "cal-1", "tok-1")

	s := New(st, p, "h1", nil)
	if _, err := s.Sync(context.Background(), "cal-1"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := st.SubscriptionByChannelID(sub.ChannelID)
	if err != nil {
		t.Fatalf("reload sub: %v", err)
	}
	if got.SyncToken != "tok-2" {
		t.Fatalf("sync token = %q, want tok-2", got.SyncToken)
	}
}

func TestSyncTokenKeptOnFetchFailure(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{err: errors.New("provider 500")}
	sub := activeSub(t, st, "cal-1", "tok-1")

	s := New(st, p, "h1", nil)
	if _, err := s.Sync(context.Background(), "cal-1"); err == nil {
		t.Fatal("expected fetch error")
	}
	got, _ := st.SubscriptionByChannelID(sub.ChannelID)
	if got.SyncToken != "tok-1" {
		t.Fatalf("sync token changed on failure: %q", got.SyncToken)
	}
}

func TestSyncRecordsStaleEventsWithoutTriggering(t *testing.T) {
	st := testStore(t)
	now := time.Now()
	p := &fakeProvider{deltas: map[string]*calendar.Delta{
		"cal-1": {
			Events: []calendar.Event{
				{ID: "old", Title: "Last month", Start: now.Add(-30 * 24 * time.Hour), End: now.Add(-30 * 24 * time.Hour).Add(time.Hour)},
				{ID: "fresh", Title: "Tomorrow", Start: now.Add(24 * time.Hour), End: now.Add(25 * time.Hour)},
			},
			NextSyncToken: "tok-2",
		},
	}}
	activeSub(t, st, "cal-1", "")

	s := New(st, p, "h1", nil)
	res, err := s.Sync(context.Background(), "cal-1")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(res.Changed) != 1 || res.Changed[0].ID != "fresh" {
		t.Fatalf("changed = %+v, want only fresh", res.Changed)
	}

	// The stale event lands in the cache even though it triggers nothing.
	events, err := st.EventsForHousehold("h1", now.Add(-60*24*time.Hour), now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	ids := map[string]bool{}
	for _, ev := range events {
		ids[ev.ID] = true
	}
	if !ids["old"] || !ids["fresh"] {
		t.Fatalf("cache = %+v, want both old and fresh recorded", events)
	}
}

func TestSyncByChannelUnknownChannelIsNoop(t *testing.T) {
	st := testStore(t)
	s := New(st, &fakeProvider{}, "h1", nil)
	res, err := s.SyncByChannel(context.Background(), "ghost-channel")
	if err != nil {
		t.Fatalf("SyncByChannel: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result for unknown channel, got %+v", res)
	}
}

func TestSyncByChannelReplacedChannelIsNoop(t *testing.T) {
	st := testStore(t)
	sub := activeSub(t, st, "cal-1", "tok-1")
	if err := st.MarkSubscriptionExpired(sub.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	p := &fakeProvider{}
	s := New(st, p, "h1", nil)
	res, err := s.SyncByChannel(context.Background(), sub.ChannelID)
	if err != nil {
		t.Fatalf("SyncByChannel: %v", err)
	}
	if res != nil {
		t.Fatal("expected no sync for replaced channel")
	}
}
