package subscription

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/store"
)

type fakeProvider struct {
	registered   int
	unregistered []string
	registerErr  error
	stopErr      error
	ttl          time.Duration
}

func (f *fakeProvider) RegisterChannel(_ context.Context, _, calendarID string) (*calendar.Channel, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered++
	ttl := f.ttl
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &calendar.Channel{
		ChannelID:  fmt.Sprintf("chan-%d", f.registered),
		ResourceID: "res-" + calendarID,
		Expiration: time.Now().Add(ttl),
	}, nil
}

func (f *fakeProvider) UnregisterChannel(_ context.Context, _, channelID, _ string) error {
	f.unregistered = append(f.unregistered, channelID)
	return f.stopErr
}

func (f *fakeProvider) FetchDelta(context.Context, string, string, string) (*calendar.Delta, error) {
	return &calendar.Delta{}, nil
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

func TestRegisterIsIdempotent(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{}
	m := NewManager(st, p, 0)

	first, err := m.Register(context.Background(), "amy", "cal-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := m.Register(context.Background(), "amy", "cal-1")
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same subscription, got %s and %s", first.ID, second.ID)
	}
	if p.registered != 1 {
		t.Fatalf("provider called %d times, want 1", p.registered)
	}
}

func TestRenewPreservesSyncToken(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{}
	m := NewManager(st, p, 0)

	sub, err := m.Register(context.Background(), "amy", "cal-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.UpdateSubscriptionSyncToken(sub.ID, "tok-42"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	sub.SyncToken = "tok-42"

	fresh, err := m.Renew(context.Background(), sub)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if fresh.SyncToken != "tok-42" {
		t.Fatalf("sync token not carried: %q", fresh.SyncToken)
	}
	if fresh.ChannelID == sub.ChannelID {
		t.Fatal("renewal must issue a new channel")
	}
	if len(p.unregistered) != 1 || p.unregistered[0] != sub.ChannelID {
		t.Fatalf("old channel not stopped: %v", p.unregistered)
	}

	active, err := st.ActiveSubscriptionByCalendar("cal-1")
	if err != nil {
		t.Fatalf("active lookup: %v", err)
	}
	if active.ID != fresh.ID {
		t.Fatalf("active subscription is %s, want %s", active.ID, fresh.ID)
	}
}

func TestRenewSucceedsWhenOldChannelStopFails(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{stopErr: errors.New("provider 500")}
	m := NewManager(st, p, 0)

	sub, _ := m.Register(context.Background(), "amy", "cal-1")
	fresh, err := m.Renew(context.Background(), sub)
	if err != nil {
		t.Fatalf("Renew should tolerate stop failure: %v", err)
	}
	if fresh.Status != store.SubscriptionActive {
		t.Fatalf("fresh status = %s", fresh.Status)
	}
}

func TestRenewExpiringContinuesPastFailures(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{ttl: time.Hour}
	m := NewManager(st, p, 48*time.Hour)

	if _, err := m.Register(context.Background(), "amy", "cal-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Register(context.Background(), "amy", "cal-2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// All renewals fail at the provider.
	p.registerErr = errors.New("quota exceeded")
	err := m.RenewExpiring(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected aggregated renewal errors")
	}
	// Both originals are still active; nothing was torn down on failure.
	for _, cal := range []string{"cal-1", "cal-2"} {
		if _, err := st.ActiveSubscriptionByCalendar(cal); err != nil {
			t.Fatalf("subscription for %s lost after failed renewal: %v", cal, err)
		}
	}

	p.registerErr = nil
	p.ttl = 7 * 24 * time.Hour
	if err := m.RenewExpiring(context.Background(), time.Now()); err != nil {
		t.Fatalf("RenewExpiring: %v", err)
	}
	subs, err := m.ListExpiringWithin(time.Now(), 48*time.Hour)
	if err != nil {
		t.Fatalf("ListExpiringWithin: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no channels still expiring soon, got %d", len(subs))
	}
}

func TestRenewExpiringSkipsHealthyChannels(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{} // 7 day ttl
	m := NewManager(st, p, 48*time.Hour)

	if _, err := m.Register(context.Background(), "amy", "cal-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.RenewExpiring(context.Background(), time.Now()); err != nil {
		t.Fatalf("RenewExpiring: %v", err)
	}
	if p.registered != 1 {
		t.Fatalf("healthy channel renewed: %d registrations", p.registered)
	}
}

func TestTeardown(t *testing.T) {
	st := testStore(t)
	p := &fakeProvider{}
	m := NewManager(st, p, 0)

	sub, _ := m.Register(context.Background(), "amy", "cal-1")
	if err := m.Teardown(context.Background(), "cal-1"); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if len(p.unregistered) != 1 || p.unregistered[0] != sub.ChannelID {
		t.Fatalf("channel not stopped: %v", p.unregistered)
	}
	if _, err := st.ActiveSubscriptionByCalendar("cal-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no active subscription, got %v", err)
	}
}
