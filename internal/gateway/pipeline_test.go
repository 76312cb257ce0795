package gateway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/detect"
	"github.com/hearth-hq/hearth/internal/insight"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/syncer"
)

type stubProvider struct {
	delta *calendar.Delta
}

func (p *stubProvider) RegisterChannel(context.Context, string, string) (*calendar.Channel, error) {
	return nil, nil
}

func (p *stubProvider) UnregisterChannel(context.Context, string, string, string) error {
	return nil
}

func (p *stubProvider) FetchDelta(context.Context, string, string, string) (*calendar.Delta, error) {
	return p.delta, nil
}

type collectingSender struct {
	bodies []string
}

func (c *collectingSender) Send(_ context.Context, _, body string) error {
	c.bodies = append(c.bodies, body)
	return nil
}

type openLimiter struct{}

func (openLimiter) Allow(string) bool { return true }

func TestNotificationEndToEnd(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	household := config.HouseholdConfig{
		ID: "h1", ParentA: "amy", ParentB: "ben",
		Children: []string{"zoe"}, Timezone: "UTC",
	}

	tomorrow := time.Now().Add(24 * time.Hour)
	provider := &stubProvider{delta: &calendar.Delta{
		Events: []calendar.Event{{
			ID:    "e1",
			Title: "Zoe soccer practice",
			Start: tomorrow,
			End:   tomorrow.Add(time.Hour),
		}},
		NextSyncToken: "tok-2",
	}}

	sub := &store.Subscription{
		ID: uuid.NewString(), ChannelID: "chan-1", ResourceID: "res-1",
		UserID: "amy", CalendarID: "cal-amy",
		Expiration: time.Now().Add(24 * time.Hour), Status: store.SubscriptionActive,
	}
	if err := st.InsertSubscription(sub); err != nil {
		t.Fatalf("insert subscription: %v", err)
	}

	sy := syncer.New(st, provider, "h1", func(string) string { return "amy" })
	sender := &collectingSender{}
	ins := insight.NewService(st, sender, openLimiter{}, household)
	p := NewPipeline(st, sy, detect.NewEngine(), ins, household)

	if err := p.HandleNotification(context.Background(), "chan-1"); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	// The soccer event tomorrow should produce a prep reminder for amy.
	found := false
	for _, body := range sender.bodies {
		if len(body) > 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no notifications dispatched: %v", sender.bodies)
	}
	counts, err := st.CountInsightsByStatus()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[store.InsightSent] == 0 {
		t.Fatalf("counts = %v, want at least one sent insight", counts)
	}
}

func TestNotificationWithNoChangesSkipsDetection(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	household := config.HouseholdConfig{ID: "h1", ParentA: "amy", ParentB: "ben"}
	provider := &stubProvider{delta: &calendar.Delta{NextSyncToken: "tok-2"}}
	sub := &store.Subscription{
		ID: uuid.NewString(), ChannelID: "chan-1", ResourceID: "res-1",
		UserID: "amy", CalendarID: "cal-amy",
		Expiration: time.Now().Add(24 * time.Hour), Status: store.SubscriptionActive,
	}
	if err := st.InsertSubscription(sub); err != nil {
		t.Fatalf("insert subscription: %v", err)
	}

	sy := syncer.New(st, provider, "h1", nil)
	sender := &collectingSender{}
	ins := insight.NewService(st, sender, openLimiter{}, household)
	p := NewPipeline(st, sy, detect.NewEngine(), ins, household)

	if err := p.HandleNotification(context.Background(), "chan-1"); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(sender.bodies) != 0 {
		t.Fatalf("empty delta produced notifications: %v", sender.bodies)
	}
}
