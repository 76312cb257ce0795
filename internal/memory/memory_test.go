package memory

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hearth-hq/hearth/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, "h1")
}

func TestRememberAndRecall(t *testing.T) {
	svc := testService(t)
	err := svc.Remember(Fact{
		Kind: KindPreference, Key: "pickup_parent", Value: "amy",
		Confidence: 0.9, Source: "user",
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	f, err := svc.Recall(KindPreference, "pickup_parent")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if f.Value != "amy" || f.Confidence != 0.9 {
		t.Fatalf("fact = %+v", f)
	}
}

func TestRememberReplacesValue(t *testing.T) {
	svc := testService(t)
	svc.Remember(Fact{Kind: KindPattern, Key: "soccer_day", Value: "tuesday"})
	svc.Remember(Fact{Kind: KindPattern, Key: "soccer_day", Value: "thursday"})
	f, err := svc.Recall(KindPattern, "soccer_day")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if f.Value != "thursday" {
		t.Fatalf("value = %q, want thursday", f.Value)
	}
}

func TestRecallMissingFact(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Recall(KindFeedback, "nothing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiredFactIsAbsent(t *testing.T) {
	svc := testService(t)
	svc.Remember(Fact{
		Kind: KindFeedback, Key: "substitute_sitter", Value: "carla",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	if _, err := svc.Recall(KindFeedback, "substitute_sitter"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired fact absent, got %v", err)
	}
}

func TestRecallKindSkipsExpired(t *testing.T) {
	svc := testService(t)
	svc.Remember(Fact{Kind: KindContext, Key: "coach", Value: "dan"})
	svc.Remember(Fact{Kind: KindContext, Key: "old_coach", Value: "pat",
		ExpiresAt: time.Now().Add(-time.Minute)})
	facts, err := svc.RecallKind(KindContext)
	if err != nil {
		t.Fatalf("RecallKind: %v", err)
	}
	if len(facts) != 1 || facts[0].Key != "coach" {
		t.Fatalf("facts = %+v", facts)
	}
}

func TestReinforceClampsAndCleanup(t *testing.T) {
	svc := testService(t)
	svc.Remember(Fact{Kind: KindPreference, Key: "shaky", Value: "x", Confidence: 0.2})

	if err := svc.Reinforce(KindPreference, "shaky", -0.5); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}
	f, err := svc.Recall(KindPreference, "shaky")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if f.Confidence != 0 {
		t.Fatalf("confidence = %v, want clamped to 0", f.Confidence)
	}

	n, err := svc.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if _, err := svc.Recall(KindPreference, "shaky"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("low-confidence fact survived cleanup: %v", err)
	}
}

func TestDefaultConfidence(t *testing.T) {
	svc := testService(t)
	svc.Remember(Fact{Kind: KindFeedback, Key: "k", Value: "v"})
	f, _ := svc.Recall(KindFeedback, "k")
	if f.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want default 0.8", f.Confidence)
	}
}
