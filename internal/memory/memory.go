// Package memory stores typed household facts with confidence decay, so the
// assistant can recall preferences and routines without re-asking.
package memory

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/hearth-hq/hearth/internal/store"
)

// Memory kinds. Tasks created by the action executor use the open kind
// "task"; the constants below are the recall vocabulary.
const (
	KindPreference = "preference"
	KindPattern    = "pattern"
	KindFeedback   = "feedback"
	KindContext    = "context"
)

// ConfidenceFloor is the threshold below which a fact is garbage-collected.
const ConfidenceFloor = 0.1

// Fact is one remembered household fact.
type Fact struct {
	Kind       string
	Key        string
	Value      string
	Confidence float64
	Source     string
	ExpiresAt  time.Time // zero means no expiry
}

// Service is the household memory API.
type Service struct {
	store       *store.Store
	householdID string
}

// NewService creates a memory service bound to one household.
func NewService(st *store.Store, householdID string) *Service {
	return &Service{store: st, householdID: householdID}
}

// Remember stores a fact, replacing any previous value for the same kind and
// key. Confidence outside (0,1] defaults to 0.8.
func (s *Service) Remember(f Fact) error {
	if f.Confidence <= 0 || f.Confidence > 1 {
		f.Confidence = 0.8
	}
	row := &store.MemoryRow{
		HouseholdID: s.householdID,
		Kind:        f.Kind,
		Key:         f.Key,
		Value:       f.Value,
		Confidence:  f.Confidence,
		Source:      f.Source,
	}
	if !f.ExpiresAt.IsZero() {
		row.ExpiresAt = sql.NullTime{Time: f.ExpiresAt, Valid: true}
	}
	return s.store.UpsertMemory(row)
}

// Recall fetches one fact. Expired facts are treated as absent.
func (s *Service) Recall(kind, key string) (*Fact, error) {
	row, err := s.store.MemoryByKey(s.householdID, kind, key)
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt.Valid && !row.ExpiresAt.Time.After(time.Now()) {
		return nil, store.ErrNotFound
	}
	return factFromRow(row), nil
}

// RecallKind lists all unexpired facts of one kind.
func (s *Service) RecallKind(kind string) ([]*Fact, error) {
	rows, err := s.store.MemoriesByKind(s.householdID, kind)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []*Fact
	for _, row := range rows {
		if row.ExpiresAt.Valid && !row.ExpiresAt.Time.After(now) {
			continue
		}
		out = append(out, factFromRow(row))
	}
	return out, nil
}

// Reinforce nudges a fact's confidence up when it proved useful, or down when
// it was contradicted. Delta is clamped into [0,1] by the store.
func (s *Service) Reinforce(kind, key string, delta float64) error {
	return s.store.AdjustMemoryConfidence(s.householdID, kind, key, delta)
}

// CleanupExpired drops expired and low-confidence facts.
func (s *Service) CleanupExpired() (int, error) {
	n, err := s.store.CleanupMemories(time.Now(), ConfidenceFloor)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("Memories cleaned up", "deleted", n)
	}
	return n, nil
}

func factFromRow(row *store.MemoryRow) *Fact {
	f := &Fact{
		Kind:       row.Kind,
		Key:        row.Key,
		Value:      row.Value,
		Confidence: row.Confidence,
		Source:     row.Source,
	}
	if row.ExpiresAt.Valid {
		f.ExpiresAt = row.ExpiresAt.Time
	}
	return f
}
