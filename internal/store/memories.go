package store

import (
	"database/sql"
	"errors"
	"time"
)

// MemoryRow is one typed household fact.
type MemoryRow struct {
	HouseholdID string
	Kind        string
	Key         string
	Value       string
	Confidence  float64
	Source      string
	ExpiresAt   sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertMemory stores or replaces a fact.
func (s *Store) UpsertMemory(m *MemoryRow) error {
	now := time.Now().UTC()
	var expires any
	if m.ExpiresAt.Valid {
		expires = m.ExpiresAt.Time.UTC()
	}
	_, err := s.db.Exec(`INSERT INTO memories
		(household_id, kind, key, value, confidence, source, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(household_id, kind, key) DO UPDATE SET
			value = excluded.value,
			confidence = excluded.confidence,
			source = excluded.source,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		m.HouseholdID, m.Kind, m.Key, m.Value, m.Confidence, m.Source, expires, now, now)
	return err
}

// MemoryByKey fetches one fact.
func (s *Store) MemoryByKey(householdID, kind, key string) (*MemoryRow, error) {
	row := s.db.QueryRow(`SELECT household_id, kind, key, value, confidence, source,
		expires_at, created_at, updated_at
		FROM memories WHERE household_id = ? AND kind = ? AND key = ?`,
		householdID, kind, key)
	var m MemoryRow
	err := row.Scan(&m.HouseholdID, &m.Kind, &m.Key, &m.Value, &m.Confidence,
		&m.Source, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MemoriesByKind lists facts of one kind for a household.
func (s *Store) MemoriesByKind(householdID, kind string) ([]*MemoryRow, error) {
	rows, err := s.db.Query(`SELECT household_id, kind, key, value, confidence, source,
		expires_at, created_at, updated_at
		FROM memories WHERE household_id = ? AND kind = ? ORDER BY key`, householdID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MemoryRow
	for rows.Next() {
		var m MemoryRow
		if err := rows.Scan(&m.HouseholdID, &m.Kind, &m.Key, &m.Value, &m.Confidence,
			&m.Source, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// AdjustMemoryConfidence adds delta to a fact's confidence, clamped to [0,1].
func (s *Store) AdjustMemoryConfidence(householdID, kind, key string, delta float64) error {
	res, err := s.db.Exec(`UPDATE memories
		SET confidence = MAX(0.0, MIN(1.0, confidence + ?)), updated_at = ?
		WHERE household_id = ? AND kind = ? AND key = ?`,
		delta, time.Now().UTC(), householdID, kind, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CleanupMemories deletes facts past their expiry or below the confidence
// floor. Returns the number deleted.
func (s *Store) CleanupMemories(now time.Time, confidenceFloor float64) (int, error) {
	res, err := s.db.Exec(`DELETE FROM memories
		WHERE (expires_at IS NOT NULL AND expires_at <= ?) OR confidence < ?`,
		now.UTC(), confidenceFloor)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
