package store

import (
	"database/sql"
	"errors"
	"time"
)

// Insight statuses.
const (
	InsightPending  = "pending"
	InsightSent     = "sent"
	InsightResolved = "resolved"
)

// Insight is a detected scheduling problem surfaced to the household.
type Insight struct {
	ID            string
	HouseholdID   string
	Type          string
	Severity      string
	Title         string
	Description   string
	TemplateData  string // JSON blob
	RelatedEvents string // JSON array of event ids
	Recipient     string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InsertInsight persists a new insight as pending.
func (s *Store) InsertInsight(in *Insight) error {
	now := time.Now().UTC()
	in.CreatedAt = now
	in.UpdatedAt = now
	if in.Status == "" {
		in.Status = InsightPending
	}
	_, err := s.db.Exec(`INSERT INTO insights
		(id, household_id, type, severity, title, description, template_data, related_events, recipient, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.HouseholdID, in.Type, in.Severity, in.Title, in.Description,
		in.TemplateData, in.RelatedEvents, in.Recipient, in.Status, now, now)
	return err
}

// RecentDuplicateExists reports whether an insight with the same household,
// type and title was created within the window and is still pending or sent.
func (s *Store) RecentDuplicateExists(householdID, typ, title string, window time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM insights
		WHERE household_id = ? AND type = ? AND title = ?
		AND status IN (?, ?) AND created_at >= ?`,
		householdID, typ, title, InsightPending, InsightSent, cutoff).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateInsightStatus transitions an insight's status.
func (s *Store) UpdateInsightStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE insights SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsightByID fetches one insight.
func (s *Store) InsightByID(id string) (*Insight, error) {
	row := s.db.QueryRow(`SELECT id, household_id, type, severity, title, description,
		template_data, related_events, recipient, status, created_at, updated_at
		FROM insights WHERE id = ?`, id)
	var in Insight
	err := row.Scan(&in.ID, &in.HouseholdID, &in.Type, &in.Severity, &in.Title,
		&in.Description, &in.TemplateData, &in.RelatedEvents, &in.Recipient,
		&in.Status, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// InsightsByStatus lists insights in a given status, oldest first.
func (s *Store) InsightsByStatus(status string) ([]*Insight, error) {
	rows, err := s.db.Query(`SELECT id, household_id, type, severity, title, description,
		template_data, related_events, recipient, status, created_at, updated_at
		FROM insights WHERE status = ? ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Insight
	for rows.Next() {
		var in Insight
		if err := rows.Scan(&in.ID, &in.HouseholdID, &in.Type, &in.Severity, &in.Title,
			&in.Description, &in.TemplateData, &in.RelatedEvents, &in.Recipient,
			&in.Status, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}

// CountInsightsByStatus returns insight counts keyed by status.
func (s *Store) CountInsightsByStatus() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM insights GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
