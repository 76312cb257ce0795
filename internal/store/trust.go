package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TrustRow holds the raw per (household, action type) outcome counters.
// The success rate is always derived, never stored.
type TrustRow struct {
	HouseholdID  string
	ActionType   string
	SuccessCount int
	FailureCount int
	RejectCount  int
	AutoApprove  bool
	LastUsedAt   sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Trust counter names accepted by IncrementTrustCounter.
const (
	TrustCounterSuccess = "success_count"
	TrustCounterFailure = "failure_count"
	TrustCounterReject  = "reject_count"
)

// IncrementTrustCounter atomically increments one outcome counter, creating
// the row on first use. The increment happens inside sqlite so concurrent
// recordings for the same key never lose updates.
func (s *Store) IncrementTrustCounter(householdID, actionType, counter string) error {
	switch counter {
	case TrustCounterSuccess, TrustCounterFailure, TrustCounterReject:
	default:
		return fmt.Errorf("unknown trust counter: %s", counter)
	}
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO trust_scores
		(household_id, action_type, %s, last_used_at, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(household_id, action_type) DO UPDATE SET
			%s = %s + 1,
			last_used_at = excluded.last_used_at,
			updated_at = excluded.updated_at`, counter, counter, counter)
	_, err := s.db.Exec(query, householdID, actionType, now, now, now)
	return err
}

// TrustRowFor returns the counters for one (household, action type) pair.
// A missing row returns zero counters, not an error: trust is created lazily.
func (s *Store) TrustRowFor(householdID, actionType string) (*TrustRow, error) {
	row := s.db.QueryRow(`SELECT household_id, action_type, success_count, failure_count,
		reject_count, auto_approve, last_used_at, created_at, updated_at
		FROM trust_scores WHERE household_id = ? AND action_type = ?`,
		householdID, actionType)
	var t TrustRow
	err := row.Scan(&t.HouseholdID, &t.ActionType, &t.SuccessCount, &t.FailureCount,
		&t.RejectCount, &t.AutoApprove, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &TrustRow{HouseholdID: householdID, ActionType: actionType}, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTrustAutoApprove sets the explicit user-controlled auto-approve flag.
func (s *Store) SetTrustAutoApprove(householdID, actionType string, enabled bool) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO trust_scores
		(household_id, action_type, auto_approve, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(household_id, action_type) DO UPDATE SET
			auto_approve = excluded.auto_approve,
			updated_at = excluded.updated_at`,
		householdID, actionType, enabled, now, now)
	return err
}

// ResetTrust deletes the counters for one action type. Explicit reset is the
// only way trust state is ever removed.
func (s *Store) ResetTrust(householdID, actionType string) error {
	_, err := s.db.Exec(`DELETE FROM trust_scores WHERE household_id = ? AND action_type = ?`,
		householdID, actionType)
	return err
}

// TrustRowsForHousehold lists all trust rows for a household.
func (s *Store) TrustRowsForHousehold(householdID string) ([]*TrustRow, error) {
	rows, err := s.db.Query(`SELECT household_id, action_type, success_count, failure_count,
		reject_count, auto_approve, last_used_at, created_at, updated_at
		FROM trust_scores WHERE household_id = ? ORDER BY action_type`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*TrustRow
	for rows.Next() {
		var t TrustRow
		if err := rows.Scan(&t.HouseholdID, &t.ActionType, &t.SuccessCount, &t.FailureCount,
			&t.RejectCount, &t.AutoApprove, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
