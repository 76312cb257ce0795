package store

import (
	"database/sql"
	"errors"
	"time"
)

// Pending action statuses. pending is initial; executed, failed, rejected and
// expired are terminal.
const (
	ActionPending  = "pending"
	ActionApproved = "approved"
	ActionExecuted = "executed"
	ActionFailed   = "failed"
	ActionRejected = "rejected"
	ActionExpired  = "expired"
)

// ActionRow is one proposed automation instance.
type ActionRow struct {
	ID          string
	HouseholdID string
	UserID      string
	ActionType  string
	RiskLevel   string
	Payload     string // JSON, tagged by action type
	Reason      string
	Status      string
	Outcome     string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DecidedAt   sql.NullTime
	FinishedAt  sql.NullTime
}

// InsertPendingAction persists a new pending action.
func (s *Store) InsertPendingAction(a *ActionRow) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Status = ActionPending
	_, err := s.db.Exec(`INSERT INTO pending_actions
		(id, household_id, user_id, action_type, risk_level, payload, reason, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.HouseholdID, a.UserID, a.ActionType, a.RiskLevel, a.Payload,
		a.Reason, a.Status, a.ExpiresAt.UTC(), now, now)
	return err
}

// ActionByID fetches one action.
func (s *Store) ActionByID(id string) (*ActionRow, error) {
	row := s.db.QueryRow(`SELECT id, household_id, user_id, action_type, risk_level, payload,
		reason, status, outcome, expires_at, created_at, updated_at, decided_at, finished_at
		FROM pending_actions WHERE id = ?`, id)
	return scanAction(row)
}

// TransitionAction moves an action from one status to another with a
// compare-and-swap so concurrent transitions cannot both win. Returns
// ErrNotFound when the action is missing or no longer in the from status.
func (s *Store) TransitionAction(id, from, to, outcome string, decided bool) error {
	now := time.Now().UTC()
	var res sql.Result
	var err error
	switch {
	case decided && isTerminal(to):
		res, err = s.db.Exec(`UPDATE pending_actions
			SET status = ?, outcome = ?, updated_at = ?, decided_at = ?, finished_at = ?
			WHERE id = ? AND status = ?`, to, outcome, now, now, now, id, from)
	case decided:
		res, err = s.db.Exec(`UPDATE pending_actions
			SET status = ?, outcome = ?, updated_at = ?, decided_at = ?
			WHERE id = ? AND status = ?`, to, outcome, now, now, id, from)
	case isTerminal(to):
		res, err = s.db.Exec(`UPDATE pending_actions
			SET status = ?, outcome = ?, updated_at = ?, finished_at = ?
			WHERE id = ? AND status = ?`, to, outcome, now, now, id, from)
	default:
		res, err = s.db.Exec(`UPDATE pending_actions
			SET status = ?, outcome = ?, updated_at = ?
			WHERE id = ? AND status = ?`, to, outcome, now, id, from)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireStaleActions transitions all pending actions past their expiration to
// expired. Idempotent; safe to run redundantly.
func (s *Store) ExpireStaleActions(now time.Time) (int, error) {
	res, err := s.db.Exec(`UPDATE pending_actions
		SET status = ?, updated_at = ?, finished_at = ?
		WHERE status = ? AND expires_at <= ?`,
		ActionExpired, now.UTC(), now.UTC(), ActionPending, now.UTC())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteTerminalActionsBefore removes terminal actions finished before cutoff.
func (s *Store) DeleteTerminalActionsBefore(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM pending_actions
		WHERE status IN (?, ?, ?, ?) AND updated_at < ?`,
		ActionExecuted, ActionFailed, ActionRejected, ActionExpired, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ActionsByStatus lists actions for a household in a given status.
func (s *Store) ActionsByStatus(householdID, status string) ([]*ActionRow, error) {
	rows, err := s.db.Query(`SELECT id, household_id, user_id, action_type, risk_level, payload,
		reason, status, outcome, expires_at, created_at, updated_at, decided_at, finished_at
		FROM pending_actions WHERE household_id = ? AND status = ? ORDER BY created_at DESC`,
		householdID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ActionRow
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAction(row interface{ Scan(...any) error }) (*ActionRow, error) {
	var a ActionRow
	err := row.Scan(&a.ID, &a.HouseholdID, &a.UserID, &a.ActionType, &a.RiskLevel,
		&a.Payload, &a.Reason, &a.Status, &a.Outcome, &a.ExpiresAt,
		&a.CreatedAt, &a.UpdatedAt, &a.DecidedAt, &a.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isTerminal(status string) bool {
	switch status {
	case ActionExecuted, ActionFailed, ActionRejected, ActionExpired:
		return true
	}
	return false
}
