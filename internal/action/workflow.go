// Package action implements the pending-action approval state machine.
//
// Lifecycle: pending -> approved -> executed|failed, pending -> rejected,
// pending -> expired (lazy, checked at approval time, plus a periodic sweep).
package action

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hearth-hq/hearth/internal/risk"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/trust"
)

// Expected-condition errors. Webhook redelivery and racing approvals make
// these normal results, not failures.
var (
	ErrNotPending  = errors.New("action: not pending")
	ErrNotApproved = errors.New("action: not approved")
	ErrExpired     = errors.New("action: expired")
)

// OutcomeRecorder is the narrow trust interface the workflow depends on.
// The orchestrator composes the full trust service; the workflow never
// imports its own composer.
type OutcomeRecorder interface {
	RecordOutcome(householdID, actionType string, outcome trust.Outcome) error
}

// expiration windows by risk level. Critical gets a deliberately short
// window to force re-evaluation.
var expirationWindows = map[risk.Level]time.Duration{
	risk.LevelLow:      time.Hour,
	risk.LevelMedium:   24 * time.Hour,
	risk.LevelHigh:     7 * 24 * time.Hour,
	risk.LevelCritical: 24 * time.Hour,
}

// terminalRetention is how long terminal rows are kept before cleanup.
const terminalRetention = 30 * 24 * time.Hour

// Workflow manages pending actions.
type Workflow struct {
	store    *store.Store
	outcomes OutcomeRecorder
	now      func() time.Time
}

// NewWorkflow creates a workflow. outcomes may not be nil.
func NewWorkflow(st *store.Store, outcomes OutcomeRecorder) *Workflow {
	return &Workflow{store: st, outcomes: outcomes, now: time.Now}
}

// Create persists a new pending action. The risk level is snapshotted at
// creation time and drives the expiration window.
func (w *Workflow) Create(householdID, userID, actionType string, level risk.Level, payload Payload, reason string) (*store.ActionRow, error) {
	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	window, ok := expirationWindows[level]
	if !ok {
		window = 24 * time.Hour
	}
	row := &store.ActionRow{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		UserID:      userID,
		ActionType:  actionType,
		RiskLevel:   string(level),
		Payload:     encoded,
		Reason:      reason,
		ExpiresAt:   w.now().Add(window),
	}
	if err := w.store.InsertPendingAction(row); err != nil {
		return nil, fmt.Errorf("create pending action: %w", err)
	}
	slog.Info("Pending action created",
		"id", row.ID, "type", actionType, "risk", level, "expires_at", row.ExpiresAt)
	return row, nil
}

// Get fetches one action.
func (w *Workflow) Get(id string) (*store.ActionRow, error) {
	return w.store.ActionByID(id)
}

// Approve transitions a pending action to approved. If the action's
// expiration has already passed it is transitioned to expired instead and
// ErrExpired is returned.
func (w *Workflow) Approve(id string) (*store.ActionRow, error) {
	row, err := w.store.ActionByID(id)
	if err != nil {
		return nil, err
	}
	if row.Status != store.ActionPending {
		return row, ErrNotPending
	}
	if w.now().After(row.ExpiresAt) {
		if err := w.store.TransitionAction(id, store.ActionPending, store.ActionExpired, "", false); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return row, ErrExpired
	}
	if err := w.store.TransitionAction(id, store.ActionPending, store.ActionApproved, "", true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return row, ErrNotPending
		}
		return nil, err
	}
	return w.store.ActionByID(id)
}

// Reject transitions a pending action to rejected and records a rejected
// trust outcome.
func (w *Workflow) Reject(id, reason string) (*store.ActionRow, error) {
	row, err := w.store.ActionByID(id)
	if err != nil {
		return nil, err
	}
	if row.Status != store.ActionPending {
		return row, ErrNotPending
	}
	if err := w.store.TransitionAction(id, store.ActionPending, store.ActionRejected, reason, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return row, ErrNotPending
		}
		return nil, err
	}
	if err := w.outcomes.RecordOutcome(row.HouseholdID, row.ActionType, trust.OutcomeRejected); err != nil {
		slog.Warn("Failed to record rejection outcome", "action", id, "error", err)
	}
	return w.store.ActionByID(id)
}

// MarkExecuted transitions an approved action to executed and records a
// success trust outcome.
func (w *Workflow) MarkExecuted(id, outcome string) error {
	row, err := w.store.ActionByID(id)
	if err != nil {
		return err
	}
	if row.Status != store.ActionApproved {
		return ErrNotApproved
	}
	if err := w.store.TransitionAction(id, store.ActionApproved, store.ActionExecuted, outcome, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotApproved
		}
		return err
	}
	if err := w.outcomes.RecordOutcome(row.HouseholdID, row.ActionType, trust.OutcomeSuccess); err != nil {
		slog.Warn("Failed to record success outcome", "action", id, "error", err)
	}
	return nil
}

// MarkFailed transitions an approved action to failed and records a failure
// trust outcome.
func (w *Workflow) MarkFailed(id, errText string) error {
	row, err := w.store.ActionByID(id)
	if err != nil {
		return err
	}
	if row.Status != store.ActionApproved {
		return ErrNotApproved
	}
	if err := w.store.TransitionAction(id, store.ActionApproved, store.ActionFailed, errText, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotApproved
		}
		return err
	}
	if err := w.outcomes.RecordOutcome(row.HouseholdID, row.ActionType, trust.OutcomeFailure); err != nil {
		slog.Warn("Failed to record failure outcome", "action", id, "error", err)
	}
	return nil
}

// ExpireStale transitions all pending actions past their expiration to
// expired. Idempotent; safe to run redundantly.
func (w *Workflow) ExpireStale() (int, error) {
	return w.store.ExpireStaleActions(w.now())
}

// CleanupTerminal deletes terminal rows older than the retention window.
func (w *Workflow) CleanupTerminal() (int, error) {
	return w.store.DeleteTerminalActionsBefore(w.now().Add(-terminalRetention))
}

// ListPending lists pending actions for a household.
func (w *Workflow) ListPending(householdID string) ([]*store.ActionRow, error) {
	return w.store.ActionsByStatus(householdID, store.ActionPending)
}
