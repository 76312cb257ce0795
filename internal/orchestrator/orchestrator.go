// Package orchestrator coordinates the approval pipeline: classify an
// incoming action, consult trust, then execute immediately or park it as a
// pending action awaiting the household's decision.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hearth-hq/hearth/internal/action"
	"github.com/hearth-hq/hearth/internal/risk"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/trust"
)

// Executor performs an approved action against the outside world.
type Executor interface {
	Execute(ctx context.Context, actionType string, payload action.Payload) (outcome string, err error)
}

// Sender notifies a household member. Satisfied by channels.Dispatcher.
type Sender interface {
	Send(ctx context.Context, recipient, body string) error
}

// Auditor records pipeline events. Satisfied by audit.Publisher.
type Auditor interface {
	Record(ctx context.Context, event string, fields map[string]any)
}

// Result is the outcome of processing one tool call.
type Result struct {
	Action   *store.ActionRow
	Executed bool
	Outcome  string
	Reason   string
}

// Service is the approval pipeline.
type Service struct {
	workflow *action.Workflow
	trust    *trust.Service
	executor Executor
	sender   Sender
	audit    Auditor
}

// NewService wires the orchestrator. sender and audit may be nil.
func NewService(wf *action.Workflow, ts *trust.Service, ex Executor, sender Sender, audit Auditor) *Service {
	return &Service{workflow: wf, trust: ts, executor: ex, sender: sender, audit: audit}
}

// ProcessToolCall runs one requested action through the pipeline. Trusted
// actions execute immediately; everything else becomes a pending action and
// the requester is asked to confirm.
func (s *Service) ProcessToolCall(ctx context.Context, householdID, userID, actionType string, payload action.Payload) (*Result, error) {
	c := risk.Classify(actionType)
	decision, err := s.trust.ShouldAutoApprove(householdID, actionType)
	if err != nil {
		return nil, err
	}

	row, err := s.workflow.Create(householdID, userID, actionType, c.Level, payload, decision.Reason)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "action.requested", map[string]any{
		"action": row.ID, "type": actionType, "risk": string(c.Level),
		"auto_approve": decision.AutoApprove,
	})

	if decision.AutoApprove {
		approved, err := s.workflow.Approve(row.ID)
		if err != nil {
			return nil, err
		}
		return s.execute(ctx, approved, decision.Reason)
	}

	s.notify(ctx, userID, fmt.Sprintf("Approval needed: %s (%s risk). %s",
		actionType, c.Level, decision.Reason))
	return &Result{Action: row, Reason: decision.Reason}, nil
}

// ConfirmAction approves a pending action and executes it.
func (s *Service) ConfirmAction(ctx context.Context, id string) (*Result, error) {
	row, err := s.workflow.Approve(id)
	if err != nil {
		if errors.Is(err, action.ErrExpired) {
			s.record(ctx, "action.expired", map[string]any{"action": id})
		}
		return nil, err
	}
	s.record(ctx, "action.approved", map[string]any{"action": id})
	return s.execute(ctx, row, "approved by user")
}

// RejectPendingAction rejects a pending action and records the outcome.
func (s *Service) RejectPendingAction(ctx context.Context, id, reason string) (*store.ActionRow, error) {
	row, err := s.workflow.Reject(id, reason)
	if err != nil {
		return row, err
	}
	s.record(ctx, "action.rejected", map[string]any{"action": id, "reason": reason})
	return row, nil
}

// PendingActions lists actions awaiting a decision.
func (s *Service) PendingActions(householdID string) ([]*store.ActionRow, error) {
	return s.workflow.ListPending(householdID)
}

func (s *Service) execute(ctx context.Context, row *store.ActionRow, reason string) (*Result, error) {
	payload, err := action.DecodePayload(row.ActionType, row.Payload)
	if err != nil {
		if ferr := s.workflow.MarkFailed(row.ID, err.Error()); ferr != nil {
			slog.Warn("Failed to mark action failed", "action", row.ID, "error", ferr)
		}
		return nil, fmt.Errorf("decode payload for %s: %w", row.ID, err)
	}

	outcome, err := s.executor.Execute(ctx, row.ActionType, payload)
	if err != nil {
		if ferr := s.workflow.MarkFailed(row.ID, err.Error()); ferr != nil {
			slog.Warn("Failed to mark action failed", "action", row.ID, "error", ferr)
		}
		s.record(ctx, "action.failed", map[string]any{"action": row.ID, "error": err.Error()})
		return nil, fmt.Errorf("execute %s: %w", row.ActionType, err)
	}

	if err := s.workflow.MarkExecuted(row.ID, outcome); err != nil {
		return nil, err
	}
	s.record(ctx, "action.executed", map[string]any{"action": row.ID, "outcome": outcome})
	slog.Info("Action executed", "action", row.ID, "type", row.ActionType)
	return &Result{Action: row, Executed: true, Outcome: outcome, Reason: reason}, nil
}

func (s *Service) notify(ctx context.Context, recipient, body string) {
	if s.sender == nil || recipient == "" {
		return
	}
	if err := s.sender.Send(ctx, recipient, body); err != nil {
		slog.Warn("Approval notification failed", "recipient", recipient, "error", err)
	}
}

func (s *Service) record(ctx context.Context, event string, fields map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, event, fields)
}
