// Package trust tracks per-household automation outcomes and decides when
// action types have earned auto-approval.
package trust

import (
	"fmt"
	"time"

	"github.com/hearth-hq/hearth/internal/risk"
	"github.com/hearth-hq/hearth/internal/store"
)

// Outcome is one recorded automation result.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeRejected Outcome = "rejected"
)

// Score is the derived trust state for one (household, action type) pair.
type Score struct {
	HouseholdID    string
	ActionType     string
	SuccessCount   int
	FailureCount   int
	RejectCount    int
	SuccessRate    float64
	AutoApprove    bool // explicit user-set flag; the only thing that licenses execution
	CanAutoApprove bool // informational: thresholds met, user could enable the flag
	LastUsedAt     time.Time
}

// Decision is the result of an auto-approval check.
type Decision struct {
	AutoApprove bool
	Reason      string
}

// threshold is the bar an action type must clear before auto-approval can be
// suggested.
type threshold struct {
	minSuccesses   int
	minSuccessRate float64
}

// thresholds per risk level. Critical is unreachable: no amount of history
// earns automatic execution.
var thresholds = map[risk.Level]threshold{
	risk.LevelLow:      {minSuccesses: 3, minSuccessRate: 0.90},
	risk.LevelMedium:   {minSuccesses: 5, minSuccessRate: 0.95},
	risk.LevelHigh:     {minSuccesses: 10, minSuccessRate: 0.98},
	risk.LevelCritical: {minSuccesses: int(^uint(0) >> 1), minSuccessRate: 1.0},
}

// Service derives trust scores from stored counters.
type Service struct {
	store *store.Store
}

// NewService creates a trust service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// GetTrust returns the derived trust score for an action type. The success
// rate is always recomputed from raw counters.
func (s *Service) GetTrust(householdID, actionType string) (*Score, error) {
	row, err := s.store.TrustRowFor(householdID, actionType)
	if err != nil {
		return nil, fmt.Errorf("trust lookup %s/%s: %w", householdID, actionType, err)
	}
	score := &Score{
		HouseholdID:  row.HouseholdID,
		ActionType:   row.ActionType,
		SuccessCount: row.SuccessCount,
		FailureCount: row.FailureCount,
		RejectCount:  row.RejectCount,
		AutoApprove:  row.AutoApprove,
	}
	if row.LastUsedAt.Valid {
		score.LastUsedAt = row.LastUsedAt.Time
	}
	total := row.SuccessCount + row.FailureCount + row.RejectCount
	if total > 0 {
		score.SuccessRate = float64(row.SuccessCount) / float64(total)
	}

	level := risk.Classify(actionType).Level
	th := thresholds[level]
	score.CanAutoApprove = level != risk.LevelCritical &&
		row.SuccessCount >= th.minSuccesses &&
		score.SuccessRate >= th.minSuccessRate
	return score, nil
}

// RecordOutcome atomically increments the matching counter. Each call
// represents one real outcome; concurrent calls for the same key are safe.
func (s *Service) RecordOutcome(householdID, actionType string, outcome Outcome) error {
	var counter string
	switch outcome {
	case OutcomeSuccess:
		counter = store.TrustCounterSuccess
	case OutcomeFailure:
		counter = store.TrustCounterFailure
	case OutcomeRejected:
		counter = store.TrustCounterReject
	default:
		return fmt.Errorf("unknown trust outcome: %s", outcome)
	}
	return s.store.IncrementTrustCounter(householdID, actionType, counter)
}

// SetAutoApprove sets the explicit user-controlled flag for an action type.
func (s *Service) SetAutoApprove(householdID, actionType string, enabled bool) error {
	return s.store.SetTrustAutoApprove(householdID, actionType, enabled)
}

// Reset clears all trust state for an action type.
func (s *Service) Reset(householdID, actionType string) error {
	return s.store.ResetTrust(householdID, actionType)
}

// List returns derived scores for every action type the household has history
// or flags for.
func (s *Service) List(householdID string) ([]*Score, error) {
	rows, err := s.store.TrustRowsForHousehold(householdID)
	if err != nil {
		return nil, err
	}
	out := make([]*Score, 0, len(rows))
	for _, row := range rows {
		score, err := s.GetTrust(row.HouseholdID, row.ActionType)
		if err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	return out, nil
}

// ShouldAutoApprove decides whether an action may execute without user
// confirmation.
func (s *Service) ShouldAutoApprove(householdID, actionType string) (Decision, error) {
	c := risk.Classify(actionType)

	// Critical actions are never auto-approved, regardless of flags.
	if c.Level == risk.LevelCritical {
		return Decision{AutoApprove: false, Reason: "critical-risk actions always require approval"}, nil
	}

	// Low-risk reads have no side effects.
	if c.Level == risk.LevelLow && c.Category == risk.CategoryRead {
		return Decision{AutoApprove: true, Reason: "low-risk read action"}, nil
	}

	score, err := s.GetTrust(householdID, actionType)
	if err != nil {
		return Decision{}, err
	}

	// Only the explicit user flag licenses automatic execution.
	if score.AutoApprove {
		return Decision{AutoApprove: true, Reason: fmt.Sprintf("auto-approval enabled for %s", actionType)}, nil
	}

	// Thresholds met but flag unset: surface a suggestion, not an approval.
	if score.CanAutoApprove {
		return Decision{
			AutoApprove: false,
			Reason: fmt.Sprintf("%s has earned trust (%d successes, %.0f%% success rate); enable auto-approval to skip confirmation",
				actionType, score.SuccessCount, score.SuccessRate*100),
		}, nil
	}

	return Decision{
		AutoApprove: false,
		Reason:      fmt.Sprintf("%s-risk action requires approval", c.Level),
	}, nil
}
