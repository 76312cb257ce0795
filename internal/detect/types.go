// Package detect turns a household's merged calendar events into typed
// insights. Every rule is a pure function over the analysis context; the
// engine runs them all and concatenates the results.
package detect

import "time"

// Insight types. Closed enum: detection rules are fixed, not user-programmable.
const (
	TypeCalendarGap   = "calendar_gap"
	TypeConflict      = "conflict"
	TypeCoverageGap   = "coverage_gap"
	TypeLoadImbalance = "load_imbalance"
	TypePrepReminder  = "prep_reminder"
)

// Severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Event is one calendar event in the analysis window.
type Event struct {
	ID          string
	Owner       string // parent name, or "both" for shared events
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Household is the detection context: two parent identities (the second is
// optional) and the children. Rules that need two parents no-op with one.
type Household struct {
	ID          string
	ParentA     string
	ParentB     string
	Children    []string
	Location    *time.Location
	PickupStart string // "15:04" local, default 15:00
	PickupEnd   string // default 16:30
}

// HasBothParents reports whether two-parent rules apply.
func (h Household) HasBothParents() bool {
	return h.ParentA != "" && h.ParentB != ""
}

func (h Household) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.Local
}

// Insight is one detected problem or opportunity.
type Insight struct {
	Type          string
	Severity      string
	Title         string
	Description   string
	TemplateData  map[string]any
	RelatedEvents []string
	Recipient     string
}

// Context is the input to every rule.
type Context struct {
	Household Household
	Events    []Event
	Now       time.Time
}

// Rule is a single deterministic detector.
type Rule func(ctx *Context) []Insight
