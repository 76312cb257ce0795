// Package risk provides the static action-type risk taxonomy.
package risk

// Category describes what kind of side effect an action has.
type Category string

const (
	CategoryRead          Category = "read"
	CategoryWriteInternal Category = "write_internal"
	CategoryWriteCalendar Category = "write_calendar"
	CategoryWriteExternal Category = "write_external"
	CategoryCoordination  Category = "coordination"
)

// Level is the static risk severity of an action type.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Classification is the static risk profile of an action type.
type Classification struct {
	Category    Category
	Level       Level
	Description string
}

// table maps known action types to their classification. Anything not listed
// here is treated as an external write at high risk so unrecognized
// automation is never silently auto-approved.
var table = map[string]Classification{
	// Reads: no side effects.
	"queryWeek":     {CategoryRead, LevelLow, "summarize the week's schedule"},
	"queryDay":      {CategoryRead, LevelLow, "summarize a single day"},
	"queryEvents":   {CategoryRead, LevelLow, "look up calendar events"},
	"queryConflict": {CategoryRead, LevelLow, "check two events for overlap"},

	// Internal writes: only hearth's own state changes.
	"createTask":       {CategoryWriteInternal, LevelLow, "add an item to the household task list"},
	"completeTask":     {CategoryWriteInternal, LevelLow, "mark a household task done"},
	"rememberFact":     {CategoryWriteInternal, LevelLow, "store a household preference or fact"},
	"updatePreference": {CategoryWriteInternal, LevelMedium, "change a stored household preference"},

	// Calendar writes: visible on the household's calendars.
	"createEvent": {CategoryWriteCalendar, LevelMedium, "create a calendar event"},
	"updateEvent": {CategoryWriteCalendar, LevelMedium, "modify a calendar event"},
	"moveEvent":   {CategoryWriteCalendar, LevelMedium, "reschedule a calendar event"},
	"deleteEvent": {CategoryWriteCalendar, LevelHigh, "delete a calendar event"},

	// External writes: messages leaving the household.
	"sendReminder": {CategoryWriteExternal, LevelMedium, "send a reminder to a household member"},
	"sendMessage":  {CategoryWriteExternal, LevelHigh, "send a message to an outside contact"},

	// Coordination: multi-party commitments on the household's behalf.
	"proposeSwap":    {CategoryCoordination, LevelHigh, "propose a pickup/dropoff swap with another family"},
	"confirmPlans":   {CategoryCoordination, LevelHigh, "confirm plans with an outside party"},
	"shareCalendar":  {CategoryCoordination, LevelCritical, "grant an outside party access to a calendar"},
	"cancelExternal": {CategoryCoordination, LevelCritical, "cancel a commitment involving other families"},
}

// Classify returns the risk profile of an action type. Total: unknown types
// get the conservative {write_external, high} default.
func Classify(actionType string) Classification {
	if c, ok := table[actionType]; ok {
		return c
	}
	return Classification{
		Category:    CategoryWriteExternal,
		Level:       LevelHigh,
		Description: "unrecognized action type",
	}
}
