package detect

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// childKeywords marks an event as child-relevant even when no child is named.
var childKeywords = []string{
	"school", "pickup", "drop off", "dropoff", "recital", "practice",
	"playdate", "field trip", "pediatric", "daycare", "carpool", "tutoring",
}

// prepTexts maps activity keywords to a prep reminder line.
var prepTexts = map[string]string{
	"soccer":   "Gear packed? Cleats, shin guards, water bottle.",
	"swim":     "Swimsuit, towel and goggles in the bag?",
	"recital":  "Outfit ready and arrival time confirmed?",
	"birthday": "Gift wrapped and card signed?",
	"school":   "Backpack packed and lunch sorted?",
	"dentist":  "Insurance card and paperwork ready?",
	"camping":  "Sleeping bags, flashlights and snacks packed?",
}

// CalendarGaps flags child-relevant events one parent has that the other
// doesn't. Requires both parents.
func CalendarGaps(ctx *Context) []Insight {
	h := ctx.Household
	if !h.HasBothParents() {
		return nil
	}
	var out []Insight
	for _, ev := range ctx.Events {
		if ev.Owner != h.ParentA && ev.Owner != h.ParentB {
			continue
		}
		if !childRelevant(ev, h.Children) {
			continue
		}
		other := h.ParentB
		if ev.Owner == h.ParentB {
			other = h.ParentA
		}
		if hasSimilarEvent(ctx.Events, ev, other) {
			continue
		}
		out = append(out, Insight{
			Type:     TypeCalendarGap,
			Severity: SeverityMedium,
			Title:    fmt.Sprintf("%s isn't on %s's calendar", ev.Title, other),
			Description: fmt.Sprintf("%s has %q on %s but %s has nothing similar that day.",
				ev.Owner, ev.Title, ev.Start.In(h.location()).Format("Mon Jan 2"), other),
			TemplateData: map[string]any{
				"event_title": ev.Title,
				"event_owner": ev.Owner,
				"event_start": ev.Start,
			},
			RelatedEvents: []string{ev.ID},
			Recipient:     other,
		})
	}
	return out
}

// Conflicts flags overlapping events across the two parents. Events owned by
// "both" are excluded; a pair is reported once via a canonical unordered key.
func Conflicts(ctx *Context) []Insight {
	h := ctx.Household
	if !h.HasBothParents() {
		return nil
	}
	seen := map[string]bool{}
	var out []Insight
	for _, a := range ctx.Events {
		if a.Owner != h.ParentA {
			continue
		}
		for _, b := range ctx.Events {
			if b.Owner != h.ParentB {
				continue
			}
			if !overlaps(a, b) {
				continue
			}
			key := pairKey(a.ID, b.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Insight{
				Type:     TypeConflict,
				Severity: SeverityHigh,
				Title:    fmt.Sprintf("Schedule conflict: %s / %s", a.Title, b.Title),
				Description: fmt.Sprintf("%s's %q (%s) overlaps %s's %q (%s).",
					a.Owner, a.Title, timeRange(a, h.location()),
					b.Owner, b.Title, timeRange(b, h.location())),
				TemplateData: map[string]any{
					"event_a": a.Title,
					"event_b": b.Title,
				},
				RelatedEvents: []string{a.ID, b.ID},
			})
		}
	}
	return out
}

// CoverageGaps flags weekdays in the next 7 days where both parents are busy
// during the pickup window. Requires both parents and at least one child.
func CoverageGaps(ctx *Context) []Insight {
	h := ctx.Household
	if !h.HasBothParents() || len(h.Children) == 0 {
		return nil
	}
	loc := h.location()
	var out []Insight
	for day := 1; day <= 7; day++ {
		date := ctx.Now.In(loc).AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		winStart, winEnd := pickupWindow(date, h)
		busyA := busyDuring(ctx.Events, h.ParentA, winStart, winEnd)
		busyB := busyDuring(ctx.Events, h.ParentB, winStart, winEnd)
		if len(busyA) == 0 || len(busyB) == 0 {
			continue
		}
		related := append(eventIDs(busyA), eventIDs(busyB)...)
		out = append(out, Insight{
			Type:     TypeCoverageGap,
			Severity: SeverityHigh,
			Title:    fmt.Sprintf("No pickup coverage %s", date.Format("Mon Jan 2")),
			Description: fmt.Sprintf("Both %s and %s are booked during the %s–%s pickup window on %s.",
				h.ParentA, h.ParentB, h.pickupStart(), h.pickupEnd(), date.Format("Monday Jan 2")),
			TemplateData: map[string]any{
				"date":         date.Format("2006-01-02"),
				"window_start": h.pickupStart(),
				"window_end":   h.pickupEnd(),
			},
			RelatedEvents: related,
		})
	}
	return out
}

// LoadImbalance flags when one parent carries more than twice the other's
// event count and more than 5 events. At most one insight per run.
func LoadImbalance(ctx *Context) []Insight {
	h := ctx.Household
	if !h.HasBothParents() {
		return nil
	}
	countA, countB := 0, 0
	for _, ev := range ctx.Events {
		switch ev.Owner {
		case h.ParentA:
			countA++
		case h.ParentB:
			countB++
		}
	}
	heavy, light, heavyCount, lightCount := h.ParentA, h.ParentB, countA, countB
	if countB > countA {
		heavy, light, heavyCount, lightCount = h.ParentB, h.ParentA, countB, countA
	}
	if heavyCount <= 5 || heavyCount <= 2*lightCount {
		return nil
	}
	return []Insight{{
		Type:     TypeLoadImbalance,
		Severity: SeverityLow,
		Title:    fmt.Sprintf("%s is carrying most of the schedule", heavy),
		Description: fmt.Sprintf("%s has %d events to %s's %d this week. Worth rebalancing?",
			heavy, heavyCount, light, lightCount),
		TemplateData: map[string]any{
			"heavy_parent": heavy,
			"heavy_count":  heavyCount,
			"light_parent": light,
			"light_count":  lightCount,
		},
	}}
}

// PrepReminders produces a reminder for each event starting tomorrow whose
// title matches a prep keyword. No match, no insight.
func PrepReminders(ctx *Context) []Insight {
	loc := ctx.Household.location()
	tomorrow := ctx.Now.In(loc).AddDate(0, 0, 1)
	var out []Insight
	for _, ev := range ctx.Events {
		if !sameDay(ev.Start.In(loc), tomorrow) {
			continue
		}
		text, keyword := prepTextFor(ev.Title)
		if text == "" {
			continue
		}
		out = append(out, Insight{
			Type:     TypePrepReminder,
			Severity: SeverityMedium,
			Title:    fmt.Sprintf("Tomorrow: %s", ev.Title),
			Description: fmt.Sprintf("%s starts %s. %s",
				ev.Title, ev.Start.In(loc).Format("15:04"), text),
			TemplateData: map[string]any{
				"keyword":     keyword,
				"event_title": ev.Title,
				"event_start": ev.Start,
			},
			RelatedEvents: []string{ev.ID},
			Recipient:     ev.Owner,
		})
	}
	return out
}

// --- helpers ---

// timeRange renders an event's start and end as local clock times.
func timeRange(ev Event, loc *time.Location) string {
	return ev.Start.In(loc).Format("15:04") + "–" + ev.End.In(loc).Format("15:04")
}

func overlaps(a, b Event) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// pairKey builds a canonical unordered key so (a,b) and (b,a) collapse.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func childRelevant(ev Event, children []string) bool {
	text := strings.ToLower(ev.Title + " " + ev.Description)
	for _, child := range children {
		if child != "" && strings.Contains(text, strings.ToLower(child)) {
			return true
		}
	}
	for _, kw := range childKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// hasSimilarEvent reports whether owner has an event on the same calendar day
// with a substring-overlapping title.
func hasSimilarEvent(events []Event, ev Event, owner string) bool {
	for _, other := range events {
		if other.Owner != owner && other.Owner != "both" {
			continue
		}
		if !sameDay(other.Start, ev.Start) {
			continue
		}
		if titlesOverlap(ev.Title, other.Title) {
			return true
		}
	}
	return false
}

func titlesOverlap(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	for _, word := range strings.Fields(la) {
		if len(word) >= 4 && strings.Contains(lb, word) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func busyDuring(events []Event, owner string, start, end time.Time) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Owner != owner {
			continue
		}
		if ev.Start.Before(end) && start.Before(ev.End) {
			out = append(out, ev)
		}
	}
	return out
}

func eventIDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func pickupWindow(date time.Time, h Household) (time.Time, time.Time) {
	loc := h.location()
	start := atClock(date, h.pickupStart(), loc)
	end := atClock(date, h.pickupEnd(), loc)
	return start, end
}

func atClock(date time.Time, clock string, loc *time.Location) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		t, _ = time.Parse("15:04", "15:00")
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func (h Household) pickupStart() string {
	if h.PickupStart != "" {
		return h.PickupStart
	}
	return "15:00"
}

func (h Household) pickupEnd() string {
	if h.PickupEnd != "" {
		return h.PickupEnd
	}
	return "16:30"
}

// prepTextFor returns the prep line for the first matching keyword, scanning
// keywords in sorted order so the result is deterministic.
func prepTextFor(title string) (text, keyword string) {
	lower := strings.ToLower(title)
	keys := make([]string, 0, len(prepTexts))
	for k := range prepTexts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return prepTexts[k], k
		}
	}
	return "", ""
}
