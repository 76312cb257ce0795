// Package scheduler runs the periodic sweeps on 5-field cron expressions,
// with file-lock overlap prevention and a concurrency cap.
package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CronExpr is a parsed 5-field cron expression:
// minute, hour, day-of-month, month, day-of-week.
type CronExpr struct {
	Minute     []int
	Hour       []int
	DayOfMonth []int
	Month      []int
	DayOfWeek  []int
}

// ParseCron parses a standard 5-field cron expression.
// Supports: *, */N, N, N-M, N-M/S, comma-separated lists.
func ParseCron(expr string) (*CronExpr, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(fields))
	}

	specs := []struct {
		name     string
		min, max int
		dst      *[]int
	}{
		{"minute", 0, 59, nil},
		{"hour", 0, 23, nil},
		{"day-of-month", 1, 31, nil},
		{"month", 1, 12, nil},
		{"day-of-week", 0, 6, nil},
	}
	c := &CronExpr{}
	specs[0].dst = &c.Minute
	specs[1].dst = &c.Hour
	specs[2].dst = &c.DayOfMonth
	specs[3].dst = &c.Month
	specs[4].dst = &c.DayOfWeek

	for i, spec := range specs {
		vals, err := parseField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", spec.name, err)
		}
		*spec.dst = vals
	}
	return c, nil
}

// Matches reports whether t falls within the expression.
func (c *CronExpr) Matches(t time.Time) bool {
	return slices.Contains(c.Minute, t.Minute()) &&
		slices.Contains(c.Hour, t.Hour()) &&
		slices.Contains(c.DayOfMonth, t.Day()) &&
		slices.Contains(c.Month, int(t.Month())) &&
		slices.Contains(c.DayOfWeek, int(t.Weekday()))
}

// Next returns the first matching time after t, searching up to 2 years
// ahead. Returns the zero time if no match is found.
func (c *CronExpr) Next(t time.Time) time.Time {
	candidate := t.Truncate(time.Minute).Add(time.Minute)
	limit := t.Add(2 * 365 * 24 * time.Hour)

	for candidate.Before(limit) {
		switch {
		case !slices.Contains(c.Month, int(candidate.Month())):
			candidate = time.Date(candidate.Year(), candidate.Month()+1, 1, 0, 0, 0, 0, candidate.Location())
		case !slices.Contains(c.DayOfMonth, candidate.Day()) || !slices.Contains(c.DayOfWeek, int(candidate.Weekday())):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day()+1, 0, 0, 0, 0, candidate.Location())
		case !slices.Contains(c.Hour, candidate.Hour()):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), candidate.Hour()+1, 0, 0, 0, candidate.Location())
		case !slices.Contains(c.Minute, candidate.Minute()):
			candidate = candidate.Add(time.Minute)
		default:
			return candidate
		}
	}
	return time.Time{}
}

// parseField parses one cron field into a sorted, deduplicated value list.
func parseField(field string, min, max int) ([]int, error) {
	if field == "*" {
		return stepSlice(min, max, 1), nil
	}
	seen := map[int]bool{}
	for _, part := range strings.Split(field, ",") {
		vals, err := parsePart(part, min, max)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			seen[v] = true
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

// parsePart parses a single part: */N, N, N-M, N-M/S.
func parsePart(part string, min, max int) ([]int, error) {
	if step, ok := strings.CutPrefix(part, "*/"); ok {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid step %q", part)
		}
		return stepSlice(min, max, n), nil
	}

	if strings.Contains(part, "-") {
		rangeStr, stepStr, hasStep := strings.Cut(part, "/")
		loStr, hiStr, ok := strings.Cut(rangeStr, "-")
		if !ok {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		lo, err := strconv.Atoi(loStr)
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q", loStr)
		}
		hi, err := strconv.Atoi(hiStr)
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q", hiStr)
		}
		if lo < min || hi > max || lo > hi {
			return nil, fmt.Errorf("range %d-%d out of bounds [%d,%d]", lo, hi, min, max)
		}
		step := 1
		if hasStep {
			step, err = strconv.Atoi(stepStr)
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("invalid step in %q", part)
			}
		}
		return stepSlice(lo, hi, step), nil
	}

	val, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", part)
	}
	if val < min || val > max {
		return nil, fmt.Errorf("value %d out of bounds [%d,%d]", val, min, max)
	}
	return []int{val}, nil
}

func stepSlice(min, max, step int) []int {
	out := make([]int, 0, (max-min)/step+1)
	for i := min; i <= max; i += step {
		out = append(out, i)
	}
	return out
}
