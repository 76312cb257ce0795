package store

import (
	"time"
)

// Event statuses as reported by the provider. The provider cannot distinguish
// new from changed without a local cache, so both arrive as "confirmed".
const (
	EventConfirmed = "confirmed"
	EventCancelled = "cancelled"
)

// Event is one calendar event as last seen from the provider.
type Event struct {
	ID          string
	CalendarID  string
	HouseholdID string
	Owner       string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Status      string
	UpdatedAt   time.Time
}

// UpsertEvent records an event, replacing any previous version.
func (s *Store) UpsertEvent(e *Event) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO calendar_events
		(id, calendar_id, household_id, owner, title, description, location, start_at, end_at, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(calendar_id, id) DO UPDATE SET
			owner = excluded.owner,
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		e.ID, e.CalendarID, e.HouseholdID, e.Owner, e.Title, e.Description, e.Location,
		e.Start.UTC(), e.End.UTC(), e.Status, now)
	return err
}

// DeleteEvent removes an event the provider reported as removed.
func (s *Store) DeleteEvent(calendarID, id string) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE calendar_id = ? AND id = ?`, calendarID, id)
	return err
}

// EventsForHousehold returns confirmed events for a household starting within
// [from, to), ordered by start time.
func (s *Store) EventsForHousehold(householdID string, from, to time.Time) ([]*Event, error) {
	rows, err := s.db.Query(`SELECT id, calendar_id, household_id, owner, title, description, location,
		start_at, end_at, status, updated_at
		FROM calendar_events
		WHERE household_id = ? AND status = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at ASC`,
		householdID, EventConfirmed, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CalendarID, &e.HouseholdID, &e.Owner, &e.Title,
			&e.Description, &e.Location, &e.Start, &e.End, &e.Status, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
