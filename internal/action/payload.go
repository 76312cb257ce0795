package action

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the typed action payload union. Each action type maps to one
// variant; unrecognized types fall through to the Unknown catch-all rather
// than an untyped blob.
type Payload interface {
	isPayload()
}

// CalendarWrite is the payload for calendar-mutating actions
// (createEvent, updateEvent, moveEvent, deleteEvent).
type CalendarWrite struct {
	CalendarID string    `json:"calendar_id"`
	EventID    string    `json:"event_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Start      time.Time `json:"start,omitempty"`
	End        time.Time `json:"end,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Notification is the payload for outbound messages
// (sendReminder, sendMessage).
type Notification struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

// TaskWrite is the payload for household task actions
// (createTask, completeTask).
type TaskWrite struct {
	TaskID   string    `json:"task_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Assignee string    `json:"assignee,omitempty"`
	Due      time.Time `json:"due,omitempty"`
}

// Coordination is the payload for multi-party actions
// (proposeSwap, confirmPlans, shareCalendar, cancelExternal).
type Coordination struct {
	Counterparty string `json:"counterparty"`
	Proposal     string `json:"proposal"`
	EventID      string `json:"event_id,omitempty"`
}

// Unknown carries the payload of an unrecognized action type verbatim.
type Unknown struct {
	Data json.RawMessage `json:"data"`
}

func (CalendarWrite) isPayload() {}
func (Notification) isPayload()  {}
func (TaskWrite) isPayload()     {}
func (Coordination) isPayload()  {}
func (Unknown) isPayload()       {}

// EncodePayload serializes a payload for storage.
func EncodePayload(p Payload) (string, error) {
	if p == nil {
		return "{}", nil
	}
	if u, ok := p.(Unknown); ok {
		if len(u.Data) == 0 {
			return "{}", nil
		}
		return string(u.Data), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload deserializes a stored payload into the variant for the
// action type.
func DecodePayload(actionType, data string) (Payload, error) {
	raw := []byte(data)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch actionType {
	case "createEvent", "updateEvent", "moveEvent", "deleteEvent":
		var p CalendarWrite
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", actionType, err)
		}
		return p, nil
	case "sendReminder", "sendMessage":
		var p Notification
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", actionType, err)
		}
		return p, nil
	case "createTask", "completeTask":
		var p TaskWrite
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", actionType, err)
		}
		return p, nil
	case "proposeSwap", "confirmPlans", "shareCalendar", "cancelExternal":
		var p Coordination
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", actionType, err)
		}
		return p, nil
	default:
		return Unknown{Data: json.RawMessage(raw)}, nil
	}
}
