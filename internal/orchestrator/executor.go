package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hearth-hq/hearth/internal/action"
	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/memory"
)

// ActionExecutor performs approved actions against the calendar, the
// notification channels and the household memory.
type ActionExecutor struct {
	writer calendar.Writer
	sender Sender
	memory *memory.Service
	userID string
}

// NewActionExecutor creates the default executor. Any collaborator may be
// nil; actions needing a missing one fail with a clear error instead of
// panicking.
func NewActionExecutor(writer calendar.Writer, sender Sender, mem *memory.Service, userID string) *ActionExecutor {
	return &ActionExecutor{writer: writer, sender: sender, memory: mem, userID: userID}
}

// Execute dispatches on the action type and its decoded payload.
func (e *ActionExecutor) Execute(ctx context.Context, actionType string, payload action.Payload) (string, error) {
	switch p := payload.(type) {
	case action.CalendarWrite:
		return e.executeCalendar(ctx, actionType, p)
	case action.Notification:
		if e.sender == nil {
			return "", fmt.Errorf("no notification channel configured")
		}
		if err := e.sender.Send(ctx, p.Recipient, p.Body); err != nil {
			return "", err
		}
		return fmt.Sprintf("message sent to %s", p.Recipient), nil
	case action.TaskWrite:
		return e.executeTask(actionType, p)
	case action.Coordination:
		// Multi-party coordination goes out as a message to the counterparty;
		// the counterparty's reply arrives through normal channels.
		if e.sender == nil {
			return "", fmt.Errorf("no notification channel configured")
		}
		if err := e.sender.Send(ctx, p.Counterparty, p.Proposal); err != nil {
			return "", err
		}
		return fmt.Sprintf("proposal sent to %s", p.Counterparty), nil
	default:
		return "", fmt.Errorf("no executor for action type %s", actionType)
	}
}

func (e *ActionExecutor) executeCalendar(ctx context.Context, actionType string, p action.CalendarWrite) (string, error) {
	if e.writer == nil {
		return "", fmt.Errorf("no calendar writer configured")
	}
	ev := calendar.Event{
		ID:          p.EventID,
		CalendarID:  p.CalendarID,
		Title:       p.Title,
		Description: p.Notes,
		Start:       p.Start,
		End:         p.End,
	}
	switch actionType {
	case "createEvent":
		id, err := e.writer.CreateEvent(ctx, e.userID, ev)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("event %s created", id), nil
	case "updateEvent", "moveEvent":
		if err := e.writer.UpdateEvent(ctx, e.userID, ev); err != nil {
			return "", err
		}
		return fmt.Sprintf("event %s updated", p.EventID), nil
	case "deleteEvent":
		if err := e.writer.DeleteEvent(ctx, e.userID, p.CalendarID, p.EventID); err != nil {
			return "", err
		}
		return fmt.Sprintf("event %s deleted", p.EventID), nil
	default:
		return "", fmt.Errorf("no calendar executor for %s", actionType)
	}
}

// executeTask keeps household tasks as memory facts: cheap, queryable and
// visible to the recall path.
func (e *ActionExecutor) executeTask(actionType string, p action.TaskWrite) (string, error) {
	if e.memory == nil {
		return "", fmt.Errorf("no memory store configured")
	}
	key := p.TaskID
	if key == "" {
		key = p.Title
	}
	switch actionType {
	case "createTask":
		value := p.Title
		if p.Assignee != "" {
			value = fmt.Sprintf("%s (assignee: %s)", p.Title, p.Assignee)
		}
		f := memory.Fact{Kind: "task", Key: key, Value: value, Source: "action"}
		if !p.Due.IsZero() {
			f.ExpiresAt = p.Due.Add(7 * 24 * time.Hour)
		}
		if err := e.memory.Remember(f); err != nil {
			return "", err
		}
		return fmt.Sprintf("task %q created", p.Title), nil
	case "completeTask":
		f := memory.Fact{Kind: "task", Key: key, Value: "done", Source: "action",
			ExpiresAt: time.Now().Add(24 * time.Hour)}
		if err := e.memory.Remember(f); err != nil {
			return "", err
		}
		return fmt.Sprintf("task %q completed", key), nil
	default:
		return "", fmt.Errorf("no task executor for %s", actionType)
	}
}
