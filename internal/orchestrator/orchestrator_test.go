package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hearth-hq/hearth/internal/action"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/trust"
)

type fakeExecutor struct {
	calls []string
	err   error
}

func (f *fakeExecutor) Execute(_ context.Context, actionType string, _ action.Payload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, actionType)
	return "done", nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(_ context.Context, recipient, body string) error {
	f.sent = append(f.sent, recipient+": "+body)
	return nil
}

func newPipeline(t *testing.T) (*Service, *store.Store, *fakeExecutor, *fakeSender) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ts := trust.NewService(st)
	wf := action.NewWorkflow(st, ts)
	ex := &fakeExecutor{}
	sender := &fakeSender{}
	return NewService(wf, ts, ex, sender, nil), st, ex, sender
}

func TestLowRiskReadExecutesImmediately(t *testing.T) {
	svc, _, ex, sender := newPipeline(t)
	res, err := svc.ProcessToolCall(context.Background(), "h1", "amy", "queryWeek", nil)
	if err != nil {
		t.Fatalf("ProcessToolCall: %v", err)
	}
	if !res.Executed || res.Outcome != "done" {
		t.Fatalf("result = %+v, want executed", res)
	}
	if len(ex.calls) != 1 || ex.calls[0] != "queryWeek" {
		t.Fatalf("executor calls = %v", ex.calls)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no approval ping expected, got %v", sender.sent)
	}
}

func TestWriteActionParksPendingAndNotifies(t *testing.T) {
	svc, st, ex, sender := newPipeline(t)
	res, err := svc.ProcessToolCall(context.Background(), "h1", "amy", "createEvent",
		action.CalendarWrite{CalendarID: "cal-1", Title: "Dentist"})
	if err != nil {
		t.Fatalf("ProcessToolCall: %v", err)
	}
	if res.Executed {
		t.Fatal("write action must not auto-execute without trust")
	}
	if len(ex.calls) != 0 {
		t.Fatalf("executor called: %v", ex.calls)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Approval needed") {
		t.Fatalf("sent = %v", sender.sent)
	}
	row, err := st.ActionByID(res.Action.ID)
	if err != nil {
		t.Fatalf("reload action: %v", err)
	}
	if row.Status != store.ActionPending {
		t.Fatalf("status = %s, want pending", row.Status)
	}
}

func TestConfirmActionExecutesAndRecordsSuccess(t *testing.T) {
	svc, st, ex, _ := newPipeline(t)
	res, _ := svc.ProcessToolCall(context.Background(), "h1", "amy", "createTask",
		action.TaskWrite{Title: "Buy cleats"})

	confirmed, err := svc.ConfirmAction(context.Background(), res.Action.ID)
	if err != nil {
		t.Fatalf("ConfirmAction: %v", err)
	}
	if !confirmed.Executed {
		t.Fatal("expected execution after confirmation")
	}
	if len(ex.calls) != 1 {
		t.Fatalf("executor calls = %v", ex.calls)
	}
	row, _ := st.ActionByID(res.Action.ID)
	if row.Status != store.ActionExecuted {
		t.Fatalf("status = %s, want executed", row.Status)
	}
	score, err := trust.NewService(st).GetTrust("h1", "createTask")
	if err != nil {
		t.Fatalf("trust: %v", err)
	}
	if score.SuccessCount != 1 {
		t.Fatalf("success count = %d, want 1", score.SuccessCount)
	}
}

func TestRejectRecordsOutcome(t *testing.T) {
	svc, st, ex, _ := newPipeline(t)
	res, _ := svc.ProcessToolCall(context.Background(), "h1", "amy", "sendReminder",
		action.Notification{Recipient: "ben", Body: "pickup"})

	row, err := svc.RejectPendingAction(context.Background(), res.Action.ID, "not needed")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if row.Status != store.ActionRejected {
		t.Fatalf("status = %s, want rejected", row.Status)
	}
	if len(ex.calls) != 0 {
		t.Fatal("rejected action must not execute")
	}
	score, _ := trust.NewService(st).GetTrust("h1", "sendReminder")
	if score.RejectCount != 1 {
		t.Fatalf("reject count = %d, want 1", score.RejectCount)
	}
}

func TestExecutorFailureMarksFailed(t *testing.T) {
	svc, st, ex, _ := newPipeline(t)
	res, _ := svc.ProcessToolCall(context.Background(), "h1", "amy", "createTask",
		action.TaskWrite{Title: "x"})

	ex.err = errors.New("downstream 500")
	if _, err := svc.ConfirmAction(context.Background(), res.Action.ID); err == nil {
		t.Fatal("expected execution error")
	}
	row, _ := st.ActionByID(res.Action.ID)
	if row.Status != store.ActionFailed {
		t.Fatalf("status = %s, want failed", row.Status)
	}
	score, _ := trust.NewService(st).GetTrust("h1", "createTask")
	if score.FailureCount != 1 {
		t.Fatalf("failure count = %d, want 1", score.FailureCount)
	}
}

func TestAutoApproveFlagSkipsConfirmation(t *testing.T) {
	svc, st, ex, sender := newPipeline(t)
	ts := trust.NewService(st)
	if err := ts.SetAutoApprove("h1", "createTask", true); err != nil {
		t.Fatalf("SetAutoApprove: %v", err)
	}
	res, err := svc.ProcessToolCall(context.Background(), "h1", "amy", "createTask",
		action.TaskWrite{Title: "Pack snacks"})
	if err != nil {
		t.Fatalf("ProcessToolCall: %v", err)
	}
	if !res.Executed {
		t.Fatal("flagged action type should auto-execute")
	}
	if len(ex.calls) != 1 {
		t.Fatalf("executor calls = %v", ex.calls)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no approval ping expected, got %v", sender.sent)
	}
}

func TestCriticalNeverAutoExecutes(t *testing.T) {
	svc, st, ex, _ := newPipeline(t)
	ts := trust.NewService(st)
	// Even an explicit flag cannot license a critical action.
	if err := ts.SetAutoApprove("h1", "shareCalendar", true); err != nil {
		t.Fatalf("SetAutoApprove: %v", err)
	}
	res, err := svc.ProcessToolCall(context.Background(), "h1", "amy", "shareCalendar",
		action.Coordination{Counterparty: "school", Proposal: "share"})
	if err != nil {
		t.Fatalf("ProcessToolCall: %v", err)
	}
	if res.Executed || len(ex.calls) != 0 {
		t.Fatal("critical action executed without confirmation")
	}
	pending, _ := svc.PendingActions("h1")
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
}
