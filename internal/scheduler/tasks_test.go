package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFollowUpReminderTaskRoundTrip(t *testing.T) {
	want := FollowUpReminderPayload{
		LeadID:  "LD-000042",
		AgentID: uuid.New().String(),
		DueAt:   time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC),
	}

	task, err := NewFollowUpReminderTask(want)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskFollowUpReminder {
		t.Fatalf("task type = %q", task.Type())
	}

	got, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if got.LeadID != want.LeadID || got.AgentID != want.AgentID || !got.DueAt.Equal(want.DueAt) {
		t.Fatalf("payload mismatch: %+v != %+v", got, want)
	}
}
