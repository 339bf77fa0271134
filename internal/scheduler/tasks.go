package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpReminder = "leads.followup.reminder"

// FollowUpReminderPayload identifies the call-in-future follow-up a task
// reminds about. DueAt lets the worker drop reminders that were rescheduled
// after enqueueing.
type FollowUpReminderPayload struct {
	LeadID  string    `json:"leadId"`
	AgentID string    `json:"agentId"`
	DueAt   time.Time `json:"dueAt"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}
