package domain

import (
	"time"

	"leadcrm_backend/internal/refdata"
)

// Fold projects a lead's current snapshot from its activity log, oldest
// first. Regular fields are last-write-wins: every activity stores the full
// resulting field set, so the latest activity's fields are the current
// fields. Milestone timestamps are first-write-wins: the timestamp of the
// activity that first put the lead into a status or sub-status sticks, even
// if the lead later moves away and back. Attachments accumulate.
//
// Fold is a pure function of the log; replaying the same activities always
// yields the same snapshot.
func Fold(leadID string, activities []Activity, wf *refdata.Workflow) Snapshot {
	snap := Snapshot{
		LeadID:     leadID,
		Milestones: make(map[string]time.Time),
	}

	for _, act := range activities {
		snap.Fields = act.Fields
		snap.Version = act.Seq
		snap.UpdatedAt = act.CreatedAt
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = act.CreatedAt
		}

		if key := wf.StatusMilestone(act.Fields.Status); key != "" {
			setMilestone(snap.Milestones, key, act.CreatedAt)
		}
		if act.Fields.SubStatus != "" {
			if key := wf.SubStatusMilestone(act.Fields.SubStatus); key != "" {
				setMilestone(snap.Milestones, key, act.CreatedAt)
			}
		}

		snap.Attachments = append(snap.Attachments, act.Attachments...)
	}

	return snap
}

func setMilestone(milestones map[string]time.Time, key string, at time.Time) {
	if _, exists := milestones[key]; !exists {
		milestones[key] = at
	}
}
