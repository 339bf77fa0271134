package domain

import (
	"reflect"
	"testing"
	"time"

	"leadcrm_backend/internal/refdata"

	"github.com/google/uuid"
)

func testWorkflow(t *testing.T) *refdata.Workflow {
	t.Helper()
	wf, err := refdata.DefaultWorkflow()
	if err != nil {
		t.Fatalf("load workflow: %v", err)
	}
	return wf
}

func activityAt(t *testing.T, seq int, offset time.Duration, fields FieldSet) Activity {
	t.Helper()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return Activity{
		LeadID:    "LD-000042",
		Seq:       seq,
		ActorID:   uuid.New(),
		ActorRole: refdata.RoleAdmin,
		Fields:    fields,
		CreatedAt: base.Add(offset),
	}
}

func TestFoldLastWriteWinsForFields(t *testing.T) {
	wf := testWorkflow(t)
	acts := []Activity{
		activityAt(t, 1, 0, FieldSet{Status: "lead", ContactNumber: "9999999990", Name: "Asha"}),
		activityAt(t, 2, time.Hour, FieldSet{Status: "lead", ContactNumber: "9999999990", Name: "Asha Rao", Centre: "mumbai-west"}),
	}

	snap := Fold("LD-000042", acts, wf)

	if snap.Fields.Name != "Asha Rao" {
		t.Fatalf("expected latest name, got %q", snap.Fields.Name)
	}
	if snap.Fields.Centre != "mumbai-west" {
		t.Fatalf("expected latest centre, got %q", snap.Fields.Centre)
	}
	if snap.Version != 2 {
		t.Fatalf("expected version 2, got %d", snap.Version)
	}
	if !snap.CreatedAt.Equal(acts[0].CreatedAt) || !snap.UpdatedAt.Equal(acts[1].CreatedAt) {
		t.Fatalf("created/updated timestamps do not track first/last activity")
	}
}

func TestFoldIdempotence(t *testing.T) {
	wf := testWorkflow(t)
	acts := []Activity{
		activityAt(t, 1, 0, FieldSet{Status: "lead", SubStatus: "interested", ContactNumber: "9999999990"}),
		activityAt(t, 2, time.Hour, FieldSet{Status: "qualified", SubStatus: "hot", ContactNumber: "9999999990"}),
		activityAt(t, 3, 2*time.Hour, FieldSet{Status: "qualified", SubStatus: "warm", ContactNumber: "9999999990"}),
	}

	first := Fold("LD-000042", acts, wf)
	second := Fold("LD-000042", acts, wf)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fold is not a pure function of the log:\n%+v\n%+v", first, second)
	}
}

func TestFoldMilestonesAreFirstWriteWins(t *testing.T) {
	wf := testWorkflow(t)
	acts := []Activity{
		activityAt(t, 1, 0, FieldSet{Status: "lead", ContactNumber: "9999999990"}),
		activityAt(t, 2, time.Hour, FieldSet{Status: "qualified", SubStatus: "hot", ContactNumber: "9999999990"}),
		// Dropped back to lead, then re-qualified later.
		activityAt(t, 3, 2*time.Hour, FieldSet{Status: "lead", SubStatus: "interested", ContactNumber: "9999999990"}),
		activityAt(t, 4, 3*time.Hour, FieldSet{Status: "qualified", SubStatus: "hot", ContactNumber: "9999999990"}),
	}

	snap := Fold("LD-000042", acts, wf)

	wantQualified := acts[1].CreatedAt
	if got := snap.Milestones["qualifiedAt"]; !got.Equal(wantQualified) {
		t.Fatalf("qualifiedAt = %v, want first entry %v", got, wantQualified)
	}
	if got := snap.Milestones["hotAt"]; !got.Equal(acts[1].CreatedAt) {
		t.Fatalf("hotAt = %v, want %v", got, acts[1].CreatedAt)
	}
	// The lead is currently qualified again; the snapshot fields track the
	// latest activity even though the milestones kept their first values.
	if snap.Fields.Status != "qualified" {
		t.Fatalf("expected current status qualified, got %q", snap.Fields.Status)
	}
}

func TestFoldAccumulatesAttachments(t *testing.T) {
	wf := testWorkflow(t)
	att1 := Attachment{ID: uuid.New(), FileName: "floorplan.pdf"}
	att2 := Attachment{ID: uuid.New(), FileName: "id-proof.jpg"}

	a1 := activityAt(t, 1, 0, FieldSet{Status: "lead", ContactNumber: "9999999990"})
	a1.Attachments = []Attachment{att1}
	a2 := activityAt(t, 2, time.Hour, FieldSet{Status: "lead", ContactNumber: "9999999990"})
	a2.Attachments = []Attachment{att2}

	snap := Fold("LD-000042", []Activity{a1, a2}, wf)

	if len(snap.Attachments) != 2 {
		t.Fatalf("expected 2 accumulated attachments, got %d", len(snap.Attachments))
	}
	if snap.Attachments[0].ID != att1.ID || snap.Attachments[1].ID != att2.ID {
		t.Fatalf("attachments out of order")
	}
}
