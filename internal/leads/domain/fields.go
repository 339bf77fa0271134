// Package domain provides the pure business rules for the leads bounded
// context: the field model, the activity fold that projects a lead's
// current state, and the transition validation rules. Nothing in this
// package performs I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitFlag is one of the lead's visit markers (site visit, centre visit,
// virtual meeting): a planned flag with a scheduled date and a completion
// date.
type VisitFlag struct {
	Planned      bool       `json:"planned"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Attachment is document metadata carried by an activity. Binary storage
// is external; the engine only tracks references.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	StorageKey  string    `json:"storageKey"`
}

// FieldSet is the full set of mutable lead fields as captured by one
// activity. Activities store the complete resulting values, not diffs, so
// replaying the log reconstructs the lead's state at any point.
type FieldSet struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contactNumber"`

	Source      string `json:"source,omitempty"`
	Language    string `json:"language,omitempty"`
	Centre      string `json:"centre,omitempty"`
	ProjectType string `json:"projectType,omitempty"`
	HouseType   string `json:"houseType,omitempty"`

	Status       string `json:"status"`
	SubStatus    string `json:"subStatus,omitempty"`
	ValueTier    string `json:"valueTier,omitempty"`
	ProjectValue *int64 `json:"projectValue,omitempty"`

	PresalesAgentID *uuid.UUID `json:"presalesAgentId,omitempty"`
	SalesAgentID    *uuid.UUID `json:"salesAgentId,omitempty"`

	SiteVisit      VisitFlag `json:"siteVisit"`
	CentreVisit    VisitFlag `json:"centreVisit"`
	VirtualMeeting VisitFlag `json:"virtualMeeting"`

	// FollowUpAt is the scheduled follow-up for the cif sub-status.
	FollowUpAt *time.Time `json:"followUpAt,omitempty"`
}

// OwnerID returns the active owner given the status family: presales for
// pre-qualification, sales for qualification and beyond.
func (f FieldSet) OwnerID(family string) *uuid.UUID {
	if family == "sales" {
		return f.SalesAgentID
	}
	return f.PresalesAgentID
}

// Activity is one immutable entry in a lead's ledger.
type Activity struct {
	LeadID      string       `json:"leadId"`
	Seq         int          `json:"seq"`
	ActorID     uuid.UUID    `json:"actorId"`
	ActorRole   string       `json:"actorRole"`
	ActorName   string       `json:"actorName,omitempty"`
	Fields      FieldSet     `json:"fields"`
	Notes       string       `json:"notes,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Snapshot is the projected current state of a lead: the fold of all its
// activities.
type Snapshot struct {
	LeadID    string    `json:"leadId"`
	Version   int       `json:"version"` // equals the latest activity seq
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Fields FieldSet `json:"fields"`

	// Milestones map milestone keys (qualifiedAt, hotAt, wonAt, ...) to the
	// time the lead first entered the corresponding status or sub-status.
	// First-write-wins: once set, never changed.
	Milestones map[string]time.Time `json:"milestones,omitempty"`

	// Attachments accumulate across activities.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// OptionalRef distinguishes "leave the agent unchanged" from "set it to
// this value or clear it" in a proposed update.
type OptionalRef struct {
	Set   bool
	Value *uuid.UUID
}

// OptionalVisit carries a proposed change to one visit flag.
type OptionalVisit struct {
	Set   bool
	Value VisitFlag
}

// ProposedFields is a partial update to a lead. Nil pointers mean "leave
// unchanged".
type ProposedFields struct {
	Name          *string
	Email         *string
	ContactNumber *string

	Source      *string
	Language    *string
	Centre      *string
	ProjectType *string
	HouseType   *string

	Status       *string
	SubStatus    *string
	ValueTier    *string
	ProjectValue *int64

	PresalesAgent OptionalRef
	SalesAgent    OptionalRef

	SiteVisit      OptionalVisit
	CentreVisit    OptionalVisit
	VirtualMeeting OptionalVisit

	FollowUpAt *time.Time

	Notes       string
	Attachments []Attachment
}
