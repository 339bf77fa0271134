package transport

import (
	"time"

	"leadcrm_backend/internal/leads/domain"
	"leadcrm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	Name          string       `json:"name,omitempty" validate:"omitempty,max=200"`
	Email         string       `json:"email,omitempty" validate:"omitempty,email"`
	ContactNumber string       `json:"contactNumber" validate:"required,min=5,max=25"`
	Source        string       `json:"source" validate:"required,min=1,max=100"`
	Language      string       `json:"language,omitempty" validate:"omitempty,max=20"`
	PresalesAgent OptionalUUID `json:"presalesAgentId,omitempty" validate:"-"`
}

type VisitFlagRequest struct {
	Planned      bool       `json:"planned"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type AttachmentRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"gte=0"`
	StorageKey  string `json:"storageKey" validate:"required,max=512"`
}

// ApplyActivityRequest is a partial lead update. Missing keys leave fields
// unchanged; explicit nulls clear where the field supports it.
type ApplyActivityRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	ContactNumber *string `json:"contactNumber,omitempty" validate:"omitempty,min=5,max=25"`

	Source      *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Language    *string `json:"language,omitempty" validate:"omitempty,max=20"`
	Centre      *string `json:"centre,omitempty" validate:"omitempty,max=100"`
	ProjectType *string `json:"projectType,omitempty" validate:"omitempty,max=100"`
	HouseType   *string `json:"houseType,omitempty" validate:"omitempty,max=100"`

	Status       *string `json:"status,omitempty" validate:"omitempty,max=50"`
	SubStatus    *string `json:"subStatus,omitempty" validate:"omitempty,max=50"`
	ValueTier    *string `json:"valueTier,omitempty" validate:"omitempty,max=50"`
	ProjectValue *int64  `json:"projectValue,omitempty" validate:"omitempty,gte=0"`

	PresalesAgent OptionalUUID `json:"presalesAgentId,omitempty" validate:"-"`
	SalesAgent    OptionalUUID `json:"salesAgentId,omitempty" validate:"-"`

	SiteVisit      *VisitFlagRequest `json:"siteVisit,omitempty"`
	CentreVisit    *VisitFlagRequest `json:"centreVisit,omitempty"`
	VirtualMeeting *VisitFlagRequest `json:"virtualMeeting,omitempty"`

	FollowUpAt *time.Time `json:"followUpAt,omitempty"`

	Notes       string              `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Attachments []AttachmentRequest `json:"attachments,omitempty" validate:"omitempty,max=10,dive"`
}

// ToProposedFields maps the DTO onto the domain's partial-update shape.
func (r ApplyActivityRequest) ToProposedFields() domain.ProposedFields {
	p := domain.ProposedFields{
		Name:          r.Name,
		Email:         r.Email,
		ContactNumber: r.ContactNumber,
		Source:        r.Source,
		Language:      r.Language,
		Centre:        r.Centre,
		ProjectType:   r.ProjectType,
		HouseType:     r.HouseType,
		Status:        r.Status,
		SubStatus:     r.SubStatus,
		ValueTier:     r.ValueTier,
		ProjectValue:  r.ProjectValue,
		FollowUpAt:    r.FollowUpAt,
		Notes:         r.Notes,
	}
	if r.PresalesAgent.Set {
		p.PresalesAgent = domain.OptionalRef{Set: true, Value: r.PresalesAgent.Value}
	}
	if r.SalesAgent.Set {
		p.SalesAgent = domain.OptionalRef{Set: true, Value: r.SalesAgent.Value}
	}
	if r.SiteVisit != nil {
		p.SiteVisit = domain.OptionalVisit{Set: true, Value: visitFlag(*r.SiteVisit)}
	}
	if r.CentreVisit != nil {
		p.CentreVisit = domain.OptionalVisit{Set: true, Value: visitFlag(*r.CentreVisit)}
	}
	if r.VirtualMeeting != nil {
		p.VirtualMeeting = domain.OptionalVisit{Set: true, Value: visitFlag(*r.VirtualMeeting)}
	}
	for _, a := range r.Attachments {
		p.Attachments = append(p.Attachments, domain.Attachment{
			ID:          uuid.New(),
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			StorageKey:  a.StorageKey,
		})
	}
	return p
}

func visitFlag(r VisitFlagRequest) domain.VisitFlag {
	return domain.VisitFlag{
		Planned:      r.Planned,
		ScheduledFor: r.ScheduledFor,
		CompletedAt:  r.CompletedAt,
	}
}

type CreateCallLogRequest struct {
	Direction       string     `json:"direction" validate:"required,oneof=inbound outbound"`
	Outcome         string     `json:"outcome,omitempty" validate:"omitempty,max=100"`
	DurationSeconds int        `json:"durationSeconds,omitempty" validate:"omitempty,gte=0"`
	Notes           string     `json:"notes,omitempty" validate:"omitempty,max=4000"`
	OccurredAt      *time.Time `json:"occurredAt,omitempty"`
}

// Response DTOs

type LeadResponse struct {
	LeadID    string    `json:"leadId"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Fields      domain.FieldSet      `json:"fields"`
	Milestones  map[string]time.Time `json:"milestones,omitempty"`
	Attachments []domain.Attachment  `json:"attachments,omitempty"`
}

func LeadFromSnapshot(snap domain.Snapshot) LeadResponse {
	return LeadResponse{
		LeadID:      snap.LeadID,
		Version:     snap.Version,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
		Fields:      snap.Fields,
		Milestones:  snap.Milestones,
		Attachments: snap.Attachments,
	}
}

type DuplicateResponse struct {
	LeadID    string    `json:"leadId"`
	Name      string    `json:"name,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateLeadResponse struct {
	Lead       LeadResponse        `json:"lead"`
	Duplicates []DuplicateResponse `json:"duplicates,omitempty"`
}

func DuplicatesFromMatches(matches []repository.DuplicateMatch) []DuplicateResponse {
	out := make([]DuplicateResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, DuplicateResponse{
			LeadID:    m.LeadID,
			Name:      m.Name,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

type ActivityResponse struct {
	Seq         int                 `json:"seq"`
	ActorID     uuid.UUID           `json:"actorId"`
	ActorRole   string              `json:"actorRole"`
	ActorName   string              `json:"actorName,omitempty"`
	Fields      domain.FieldSet     `json:"fields"`
	Notes       string              `json:"notes,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func ActivitiesFromDomain(acts []domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(acts))
	for _, a := range acts {
		out = append(out, ActivityResponse{
			Seq:         a.Seq,
			ActorID:     a.ActorID,
			ActorRole:   a.ActorRole,
			ActorName:   a.ActorName,
			Fields:      a.Fields,
			Notes:       a.Notes,
			Attachments: a.Attachments,
			CreatedAt:   a.CreatedAt,
		})
	}
	return out
}

type CallLogResponse struct {
	ID              uuid.UUID `json:"id"`
	CallerID        uuid.UUID `json:"callerId"`
	CallerName      string    `json:"callerName,omitempty"`
	Direction       string    `json:"direction"`
	Outcome         string    `json:"outcome,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

func CallLogFromRepo(l repository.CallLog) CallLogResponse {
	return CallLogResponse{
		ID:              l.ID,
		CallerID:        l.CallerID,
		CallerName:      l.CallerName,
		Direction:       l.Direction,
		Outcome:         l.Outcome,
		DurationSeconds: l.DurationSeconds,
		Notes:           l.Notes,
		OccurredAt:      l.OccurredAt,
	}
}

func CallLogsFromRepo(logs []repository.CallLog) []CallLogResponse {
	out := make([]CallLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, CallLogFromRepo(l))
	}
	return out
}

type CandidateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Centre    string    `json:"centre,omitempty"`
	Languages []string  `json:"languages,omitempty"`
}
