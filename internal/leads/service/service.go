// Package service orchestrates the lead engine: it folds the activity
// ledger, runs the transition rules, resolves agents through the router and
// persists accepted updates, serialized per lead.
package service

import (
	"context"
	"errors"
	"time"

	"leadcrm_backend/internal/events"
	"leadcrm_backend/internal/leads/domain"
	"leadcrm_backend/internal/leads/repository"
	"leadcrm_backend/internal/leads/routing"
	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/apperr"
	"leadcrm_backend/platform/logger"
	"leadcrm_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence port. *repository.Repository satisfies it; tests
// substitute an in-memory fake.
type Store interface {
	NextLeadID(ctx context.Context) (string, error)
	GetSnapshot(ctx context.Context, leadID string) (domain.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
	AppendActivity(ctx context.Context, act domain.Activity) error
	ListActivities(ctx context.Context, leadID string) ([]domain.Activity, error)
	FindByContactNumber(ctx context.Context, digits string) ([]repository.DuplicateMatch, error)
	CreateCallLog(ctx context.Context, params repository.CreateCallLogParams) (repository.CallLog, error)
	ListCallLogs(ctx context.Context, leadID string) ([]repository.CallLog, error)
}

// FollowUpScheduler enqueues a call-in-future reminder. Nil disables
// scheduling (tests, deployments without Redis).
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, leadID string, agentID uuid.UUID, at time.Time) error
}

// Actor identifies who is applying a change.
type Actor struct {
	ID   uuid.UUID
	Role string
	Name string
}

// Config carries the engine knobs.
type Config struct {
	Rules      domain.RulesConfig
	MaxRetries int // sequence-conflict retries per Apply
}

type Service struct {
	store     Store
	ref       *refdata.Store
	router    *routing.Router
	bus       events.Bus
	scheduler FollowUpScheduler
	log       *logger.Logger
	cfg       Config

	locks *leadLocks
}

func New(store Store, ref *refdata.Store, router *routing.Router, bus events.Bus, scheduler FollowUpScheduler, log *logger.Logger, cfg Config) *Service {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	return &Service{
		store:     store,
		ref:       ref,
		router:    router,
		bus:       bus,
		scheduler: scheduler,
		log:       log,
		cfg:       cfg,
		locks:     newLeadLocks(),
	}
}

// CreateParams is the inbound shape for a new lead.
type CreateParams struct {
	Name          string
	Email         string
	ContactNumber string
	Source        string
	LanguageHint  string // overrides the source's default language
	PresalesAgent *uuid.UUID
	ImportID      *uuid.UUID

	// AutoPick selects the first matching presales agent instead of leaving
	// multi-candidate leads unassigned. The bulk import sets it; interactive
	// creation does not.
	AutoPick bool
}

// CreateResult pairs the new lead with any existing leads that share its
// contact number. Duplicates are informational; they never block creation.
type CreateResult struct {
	Snapshot   domain.Snapshot
	Duplicates []repository.DuplicateMatch
}

// Create validates and persists a new lead with its initial activity,
// routing a presales owner when the source carries a language signal.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (CreateResult, error) {
	ref := s.ref.Snapshot()

	var fieldErrs []apperr.FieldError
	if !phone.IsValid(params.ContactNumber) {
		fieldErrs = append(fieldErrs, apperr.FieldError{Field: "contactNumber", Reason: "must be 10-15 digits (separators + - ( ) and spaces allowed)"})
	}
	src, ok := ref.MatchSource(params.Source)
	if !ok {
		fieldErrs = append(fieldErrs, apperr.FieldError{Field: "source", Reason: "unknown lead source"})
	}
	if len(fieldErrs) > 0 {
		return CreateResult{}, apperr.Validation("lead rejected", fieldErrs...)
	}

	digits := phone.NormalizeDigits(params.ContactNumber, s.cfg.Rules.PhoneDefaultRegion)

	dups, err := s.store.FindByContactNumber(ctx, digits)
	if err != nil {
		return CreateResult{}, err
	}

	language := params.LanguageHint
	if language == "" {
		language = src.DefaultLanguage
	}

	presalesID, err := s.resolvePresales(params, language, src, ref)
	if err != nil {
		return CreateResult{}, err
	}

	leadID, err := s.store.NextLeadID(ctx)
	if err != nil {
		return CreateResult{}, err
	}

	act := domain.Activity{
		LeadID:    leadID,
		Seq:       1,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		ActorName: actor.Name,
		Fields: domain.FieldSet{
			Name:            params.Name,
			Email:           params.Email,
			ContactNumber:   digits,
			Source:          src.Name,
			Language:        language,
			Status:          refdata.StatusLead,
			PresalesAgentID: presalesID,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendActivity(ctx, act); err != nil {
		return CreateResult{}, err
	}

	snap := domain.Fold(leadID, []domain.Activity{act}, ref.Workflow)
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return CreateResult{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          leadID,
		Source:          src.Name,
		ContactNumber:   digits,
		PresalesAgentID: presalesID,
		ImportID:        params.ImportID,
	})
	s.log.LeadActivity(leadID, 1, actor.Name, refdata.StatusLead, "")

	return CreateResult{Snapshot: snap, Duplicates: dups}, nil
}

// resolvePresales picks the initial presales owner. An explicit choice is
// validated against the roster; otherwise the router runs on the lead's
// language signal. Without a signal, or with several candidates and no
// auto-pick, the lead starts unassigned.
func (s *Service) resolvePresales(params CreateParams, language string, src refdata.Source, ref *refdata.Snapshot) (*uuid.UUID, error) {
	if params.PresalesAgent != nil {
		user, ok := ref.UserByID(*params.PresalesAgent)
		if !ok || !user.Active || !refdata.IsPresalesRole(user.Role) {
			return nil, apperr.Validation("lead rejected", apperr.FieldError{Field: "presalesAgent", Reason: "not an active presales agent"})
		}
		return params.PresalesAgent, nil
	}

	if language == "" {
		return nil, nil
	}

	req := routing.Request{
		Role:     refdata.FamilyPresales,
		Language: language,
		Pool:     ref.PoolForSource(src),
	}

	if params.AutoPick {
		agent, _, err := s.router.Resolve(req, routing.PolicyFirstAvailable)
		if err != nil {
			s.log.RoutingMiss(req.Role, req.Language, "")
			return nil, err
		}
		return &agent.ID, nil
	}

	candidates := s.router.Candidates(req)
	if len(candidates) == 1 {
		return &candidates[0].ID, nil
	}
	return nil, nil
}

// Apply validates and persists one update to a lead. It is serialized per
// lead: the keyed lock covers fold, validation, routing and the append, and
// the activity sequence acts as a compare-and-swap against writers on other
// instances. All-or-nothing: a rejected update changes nothing.
func (s *Service) Apply(ctx context.Context, leadID string, actor Actor, proposed domain.ProposedFields) (domain.Snapshot, error) {
	release := s.locks.acquire(leadID)
	defer release()

	ref := s.ref.Snapshot()

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		acts, err := s.store.ListActivities(ctx, leadID)
		if err != nil {
			return domain.Snapshot{}, err
		}
		if len(acts) == 0 {
			return domain.Snapshot{}, apperr.NotFound("lead " + leadID + " not found")
		}
		current := domain.Fold(leadID, acts, ref.Workflow)

		outcome, violations := domain.ValidateTransition(current, proposed, actor.Role, ref, s.cfg.Rules)
		if len(violations) > 0 {
			return domain.Snapshot{}, apperr.Validation("lead update rejected", violations...)
		}

		if outcome.NeedsSalesAgent {
			agentID, err := s.resolveSales(outcome.Fields)
			if err != nil {
				return domain.Snapshot{}, err
			}
			outcome.Fields.SalesAgentID = agentID
		}

		act := domain.Activity{
			LeadID:      leadID,
			Seq:         current.Version + 1,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			ActorName:   actor.Name,
			Fields:      outcome.Fields,
			Notes:       proposed.Notes,
			Attachments: proposed.Attachments,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.store.AppendActivity(ctx, act); err != nil {
			if errors.Is(err, repository.ErrSequenceConflict) {
				continue // another writer claimed the seq; re-fold and retry
			}
			return domain.Snapshot{}, err
		}

		snap := domain.Fold(leadID, append(acts, act), ref.Workflow)
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			s.log.DatabaseError("save lead snapshot", err)
			return domain.Snapshot{}, err
		}

		s.publishApplied(ctx, current, snap, act)
		s.scheduleFollowUp(ctx, snap)
		s.log.LeadActivity(leadID, act.Seq, actor.Name, snap.Fields.Status, snap.Fields.SubStatus)

		return snap, nil
	}

	return domain.Snapshot{}, apperr.Conflict("lead " + leadID + " is being modified concurrently, try again")
}

// resolveSales routes a sales owner for the lead's (centre, language). A
// single candidate is assigned directly; several candidates require an
// explicit choice, which the caller makes via the candidates endpoint.
func (s *Service) resolveSales(fields domain.FieldSet) (*uuid.UUID, error) {
	req := routing.Request{
		Role:     refdata.FamilySales,
		Language: fields.Language,
		Centre:   fields.Centre,
	}
	agent, candidates, err := s.router.Resolve(req, routing.PolicyCandidates)
	if err != nil {
		s.log.RoutingMiss(req.Role, req.Language, req.Centre)
		return nil, err
	}
	if agent == nil {
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID.String())
		}
		return nil, apperr.Validation("lead update rejected",
			apperr.FieldError{Field: "salesAgent", Reason: "several agents match; an explicit choice is required"},
		).WithDetails(map[string]any{"candidates": ids})
	}
	return &agent.ID, nil
}

func (s *Service) publishApplied(ctx context.Context, before, after domain.Snapshot, act domain.Activity) {
	s.bus.Publish(ctx, events.ActivityRecorded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    act.LeadID,
		Seq:       act.Seq,
		ActorID:   act.ActorID,
		Status:    after.Fields.Status,
		SubStatus: after.Fields.SubStatus,
	})

	wf := s.ref.Snapshot().Workflow
	prevOwner := before.Fields.OwnerID(wf.Family(before.Fields.Status))
	family := wf.Family(after.Fields.Status)
	newOwner := after.Fields.OwnerID(family)
	if !sameAgent(prevOwner, newOwner) {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        act.LeadID,
			AgentRole:     family,
			PreviousAgent: prevOwner,
			NewAgent:      newOwner,
		})
	}
}

func (s *Service) scheduleFollowUp(ctx context.Context, snap domain.Snapshot) {
	if s.scheduler == nil || snap.Fields.SubStatus != refdata.SubStatusCIF || snap.Fields.FollowUpAt == nil {
		return
	}
	wf := s.ref.Snapshot().Workflow
	owner := snap.Fields.OwnerID(wf.Family(snap.Fields.Status))
	if owner == nil {
		return
	}
	if err := s.scheduler.ScheduleFollowUp(ctx, snap.LeadID, *owner, *snap.Fields.FollowUpAt); err != nil {
		s.log.Warn("follow-up scheduling failed", "lead_id", snap.LeadID, "error", err.Error())
	}
}

func sameAgent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Project returns the lead's current projected snapshot.
func (s *Service) Project(ctx context.Context, leadID string) (domain.Snapshot, error) {
	snap, err := s.store.GetSnapshot(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snapshot{}, apperr.NotFound("lead " + leadID + " not found")
		}
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// History returns the lead's full ledger, oldest first.
func (s *Service) History(ctx context.Context, leadID string) ([]domain.Activity, error) {
	acts, err := s.store.ListActivities(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		return nil, apperr.NotFound("lead " + leadID + " not found")
	}
	return acts, nil
}

// CallLogParams is the inbound shape for one call record.
type CallLogParams struct {
	Direction       string
	Outcome         string
	DurationSeconds int
	Notes           string
	OccurredAt      time.Time
}

// AddCallLog records a call against a lead. Call logs are an independent
// audit trail; they never mutate the lead itself.
func (s *Service) AddCallLog(ctx context.Context, leadID string, actor Actor, params CallLogParams) (repository.CallLog, error) {
	if _, err := s.Project(ctx, leadID); err != nil {
		return repository.CallLog{}, err
	}
	if params.Direction != "inbound" && params.Direction != "outbound" {
		return repository.CallLog{}, apperr.Validation("call log rejected",
			apperr.FieldError{Field: "direction", Reason: "must be inbound or outbound"})
	}
	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return s.store.CreateCallLog(ctx, repository.CreateCallLogParams{
		LeadID:          leadID,
		CallerID:        actor.ID,
		CallerName:      actor.Name,
		Direction:       params.Direction,
		Outcome:         params.Outcome,
		DurationSeconds: params.DurationSeconds,
		Notes:           params.Notes,
		OccurredAt:      occurredAt,
	})
}

// CallLogs lists a lead's call records, newest first.
func (s *Service) CallLogs(ctx context.Context, leadID string) ([]repository.CallLog, error) {
	if _, err := s.Project(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListCallLogs(ctx, leadID)
}
