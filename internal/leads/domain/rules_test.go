package domain

import (
	"strings"
	"testing"
	"time"

	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/apperr"

	"github.com/google/uuid"
)

var testCfg = RulesConfig{WonMinProjectValue: 100000, PhoneDefaultRegion: "IN"}

func testRef(t *testing.T, users ...refdata.User) *refdata.Snapshot {
	t.Helper()
	store := refdata.NewStaticStore(&refdata.Snapshot{
		Workflow: testWorkflow(t),
		Sources: []refdata.Source{
			{ID: uuid.New(), Name: "Website", Category: "digital", Active: true},
			{ID: uuid.New(), Name: "Partner Network", Category: "channel-partner", Active: true},
		},
		Centres: []refdata.Centre{
			{ID: uuid.New(), Name: "mumbai-west"},
			{ID: uuid.New(), Name: "pune-central"},
		},
		Languages: []refdata.Language{
			{Code: "hi", Name: "Hindi"},
			{Code: "mr", Name: "Marathi"},
		},
		ProjectTypes: []string{"apartment", "villa"},
		HouseTypes:   []string{"2bhk", "3bhk"},
		Users:        users,
	})
	return store.Snapshot()
}

func hasViolation(t *testing.T, violations []apperr.FieldError, field string) bool {
	t.Helper()
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func strp(s string) *string { return &s }
func i64p(v int64) *int64   { return &v }
func refTo(id uuid.UUID) OptionalRef {
	return OptionalRef{Set: true, Value: &id}
}

func activeSalesAgent(centre string, langs ...string) refdata.User {
	return refdata.User{
		ID:        uuid.New(),
		Name:      "Sales " + centre,
		Role:      refdata.RoleSalesAgent,
		Centre:    centre,
		Languages: langs,
		Active:    true,
	}
}

func TestQualifiedGateReportsEveryMissingField(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{
		LeadID: "LD-000001",
		Fields: FieldSet{Status: "lead", ContactNumber: "9999999990"},
	}

	_, violations := ValidateTransition(current, ProposedFields{Status: strp("qualified")}, refdata.RoleAdmin, ref, testCfg)

	for _, field := range []string{"centre", "language", "subStatus", "valueTier"} {
		if !hasViolation(t, violations, field) {
			t.Errorf("missing violation for %q, got %+v", field, violations)
		}
	}
	if len(violations) != 4 {
		t.Fatalf("expected exactly the 4 gate violations, got %+v", violations)
	}
}

func TestWonThresholdBoundary(t *testing.T) {
	agent := activeSalesAgent("mumbai-west", "hi")
	ref := testRef(t, agent)
	current := Snapshot{
		LeadID: "LD-000002",
		Fields: FieldSet{
			Status: "qualified", SubStatus: "hot",
			ContactNumber: "9999999990",
			Centre:        "mumbai-west", Language: "hi", ValueTier: "high",
			SalesAgentID: &agent.ID,
		},
	}

	_, violations := ValidateTransition(current, ProposedFields{
		Status:       strp("won"),
		ProjectValue: i64p(99999),
	}, refdata.RoleAdmin, ref, testCfg)
	if !hasViolation(t, violations, "projectValue") {
		t.Fatalf("99999 should be below the won threshold, got %+v", violations)
	}

	outcome, violations := ValidateTransition(current, ProposedFields{
		Status:       strp("won"),
		ProjectValue: i64p(100000),
	}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("100000 should satisfy the threshold, got %+v", violations)
	}
	if outcome.Fields.Status != "won" {
		t.Fatalf("expected won status, got %q", outcome.Fields.Status)
	}
	// won carries no sub-statuses; the qualified sub-status is dropped.
	if outcome.Fields.SubStatus != "" || !outcome.ClearedSubStatus {
		t.Fatalf("expected sub-status cleared on won, got %q", outcome.Fields.SubStatus)
	}
}

func TestWonRequiresProjectValue(t *testing.T) {
	agent := activeSalesAgent("mumbai-west", "hi")
	ref := testRef(t, agent)
	current := Snapshot{
		LeadID: "LD-000002",
		Fields: FieldSet{
			Status: "qualified", SubStatus: "warm",
			ContactNumber: "9999999990",
			Centre:        "mumbai-west", Language: "hi", ValueTier: "medium",
			SalesAgentID: &agent.ID,
		},
	}

	_, violations := ValidateTransition(current, ProposedFields{Status: strp("won")}, refdata.RoleAdmin, ref, testCfg)
	if !hasViolation(t, violations, "projectValue") {
		t.Fatalf("won without a project value must be rejected, got %+v", violations)
	}
}

func TestIncompatibleSubStatusIsClearedNotRejected(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{
		LeadID: "LD-000003",
		Fields: FieldSet{Status: "lead", SubStatus: "interested", ContactNumber: "9999999990"},
	}

	outcome, violations := ValidateTransition(current, ProposedFields{Status: strp("lost")}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if outcome.Fields.SubStatus != "" {
		t.Fatalf("sub-status %q should have been cleared", outcome.Fields.SubStatus)
	}
	if !outcome.ClearedSubStatus {
		t.Fatalf("expected ClearedSubStatus to be reported")
	}
}

func TestContactNumberValidationAndNormalization(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{LeadID: "LD-000004", Fields: FieldSet{Status: "lead", ContactNumber: "9999999990"}}

	_, violations := ValidateTransition(current, ProposedFields{ContactNumber: strp("12345")}, refdata.RoleAdmin, ref, testCfg)
	if !hasViolation(t, violations, "contactNumber") {
		t.Fatalf("short number should be rejected, got %+v", violations)
	}

	outcome, violations := ValidateTransition(current, ProposedFields{ContactNumber: strp("+91-98765 43210")}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if strings.ContainsAny(outcome.Fields.ContactNumber, "+-() ") {
		t.Fatalf("number not normalized: %q", outcome.Fields.ContactNumber)
	}
}

func TestAllViolationsAreCollected(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{LeadID: "LD-000005", Fields: FieldSet{Status: "lead", ContactNumber: "9999999990"}}

	_, violations := ValidateTransition(current, ProposedFields{
		ContactNumber: strp("abc"),
		Centre:        strp("atlantis"),
		Status:        strp("vanished"),
	}, refdata.RoleAdmin, ref, testCfg)

	for _, field := range []string{"contactNumber", "centre", "status"} {
		if !hasViolation(t, violations, field) {
			t.Errorf("expected a violation for %q, got %+v", field, violations)
		}
	}
}

func TestRoleGatingRejectsOutOfScopeFields(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{LeadID: "LD-000006", Fields: FieldSet{Status: "lead", ContactNumber: "9999999990"}}

	_, violations := ValidateTransition(current, ProposedFields{
		Name:   strp("Asha"),
		Status: strp("lost"),
	}, refdata.RoleMarketing, ref, testCfg)
	if !hasViolation(t, violations, "status") {
		t.Fatalf("marketing must not edit workflow fields, got %+v", violations)
	}
	if hasViolation(t, violations, "name") {
		t.Fatalf("marketing may edit contact fields, got %+v", violations)
	}

	agent := activeSalesAgent("mumbai-west", "hi")
	refWithAgent := testRef(t, agent)
	_, violations = ValidateTransition(current, ProposedFields{
		SalesAgent: refTo(agent.ID),
	}, refdata.RolePresalesAgent, refWithAgent, testCfg)
	if !hasViolation(t, violations, "salesAgent") {
		t.Fatalf("agents must not reassign leads, got %+v", violations)
	}
}

func TestEnteringSalesFamilyClearsPresalesOwner(t *testing.T) {
	presales := uuid.New()
	agent := activeSalesAgent("mumbai-west", "hi")
	ref := testRef(t, agent)
	current := Snapshot{
		LeadID: "LD-000007",
		Fields: FieldSet{
			Status: "lead", ContactNumber: "9999999990",
			Centre: "mumbai-west", Language: "hi",
			PresalesAgentID: &presales,
		},
	}

	outcome, violations := ValidateTransition(current, ProposedFields{
		Status:    strp("qualified"),
		SubStatus: strp("hot"),
		ValueTier: strp("high"),
	}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if outcome.Fields.PresalesAgentID != nil {
		t.Fatalf("presales owner should be released when the lead qualifies")
	}
	if !outcome.NeedsSalesAgent {
		t.Fatalf("transition without an explicit sales agent must request routing")
	}
}

func TestReturningToPresalesFamilyClearsSalesOwner(t *testing.T) {
	agent := activeSalesAgent("mumbai-west", "hi")
	ref := testRef(t, agent)
	current := Snapshot{
		LeadID: "LD-000008",
		Fields: FieldSet{
			Status: "qualified", SubStatus: "warm",
			ContactNumber: "9999999990",
			Centre:        "mumbai-west", Language: "hi", ValueTier: "medium",
			SalesAgentID: &agent.ID,
		},
	}

	outcome, violations := ValidateTransition(current, ProposedFields{
		Status:    strp("lead"),
		SubStatus: strp("interested"),
	}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if outcome.Fields.SalesAgentID != nil {
		t.Fatalf("sales owner should be released when the lead drops back")
	}
	if outcome.NeedsSalesAgent {
		t.Fatalf("a presales-family status never needs a sales agent")
	}
}

func TestCentreChangeInvalidatesSalesAssignment(t *testing.T) {
	agent := activeSalesAgent("mumbai-west", "hi")
	ref := testRef(t, agent)
	current := Snapshot{
		LeadID: "LD-000009",
		Fields: FieldSet{
			Status: "qualified", SubStatus: "hot",
			ContactNumber: "9999999990",
			Centre:        "mumbai-west", Language: "hi", ValueTier: "high",
			SalesAgentID: &agent.ID,
		},
	}

	outcome, violations := ValidateTransition(current, ProposedFields{
		Centre: strp("pune-central"),
	}, refdata.RoleAdmin, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if outcome.Fields.SalesAgentID != nil {
		t.Fatalf("assignment should be dropped when the centre changes")
	}
	if !outcome.NeedsSalesAgent {
		t.Fatalf("a new sales agent must be routed for the new centre")
	}
}

func TestExplicitSalesAgentMustServeCentreAndLanguage(t *testing.T) {
	wrongCentre := activeSalesAgent("pune-central", "hi")
	wrongLanguage := activeSalesAgent("mumbai-west", "mr")
	inactive := activeSalesAgent("mumbai-west", "hi")
	inactive.Active = false
	ref := testRef(t, wrongCentre, wrongLanguage, inactive)

	current := Snapshot{
		LeadID: "LD-000010",
		Fields: FieldSet{
			Status: "lead", ContactNumber: "9999999990",
			Centre: "mumbai-west", Language: "hi",
		},
	}
	propose := func(id uuid.UUID) ProposedFields {
		return ProposedFields{
			Status:     strp("qualified"),
			SubStatus:  strp("hot"),
			ValueTier:  strp("high"),
			SalesAgent: refTo(id),
		}
	}

	for name, id := range map[string]uuid.UUID{
		"wrong centre":   wrongCentre.ID,
		"wrong language": wrongLanguage.ID,
		"inactive":       inactive.ID,
		"unknown":        uuid.New(),
	} {
		_, violations := ValidateTransition(current, propose(id), refdata.RoleAdmin, ref, testCfg)
		if !hasViolation(t, violations, "salesAgent") {
			t.Errorf("%s agent should be rejected, got %+v", name, violations)
		}
	}
}

func TestCallInFutureRequiresFollowUpDate(t *testing.T) {
	ref := testRef(t)
	current := Snapshot{LeadID: "LD-000011", Fields: FieldSet{Status: "lead", ContactNumber: "9999999990"}}

	_, violations := ValidateTransition(current, ProposedFields{
		SubStatus: strp("cif"),
	}, refdata.RolePresalesAgent, ref, testCfg)
	if !hasViolation(t, violations, "followUpAt") {
		t.Fatalf("cif without a follow-up date must be rejected, got %+v", violations)
	}

	due := time.Now().Add(48 * time.Hour)
	outcome, violations := ValidateTransition(current, ProposedFields{
		SubStatus:  strp("cif"),
		FollowUpAt: &due,
	}, refdata.RolePresalesAgent, ref, testCfg)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if outcome.Fields.FollowUpAt == nil {
		t.Fatalf("follow-up date lost")
	}
}
