package domain

import (
	"fmt"

	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/apperr"
	"leadcrm_backend/platform/phone"

	"github.com/google/uuid"
)

// RulesConfig carries the tunable thresholds of the validation rules engine.
type RulesConfig struct {
	// WonMinProjectValue is the minimum project value (currency minor units)
	// required for the "won" status.
	WonMinProjectValue int64
	// PhoneDefaultRegion is the ISO region used when normalizing contact
	// numbers without a country prefix.
	PhoneDefaultRegion string
}

// Outcome is the accepted result of a validated transition.
type Outcome struct {
	// Fields is the normalized field set ready to persist.
	Fields FieldSet
	// NeedsSalesAgent is true when the transition requires a sales agent and
	// none was explicitly chosen; the caller must resolve one through the
	// assignment router before persisting.
	NeedsSalesAgent bool
	// ClearedSubStatus is true when an incompatible sub-status was cleared
	// automatically.
	ClearedSubStatus bool
}

// Field-permission groups. Which groups a role may touch mirrors the
// role-conditional forms of the product UI, made explicit here so every
// caller shares one copy of the rules.
const (
	groupContact        = "contact"
	groupClassification = "classification"
	groupWorkflow       = "workflow"
	groupAssignment     = "assignment"
)

var roleGroups = map[string][]string{
	refdata.RoleAdmin:           {groupContact, groupClassification, groupWorkflow, groupAssignment},
	refdata.RolePresalesManager: {groupContact, groupClassification, groupWorkflow, groupAssignment},
	refdata.RolePresalesHOD:     {groupContact, groupClassification, groupWorkflow, groupAssignment},
	refdata.RoleSalesManager:    {groupContact, groupClassification, groupWorkflow, groupAssignment},
	refdata.RoleSalesHOD:        {groupContact, groupClassification, groupWorkflow, groupAssignment},
	refdata.RolePresalesAgent:   {groupContact, groupClassification, groupWorkflow},
	refdata.RoleSalesAgent:      {groupContact, groupClassification, groupWorkflow},
	refdata.RoleMarketing:       {groupContact, groupClassification},
}

func roleMayEdit(role, group string) bool {
	for _, g := range roleGroups[role] {
		if g == group {
			return true
		}
	}
	return false
}

// ValidateTransition decides whether a proposed update to a lead is legal.
// It evaluates the rules in order and collects every violation instead of
// short-circuiting, so the caller can surface all errors at once. It has no
// side effects: on success the returned Outcome holds the normalized field
// set; the caller persists it (resolving a sales agent first when
// Outcome.NeedsSalesAgent is set).
func ValidateTransition(current Snapshot, proposed ProposedFields, role string, ref *refdata.Snapshot, cfg RulesConfig) (Outcome, []apperr.FieldError) {
	var violations []apperr.FieldError
	addViolation := func(field, reason string) {
		violations = append(violations, apperr.FieldError{Field: field, Reason: reason})
	}

	wf := ref.Workflow

	// Role gating: reject touches to fields the role may not edit.
	for _, touch := range touchedFields(proposed) {
		if !roleMayEdit(role, touch.group) {
			addViolation(touch.field, "not editable for role "+role)
		}
	}

	cand := current.Fields

	// Rule 1: contact number pattern and normalization.
	if proposed.ContactNumber != nil {
		if !phone.IsValid(*proposed.ContactNumber) {
			addViolation("contactNumber", "must be 10-15 digits (separators + - ( ) and spaces allowed)")
		} else {
			cand.ContactNumber = phone.NormalizeDigits(*proposed.ContactNumber, cfg.PhoneDefaultRegion)
		}
	}

	applyScalars(&cand, proposed)

	// Classification values must exist in the reference data.
	if proposed.Source != nil && *proposed.Source != "" {
		if _, ok := ref.MatchSource(*proposed.Source); !ok {
			addViolation("source", "unknown lead source")
		}
	}
	if proposed.Language != nil && *proposed.Language != "" && !ref.HasLanguage(*proposed.Language) {
		addViolation("language", "unknown language")
	}
	if proposed.Centre != nil && *proposed.Centre != "" && !ref.HasCentre(*proposed.Centre) {
		addViolation("centre", "unknown centre")
	}
	if proposed.ProjectType != nil && *proposed.ProjectType != "" && !ref.HasProjectType(*proposed.ProjectType) {
		addViolation("projectType", "unknown project type")
	}
	if proposed.HouseType != nil && *proposed.HouseType != "" && !ref.HasHouseType(*proposed.HouseType) {
		addViolation("houseType", "unknown house type")
	}
	if proposed.ValueTier != nil && *proposed.ValueTier != "" && !wf.IsValueTier(*proposed.ValueTier) {
		addViolation("valueTier", "unknown lead value tier")
	}

	target := cand.Status
	if proposed.Status != nil && !wf.IsStatus(*proposed.Status) {
		addViolation("status", "unknown status")
		target = current.Fields.Status
		cand.Status = target
	}
	statusChanged := target != current.Fields.Status

	// Rule 4: a sub-status outside the target status's allowed set is
	// cleared automatically, not rejected ("moving to a new status resets
	// the substatus").
	outcome := Outcome{}
	if cand.SubStatus != "" && !wf.IsSubStatusAllowed(target, cand.SubStatus) {
		cand.SubStatus = ""
		outcome.ClearedSubStatus = true
	}

	// Rule 2: the "qualified" gate. Every missing prerequisite is reported.
	if target == refdata.StatusQualified {
		if cand.Centre == "" {
			addViolation("centre", "required when status is qualified")
		}
		if cand.Language == "" {
			addViolation("language", "required when status is qualified")
		}
		if cand.SubStatus == "" {
			addViolation("subStatus", "required when status is qualified")
		}
		if cand.ValueTier == "" {
			addViolation("valueTier", "required when status is qualified")
		}
	}

	// Rule 3: the "won" threshold.
	if target == refdata.StatusWon {
		if cand.ProjectValue == nil {
			addViolation("projectValue", "required when status is won")
		} else if *cand.ProjectValue < cfg.WonMinProjectValue {
			addViolation("projectValue", fmt.Sprintf("must be at least %d", cfg.WonMinProjectValue))
		}
	}

	// A cif sub-status is a scheduled follow-up; it needs a date.
	if cand.SubStatus == refdata.SubStatusCIF && cand.FollowUpAt == nil {
		addViolation("followUpAt", "required for call-in-future")
	}

	// Rules 5 and 6: ownership follows the status family, and the sales
	// match is a function of (centre, language).
	family := wf.Family(target)
	switch family {
	case refdata.FamilyPresales:
		// Ownership returns to presales.
		cand.SalesAgentID = nil
	case refdata.FamilySales:
		if wf.Family(current.Fields.Status) != refdata.FamilySales {
			cand.PresalesAgentID = nil
		}

		centreChanged := cand.Centre != current.Fields.Centre
		languageChanged := cand.Language != current.Fields.Language
		if !statusChanged && (centreChanged || languageChanged) && !proposed.SalesAgent.Set {
			// Rule 6: the existing assignment no longer matches.
			cand.SalesAgentID = nil
		}

		if cand.SalesAgentID != nil {
			if fieldErr, ok := checkSalesAgent(*cand.SalesAgentID, cand, ref); !ok {
				violations = append(violations, fieldErr)
			}
		} else {
			outcome.NeedsSalesAgent = true
		}
	}

	if proposed.PresalesAgent.Set && cand.PresalesAgentID != nil {
		user, ok := ref.UserByID(*cand.PresalesAgentID)
		if !ok || !user.Active || !refdata.IsPresalesRole(user.Role) {
			addViolation("presalesAgent", "not an active presales agent")
		}
	}

	if len(violations) > 0 {
		return Outcome{}, violations
	}

	outcome.Fields = cand
	return outcome, nil
}

// checkSalesAgent verifies an explicitly chosen sales agent actually serves
// the lead's (centre, language).
func checkSalesAgent(id uuid.UUID, cand FieldSet, ref *refdata.Snapshot) (apperr.FieldError, bool) {
	user, ok := ref.UserByID(id)
	if !ok || !user.Active || !refdata.IsSalesRole(user.Role) {
		return apperr.FieldError{Field: "salesAgent", Reason: "not an active sales agent"}, false
	}
	if cand.Centre != "" && user.Centre != cand.Centre {
		return apperr.FieldError{Field: "salesAgent", Reason: "agent does not belong to centre " + cand.Centre}, false
	}
	if cand.Language != "" && len(user.Languages) > 0 && !user.SpeaksLanguage(cand.Language) {
		return apperr.FieldError{Field: "salesAgent", Reason: "agent does not serve language " + cand.Language}, false
	}
	return apperr.FieldError{}, true
}

// applyScalars overlays the plain proposed values onto the candidate set.
// Contact number is handled separately because it is normalized.
func applyScalars(cand *FieldSet, proposed ProposedFields) {
	if proposed.Name != nil {
		cand.Name = *proposed.Name
	}
	if proposed.Email != nil {
		cand.Email = *proposed.Email
	}
	if proposed.Source != nil {
		cand.Source = *proposed.Source
	}
	if proposed.Language != nil {
		cand.Language = *proposed.Language
	}
	if proposed.Centre != nil {
		cand.Centre = *proposed.Centre
	}
	if proposed.ProjectType != nil {
		cand.ProjectType = *proposed.ProjectType
	}
	if proposed.HouseType != nil {
		cand.HouseType = *proposed.HouseType
	}
	if proposed.Status != nil {
		cand.Status = *proposed.Status
	}
	if proposed.SubStatus != nil {
		cand.SubStatus = *proposed.SubStatus
	}
	if proposed.ValueTier != nil {
		cand.ValueTier = *proposed.ValueTier
	}
	if proposed.ProjectValue != nil {
		v := *proposed.ProjectValue
		cand.ProjectValue = &v
	}
	if proposed.PresalesAgent.Set {
		cand.PresalesAgentID = proposed.PresalesAgent.Value
	}
	if proposed.SalesAgent.Set {
		cand.SalesAgentID = proposed.SalesAgent.Value
	}
	if proposed.SiteVisit.Set {
		cand.SiteVisit = proposed.SiteVisit.Value
	}
	if proposed.CentreVisit.Set {
		cand.CentreVisit = proposed.CentreVisit.Value
	}
	if proposed.VirtualMeeting.Set {
		cand.VirtualMeeting = proposed.VirtualMeeting.Value
	}
	if proposed.FollowUpAt != nil {
		t := *proposed.FollowUpAt
		cand.FollowUpAt = &t
	}
}

type fieldTouch struct {
	field string
	group string
}

// touchedFields lists the fields a proposed update touches, with their
// permission groups.
func touchedFields(p ProposedFields) []fieldTouch {
	var touches []fieldTouch
	add := func(cond bool, field, group string) {
		if cond {
			touches = append(touches, fieldTouch{field: field, group: group})
		}
	}

	add(p.Name != nil, "name", groupContact)
	add(p.Email != nil, "email", groupContact)
	add(p.ContactNumber != nil, "contactNumber", groupContact)

	add(p.Source != nil, "source", groupClassification)
	add(p.Language != nil, "language", groupClassification)
	add(p.Centre != nil, "centre", groupClassification)
	add(p.ProjectType != nil, "projectType", groupClassification)
	add(p.HouseType != nil, "houseType", groupClassification)

	add(p.Status != nil, "status", groupWorkflow)
	add(p.SubStatus != nil, "subStatus", groupWorkflow)
	add(p.ValueTier != nil, "valueTier", groupWorkflow)
	add(p.ProjectValue != nil, "projectValue", groupWorkflow)
	add(p.FollowUpAt != nil, "followUpAt", groupWorkflow)
	add(p.SiteVisit.Set, "siteVisit", groupWorkflow)
	add(p.CentreVisit.Set, "centreVisit", groupWorkflow)
	add(p.VirtualMeeting.Set, "virtualMeeting", groupWorkflow)

	add(p.PresalesAgent.Set, "presalesAgent", groupAssignment)
	add(p.SalesAgent.Set, "salesAgent", groupAssignment)

	return touches
}
