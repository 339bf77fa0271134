// Package refdata provides the read-only reference data the engine depends
// on: lead sources, centres, languages, project/house types, the status
// workflow and the user roster. All of it is owned by an external
// administrative subsystem; this package only reads.
package refdata

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed workflow.yaml
var defaultWorkflowYAML []byte

// Status families decide which agent owns the lead.
const (
	FamilyPresales = "presales"
	FamilySales    = "sales"
)

// Well-known status slugs. The workflow file may carry more, but these four
// anchor the lifecycle rules.
const (
	StatusLead      = "lead"
	StatusQualified = "qualified"
	StatusWon       = "won"
	StatusLost      = "lost"
)

// Well-known sub-status slugs.
const (
	SubStatusCIF = "cif" // call-in-future, carries a follow-up date
)

// StatusDef describes one workflow status.
type StatusDef struct {
	Slug        string   `yaml:"slug"`
	Family      string   `yaml:"family"`
	Milestone   string   `yaml:"milestone"`
	SubStatuses []string `yaml:"subStatuses"`
}

// Workflow is the configured status/sub-status model. It is loaded once at
// startup and treated as immutable.
type Workflow struct {
	Statuses                 []StatusDef       `yaml:"statuses"`
	SubStatusMilestones      map[string]string `yaml:"subStatusMilestones"`
	ValueTiers               []string          `yaml:"valueTiers"`
	ChannelPartnerCategories []string          `yaml:"channelPartnerCategories"`

	bySlug map[string]StatusDef
}

// DefaultWorkflow parses the embedded workflow configuration.
func DefaultWorkflow() (*Workflow, error) {
	return ParseWorkflow(defaultWorkflowYAML)
}

// ParseWorkflow parses workflow YAML and validates its internal consistency.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}

	if len(wf.Statuses) == 0 {
		return nil, fmt.Errorf("workflow defines no statuses")
	}

	wf.bySlug = make(map[string]StatusDef, len(wf.Statuses))
	for _, st := range wf.Statuses {
		if st.Slug == "" {
			return nil, fmt.Errorf("workflow status with empty slug")
		}
		if st.Family != FamilyPresales && st.Family != FamilySales {
			return nil, fmt.Errorf("status %q: unknown family %q", st.Slug, st.Family)
		}
		if _, dup := wf.bySlug[st.Slug]; dup {
			return nil, fmt.Errorf("duplicate status slug %q", st.Slug)
		}
		wf.bySlug[st.Slug] = st
	}

	return &wf, nil
}

// IsStatus reports whether slug is a configured status.
func (w *Workflow) IsStatus(slug string) bool {
	_, ok := w.bySlug[slug]
	return ok
}

// Family returns the owning-agent family for a status, or "" when unknown.
func (w *Workflow) Family(slug string) string {
	return w.bySlug[slug].Family
}

// AllowedSubStatuses returns the legal sub-status set for a status. Terminal
// statuses return an empty set.
func (w *Workflow) AllowedSubStatuses(slug string) []string {
	return w.bySlug[slug].SubStatuses
}

// IsSubStatusAllowed reports whether sub belongs to the allowed set of status.
func (w *Workflow) IsSubStatusAllowed(status, sub string) bool {
	for _, s := range w.bySlug[status].SubStatuses {
		if s == sub {
			return true
		}
	}
	return false
}

// StatusMilestone returns the milestone key written when a lead first enters
// the status, or "" when the status carries no milestone.
func (w *Workflow) StatusMilestone(slug string) string {
	return w.bySlug[slug].Milestone
}

// SubStatusMilestone returns the milestone key for a sub-status, or "".
func (w *Workflow) SubStatusMilestone(sub string) string {
	return w.SubStatusMilestones[sub]
}

// IsValueTier reports whether tier is a configured lead-value tier.
func (w *Workflow) IsValueTier(tier string) bool {
	for _, t := range w.ValueTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// IsChannelPartnerCategory reports whether a source category routes to the
// channel-partner presales pool.
func (w *Workflow) IsChannelPartnerCategory(category string) bool {
	for _, c := range w.ChannelPartnerCategories {
		if c == category {
			return true
		}
	}
	return false
}
