package refdata

import "github.com/google/uuid"

// Role slugs for the user roster. Presales roles carry languages; sales
// roles carry a centre.
const (
	RolePresalesAgent   = "presales_agent"
	RolePresalesManager = "presales_manager"
	RolePresalesHOD     = "presales_hod"
	RoleSalesAgent      = "sales_agent"
	RoleSalesManager    = "sales_manager"
	RoleSalesHOD        = "sales_hod"
	RoleAdmin           = "admin"
	RoleMarketing       = "marketing"
)

// Presales assignment pools. Channel-partner sources route to a distinct
// presales pool.
const (
	PoolDirect         = "direct"
	PoolChannelPartner = "channel_partner"
)

// Source is an origin channel for leads.
type Source struct {
	ID              uuid.UUID
	Name            string
	Category        string
	DefaultLanguage string // "" when the source carries no language signal
	Active          bool
}

// Centre is a physical sales location.
type Centre struct {
	ID   uuid.UUID
	Name string
}

// Language is a spoken language presales agents can serve.
type Language struct {
	Code string
	Name string
}

// User is one roster entry. Users are routing targets only; the engine
// never mutates them.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string
	Centre    string   // sales roles
	Languages []string // presales roles
	Pool      string   // presales assignment pool
	Active    bool
}

// IsPresalesRole reports whether the role belongs to the presales family.
func IsPresalesRole(role string) bool {
	switch role {
	case RolePresalesAgent, RolePresalesManager, RolePresalesHOD:
		return true
	}
	return false
}

// IsSalesRole reports whether the role belongs to the sales family.
func IsSalesRole(role string) bool {
	switch role {
	case RoleSalesAgent, RoleSalesManager, RoleSalesHOD:
		return true
	}
	return false
}

// SpeaksLanguage reports whether the user serves the given language.
func (u User) SpeaksLanguage(language string) bool {
	for _, l := range u.Languages {
		if l == language {
			return true
		}
	}
	return false
}
