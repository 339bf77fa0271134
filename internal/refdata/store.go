package refdata

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Snapshot is one immutable view of all reference data. Readers obtain a
// snapshot and use it without locking; Reload swaps the whole snapshot
// atomically.
type Snapshot struct {
	Workflow     *Workflow
	Sources      []Source
	Centres      []Centre
	Languages    []Language
	ProjectTypes []string
	HouseTypes   []string
	Users        []User

	usersByID map[uuid.UUID]User
}

// Loader abstracts the repository so the store can be fed from fixtures in
// tests.
type Loader interface {
	ListSources(ctx context.Context) ([]Source, error)
	ListCentres(ctx context.Context) ([]Centre, error)
	ListLanguages(ctx context.Context) ([]Language, error)
	ListProjectTypes(ctx context.Context) ([]string, error)
	ListHouseTypes(ctx context.Context) ([]string, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// Store caches reference data in memory. Reference rows change rarely and
// number in the hundreds, so a full reload is cheap.
type Store struct {
	loader   Loader
	workflow *Workflow
	current  atomic.Pointer[Snapshot]
}

// NewStore creates a store around the loader and workflow configuration.
// Call Reload before first use.
func NewStore(loader Loader, workflow *Workflow) *Store {
	return &Store{loader: loader, workflow: workflow}
}

// NewStaticStore builds a store from a pre-built snapshot. Test helper.
func NewStaticStore(snap *Snapshot) *Store {
	s := &Store{workflow: snap.Workflow}
	snap.index()
	s.current.Store(snap)
	return s
}

// Reload fetches all reference sets and swaps the cached snapshot.
func (s *Store) Reload(ctx context.Context) error {
	snap := &Snapshot{Workflow: s.workflow}

	var err error
	if snap.Sources, err = s.loader.ListSources(ctx); err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if snap.Centres, err = s.loader.ListCentres(ctx); err != nil {
		return fmt.Errorf("load centres: %w", err)
	}
	if snap.Languages, err = s.loader.ListLanguages(ctx); err != nil {
		return fmt.Errorf("load languages: %w", err)
	}
	if snap.ProjectTypes, err = s.loader.ListProjectTypes(ctx); err != nil {
		return fmt.Errorf("load project types: %w", err)
	}
	if snap.HouseTypes, err = s.loader.ListHouseTypes(ctx); err != nil {
		return fmt.Errorf("load house types: %w", err)
	}
	if snap.Users, err = s.loader.ListUsers(ctx); err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	snap.index()
	s.current.Store(snap)
	return nil
}

// Snapshot returns the current reference data view. Never nil after a
// successful Reload.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

func (snap *Snapshot) index() {
	snap.usersByID = make(map[uuid.UUID]User, len(snap.Users))
	for _, u := range snap.Users {
		snap.usersByID[u.ID] = u
	}
}

// UserByID looks up a roster entry.
func (snap *Snapshot) UserByID(id uuid.UUID) (User, bool) {
	u, ok := snap.usersByID[id]
	return u, ok
}

// MatchSource resolves a source by case-insensitive partial name match, the
// contract the bulk import relies on. An exact (case-insensitive) match wins
// over a partial one; among partial matches the first in name order wins.
func (snap *Snapshot) MatchSource(name string) (Source, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Source{}, false
	}

	var partial *Source
	for i := range snap.Sources {
		src := snap.Sources[i]
		if !src.Active {
			continue
		}
		lower := strings.ToLower(src.Name)
		if lower == needle {
			return src, true
		}
		if partial == nil && strings.Contains(lower, needle) {
			partial = &src
		}
	}

	if partial != nil {
		return *partial, true
	}
	return Source{}, false
}

// HasCentre reports whether name is a known centre.
func (snap *Snapshot) HasCentre(name string) bool {
	for _, c := range snap.Centres {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasLanguage reports whether code is a known language.
func (snap *Snapshot) HasLanguage(code string) bool {
	for _, l := range snap.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// HasProjectType reports whether name is a known project type.
func (snap *Snapshot) HasProjectType(name string) bool {
	for _, p := range snap.ProjectTypes {
		if p == name {
			return true
		}
	}
	return false
}

// HasHouseType reports whether name is a known house type.
func (snap *Snapshot) HasHouseType(name string) bool {
	for _, h := range snap.HouseTypes {
		if h == name {
			return true
		}
	}
	return false
}

// PoolForSource maps a source to its presales assignment pool.
func (snap *Snapshot) PoolForSource(src Source) string {
	if snap.Workflow.IsChannelPartnerCategory(src.Category) {
		return PoolChannelPartner
	}
	return PoolDirect
}
