package refdata

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeLoader struct {
	sources []Source
	users   []User
	fail    bool
}

func (f *fakeLoader) ListSources(ctx context.Context) ([]Source, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.sources, nil
}

func (f *fakeLoader) ListCentres(ctx context.Context) ([]Centre, error) {
	return []Centre{{ID: uuid.New(), Name: "mumbai-west"}}, nil
}

func (f *fakeLoader) ListLanguages(ctx context.Context) ([]Language, error) {
	return []Language{{Code: "hi", Name: "Hindi"}}, nil
}

func (f *fakeLoader) ListProjectTypes(ctx context.Context) ([]string, error) {
	return []string{"apartment"}, nil
}

func (f *fakeLoader) ListHouseTypes(ctx context.Context) ([]string, error) {
	return []string{"2bhk"}, nil
}

func (f *fakeLoader) ListUsers(ctx context.Context) ([]User, error) {
	return f.users, nil
}

func testStore(t *testing.T, loader *fakeLoader) *Store {
	t.Helper()

	workflow, err := DefaultWorkflow()
	if err != nil {
		t.Fatalf("DefaultWorkflow: %v", err)
	}

	store := NewStore(loader, workflow)
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return store
}

func TestMatchSourceExactBeatsPartial(t *testing.T) {
	store := testStore(t, &fakeLoader{sources: []Source{
		{ID: uuid.New(), Name: "Website Organic", Category: "digital", Active: true},
		{ID: uuid.New(), Name: "Website", Category: "digital", Active: true},
	}})

	src, ok := store.Snapshot().MatchSource("website")
	if !ok {
		t.Fatal("expected a match")
	}
	if src.Name != "Website" {
		t.Errorf("exact match should win, got %q", src.Name)
	}
}

func TestMatchSourcePartialAndCase(t *testing.T) {
	store := testStore(t, &fakeLoader{sources: []Source{
		{ID: uuid.New(), Name: "Partner Network", Category: "channel-partner", Active: true},
	}})

	src, ok := store.Snapshot().MatchSource("  pArTnEr ")
	if !ok {
		t.Fatal("expected a partial match")
	}
	if src.Name != "Partner Network" {
		t.Errorf("got %q", src.Name)
	}

	if _, ok := store.Snapshot().MatchSource("billboard"); ok {
		t.Error("unknown source should not match")
	}
	if _, ok := store.Snapshot().MatchSource(""); ok {
		t.Error("blank source should not match")
	}
}

func TestMatchSourceSkipsInactive(t *testing.T) {
	store := testStore(t, &fakeLoader{sources: []Source{
		{ID: uuid.New(), Name: "Old Campaign", Category: "digital", Active: false},
	}})

	if _, ok := store.Snapshot().MatchSource("old campaign"); ok {
		t.Error("inactive source should not match")
	}
}

func TestPoolForSource(t *testing.T) {
	store := testStore(t, &fakeLoader{})
	snap := store.Snapshot()

	if got := snap.PoolForSource(Source{Category: "channel-partner"}); got != PoolChannelPartner {
		t.Errorf("channel-partner category: got %q", got)
	}
	if got := snap.PoolForSource(Source{Category: "broker"}); got != PoolChannelPartner {
		t.Errorf("broker category: got %q", got)
	}
	if got := snap.PoolForSource(Source{Category: "digital"}); got != PoolDirect {
		t.Errorf("digital category: got %q", got)
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	loader := &fakeLoader{sources: []Source{
		{ID: uuid.New(), Name: "Website", Category: "digital", Active: true},
	}}
	store := testStore(t, loader)
	first := store.Snapshot()

	loader.sources = append(loader.sources, Source{ID: uuid.New(), Name: "Referral", Category: "referral", Active: true})
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if len(first.Sources) != 1 {
		t.Errorf("old snapshot mutated: %d sources", len(first.Sources))
	}
	if len(store.Snapshot().Sources) != 2 {
		t.Errorf("new snapshot has %d sources, want 2", len(store.Snapshot().Sources))
	}
}

func TestReloadFailureKeepsSnapshot(t *testing.T) {
	loader := &fakeLoader{sources: []Source{
		{ID: uuid.New(), Name: "Website", Category: "digital", Active: true},
	}}
	store := testStore(t, loader)

	loader.fail = true
	if err := store.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}

	if _, ok := store.Snapshot().MatchSource("website"); !ok {
		t.Error("previous snapshot should survive a failed reload")
	}
}

func TestUserByID(t *testing.T) {
	agent := User{ID: uuid.New(), Name: "Asha", Role: RolePresalesAgent, Languages: []string{"hi"}, Pool: PoolDirect, Active: true}
	store := testStore(t, &fakeLoader{users: []User{agent}})

	got, ok := store.Snapshot().UserByID(agent.ID)
	if !ok || got.Name != "Asha" {
		t.Fatalf("UserByID: got %+v ok=%v", got, ok)
	}
	if _, ok := store.Snapshot().UserByID(uuid.New()); ok {
		t.Error("unknown id should not resolve")
	}
}
