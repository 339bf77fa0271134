package routing

import (
	"testing"

	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/apperr"

	"github.com/google/uuid"
)

func testStore(t *testing.T, users ...refdata.User) *refdata.Store {
	t.Helper()
	wf, err := refdata.DefaultWorkflow()
	if err != nil {
		t.Fatalf("load workflow: %v", err)
	}
	return refdata.NewStaticStore(&refdata.Snapshot{Workflow: wf, Users: users})
}

func presalesAgent(name, pool string, languages ...string) refdata.User {
	return refdata.User{
		ID:        uuid.New(),
		Name:      name,
		Role:      refdata.RolePresalesAgent,
		Languages: languages,
		Pool:      pool,
		Active:    true,
	}
}

func salesAgent(name, centre string, languages ...string) refdata.User {
	return refdata.User{
		ID:        uuid.New(),
		Name:      name,
		Role:      refdata.RoleSalesAgent,
		Centre:    centre,
		Languages: languages,
		Active:    true,
	}
}

func TestPresalesMatchIgnoresCentre(t *testing.T) {
	agent := presalesAgent("asha", refdata.PoolDirect, "hi", "en")
	router := New(testStore(t, agent))

	got := router.Candidates(Request{Role: refdata.FamilyPresales, Language: "hi", Centre: "mumbai-west"})
	if len(got) != 1 || got[0].ID != agent.ID {
		t.Fatalf("expected the presales agent regardless of centre, got %d candidates", len(got))
	}
}

func TestPresalesPoolFilter(t *testing.T) {
	direct := presalesAgent("asha", refdata.PoolDirect, "hi")
	partner := presalesAgent("vikram", refdata.PoolChannelPartner, "hi")
	router := New(testStore(t, direct, partner))

	got := router.Candidates(Request{Role: refdata.FamilyPresales, Language: "hi", Pool: refdata.PoolChannelPartner})
	if len(got) != 1 || got[0].ID != partner.ID {
		t.Fatalf("expected only the channel-partner pool agent, got %d candidates", len(got))
	}
}

func TestSalesMatchRequiresCentreAndLanguage(t *testing.T) {
	match := salesAgent("ravi", "mumbai-west", "hi")
	wrongCentre := salesAgent("sunil", "pune-east", "hi")
	wrongLanguage := salesAgent("leela", "mumbai-west", "ta")
	noLanguages := salesAgent("omkar", "mumbai-west")
	router := New(testStore(t, match, wrongCentre, wrongLanguage, noLanguages))

	got := router.Candidates(Request{Role: refdata.FamilySales, Language: "hi", Centre: "mumbai-west"})
	if len(got) != 2 {
		t.Fatalf("expected centre+language match and the language-free agent, got %d", len(got))
	}
	if got[0].ID != match.ID || got[1].ID != noLanguages.ID {
		t.Fatalf("unexpected candidate set: %v, %v", got[0].Name, got[1].Name)
	}
}

func TestResolveExhaustionIsRoutingError(t *testing.T) {
	router := New(testStore(t))

	agent, candidates, err := router.Resolve(Request{Role: refdata.FamilyPresales, Language: "fr"}, PolicyFirstAvailable)
	if agent != nil || candidates != nil {
		t.Fatalf("expected no agent on exhaustion, got agent=%v candidates=%v", agent, candidates)
	}
	if !apperr.Is(err, apperr.KindRouting) {
		t.Fatalf("expected a routing error, got %v", err)
	}
}

func TestResolveCandidatesPolicyDoesNotPick(t *testing.T) {
	a := salesAgent("ravi", "mumbai-west")
	b := salesAgent("omkar", "mumbai-west")
	router := New(testStore(t, a, b))

	agent, candidates, err := router.Resolve(Request{Role: refdata.FamilySales, Centre: "mumbai-west"}, PolicyCandidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent != nil {
		t.Fatalf("candidates policy must not auto-pick among %d matches", len(candidates))
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both candidates, got %d", len(candidates))
	}
}

func TestResolveFirstAvailableIsDeterministic(t *testing.T) {
	a := salesAgent("ravi", "mumbai-west")
	b := salesAgent("omkar", "mumbai-west")
	router := New(testStore(t, a, b))

	for i := 0; i < 5; i++ {
		agent, _, err := router.Resolve(Request{Role: refdata.FamilySales, Centre: "mumbai-west"}, PolicyFirstAvailable)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agent == nil || agent.ID != a.ID {
			t.Fatalf("expected roster-order first pick every time")
		}
	}
}

func TestExcludeRemovesCurrentOwner(t *testing.T) {
	a := salesAgent("ravi", "mumbai-west")
	b := salesAgent("omkar", "mumbai-west")
	router := New(testStore(t, a, b))

	got := router.Candidates(Request{Role: refdata.FamilySales, Centre: "mumbai-west", Exclude: &a.ID})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("expected the excluded agent to be filtered out")
	}
}

func TestInactiveUsersNeverMatch(t *testing.T) {
	agent := presalesAgent("asha", refdata.PoolDirect, "hi")
	agent.Active = false
	router := New(testStore(t, agent))

	if got := router.Candidates(Request{Role: refdata.FamilyPresales, Language: "hi"}); len(got) != 0 {
		t.Fatalf("inactive agent must not be a candidate")
	}
}
