package resolve

import (
	"context"
	"testing"
	"time"

	"capture-chat/internal/records"
	"capture-chat/internal/store"
)

func testResolver() *Resolver {
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return New(store.NewMemory(store.Fixtures{
		CurrentUser: "u1",
		Companies: []records.Company{
			{ID: "c1", Name: "Acme Corp", UpdatedAt: base},
			{ID: "c2", Name: "Globex", UpdatedAt: base.Add(2 * time.Hour)},
			{ID: "c3", Name: "Acme Labs", UpdatedAt: base.Add(time.Hour)},
		},
		People: []records.Person{
			{ID: "p1", Name: "Ada Lovelace", CompanyID: "c1"},
			{ID: "p2", Name: "Alan Turing", CompanyID: "c2"},
		},
		ServiceTypes: []records.ServiceType{{ID: "s2", Name: "Strategy"}, {ID: "s1", Name: "Design"}},
		TeamMembers:  []records.TeamMember{{ID: "u1", Name: "Sam"}, {ID: "u2", Name: "Riley"}},
		Jobs: []store.JobFixture{
			{Job: records.Job{ID: "j1", Name: "Website redesign"}, Deliverables: []records.Deliverable{
				{ID: "d1", Name: "Wireframes"}, {ID: "d2", Name: "Launch"},
			}},
			{Job: records.Job{ID: "j2", Name: "Brand refresh"}, Deliverables: []records.Deliverable{{ID: "d3", Name: "Logo"}}},
		},
		QuickTasks: []records.QuickTask{{ID: "q1", Title: "Fix login bug", UpdatedAt: base}},
		JobTasks:   []records.JobTask{{ID: "t1", Title: "Design review", JobID: "j1", DeliverableID: "d1", UpdatedAt: base.Add(time.Hour)}},
	}))
}

func TestMatchContainmentBothWays(t *testing.T) {
	names := []string{"Acme Corp", "Globex"}
	id := func(s string) string { return s }

	res := Match(names, id, "email proposal to ACME corp please")
	if res.Outcome != Unique || res.Match != "Acme Corp" {
		t.Fatalf("expected utterance-contains-name match, got %+v", res)
	}
	res = Match(names, id, "  acme ")
	if res.Outcome != Unique || res.Match != "Acme Corp" {
		t.Fatalf("expected name-contains-utterance match, got %+v", res)
	}
	res = Match(names, id, "initech")
	if res.Outcome != NoMatch {
		t.Fatalf("expected no match, got %+v", res)
	}
	res = Match(names, id, "x")
	if res.Outcome != NoMatch {
		t.Fatalf("expected single letters to be ignored, got %+v", res)
	}
}

func TestFamilyAmbiguousAndUnique(t *testing.T) {
	r := testResolver()
	ctx := context.Background()

	res, err := r.Companies.Fuzzy(ctx, "acme")
	if err != nil {
		t.Fatalf("fuzzy: %v", err)
	}
	if res.Outcome != Ambiguous || len(res.Options) != 2 {
		t.Fatalf("expected two acme matches, got %+v", res)
	}

	// A unique later hint beats an ambiguous earlier one.
	res, err = r.Companies.Fuzzy(ctx, "acme", "Acme Labs")
	if err != nil {
		t.Fatalf("fuzzy: %v", err)
	}
	if res.Outcome != Unique || res.Match.ID != "c3" {
		t.Fatalf("expected Acme Labs, got %+v", res)
	}
}

func TestTopOrdersByRecencyOrName(t *testing.T) {
	r := testResolver()
	ctx := context.Background()

	companies, err := r.Companies.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(companies) != 2 || companies[0].ID != "c2" || companies[1].ID != "c3" {
		t.Fatalf("expected most recent first, got %+v", companies)
	}

	services, err := r.ServiceTypes.TopOptions(ctx, 5)
	if err != nil {
		t.Fatalf("top options: %v", err)
	}
	if len(services) != 2 || services[0].Label != "Design" {
		t.Fatalf("expected name order, got %+v", services)
	}
}

func TestScopedFamilies(t *testing.T) {
	r := testResolver()
	ctx := context.Background()

	people, err := r.PeopleAt("c1").All(ctx)
	if err != nil {
		t.Fatalf("people: %v", err)
	}
	if len(people) != 1 || people[0].ID != "p1" {
		t.Fatalf("expected only Ada, got %+v", people)
	}
	everyone, _ := r.PeopleAt("").All(ctx)
	if len(everyone) != 2 {
		t.Fatalf("expected global scope, got %d", len(everyone))
	}

	found, err := r.DeliverablesOf("j1").Find(ctx, "logo")
	if err != nil {
		t.Fatalf("deliverables: %v", err)
	}
	if found.Outcome != NoMatch {
		t.Fatalf("expected logo to be out of scope for j1, got %+v", found)
	}
	found, _ = r.DeliverablesOf("j2").Find(ctx, "logo")
	if found.Outcome != Unique || found.Match.ID != "d3" {
		t.Fatalf("expected d3, got %+v", found)
	}
}

func TestUnifiedTasks(t *testing.T) {
	r := testResolver()
	ctx := context.Background()

	found, err := r.Tasks.Find(ctx, "Fix login bug")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if found.Outcome != Unique || found.Match.ID != "quick:q1" {
		t.Fatalf("expected quick task key, got %+v", found)
	}
	kind, id, ok := ParseTaskKey(found.Match.ID)
	if !ok || kind != records.TaskQuick || id != "q1" {
		t.Fatalf("unexpected key parse: %v %v %v", kind, id, ok)
	}
	label, ok, err := r.Tasks.Label(ctx, "job:t1")
	if err != nil || !ok || label != "Design review" {
		t.Fatalf("expected job task label, got %q %v %v", label, ok, err)
	}
	if _, _, ok := ParseTaskKey("bogus"); ok {
		t.Fatalf("expected bad key to fail")
	}
}

func TestSuggestNearMisses(t *testing.T) {
	r := testResolver()
	got, err := r.Companies.Suggest(context.Background(), "acm", 3)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both acme companies, got %+v", got)
	}
	got, _ = r.Companies.Suggest(context.Background(), "zzz", 3)
	if len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
}
