package resolve

import (
	"context"
	"strings"

	"capture-chat/internal/records"
)

// Resolver exposes one Family per entity collection of a Directory.
type Resolver struct {
	dir records.Directory

	Companies    Family[records.Company]
	People       Family[records.Person]
	ServiceTypes Family[records.ServiceType]
	TeamMembers  Family[records.TeamMember]
	Jobs         Family[records.Job]
	QuickTasks   Family[records.QuickTask]
	JobTasks     Family[records.JobTask]
	ListItems    Family[records.ListItem]
	Tasks        Family[records.TaskRef]
}

func New(dir records.Directory) *Resolver {
	r := &Resolver{dir: dir}
	r.Companies = NewFamily("company", dir.Companies,
		func(c records.Company) string { return c.ID },
		func(c records.Company) string { return c.Name },
		func(a, b records.Company) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	r.People = NewFamily("person", dir.People,
		func(p records.Person) string { return p.ID },
		func(p records.Person) string { return p.Name },
		func(a, b records.Person) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	r.ServiceTypes = NewFamily("service type", dir.ServiceTypes,
		func(s records.ServiceType) string { return s.ID },
		func(s records.ServiceType) string { return s.Name },
		nil)
	r.TeamMembers = NewFamily("team member", dir.TeamMembers,
		func(m records.TeamMember) string { return m.ID },
		func(m records.TeamMember) string { return m.Name },
		nil)
	r.Jobs = NewFamily("job", dir.Jobs,
		func(j records.Job) string { return j.ID },
		func(j records.Job) string { return j.Name },
		func(a, b records.Job) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	r.QuickTasks = NewFamily("quick task", dir.QuickTasks,
		func(q records.QuickTask) string { return q.ID },
		func(q records.QuickTask) string { return q.Title },
		func(a, b records.QuickTask) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	r.JobTasks = NewFamily("job task", dir.JobTasks,
		func(j records.JobTask) string { return j.ID },
		func(j records.JobTask) string { return j.Title },
		func(a, b records.JobTask) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	r.ListItems = NewFamily("list item", dir.ListItems,
		func(l records.ListItem) string { return l.ID },
		func(l records.ListItem) string { return l.Title },
		func(a, b records.ListItem) bool { return a.CreatedAt.After(b.CreatedAt) })
	r.Tasks = NewFamily("task", r.loadTasks,
		TaskKey,
		func(t records.TaskRef) string { return t.Title },
		func(a, b records.TaskRef) bool { return a.UpdatedAt.After(b.UpdatedAt) })
	return r
}

func (r *Resolver) loadTasks(ctx context.Context) ([]records.TaskRef, error) {
	quick, err := r.dir.QuickTasks(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := r.dir.JobTasks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]records.TaskRef, 0, len(quick)+len(jobs))
	for _, q := range quick {
		out = append(out, q.Ref())
	}
	for _, j := range jobs {
		out = append(out, j.Ref())
	}
	return out, nil
}

// PeopleAt scopes people to a company. An empty id means every person.
func (r *Resolver) PeopleAt(companyID string) Family[records.Person] {
	if companyID == "" {
		return r.People
	}
	return r.People.Filter(func(p records.Person) bool { return p.CompanyID == companyID })
}

// DeliverablesOf is only meaningful once a job is chosen.
func (r *Resolver) DeliverablesOf(jobID string) Family[records.Deliverable] {
	return NewFamily("deliverable",
		func(ctx context.Context) ([]records.Deliverable, error) { return r.dir.Deliverables(ctx, jobID) },
		func(d records.Deliverable) string { return d.ID },
		func(d records.Deliverable) string { return d.Name },
		nil)
}

func (r *Resolver) CurrentUser(ctx context.Context) (records.TeamMember, error) {
	return r.dir.CurrentUser(ctx)
}

// TaskKey identifies a task across both kinds, e.g. "quick:q1".
func TaskKey(t records.TaskRef) string {
	return string(t.Kind) + ":" + t.ID
}

func ParseTaskKey(key string) (records.TaskKind, string, bool) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return "", "", false
	}
	switch records.TaskKind(kind) {
	case records.TaskQuick, records.TaskJob:
		return records.TaskKind(kind), id, true
	}
	return "", "", false
}
