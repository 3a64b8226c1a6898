package store

import (
	"context"
	"fmt"
	"sync"

	"capture-chat/internal/records"
)

// Memory implements the record ports and session persistence in process.
// It is NOT persistent and is meant for tests and `capture replay --memory`.
type Memory struct {
	mu sync.RWMutex

	currentUser  string
	companies    []records.Company
	people       []records.Person
	serviceTypes []records.ServiceType
	teamMembers  []records.TeamMember
	jobs         []records.Job
	deliverables []records.Deliverable
	quickTasks   []records.QuickTask
	jobTasks     []records.JobTask
	listItems    []records.ListItem
	timeEntries  []records.TimeEntry
	timer        records.TimerState
	sessions     map[string][]byte
}

func NewMemory(f Fixtures) *Memory {
	m := &Memory{sessions: make(map[string][]byte)}
	m.load(f)
	return m
}

func (m *Memory) load(f Fixtures) {
	m.currentUser = f.CurrentUser
	m.companies = append(m.companies, f.Companies...)
	m.people = append(m.people, f.People...)
	m.serviceTypes = append(m.serviceTypes, f.ServiceTypes...)
	m.teamMembers = append(m.teamMembers, f.TeamMembers...)
	for _, j := range f.Jobs {
		m.jobs = append(m.jobs, j.Job)
		for _, d := range j.Deliverables {
			if d.JobID == "" {
				d.JobID = j.ID
			}
			m.deliverables = append(m.deliverables, d)
		}
	}
	m.quickTasks = append(m.quickTasks, f.QuickTasks...)
	m.jobTasks = append(m.jobTasks, f.JobTasks...)
	m.listItems = append(m.listItems, f.ListItems...)
}

func (m *Memory) Companies(context.Context) ([]records.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.Company(nil), m.companies...), nil
}

func (m *Memory) People(context.Context) ([]records.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.Person(nil), m.people...), nil
}

func (m *Memory) ServiceTypes(context.Context) ([]records.ServiceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.ServiceType(nil), m.serviceTypes...), nil
}

func (m *Memory) TeamMembers(context.Context) ([]records.TeamMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.TeamMember(nil), m.teamMembers...), nil
}

func (m *Memory) Jobs(context.Context) ([]records.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.Job(nil), m.jobs...), nil
}

func (m *Memory) Deliverables(_ context.Context, jobID string) ([]records.Deliverable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []records.Deliverable
	for _, d := range m.deliverables {
		if d.JobID == jobID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) QuickTasks(context.Context) ([]records.QuickTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.QuickTask(nil), m.quickTasks...), nil
}

func (m *Memory) JobTasks(context.Context) ([]records.JobTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.JobTask(nil), m.jobTasks...), nil
}

func (m *Memory) ListItems(context.Context) ([]records.ListItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.ListItem(nil), m.listItems...), nil
}

func (m *Memory) TimeEntries(context.Context) ([]records.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]records.TimeEntry(nil), m.timeEntries...), nil
}

func (m *Memory) CurrentUser(context.Context) (records.TeamMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tm := range m.teamMembers {
		if tm.ID == m.currentUser {
			return tm, nil
		}
	}
	return records.TeamMember{}, fmt.Errorf("current user %q: %w", m.currentUser, records.ErrNotFound)
}

func (m *Memory) CreateListItem(_ context.Context, item records.ListItem) (records.ListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item = withListItemDefaults(item)
	m.listItems = append(m.listItems, item)
	return item, nil
}

func (m *Memory) DeleteListItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.listItems {
		if it.ID == id {
			m.listItems = append(m.listItems[:i], m.listItems[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete list item %q: %w", id, records.ErrNotFound)
}

func (m *Memory) CreateQuickTask(_ context.Context, task records.QuickTask) (records.QuickTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task = withQuickTaskDefaults(task)
	m.quickTasks = append(m.quickTasks, task)
	return task, nil
}

func (m *Memory) CreateJobTask(_ context.Context, task records.JobTask) (records.JobTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task = withJobTaskDefaults(task)
	m.jobTasks = append(m.jobTasks, task)
	return task, nil
}

func (m *Memory) AppendTimeEntry(_ context.Context, entry records.TimeEntry) (records.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry = withTimeEntryDefaults(entry)
	m.timeEntries = append(m.timeEntries, entry)
	return entry, nil
}

func (m *Memory) Timer(context.Context) (records.TimerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timer, nil
}

func (m *Memory) SetTimer(_ context.Context, state records.TimerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !state.Active {
		state = records.StoppedTimer()
	}
	m.timer = state
	return nil
}

// LoadSession returns nil, nil when nothing is stored under key.
func (m *Memory) LoadSession(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), body...), nil
}

func (m *Memory) SaveSession(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = append([]byte(nil), body...)
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
