package records

import "context"

// Directory is the read side the engine resolves entities against.
// Implementations must not mutate anything.
type Directory interface {
	Companies(ctx context.Context) ([]Company, error)
	People(ctx context.Context) ([]Person, error)
	ServiceTypes(ctx context.Context) ([]ServiceType, error)
	TeamMembers(ctx context.Context) ([]TeamMember, error)
	Jobs(ctx context.Context) ([]Job, error)
	Deliverables(ctx context.Context, jobID string) ([]Deliverable, error)
	QuickTasks(ctx context.Context) ([]QuickTask, error)
	JobTasks(ctx context.Context) ([]JobTask, error)
	ListItems(ctx context.Context) ([]ListItem, error)
	CurrentUser(ctx context.Context) (TeamMember, error)
}

// Commands are the write side. Each call either fully succeeds or fully fails.
type Commands interface {
	CreateListItem(ctx context.Context, item ListItem) (ListItem, error)
	DeleteListItem(ctx context.Context, id string) error
	CreateQuickTask(ctx context.Context, task QuickTask) (QuickTask, error)
	CreateJobTask(ctx context.Context, task JobTask) (JobTask, error)
	AppendTimeEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	Timer(ctx context.Context) (TimerState, error)
	SetTimer(ctx context.Context, state TimerState) error
}
