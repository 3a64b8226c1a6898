package records

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

type AnchorType string

const (
	AnchorInternal AnchorType = "internal"
	AnchorCompany  AnchorType = "company"
	AnchorPerson   AnchorType = "person"
)

type TaskKind string

const (
	TaskQuick TaskKind = "quick"
	TaskJob   TaskKind = "job"
)

type Company struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type Person struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CompanyID string    `yaml:"company_id"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type ServiceType struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type TeamMember struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Job struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CompanyID string    `yaml:"company_id"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

type Deliverable struct {
	ID    string `yaml:"id"`
	JobID string `yaml:"job_id"`
	Name  string `yaml:"name"`
}

type QuickTask struct {
	ID            string     `yaml:"id"`
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	Anchor        AnchorType `yaml:"anchor"`
	CompanyID     string     `yaml:"company_id"`
	PersonID      string     `yaml:"person_id"`
	ServiceTypeID string     `yaml:"service_type_id"`
	LOEHours      float64    `yaml:"loe_hours"`
	DueDate       string     `yaml:"due_date"`
	AssigneeID    string     `yaml:"assignee_id"`
	UpdatedAt     time.Time  `yaml:"updated_at"`
}

type JobTask struct {
	ID            string    `yaml:"id"`
	Title         string    `yaml:"title"`
	Description   string    `yaml:"description"`
	JobID         string    `yaml:"job_id"`
	DeliverableID string    `yaml:"deliverable_id"`
	ServiceTypeID string    `yaml:"service_type_id"`
	LOEHours      float64   `yaml:"loe_hours"`
	DueDate       string    `yaml:"due_date"`
	AssigneeID    string    `yaml:"assignee_id"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

type ListItem struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Notes     string    `yaml:"notes"`
	CreatedAt time.Time `yaml:"created_at"`
}

// TimeEntry is appended to either a quick task or a job task.
type TimeEntry struct {
	ID        string
	TaskID    string
	TaskKind  TaskKind
	Hours     float64
	Date      string
	Note      string
	CreatedAt time.Time
}

// TimerState has TaskID == "" and a zero StartedAt whenever Active is false.
type TimerState struct {
	Active    bool      `json:"active"`
	TaskID    string    `json:"taskId,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

func StoppedTimer() TimerState {
	return TimerState{}
}

func RunningTimer(taskID string, startedAt time.Time) TimerState {
	return TimerState{Active: true, TaskID: taskID, StartedAt: startedAt}
}

// TaskRef is the unified view over quick and job tasks used for time logging.
type TaskRef struct {
	ID        string
	Kind      TaskKind
	Title     string
	UpdatedAt time.Time
}

func (q QuickTask) Ref() TaskRef {
	return TaskRef{ID: q.ID, Kind: TaskQuick, Title: q.Title, UpdatedAt: q.UpdatedAt}
}

func (j JobTask) Ref() TaskRef {
	return TaskRef{ID: j.ID, Kind: TaskJob, Title: j.Title, UpdatedAt: j.UpdatedAt}
}
