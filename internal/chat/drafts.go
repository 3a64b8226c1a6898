package chat

import (
	"fmt"
	"strings"
	"time"

	"capture-chat/internal/extract"
	"capture-chat/internal/records"
	"capture-chat/internal/resolve"
)

type ListItemDraft struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}

func (ListItemDraft) Kind() ProposalKind { return ProposalListItem }

func (d ListItemDraft) Validate() Verdict {
	return firstFailure(check(present(d.Title), reasonTitle))
}

func (d ListItemDraft) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Value: d.Title, Editable: true},
		{Name: "notes", Label: "Notes", Value: d.Notes, Editable: true},
	}
}

func (d ListItemDraft) Summary() string {
	return summaryLines("**Add to list:** "+d.Title, [2]string{"Notes", d.Notes})
}

func (d *ListItemDraft) set(field, value string) error {
	switch field {
	case "title":
		d.Title = value
	case "notes":
		d.Notes = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

type QuickTaskDraft struct {
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Anchor          records.AnchorType `json:"anchor"`
	CompanyID       string             `json:"companyId,omitempty"`
	CompanyName     string             `json:"companyName,omitempty"`
	PersonID        string             `json:"personId,omitempty"`
	PersonName      string             `json:"personName,omitempty"`
	ServiceTypeID   string             `json:"serviceTypeId"`
	ServiceTypeName string             `json:"serviceTypeName,omitempty"`
	LOEHours        float64            `json:"loeHours"`
	DueDate         string             `json:"dueDate"`
	AssigneeID      string             `json:"assigneeId"`
	AssigneeName    string             `json:"assigneeName,omitempty"`
}

func (QuickTaskDraft) Kind() ProposalKind { return ProposalQuickTask }

func (d QuickTaskDraft) Validate() Verdict {
	return firstFailure(d.rules()...)
}

func (d QuickTaskDraft) rules() []rule {
	return []rule{
		check(present(d.Title), reasonTitle),
		check(d.Anchor != records.AnchorCompany || present(d.CompanyID), reasonCompany),
		check(d.Anchor != records.AnchorPerson || present(d.PersonID), reasonPerson),
		check(present(d.ServiceTypeID), reasonServiceType),
		check(d.LOEHours > 0, reasonLOE),
		check(present(d.DueDate), reasonDue),
		check(extract.ValidDate(d.DueDate), reasonDueFormat),
		check(present(d.AssigneeID), reasonAssignee),
	}
}

func (d QuickTaskDraft) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Value: d.Title, Editable: true},
		{Name: "anchor", Label: "For", Value: anchorLabel(d.Anchor), Editable: true},
		{Name: "companyId", Label: "Company", Value: d.CompanyName, Editable: true},
		{Name: "personId", Label: "Contact", Value: d.PersonName, Editable: true},
		{Name: "serviceTypeId", Label: "Service type", Value: d.ServiceTypeName, Editable: true},
		{Name: "loeHours", Label: "LOE hours", Value: formatHours(d.LOEHours), Editable: true},
		{Name: "dueDate", Label: "Due date", Value: d.DueDate, Editable: true},
		{Name: "assigneeId", Label: "Assignee", Value: d.AssigneeName, Editable: true},
		{Name: "description", Label: "Description", Value: d.Description, Editable: true},
	}
}

func (d QuickTaskDraft) Summary() string {
	return summaryLines("**Quick task:** "+d.Title, d.rows()...)
}

func (d QuickTaskDraft) rows() [][2]string {
	return [][2]string{
		{"For", d.forLabel()},
		{"Service type", d.ServiceTypeName},
		{"LOE", formatHours(d.LOEHours) + "h"},
		{"Due", d.DueDate},
		{"Assignee", d.AssigneeName},
		{"Description", d.Description},
	}
}

func (d QuickTaskDraft) forLabel() string {
	switch d.Anchor {
	case records.AnchorCompany:
		if d.PersonName != "" {
			return d.CompanyName + " (" + d.PersonName + ")"
		}
		return d.CompanyName
	case records.AnchorPerson:
		return d.PersonName
	}
	return "Internal"
}

func (d *QuickTaskDraft) set(field, value string) error {
	switch field {
	case "title":
		d.Title = value
	case "description":
		d.Description = value
	case "anchor":
		d.Anchor = parseAnchor(value)
	case "companyId":
		d.CompanyID, d.CompanyName = value, ""
	case "personId":
		d.PersonID, d.PersonName = value, ""
	case "serviceTypeId":
		d.ServiceTypeID, d.ServiceTypeName = value, ""
	case "loeHours":
		d.LOEHours = parseHours(value)
	case "dueDate":
		d.DueDate = strings.TrimSpace(value)
	case "assigneeId":
		d.AssigneeID, d.AssigneeName = value, ""
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func (d QuickTaskDraft) record() records.QuickTask {
	return records.QuickTask{
		Title:         strings.TrimSpace(d.Title),
		Description:   d.Description,
		Anchor:        d.Anchor,
		CompanyID:     d.CompanyID,
		PersonID:      d.PersonID,
		ServiceTypeID: d.ServiceTypeID,
		LOEHours:      d.LOEHours,
		DueDate:       d.DueDate,
		AssigneeID:    d.AssigneeID,
	}
}

var anchorOptions = []resolve.Option{
	{ID: string(records.AnchorInternal), Label: "Internal"},
	{ID: string(records.AnchorCompany), Label: "Client company"},
	{ID: string(records.AnchorPerson), Label: "Client contact"},
}

func anchorLabel(a records.AnchorType) string {
	for _, o := range anchorOptions {
		if o.ID == string(a) {
			return o.Label
		}
	}
	return "Internal"
}

func parseAnchor(value string) records.AnchorType {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == string(records.AnchorCompany), strings.Contains(v, "company"):
		return records.AnchorCompany
	case v == string(records.AnchorPerson), strings.Contains(v, "contact"), strings.Contains(v, "person"):
		return records.AnchorPerson
	}
	return records.AnchorInternal
}

type JobTaskDraft struct {
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	JobID            string  `json:"jobId"`
	JobName          string  `json:"jobName,omitempty"`
	DeliverableID    string  `json:"deliverableId"`
	DeliverableName  string  `json:"deliverableName,omitempty"`
	DeliverableJobID string  `json:"deliverableJobId,omitempty"`
	ServiceTypeID    string  `json:"serviceTypeId"`
	ServiceTypeName  string  `json:"serviceTypeName,omitempty"`
	LOEHours         float64 `json:"loeHours"`
	DueDate          string  `json:"dueDate"`
	AssigneeID       string  `json:"assigneeId"`
	AssigneeName     string  `json:"assigneeName,omitempty"`
}

func (JobTaskDraft) Kind() ProposalKind { return ProposalJobTask }

func (d JobTaskDraft) Validate() Verdict {
	return firstFailure(
		check(present(d.Title), reasonTitle),
		check(present(d.JobID), reasonJob),
		check(present(d.DeliverableID), reasonDeliverable),
		check(d.DeliverableJobID == d.JobID, reasonDeliverableJob),
		check(present(d.ServiceTypeID), reasonServiceType),
		check(d.LOEHours > 0, reasonLOE),
		check(present(d.DueDate), reasonDue),
		check(extract.ValidDate(d.DueDate), reasonDueFormat),
		check(present(d.AssigneeID), reasonAssignee),
	)
}

func (d JobTaskDraft) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Value: d.Title, Editable: true},
		{Name: "jobId", Label: "Job", Value: d.JobName, Editable: true},
		{Name: "deliverableId", Label: "Deliverable", Value: d.DeliverableName, Editable: true},
		{Name: "serviceTypeId", Label: "Service type", Value: d.ServiceTypeName, Editable: true},
		{Name: "loeHours", Label: "LOE hours", Value: formatHours(d.LOEHours), Editable: true},
		{Name: "dueDate", Label: "Due date", Value: d.DueDate, Editable: true},
		{Name: "assigneeId", Label: "Assignee", Value: d.AssigneeName, Editable: true},
		{Name: "description", Label: "Description", Value: d.Description, Editable: true},
	}
}

func (d JobTaskDraft) Summary() string {
	return summaryLines("**Job task:** "+d.Title,
		[2]string{"Job", d.JobName},
		[2]string{"Deliverable", d.DeliverableName},
		[2]string{"Service type", d.ServiceTypeName},
		[2]string{"LOE", formatHours(d.LOEHours) + "h"},
		[2]string{"Due", d.DueDate},
		[2]string{"Assignee", d.AssigneeName},
		[2]string{"Description", d.Description},
	)
}

func (d *JobTaskDraft) set(field, value string) error {
	switch field {
	case "title":
		d.Title = value
	case "description":
		d.Description = value
	case "jobId":
		d.JobID, d.JobName = value, ""
	case "deliverableId":
		d.DeliverableID, d.DeliverableName, d.DeliverableJobID = value, "", ""
	case "serviceTypeId":
		d.ServiceTypeID, d.ServiceTypeName = value, ""
	case "loeHours":
		d.LOEHours = parseHours(value)
	case "dueDate":
		d.DueDate = strings.TrimSpace(value)
	case "assigneeId":
		d.AssigneeID, d.AssigneeName = value, ""
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// ConvertedTaskDraft turns an existing list item into a quick task.
type ConvertedTaskDraft struct {
	ListItemID     string         `json:"listItemId"`
	ListItemTitle  string         `json:"listItemTitle,omitempty"`
	RemoveListItem bool           `json:"removeListItem"`
	Task           QuickTaskDraft `json:"task"`
}

func (ConvertedTaskDraft) Kind() ProposalKind { return ProposalConverted }

func (d ConvertedTaskDraft) Validate() Verdict {
	return firstFailure(append([]rule{check(present(d.ListItemID), reasonListItem)}, d.Task.rules()...)...)
}

func (d ConvertedTaskDraft) Fields() []Field {
	keep := "Keep"
	if d.RemoveListItem {
		keep = "Remove"
	}
	out := []Field{
		{Name: "listItemId", Label: "From list item", Value: d.ListItemTitle},
		{Name: "removeListItem", Label: "List item", Value: keep, Editable: true},
	}
	return append(out, d.Task.Fields()...)
}

func (d ConvertedTaskDraft) Summary() string {
	fate := "keep it"
	if d.RemoveListItem {
		fate = "remove it"
	}
	rows := append([][2]string{{"From list item", d.ListItemTitle + " (" + fate + ")"}}, d.Task.rows()...)
	return summaryLines("**Convert to quick task:** "+d.Task.Title, rows...)
}

func (d *ConvertedTaskDraft) set(field, value string) error {
	if field == "removeListItem" {
		v := strings.ToLower(strings.TrimSpace(value))
		d.RemoveListItem = v == "remove" || v == "true" || extract.YesNo(v) == extract.Yes
		return nil
	}
	return d.Task.set(field, value)
}

type TimeEntryDraft struct {
	TaskID    string           `json:"taskId"`
	TaskKind  records.TaskKind `json:"taskKind"`
	TaskTitle string           `json:"taskTitle,omitempty"`
	Hours     float64          `json:"hours"`
	Date      string           `json:"date"`
	Note      string           `json:"note,omitempty"`
}

func (TimeEntryDraft) Kind() ProposalKind { return ProposalLogTime }

func (d TimeEntryDraft) Validate() Verdict {
	return firstFailure(
		check(present(d.TaskID) && d.TaskKind != "", reasonTask),
		check(d.Hours > 0, reasonHours),
		check(present(d.Date), reasonDate),
		check(extract.ValidDate(d.Date), reasonDateFormat),
	)
}

func (d TimeEntryDraft) Fields() []Field {
	return []Field{
		{Name: "taskId", Label: "Task", Value: d.TaskTitle, Editable: true},
		{Name: "hours", Label: "Hours", Value: formatHours(d.Hours), Editable: true},
		{Name: "date", Label: "Date", Value: d.Date, Editable: true},
		{Name: "note", Label: "Note", Value: d.Note, Editable: true},
	}
}

func (d TimeEntryDraft) Summary() string {
	return summaryLines("**Log time:** "+formatHours(d.Hours)+"h",
		[2]string{"Task", d.TaskTitle},
		[2]string{"Date", d.Date},
		[2]string{"Note", d.Note},
	)
}

// set takes a task key ("quick:<id>" or "job:<id>") for taskId.
func (d *TimeEntryDraft) set(field, value string) error {
	switch field {
	case "taskId":
		kind, id, ok := resolve.ParseTaskKey(value)
		if !ok {
			kind, id = "", ""
		}
		d.TaskKind, d.TaskID, d.TaskTitle = kind, id, ""
	case "hours":
		d.Hours = parseHours(value)
	case "date":
		d.Date = strings.TrimSpace(value)
	case "note":
		d.Note = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

type TimerStartDraft struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle,omitempty"`
}

func (TimerStartDraft) Kind() ProposalKind { return ProposalStartTimer }

func (d TimerStartDraft) Validate() Verdict {
	return firstFailure(check(present(d.TaskID), reasonTask))
}

func (d TimerStartDraft) Fields() []Field {
	return []Field{{Name: "taskId", Label: "Task", Value: d.TaskTitle, Editable: true}}
}

func (d TimerStartDraft) Summary() string {
	return "**Start timer** on " + orDash(d.TaskTitle)
}

func (d *TimerStartDraft) set(field, value string) error {
	if field != "taskId" {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	d.TaskID, d.TaskTitle = value, ""
	return nil
}

// TimerStopDraft carries the elapsed time measured when the flow started.
// Editing hours or date never re-measures it.
type TimerStopDraft struct {
	TaskID         string    `json:"taskId"`
	TaskTitle      string    `json:"taskTitle,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	ElapsedMinutes int       `json:"elapsedMinutes"`
	Hours          float64   `json:"hours"`
	Date           string    `json:"date"`
}

func (TimerStopDraft) Kind() ProposalKind { return ProposalStopTimer }

func (d TimerStopDraft) Validate() Verdict {
	return firstFailure(d.rules()...)
}

func (d TimerStopDraft) rules() []rule {
	return []rule{
		check(present(d.TaskID), reasonTask),
		check(d.Hours > 0, reasonHours),
		check(present(d.Date), reasonDate),
		check(extract.ValidDate(d.Date), reasonDateFormat),
	}
}

func (d TimerStopDraft) Fields() []Field {
	return []Field{
		{Name: "taskId", Label: "Task", Value: d.TaskTitle},
		{Name: "elapsedMinutes", Label: "Elapsed", Value: fmt.Sprintf("%d min", d.ElapsedMinutes)},
		{Name: "hours", Label: "Hours", Value: formatHours(d.Hours), Editable: true},
		{Name: "date", Label: "Date", Value: d.Date, Editable: true},
	}
}

func (d TimerStopDraft) Summary() string {
	return summaryLines("**Stop timer** on "+orDash(d.TaskTitle), d.rows()...)
}

func (d TimerStopDraft) rows() [][2]string {
	return [][2]string{
		{"Elapsed", fmt.Sprintf("%d min", d.ElapsedMinutes)},
		{"Log", formatHours(d.Hours) + "h"},
		{"Date", d.Date},
	}
}

func (d *TimerStopDraft) set(field, value string) error {
	switch field {
	case "hours":
		d.Hours = parseHours(value)
	case "date":
		d.Date = strings.TrimSpace(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func (d TimerStopDraft) entry() records.TimeEntry {
	return records.TimeEntry{TaskID: d.TaskID, TaskKind: records.TaskQuick, Hours: d.Hours, Date: d.Date, Note: "Timer"}
}

type TimerSwitchDraft struct {
	TimerStopDraft
	NextTaskID    string `json:"nextTaskId"`
	NextTaskTitle string `json:"nextTaskTitle,omitempty"`
}

func (TimerSwitchDraft) Kind() ProposalKind { return ProposalSwitchTimer }

func (d TimerSwitchDraft) Validate() Verdict {
	return firstFailure(append(d.rules(),
		check(present(d.NextTaskID), reasonNextTask),
		check(d.NextTaskID != d.TaskID, reasonSameTask),
	)...)
}

func (d TimerSwitchDraft) Fields() []Field {
	return append(d.TimerStopDraft.Fields(),
		Field{Name: "nextTaskId", Label: "Switch to", Value: d.NextTaskTitle, Editable: true})
}

func (d TimerSwitchDraft) Summary() string {
	rows := append(d.rows(), [2]string{"Switch to", d.NextTaskTitle})
	return summaryLines("**Switch timer** from "+orDash(d.TaskTitle), rows...)
}

func (d *TimerSwitchDraft) set(field, value string) error {
	if field == "nextTaskId" {
		d.NextTaskID, d.NextTaskTitle = value, ""
		return nil
	}
	return d.TimerStopDraft.set(field, value)
}
