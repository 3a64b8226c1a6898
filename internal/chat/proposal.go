package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"capture-chat/internal/extract"
)

type ProposalKind string

const (
	ProposalListItem    ProposalKind = "create_list_item"
	ProposalQuickTask   ProposalKind = "create_quick_task"
	ProposalJobTask     ProposalKind = "create_job_task"
	ProposalConverted   ProposalKind = "convert_list_item"
	ProposalLogTime     ProposalKind = "log_time"
	ProposalStartTimer  ProposalKind = "start_timer"
	ProposalStopTimer   ProposalKind = "stop_timer"
	ProposalSwitchTimer ProposalKind = "switch_timer"
)

type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// Proposal is a snapshot of the record about to be committed. Edits change
// Data in place; the flow that produced it is already cleared.
type Proposal struct {
	Kind ProposalKind
	Mode Mode
	Data ProposalData
}

// ProposalData is implemented by exactly one draft type per ProposalKind.
type ProposalData interface {
	Kind() ProposalKind
	Validate() Verdict
	Fields() []Field
	Summary() string
	set(field, value string) error
}

type Verdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Field is one row of the proposal editor.
type Field struct {
	Name     string
	Label    string
	Value    string
	Editable bool
}

func NewProposal(data ProposalData) *Proposal {
	return &Proposal{Kind: data.Kind(), Mode: ModeView, Data: data}
}

type proposalJSON struct {
	Kind ProposalKind    `json:"kind"`
	Mode Mode            `json:"mode"`
	Data json.RawMessage `json:"data"`
}

func (p Proposal) MarshalJSON() ([]byte, error) {
	if p.Data == nil {
		return nil, fmt.Errorf("encode proposal: %w", ErrNoProposal)
	}
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("encode proposal %s: %w", p.Kind, err)
	}
	return json.Marshal(proposalJSON{Kind: p.Data.Kind(), Mode: p.Mode, Data: data})
}

func (p *Proposal) UnmarshalJSON(raw []byte) error {
	var env proposalJSON
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode proposal: %w", err)
	}
	data, err := newDraft(env.Kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("decode proposal %s: %w", env.Kind, err)
	}
	mode := env.Mode
	if mode == "" {
		mode = ModeView
	}
	*p = Proposal{Kind: env.Kind, Mode: mode, Data: data}
	return nil
}

func newDraft(kind ProposalKind) (ProposalData, error) {
	switch kind {
	case ProposalListItem:
		return &ListItemDraft{}, nil
	case ProposalQuickTask:
		return &QuickTaskDraft{}, nil
	case ProposalJobTask:
		return &JobTaskDraft{}, nil
	case ProposalConverted:
		return &ConvertedTaskDraft{}, nil
	case ProposalLogTime:
		return &TimeEntryDraft{}, nil
	case ProposalStartTimer:
		return &TimerStartDraft{}, nil
	case ProposalStopTimer:
		return &TimerStopDraft{}, nil
	case ProposalSwitchTimer:
		return &TimerSwitchDraft{}, nil
	}
	return nil, fmt.Errorf("decode proposal: unknown kind %q", kind)
}

const (
	reasonTitle          = "Title is required."
	reasonCompany        = "Company is required."
	reasonPerson         = "Contact is required."
	reasonServiceType    = "Service type is required."
	reasonLOE            = "LOE hours are required."
	reasonDue            = "Due date is required."
	reasonDueFormat      = "Due date must be a valid YYYY-MM-DD date."
	reasonAssignee       = "Assignee is required."
	reasonJob            = "Job is required."
	reasonDeliverable    = "Deliverable is required."
	reasonDeliverableJob = "Deliverable must belong to the selected job."
	reasonListItem       = "List item is required."
	reasonTask           = "Task is required."
	reasonHours          = "Hours must be greater than zero."
	reasonDate           = "Date is required."
	reasonDateFormat     = "Date must be a valid YYYY-MM-DD date."
	reasonNextTask       = "Next task is required."
	reasonSameTask       = "Next task must differ from the running task."
)

type rule struct {
	ok     bool
	reason string
}

func check(ok bool, reason string) rule { return rule{ok: ok, reason: reason} }

// firstFailure reports the first failed rule in order.
func firstFailure(rules ...rule) Verdict {
	for _, r := range rules {
		if !r.ok {
			return Verdict{Reason: r.reason}
		}
	}
	return Verdict{OK: true}
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// parseHours reads hours the way the hours question does, so "90m", "1.5h"
// and "2" all work. Anything else is 0 and fails validation.
func parseHours(value string) float64 {
	h, ok := extract.HoursReply(strings.TrimSpace(value))
	if !ok {
		return 0
	}
	return h
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func summaryLines(header string, rows ...[2]string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, r := range rows {
		b.WriteString("\n- ")
		b.WriteString(r[0])
		b.WriteString(": ")
		b.WriteString(orDash(r[1]))
	}
	return b.String()
}
