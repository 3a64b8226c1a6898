package chat

import (
	"encoding/json"
	"time"

	"capture-chat/internal/resolve"
)

type FlowKind string

const (
	FlowNone            FlowKind = "none"
	FlowListItem        FlowKind = "create_list_item"
	FlowQuickTask       FlowKind = "create_quick_task"
	FlowJobTask         FlowKind = "create_job_task"
	FlowConvert         FlowKind = "convert_list_item"
	FlowLogTime         FlowKind = "log_time"
	FlowStartTimer      FlowKind = "start_timer"
	FlowStopTimer       FlowKind = "stop_timer"
	FlowSwitchTimer     FlowKind = "switch_timer"
	FlowClarifyIntent   FlowKind = "clarify_intent"
	FlowClarifyTaskType FlowKind = "clarify_task_type"
)

// Slot names one field of the record under construction.
type Slot string

const (
	SlotTitle       Slot = "title"
	SlotNotes       Slot = "notes"
	SlotDescription Slot = "description"
	SlotAnchor      Slot = "anchor"
	SlotCompany     Slot = "company"
	SlotPerson      Slot = "person"
	SlotServiceType Slot = "service_type"
	SlotLOE         Slot = "loe_hours"
	SlotDue         Slot = "due_date"
	SlotAssignee    Slot = "assignee"
	SlotJob         Slot = "job"
	SlotDeliverable Slot = "deliverable"
	SlotTask        Slot = "task"
	SlotHours       Slot = "hours"
	SlotDate        Slot = "date"
	SlotNextTask    Slot = "next_task"
	SlotListItem    Slot = "list_item"
)

var slotNouns = map[Slot]string{
	SlotTitle:       "title",
	SlotNotes:       "notes",
	SlotDescription: "description",
	SlotCompany:     "company",
	SlotPerson:      "contact",
	SlotServiceType: "service type",
	SlotAssignee:    "assignee",
	SlotJob:         "job",
	SlotDeliverable: "deliverable",
	SlotTask:        "task",
	SlotNextTask:    "next task",
	SlotListItem:    "list item",
}

func (s Slot) Noun() string {
	if n, ok := slotNouns[s]; ok {
		return n
	}
	return string(s)
}

// Flow is the in-progress state of one capture. Slots only ever grow, except
// when the user explicitly rejects a value.
type Flow struct {
	Kind       FlowKind
	Slots      map[Slot]string
	Awaiting   Awaiting
	SourceText string
	Context    FlowContext
}

// FlowContext is bookkeeping around the slots. It never holds the record
// that will be created.
type FlowContext struct {
	Candidates map[Slot]resolve.Option   `json:"candidates,omitempty"`
	Options    map[Slot][]resolve.Option `json:"options,omitempty"`
	Asked      map[Slot]bool             `json:"asked,omitempty"`
	Skipped    map[Slot]bool             `json:"skipped,omitempty"`

	SourceListItemID string   `json:"sourceListItemId,omitempty"`
	RemoveSource     string   `json:"removeSource,omitempty"`
	Prefilled        bool     `json:"prefilled,omitempty"`
	Offered          []Action `json:"offered,omitempty"`

	ElapsedMinutes int       `json:"elapsedMinutes,omitempty"`
	TimerTaskID    string    `json:"timerTaskId,omitempty"`
	TimerStartedAt time.Time `json:"timerStartedAt,omitempty"`
}

func newFlow(kind FlowKind, source string) Flow {
	return Flow{
		Kind:       kind,
		Slots:      map[Slot]string{},
		SourceText: source,
		Context: FlowContext{
			Candidates: map[Slot]resolve.Option{},
			Options:    map[Slot][]resolve.Option{},
			Asked:      map[Slot]bool{},
			Skipped:    map[Slot]bool{},
		},
	}
}

// Reset returns the flow to idle and discards everything collected.
func (f *Flow) Reset() {
	*f = newFlow(FlowNone, "")
}

// capturesTask reports flows that end in a quick or job task.
func (k FlowKind) capturesTask() bool {
	return k == FlowQuickTask || k == FlowJobTask
}

func (f *Flow) Active() bool {
	return f.Kind != FlowNone
}

func (f *Flow) Has(slot Slot) bool {
	_, ok := f.Slots[slot]
	return ok
}

func (f *Flow) Set(slot Slot, value string) {
	if f.Slots == nil {
		f.Slots = map[Slot]string{}
	}
	f.Slots[slot] = value
	delete(f.Context.Candidates, slot)
	delete(f.Context.Options, slot)
}

// Reject clears a slot and its pending guess after an explicit "No".
func (f *Flow) Reject(slot Slot) {
	delete(f.Slots, slot)
	delete(f.Context.Candidates, slot)
	delete(f.Context.Asked, slot)
}

func (f *Flow) Skip(slot Slot) {
	f.Context.ensure()
	f.Context.Skipped[slot] = true
	delete(f.Context.Candidates, slot)
	delete(f.Context.Options, slot)
}

func (f *Flow) Suggest(slot Slot, opt resolve.Option) {
	if opt.ID == "" && opt.Label == "" {
		return
	}
	f.Context.ensure()
	f.Context.Candidates[slot] = opt
}

func (c *FlowContext) ensure() {
	if c.Candidates == nil {
		c.Candidates = map[Slot]resolve.Option{}
	}
	if c.Options == nil {
		c.Options = map[Slot][]resolve.Option{}
	}
	if c.Asked == nil {
		c.Asked = map[Slot]bool{}
	}
	if c.Skipped == nil {
		c.Skipped = map[Slot]bool{}
	}
}

type flowJSON struct {
	Kind       FlowKind        `json:"kind"`
	Slots      map[Slot]string `json:"slots"`
	Awaiting   json.RawMessage `json:"awaiting"`
	SourceText string          `json:"sourceText,omitempty"`
	Context    FlowContext     `json:"context"`
}

func (f Flow) MarshalJSON() ([]byte, error) {
	awaiting, err := encodeAwaiting(f.Awaiting)
	if err != nil {
		return nil, err
	}
	slots := f.Slots
	if slots == nil {
		slots = map[Slot]string{}
	}
	kind := f.Kind
	if kind == "" {
		kind = FlowNone
	}
	return json.Marshal(flowJSON{
		Kind:       kind,
		Slots:      slots,
		Awaiting:   awaiting,
		SourceText: f.SourceText,
		Context:    f.Context,
	})
}

func (f *Flow) UnmarshalJSON(data []byte) error {
	var raw flowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	awaiting, err := decodeAwaiting(raw.Awaiting)
	if err != nil {
		return err
	}
	*f = newFlow(raw.Kind, raw.SourceText)
	if f.Kind == "" {
		f.Kind = FlowNone
	}
	for k, v := range raw.Slots {
		f.Slots[k] = v
	}
	f.Awaiting = awaiting
	f.Context = raw.Context
	f.Context.ensure()
	return nil
}
