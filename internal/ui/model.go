package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"capture-chat/internal/chat"
	"capture-chat/internal/clipboard"
	"capture-chat/internal/config"
	"capture-chat/internal/export"
	"capture-chat/internal/highlight"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusActions
	focusTranscript
)

type Model struct {
	cfg      config.AppConfig
	conv     *chat.Conversation
	exporter *export.Exporter
	copier   clipboard.Copier

	actions  list.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	input    textinput.Model
	search   textinput.Model
	keys     keyMap

	width  int
	height int

	focus          focusArea
	busy           bool
	searchMode     bool
	searchQuery    string
	includeRepeats bool
	editor         bool
	editField      string
	rendering      bool
	renderNonce    int
	revision       int

	session     *chat.Session
	rendered    map[string]string
	highlighted map[string]highlight.Result
	matchLines  []int
	matchCount  int
	matchIndex  int

	status string
	err    error
}

type turnMsg struct {
	session *chat.Session
	err     error
}
type exportMsg struct {
	path string
	err  error
}
type renderMsg struct {
	cacheKey string
	rendered string
	nonce    int
	err      error
}
type copyMsg struct {
	what string
	err  error
}

// actionItem is one row of the left pane: either a clickable chat action or,
// in the proposal editor, one field of the pending proposal.
type actionItem struct {
	action chat.Action
	field  *chat.Field
	index  int
}

func (i actionItem) Title() string {
	if i.field != nil {
		return i.field.Label
	}
	return fmt.Sprintf("%d. %s", i.index+1, i.action.Label)
}

func (i actionItem) Description() string {
	if i.field != nil {
		v := strings.TrimSpace(i.field.Value)
		if v == "" {
			v = "-"
		}
		if !i.field.Editable {
			v += " (fixed)"
		}
		return v
	}
	return strings.ReplaceAll(string(i.action.Action), "_", " ")
}

func (i actionItem) FilterValue() string {
	if i.field != nil {
		return strings.ToLower(i.field.Label + " " + i.field.Value)
	}
	return strings.ToLower(i.action.Label)
}

func NewModel(cfg config.AppConfig, conv *chat.Conversation, exp *export.Exporter, copier clipboard.Copier) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 30, 20)
	l.Title = "Choices"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)
	vp.SetContent("Loading conversation...")

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	in := textinput.New()
	in.Placeholder = "Type to capture a task, log time, or answer..."
	in.Prompt = "› "
	in.CharLimit = 1024
	in.Focus()

	ti := textinput.New()
	ti.Placeholder = "Search transcript..."
	ti.Prompt = "/ "
	ti.CharLimit = 256

	return Model{
		cfg:      cfg,
		conv:     conv,
		exporter: exp,
		copier:   copier,
		actions:  l,
		viewport: vp,
		help:     h,
		spinner:  sp,
		input:    in,
		search:   ti,
		keys:     defaultKeys(),

		busy:        true,
		focus:       focusComposer,
		rendered:    make(map[string]string),
		highlighted: make(map[string]highlight.Result),
		matchIndex:  -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.openCmd())
}

func (m Model) openCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.conv.Open(context.Background())
		return turnMsg{session: s, err: err}
	}
}

func (m Model) sayCmd(text string) tea.Cmd {
	return func() tea.Msg {
		s, err := m.conv.Say(context.Background(), text)
		return turnMsg{session: s, err: err}
	}
}

func (m Model) doCmd(a chat.Action) tea.Cmd {
	return func() tea.Msg {
		s, err := m.conv.Do(context.Background(), a)
		return turnMsg{session: s, err: err}
	}
}

func (m Model) editCmd(field, value string) tea.Cmd {
	return func() tea.Msg {
		s, err := m.conv.Edit(context.Background(), field, value)
		return turnMsg{session: s, err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	if m.session == nil {
		return nil
	}
	s := m.session
	key := m.conv.Key()
	toggles := m.toggles()
	return func() tea.Msg {
		path, err := m.exporter.Export(key, s, toggles, time.Now())
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	text, what := copyText(m.session)
	if text == "" {
		return nil
	}
	copier := m.copier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := copier.Copy(ctx, text); err != nil {
			return copyMsg{what: what, err: err}
		}
		return copyMsg{what: what}
	}
}

// copyText prefers the pending proposal summary over the latest reply.
func copyText(s *chat.Session) (string, string) {
	if s == nil {
		return "", ""
	}
	if msg, ok := s.Pending(); ok {
		return msg.Proposal.Data.Summary(), "proposal"
	}
	if msg, ok := s.LastAssistant(); ok {
		return msg.Body, "last reply"
	}
	return "", ""
}

func (m Model) toggles() chat.TranscriptToggles {
	return chat.TranscriptToggles{IncludeProposals: true, IncludeRepeats: m.includeRepeats}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		cmds = append(cmds, m.renderSession(true))

	case turnMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Turn failed: " + msg.err.Error()
			break
		}
		m.err = nil
		m.status = ""
		m.session = msg.session
		m.revision++
		if _, ok := m.session.Pending(); !ok {
			m.editor = false
			m.leaveFieldEdit()
		}
		m.applyActions()
		cmds = append(cmds, m.renderSession(true))

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrUnavailable) {
				m.status = "Could not copy: clipboard unavailable"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied " + msg.what + " to clipboard"
		}

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		m.rendering = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Render failed: " + msg.err.Error()
			break
		}
		m.rendered[msg.cacheKey] = msg.rendered
		m.setViewportFromRendered(msg.cacheKey, msg.rendered, true)

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

		var cmd tea.Cmd
		switch m.focus {
		case focusComposer:
			m.input, cmd = m.input.Update(msg)
		case focusActions:
			m.actions, cmd = m.actions.Update(msg)
		case focusTranscript:
			switch msg.String() {
			case "up", "k":
				m.viewport.LineUp(1)
			case "down", "j":
				m.viewport.LineDown(1)
			}
		}
		cmds = append(cmds, cmd)
	}

	if m.busy {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchQuery = ""
		m.search.SetValue("")
		m.search.Blur()
		m.refreshViewportFromCache()
		return m, nil
	case "enter":
		m.searchMode = false
		m.search.Blur()
		m.searchQuery = strings.TrimSpace(m.search.Value())
		m.refreshViewportFromCache()
		m.jumpToMatch(0)
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := strings.TrimSpace(m.search.Value()); after != strings.TrimSpace(before) {
		m.searchQuery = after
		m.refreshViewportFromCache()
	}
	return m, cmd
}

// handleKey covers the global bindings. It reports false when the key should
// go to the focused widget instead.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	composing := m.focus == focusComposer

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.QuitIdle) && !composing:
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Search) && (!composing || strings.TrimSpace(m.input.Value()) == ""):
		m.searchMode = true
		m.search.SetValue(m.searchQuery)
		m.search.CursorEnd()
		return m, m.search.Focus(), true
	case key.Matches(msg, m.keys.Esc):
		switch {
		case m.editField != "":
			m.leaveFieldEdit()
			m.status = "Edit cancelled"
		case m.editor:
			m.editor = false
			m.applyActions()
		case m.searchQuery != "":
			m.searchQuery = ""
			m.search.SetValue("")
			m.refreshViewportFromCache()
		}
		return m, nil, true
	case key.Matches(msg, m.keys.Tab):
		m.setFocus((m.focus + 1) % 3)
		return m, nil, true
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil, true
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil, true
	case key.Matches(msg, m.keys.NextMatch) && m.focus == focusTranscript:
		m.jumpToMatch(1)
		return m, nil, true
	case key.Matches(msg, m.keys.PrevMatch) && m.focus == focusTranscript:
		m.jumpToMatch(-1)
		return m, nil, true
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd(), true
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd(), true
	case key.Matches(msg, m.keys.ToggleRepeats):
		m.includeRepeats = !m.includeRepeats
		return m, m.renderSession(true), true
	case key.Matches(msg, m.keys.Editor):
		return m.toggleEditor()
	case key.Matches(msg, m.keys.Reset):
		if m.busy {
			return m, nil, true
		}
		m.busy = true
		m.editor = false
		m.leaveFieldEdit()
		return m, tea.Batch(m.spinner.Tick, m.doCmd(chat.Action{Action: chat.ActReset, Label: "Start over"})), true
	case key.Matches(msg, m.keys.Enter):
		return m.submit()
	}
	return m, nil, false
}

func (m Model) toggleEditor() (Model, tea.Cmd, bool) {
	if _, ok := m.pending(); !ok {
		m.status = "No proposal to edit"
		return m, nil, true
	}
	m.editor = !m.editor
	m.leaveFieldEdit()
	m.applyActions()
	if m.editor {
		m.setFocus(focusActions)
	}
	return m, nil, true
}

// submit handles enter for whichever pane has focus.
func (m Model) submit() (Model, tea.Cmd, bool) {
	if m.busy {
		return m, nil, true
	}

	switch m.focus {
	case focusComposer:
		value := strings.TrimSpace(m.input.Value())
		if m.editField != "" {
			field := m.editField
			m.leaveFieldEdit()
			m.busy = true
			return m, tea.Batch(m.spinner.Tick, m.editCmd(field, value)), true
		}
		if value == "" {
			return m, nil, true
		}
		m.input.SetValue("")
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.sayCmd(value)), true

	case focusActions:
		item, ok := m.actions.SelectedItem().(actionItem)
		if !ok {
			return m, nil, true
		}
		if item.field != nil {
			if !item.field.Editable {
				m.status = item.field.Label + " is not editable"
				return m, nil, true
			}
			m.editField = item.field.Name
			m.input.Prompt = item.field.Label + "› "
			m.input.SetValue(item.field.Value)
			m.input.CursorEnd()
			m.setFocus(focusComposer)
			return m, nil, true
		}
		if item.action.Action == chat.ActEdit {
			m.editor = true
		}
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.doCmd(item.action)), true
	}
	return m, nil, false
}

func (m *Model) leaveFieldEdit() {
	if m.editField == "" {
		return
	}
	m.editField = ""
	m.input.Prompt = "› "
	m.input.SetValue("")
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusComposer {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) pending() (*chat.Message, bool) {
	if m.session == nil {
		return nil, false
	}
	return m.session.Pending()
}

// applyActions fills the left pane from the newest assistant message, or from
// the pending proposal's fields while the editor is open.
func (m *Model) applyActions() {
	m.actions.SetItems(m.currentItems())
	m.actions.Select(0)
	if m.editor {
		m.actions.Title = "Edit proposal"
	} else {
		m.actions.Title = "Choices"
	}
}

func (m Model) currentItems() []list.Item {
	if m.session == nil {
		return nil
	}
	if m.editor {
		if msg, ok := m.session.Pending(); ok {
			fields := msg.Proposal.Data.Fields()
			items := make([]list.Item, 0, len(fields))
			for i := range fields {
				f := fields[i]
				items = append(items, actionItem{field: &f, index: i})
			}
			return items
		}
	}
	last, ok := m.session.LastAssistant()
	if !ok {
		return nil
	}
	items := make([]list.Item, 0, len(last.Actions))
	for i, a := range last.Actions {
		items = append(items, actionItem{action: a, index: i})
	}
	return items
}

func (m *Model) renderSession(force bool) tea.Cmd {
	if m.session == nil {
		m.clearMatches()
		return nil
	}

	cacheKey := m.renderCacheKey()
	if !force {
		if rendered, ok := m.rendered[cacheKey]; ok {
			m.setViewportFromRendered(cacheKey, rendered, false)
			return nil
		}
	}
	m.rendering = true
	m.renderNonce++
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}
	return renderTranscriptCmd(m.session.Messages, m.toggles(), m.cfg.GlamourStyle, cacheKey, wrap, m.renderNonce)
}

func renderTranscriptCmd(msgs []chat.Message, toggles chat.TranscriptToggles, style, cacheKey string, wrap, nonce int) tea.Cmd {
	msgs = append([]chat.Message(nil), msgs...)
	return func() tea.Msg {
		md := export.BuildTranscriptMarkdown(msgs, toggles)
		if strings.TrimSpace(md) == "" {
			md = "_Nothing here yet._"
		}
		md = clampLongLines(md, 4000)

		if style == "" {
			style = config.DefaultGlamourStyle
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return renderMsg{cacheKey: cacheKey, rendered: md, nonce: nonce}
		}
		rendered := md
		if out, renderErr := r.Render(md); renderErr == nil {
			rendered = out
		}
		return renderMsg{cacheKey: cacheKey, rendered: rendered, nonce: nonce}
	}
}

func (m Model) renderCacheKey() string {
	return fmt.Sprintf("rev=%d|w=%d|r=%t", m.revision, m.viewport.Width, m.includeRepeats)
}

func (m Model) highlightCacheKey(cacheKey, query string) string {
	return cacheKey + "|q=" + strings.ToLower(strings.TrimSpace(query))
}

func (m *Model) refreshViewportFromCache() {
	rendered, ok := m.rendered[m.renderCacheKey()]
	if !ok {
		return
	}
	oldOffset := m.viewport.YOffset
	m.setViewportFromRendered(m.renderCacheKey(), rendered, false)
	m.viewport.SetYOffset(m.clampViewportOffset(oldOffset))
}

// setViewportFromRendered shows rendered with search highlights applied.
// gotoBottom follows the newest message unless a search is active, in which
// case it jumps to the last match.
func (m *Model) setViewportFromRendered(cacheKey, rendered string, gotoBottom bool) {
	content := rendered
	query := strings.TrimSpace(m.searchQuery)
	if query != "" {
		hKey := m.highlightCacheKey(cacheKey, query)
		res, ok := m.highlighted[hKey]
		if !ok {
			res = highlight.ApplyANSI(rendered, query, func(s string) string {
				return searchMatchStyle.Render(s)
			})
			m.highlighted[hKey] = res
		}
		content = res.Text
		m.setMatchMeta(res)
	} else {
		m.clearMatches()
	}

	m.viewport.SetContent(content)
	if gotoBottom {
		m.viewport.GotoBottom()
		if len(m.matchLines) > 0 {
			m.matchIndex = len(m.matchLines) - 1
			m.viewport.SetYOffset(m.clampViewportOffset(m.matchLines[m.matchIndex]))
		}
	}
}

func (m *Model) setMatchMeta(res highlight.Result) {
	if res.Count == 0 || len(res.LineIndex) == 0 {
		m.clearMatches()
		return
	}
	m.matchCount = res.Count
	m.matchLines = append(m.matchLines[:0], res.LineIndex...)
	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	}
}

func (m *Model) clearMatches() {
	m.matchLines = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		if strings.TrimSpace(m.searchQuery) != "" {
			m.status = "No search matches in transcript"
		}
		return
	}

	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	} else if delta > 0 {
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	} else if delta < 0 {
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}

	line := m.matchLines[m.matchIndex]
	m.viewport.SetYOffset(m.clampViewportOffset(line))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, len(m.matchLines))
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func clampLongLines(s string, max int) string {
	if max <= 0 || len(s) == 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) <= max {
			continue
		}
		head := line[:max/2]
		tail := line[len(line)-max/2:]
		lines[i] = head + "... [line truncated " + strconv.Itoa(len(line)-max) + " chars] ..." + tail
	}
	return strings.Join(lines, "\n")
}

const composerHeight = 3

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2 - composerHeight
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	m.actions.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2
	m.input.Width = m.width - 6
	m.search.Width = m.width - 6
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	left, right := m.paneWidths()
	bodyHeight := m.height - 2 - composerHeight
	leftPane := panelStyle(m.focus == focusActions).Width(left).Height(bodyHeight).Render(m.actions.View())
	rightPane := panelStyle(m.focus == focusTranscript).Width(right).Height(bodyHeight).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	composer := m.input.View()
	if m.searchMode {
		composer = m.search.View()
	}
	composerPane := panelStyle(m.focus == focusComposer || m.searchMode).Width(m.width - 2).Render(composer)

	helpView := ansi.Truncate(m.help.View(m.keys), m.width, "…")

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		body,
		composerPane,
		helpView,
	)
}

func (m Model) statusLine() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View()+" thinking")
	}
	parts = append(parts, "session="+m.conv.Key())
	if m.session != nil {
		parts = append(parts, "flow="+string(m.session.Flow.Kind), fmt.Sprintf("messages=%d", len(m.session.Messages)))
		if msg, ok := m.session.Pending(); ok {
			tag := "[proposal: " + strings.ReplaceAll(string(msg.Proposal.Kind), "_", " ")
			if v := msg.Proposal.Data.Validate(); !v.OK {
				tag += " | " + v.Reason
			}
			parts = append(parts, tag+"]")
		}
	}
	if m.editor {
		parts = append(parts, "[editing]")
	}
	if m.searchQuery != "" || m.searchMode {
		tag := "[search]"
		if strings.TrimSpace(m.searchQuery) != "" {
			if m.matchCount > 0 {
				cur := m.matchIndex + 1
				if cur < 1 {
					cur = 1
				}
				tag += fmt.Sprintf("  [match %d/%d]", cur, len(m.matchLines))
			} else {
				tag += "  [match 0]"
			}
		}
		parts = append(parts, tag)
	}
	if m.includeRepeats {
		parts = append(parts, "[repeats]")
	}
	if m.rendering {
		parts = append(parts, "[rendering]")
	}
	if s := strings.TrimSpace(m.status); s != "" {
		parts = append(parts, s)
	}
	if m.err != nil {
		parts = append(parts, "err="+m.err.Error())
	}

	line := strings.Join(parts, "  ")
	if m.width > 2 {
		line = ansi.Truncate(line, m.width-2, "…")
	}
	return statusStyle.Render(line)
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 3
	if left < 28 {
		left = 28
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	searchMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Enter         key.Binding
	Tab           key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	PrevMatch     key.Binding
	NextMatch     key.Binding
	Search        key.Binding
	Esc           key.Binding
	Editor        key.Binding
	Export        key.Binding
	Copy          key.Binding
	ToggleRepeats key.Binding
	Reset         key.Binding
	QuitIdle      key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send/choose"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle focus"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev match"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Editor: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "edit proposal"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "export markdown"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "copy proposal"),
		),
		ToggleRepeats: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "toggle repeats"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "start over"),
		),
		QuitIdle: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Tab, k.Search, k.Editor, k.Export, k.Copy, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Tab, k.PageDown, k.PageUp},
		{k.Search, k.NextMatch, k.PrevMatch, k.Esc},
		{k.Editor, k.Export, k.Copy, k.ToggleRepeats, k.Reset, k.QuitIdle, k.Quit},
	}
}
