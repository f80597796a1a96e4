package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"actionkit/pkg/action"
	"actionkit/pkg/executor"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const wheelStep = 3

type entryKind int

const (
	entryCall entryKind = iota
	entryResponse
	entryEvent
	entryInfo
	entryError
)

type entry struct {
	kind    entryKind
	content string
}

type callResultMsg struct {
	action   string
	response *executor.Response
	err      error
}

type model struct {
	ctx    context.Context
	runner Runner
	info   Info

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	session   *session
	calls     int
	width     int
	height    int
	isReady   bool
	isLoading bool
	lastErr   string
	followLog bool
}

func newModel(ctx context.Context, runner Runner, info Info) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = `action_name {"slot": "value"}`
	in.Focus()
	in.CharLimit = 0

	senderID := strings.TrimSpace(info.SenderID)
	if senderID == "" {
		senderID = DefaultSenderID
	}
	info.SenderID = senderID

	return &model{
		ctx:       ctx,
		runner:    runner,
		info:      info,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  viewport.New(80, 12),
		session:   newSession(senderID),
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case tea.MouseMsg:
		m.handleViewportMouse(typed)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

		if handled := m.handleViewportKey(typed); handled {
			return m, nil
		}

		if typed.String() == "enter" {
			return m.submit()
		}
	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case callResultMsg:
		m.finishCall(typed)
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) submit() (tea.Model, tea.Cmd) {
	if m.isLoading {
		return m, nil
	}

	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	if isExitCommand(line) {
		return m, tea.Quit
	}

	m.input.SetValue("")
	m.followLog = true

	if handled := m.runBuiltin(line); handled {
		m.refreshViewport(true)
		return m, nil
	}

	parsed, err := parseCommand(line)
	if err != nil {
		m.lastErr = err.Error()
		m.entries = append(m.entries, entry{kind: entryError, content: err.Error()})
		m.refreshViewport(true)
		return m, nil
	}

	m.session.setSlots(parsed.slots)
	trackerJSON, err := m.session.trackerJSON()
	if err != nil {
		m.lastErr = err.Error()
		m.entries = append(m.entries, entry{kind: entryError, content: err.Error()})
		m.refreshViewport(true)
		return m, nil
	}

	m.lastErr = ""
	m.calls++
	m.isLoading = true
	m.entries = append(m.entries, entry{kind: entryCall, content: line})
	m.refreshViewport(true)

	call := executor.Call{
		NextAction: parsed.action,
		SenderID:   m.session.senderID,
		Tracker:    trackerJSON,
		Domain:     m.info.Domain,
	}
	return m, tea.Batch(m.spinner.Tick, runCallCmd(m.ctx, m.runner, call))
}

// runBuiltin handles console commands that do not call an action.
func (m *model) runBuiltin(line string) bool {
	switch strings.ToLower(line) {
	case ":slots":
		m.entries = append(m.entries, entry{kind: entryInfo, content: m.describeSlots()})
	case ":actions":
		names := m.runner.Names()
		content := "no actions registered"
		if len(names) > 0 {
			content = strings.Join(names, "\n")
		}
		m.entries = append(m.entries, entry{kind: entryInfo, content: content})
	case ":help":
		m.entries = append(m.entries, entry{kind: entryInfo, content: helpText})
	default:
		return false
	}

	return true
}

func (m *model) finishCall(result callResultMsg) {
	m.isLoading = false

	switch {
	case result.err != nil:
		m.lastErr = result.err.Error()
		m.entries = append(m.entries, entry{kind: entryError, content: result.err.Error()})
	case result.response == nil:
		m.lastErr = ""
		m.entries = append(m.entries, entry{kind: entryInfo, content: "no action name given, nothing ran"})
	default:
		m.lastErr = ""
		for _, message := range result.response.Responses {
			m.entries = append(m.entries, entry{kind: entryResponse, content: formatMessage(message)})
		}
		for _, event := range result.response.Events {
			m.entries = append(m.entries, entry{kind: entryEvent, content: compactJSON(event)})
		}
		m.session.apply(result.action, result.response.Events)
	}

	m.refreshViewport(false)
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}

	header := m.theme.header.Width(m.width - 2).Render("ActionKit Console")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"sender:%s · actions:%d · calls:%d · slots:%d",
		m.session.senderID,
		len(m.runner.Names()),
		m.calls,
		len(m.session.slots),
	))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	status := m.theme.status.Render("Enter run  ·  :slots :actions :help  ·  PgUp/PgDn scroll  ·  Ctrl+C/Esc quit")
	if m.isLoading {
		status = m.theme.statusBusy.Render(fmt.Sprintf("%s running action...", m.spinner.View()))
	}
	if m.lastErr != "" {
		status = m.theme.statusErr.Render("last call failed")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		meta,
		line,
		m.theme.viewport.Width(m.width-2).Render(m.viewport.View()),
		status,
		m.theme.inputLabel.Render("Action")+" "+m.theme.hint.Render("(type exit, quit, or :q)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)
}

func (m *model) resizeComponents() {
	w := max(50, m.width-6)
	h := max(8, m.height-10)

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

func (m *model) refreshViewport(forceBottom bool) {
	previousOffset := m.viewport.YOffset
	sections := make([]string, 0, len(m.entries))
	for _, item := range m.entries {
		sections = append(sections, m.renderEntry(item))
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
		return
	}

	maxOffset := max(0, m.viewport.TotalLineCount()-m.viewport.Height)
	m.viewport.SetYOffset(min(previousOffset, maxOffset))
}

func (m *model) renderEntry(item entry) string {
	body := strings.TrimSpace(item.content)
	width := m.viewport.Width

	switch item.kind {
	case entryCall:
		return lipgloss.JoinVertical(lipgloss.Left, m.theme.callTitle.Render("CALL"), m.theme.callBox.Width(width).Render(body))
	case entryResponse:
		return lipgloss.JoinVertical(lipgloss.Left, m.theme.responseTitle.Render("BOT"), m.theme.responseBox.Width(width).Render(body))
	case entryEvent:
		return lipgloss.JoinVertical(lipgloss.Left, m.theme.eventTitle.Render("EVENT"), m.theme.eventBox.Width(width).Render(body))
	case entryError:
		return lipgloss.JoinVertical(lipgloss.Left, m.theme.errorTitle.Render("ERROR"), m.theme.errorBox.Width(width).Render(body))
	default:
		return lipgloss.JoinVertical(lipgloss.Left, m.theme.infoTitle.Render("INFO"), m.theme.infoBox.Width(width).Render(body))
	}
}

func (m *model) describeSlots() string {
	names := m.session.slotNames()
	if len(names) == 0 {
		return "no slots set"
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+" = "+compactJSON(m.session.slots[name]))
	}
	return strings.Join(lines, "\n")
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.SetYOffset(m.viewport.YOffset - wheelStep)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.SetYOffset(m.viewport.YOffset + wheelStep)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func runCallCmd(ctx context.Context, runner Runner, call executor.Call) tea.Cmd {
	return func() tea.Msg {
		response, err := runner.Run(ctx, call)
		return callResultMsg{action: call.NextAction, response: response, err: err}
	}
}

// formatMessage shows the text of a message and any other fields as JSON.
func formatMessage(message action.Message) string {
	text, _ := message["text"].(string)

	rest := make(map[string]any, len(message))
	for key, value := range message {
		if key == "text" && text != "" {
			continue
		}
		rest[key] = value
	}

	switch {
	case len(rest) == 0:
		return text
	case text == "":
		return compactJSON(rest)
	default:
		return text + "\n" + compactJSON(rest)
	}
}

func compactJSON(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(raw)
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "/exit", "quit", ":q":
		return true
	default:
		return false
	}
}

const helpText = `<action_name> [slots-json]  run an action, merging slots first
:slots                       show the current slot values
:actions                     list registered actions
exit, quit, :q               leave the console`
