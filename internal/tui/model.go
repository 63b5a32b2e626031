// Package tui assembles the interactive client: transcript, input,
// sidebar, status bar, and modal dialogs, wired to the request
// orchestrator through the event broker.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/pondside/parley/internal/command"
	"github.com/pondside/parley/internal/config"
	"github.com/pondside/parley/internal/db"
	"github.com/pondside/parley/internal/orchestrator"
	"github.com/pondside/parley/internal/render"
	"github.com/pondside/parley/internal/request"
	"github.com/pondside/parley/internal/store"
	"github.com/pondside/parley/internal/tui/components/chat"
	"github.com/pondside/parley/internal/tui/components/dialog"
	"github.com/pondside/parley/internal/tui/components/status"
	"github.com/pondside/parley/internal/tui/events"
	"github.com/pondside/parley/internal/tui/styles"
)

// historySeedLimit is how many persisted entries seed input recall.
const historySeedLimit = 50

// Connector swaps the live database connection. Implemented by the
// CLI layer, which owns the connection and the file watcher.
type Connector interface {
	Connect(path string, readOnly bool) error
	Current() (path string, readOnly bool, ok bool)
}

// Deps is everything the TUI needs injected.
type Deps struct {
	Broker    *events.Broker
	Orch      *orchestrator.Orchestrator
	Store     *store.Store
	Profiles  *store.Profiles
	ProfsPath string
	Config    *config.Manager
	Connector Connector
	Log       *logrus.Logger
}

// pendingInput remembers what was submitted so history entries can be
// written when the request finishes.
type pendingInput struct {
	input     string
	typ       request.Type
	statement string
	started   time.Time
}

// Model is the root bubbletea model.
type Model struct {
	width  int
	height int

	// Components
	sidebar       *chat.SidebarModel
	transcript    *chat.TranscriptModel
	input         *chat.InputModel
	statusBar     *status.Component
	dialogManager *dialog.Manager

	// Event system
	eventBroker *events.Broker
	eventSub    <-chan events.Event

	deps Deps
	log  *logrus.Logger

	// UI state
	pending       map[request.ID]*pendingInput
	lastResult    *db.Result
	lastStatement string
	connName      string
}

// New creates the root model.
func New(deps Deps) *Model {
	styles.SetDefaultManager(styles.NewManager(deps.Config.Get().Theme))

	m := &Model{
		sidebar:       chat.NewSidebar(),
		transcript:    chat.NewTranscript(),
		input:         chat.NewInput(),
		statusBar:     status.New(),
		dialogManager: dialog.NewManager(deps.Broker),
		eventBroker:   deps.Broker,
		deps:          deps,
		log:           deps.Log,
		pending:       make(map[request.ID]*pendingInput),
	}

	m.eventSub = deps.Broker.Subscribe()

	return m
}

// Init initializes the TUI model and all components
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd

	cmds = append(cmds, m.sidebar.Init())
	cmds = append(cmds, m.transcript.Init())
	cmds = append(cmds, m.input.Init())
	cmds = append(cmds, m.statusBar.Init())
	cmds = append(cmds, m.dialogManager.Init())

	cmds = append(cmds, m.input.Focus())
	cmds = append(cmds, m.listenForEvents())

	// Seed input recall from persisted history, oldest first.
	if entries, err := m.deps.Store.Recent(historySeedLimit); err == nil {
		inputs := make([]string, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			inputs = append(inputs, entries[i].Input)
		}
		m.input.LoadHistory(inputs)
	}

	m.syncConnection()
	if _, _, ok := m.deps.Connector.Current(); ok {
		m.refreshSchema("startup")
	}

	return tea.Batch(cmds...)
}

// Update handles all TUI updates and routes to components
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Events delivered as messages re-arm the listener.
	if event, ok := msg.(events.Event); ok {
		model, cmd := m.handleEvent(event)
		cmds = append(cmds, cmd, model.(*Model).listenForEvents())
		return model, tea.Batch(cmds...)
	}

	// If a dialog is open, route input to it first
	if m.dialogManager.IsDialogOpen() {
		dialogModel, cmd := m.dialogManager.Update(msg)
		if dm, ok := dialogModel.(*dialog.Manager); ok {
			m.dialogManager = dm
		}
		cmds = append(cmds, cmd)

		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		const sidebarWidth = 30
		const statusHeight = 1
		const inputHeight = 1
		const inputTotalHeight = 3 // including borders

		mainWidth := m.width - sidebarWidth
		transcriptHeight := m.height - statusHeight - inputTotalHeight - 2

		cmds = append(cmds, m.sidebar.SetSize(sidebarWidth, m.height-statusHeight-2))
		cmds = append(cmds, m.transcript.SetSize(mainWidth-2, transcriptHeight))
		cmds = append(cmds, m.input.SetSize(mainWidth, inputHeight))
		cmds = append(cmds, m.statusBar.SetSize(m.width, statusHeight))
		cmds = append(cmds, m.dialogManager.SetSize(m.width, m.height))
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			return m, m.dialogManager.OpenDialog(dialog.QuitDialogType)
		case "ctrl+l":
			m.transcript.Clear()
			return m, nil
		case "ctrl+p":
			return m, m.dialogManager.OpenDialog(dialog.CommandPaletteDialogType)
		case "ctrl+x":
			return m, m.cancelAll()
		case "?":
			if m.input.IsEmpty() {
				return m, m.dialogManager.OpenDialog(dialog.HelpDialogType)
			}
		case "enter":
			if !m.input.IsEmpty() {
				return m.submitInput(m.input.Value())
			}
			return m, nil
		case "esc":
			if !m.input.IsEmpty() {
				m.input.Reset()
				return m, nil
			}
			return m, m.cancelCurrent()
		case "pgup", "pgdown":
			transcriptModel, cmd := m.transcript.Update(msg)
			if tm, ok := transcriptModel.(*chat.TranscriptModel); ok {
				m.transcript = tm
			}
			return m, cmd
		}
		// Everything else is editing input.
		inputModel, cmd := m.input.Update(msg)
		if im, ok := inputModel.(*chat.InputModel); ok {
			m.input = im
		}
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Non-key messages (ticks, mouse) go to all components.
	transcriptModel, cmd := m.transcript.Update(msg)
	if tm, ok := transcriptModel.(*chat.TranscriptModel); ok {
		m.transcript = tm
	}
	cmds = append(cmds, cmd)

	statusModel, cmd := m.statusBar.Update(msg)
	if sbm, ok := statusModel.(*status.Component); ok {
		m.statusBar = sbm
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	const sidebarWidth = 30
	const statusHeight = 1
	const inputHeight = 1

	theme := styles.CurrentTheme()
	mainWidth := m.width - sidebarWidth
	transcriptHeight := m.height - statusHeight - inputHeight - 4

	sidebarStyle := lipgloss.NewStyle().
		Width(sidebarWidth - 2).
		Height(m.height - statusHeight - 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
	sidebarView := sidebarStyle.Render(m.sidebar.View())

	transcriptStyle := lipgloss.NewStyle().
		Width(mainWidth - 2).
		Height(transcriptHeight).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
	transcriptView := transcriptStyle.Render(m.transcript.View())

	inputStyle := lipgloss.NewStyle().
		Width(mainWidth - 2).
		Height(inputHeight).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderFocus)
	inputView := inputStyle.Render(m.input.View())

	mainContent := lipgloss.JoinVertical(lipgloss.Left, transcriptView, inputView)
	topSection := lipgloss.JoinHorizontal(lipgloss.Top, mainContent, sidebarView)
	baseView := lipgloss.JoinVertical(lipgloss.Left, topSection, m.statusBar.View())

	if m.dialogManager.IsDialogOpen() {
		if dialogView := m.dialogManager.View(); dialogView != "" {
			return dialogView
		}
	}

	return baseView
}

// Input handling

func (m *Model) submitInput(raw string) (tea.Model, tea.Cmd) {
	action := command.Route(raw)
	m.input.RecordSubmit(raw)

	switch action.Kind {
	case command.KindNoop:
		return m, nil
	case command.KindSlash:
		return m.handleSlashCommand(action)
	case command.KindSQL:
		return m, m.submitRequest(action.Text, request.TypeSQL)
	default:
		return m, m.submitRequest(action.Text, request.TypeNaturalLanguage)
	}
}

func (m *Model) submitRequest(input string, typ request.Type) tea.Cmd {
	m.transcript.Add(chat.EntryUser, input)

	id, err := m.deps.Orch.Submit(input, typ)
	if err != nil {
		return m.statusBar.ShowError(err.Error())
	}

	m.pending[id] = &pendingInput{
		input:     input,
		typ:       typ,
		statement: input, // NL requests overwrite this after translation
		started:   time.Now(),
	}
	if typ == request.TypeSQL {
		m.lastStatement = input
	}
	return nil
}

func (m *Model) cancelCurrent() tea.Cmd {
	if err := m.deps.Orch.CancelCurrent(); err != nil {
		return m.statusBar.ShowError(err.Error())
	}
	return nil
}

func (m *Model) cancelAll() tea.Cmd {
	if err := m.deps.Orch.CancelAll(); err != nil {
		return m.statusBar.ShowError(err.Error())
	}
	return nil
}

func (m *Model) refreshSchema(reason string) {
	id, err := m.deps.Orch.Submit(reason, request.TypeSchema)
	if err != nil {
		m.log.WithError(err).Warn("schema refresh rejected")
		return
	}
	m.pending[id] = &pendingInput{input: reason, typ: request.TypeSchema, started: time.Now()}
}

// listenForEvents creates a command that waits for events
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventSub
	}
}

// Event handling

func (m *Model) handleEvent(event events.Event) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch event.Type {
	case events.RequestQueuedEvent:
		if payload, ok := event.Payload.(events.RequestQueuedPayload); ok {
			cmds = append(cmds, m.statusBar.ShowInfo(
				fmt.Sprintf("queued at position %d", payload.Position)))
		}

	case events.QueueFullEvent:
		if payload, ok := event.Payload.(events.QueueFullPayload); ok {
			cmds = append(cmds, m.statusBar.ShowError(
				fmt.Sprintf("queue full (%d waiting), request dropped", payload.MaxDepth)))
		}

	case events.RequestStartedEvent:
		if payload, ok := event.Payload.(events.RequestStartedPayload); ok {
			if payload.Type == request.TypeNaturalLanguage {
				m.transcript.SetStreaming(true)
			}
		}

	case events.RequestProgressEvent:
		if payload, ok := event.Payload.(events.RequestProgressPayload); ok {
			m.statusBar.SetActivity(payload.Update.Message)
		}

	case events.StreamChunkEvent:
		if payload, ok := event.Payload.(events.StreamChunkPayload); ok {
			m.transcript.AppendStreamingChunk(payload.Content)
		}

	case events.TranslationEvent:
		if payload, ok := event.Payload.(events.TranslationPayload); ok {
			m.transcript.SetStreaming(false)
			m.transcript.Add(chat.EntrySQL, "→ "+payload.SQL)
			if payload.Commentary != "" {
				m.transcript.Add(chat.EntryCommentary, payload.Commentary)
			}
			m.lastStatement = payload.SQL
			if p, ok := m.pending[payload.ID]; ok {
				p.statement = payload.SQL
			}
		}

	case events.RequestCompletedEvent:
		if payload, ok := event.Payload.(events.RequestCompletedPayload); ok {
			m.handleCompleted(payload)
		}

	case events.RequestFailedEvent:
		if payload, ok := event.Payload.(events.RequestFailedPayload); ok {
			m.transcript.SetStreaming(false)
			m.transcript.Add(chat.EntryError, payload.Error)
			m.finishHistory(payload.ID, store.StatusError, payload.Error, 0)
		}

	case events.RequestCancelledEvent:
		if payload, ok := event.Payload.(events.RequestCancelledPayload); ok {
			m.transcript.SetStreaming(false)
			for _, id := range payload.IDs {
				m.finishHistory(id, store.StatusCancelled, "", 0)
			}
			m.transcript.Add(chat.EntryNotice,
				fmt.Sprintf("cancelled %d request(s)", len(payload.IDs)))
		}

	case events.QueueStateEvent:
		if payload, ok := event.Payload.(events.QueueStatePayload); ok {
			m.sidebar.SetQueue(payload)
			if !payload.InFlight {
				m.statusBar.SetActivity("")
			}
		}

	case events.ConfirmationRequiredEvent:
		if payload, ok := event.Payload.(events.ConfirmationRequiredPayload); ok {
			m.dialogManager.SetConfirmation(payload.ID, payload.Statement, payload.Reason)
			cmds = append(cmds, m.dialogManager.OpenDialog(dialog.ConfirmDialogType))
		}

	case events.DialogCloseEvent:
		if payload, ok := event.Payload.(events.DialogPayload); ok {
			if payload.DialogID == string(dialog.ConfirmDialogType) {
				decision, _ := payload.Data.(dialog.ConfirmDecision)
				if err := m.deps.Orch.Confirm(decision.Approved, decision.Always); err != nil {
					m.log.WithError(err).Warn("confirm failed")
				}
			}
		}

	case events.CommandSelectedEvent:
		if payload, ok := event.Payload.(events.CommandSelectedPayload); ok {
			return m.handleSlashCommand(command.Route(payload.Command))
		}

	case events.ConnectionSelectedEvent:
		if payload, ok := event.Payload.(events.ConnectionSelectedPayload); ok {
			if profile, found := m.deps.Profiles.Find(payload.Name); found {
				cmds = append(cmds, m.connectTo(profile.Name, profile.Path, profile.ReadOnly))
			}
		}

	case events.StatusMessageEvent:
		if payload, ok := event.Payload.(events.StatusMessagePayload); ok {
			switch payload.Type {
			case "warning":
				cmds = append(cmds, m.statusBar.ShowWarning(payload.Message))
			case "error":
				cmds = append(cmds, m.statusBar.ShowError(payload.Message))
			case "success":
				cmds = append(cmds, m.statusBar.ShowSuccess(payload.Message))
			default:
				cmds = append(cmds, m.statusBar.ShowInfo(payload.Message))
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleCompleted(payload events.RequestCompletedPayload) {
	switch value := payload.Value.(type) {
	case *db.Result:
		m.lastResult = value
		m.transcript.SetStreaming(false)
		m.transcript.Add(chat.EntryResult, render.Table(value, m.transcriptWidth()))
		m.finishHistory(payload.ID, store.StatusOK, "", value.RowCount)
	case *db.Schema:
		m.sidebar.SetSchema(value)
		delete(m.pending, payload.ID)
	default:
		m.log.WithField("request_id", payload.ID).Debug("completion with unknown value type")
		delete(m.pending, payload.ID)
	}
}

// finishHistory writes the history row for a finished request.
func (m *Model) finishHistory(id request.ID, statusStr, errMsg string, rows int) {
	p, ok := m.pending[id]
	if !ok {
		return
	}
	delete(m.pending, id)

	if p.typ == request.TypeSchema {
		return
	}

	entry := store.Entry{
		Input:     p.input,
		Type:      p.typ.String(),
		Statement: p.statement,
		Status:    statusStr,
		Error:     errMsg,
		Rows:      rows,
		Duration:  time.Since(p.started),
		StartedAt: p.started,
	}
	if err := m.deps.Store.Append(entry); err != nil {
		m.log.WithError(err).Warn("failed to write history")
	}
}

// Slash commands

func (m *Model) handleSlashCommand(action command.Action) (tea.Model, tea.Cmd) {
	switch action.Name {
	case "help":
		return m, m.dialogManager.OpenDialog(dialog.HelpDialogType)

	case "quit", "exit":
		return m, tea.Quit

	case "clear":
		m.transcript.Clear()
		return m, nil

	case "connect":
		return m.handleConnect(action.Args)

	case "schema":
		m.refreshSchema("/schema")
		return m, m.statusBar.ShowInfo("refreshing schema")

	case "history":
		return m, m.showHistory(action.Args)

	case "save":
		return m, m.saveQuery(action.Args)

	case "run":
		return m.runSaved(action.Args)

	case "queries":
		return m, m.listQueries()

	case "export":
		return m, m.exportCSV(action.Args)

	case "copy":
		return m, m.copyResult()

	case "cancel":
		return m, m.cancelCurrent()

	case "cancel-all":
		return m, m.cancelAll()

	case "set":
		return m, m.setConfig(action.Args)

	default:
		return m, m.statusBar.ShowError("unknown command: /" + action.Name)
	}
}

func (m *Model) handleConnect(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.dialogManager.SetProfiles(m.deps.Profiles.Connections)
		return m, m.dialogManager.OpenDialog(dialog.ConnectDialogType)
	}

	target := args[0]
	if profile, found := m.deps.Profiles.Find(target); found {
		return m, m.connectTo(profile.Name, profile.Path, profile.ReadOnly)
	}

	readOnly := len(args) > 1 && args[1] == "ro"
	return m, m.connectTo("", target, readOnly)
}

func (m *Model) connectTo(name, path string, readOnly bool) tea.Cmd {
	if err := m.deps.Connector.Connect(path, readOnly); err != nil {
		m.transcript.Add(chat.EntryError, fmt.Sprintf("connect %s: %v", path, err))
		return m.statusBar.ShowError("connect failed")
	}

	m.connName = name
	m.syncConnection()
	m.sidebar.SetSchema(nil)
	m.refreshSchema("connect")
	m.transcript.Add(chat.EntryNotice, "connected to "+path)
	return m.statusBar.ShowSuccess("connected")
}

func (m *Model) syncConnection() {
	cfg := m.deps.Config.Get()
	if path, readOnly, ok := m.deps.Connector.Current(); ok {
		m.sidebar.SetConnection(m.connName, path, readOnly)
	}
	m.sidebar.SetModel(cfg.Provider, cfg.Model)
}

func (m *Model) showHistory(args []string) tea.Cmd {
	var entries []store.Entry
	var err error
	if len(args) > 0 {
		entries, err = m.deps.Store.Search(strings.Join(args, " "), 20)
	} else {
		entries, err = m.deps.Store.Recent(20)
	}
	if err != nil {
		return m.statusBar.ShowError("history: " + err.Error())
	}
	if len(entries) == 0 {
		m.transcript.Add(chat.EntryNotice, "history is empty")
		return nil
	}

	var sb strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		line := fmt.Sprintf("%s  [%s] %s", e.StartedAt.Local().Format("15:04:05"), e.Status, e.Input)
		if e.Status == store.StatusOK && e.Rows > 0 {
			line += fmt.Sprintf(" (%d rows)", e.Rows)
		}
		sb.WriteString(line)
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	m.transcript.Add(chat.EntryNotice, sb.String())
	return nil
}

func (m *Model) saveQuery(args []string) tea.Cmd {
	if len(args) == 0 {
		return m.statusBar.ShowError("usage: /save <name>")
	}
	if m.lastStatement == "" {
		return m.statusBar.ShowError("no statement to save yet")
	}
	if err := m.deps.Store.SaveQuery(args[0], m.lastStatement); err != nil {
		return m.statusBar.ShowError("save: " + err.Error())
	}
	return m.statusBar.ShowSuccess("saved as " + args[0])
}

func (m *Model) runSaved(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.statusBar.ShowError("usage: /run <name>")
	}
	saved, err := m.deps.Store.GetQuery(args[0])
	if err != nil {
		return m, m.statusBar.ShowError("run: " + err.Error())
	}
	return m, m.submitRequest(saved.Statement, request.TypeSQL)
}

func (m *Model) listQueries() tea.Cmd {
	queries, err := m.deps.Store.ListQueries()
	if err != nil {
		return m.statusBar.ShowError("queries: " + err.Error())
	}
	if len(queries) == 0 {
		m.transcript.Add(chat.EntryNotice, "no saved queries; use /save <name>")
		return nil
	}
	var sb strings.Builder
	for i, q := range queries {
		sb.WriteString(fmt.Sprintf("%s — %s", q.Name, q.Statement))
		if i < len(queries)-1 {
			sb.WriteString("\n")
		}
	}
	m.transcript.Add(chat.EntryNotice, sb.String())
	return nil
}

func (m *Model) exportCSV(args []string) tea.Cmd {
	if len(args) == 0 {
		return m.statusBar.ShowError("usage: /export <file.csv>")
	}
	if m.lastResult == nil {
		return m.statusBar.ShowError("no result to export yet")
	}

	f, err := os.Create(args[0])
	if err != nil {
		return m.statusBar.ShowError("export: " + err.Error())
	}
	defer f.Close()

	if err := render.CSV(m.lastResult, f); err != nil {
		return m.statusBar.ShowError("export: " + err.Error())
	}
	return m.statusBar.ShowSuccess(fmt.Sprintf("exported %d rows to %s", m.lastResult.RowCount, args[0]))
}

func (m *Model) copyResult() tea.Cmd {
	if m.lastResult == nil {
		return m.statusBar.ShowError("no result to copy yet")
	}
	if err := clipboard.WriteAll(render.TSV(m.lastResult)); err != nil {
		return m.statusBar.ShowError("copy: " + err.Error())
	}
	return m.statusBar.ShowSuccess("result copied")
}

func (m *Model) setConfig(args []string) tea.Cmd {
	if len(args) < 2 {
		return m.statusBar.ShowError("usage: /set <key> <value>")
	}
	key, value := args[0], strings.Join(args[1:], " ")
	if err := m.deps.Config.Set(key, value); err != nil {
		return m.statusBar.ShowError("set: " + err.Error())
	}
	if key == "theme" {
		styles.SetDefaultManager(styles.NewManager(value))
	}
	m.syncConnection()
	return m.statusBar.ShowSuccess(key + " updated")
}

func (m *Model) transcriptWidth() int {
	const sidebarWidth = 30
	width := m.width - sidebarWidth - 4
	if width < 20 {
		width = 80
	}
	return width
}
