// Package ui is the interactive control panel for the simulated server.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"servepanel/internal/dirhandle"
	"servepanel/internal/launch"
	"servepanel/internal/logging"
	"servepanel/internal/notify"
	"servepanel/internal/presenter"
)

// UI mode for the TUI
type uiMode int

const (
	modeNormal uiMode = iota
	modeBrowse
)

// Which input receives keystrokes in normal mode
type focusArea int

const (
	focusCommand focusArea = iota
	focusPort
)

// resolveTimeout bounds one preview resolution.
const resolveTimeout = 10 * time.Second

// Options wires the model to its collaborators.
type Options struct {
	AppName string
	Version string
	// StartDir is where the directory browser opens.
	StartDir   string
	ShowHidden bool
	// PreviewMaxHeight caps the preview surface height.
	PreviewMaxHeight int

	Controller *launch.Controller
	Presenter  *presenter.Presenter
	Queue      *notify.Queue
	Logger     *slog.Logger

	// OpenDirectory opens a picked path. Defaults to dirhandle.Open.
	OpenDirectory func(path string) (dirhandle.Handle, error)
	// Watch watches a selected directory for removal. Defaults to
	// dirhandle.Watch; return an error to run without a watcher.
	Watch func(path string) (*dirhandle.RevocationWatcher, error)
}

// Model is the Bubble Tea model of the control panel.
type Model struct {
	appName string
	version string

	controller *launch.Controller
	presenter  *presenter.Presenter
	queue      *notify.Queue
	logger     *slog.Logger

	openDir func(path string) (dirhandle.Handle, error)
	watch   func(path string) (*dirhandle.RevocationWatcher, error)
	watcher *dirhandle.RevocationWatcher

	// cancelResolve aborts the in-flight preview resolution, if any.
	cancelResolve context.CancelFunc

	input       textinput.Model
	portInput   textinput.Model
	filepicker  filepicker.Model
	viewport    viewport.Model
	logs        []logEntry
	maxLogs     int
	mode        uiMode
	focus       focusArea
	width       int
	height      int
	ready       bool // viewport initialized
	quitting    bool
	showWelcome bool
	showPreview bool
	previewCap  int
}

type logEntry struct {
	time  time.Time
	text  string
	style string
}

// New builds the model. Missing collaborators get working defaults.
func New(opts Options) Model {
	if opts.AppName == "" {
		opts.AppName = "servepanel"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Queue == nil {
		opts.Queue = notify.NewQueue(100)
	}
	if opts.Controller == nil {
		opts.Controller = launch.New(launch.WithNotifier(opts.Queue), launch.WithLogger(opts.Logger))
	}
	if opts.PreviewMaxHeight < 1 {
		opts.PreviewMaxHeight = presenter.DefaultMaxHeight
	}
	if opts.Presenter == nil {
		opts.Presenter = presenter.New(76, opts.PreviewMaxHeight, opts.Logger)
	}
	if opts.OpenDirectory == nil {
		opts.OpenDirectory = func(path string) (dirhandle.Handle, error) {
			return dirhandle.Open(path)
		}
	}
	if opts.Watch == nil {
		opts.Watch = dirhandle.Watch
	}
	if opts.StartDir == "" {
		opts.StartDir = "."
	}

	// Command input
	ti := textinput.New()
	ti.Placeholder = "Type /help for commands or press Tab to pick a directory..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	ti.Prompt = "❯ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))

	// Port input - SetPort decides what is accepted
	pi := textinput.New()
	pi.Placeholder = launch.DefaultPort
	pi.CharLimit = 8
	pi.Width = 8
	pi.Prompt = ""
	pi.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	pi.SetValue(opts.Controller.Port())

	// File picker - directories only
	fp := filepicker.New()
	fp.CurrentDirectory = dirhandle.ExpandPath(opts.StartDir)
	fp.ShowHidden = opts.ShowHidden
	fp.ShowSize = false
	fp.ShowPermissions = false
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.Height = 15
	fp.AutoHeight = false
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	fp.Styles.DisabledCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	fp.Styles.DisabledFile = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	fp.Styles.DisabledSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	// Viewport for logs
	vp := viewport.New(80, 10)
	vp.SetContent("")

	return Model{
		appName:     opts.AppName,
		version:     opts.Version,
		controller:  opts.Controller,
		presenter:   opts.Presenter,
		queue:       opts.Queue,
		logger:      opts.Logger,
		openDir:     opts.OpenDirectory,
		watch:       opts.Watch,
		input:       ti,
		portInput:   pi,
		filepicker:  fp,
		viewport:    vp,
		maxLogs:     100,
		mode:        modeNormal,
		focus:       focusCommand,
		showWelcome: true,
		showPreview: true,
		previewCap:  opts.PreviewMaxHeight,
	}
}

// Controller exposes the launch controller.
func (m Model) Controller() *launch.Controller { return m.controller }

// Presenter exposes the preview presenter.
func (m Model) Presenter() *presenter.Presenter { return m.presenter }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.queue.Listen(),
		m.filepicker.Init(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keys first
		switch {
		case key.Matches(msg, keys.Quit):
			m.shutdown()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Browse):
			if m.mode == modeNormal {
				m.mode = modeBrowse
				m.showWelcome = false
			} else {
				m.mode = modeNormal
			}
			return m, nil
		case key.Matches(msg, keys.Start):
			return m, m.start()
		case key.Matches(msg, keys.Stop):
			m.stop()
			return m, nil
		}

		if m.mode == modeBrowse {
			return m.updateBrowse(msg)
		}

		switch {
		case key.Matches(msg, keys.FocusPort):
			m.setFocus(focusPort)
			return m, nil
		case key.Matches(msg, keys.Preview):
			m.showPreview = !m.showPreview
			return m, nil
		case key.Matches(msg, keys.ScrollUp, keys.ScrollDown):
			if m.previewVisible() {
				return m, m.presenter.Update(msg)
			}
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.focus == focusPort {
			return m.updatePort(msg)
		}

		if msg.Type == tea.KeyEnter {
			input := m.input.Value()
			m.input.SetValue("")
			m.showWelcome = false
			if input != "" {
				cmds = append(cmds, m.handleCommand(input))
			}
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case notify.Msg:
		m.addLog(formatNotification(msg.Notification), styleFor(msg.Level))
		m.showWelcome = false
		m.updateViewportContent()
		cmds = append(cmds, m.queue.Listen())

	case logging.RecordMsg:
		m.addLog(msg.Summary, levelStyle(msg.Level))
		m.updateViewportContent()

	case logMsg:
		m.addLog(msg.text, msg.style)
		m.showWelcome = false
		m.updateViewportContent()

	case directoryOpenedMsg:
		cmds = append(cmds, m.applySelection(msg))

	case previewResolvedMsg:
		m.finishStart(msg)

	case revokedMsg:
		cmds = append(cmds, m.handleRevocation(msg))
	}

	// Always update filepicker for non-key messages (processes internal readDir results)
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		m.filepicker, cmd = m.filepicker.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.mode == modeNormal {
		if m.focus == focusPort {
			m.portInput, cmd = m.portInput.Update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.mode = modeNormal
		m.controller.ApplySelection(nil, dirhandle.ErrSelectionCancelled)
		return m, nil
	case key.Matches(msg, keys.PickHere):
		m.mode = modeNormal
		return m, m.openDirectory(m.filepicker.CurrentDirectory)
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.mode = modeNormal
		return m, tea.Batch(cmd, m.openDirectory(path))
	}
	return m, cmd
}

// updatePort feeds a keystroke to the port field and keeps the field in
// line with what the controller accepted.
func (m Model) updatePort(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.setFocus(focusCommand)
		return m, nil
	}

	var cmd tea.Cmd
	m.portInput, cmd = m.portInput.Update(msg)
	m.controller.SetPort(m.portInput.Value())
	m.syncPortInput()
	return m, cmd
}

func (m *Model) syncPortInput() {
	if m.portInput.Value() != m.controller.Port() {
		m.portInput.SetValue(m.controller.Port())
		m.portInput.CursorEnd()
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusPort {
		m.input.Blur()
		m.portInput.Focus()
		m.portInput.CursorEnd()
		return
	}
	m.portInput.Blur()
	m.input.Focus()
}

// openDirectory opens path off the update loop.
func (m Model) openDirectory(path string) tea.Cmd {
	open := m.openDir
	return func() tea.Msg {
		handle, err := open(path)
		if err != nil {
			return directoryOpenedMsg{path: path, err: err}
		}
		return directoryOpenedMsg{path: path, handle: handle}
	}
}

func (m *Model) applySelection(msg directoryOpenedMsg) tea.Cmd {
	if err := m.controller.ApplySelection(msg.handle, msg.err); err != nil {
		return nil
	}

	m.cancelInFlight()
	m.presenter.Sync(m.controller.State().Preview)
	m.closeWatcher()

	pather, ok := msg.handle.(interface{ Path() string })
	if !ok {
		return nil
	}
	watcher, err := m.watch(pather.Path())
	if err != nil {
		m.logger.Warn("directory watch unavailable", "dir", pather.Path(), "error", err)
		return nil
	}
	m.watcher = watcher
	return waitForRevocation(watcher)
}

func waitForRevocation(w *dirhandle.RevocationWatcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-w.Events()
		if !ok {
			return nil
		}
		return revokedMsg{watcher: w, event: event}
	}
}

// start begins a start attempt and returns the command that resolves its
// preview. It returns nil when the attempt was rejected.
func (m *Model) start() tea.Cmd {
	pending, err := m.controller.BeginStart()
	m.syncPortInput()
	if err != nil {
		return nil
	}

	m.cancelInFlight()
	m.presenter.Sync(m.controller.State().Preview)
	m.showWelcome = false

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	m.cancelResolve = cancel
	resolver := m.controller.Resolver()
	return func() tea.Msg {
		defer cancel()
		return previewResolvedMsg{pending: pending, outcome: pending.Resolve(ctx, resolver)}
	}
}

func (m *Model) finishStart(msg previewResolvedMsg) {
	if !m.controller.FinishStart(msg.pending, msg.outcome) {
		return
	}
	m.cancelResolve = nil
	if err := m.presenter.Sync(m.controller.State().Preview); err != nil {
		m.logger.Warn("preview render failed", "error", err)
		m.addLog(fmt.Sprintf("Preview render failed: %v", err), "error")
		m.updateViewportContent()
	}
}

func (m *Model) stop() {
	m.cancelInFlight()
	m.controller.Stop()
	m.presenter.Clear()
}

func (m *Model) cancelInFlight() {
	if m.cancelResolve != nil {
		m.cancelResolve()
		m.cancelResolve = nil
	}
}

func (m *Model) closeWatcher() {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
}

func (m *Model) shutdown() {
	m.cancelInFlight()
	m.closeWatcher()
	m.presenter.Close()
}

func (m *Model) handleRevocation(msg revokedMsg) tea.Cmd {
	if msg.watcher != m.watcher {
		return nil
	}
	if msg.event.Err != nil {
		m.logger.Warn("directory watcher error", "error", msg.event.Err)
		return waitForRevocation(msg.watcher)
	}

	if revoker, ok := m.controller.Directory().(interface{ Revoke() }); ok {
		revoker.Revoke()
	}
	m.closeWatcher()
	m.logger.Warn("selected directory removed", "dir", msg.event.Path, "op", msg.event.Op)
	m.addLog(fmt.Sprintf("Directory unavailable: %s was removed or renamed. Select it again to continue.",
		dirhandle.ShortenPath(msg.event.Path)), "warn")
	m.updateViewportContent()
	return nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6

	// Leave room for header, port line, input and status
	headerHeight := 4
	inputHeight := 3
	statusHeight := 2
	vpHeight := height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
	m.filepicker.Height = vpHeight - 2

	// The preview frame adds a border and a header line
	previewHeight := min(vpHeight-3, m.previewCap)
	m.presenter.SetBounds(width-6, previewHeight)
	m.ready = true
}

func (m Model) previewVisible() bool {
	return m.showPreview && m.presenter.Active()
}

func (m *Model) updateViewportContent() {
	var lines []string
	for _, entry := range m.logs {
		timestamp := logTimeStyle.Render(entry.time.Format("15:04:05"))
		lines = append(lines, fmt.Sprintf("%s  %s", timestamp, styleText(entry.style).Render(entry.text)))
	}

	m.viewport.SetContent(joinLines(lines))
	m.viewport.GotoBottom()
}

func (m *Model) addLog(text, style string) {
	m.logs = append(m.logs, logEntry{
		time:  time.Now(),
		text:  text,
		style: style,
	})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[1:]
	}
}

func formatNotification(n notify.Notification) string {
	if n.Description == "" {
		return n.Title
	}
	return n.Title + ": " + n.Description
}

func styleFor(level notify.Level) string {
	switch level {
	case notify.Warning:
		return "warn"
	case notify.Error:
		return "error"
	default:
		return "info"
	}
}

func levelStyle(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	default:
		return "info"
	}
}
