package ui

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servepanel/internal/dirhandle"
	"servepanel/internal/dirhandle/dirhandletest"
	"servepanel/internal/launch"
	"servepanel/internal/logging"
	"servepanel/internal/notify"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const indexHTML = `<html><head><title>Home</title></head><body><h1>Welcome</h1><p>Hello there.</p></body></html>`

func noWatch(string) (*dirhandle.RevocationWatcher, error) {
	return nil, errors.New("watching disabled")
}

func newTestModel(t *testing.T) (Model, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	m := New(Options{
		StartDir:   t.TempDir(),
		Controller: launch.New(launch.WithNotifier(rec)),
		Watch:      noWatch,
	})
	return m, rec
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func selected(t *testing.T, m Model, h dirhandle.Handle) Model {
	t.Helper()
	m, _ = update(t, m, directoryOpenedMsg{path: h.Name(), handle: h})
	require.True(t, m.controller.State().HasDirectory())
	return m
}

// startAndResolve presses ctrl+s and feeds the resolution back.
func startAndResolve(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, keyMsg(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func TestStart_WithoutDirectory(t *testing.T) {
	m, rec := newTestModel(t)

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlS))

	assert.Nil(t, cmd)
	assert.Equal(t, launch.Stopped, m.controller.State().Lifecycle)
	assert.Equal(t, launch.StatusIdle, m.controller.State().StatusMessage)
	assert.Equal(t, []string{"No directory selected"}, rec.Titles())
}

func TestStart_PresentsIndex(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("index.html", indexHTML)))

	m = startAndResolve(t, m)

	state := m.controller.State()
	assert.True(t, state.Running())
	assert.False(t, state.Resolving)
	assert.Equal(t, "Server running at http://localhost:8080 (Previewing index.html)", state.StatusMessage)
	assert.True(t, m.presenter.Active())

	view := m.View()
	assert.Contains(t, view, "Preview: Home")
	assert.Contains(t, view, "Hello there.")
	assert.Contains(t, view, "Previewing index.html")
}

func TestStart_RunningWhileResolving(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("index.html", indexHTML)))

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlS))
	require.NotNil(t, cmd)

	state := m.controller.State()
	assert.True(t, state.Running())
	assert.True(t, state.Resolving)
	assert.Nil(t, state.Preview)
	assert.False(t, m.presenter.Active())
}

func TestStart_NoIndex(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("about.html", "<p>x</p>")))

	m = startAndResolve(t, m)

	assert.Equal(t,
		"Server running at http://localhost:8080. No index.html found in the root of the selected directory to preview.",
		m.controller.State().StatusMessage)
	assert.False(t, m.presenter.Active())
}

func TestStop_DiscardsInFlightResolution(t *testing.T) {
	m, rec := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("index.html", indexHTML)))

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	m, _ = update(t, m, keyMsg(tea.KeyCtrlX))
	m, _ = update(t, m, cmd())

	state := m.controller.State()
	assert.Equal(t, launch.Stopped, state.Lifecycle)
	assert.Equal(t, launch.StatusStopped, state.StatusMessage)
	assert.Nil(t, state.Preview)
	assert.False(t, m.presenter.Active())
	assert.NotContains(t, rec.Titles(), "Server running")
}

func TestReselect_DiscardsInFlightResolution(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("first", dirhandletest.Text("index.html", indexHTML)))

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	m = selected(t, m, dirhandletest.New("second"))
	m, _ = update(t, m, cmd())

	state := m.controller.State()
	assert.Equal(t, "second", state.Directory)
	assert.Equal(t, launch.StatusSelected, state.StatusMessage)
	assert.False(t, m.presenter.Active())
}

func TestStop_ClearsPreview(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("index.html", indexHTML)))
	m = startAndResolve(t, m)
	require.True(t, m.presenter.Active())

	m, _ = update(t, m, keyMsg(tea.KeyCtrlX))

	assert.False(t, m.presenter.Active())
	assert.False(t, m.presenter.Observing())
}

func TestPortInput_ClampsAndRejects(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keyMsg(tea.KeyCtrlP))
	require.Equal(t, focusPort, m.focus)

	m, _ = update(t, m, runes("1"))
	assert.Equal(t, "65535", m.controller.Port())
	assert.Equal(t, "65535", m.portInput.Value())

	m, _ = update(t, m, runes("x"))
	assert.Equal(t, "65535", m.controller.Port())
	assert.Equal(t, "65535", m.portInput.Value())

	m, _ = update(t, m, keyMsg(tea.KeyEnter))
	assert.Equal(t, focusCommand, m.focus)
}

func TestPortInput_EmptyDefaultsOnStart(t *testing.T) {
	m, rec := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site"))

	m, _ = update(t, m, keyMsg(tea.KeyCtrlP))
	for range 4 {
		m, _ = update(t, m, keyMsg(tea.KeyBackspace))
	}
	require.Empty(t, m.controller.Port())

	m = startAndResolve(t, m)

	assert.Equal(t, launch.DefaultPort, m.controller.Port())
	assert.Equal(t, launch.DefaultPort, m.portInput.Value())
	assert.Contains(t, rec.Titles(), "Port defaulted")
}

func TestBrowse_EscCancelsSilently(t *testing.T) {
	m, rec := newTestModel(t)

	m, _ = update(t, m, keyMsg(tea.KeyTab))
	require.Equal(t, modeBrowse, m.mode)
	m, _ = update(t, m, keyMsg(tea.KeyEsc))

	assert.Equal(t, modeNormal, m.mode)
	assert.Empty(t, rec.All())
	assert.Equal(t, launch.StatusIdle, m.controller.State().StatusMessage)
}

func TestBrowse_PickCurrentDirectory(t *testing.T) {
	m, _ := newTestModel(t)
	dir := m.filepicker.CurrentDirectory

	m, _ = update(t, m, keyMsg(tea.KeyTab))
	m, cmd := update(t, m, runes("."))
	require.NotNil(t, cmd)
	assert.Equal(t, modeNormal, m.mode)

	msg, ok := cmd().(directoryOpenedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	m, _ = update(t, m, msg)
	t.Cleanup(func() { m.controller.Directory().(*dirhandle.RootHandle).Close() })

	assert.Equal(t, filepath.Base(dir), m.controller.State().Directory)
}

func TestOpenDirectory_Failure(t *testing.T) {
	m, rec := newTestModel(t)

	m, _ = update(t, m, directoryOpenedMsg{path: "/nope", err: errors.New("permission denied")})

	assert.False(t, m.controller.State().HasDirectory())
	assert.Equal(t, []string{"Could not open directory"}, rec.Titles())
}

func TestCommands(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site"))

	msg := m.handleCommand("/cli")().(logMsg)
	assert.Equal(t, "python3 -m http.server 8080 --directory 'site'", msg.text)

	msg = m.handleCommand("/port 9000")().(logMsg)
	assert.Equal(t, "Port set to 9000", msg.text)
	assert.Equal(t, "9000", m.portInput.Value())

	msg = m.handleCommand("/port abc")().(logMsg)
	assert.Equal(t, "error", msg.style)
	assert.Equal(t, "9000", m.controller.Port())

	msg = m.handleCommand("/status")().(logMsg)
	assert.Contains(t, msg.text, "Server: stopped")
	assert.Contains(t, msg.text, "Directory: site")

	msg = m.handleCommand("/bogus")().(logMsg)
	assert.Equal(t, "Unknown command: /bogus (try /help)", msg.text)

	assert.Nil(t, m.handleCommand("/browse"))
	assert.Equal(t, modeBrowse, m.mode)
}

func TestStatus_UnnamedDirectory(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New(""))

	msg := m.handleCommand("/status")().(logMsg)
	assert.Contains(t, msg.text, "Directory: (unnamed)")
	assert.Contains(t, m.View(), "Directory: (unnamed)")
}

func TestCommand_StartAndStop(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("INDEX.HTML", indexHTML)))

	cmd := m.handleCommand("/start")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.True(t, m.presenter.Active())

	assert.Nil(t, m.handleCommand("/stop"))
	assert.False(t, m.controller.State().Running())
	assert.False(t, m.presenter.Active())
}

func TestCommand_CdSelectsDirectory(t *testing.T) {
	m, _ := newTestModel(t)
	dir := t.TempDir()

	cmd := m.handleCommand("/cd " + dir)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	t.Cleanup(func() { m.controller.Directory().(*dirhandle.RootHandle).Close() })

	assert.Equal(t, filepath.Base(dir), m.controller.State().Directory)
	assert.Equal(t, dir, m.filepicker.CurrentDirectory)

	msg := m.handleCommand("/cd " + filepath.Join(dir, "missing"))().(logMsg)
	assert.Equal(t, "error", msg.style)
}

func TestNotificationsAreLogged(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, notify.Msg{Notification: notify.Notification{
		Level:       notify.Warning,
		Title:       "Preview error",
		Description: "boom",
	}})

	require.NotEmpty(t, m.logs)
	last := m.logs[len(m.logs)-1]
	assert.Equal(t, "Preview error: boom", last.text)
	assert.Equal(t, "warn", last.style)
	assert.NotNil(t, cmd)
}

func TestLogRecordsAreLogged(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, logging.RecordMsg{Summary: "server stopped", Level: slog.LevelError})

	require.Len(t, m.logs, 1)
	assert.Equal(t, "error", m.logs[0].style)
	assert.Contains(t, m.viewport.View(), "server stopped")
}

func TestWindowResize_BoundsPreview(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site",
		dirhandletest.Text("index.html", "<p>"+strings.Repeat("lorem ipsum ", 400)+"</p>")))
	m = startAndResolve(t, m)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	assert.True(t, m.ready)
	assert.LessOrEqual(t, m.presenter.Height(), 20-4-3-2-2-3)
	assert.True(t, m.presenter.Observing())
}

func TestRevocation_RevokesHandle(t *testing.T) {
	rec := &notify.Recorder{}
	root := t.TempDir()
	dir := filepath.Join(root, "site")
	require.NoError(t, os.Mkdir(dir, 0o755))

	m := New(Options{StartDir: root, Controller: launch.New(launch.WithNotifier(rec))})
	handle, err := dirhandle.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })

	wait := m.applySelection(directoryOpenedMsg{path: dir, handle: handle})
	require.NotNil(t, wait)
	require.NotNil(t, m.watcher)

	require.NoError(t, os.RemoveAll(dir))

	got := make(chan tea.Msg, 1)
	go func() { got <- wait() }()
	select {
	case msg := <-got:
		m, _ = update(t, m, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no revocation event")
	}

	assert.True(t, handle.Revoked())
	assert.Nil(t, m.watcher)
	require.NotEmpty(t, m.logs)
	assert.Contains(t, m.logs[len(m.logs)-1].text, "Directory unavailable")
}

func TestRevocation_IgnoresStaleWatcher(t *testing.T) {
	m, _ := newTestModel(t)
	h := dirhandletest.New("site")
	m = selected(t, m, h)

	m, cmd := update(t, m, revokedMsg{watcher: &dirhandle.RevocationWatcher{}, event: dirhandle.RevocationEvent{Path: "/old"}})

	assert.Nil(t, cmd)
	assert.Empty(t, m.logs)
}

func TestQuit_ReleasesPreview(t *testing.T) {
	m, _ := newTestModel(t)
	m = selected(t, m, dirhandletest.New("site", dirhandletest.Text("index.html", indexHTML)))
	m = startAndResolve(t, m)

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlC))

	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.False(t, m.presenter.Observing())
	assert.Empty(t, m.View())
}
