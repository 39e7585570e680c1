package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"servepanel/internal/dirhandle"
	"servepanel/internal/launch"
	"servepanel/internal/preview"
)

// logMsg is a line for the event log
type logMsg struct {
	text  string
	style string // "info", "success", "error", "warn"
}

// directoryOpenedMsg carries the result of opening a picked directory
type directoryOpenedMsg struct {
	path   string
	handle dirhandle.Handle
	err    error
}

// previewResolvedMsg carries a finished preview resolution for one start attempt
type previewResolvedMsg struct {
	pending *launch.PendingStart
	outcome preview.Outcome
}

// revokedMsg reports that the watched directory went away
type revokedMsg struct {
	watcher *dirhandle.RevocationWatcher
	event   dirhandle.RevocationEvent
}

// DirectoryOpened reports the result of opening path outside the program,
// for example a directory preselected on the command line.
func DirectoryOpened(path string, handle dirhandle.Handle, err error) tea.Msg {
	if err != nil {
		return directoryOpenedMsg{path: path, err: err}
	}
	return directoryOpenedMsg{path: path, handle: handle}
}
