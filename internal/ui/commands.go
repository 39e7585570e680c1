package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"servepanel/internal/dirhandle"
	"servepanel/internal/launch"
)

func logCmd(text, style string) tea.Cmd {
	return func() tea.Msg {
		return logMsg{text: text, style: style}
	}
}

func (m *Model) handleCommand(input string) tea.Cmd {
	if !strings.HasPrefix(input, "/") {
		return logCmd(fmt.Sprintf("echo: %s", input), "info")
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h", "/?":
		return m.cmdHelp()
	case "/quit", "/q", "/exit":
		m.shutdown()
		m.quitting = true
		return tea.Quit
	case "/start":
		return m.start()
	case "/stop":
		m.stop()
		return nil
	case "/port", "/p":
		if len(args) == 0 {
			return logCmd("Usage: /port <number>", "warn")
		}
		return m.cmdPort(args[0])
	case "/browse", "/b":
		m.mode = modeBrowse
		m.showWelcome = false
		return nil
	case "/cd":
		if len(args) == 0 {
			return logCmd("Usage: /cd <directory>", "warn")
		}
		return m.cmdChangeDir(strings.Join(args, " "))
	case "/status", "/s":
		return m.cmdStatus()
	case "/cli":
		return logCmd(m.controller.CLICommand(), "success")
	case "/preview", "/v":
		m.showPreview = !m.showPreview
		if m.showPreview {
			return logCmd("Preview pane shown", "info")
		}
		return logCmd("Preview pane hidden", "info")
	case "/clear", "/c":
		m.logs = []logEntry{}
		m.viewport.SetContent("")
		return nil
	default:
		return logCmd(fmt.Sprintf("Unknown command: %s (try /help)", cmd), "error")
	}
}

func (m *Model) cmdHelp() tea.Cmd {
	help := `Commands:
  /start          Start the server (Ctrl+S also works)
  /stop           Stop the server (Ctrl+X also works)
  /port <n>       Set the port (Ctrl+P edits it in place)
  /browse, /b     Pick a directory (Tab also works)
  /cd <path>      Select a directory by path
  /status, /s     Show server status
  /cli            Show the equivalent command line
  /preview, /v    Toggle the preview pane (Ctrl+V)
  /clear, /c      Clear event log
  /quit, /q       Exit (Ctrl+C also works)`
	return logCmd(help, "info")
}

func (m *Model) cmdPort(raw string) tea.Cmd {
	if !m.controller.SetPort(raw) {
		return logCmd(fmt.Sprintf("Invalid port: %s (digits only)", raw), "error")
	}
	m.syncPortInput()
	return logCmd(fmt.Sprintf("Port set to %s", m.controller.Port()), "info")
}

func (m *Model) cmdChangeDir(path string) tea.Cmd {
	absPath, err := filepath.Abs(dirhandle.ExpandPath(path))
	if err != nil {
		return logCmd(fmt.Sprintf("Invalid path: %s", err), "error")
	}

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return logCmd(fmt.Sprintf("Directory not found: %s", absPath), "error")
	}
	if err == nil && !info.IsDir() {
		return logCmd(fmt.Sprintf("Not a directory: %s", absPath), "error")
	}

	m.filepicker.CurrentDirectory = absPath
	return m.openDirectory(absPath)
}

func (m *Model) cmdStatus() tea.Cmd {
	state := m.controller.State()

	dir := "none"
	if state.HasDirectory() {
		dir = displayName(state)
	}
	port := state.Port
	if port == "" {
		port = "(empty, defaults to " + launch.DefaultPort + ")"
	}
	preview := "none"
	switch {
	case state.Resolving:
		preview = "resolving"
	case state.Preview != nil:
		preview = fmt.Sprintf("%d bytes", len(*state.Preview))
	}

	status := fmt.Sprintf("Server: %s\nDirectory: %s\nPort: %s\nPreview: %s\nStatus: %s",
		state.Lifecycle, dir, port, preview, state.StatusMessage)
	return logCmd(status, "info")
}
