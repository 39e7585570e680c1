package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"servepanel/internal/dirhandle"
	"servepanel/internal/launch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	portStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1).
			Bold(true)

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Bold(true)

	logTimeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	logInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	logSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	logErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	logWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func styleText(style string) lipgloss.Style {
	switch style {
	case "success":
		return logSuccessStyle
	case "error":
		return logErrorStyle
	case "warn":
		return logWarnStyle
	default:
		return logInfoStyle
	}
}

// displayName names the selected directory, which may have no name.
func displayName(state launch.State) string {
	if state.Directory == "" {
		return "(unnamed)"
	}
	return state.Directory
}

func joinLines(lines []string) string { return strings.Join(lines, "\n") }

func welcomeContent() string {
	return `
  ┌─ Quick Start ───────────────────────────────────────────────┐
  │  1. Press Tab and pick the directory to serve               │
  │  2. Press Ctrl+P to change the port (default 8080)          │
  │  3. Press Ctrl+S to start; index.html is previewed here     │
  │  4. Press Ctrl+X to stop                                    │
  └─────────────────────────────────────────────────────────────┘

  ┌─ Commands ──────────────────────────────────────────────────┐
  │  /start, /stop    Start or stop the server                  │
  │  /cd <path>       Select a directory by path                │
  │  /cli             Show the equivalent command line          │
  │  /help, /h        Show all commands                         │
  │  /quit, /q        Exit (or Ctrl+C)                          │
  └─────────────────────────────────────────────────────────────┘

  Nothing is actually served; this panel simulates the server.
`
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	totalHeight := m.height
	if totalHeight == 0 {
		totalHeight = 24 // Default terminal height
	}

	state := m.controller.State()

	// Header - 3 lines
	header := titleStyle.Render(m.appName)
	if m.version != "" {
		header = titleStyle.Render(fmt.Sprintf("%s v%s", m.appName, m.version))
	}

	lifecycle := stoppedStyle.Render("● stopped")
	if state.Running() {
		lifecycle = runningStyle.Render("● running")
	}
	dir := "none"
	if d, ok := m.controller.Directory().(interface{ Path() string }); ok {
		dir = dirhandle.ShortenPath(d.Path())
	} else if state.HasDirectory() {
		dir = displayName(state)
	}
	infoLine := "  " + lifecycle + dimStyle.Render("  •  Directory: ") + pathStyle.Render(dir)
	if state.ServerURL != "" {
		infoLine += dimStyle.Render("  •  ") + urlStyle.Render(state.ServerURL)
	}

	portLabel := dimStyle.Render("  Port: ")
	if m.focus == focusPort {
		portLabel = portStyle.Render("  Port: ")
	}
	portLine := portLabel + m.portInput.View()

	var modeText string
	switch {
	case m.mode == modeBrowse:
		modeText = modeStyle.Render(" [BROWSE] ") + dimStyle.Render("Tab: exit • Enter: select • l/→: open • h/←: back • .: select current • Esc: cancel")
	case m.focus == focusPort:
		modeText = modeStyle.Render(" [PORT] ") + dimStyle.Render("digits only • Enter/Esc: done")
	default:
		modeText = dimStyle.Render("Tab: browse • Ctrl+S: start • Ctrl+X: stop • Ctrl+P: port • /help: commands")
	}

	var mainContent string
	switch {
	case m.mode == modeBrowse:
		breadcrumb := breadcrumbStyle.Render(" 📁 " + dirhandle.ShortenPath(m.filepicker.CurrentDirectory) + " ")
		mainContent = breadcrumb + "\n\n" + m.filepicker.View()
	case m.previewVisible():
		mainContent = m.presenter.View()
	case m.showWelcome && len(m.logs) == 0:
		mainContent = welcomeContent()
	default:
		mainContent = m.viewport.View()
	}

	inputBox := borderStyle.Render(m.input.View())

	headerLines := 3
	inputLines := 3
	statusLines := 1
	modeLines := 1
	mainContentHeight := totalHeight - headerLines - inputLines - statusLines - modeLines - 2
	if mainContentHeight < 1 {
		mainContentHeight = 1
	}

	// Pad main content to push input to bottom
	mainLines := strings.Split(mainContent, "\n")
	if len(mainLines) < mainContentHeight {
		for len(mainLines) < mainContentHeight {
			mainLines = append(mainLines, "")
		}
	} else if len(mainLines) > mainContentHeight {
		mainLines = mainLines[len(mainLines)-mainContentHeight:]
	}
	mainContent = strings.Join(mainLines, "\n")

	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n\n%s\n%s\n%s",
		header,
		infoLine,
		portLine,
		mainContent,
		inputBox,
		dimStyle.Render(state.StatusMessage),
		modeText)
}
