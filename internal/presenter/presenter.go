package presenter

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultMaxHeight caps the preview container when no bound is set.
const DefaultMaxHeight = 20

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	frameStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
)

// Presenter shows preview content and keeps its container sized to the
// rendered content. Each Present acquires a new observation on the surface;
// the previous one is always released first.
type Presenter struct {
	surface     *Surface
	observation *Observation
	content     string
	active      bool
	closed      bool
	maxHeight   int
	height      int
	logger      *slog.Logger
}

// New returns a presenter whose surface is width columns wide and at most
// maxHeight lines tall.
func New(width, maxHeight int, logger *slog.Logger) *Presenter {
	if maxHeight < 1 {
		maxHeight = DefaultMaxHeight
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Presenter{
		surface:   NewSurface(width, maxHeight),
		maxHeight: maxHeight,
		logger:    logger,
	}
}

// Present renders content, replacing anything shown before.
func (p *Presenter) Present(content string) error {
	if p.closed {
		return fmt.Errorf("present: presenter closed")
	}
	p.release()

	doc := Sanitize(content)
	if err := p.surface.Load(doc); err != nil {
		p.reset()
		return err
	}

	obs, err := Observe(p.surface, p.resize)
	if err != nil {
		p.reset()
		return fmt.Errorf("observe preview: %w", err)
	}

	p.observation = obs
	p.content = content
	p.active = true
	p.logger.Debug("preview presented",
		"title", doc.Title,
		"lines", p.surface.ContentHeight(),
		"blocked_refs", len(doc.BlockedRefs),
		"inline_scripts", doc.InlineScripts)
	return nil
}

// Sync makes the presenter match content: nil clears it, a change re-presents.
func (p *Presenter) Sync(content *string) error {
	if content == nil {
		if p.active {
			p.Clear()
		}
		return nil
	}
	if p.active && *content == p.content {
		return nil
	}
	return p.Present(*content)
}

// Clear releases the observation and empties the surface.
func (p *Presenter) Clear() {
	p.release()
	p.reset()
}

// Close tears the presenter down. Nothing can be presented afterwards.
func (p *Presenter) Close() {
	p.Clear()
	p.closed = true
}

func (p *Presenter) reset() {
	p.surface.Reset()
	p.content = ""
	p.active = false
	p.height = 0
}

func (p *Presenter) release() {
	p.observation.Release()
	p.observation = nil
}

// resize is the height observer: the container follows the content, capped
// at maxHeight.
func (p *Presenter) resize(contentHeight int) {
	height := min(contentHeight, p.maxHeight)
	if height < 1 {
		height = 1
	}
	p.height = height
	p.surface.SetContainerHeight(height)
}

// SetBounds changes the surface width and the container height cap.
func (p *Presenter) SetBounds(width, maxHeight int) {
	if maxHeight < 1 {
		maxHeight = 1
	}
	capChanged := maxHeight != p.maxHeight
	p.maxHeight = maxHeight
	p.surface.SetWidth(width)
	if capChanged && p.active {
		p.resize(p.surface.ContentHeight())
	}
}

// Active reports whether content is being presented.
func (p *Presenter) Active() bool { return p.active }

// Observing reports whether a height observation is attached.
func (p *Presenter) Observing() bool { return !p.observation.Released() }

// Height is the current container height, zero when nothing is presented.
func (p *Presenter) Height() int { return p.height }

// Content returns the raw content being presented.
func (p *Presenter) Content() string { return p.content }

// Document returns the sanitized document being presented.
func (p *Presenter) Document() Document { return p.surface.Document() }

// Surface exposes the rendering surface.
func (p *Presenter) Surface() *Surface { return p.surface }

// Update forwards scrolling input to the surface.
func (p *Presenter) Update(msg tea.Msg) tea.Cmd {
	if !p.active {
		return nil
	}
	return p.surface.Update(msg)
}

func (p *Presenter) View() string {
	if !p.active {
		return ""
	}

	doc := p.surface.Document()
	title := doc.Title
	if title == "" {
		title = "index.html"
	}
	header := headerStyle.Render("Preview: " + title)

	var note string
	if n := len(doc.BlockedRefs); n > 0 {
		note = noteStyle.Render(fmt.Sprintf("  %d relative reference(s) not resolved", n))
	}

	return header + note + "\n" + frameStyle.Render(p.surface.View())
}
