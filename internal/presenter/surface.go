package presenter

import (
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errNilSubscriber = errors.New("nil height subscriber")

// Surface is the isolated rendering surface. It shows a sanitized document
// as wrapped Markdown text and tells subscribers whenever the rendered
// content height changes.
type Surface struct {
	viewport  viewport.Model
	converter *md.Converter
	doc       Document
	loaded    bool
	width     int
	height    int

	subscribers map[int]func(int)
	nextID      int
}

// NewSurface returns an empty surface of the given size.
func NewSurface(width, height int) *Surface {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript", "template")

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	return &Surface{
		viewport:    viewport.New(width, height),
		converter:   converter,
		width:       width,
		subscribers: make(map[int]func(int)),
	}
}

// Load renders doc and reports its height to every subscriber.
func (s *Surface) Load(doc Document) error {
	markdown, err := s.converter.ConvertString(doc.HTML)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	s.doc = doc
	s.loaded = true
	s.layout(markdown)
	s.viewport.GotoTop()
	s.notify()
	return nil
}

// Reset empties the surface. Subscribers are not notified.
func (s *Surface) Reset() {
	s.doc = Document{}
	s.loaded = false
	s.height = 0
	s.viewport.SetContent("")
}

// SetWidth re-wraps the content and notifies subscribers if its height moved.
func (s *Surface) SetWidth(width int) {
	if width < 1 {
		width = 1
	}
	if width == s.width {
		return
	}
	s.width = width
	s.viewport.Width = width
	if !s.loaded {
		return
	}

	before := s.height
	markdown, err := s.converter.ConvertString(s.doc.HTML)
	if err != nil {
		return
	}
	s.layout(markdown)
	if s.height != before {
		s.notify()
	}
}

func (s *Surface) layout(markdown string) {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		markdown = "(empty document)"
	}
	rendered := lipgloss.NewStyle().Width(s.width).Render(markdown)
	s.height = lipgloss.Height(rendered)
	s.viewport.SetContent(rendered)
}

// ContentHeight is the number of rendered lines.
func (s *Surface) ContentHeight() int { return s.height }

// Document returns the document currently on the surface.
func (s *Surface) Document() Document { return s.doc }

// Loaded reports whether a document is on the surface.
func (s *Surface) Loaded() bool { return s.loaded }

// SetContainerHeight sizes the visible area of the surface.
func (s *Surface) SetContainerHeight(height int) {
	if height < 1 {
		height = 1
	}
	s.viewport.Height = height
}

// ContainerHeight is the visible height of the surface.
func (s *Surface) ContainerHeight() int { return s.viewport.Height }

// OnHeightChange subscribes fn to content height changes. The returned func
// unsubscribes and may be called more than once.
func (s *Surface) OnHeightChange(fn func(height int)) (func(), error) {
	if fn == nil {
		return nil, errNilSubscriber
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }, nil
}

// Subscribers is the number of live height subscriptions.
func (s *Surface) Subscribers() int { return len(s.subscribers) }

func (s *Surface) notify() {
	for _, fn := range s.subscribers {
		fn(s.height)
	}
}

// Update forwards scroll keys and mouse events to the viewport.
func (s *Surface) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func (s *Surface) View() string {
	return s.viewport.View()
}
