// Package logging routes slog records into the TUI event log and,
// optionally, a JSON log file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// RecordMsg delivers a log record to the Bubble Tea model.
type RecordMsg struct {
	// Summary is "message (key=value, ...)".
	Summary string
	Level   slog.Level
}

// Sender is the part of *tea.Program the handler needs.
type Sender interface {
	Send(msg tea.Msg)
}

// RecordBuffer is how many records may wait for delivery before new ones
// are dropped.
const RecordBuffer = 256

// sink is shared by a handler and everything derived from it. Handle only
// queues; pump is the one goroutine that calls Send.
type sink struct {
	program   atomic.Pointer[Sender]
	records   chan RecordMsg
	start     sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func (s *sink) pump() {
	for {
		select {
		case <-s.done:
			return
		case record := <-s.records:
			(*s.program.Load()).Send(record)
		}
	}
}

// TUIHandler is a slog.Handler that sends records at or above its level to
// a Bubble Tea program. Records arriving before SetProgram are dropped, as
// are records logged while RecordBuffer records are already waiting.
// Handlers derived with WithAttrs/WithGroup share the program.
type TUIHandler struct {
	level  slog.Leveler
	sink   *sink
	attrs  []slog.Attr
	groups []string
}

// NewTUIHandler returns a handler for records at or above level.
func NewTUIHandler(level slog.Leveler) *TUIHandler {
	return &TUIHandler{
		level: level,
		sink: &sink{
			records: make(chan RecordMsg, RecordBuffer),
			done:    make(chan struct{}),
		},
	}
}

// SetProgram sets the receiver of log messages and starts delivery. Safe
// from any goroutine.
func (h *TUIHandler) SetProgram(program Sender) {
	h.sink.program.Store(&program)
	h.sink.start.Do(func() { go h.sink.pump() })
}

// Close stops delivery. Records still queued are discarded.
func (h *TUIHandler) Close() {
	h.sink.closeOnce.Do(func() { close(h.sink.done) })
}

func (h *TUIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TUIHandler) Handle(_ context.Context, record slog.Record) error {
	if h.sink.program.Load() == nil {
		return nil
	}
	select {
	case <-h.sink.done:
		return nil
	default:
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	var parts []string
	for _, attr := range h.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}

	select {
	case h.sink.records <- RecordMsg{Summary: summary, Level: record.Level}:
	default:
		// Buffer full, drop record
	}
	return nil
}

func (h *TUIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUIHandler{
		level:  h.level,
		sink:   h.sink,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *TUIHandler) WithGroup(name string) slog.Handler {
	return &TUIHandler{
		level:  h.level,
		sink:   h.sink,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append(append([]string(nil), h.groups...), name),
	}
}

// Fanout sends every record to each handler that is enabled for it.
type Fanout []slog.Handler

func (f Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f Fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f Fanout) WithGroup(name string) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// ParseLevel maps a config or flag value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
