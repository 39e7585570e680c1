package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"servepanel/internal/dirhandle"
	"servepanel/internal/notify"
	"servepanel/internal/preview"
)

// Resolver produces the preview outcome for a directory.
type Resolver interface {
	Resolve(ctx context.Context, dir dirhandle.Handle) preview.Outcome
}

// Controller is the launch state machine. It is owned by a single
// goroutine; only PendingStart.Resolve may run elsewhere.
type Controller struct {
	dir        dirhandle.Handle
	port       string
	state      State
	generation uint64

	resolver Resolver
	notifier notify.Notifier
	logger   *slog.Logger
	release  func(dirhandle.Handle)
}

// Option configures a Controller.
type Option func(*Controller)

// WithResolver replaces the default preview resolver.
func WithResolver(r Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

// WithNotifier sets where notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPort sets the initial port text. Input the port rule rejects is ignored.
func WithPort(port string) Option {
	return func(c *Controller) {
		if stored, ok := normalizePort(port); ok {
			c.port = stored
		}
	}
}

// WithHandleRelease sets what happens to a directory handle once a new
// selection replaces it. By default handles implementing io.Closer are closed.
func WithHandleRelease(fn func(dirhandle.Handle)) Option {
	return func(c *Controller) { c.release = fn }
}

// New returns a stopped controller with no directory.
func New(opts ...Option) *Controller {
	c := &Controller{
		port:  DefaultPort,
		state: State{Lifecycle: Stopped, StatusMessage: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.resolver == nil {
		c.resolver = preview.NewResolver(preview.WithLogger(c.logger))
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.release == nil {
		c.release = closeHandle
	}
	return c
}

func closeHandle(h dirhandle.Handle) {
	if closer, ok := h.(io.Closer); ok {
		closer.Close()
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Port = c.port
	if c.dir != nil {
		s.Selected = true
		s.Directory = c.dir.Name()
	}
	if c.state.Preview != nil {
		text := *c.state.Preview
		s.Preview = &text
	}
	return s
}

// Directory returns the selected directory handle, or nil.
func (c *Controller) Directory() dirhandle.Handle { return c.dir }

// Port returns the stored port text.
func (c *Controller) Port() string { return c.port }

// Resolver returns the resolver used by Start.
func (c *Controller) Resolver() Resolver { return c.resolver }

// SelectDirectory prompts through picker and applies the result.
func (c *Controller) SelectDirectory(ctx context.Context, picker dirhandle.Picker) error {
	handle, err := picker.PickDirectory(ctx)
	return c.ApplySelection(handle, err)
}

// ApplySelection applies the result of a directory prompt. A cancelled
// prompt returns ErrSelectionCancelled without notifying; any failure leaves
// the state untouched. A successful selection always lands in Stopped.
func (c *Controller) ApplySelection(handle dirhandle.Handle, err error) error {
	switch {
	case errors.Is(err, dirhandle.ErrSelectionCancelled):
		c.logger.Debug("directory selection cancelled")
		return err

	case errors.Is(err, dirhandle.ErrCapabilityUnavailable):
		c.logger.Warn("directory selection unavailable")
		c.notifier.Notify(notify.Notification{
			Level:       notify.Error,
			Title:       "Directory selection unavailable",
			Description: "This environment cannot prompt for a directory. Pass --dir or run in a terminal.",
		})
		return err

	case err != nil:
		c.logger.Warn("directory selection failed", "error", err)
		c.notifier.Notify(notify.Notification{
			Level:       notify.Error,
			Title:       "Could not open directory",
			Description: err.Error(),
		})
		return err

	case handle == nil:
		return fmt.Errorf("select directory: %w", dirhandle.ErrSelectionCancelled)
	}

	previous := c.dir
	c.dir = handle
	c.generation++
	c.state = State{Lifecycle: Stopped, StatusMessage: StatusSelected}
	if previous != nil && previous != handle {
		c.release(previous)
	}

	c.logger.Info("directory selected", "dir", handle.Name())
	c.notifier.Notify(notify.Notification{
		Level:       notify.Info,
		Title:       "Directory selected",
		Description: handle.Name(),
	})
	return nil
}

// SetPort stores raw if it is digits or empty, clamping values above
// MaxPort. Other input is rejected and SetPort returns false.
func (c *Controller) SetPort(raw string) bool {
	stored, ok := normalizePort(raw)
	if !ok {
		return false
	}
	c.port = stored
	return true
}

// PendingStart is one start attempt whose preview is still being resolved.
type PendingStart struct {
	// ID identifies the attempt in logs.
	ID            string
	URL           string
	Port          string
	PortDefaulted bool

	dir        dirhandle.Handle
	generation uint64
}

// Directory is the handle the attempt resolves against.
func (p *PendingStart) Directory() dirhandle.Handle { return p.dir }

// Resolve runs r against the attempt's directory. It touches no controller
// state and may run on any goroutine.
func (p *PendingStart) Resolve(ctx context.Context, r Resolver) preview.Outcome {
	return r.Resolve(ctx, p.dir)
}

// BeginStart validates the inputs and moves to Running. The preview and
// final status text are applied later by FinishStart. Calling it while
// already Running starts a fresh evaluation.
func (c *Controller) BeginStart() (*PendingStart, error) {
	if c.dir == nil {
		c.logger.Warn("start requested without a directory")
		c.notifier.Notify(notify.Notification{
			Level:       notify.Error,
			Title:       "No directory selected",
			Description: "Select a directory before starting the server.",
		})
		return nil, ErrNoDirectorySelected
	}

	port, defaulted := effectivePort(c.port)
	if defaulted {
		c.logger.Info("port defaulted", "entered", c.port, "port", port)
		c.notifier.Notify(notify.Notification{
			Level:       notify.Info,
			Title:       "Port defaulted",
			Description: fmt.Sprintf("Invalid port %q; using %s.", c.port, port),
		})
		c.port = port
	}

	c.generation++
	p := &PendingStart{
		ID:            uuid.NewString(),
		URL:           "http://localhost:" + port,
		Port:          port,
		PortDefaulted: defaulted,
		dir:           c.dir,
		generation:    c.generation,
	}

	c.state = State{
		Lifecycle:     Running,
		StatusMessage: "Server running at " + p.URL,
		ServerURL:     p.URL,
		Resolving:     true,
	}
	c.logger.Info("server starting", "attempt", p.ID, "url", p.URL, "dir", c.dir.Name())
	return p, nil
}

// FinishStart applies outcome for p. The status text and preview change
// together. It returns false and changes nothing when p has been
// superseded by a stop, a new selection or another start.
func (c *Controller) FinishStart(p *PendingStart, outcome preview.Outcome) bool {
	if p == nil || p.generation != c.generation || c.state.Lifecycle != Running {
		if p != nil {
			c.logger.Debug("discarding superseded preview", "attempt", p.ID, "outcome", outcome.Kind.String())
		}
		return false
	}

	status := "Server running at " + p.URL + preview.StatusSuffix(outcome.Kind)
	var content *string
	switch outcome.Kind {
	case preview.Found:
		text := outcome.Text
		content = &text
	case preview.ReadError:
		c.logger.Warn("preview unavailable", "attempt", p.ID, "error", outcome.Err)
		description := "Error reading index.html for preview."
		if outcome.Err != nil {
			description = fmt.Sprintf("Error reading index.html for preview: %v", outcome.Err)
		}
		c.notifier.Notify(notify.Notification{
			Level:       notify.Warning,
			Title:       "Preview error",
			Description: description,
		})
	}

	c.state.StatusMessage = status
	c.state.Preview = content
	c.state.Resolving = false

	c.logger.Info("server running", "attempt", p.ID, "url", p.URL, "preview", outcome.Kind.String())
	c.notifier.Notify(notify.Notification{
		Level:       notify.Info,
		Title:       "Server running",
		Description: status,
	})
	return true
}

// Start runs a whole start attempt on the calling goroutine.
func (c *Controller) Start(ctx context.Context) error {
	p, err := c.BeginStart()
	if err != nil {
		return err
	}
	c.FinishStart(p, p.Resolve(ctx, c.resolver))
	return nil
}

// Stop returns to Stopped. It always succeeds and supersedes any start
// still resolving.
func (c *Controller) Stop() {
	wasRunning := c.state.Lifecycle == Running
	c.generation++
	c.state = State{Lifecycle: Stopped, StatusMessage: StatusStopped}

	if wasRunning {
		c.logger.Info("server stopped")
		c.notifier.Notify(notify.Notification{
			Level:       notify.Info,
			Title:       "Server stopped",
			Description: StatusStopped,
		})
	}
}

// CLICommand is the informational command equivalent to the current
// settings. It is shown to the user and never executed.
func (c *Controller) CLICommand() string {
	port, _ := effectivePort(c.port)
	cmd := "python3 -m http.server " + port
	if c.dir == nil {
		return cmd
	}
	dir := c.dir.Name()
	if pather, ok := c.dir.(interface{ Path() string }); ok {
		dir = pather.Path()
	}
	return fmt.Sprintf("%s --directory %s", cmd, shellQuote(dir))
}

// shellQuote wraps s in single quotes for a POSIX shell. Nothing inside
// single quotes is special except the quote itself, which is spelled '\''.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
