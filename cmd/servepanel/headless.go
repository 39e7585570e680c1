package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"servepanel/internal/config"
	"servepanel/internal/dirhandle"
	"servepanel/internal/logging"
	"servepanel/internal/notify"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")).Underline(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// runHeadless starts the simulated server without the TUI and stops it when
// ctx is done.
func runHeadless(ctx context.Context, cfg config.Config, logs *logging.Setup, stdout, stderr io.Writer) error {
	rec := &notify.Recorder{}
	controller, err := newController(cfg, rec, logs)
	if err != nil {
		return err
	}

	var picker dirhandle.Picker = dirhandle.Unavailable{}
	if cfg.Dir != "" {
		picker = dirhandle.PathPicker{Path: cfg.Dir}
	}

	if err := controller.SelectDirectory(ctx, picker); err != nil {
		return notificationError(rec, err)
	}
	defer func() {
		if closer, ok := controller.Directory().(io.Closer); ok {
			closer.Close()
		}
	}()

	rec.Reset()
	if err := controller.Start(ctx); err != nil {
		return notificationError(rec, err)
	}
	state := controller.State()

	dir := state.Directory
	if pather, ok := controller.Directory().(interface{ Path() string }); ok {
		dir = dirhandle.ShortenPath(pather.Path())
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  %s %s\n", headerStyle.Render(appName), dimStyle.Render("v"+version))
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  %s  %s\n", labelStyle.Render("➜  Local:"), urlStyle.Render(state.ServerURL))
	fmt.Fprintf(stdout, "  %s    %s\n", labelStyle.Render("➜  Dir:"), pathStyle.Render(dir))
	fmt.Fprintf(stdout, "  %s    %s\n", labelStyle.Render("➜  CLI:"), codeStyle.Render(controller.CLICommand()))
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  %s\n", pathStyle.Render(state.StatusMessage))
	if state.Preview != nil {
		fmt.Fprintf(stdout, "  %s\n", dimStyle.Render(fmt.Sprintf("index.html: %d bytes", len(*state.Preview))))
	}
	for _, n := range rec.All() {
		if n.Level >= notify.Warning {
			fmt.Fprintln(stderr, warnStyle.Render(fmt.Sprintf("  %s: %s", n.Title, n.Description)))
		}
	}
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  %s\n", dimStyle.Render("Press Ctrl+C to stop"))

	<-ctx.Done()
	controller.Stop()
	fmt.Fprintln(stdout, dimStyle.Render("  "+controller.State().StatusMessage))
	return nil
}

// notificationError turns the last notification into the returned error.
// A cancelled selection has none and is reported as is.
func notificationError(rec *notify.Recorder, err error) error {
	all := rec.All()
	if len(all) == 0 {
		return err
	}
	last := all[len(all)-1]
	if errors.Is(err, dirhandle.ErrCapabilityUnavailable) {
		return fmt.Errorf("%s: pass --dir <path> in headless mode: %w", last.Title, err)
	}
	return fmt.Errorf("%s: %w", last.Title, err)
}
