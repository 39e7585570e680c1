// servepanel is a terminal control panel for a simulated static file
// server. Pick a directory, set a port and start; the panel previews the
// directory's index.html. Nothing binds a socket.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"servepanel/internal/config"
	"servepanel/internal/dirhandle"
	"servepanel/internal/launch"
	"servepanel/internal/logging"
	"servepanel/internal/notify"
	"servepanel/internal/presenter"
	"servepanel/internal/preview"
	"servepanel/internal/ui"
)

// Version information - injected at build time via ldflags
var version = "dev"

const appName = config.AppName

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	boldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")).Bold(true)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

type options struct {
	port       string
	dir        string
	configPath string
	saveConfig bool
	headless   bool
	logFile    string
	logLevel   string
	noColor    bool
	version    bool
	help       bool
}

func parseFlags(args []string, stderr io.Writer) (*pflag.FlagSet, options, error) {
	var opts options
	flagSet := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.port, "port", "", "port shown in the server URL (default 8080)")
	flagSet.StringVar(&opts.dir, "dir", "", "directory to serve")
	flagSet.StringVar(&opts.configPath, "config", "", "path to config file")
	flagSet.BoolVar(&opts.saveConfig, "save-config", false, "save current settings to the config file and exit")
	flagSet.BoolVar(&opts.headless, "headless", false, "run without the TUI, Ctrl+C to quit")
	flagSet.StringVar(&opts.logFile, "log-file", "", "also write JSON log records to this file")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "minimum level shown: debug, info, warn, error")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flagSet.BoolVar(&opts.version, "version", false, "show version and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	err := flagSet.Parse(args)
	return flagSet, opts, err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet, opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(stderr, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if opts.version {
		fmt.Fprintf(stdout, "%s %s\n", nameStyle.Render(appName), versionStyle.Render("v"+version))
		return nil
	}

	// Load config (XDG compliant)
	cfgPath := config.Path(opts.configPath)
	cfg, cfgErr := config.Load(cfgPath)
	if cfgErr != nil {
		fmt.Fprintln(stderr, warnStyle.Render(fmt.Sprintf("Ignoring config: %v", cfgErr)))
	}

	// Apply command line overrides
	if flagSet.Changed("port") {
		cfg.Port = config.PortText(opts.port)
	}
	if flagSet.Changed("dir") {
		cfg.Dir = opts.dir
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flagSet.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}

	if opts.saveConfig {
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(stdout, "%s %s\n", successStyle.Render("Config saved to"), boldStyle.Render(cfgPath))
		return nil
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, warnStyle.Render(err.Error()))
	}

	if opts.headless {
		logs, err := logging.NewConsole(level, cfg.LogFile, stderr)
		if err != nil {
			return err
		}
		defer logs.Close()
		return runHeadless(ctx, cfg, logs, stdout, stderr)
	}

	logs, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logs.Close()
	return runTUI(cfg, logs)
}

// newController wires a controller from settings.
func newController(cfg config.Config, notifier notify.Notifier, logs *logging.Setup) (*launch.Controller, error) {
	c := launch.New(
		launch.WithNotifier(notifier),
		launch.WithLogger(logs.Logger.With("component", "launch")),
		launch.WithResolver(preview.NewResolver(
			preview.WithMaxBytes(cfg.PreviewMaxBytes),
			preview.WithLogger(logs.Logger.With("component", "preview")),
		)),
	)
	if cfg.Port != "" && !c.SetPort(string(cfg.Port)) {
		return nil, fmt.Errorf("invalid port %q: digits only", cfg.Port)
	}
	return c, nil
}

func runTUI(cfg config.Config, logs *logging.Setup) error {
	queue := notify.NewQueue(100)
	controller, err := newController(cfg, queue, logs)
	if err != nil {
		return err
	}

	model := ui.New(ui.Options{
		AppName:          appName,
		Version:          version,
		StartDir:         cfg.Dir,
		ShowHidden:       cfg.ShowHidden,
		PreviewMaxHeight: cfg.PreviewMaxHeight,
		Controller:       controller,
		Presenter:        presenter.New(76, cfg.PreviewMaxHeight, logs.Logger.With("component", "presenter")),
		Queue:            queue,
		Logger:           logs.Logger.With("component", "ui"),
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	logs.TUI.SetProgram(program)

	// Preselect --dir so the first ctrl+s can start
	if cfg.Dir != "" {
		go func() {
			handle, err := dirhandle.Open(cfg.Dir)
			program.Send(ui.DirectoryOpened(cfg.Dir, handle, err))
		}()
	}

	_, err = program.Run()
	return err
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `%s v%s - simulated static file server control panel

Pick a directory, choose a port and start a simulated server. The panel
shows the URL that would be served and previews the directory's index.html.
No socket is opened and no file other than index.html is read.

USAGE:
    %s [OPTIONS]

OPTIONS:
%s
CONFIG FILE:
    Settings are loaded from (in order of precedence):
    1. Command line flags
    2. Config file specified with --config
    3. $XDG_CONFIG_HOME/%s/settings.json
    4. ~/.config/%s/settings.json
    5. Built-in defaults

    Example settings.json (comments allowed):
    {
      "port": "8080",
      "dir": "~/site",       // preselected directory
      "log_level": "info",
      "preview_max_height": 20
    }

EXAMPLES:
    %s                            # Interactive panel
    %s --dir ~/site --port 3000   # Preselect a directory and port
    %s --headless --dir ~/site    # Start without the TUI, Ctrl+C to stop
    %s --port 9000 --save-config  # Save settings for next time

`, appName, version, appName, flagSet.FlagUsages(), appName, appName, appName, appName, appName, appName)
}
