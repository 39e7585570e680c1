package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup holds the process logger and the handler that feeds the TUI.
type Setup struct {
	Logger *slog.Logger
	// TUI is nil for console setups.
	TUI    *TUIHandler
	closer io.Closer
}

// New builds a logger writing to the TUI at level and, when logFile is set,
// every record at debug and above to logFile as JSON.
func New(level slog.Level, logFile string) (*Setup, error) {
	tui := NewTUIHandler(level)
	s := &Setup{TUI: tui}
	if err := s.attach(tui, logFile); err != nil {
		return nil, err
	}
	return s, nil
}

// NewConsole is New for runs without a TUI: records at level go to w as text.
func NewConsole(level slog.Level, logFile string, w io.Writer) (*Setup, error) {
	s := &Setup{}
	if err := s.attach(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), logFile); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Setup) attach(primary slog.Handler, logFile string) error {
	if logFile == "" {
		s.Logger = slog.New(primary)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	s.closer = f

	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	s.Logger = slog.New(Fanout{primary, file})
	return nil
}

// Close stops TUI delivery and closes the log file, if any.
func (s *Setup) Close() error {
	if s.TUI != nil {
		s.TUI.Close()
	}
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
