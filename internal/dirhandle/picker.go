package dirhandle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrCapabilityUnavailable means the environment cannot prompt for a directory.
	ErrCapabilityUnavailable = errors.New("directory selection is not supported in this environment")
	// ErrSelectionCancelled means the user backed out of the prompt.
	ErrSelectionCancelled = errors.New("directory selection cancelled")
)

// Picker asks the environment for a directory.
type Picker interface {
	PickDirectory(ctx context.Context) (Handle, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (Handle, error)

func (f PickerFunc) PickDirectory(ctx context.Context) (Handle, error) {
	return f(ctx)
}

// PathPicker "picks" a directory that was given up front, e.g. with --dir.
// An empty Path behaves like a cancelled prompt.
type PathPicker struct {
	Path string
}

func (p PathPicker) PickDirectory(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Path) == "" {
		return nil, ErrSelectionCancelled
	}
	return Open(p.Path)
}

// Unavailable is the picker for environments without directory selection.
type Unavailable struct{}

func (Unavailable) PickDirectory(context.Context) (Handle, error) {
	return nil, ErrCapabilityUnavailable
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ShortenPath replaces the home directory prefix with ~ for display.
func ShortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || !strings.HasPrefix(path, home) {
		return path
	}
	return "~" + path[len(home):]
}
