// Package launch owns the simulated server's lifecycle: the selected
// directory, the port, the running flag and the status text shown to the
// user.
package launch

import "errors"

// DefaultPort is used whenever the entered port is unusable.
const DefaultPort = "8080"

// MaxPort is the largest valid port.
const MaxPort = 65535

// Status messages shown at fixed points of the lifecycle.
const (
	StatusIdle     = "Select a directory to serve."
	StatusSelected = "Directory selected. Server is stopped."
	StatusStopped  = "Server is stopped."
)

var (
	// ErrNoDirectorySelected is returned by Start when nothing is selected.
	ErrNoDirectorySelected = errors.New("no directory selected")
)

// Lifecycle is the simulated server status.
type Lifecycle int

const (
	Stopped Lifecycle = iota
	Running
)

func (l Lifecycle) String() string {
	switch l {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller.
type State struct {
	Lifecycle     Lifecycle
	StatusMessage string
	// ServerURL is empty unless Running.
	ServerURL string
	// Preview is set only while Running with a successfully read index.html.
	Preview *string
	// Selected is true while a directory handle is held. Directory may still
	// be empty, since a handle's display name can be.
	Selected bool
	// Directory is the display name of the selected directory.
	Directory string
	// Port is the stored port text, possibly empty or partially typed.
	Port string
	// Resolving is true while a start's preview resolution is in flight.
	Resolving bool
}

// Running reports whether the lifecycle is Running.
func (s State) Running() bool { return s.Lifecycle == Running }

// HasDirectory reports whether a directory is selected.
func (s State) HasDirectory() bool { return s.Selected }
