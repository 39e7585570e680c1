// Package notify carries user-facing notifications from the core to
// whatever presents them.
package notify

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is an abstract event with a title and a description.
type Notification struct {
	Level       Level
	Title       string
	Description string
}

// Notifier accepts notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Msg wraps a notification delivered to a Bubble Tea program.
type Msg struct {
	Notification
}

// Queue is a buffered notifier drained by a Bubble Tea program.
type Queue struct {
	ch chan Notification
}

// NewQueue returns a queue holding up to size pending notifications.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Notification, size)}
}

// Notify enqueues n, dropping it if the queue is full.
func (q *Queue) Notify(n Notification) {
	select {
	case q.ch <- n:
	default:
		// Queue full, drop notification
	}
}

// Listen waits for the next notification. Re-issue it after every Msg.
func (q *Queue) Listen() tea.Cmd {
	return func() tea.Msg {
		return Msg{Notification: <-q.ch}
	}
}

// Pending returns the number of queued notifications.
func (q *Queue) Pending() int {
	return len(q.ch)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Titles returns the recorded titles in order.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.items))
	for i, n := range r.items {
		titles[i] = n.Title
	}
	return titles
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}
