// Package preview locates and reads the index.html at the root of a
// selected directory.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"servepanel/internal/dirhandle"
)

// IndexName is the file the resolver looks for, compared case-insensitively.
const IndexName = "index.html"

// DefaultMaxBytes is the largest preview the resolver accepts by default.
const DefaultMaxBytes = 1 << 20

// ErrPreviewTooLarge is reported when index.html exceeds the size limit.
var ErrPreviewTooLarge = errors.New("preview file too large")

// Kind tags a resolution outcome.
type Kind int

const (
	Found Kind = iota
	NotFound
	ReadError
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not-found"
	case ReadError:
		return "read-error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one resolution. Text is set only for Found and
// Err only for ReadError.
type Outcome struct {
	Kind Kind
	Text string
	Err  error
}

// StatusSuffix returns the text appended to the "Server running at" message.
func StatusSuffix(kind Kind) string {
	switch kind {
	case Found:
		return " (Previewing index.html)"
	case NotFound:
		return ". No index.html found in the root of the selected directory to preview."
	default:
		return ". Error reading index.html for preview."
	}
}

// Resolver finds the preview file in a directory.
type Resolver struct {
	maxBytes int
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxBytes sets the preview size limit. Non-positive values keep the default.
func WithMaxBytes(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver returns a resolver with the given options applied.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxBytes: DefaultMaxBytes,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve makes a single attempt to read the preview from dir. Faults are
// reported as ReadError, never returned or panicked.
func (r *Resolver) Resolve(ctx context.Context, dir dirhandle.Handle) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = Outcome{Kind: ReadError, Err: fmt.Errorf("preview panic: %v", p)}
		}
		r.log(dir, outcome)
	}()

	if dir == nil {
		return Outcome{Kind: ReadError, Err: errors.New("no directory")}
	}

	for entry, err := range dir.Entries(ctx) {
		if err != nil {
			return Outcome{Kind: ReadError, Err: err}
		}
		if entry.Kind != dirhandle.KindFile || !strings.EqualFold(entry.Name, IndexName) {
			continue
		}

		text, err := dir.ReadText(ctx, entry, int64(r.maxBytes))
		if errors.Is(err, dirhandle.ErrTooLarge) {
			return Outcome{Kind: ReadError, Err: fmt.Errorf("%w: %w", ErrPreviewTooLarge, err)}
		}
		if err != nil {
			return Outcome{Kind: ReadError, Err: err}
		}
		if len(text) > r.maxBytes {
			return Outcome{Kind: ReadError, Err: fmt.Errorf("%s is %d bytes: %w", entry.Name, len(text), ErrPreviewTooLarge)}
		}
		return Outcome{Kind: Found, Text: text}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{Kind: ReadError, Err: err}
	}
	return Outcome{Kind: NotFound}
}

func (r *Resolver) log(dir dirhandle.Handle, outcome Outcome) {
	name := ""
	if dir != nil {
		name = dir.Name()
	}
	switch outcome.Kind {
	case ReadError:
		r.logger.Warn("preview read failed", "dir", name, "error", outcome.Err)
	default:
		r.logger.Debug("preview resolved", "dir", name, "outcome", outcome.Kind.String(), "bytes", len(outcome.Text))
	}
}
