// Package dirhandle models a user-granted view into a local directory.
//
// A Handle is a capability: callers can enumerate the immediate children of
// the directory it names and read a child file as text, nothing else. The
// OS-backed RootHandle is scoped with os.Root so reads cannot escape the
// selected directory, and it can be revoked when the directory disappears.
package dirhandle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
)

var (
	// ErrRevoked is returned by every operation on a handle after Revoke.
	ErrRevoked = errors.New("directory handle revoked")
	// ErrNotFile is returned when ReadText is asked to read a directory.
	ErrNotFile = errors.New("entry is not a file")
	// ErrNotDirectory is returned when a handle is opened on a non-directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrTooLarge is returned when a file holds more than the requested limit.
	ErrTooLarge = errors.New("file exceeds read limit")
)

// Kind classifies a directory entry.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Entry is one immediate child of a directory. It is only meaningful to the
// Handle that yielded it.
type Entry struct {
	Name string
	Kind Kind
}

// Handle is an opaque reference to a chosen directory.
type Handle interface {
	// Name is the display name of the directory.
	Name() string
	// Entries lazily enumerates immediate children in the order the
	// underlying store yields them. A non-nil error ends the sequence.
	Entries(ctx context.Context) iter.Seq2[Entry, error]
	// ReadText reads the content of a file entry. It reads at most limit
	// bytes and fails with ErrTooLarge if the file holds more. A limit of
	// zero or less reads the whole file.
	ReadText(ctx context.Context, entry Entry, limit int64) (string, error)
}

// entryBatchSize bounds how many entries are read from the OS at a time.
const entryBatchSize = 64

// RootHandle is a Handle backed by an os.Root.
type RootHandle struct {
	root    *os.Root
	path    string
	name    string
	revoked atomic.Bool
}

// Open opens path as a directory handle.
func Open(path string) (*RootHandle, error) {
	absPath, err := filepath.Abs(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absPath, ErrNotDirectory)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", absPath, err)
	}

	return &RootHandle{
		root: root,
		path: absPath,
		name: filepath.Base(absPath),
	}, nil
}

func (h *RootHandle) Name() string { return h.name }

// Path returns the absolute path of the directory.
func (h *RootHandle) Path() string { return h.path }

// Revoke invalidates the handle. Further operations fail with ErrRevoked.
func (h *RootHandle) Revoke() {
	h.revoked.Store(true)
}

// Revoked reports whether Revoke has been called.
func (h *RootHandle) Revoked() bool {
	return h.revoked.Load()
}

// Close releases the underlying root.
func (h *RootHandle) Close() error {
	return h.root.Close()
}

func (h *RootHandle) check(ctx context.Context) error {
	if h.revoked.Load() {
		return ErrRevoked
	}
	return ctx.Err()
}

func (h *RootHandle) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if err := h.check(ctx); err != nil {
			yield(Entry{}, err)
			return
		}

		dir, err := h.root.Open(".")
		if err != nil {
			yield(Entry{}, fmt.Errorf("open %s: %w", h.name, err))
			return
		}
		defer dir.Close()

		for {
			batch, err := dir.ReadDir(entryBatchSize)
			for _, de := range batch {
				if err := h.check(ctx); err != nil {
					yield(Entry{}, err)
					return
				}
				if !yield(Entry{Name: de.Name(), Kind: h.kindOf(de)}, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Entry{}, fmt.Errorf("list %s: %w", h.name, err))
				return
			}
		}
	}
}

// kindOf classifies an entry, following symlinks that stay inside the root.
func (h *RootHandle) kindOf(de os.DirEntry) Kind {
	switch {
	case de.Type().IsRegular():
		return KindFile
	case de.IsDir():
		return KindDirectory
	case de.Type()&os.ModeSymlink != 0:
		info, err := h.root.Stat(de.Name())
		if err != nil {
			return KindOther
		}
		if info.IsDir() {
			return KindDirectory
		}
		if info.Mode().IsRegular() {
			return KindFile
		}
	}
	return KindOther
}

func (h *RootHandle) ReadText(ctx context.Context, entry Entry, limit int64) (string, error) {
	if err := h.check(ctx); err != nil {
		return "", err
	}
	if entry.Kind != KindFile {
		return "", fmt.Errorf("%s: %w", entry.Name, ErrNotFile)
	}

	f, err := h.root.Open(entry.Name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", entry.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%s is over %d bytes: %w", entry.Name, limit, ErrTooLarge)
	}
	if err := h.check(ctx); err != nil {
		return "", err
	}
	return string(data), nil
}
