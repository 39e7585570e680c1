// Package dirhandletest provides in-memory directory handles for tests.
package dirhandletest

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"sync"

	"servepanel/internal/dirhandle"
)

// File is one child of an in-memory directory.
type File struct {
	Name    string
	Kind    dirhandle.Kind
	Content string
	// ReadErr, when set, is returned by ReadText for this entry.
	ReadErr error
}

// Handle is an in-memory dirhandle.Handle that yields Files in order.
type Handle struct {
	DirName string
	Files   []File
	// ListErr is yielded after every file has been listed.
	ListErr error
	// Gate, when non-nil, blocks enumeration until it is closed or receives.
	Gate chan struct{}

	mu     sync.Mutex
	listed int
	reads  []string
}

// New returns a handle named name holding files.
func New(name string, files ...File) *Handle {
	return &Handle{DirName: name, Files: files}
}

// Text is shorthand for a regular file with content.
func Text(name, content string) File {
	return File{Name: name, Kind: dirhandle.KindFile, Content: content}
}

// Dir is shorthand for a subdirectory entry.
func Dir(name string) File {
	return File{Name: name, Kind: dirhandle.KindDirectory}
}

func (h *Handle) Name() string { return h.DirName }

func (h *Handle) Entries(ctx context.Context) iter.Seq2[dirhandle.Entry, error] {
	return func(yield func(dirhandle.Entry, error) bool) {
		if h.Gate != nil {
			select {
			case <-h.Gate:
			case <-ctx.Done():
				yield(dirhandle.Entry{}, ctx.Err())
				return
			}
		}
		for _, f := range h.Files {
			h.mu.Lock()
			h.listed++
			h.mu.Unlock()
			if !yield(dirhandle.Entry{Name: f.Name, Kind: f.Kind}, nil) {
				return
			}
		}
		if h.ListErr != nil {
			yield(dirhandle.Entry{}, h.ListErr)
		}
	}
}

func (h *Handle) ReadText(ctx context.Context, entry dirhandle.Entry, limit int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	h.reads = append(h.reads, entry.Name)
	h.mu.Unlock()

	for _, f := range h.Files {
		if f.Name != entry.Name {
			continue
		}
		if f.Kind != dirhandle.KindFile {
			return "", fmt.Errorf("%s: %w", f.Name, dirhandle.ErrNotFile)
		}
		if f.ReadErr != nil {
			return "", f.ReadErr
		}
		if limit > 0 && int64(len(f.Content)) > limit {
			return "", fmt.Errorf("%s is over %d bytes: %w", f.Name, limit, dirhandle.ErrTooLarge)
		}
		return f.Content, nil
	}
	return "", fmt.Errorf("%s: %w", entry.Name, fs.ErrNotExist)
}

// Listed returns how many entries have been yielded so far.
func (h *Handle) Listed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listed
}

// Reads returns the names passed to ReadText, in call order.
func (h *Handle) Reads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.reads...)
}

// Picker returns a picker that always yields handle.
func Picker(handle dirhandle.Handle) dirhandle.Picker {
	return dirhandle.PickerFunc(func(ctx context.Context) (dirhandle.Handle, error) {
		return handle, nil
	})
}

// FailingPicker returns a picker that always fails with err.
func FailingPicker(err error) dirhandle.Picker {
	return dirhandle.PickerFunc(func(ctx context.Context) (dirhandle.Handle, error) {
		return nil, err
	})
}
