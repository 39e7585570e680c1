package preview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servepanel/internal/dirhandle"
	"servepanel/internal/dirhandle/dirhandletest"
)

func TestResolve_FindsIndexIgnoringCase(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{"lower", "index.html"},
		{"upper", "INDEX.HTML"},
		{"mixed", "Index.Html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := dirhandletest.New("site",
				dirhandletest.Text("readme.md", "# hi"),
				dirhandletest.Text(tt.fileName, "<p>hi</p>"),
			)

			outcome := NewResolver().Resolve(context.Background(), dir)
			assert.Equal(t, Outcome{Kind: Found, Text: "<p>hi</p>"}, outcome)
		})
	}
}

func TestResolve_FirstMatchWinsAndShortCircuits(t *testing.T) {
	dir := dirhandletest.New("site",
		dirhandletest.Text("INDEX.html", "first"),
		dirhandletest.Text("index.html", "second"),
		dirhandletest.Text("other.txt", "x"),
	)

	outcome := NewResolver().Resolve(context.Background(), dir)
	assert.Equal(t, "first", outcome.Text)
	assert.Equal(t, 1, dir.Listed())
	assert.Equal(t, []string{"INDEX.html"}, dir.Reads())
}

func TestResolve_IgnoresDirectoriesNamedIndex(t *testing.T) {
	dir := dirhandletest.New("site",
		dirhandletest.Dir("index.html"),
		dirhandletest.Text("index.htm", "close but no"),
	)

	outcome := NewResolver().Resolve(context.Background(), dir)
	assert.Equal(t, NotFound, outcome.Kind)
	assert.Empty(t, dir.Reads())
}

func TestResolve_NotFound(t *testing.T) {
	dir := dirhandletest.New("empty")
	assert.Equal(t, Outcome{Kind: NotFound}, NewResolver().Resolve(context.Background(), dir))
}

func TestResolve_ReadErrors(t *testing.T) {
	boom := errors.New("permission denied")

	tests := []struct {
		name string
		dir  *dirhandletest.Handle
	}{
		{
			name: "read fails",
			dir: dirhandletest.New("site", dirhandletest.File{
				Name: "index.html", Kind: dirhandle.KindFile, ReadErr: boom,
			}),
		},
		{
			name: "enumeration fails",
			dir:  &dirhandletest.Handle{DirName: "site", ListErr: boom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := NewResolver().Resolve(context.Background(), tt.dir)
			assert.Equal(t, ReadError, outcome.Kind)
			assert.ErrorIs(t, outcome.Err, boom)
			assert.Empty(t, outcome.Text)
		})
	}
}

func TestResolve_CancelledContextIsReadError(t *testing.T) {
	dir := dirhandletest.New("site", dirhandletest.Text("index.html", "x"))
	dir.Gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := NewResolver().Resolve(ctx, dir)
	assert.Equal(t, ReadError, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}

func TestResolve_TooLarge(t *testing.T) {
	dir := dirhandletest.New("site", dirhandletest.Text("index.html", strings.Repeat("a", 32)))

	outcome := NewResolver(WithMaxBytes(16)).Resolve(context.Background(), dir)
	assert.Equal(t, ReadError, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrPreviewTooLarge)
}

func TestResolve_TooLargeOnDisk(t *testing.T) {
	root := t.TempDir()
	f, err := os.Create(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(200<<20))
	require.NoError(t, f.Close())

	h, err := dirhandle.Open(root)
	require.NoError(t, err)
	defer h.Close()

	outcome := NewResolver(WithMaxBytes(1024)).Resolve(context.Background(), h)
	assert.Equal(t, ReadError, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrPreviewTooLarge)
	assert.ErrorIs(t, outcome.Err, dirhandle.ErrTooLarge)
}

func TestResolve_NilDirectory(t *testing.T) {
	assert.Equal(t, ReadError, NewResolver().Resolve(context.Background(), nil).Kind)
}

type panickingHandle struct{ *dirhandletest.Handle }

func (panickingHandle) ReadText(context.Context, dirhandle.Entry, int64) (string, error) {
	panic("driver bug")
}

func TestResolve_RecoversFromPanics(t *testing.T) {
	dir := &panickingHandle{Handle: dirhandletest.New("site", dirhandletest.Text("index.html", "x"))}

	var outcome Outcome
	require.NotPanics(t, func() {
		outcome = NewResolver().Resolve(context.Background(), dir)
	})
	assert.Equal(t, ReadError, outcome.Kind)
}

func TestResolve_OnDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Index.HTML"), []byte("<h1>disk</h1>"), 0644))

	h, err := dirhandle.Open(root)
	require.NoError(t, err)
	defer h.Close()

	outcome := NewResolver().Resolve(context.Background(), h)
	assert.Equal(t, Outcome{Kind: Found, Text: "<h1>disk</h1>"}, outcome)
}

func TestStatusSuffix(t *testing.T) {
	assert.Equal(t, " (Previewing index.html)", StatusSuffix(Found))
	assert.Equal(t, ". No index.html found in the root of the selected directory to preview.", StatusSuffix(NotFound))
	assert.Equal(t, ". Error reading index.html for preview.", StatusSuffix(ReadError))
}
