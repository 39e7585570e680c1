package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "warn", Warning.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", Level(42).String())
}

func TestQueue_ListenDeliversInOrder(t *testing.T) {
	q := NewQueue(4)
	q.Notify(Notification{Level: Info, Title: "first"})
	q.Notify(Notification{Level: Error, Title: "second"})
	require.Equal(t, 2, q.Pending())

	msg := q.Listen()()
	assert.Equal(t, Msg{Notification: Notification{Level: Info, Title: "first"}}, msg)

	msg = q.Listen()()
	assert.Equal(t, "second", msg.(Msg).Title)
	assert.Equal(t, 0, q.Pending())
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(1)
	q.Notify(Notification{Title: "kept"})
	q.Notify(Notification{Title: "dropped"})

	assert.Equal(t, 1, q.Pending())
	assert.Equal(t, "kept", q.Listen()().(Msg).Title)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(Notification{Level: Warning, Title: "a"})
	r.Notify(Notification{Level: Info, Title: "b"})

	assert.Equal(t, []string{"a", "b"}, r.Titles())
	assert.Len(t, r.All(), 2)

	r.Reset()
	assert.Empty(t, r.All())
}

func TestFuncAndDiscard(t *testing.T) {
	var got Notification
	Func(func(n Notification) { got = n }).Notify(Notification{Title: "x"})
	assert.Equal(t, "x", got.Title)

	assert.NotPanics(t, func() { Discard.Notify(Notification{Title: "y"}) })
}
