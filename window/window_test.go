package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowProperties(t *testing.T) {
	proto := New()
	proto.Set("inherited", 1)

	w := NewWithPrototype(proto)
	w.Set("a", 1)
	w.DefineHidden("hidden", 2)
	w.DefineGetter("lazy", func() (any, error) { return 3, nil })
	w.DefineGetter("broken", func() (any, error) { return nil, errors.New("mock error") })
	w.DefineGetter("panic", func() (any, error) { panic("boom") })
	w.Set("a", 4)

	require.Equal(t, []string{"a", "lazy", "broken", "panic"}, w.OwnKeys())

	v, err := w.Get("a")
	require.NoError(t, err)
	require.Equal(t, 4, v)

	v, err = w.Get("inherited")
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.False(t, w.HasOwn("inherited"))

	v, err = w.Get("lazy")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = w.Get("broken")
	require.EqualError(t, err, "mock error")
	_, err = w.Get("panic")
	require.Error(t, err)

	v, err = w.Get("missing")
	require.NoError(t, err)
	require.Nil(t, v)

	require.False(t, w.SetIfAbsent("a", 5))
	require.True(t, w.SetIfAbsent("b", 5))
	require.True(t, w.HasOwn("b"))

	w.Delete("a")
	require.False(t, w.HasOwn("a"))
	require.Equal(t, []string{"lazy", "broken", "panic", "b"}, w.OwnKeys())
}

func TestWindowEvents(t *testing.T) {
	w := New()
	ch := make(chan *Event, 1)
	sub, err := w.AddListener(EventRequestProvider, ch)
	require.NoError(t, err)

	other := make(chan *Event, 1)
	otherSub, err := w.AddListener(EventAnnounceProvider, other)
	require.NoError(t, err)
	defer otherSub.Unsubscribe()

	require.NoError(t, w.Dispatch(EventRequestProvider, NewEvent(EventRequestProvider, nil)))
	select {
	case ev := <-ch:
		require.Equal(t, EventRequestProvider, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	require.Len(t, other, 0)

	sub.Unsubscribe()
	// nobody listens anymore, dispatch must not block
	require.NoError(t, w.Dispatch(EventRequestProvider, &Event{}))
	require.Len(t, ch, 0)
}
