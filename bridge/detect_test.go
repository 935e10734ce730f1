package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/testhelper"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

func startAnnouncer(t *testing.T, w *window.Window, rdns string, silent bool) *testhelper.MockAnnouncer {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	announcer := &testhelper.MockAnnouncer{
		Info:     types.ProviderInfo{UUID: "uuid-" + rdns, Name: rdns, RDNS: rdns},
		Provider: testhelper.NewMemProvider(),
		Silent:   silent,
	}
	require.NoError(t, announcer.Start(ctx, w))
	return announcer
}

// stallRequests registers a request listener that never reads.
func stallRequests(t *testing.T, w *window.Window) {
	sub, err := w.AddListener(window.EventRequestProvider, make(chan *window.Event))
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)
}

func TestDetectProvider(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", false)

		provider, err := DetectProvider(context.Background(), w, RDNSMatcher("io.metamask"), time.Second)
		require.NoError(t, err)
		require.Equal(t, announcer.Provider, provider)
	})

	t.Run("other providers ignored", func(t *testing.T) {
		w := window.New()
		startAnnouncer(t, w, "com.other", false)
		flask := startAnnouncer(t, w, "io.metamask.flask", false)

		provider, err := DetectProvider(context.Background(), w, RDNSMatcher("io.metamask", "io.metamask.flask"), time.Second)
		require.NoError(t, err)
		require.Equal(t, flask.Provider, provider)
	})

	t.Run("timeout", func(t *testing.T) {
		w := window.New()
		startAnnouncer(t, w, "com.other", false)

		start := time.Now()
		provider, err := DetectProvider(context.Background(), w, RDNSMatcher("io.metamask"), 50*time.Millisecond)
		require.NoError(t, err)
		require.Nil(t, provider)
		require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("timeout with stalled listener", func(t *testing.T) {
		w := window.New()
		stallRequests(t, w)

		start := time.Now()
		provider, err := DetectProvider(context.Background(), w, RDNSMatcher("io.metamask"), 50*time.Millisecond)
		require.NoError(t, err)
		require.Nil(t, provider)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("canceled with stalled listener", func(t *testing.T) {
		w := window.New()
		stallRequests(t, w)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)
		start := time.Now()
		_, err := DetectProvider(ctx, w, RDNSMatcher("io.metamask"), 10*time.Second)
		require.ErrorIs(t, err, context.Canceled)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("no events", func(t *testing.T) {
		_, err := DetectProvider(context.Background(), nil, RDNSMatcher("io.metamask"), time.Second)
		require.ErrorIs(t, err, types.ErrEventsUnsupported)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := DetectProvider(ctx, window.New(), RDNSMatcher("io.metamask"), time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRDNSMatcher(t *testing.T) {
	match := RDNSMatcher("io.metamask")
	require.True(t, match(&types.AnnounceDetail{Info: types.ProviderInfo{RDNS: "io.metamask"}, Provider: testhelper.NewMemProvider()}))
	require.False(t, match(&types.AnnounceDetail{Info: types.ProviderInfo{RDNS: "io.metamask"}}))

	var typedNil *testhelper.MemProvider
	require.False(t, match(&types.AnnounceDetail{Info: types.ProviderInfo{RDNS: "io.metamask"}, Provider: typedNil}))
	require.False(t, match(&types.AnnounceDetail{Info: types.ProviderInfo{RDNS: "com.other"}, Provider: testhelper.NewMemProvider()}))
	require.False(t, match(nil))
}

func TestWaitForProvider(t *testing.T) {
	t.Run("attempts", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", true)

		provider := WaitForProvider(context.Background(), w, RDNSMatcher("io.metamask"), types.DetectConfig{
			Timeout: 20 * time.Millisecond,
			Retries: 2,
		})
		require.Nil(t, provider)
		require.Eventually(t, func() bool {
			return announcer.Requests() == 3
		}, time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 3, announcer.Requests())
	})

	t.Run("found", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", false)

		provider := WaitForProvider(context.Background(), w, RDNSMatcher("io.metamask"), types.DefaultDetectConfig())
		require.Equal(t, announcer.Provider, provider)
		require.Equal(t, 1, announcer.Requests())
	})

	t.Run("no events", func(t *testing.T) {
		require.Nil(t, WaitForProvider(context.Background(), nil, RDNSMatcher("io.metamask"), types.DetectConfig{Retries: 3}))
	})

	t.Run("stalled listener", func(t *testing.T) {
		w := window.New()
		stallRequests(t, w)

		start := time.Now()
		provider := WaitForProvider(context.Background(), w, RDNSMatcher("io.metamask"), types.DetectConfig{
			Timeout: 20 * time.Millisecond,
			Retries: 2,
		})
		require.Nil(t, provider)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("stops when canceled", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", true)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		provider := WaitForProvider(ctx, w, RDNSMatcher("io.metamask"), types.DetectConfig{
			Timeout: time.Second,
			Retries: 5,
		})
		require.Nil(t, provider)
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 1, announcer.Requests())
	})
}
