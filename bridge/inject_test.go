package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/registry"
	"github.com/ipfs-force-community/sophon-connect/testhelper"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

func fastSpec() Spec {
	spec := MetaMaskSpec()
	spec.Detect = types.DetectConfig{Timeout: 50 * time.Millisecond, Retries: 0}
	return spec
}

func TestMetaMaskSpec(t *testing.T) {
	spec := MetaMaskSpec()
	require.Equal(t, "metamask", spec.WalletID)
	require.Equal(t, "starknet_metamask", spec.Key)
	require.Equal(t, []string{"io.metamask", "io.metamask.flask"}, spec.RDNS)
	require.Equal(t, "MetaMaskStarknetSnapWallet", spec.Remote.Name)
	require.Equal(t, types.DefaultDetectConfig(), spec.Detect)
}

func TestInject(t *testing.T) {
	reg := registry.Default()

	t.Run("installs adapter", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", false)

		var loads atomic.Int32
		loader := NewStaticLoader().Register("MetaMaskStarknetSnapWallet", func(ctx context.Context, p types.Provider) (types.WalletHandle, error) {
			loads.Add(1)
			require.Equal(t, announcer.Provider, p)
			return testhelper.NewMemWallet("metamask", "MetaMask"), nil
		})

		require.True(t, Inject(context.Background(), w, reg, loader, fastSpec()))
		require.Equal(t, []string{"starknet_metamask"}, w.OwnKeys())

		v, err := w.Get("starknet_metamask")
		require.NoError(t, err)
		adapter, ok := v.(*Adapter)
		require.True(t, ok)
		require.Equal(t, "metamask", adapter.ID())
		require.Equal(t, "MetaMask", adapter.Name())
		require.Zero(t, loads.Load())

		_, err = adapter.Enable(context.Background(), types.EnableOptions{})
		require.NoError(t, err)
		require.Equal(t, int32(1), loads.Load())

		// idempotent
		require.False(t, Inject(context.Background(), w, reg, loader, fastSpec()))
		v2, err := w.Get("starknet_metamask")
		require.NoError(t, err)
		require.Same(t, adapter, v2)
	})

	t.Run("key occupied", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", false)
		w.Set("starknet_metamask", "someone else")

		require.False(t, Inject(context.Background(), w, reg, NewStaticLoader(), fastSpec()))
		require.Zero(t, announcer.Requests())
	})

	t.Run("unknown wallet", func(t *testing.T) {
		w := window.New()
		announcer := startAnnouncer(t, w, "io.metamask", false)
		spec := fastSpec()
		spec.WalletID = "unknown"

		require.False(t, Inject(context.Background(), w, reg, NewStaticLoader(), spec))
		require.Zero(t, announcer.Requests())
		require.False(t, w.HasOwn(spec.Key))
	})

	t.Run("no provider", func(t *testing.T) {
		w := window.New()
		require.False(t, Inject(context.Background(), w, reg, NewStaticLoader(), fastSpec()))
		require.False(t, w.HasOwn("starknet_metamask"))
	})

	t.Run("concurrent injection installs once", func(t *testing.T) {
		w := window.New()
		startAnnouncer(t, w, "io.metamask.flask", false)

		var wg sync.WaitGroup
		var installed atomic.Int32
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if Inject(context.Background(), w, reg, NewStaticLoader(), fastSpec()) {
					installed.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), installed.Load())
		require.True(t, w.HasOwn("starknet_metamask"))
	})

	t.Run("loader failure surfaces on enable", func(t *testing.T) {
		w := window.New()
		startAnnouncer(t, w, "io.metamask", false)
		require.True(t, Inject(context.Background(), w, reg, NewStaticLoader(), fastSpec()))

		v, err := w.Get("starknet_metamask")
		require.NoError(t, err)
		_, err = v.(types.WalletHandle).Enable(context.Background(), types.EnableOptions{})
		require.ErrorContains(t, err, "load MetaMaskStarknetSnapWallet")
	})
}
