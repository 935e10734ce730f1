// Package connect discovers the wallets injected into a host container,
// remembers the last one connected and reconnects to it while it stays
// pre-authorized.
package connect

import (
	"context"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/sophon-connect/bridge"
	"github.com/ipfs-force-community/sophon-connect/metrics"
	"github.com/ipfs-force-community/sophon-connect/pipeline"
	"github.com/ipfs-force-community/sophon-connect/registry"
	"github.com/ipfs-force-community/sophon-connect/scanner"
	"github.com/ipfs-force-community/sophon-connect/snapwallet"
	"github.com/ipfs-force-community/sophon-connect/storage"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("connect")

// LastWalletNamespace is the store namespace of the last connected wallet id.
const LastWalletNamespace = "gsw-last"

type Options struct {
	// Host is the container wallets are injected into, required.
	Host       window.Host
	Classifier scanner.Classifier
	Registry   *registry.Registry
	// StoreFactory opens the store of the last connected wallet, in memory by default.
	StoreFactory storage.Factory
	// Bridges are injected in the background, nil means the MetaMask bridge only.
	Bridges []bridge.Spec
	Loader  bridge.ModuleLoader
}

// DefaultLoader serves the snap wallet under its remote name.
func DefaultLoader() *bridge.StaticLoader {
	return bridge.NewStaticLoader().Register(snapwallet.RemoteName, snapwallet.Factory(snapwallet.DefaultSnapVersion))
}

type Connector struct {
	host     window.Host
	classify scanner.Classifier
	reg      *registry.Registry
	store    storage.Store
	bridges  []bridge.Spec
	loader   bridge.ModuleLoader

	ready chan struct{}

	stateLk sync.RWMutex
	state   State
}

func New(ctx context.Context, opts Options) (*Connector, error) {
	if opts.Host == nil || reflect2.IsNil(opts.Host) {
		return nil, errors.New("connector needs a host container")
	}
	if opts.Classifier == nil {
		opts.Classifier = scanner.IsWalletHandle
	}
	if opts.Registry == nil {
		opts.Registry = registry.Default()
	}
	if opts.StoreFactory == nil {
		opts.StoreFactory = storage.MemFactory()
	}
	if opts.Bridges == nil {
		opts.Bridges = []bridge.Spec{bridge.MetaMaskSpec()}
	}
	if opts.Loader == nil {
		opts.Loader = DefaultLoader()
	}

	store, err := opts.StoreFactory(LastWalletNamespace)
	if err != nil {
		return nil, errors.Wrap(err, "open last wallet store")
	}

	c := &Connector{
		host:     opts.Host,
		classify: opts.Classifier,
		reg:      opts.Registry,
		store:    store,
		bridges:  opts.Bridges,
		loader:   opts.Loader,
		ready:    make(chan struct{}),
		state:    StateIdle,
	}
	go c.injectBridges(ctx)
	return c, nil
}

func (c *Connector) injectBridges(ctx context.Context) {
	defer close(c.ready)
	var wg sync.WaitGroup
	for _, spec := range c.bridges {
		wg.Add(1)
		go func(spec bridge.Spec) {
			defer wg.Done()
			if bridge.Inject(ctx, c.host, c.reg, c.loader, spec) {
				log.Infof("wallet %s bridged", spec.WalletID)
			}
		}(spec)
	}
	wg.Wait()
}

// WaitReady blocks until every bridge finished its injection attempt.
func (c *Connector) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connector) Registry() *registry.Registry {
	return c.reg
}

func (c *Connector) scan(ctx context.Context) []types.WalletHandle {
	wallets := scanner.Scan(c.host, c.classify)
	stats.Record(ctx, metrics.ScanWallets.M(int64(len(wallets))))
	return wallets
}

func (c *Connector) handleKey(w types.WalletHandle) pipeline.SortKey {
	rank, ranked := c.reg.Rank(w.ID())
	return pipeline.SortKey{ID: w.ID(), Name: w.Name(), Rank: rank, Ranked: ranked}
}

func walletID(w types.WalletHandle) string { return w.ID() }

// GetAvailableWallets returns the wallets currently in the container.
func (c *Connector) GetAvailableWallets(ctx context.Context, opts types.DiscoveryOptions) []types.WalletHandle {
	wallets := pipeline.FilterBy(c.scan(ctx), opts, walletID)
	return pipeline.SortBy(wallets, opts.Sort, c.handleKey)
}

// GetPreAuthorizedWallets returns the wallets in the container that may be connected without a prompt.
func (c *Connector) GetPreAuthorizedWallets(ctx context.Context, opts types.DiscoveryOptions) []types.WalletHandle {
	wallets := pipeline.FilterByPreAuthorized(ctx, c.scan(ctx))
	wallets = pipeline.FilterBy(wallets, opts, walletID)
	return pipeline.SortBy(wallets, opts.Sort, c.handleKey)
}

// GetDiscoveryWallets returns the known wallets a user could install.
func (c *Connector) GetDiscoveryWallets(_ context.Context, opts types.DiscoveryOptions) []types.WalletDescriptor {
	descriptors := pipeline.FilterBy(c.reg.All(), opts, func(d types.WalletDescriptor) string { return d.ID })
	return pipeline.SortBy(descriptors, opts.Sort, func(d types.WalletDescriptor) pipeline.SortKey {
		key := pipeline.SortKey{ID: d.ID, Name: d.Name}
		if d.Rank != nil {
			key.Rank, key.Ranked = *d.Rank, true
		}
		return key
	})
}

// GetLastConnectedWallet returns the remembered wallet if it is still in the
// container and pre-authorized. A remembered wallet that lost its
// authorization is forgotten, one that is merely absent is kept.
func (c *Connector) GetLastConnectedWallet(ctx context.Context) (types.WalletHandle, error) {
	id, ok, err := c.store.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read last wallet")
	}
	if !ok {
		return nil, nil
	}

	prev := c.setState(StateResolving)
	resolved := prev
	if prev == StateResolving {
		resolved = StateIdle
	}
	defer c.setState(resolved)

	var wallet types.WalletHandle
	for _, w := range c.scan(ctx) {
		if w.ID() == id {
			wallet = w
			break
		}
	}
	if wallet == nil {
		log.Debugf("last wallet %s not available", id)
		return nil, nil
	}

	if len(pipeline.FilterByPreAuthorized(ctx, []types.WalletHandle{wallet})) == 0 {
		if err := c.store.Delete(ctx); err != nil {
			return nil, errors.Wrap(err, "forget last wallet")
		}
		_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletIDKey, id)}, metrics.LastWalletClean.M(1))
		log.Infof("forget last wallet %s, it is no longer pre-authorized", id)
		return nil, nil
	}
	return wallet, nil
}

// Enable connects wallet and remembers it. The newest protocol version is
// requested unless opts pins one.
func (c *Connector) Enable(ctx context.Context, wallet types.WalletHandle, opts ...types.EnableOptions) (types.WalletHandle, error) {
	if wallet == nil || reflect2.IsNil(wallet) {
		return nil, errors.New("enable nil wallet")
	}
	enableOpts := types.EnableOptions{StarknetVersion: types.StarknetV5}
	if len(opts) > 0 && opts[0].StarknetVersion != "" {
		enableOpts = opts[0]
	}

	id := wallet.ID()
	start := time.Now()
	_, err := wallet.Enable(ctx, enableOpts)
	if err == nil && !wallet.IsConnected() {
		err = &types.ConnectionError{WalletID: id}
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletIDKey, id), tag.Upsert(metrics.ResultKey, metrics.ResultTag(err))},
		metrics.Enable.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		if types.IsConnectionError(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "enable wallet %s", id)
	}

	if err := c.store.Set(ctx, id); err != nil {
		return nil, errors.Wrap(err, "remember last wallet")
	}
	c.setState(StateConnected)
	log.Infow("wallet connected", "wallet", id, "version", enableOpts.StarknetVersion)
	return wallet, nil
}

// Disconnect only forgets the last wallet when asked to, the wallet itself is untouched.
func (c *Connector) Disconnect(ctx context.Context, opts types.DisconnectOptions) error {
	if opts.ClearLastWallet {
		if err := c.store.Delete(ctx); err != nil {
			return errors.Wrap(err, "forget last wallet")
		}
	}
	c.setState(StateDisconnected)
	return nil
}
