package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modern-go/reflect2"

	"github.com/ipfs-force-community/sophon-connect/types"
)

const defaultVersion = "0.0.0"

var _ types.WalletHandle = (*Adapter)(nil)

type buildCall struct {
	done   chan struct{}
	wallet types.WalletHandle
	err    error
}

// Adapter exposes a wallet whose implementation is only built on the first Enable.
// Until then it answers with its descriptor and default values. Unlike a
// fetch-once module load, a failed build is not cached: the next Enable
// builds again.
type Adapter struct {
	info     types.WalletDescriptor
	provider types.Provider
	build    WalletFactory

	lk       sync.Mutex
	wallet   types.WalletHandle
	inflight *buildCall
}

func NewAdapter(info types.WalletDescriptor, provider types.Provider, build WalletFactory) *Adapter {
	return &Adapter{
		info:     info,
		provider: provider,
		build:    build,
	}
}

func (a *Adapter) delegate() types.WalletHandle {
	a.lk.Lock()
	defer a.lk.Unlock()
	return a.wallet
}

func (a *Adapter) ID() string   { return a.info.ID }
func (a *Adapter) Name() string { return a.info.Name }
func (a *Adapter) Icon() string { return a.info.Icon }

func (a *Adapter) Version() string {
	if w := a.delegate(); w != nil {
		return w.Version()
	}
	return defaultVersion
}

func (a *Adapter) IsConnected() bool {
	if w := a.delegate(); w != nil {
		return w.IsConnected()
	}
	return false
}

func (a *Adapter) Account() *types.Account {
	if w := a.delegate(); w != nil {
		return w.Account()
	}
	return nil
}

func (a *Adapter) Provider() types.Provider {
	if w := a.delegate(); w != nil {
		return w.Provider()
	}
	return nil
}

func (a *Adapter) SelectedAddress() string {
	if w := a.delegate(); w != nil {
		return w.SelectedAddress()
	}
	return ""
}

func (a *Adapter) ChainID() string {
	if w := a.delegate(); w != nil {
		return w.ChainID()
	}
	return ""
}

func (a *Adapter) Request(ctx context.Context, call types.RPCCall) (json.RawMessage, error) {
	w := a.delegate()
	if w == nil {
		return nil, types.ErrNotEnabled
	}
	return w.Request(ctx, call)
}

func (a *Adapter) IsPreauthorized(ctx context.Context) (bool, error) {
	w := a.delegate()
	if w == nil {
		return false, nil
	}
	return w.IsPreauthorized(ctx)
}

func (a *Adapter) On(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	w := a.delegate()
	if w == nil {
		return types.ErrNotEnabled
	}
	return w.On(event, sink)
}

func (a *Adapter) Off(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	w := a.delegate()
	if w == nil {
		return types.ErrNotEnabled
	}
	return w.Off(event, sink)
}

// Enable builds the wallet once, then enables it.
func (a *Adapter) Enable(ctx context.Context, opts types.EnableOptions) ([]string, error) {
	w, err := a.construct(ctx)
	if err != nil {
		return nil, err
	}
	return w.Enable(ctx, opts)
}

// construct shares one build among concurrent callers. The build is not
// canceled with its first caller, and a failure resets the adapter.
func (a *Adapter) construct(ctx context.Context) (types.WalletHandle, error) {
	a.lk.Lock()
	if a.wallet != nil {
		w := a.wallet
		a.lk.Unlock()
		return w, nil
	}
	call := a.inflight
	if call == nil {
		call = &buildCall{done: make(chan struct{})}
		a.inflight = call
		go a.runBuild(context.WithoutCancel(ctx), call)
	}
	a.lk.Unlock()

	select {
	case <-call.done:
		return call.wallet, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) runBuild(ctx context.Context, call *buildCall) {
	wallet, err := a.safeBuild(ctx)
	if err == nil && (wallet == nil || reflect2.IsNil(wallet)) {
		err = fmt.Errorf("build wallet %s returned nothing", a.info.ID)
	}
	if err != nil {
		log.Warnf("build wallet %s failed %v", a.info.ID, err)
		wallet = nil
	}

	a.lk.Lock()
	if err == nil {
		a.wallet = wallet
	}
	a.inflight = nil
	a.lk.Unlock()

	call.wallet, call.err = wallet, err
	close(call.done)
}

func (a *Adapter) safeBuild(ctx context.Context) (wallet types.WalletHandle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build wallet %s panic: %v", a.info.ID, r)
		}
	}()
	if a.build == nil {
		return nil, fmt.Errorf("wallet %s has no builder", a.info.ID)
	}
	return a.build(ctx, a.provider)
}
