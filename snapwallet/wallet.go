// Package snapwallet is the wallet built on top of a detected MetaMask
// provider: every call is forwarded to the Starknet snap installed in it.
package snapwallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/sophon-connect/bridge"
	"github.com/ipfs-force-community/sophon-connect/types"
)

var log = logging.Logger("snap_wallet")

const (
	SnapID             = "npm:@consensys/starknet-snap"
	DefaultSnapVersion = "*"
	// RemoteName is the remote module name this package is registered under.
	RemoteName = "MetaMaskStarknetSnapWallet"

	MainnetChainID = "0x534e5f4d41494e"
)

const (
	methodRequestSnaps = "wallet_requestSnaps"
	methodGetSnaps     = "wallet_getSnaps"
	methodInvokeSnap   = "wallet_invokeSnap"

	snapRecoverDefaultAccount = "starkNet_recoverDefaultAccount"
)

type snapState struct {
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
	Blocked bool   `json:"blocked"`
}

type snapRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type invokeParams struct {
	SnapID  string      `json:"snapId"`
	Request snapRequest `json:"request"`
}

type recoveredAccount struct {
	Address string `json:"address"`
}

var _ types.WalletHandle = (*Wallet)(nil)

type Wallet struct {
	provider    types.Provider
	snapVersion string
	chainID     string

	lk        sync.RWMutex
	installed string
	account   *types.Account
	subs      map[types.WalletEventType][]chan<- *types.WalletEvent
}

func New(provider types.Provider, snapVersion string) *Wallet {
	if snapVersion == "" {
		snapVersion = DefaultSnapVersion
	}
	return &Wallet{
		provider:    provider,
		snapVersion: snapVersion,
		chainID:     MainnetChainID,
		subs:        make(map[types.WalletEventType][]chan<- *types.WalletEvent),
	}
}

// Factory builds snap wallets for the bridge.
func Factory(snapVersion string) bridge.WalletFactory {
	return func(_ context.Context, provider types.Provider) (types.WalletHandle, error) {
		if provider == nil {
			return nil, fmt.Errorf("snap wallet needs a provider")
		}
		return New(provider, snapVersion), nil
	}
}

func (w *Wallet) ID() string   { return "metamask" }
func (w *Wallet) Name() string { return "MetaMask" }
func (w *Wallet) Icon() string { return "" }

func (w *Wallet) Version() string {
	w.lk.RLock()
	defer w.lk.RUnlock()
	if w.installed == "" {
		return "0.0.0"
	}
	return w.installed
}

func (w *Wallet) IsConnected() bool {
	w.lk.RLock()
	defer w.lk.RUnlock()
	return w.account != nil
}

func (w *Wallet) Account() *types.Account {
	w.lk.RLock()
	defer w.lk.RUnlock()
	if w.account == nil {
		return nil
	}
	account := *w.account
	return &account
}

func (w *Wallet) Provider() types.Provider { return w.provider }

func (w *Wallet) SelectedAddress() string {
	if account := w.Account(); account != nil {
		return account.Address
	}
	return ""
}

func (w *Wallet) ChainID() string { return w.chainID }

// Enable installs the snap if needed and recovers its default account.
func (w *Wallet) Enable(ctx context.Context, opts types.EnableOptions) ([]string, error) {
	params, err := json.Marshal(map[string]map[string]string{SnapID: {"version": w.snapVersion}})
	if err != nil {
		return nil, err
	}
	res, err := w.provider.Request(ctx, methodRequestSnaps, params)
	if err != nil {
		return nil, fmt.Errorf("request snap: %w", err)
	}
	var snaps map[string]snapState
	if err := json.Unmarshal(res, &snaps); err != nil {
		return nil, fmt.Errorf("decode snaps: %w", err)
	}
	snap, ok := snaps[SnapID]
	if !ok || snap.Blocked {
		return nil, fmt.Errorf("snap %s not installed", SnapID)
	}

	recoverParams, err := json.Marshal(map[string]string{"chainId": w.chainID})
	if err != nil {
		return nil, err
	}
	res, err = w.invokeSnap(ctx, snapRecoverDefaultAccount, recoverParams)
	if err != nil {
		return nil, fmt.Errorf("recover account: %w", err)
	}
	var recovered recoveredAccount
	if err := json.Unmarshal(res, &recovered); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if recovered.Address == "" {
		return nil, fmt.Errorf("snap returned no account")
	}

	w.lk.Lock()
	w.installed = snap.Version
	w.account = &types.Account{Address: recovered.Address, ChainID: w.chainID}
	subs := append([]chan<- *types.WalletEvent(nil), w.subs[types.AccountsChanged]...)
	w.lk.Unlock()

	log.Infof("snap %s@%s enabled for starknet %s", SnapID, snap.Version, opts.StarknetVersion)
	accounts := []string{recovered.Address}
	for _, sink := range subs {
		select {
		case sink <- &types.WalletEvent{Type: types.AccountsChanged, Accounts: accounts, ChainID: w.chainID}:
		default:
			log.Warnf("drop accountsChanged event, subscriber is not reading")
		}
	}
	return accounts, nil
}

func (w *Wallet) IsPreauthorized(ctx context.Context) (bool, error) {
	res, err := w.provider.Request(ctx, methodGetSnaps, nil)
	if err != nil {
		return false, err
	}
	var snaps map[string]snapState
	if err := json.Unmarshal(res, &snaps); err != nil {
		return false, err
	}
	snap, ok := snaps[SnapID]
	return ok && snap.Enabled && !snap.Blocked, nil
}

// Request forwards call to the snap.
func (w *Wallet) Request(ctx context.Context, call types.RPCCall) (json.RawMessage, error) {
	if !w.IsConnected() {
		return nil, types.ErrNotEnabled
	}
	return w.invokeSnap(ctx, call.Type, call.Params)
}

func (w *Wallet) invokeSnap(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	payload, err := json.Marshal(invokeParams{
		SnapID:  SnapID,
		Request: snapRequest{Method: method, Params: params},
	})
	if err != nil {
		return nil, err
	}
	return w.provider.Request(ctx, methodInvokeSnap, payload)
}

func (w *Wallet) On(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	if sink == nil {
		return fmt.Errorf("nil sink")
	}
	w.lk.Lock()
	defer w.lk.Unlock()
	w.subs[event] = append(w.subs[event], sink)
	return nil
}

func (w *Wallet) Off(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	w.lk.Lock()
	defer w.lk.Unlock()
	subs := w.subs[event]
	for i, s := range subs {
		if s == sink {
			w.subs[event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
