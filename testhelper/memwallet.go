package testhelper

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ipfs-force-community/sophon-connect/types"
)

var _ types.WalletHandle = (*MemWallet)(nil)

// MemWallet is an in memory wallet handle with switches for the failure modes the connector must survive.
type MemWallet struct {
	lk sync.Mutex

	id, name, icon, version string
	chainID                 string
	accounts                []string
	connected               bool

	preauthorized   bool
	preauthErr      error
	connectOnEnable bool
	enableErr       error

	lastEnable  types.EnableOptions
	enableCalls atomic.Int32
	preauthCall atomic.Int32
	subs        map[types.WalletEventType][]chan<- *types.WalletEvent
}

func NewMemWallet(id, name string) *MemWallet {
	return &MemWallet{
		id:              id,
		name:            name,
		icon:            "data:image/svg+xml;base64,PHN2Zz48L3N2Zz4=",
		version:         "1.0.0",
		chainID:         "SN_MAIN",
		accounts:        []string{"0x" + id},
		connectOnEnable: true,
		subs:            make(map[types.WalletEventType][]chan<- *types.WalletEvent),
	}
}

func (m *MemWallet) SetPreauthorized(ok bool) *MemWallet {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.preauthorized = ok
	return m
}

func (m *MemWallet) SetPreauthorizeError(err error) *MemWallet {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.preauthErr = err
	return m
}

// SetConnectOnEnable controls whether Enable actually connects.
func (m *MemWallet) SetConnectOnEnable(ok bool) *MemWallet {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.connectOnEnable = ok
	return m
}

func (m *MemWallet) SetEnableError(err error) *MemWallet {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.enableErr = err
	return m
}

func (m *MemWallet) EnableCalls() int {
	return int(m.enableCalls.Load())
}

func (m *MemWallet) PreauthorizeCalls() int {
	return int(m.preauthCall.Load())
}

func (m *MemWallet) LastEnableOptions() types.EnableOptions {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.lastEnable
}

func (m *MemWallet) ID() string      { return m.id }
func (m *MemWallet) Name() string    { return m.name }
func (m *MemWallet) Icon() string    { return m.icon }
func (m *MemWallet) Version() string { return m.version }

func (m *MemWallet) IsConnected() bool {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.connected
}

func (m *MemWallet) Account() *types.Account {
	m.lk.Lock()
	defer m.lk.Unlock()
	if !m.connected {
		return nil
	}
	return &types.Account{Address: m.accounts[0], ChainID: m.chainID}
}

func (m *MemWallet) Provider() types.Provider { return nil }

func (m *MemWallet) SelectedAddress() string {
	if account := m.Account(); account != nil {
		return account.Address
	}
	return ""
}

func (m *MemWallet) ChainID() string {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.chainID
}

func (m *MemWallet) Request(ctx context.Context, call types.RPCCall) (json.RawMessage, error) {
	if !m.IsConnected() {
		return nil, types.ErrNotEnabled
	}
	return json.Marshal(map[string]string{"type": call.Type})
}

func (m *MemWallet) Enable(ctx context.Context, opts types.EnableOptions) ([]string, error) {
	m.enableCalls.Add(1)
	m.lk.Lock()
	m.lastEnable = opts
	if m.enableErr != nil {
		m.lk.Unlock()
		return nil, m.enableErr
	}
	m.connected = m.connectOnEnable
	accounts := append([]string(nil), m.accounts...)
	subs := append([]chan<- *types.WalletEvent(nil), m.subs[types.AccountsChanged]...)
	m.lk.Unlock()

	for _, sink := range subs {
		select {
		case sink <- &types.WalletEvent{Type: types.AccountsChanged, Accounts: accounts}:
		default:
		}
	}
	return accounts, nil
}

func (m *MemWallet) IsPreauthorized(ctx context.Context) (bool, error) {
	m.preauthCall.Add(1)
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.preauthErr != nil {
		return false, m.preauthErr
	}
	return m.preauthorized, nil
}

func (m *MemWallet) On(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	if sink == nil {
		return fmt.Errorf("nil sink")
	}
	m.lk.Lock()
	defer m.lk.Unlock()
	m.subs[event] = append(m.subs[event], sink)
	return nil
}

func (m *MemWallet) Off(event types.WalletEventType, sink chan<- *types.WalletEvent) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	subs := m.subs[event]
	for i, s := range subs {
		if s == sink {
			m.subs[event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
