package types

import (
	"context"
	"encoding/json"
)

// WalletDescriptor is the static metadata of a known wallet, as listed in the registry.
type WalletDescriptor struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// Icon is a URI or a data-URI.
	Icon string `yaml:"icon" json:"icon"`
	// Rank is the declared position used by the recommended ordering, lower first.
	Rank      *int              `yaml:"rank,omitempty" json:"rank,omitempty"`
	Website   string            `yaml:"website,omitempty" json:"website,omitempty"`
	Downloads map[string]string `yaml:"downloads,omitempty" json:"downloads,omitempty"`
}

type Account struct {
	Address string `json:"address"`
	ChainID string `json:"chainId"`
}

// RPCCall is a wallet rpc message without its result.
type RPCCall struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

type WalletEventType string

const (
	AccountsChanged WalletEventType = "accountsChanged"
	NetworkChanged  WalletEventType = "networkChanged"
)

type WalletEvent struct {
	Type     WalletEventType
	Accounts []string
	ChainID  string
}

// WalletHandle is the common capability set every discovered wallet exposes.
// Handles are owned by whoever injected them into the container.
type WalletHandle interface {
	ID() string
	Name() string
	Icon() string
	Version() string

	IsConnected() bool
	// Account returns nil while the wallet has no connected account.
	Account() *Account
	// Provider returns nil while the wallet has no provider.
	Provider() Provider
	SelectedAddress() string
	ChainID() string

	Request(ctx context.Context, call RPCCall) (json.RawMessage, error)
	Enable(ctx context.Context, opts EnableOptions) ([]string, error)
	IsPreauthorized(ctx context.Context) (bool, error)

	// On and Off use the sink channel as the subscription identity.
	On(event WalletEventType, sink chan<- *WalletEvent) error
	Off(event WalletEventType, sink chan<- *WalletEvent) error
}

// WalletInfo is the serializable view of a wallet handle or descriptor.
type WalletInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Icon      string            `json:"icon"`
	Version   string            `json:"version,omitempty"`
	Connected bool              `json:"connected"`
	Account   *Account          `json:"account,omitempty"`
	Rank      *int              `json:"rank,omitempty"`
	Website   string            `json:"website,omitempty"`
	Downloads map[string]string `json:"downloads,omitempty"`
}

func WalletInfoOf(w WalletHandle) *WalletInfo {
	return &WalletInfo{
		ID:        w.ID(),
		Name:      w.Name(),
		Icon:      w.Icon(),
		Version:   w.Version(),
		Connected: w.IsConnected(),
		Account:   w.Account(),
	}
}

func DescriptorInfo(d WalletDescriptor) *WalletInfo {
	return &WalletInfo{
		ID:        d.ID,
		Name:      d.Name,
		Icon:      d.Icon,
		Rank:      d.Rank,
		Website:   d.Website,
		Downloads: d.Downloads,
	}
}
