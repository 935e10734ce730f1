package api

import (
	"context"

	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/types"
)

// IWalletAPI exposes the connector to processes outside the host.
type IWalletAPI interface {
	AvailableWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)
	PreAuthorizedWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)
	DiscoveryWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)
	LastConnectedWallet(ctx context.Context) (*types.WalletInfo, error)
	Enable(ctx context.Context, walletID string, opts types.EnableOptions) (*types.WalletInfo, error)
	Disconnect(ctx context.Context, opts types.DisconnectOptions) error
}

type IConnectAPI interface {
	IWalletAPI
	providerevent.IProviderEvent
	providerevent.IProviderEventAPI
}

var _ IConnectAPI = (*ConnectStruct)(nil)

// ConnectStruct is the permissioned view of IConnectAPI, also used as its RPC client.
type ConnectStruct struct {
	IWalletStruct
	IProviderEventStruct
}

type IWalletStruct struct {
	Internal struct {
		AvailableWallets     func(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)             `perm:"read"`
		PreAuthorizedWallets func(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)             `perm:"read"`
		DiscoveryWallets     func(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error)             `perm:"read"`
		LastConnectedWallet  func(ctx context.Context) (*types.WalletInfo, error)                                            `perm:"read"`
		Enable               func(ctx context.Context, walletID string, opts types.EnableOptions) (*types.WalletInfo, error) `perm:"write"`
		Disconnect           func(ctx context.Context, opts types.DisconnectOptions) error                                   `perm:"write"`
	}
}

type IProviderEventStruct struct {
	Internal struct {
		ListProviders func(ctx context.Context) ([]*types.ProviderState, error) `perm:"admin"`

		ListenProviderEvent   func(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error) `perm:"write"`
		ResponseProviderEvent func(ctx context.Context, resp *types.ResponseEvent) error                                              `perm:"write"`
	}
}

func (s *IWalletStruct) AvailableWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	return s.Internal.AvailableWallets(ctx, opts)
}

func (s *IWalletStruct) PreAuthorizedWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	return s.Internal.PreAuthorizedWallets(ctx, opts)
}

func (s *IWalletStruct) DiscoveryWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	return s.Internal.DiscoveryWallets(ctx, opts)
}

func (s *IWalletStruct) LastConnectedWallet(ctx context.Context) (*types.WalletInfo, error) {
	return s.Internal.LastConnectedWallet(ctx)
}

func (s *IWalletStruct) Enable(ctx context.Context, walletID string, opts types.EnableOptions) (*types.WalletInfo, error) {
	return s.Internal.Enable(ctx, walletID, opts)
}

func (s *IWalletStruct) Disconnect(ctx context.Context, opts types.DisconnectOptions) error {
	return s.Internal.Disconnect(ctx, opts)
}

func (s *IProviderEventStruct) ListProviders(ctx context.Context) ([]*types.ProviderState, error) {
	return s.Internal.ListProviders(ctx)
}

func (s *IProviderEventStruct) ListenProviderEvent(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenProviderEvent(ctx, info, endpoint)
}

func (s *IProviderEventStruct) ResponseProviderEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseProviderEvent(ctx, resp)
}
