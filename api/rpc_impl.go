package api

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ipfs-force-community/sophon-connect/connect"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/types"
)

var _ IConnectAPI = (*ConnectAPIImpl)(nil)

type ConnectAPIImpl struct {
	providerevent.IProviderEventAPI
	pe *providerevent.ProviderEventStream

	conn *connect.Connector
}

func NewConnectAPIImpl(conn *connect.Connector, pe *providerevent.ProviderEventStream) *ConnectAPIImpl {
	return &ConnectAPIImpl{
		IProviderEventAPI: pe,
		pe:                pe,
		conn:              conn,
	}
}

func (c *ConnectAPIImpl) info(w types.WalletHandle) *types.WalletInfo {
	info := types.WalletInfoOf(w)
	if d, ok := c.conn.Registry().Find(w.ID()); ok {
		info.Rank = d.Rank
		info.Website = d.Website
		info.Downloads = d.Downloads
	}
	return info
}

func (c *ConnectAPIImpl) infos(wallets []types.WalletHandle) []*types.WalletInfo {
	res := make([]*types.WalletInfo, 0, len(wallets))
	for _, w := range wallets {
		res = append(res, c.info(w))
	}
	return res
}

func (c *ConnectAPIImpl) AvailableWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	return c.infos(c.conn.GetAvailableWallets(ctx, opts)), nil
}

func (c *ConnectAPIImpl) PreAuthorizedWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	return c.infos(c.conn.GetPreAuthorizedWallets(ctx, opts)), nil
}

func (c *ConnectAPIImpl) DiscoveryWallets(ctx context.Context, opts types.DiscoveryOptions) ([]*types.WalletInfo, error) {
	descriptors := c.conn.GetDiscoveryWallets(ctx, opts)
	res := make([]*types.WalletInfo, 0, len(descriptors))
	for _, d := range descriptors {
		res = append(res, types.DescriptorInfo(d))
	}
	return res, nil
}

// LastConnectedWallet returns nil when there is no wallet to reconnect to.
func (c *ConnectAPIImpl) LastConnectedWallet(ctx context.Context) (*types.WalletInfo, error) {
	w, err := c.conn.GetLastConnectedWallet(ctx)
	if err != nil || w == nil {
		return nil, err
	}
	return c.info(w), nil
}

func (c *ConnectAPIImpl) Enable(ctx context.Context, walletID string, opts types.EnableOptions) (*types.WalletInfo, error) {
	for _, w := range c.conn.GetAvailableWallets(ctx, types.DiscoveryOptions{}) {
		if w.ID() != walletID {
			continue
		}
		connected, err := c.conn.Enable(ctx, w, opts)
		if err != nil {
			return nil, err
		}
		return c.info(connected), nil
	}

	if _, known := c.conn.Registry().Find(walletID); known {
		return nil, errors.Errorf("wallet %s is not installed", walletID)
	}
	if suggest := c.conn.Registry().Suggest(walletID); suggest != "" {
		return nil, errors.Errorf("wallet %s not available, did you mean %s", walletID, suggest)
	}
	return nil, errors.Errorf("wallet %s not available", walletID)
}

func (c *ConnectAPIImpl) Disconnect(ctx context.Context, opts types.DisconnectOptions) error {
	return c.conn.Disconnect(ctx, opts)
}

func (c *ConnectAPIImpl) ListProviders(ctx context.Context) ([]*types.ProviderState, error) {
	return c.pe.ListProviders(ctx)
}
