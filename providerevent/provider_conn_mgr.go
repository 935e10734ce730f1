package providerevent

import (
	"context"
	"fmt"
	"sync"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/sophon-connect/types"
)

// Dialer connects to the provider served at endpoint.
type Dialer func(ctx context.Context, endpoint string) (types.Provider, jsonrpc.ClientCloser, error)

type providerChannelInfo struct {
	*types.ChannelInfo
	info     types.ProviderInfo
	endpoint string

	lk       sync.Mutex
	provider types.Provider
	closer   jsonrpc.ClientCloser
}

func newProviderChannelInfo(channel *types.ChannelInfo, info types.ProviderInfo, endpoint string) *providerChannelInfo {
	return &providerChannelInfo{ChannelInfo: channel, info: info, endpoint: endpoint}
}

// dialOnce connects to the provider on first use and keeps the connection for the channel lifetime.
func (c *providerChannelInfo) dialOnce(ctx context.Context, dial Dialer) (types.Provider, error) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	provider, closer, err := dial(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial provider %s at %s: %w", c.info.RDNS, c.endpoint, err)
	}
	c.provider, c.closer = provider, closer
	return provider, nil
}

func (c *providerChannelInfo) close() {
	c.lk.Lock()
	defer c.lk.Unlock()
	if c.closer != nil {
		c.closer()
	}
	c.provider, c.closer = nil, nil
}

type providerConnMgr struct {
	lk    sync.Mutex
	conns map[uuid.UUID]*providerChannelInfo
	// order keeps registration order so requests reach providers deterministically
	order []uuid.UUID
}

func newProviderConnMgr() *providerConnMgr {
	return &providerConnMgr{conns: make(map[uuid.UUID]*providerChannelInfo)}
}

func (m *providerConnMgr) addConn(channel *providerChannelInfo) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.conns[channel.ChannelID] = channel
	m.order = append(m.order, channel.ChannelID)
	log.Infow("add provider connection", "channel", channel.ChannelID.String(), "rdns", channel.info.RDNS, "endpoint", channel.endpoint)
}

func (m *providerConnMgr) removeConn(channel *providerChannelInfo) {
	m.lk.Lock()
	defer m.lk.Unlock()
	delete(m.conns, channel.ChannelID)
	for i, id := range m.order {
		if id == channel.ChannelID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	channel.close()
	log.Infof("provider %s remove connection %s", channel.info.RDNS, channel.ChannelID)
}

func (m *providerConnMgr) channels() []*providerChannelInfo {
	m.lk.Lock()
	defer m.lk.Unlock()
	res := make([]*providerChannelInfo, 0, len(m.order))
	for _, id := range m.order {
		res = append(res, m.conns[id])
	}
	return res
}

// listProviders groups the live connections by provider uuid.
func (m *providerConnMgr) listProviders() []*types.ProviderState {
	states := make([]*types.ProviderState, 0)
	byUUID := make(map[string]*types.ProviderState)
	for _, channel := range m.channels() {
		state, ok := byUUID[channel.info.UUID]
		if !ok {
			state = &types.ProviderState{
				Info:        channel.info,
				Endpoint:    channel.endpoint,
				Connections: []*types.ProviderConnection{},
			}
			byUUID[channel.info.UUID] = state
			states = append(states, state)
		}
		state.Connections = append(state.Connections, &types.ProviderConnection{
			ChannelID:  channel.ChannelID,
			IP:         channel.Ip,
			CreateTime: channel.CreateTime,
		})
	}
	return states
}
