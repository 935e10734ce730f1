package providerevent

import (
	"context"

	"github.com/ipfs-force-community/sophon-connect/types"
)

type IProviderEvent interface {
	ListProviders(ctx context.Context) ([]*types.ProviderState, error)
}

type IProviderEventAPI interface {
	ListenProviderEvent(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error)
	ResponseProviderEvent(ctx context.Context, resp *types.ResponseEvent) error
}

var (
	_ IProviderEvent    = (*ProviderEventStream)(nil)
	_ IProviderEventAPI = (*ProviderEventStream)(nil)
)
