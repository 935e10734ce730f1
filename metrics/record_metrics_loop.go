package metrics

import (
	"context"
	"time"

	"github.com/ipfs-force-community/sophon-connect/types"
)

func recordMetricsLoop(ctx context.Context, api StateAPI) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			recordProviderConnectionInfo(ctx, api)
			recordAvailableWallets(ctx, api)
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}

func recordProviderConnectionInfo(ctx context.Context, api StateAPI) {
	providers, err := api.ListProviders(ctx)
	if err != nil {
		log.Warnf("failed to list providers %v", err)
		return
	}

	var connNum int64
	for _, provider := range providers {
		connNum += int64(len(provider.Connections))
	}
	ProviderNum.Set(ctx, int64(len(providers)))
	ProviderConnNum.Set(ctx, connNum)
}

func recordAvailableWallets(ctx context.Context, api StateAPI) {
	wallets, err := api.AvailableWallets(ctx, types.DiscoveryOptions{})
	if err != nil {
		log.Warnf("failed to list available wallets %v", err)
		return
	}
	AvailableNum.Set(ctx, int64(len(wallets)))
}
