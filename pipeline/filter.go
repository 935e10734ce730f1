package pipeline

import (
	"context"
	"slices"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/sophon-connect/types"
)

var log = logging.Logger("pipeline")

// FilterByPreAuthorized keeps the wallets whose IsPreauthorized reports true, in input order.
// A failing check counts as not pre-authorized.
func FilterByPreAuthorized(ctx context.Context, wallets []types.WalletHandle) []types.WalletHandle {
	passed := make([]bool, len(wallets))
	var wg sync.WaitGroup
	for i, wallet := range wallets {
		wg.Add(1)
		go func(i int, wallet types.WalletHandle) {
			defer wg.Done()
			passed[i] = isPreauthorized(ctx, wallet)
		}(i, wallet)
	}
	wg.Wait()

	res := make([]types.WalletHandle, 0, len(wallets))
	for i, wallet := range wallets {
		if passed[i] {
			res = append(res, wallet)
		}
	}
	return res
}

func isPreauthorized(ctx context.Context, wallet types.WalletHandle) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("pre-authorization check panic: %v", r)
			ok = false
		}
	}()
	ok, err := wallet.IsPreauthorized(ctx)
	if err != nil {
		log.Debugf("pre-authorization check of %s failed: %v", wallet.ID(), err)
		return false
	}
	return ok
}

// FilterBy applies the include or exclude list of opts; include wins when both are set.
func FilterBy[T any](items []T, opts types.DiscoveryOptions, idOf func(T) string) []T {
	res := make([]T, 0, len(items))
	switch {
	case len(opts.Include) > 0:
		for _, item := range items {
			if slices.Contains(opts.Include, idOf(item)) {
				res = append(res, item)
			}
		}
	case len(opts.Exclude) > 0:
		for _, item := range items {
			if !slices.Contains(opts.Exclude, idOf(item)) {
				res = append(res, item)
			}
		}
	default:
		res = append(res, items...)
	}
	return res
}
