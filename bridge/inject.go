package bridge

import (
	"context"
	"fmt"

	"github.com/modern-go/reflect2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/sophon-connect/metrics"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

// DescriptorSource resolves wallet ids to descriptors, *registry.Registry implements it.
type DescriptorSource interface {
	Find(id string) (types.WalletDescriptor, bool)
}

// Spec describes one bridged wallet: the registry entry it borrows its identity
// from, the container key it is installed under and how its provider is found.
type Spec struct {
	WalletID string             `json:"walletId"`
	Key      string             `json:"key"`
	RDNS     []string           `json:"rdns"`
	Remote   RemoteDescriptor   `json:"remote"`
	Detect   types.DetectConfig `json:"detect"`
}

func MetaMaskSpec() Spec {
	return Spec{
		WalletID: "metamask",
		Key:      "starknet_metamask",
		RDNS:     []string{"io.metamask", "io.metamask.flask"},
		Remote: RemoteDescriptor{
			Name:   "MetaMaskStarknetSnapWallet",
			Alias:  "MetaMaskStarknetSnapWallet",
			Entry:  "https://snaps.consensys.io/starknet/get-starknet/v1/remoteEntry.js",
			Module: "./index",
		},
		Detect: types.DefaultDetectConfig(),
	}
}

// Inject installs an Adapter for spec under spec.Key and reports whether it did.
// It gives up when the key is taken, the wallet is unknown or no provider answers.
func Inject(ctx context.Context, host window.Host, source DescriptorSource, loader ModuleLoader, spec Spec) bool {
	if host == nil || reflect2.IsNil(host) {
		return false
	}
	if host.HasOwn(spec.Key) {
		log.Debugf("key %s already defined, skip bridging %s", spec.Key, spec.WalletID)
		return false
	}
	info, ok := source.Find(spec.WalletID)
	if !ok {
		log.Warnf("wallet %s not found in registry", spec.WalletID)
		return false
	}

	provider := WaitForProvider(ctx, host, RDNSMatcher(spec.RDNS...), spec.Detect)
	if provider == nil {
		log.Infof("no provider for %s detected", spec.WalletID)
		return false
	}

	adapter := NewAdapter(info, provider, func(ctx context.Context, provider types.Provider) (types.WalletHandle, error) {
		if loader == nil || reflect2.IsNil(loader) {
			return nil, fmt.Errorf("no module loader for %s", spec.Remote.Name)
		}
		factory, err := loader.Load(ctx, spec.Remote)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", spec.Remote.Name, err)
		}
		return factory(ctx, provider)
	})
	if !host.SetIfAbsent(spec.Key, adapter) {
		return false
	}

	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletIDKey, spec.WalletID)}, metrics.BridgeInject.M(1))
	log.Infof("bridged wallet %s injected under %s", spec.WalletID, spec.Key)
	return true
}
