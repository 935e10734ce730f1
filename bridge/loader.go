package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs-force-community/sophon-connect/types"
)

// RemoteDescriptor locates the remotely hosted wallet implementation.
type RemoteDescriptor struct {
	Name   string `json:"name"`
	Alias  string `json:"alias"`
	Entry  string `json:"entry"`
	Module string `json:"module"`
}

// WalletFactory builds a wallet handle on top of a detected provider.
type WalletFactory func(ctx context.Context, provider types.Provider) (types.WalletHandle, error)

type ModuleLoader interface {
	Load(ctx context.Context, remote RemoteDescriptor) (WalletFactory, error)
}

var _ ModuleLoader = (*StaticLoader)(nil)

// StaticLoader serves factories registered in process, keyed by remote name.
type StaticLoader struct {
	lk        sync.RWMutex
	factories map[string]WalletFactory
}

func NewStaticLoader() *StaticLoader {
	return &StaticLoader{factories: make(map[string]WalletFactory)}
}

func (l *StaticLoader) Register(name string, factory WalletFactory) *StaticLoader {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.factories[name] = factory
	return l
}

func (l *StaticLoader) Load(_ context.Context, remote RemoteDescriptor) (WalletFactory, error) {
	l.lk.RLock()
	defer l.lk.RUnlock()
	factory, ok := l.factories[remote.Name]
	if !ok {
		return nil, fmt.Errorf("remote module %s from %s not available", remote.Name, remote.Entry)
	}
	return factory, nil
}
