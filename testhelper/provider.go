package testhelper

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var _ types.Provider = (*MemProvider)(nil)

// MemProvider answers provider requests from a fixed method table.
type MemProvider struct {
	lk      sync.Mutex
	results map[string]json.RawMessage
	calls   []string
}

func NewMemProvider() *MemProvider {
	return &MemProvider{results: make(map[string]json.RawMessage)}
}

func (p *MemProvider) Handle(method string, result any) *MemProvider {
	data, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	p.lk.Lock()
	defer p.lk.Unlock()
	p.results[method] = data
	return p
}

func (p *MemProvider) Calls() []string {
	p.lk.Lock()
	defer p.lk.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *MemProvider) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.calls = append(p.calls, method)
	res, ok := p.results[method]
	if !ok {
		return nil, fmt.Errorf("method %s not supported", method)
	}
	return res, nil
}

// MockAnnouncer answers every request event on a window with an announcement.
type MockAnnouncer struct {
	Info     types.ProviderInfo
	Provider types.Provider

	requests atomic.Int32
	// Silent makes the announcer count requests without answering.
	Silent bool
}

func (m *MockAnnouncer) Requests() int {
	return int(m.requests.Load())
}

// Start listens until ctx is done.
func (m *MockAnnouncer) Start(ctx context.Context, w window.EventTarget) error {
	reqCh := make(chan *window.Event, 8)
	sub, err := w.AddListener(window.EventRequestProvider, reqCh)
	if err != nil {
		return err
	}
	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-reqCh:
				m.requests.Add(1)
				if m.Silent {
					continue
				}
				_ = w.Dispatch(window.EventAnnounceProvider, window.NewEvent(window.EventAnnounceProvider, &types.AnnounceDetail{
					Info:     m.Info,
					Provider: m.Provider,
				}))
			}
		}
	}()
	return nil
}
