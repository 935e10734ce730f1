package providerevent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/sophon-connect/metrics"
	"github.com/ipfs-force-community/sophon-connect/rpcprovider"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

var log = logging.Logger("provider_event")

// RPCDialer dials providers over JSON-RPC.
func RPCDialer(ctx context.Context, endpoint string) (types.Provider, jsonrpc.ClientCloser, error) {
	return rpcprovider.Dial(ctx, endpoint, nil)
}

// ProviderEventStream lets providers running in other processes take part in
// provider detection: every request dispatched on the window is forwarded to
// them, and their answers are announced back on the window.
type ProviderEventStream struct {
	connMgr *providerConnMgr
	target  window.EventTarget
	dial    Dialer
	cfg     *types.RequestConfig
	*types.BaseEventStream

	ctx context.Context
}

func NewProviderEventStream(ctx context.Context, target window.EventTarget, dial Dialer, cfg *types.RequestConfig) (*ProviderEventStream, error) {
	if dial == nil {
		dial = RPCDialer
	}
	stream := &ProviderEventStream{
		connMgr:         newProviderConnMgr(),
		target:          target,
		dial:            dial,
		cfg:             cfg,
		BaseEventStream: types.NewBaseEventStream(ctx, cfg),
		ctx:             ctx,
	}

	requestCh := make(chan *window.Event, cfg.RequestQueueSize)
	sub, err := target.AddListener(window.EventRequestProvider, requestCh)
	if err != nil {
		return nil, err
	}
	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-requestCh:
				for _, channel := range stream.connMgr.channels() {
					go stream.askProvider(ctx, channel)
				}
			case <-ctx.Done():
				log.Infof("stop forwarding provider requests")
				return
			}
		}
	}()
	return stream, nil
}

func (p *ProviderEventStream) ListenProviderEvent(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error) {
	if info.RDNS == "" {
		return nil, errors.New("provider must have a rdns")
	}
	if endpoint == "" {
		return nil, errors.New("provider must have an endpoint")
	}
	if info.UUID == "" {
		info.UUID = uuid.NewString()
	}

	ip := remoteIP(ctx)
	out := make(chan *types.RequestEvent, p.cfg.RequestQueueSize)
	providerLog := log.With("rdns", info.RDNS).With("ip", ip)
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.RDNSKey, info.RDNS), tag.Upsert(metrics.IPKey, ip))

	go func() {
		channel := newProviderChannelInfo(types.NewChannelInfo(ctx, ip, out), info, endpoint)
		defer close(out)

		p.connMgr.addConn(channel)
		stats.Record(ctx, metrics.ProviderRegister.M(1))
		providerLog.Infof("add new connections %s", channel.ChannelID)

		connectBytes, err := json.Marshal(ConnectedCompleted{ChannelID: channel.ChannelID})
		if err != nil {
			providerLog.Errorf("marshal failed %v", err)
			return
		}
		out <- &types.RequestEvent{
			ID:         uuid.New(),
			Method:     MethodInitConnect,
			CreateTime: time.Now(),
			Payload:    connectBytes,
		} // not response

		<-ctx.Done()
		stats.Record(ctx, metrics.ProviderUnregister.M(1))
		p.connMgr.removeConn(channel)
	}()
	return out, nil
}

func (p *ProviderEventStream) ResponseProviderEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return p.ResponseEvent(ctx, resp)
}

func (p *ProviderEventStream) ListProviders(_ context.Context) ([]*types.ProviderState, error) {
	return p.connMgr.listProviders(), nil
}

// askProvider asks one remote provider to announce itself and dispatches its answer.
func (p *ProviderEventStream) askProvider(ctx context.Context, channel *providerChannelInfo) {
	var info types.ProviderInfo
	if err := p.SendRequest(ctx, []*types.ChannelInfo{channel.ChannelInfo}, MethodRequestProvider, nil, &info); err != nil {
		log.Warnf("request provider %s failed %v", channel.info.RDNS, err)
		return
	}
	if info.RDNS == "" {
		info = channel.info
	}

	provider, err := channel.dialOnce(p.ctx, p.dial)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	if err := p.target.Dispatch(window.EventAnnounceProvider, window.NewEvent(window.EventAnnounceProvider, &types.AnnounceDetail{
		Info:     info,
		Provider: provider,
	})); err != nil {
		log.Errorf("announce provider %s failed %v", info.RDNS, err)
	}
}
