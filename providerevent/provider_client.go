package providerevent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ipfs-force-community/sophon-connect/types"
)

// ProviderEventAPIStruct is the client side of IProviderEventAPI.
type ProviderEventAPIStruct struct {
	Internal struct {
		ListenProviderEvent   func(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error)
		ResponseProviderEvent func(ctx context.Context, resp *types.ResponseEvent) error
	}
}

func (s *ProviderEventAPIStruct) ListenProviderEvent(ctx context.Context, info types.ProviderInfo, endpoint string) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenProviderEvent(ctx, info, endpoint)
}

func (s *ProviderEventAPIStruct) ResponseProviderEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseProviderEvent(ctx, resp)
}

// NewProviderRegisterClient connects to the provider event API of a daemon.
func NewProviderRegisterClient(ctx context.Context, url string, header http.Header) (IProviderEventAPI, jsonrpc.ClientCloser, error) {
	var res ProviderEventAPIStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, "Connect", []interface{}{&res.Internal}, header)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}

// ProviderEventClient keeps a provider registered with a daemon and answers its detection requests.
type ProviderEventClient struct {
	client   IProviderEventAPI
	info     types.ProviderInfo
	endpoint string
	log      *zap.SugaredLogger
	channel  uuid.UUID
	readyCh  chan struct{}
}

func NewProviderEventClient(client IProviderEventAPI, info types.ProviderInfo, endpoint string, log *zap.SugaredLogger) *ProviderEventClient {
	return &ProviderEventClient{
		client:   client,
		info:     info,
		endpoint: endpoint,
		log:      log,
		readyCh:  make(chan struct{}, 1),
	}
}

func (e *ProviderEventClient) ListenProviderRequest(ctx context.Context) {
	for {
		if err := e.listenProviderRequestOnce(ctx); err != nil {
			e.log.Errorf("listen provider event errored: %s", err)
		} else {
			e.log.Warn("listenProviderRequestOnce quit, try again")
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			e.log.Warnf("not restarting listenProviderRequestOnce: context error: %s", ctx.Err())
			return
		}
		e.log.Info("restarting listenProviderRequestOnce")
		// try clear ready channel
		select {
		case <-e.readyCh:
		default:
		}
	}
}

func (e *ProviderEventClient) WaitReady(ctx context.Context) {
	select {
	case <-e.readyCh:
	case <-ctx.Done():
	}
}

func (e *ProviderEventClient) listenProviderRequestOnce(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.log.Infow("register provider", "rdns", e.info.RDNS, "endpoint", e.endpoint)
	eventCh, err := e.client.ListenProviderEvent(ctx, e.info, e.endpoint)
	if err != nil {
		// Retry is handled by caller
		return fmt.Errorf("listenProviderRequestOnce ListenProviderEvent call failed: %w", err)
	}

	for event := range eventCh {
		switch event.Method {
		case MethodInitConnect:
			req := ConnectedCompleted{}
			if err := json.Unmarshal(event.Payload, &req); err != nil {
				e.log.Errorf("init connect error %s", err)
			}
			e.channel = req.ChannelID
			e.log.Infof("connect to server success %v", req.ChannelID)
			select {
			case e.readyCh <- struct{}{}:
			default:
			}
			// do not response
		case MethodRequestProvider:
			go e.value(ctx, event.ID, e.info)
		default:
			e.log.Errorf("unexpect provider event type %s", event.Method)
			go e.error(ctx, event.ID, fmt.Errorf("unsupported method %s", event.Method))
		}
	}

	return nil
}

func (e *ProviderEventClient) value(ctx context.Context, id uuid.UUID, val interface{}) {
	respBytes, err := json.Marshal(val)
	if err != nil {
		e.log.Errorf("marshal response error %s", err)
		e.error(ctx, id, err)
		return
	}
	err = e.client.ResponseProviderEvent(ctx, &types.ResponseEvent{
		ID:      id,
		Payload: respBytes,
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}

func (e *ProviderEventClient) error(ctx context.Context, id uuid.UUID, err error) {
	err = e.client.ResponseProviderEvent(ctx, &types.ResponseEvent{
		ID:    id,
		Error: err.Error(),
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}

// Channel is the id the daemon assigned to the current stream.
func (e *ProviderEventClient) Channel() uuid.UUID {
	return e.channel
}
