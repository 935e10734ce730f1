// Package rpcprovider carries the provider protocol over JSON-RPC, so a
// provider living in another process can be announced and called.
package rpcprovider

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"

	"github.com/ipfs-force-community/sophon-connect/types"
)

const Namespace = "Provider"

var _ types.Provider = (*ProviderStruct)(nil)

type ProviderStruct struct {
	Internal struct {
		Request func(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	}
}

func (p *ProviderStruct) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return p.Internal.Request(ctx, method, params)
}

// Dial connects to the provider served at endpoint.
func Dial(ctx context.Context, endpoint string, header http.Header) (types.Provider, jsonrpc.ClientCloser, error) {
	var res ProviderStruct
	closer, err := jsonrpc.NewMergeClient(ctx, endpoint, Namespace, []interface{}{&res.Internal}, header)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}

// handler limits the exported methods to the provider contract.
type handler struct {
	provider types.Provider
}

func (h *handler) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	return h.provider.Request(ctx, method, params)
}

// NewServer serves provider over JSON-RPC.
func NewServer(provider types.Provider) *jsonrpc.RPCServer {
	server := jsonrpc.NewServer()
	server.Register(Namespace, &handler{provider: provider})
	return server
}
