package api

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
)

// Namespace is the RPC namespace the daemon serves IConnectAPI under.
const Namespace = "Connect"

func NewConnectRPCClient(ctx context.Context, addr string, header http.Header, opts ...jsonrpc.Option) (IConnectAPI, jsonrpc.ClientCloser, error) {
	var res ConnectStruct
	closer, err := jsonrpc.NewMergeClient(ctx, addr, Namespace, []interface{}{
		&res.IWalletStruct.Internal,
		&res.IProviderEventStruct.Internal,
	}, header, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}
