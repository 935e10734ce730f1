package rpcprovider

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/testhelper"
)

func TestDial(t *testing.T) {
	ctx := context.Background()
	provider := testhelper.NewMemProvider().Handle("wallet_getSnaps", map[string]string{"npm:snap": "1.0.0"})

	srv := httptest.NewServer(NewServer(provider))
	defer srv.Close()

	client, closer, err := Dial(ctx, "ws://"+srv.Listener.Addr().String(), nil)
	require.NoError(t, err)
	defer closer()

	res, err := client.Request(ctx, "wallet_getSnaps", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"npm:snap":"1.0.0"}`, string(res))
	require.Equal(t, []string{"wallet_getSnaps"}, provider.Calls())

	_, err = client.Request(ctx, "wallet_unknown", nil)
	require.ErrorContains(t, err, "not supported")
}
