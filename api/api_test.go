package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/bridge"
	"github.com/ipfs-force-community/sophon-connect/connect"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/registry"
	"github.com/ipfs-force-community/sophon-connect/storage"
	"github.com/ipfs-force-community/sophon-connect/testhelper"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/window"
)

func rank(r int) *int { return &r }

type testEnv struct {
	impl *ConnectAPIImpl
	a, b *testhelper.MemWallet
}

func setup(t *testing.T) *testEnv {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w := window.New()
	a := testhelper.NewMemWallet("argentX", "Argent X").SetPreauthorized(true)
	b := testhelper.NewMemWallet("braavos", "Braavos")
	w.Set("starknet_argentX", a)
	w.Set("starknet_braavos", b)

	conn, err := connect.New(ctx, connect.Options{
		Host:         w,
		Registry:     registry.Default(),
		StoreFactory: storage.MemFactory(),
		Bridges:      []bridge.Spec{},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WaitReady(ctx))

	pe, err := providerevent.NewProviderEventStream(ctx, w, providerevent.RPCDialer, types.DefaultConfig())
	require.NoError(t, err)
	return &testEnv{impl: NewConnectAPIImpl(conn, pe), a: a, b: b}
}

func walletIDs(infos []*types.WalletInfo) []string {
	res := make([]string, 0, len(infos))
	for _, info := range infos {
		res = append(res, info.ID)
	}
	return res
}

func TestWalletQueries(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	available, err := env.impl.AvailableWallets(ctx, types.DiscoveryOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"argentX", "braavos"}, walletIDs(available))
	require.Equal(t, rank(1), available[0].Rank)
	require.NotEmpty(t, available[0].Website)

	preauthorized, err := env.impl.PreAuthorizedWallets(ctx, types.DiscoveryOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"argentX"}, walletIDs(preauthorized))

	discovery, err := env.impl.DiscoveryWallets(ctx, types.DiscoveryOptions{Exclude: []string{"metamask"}})
	require.NoError(t, err)
	require.NotContains(t, walletIDs(discovery), "metamask")
	require.Contains(t, walletIDs(discovery), "braavos")
}

func TestEnableByID(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	last, err := env.impl.LastConnectedWallet(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	info, err := env.impl.Enable(ctx, "argentX", types.EnableOptions{})
	require.NoError(t, err)
	require.True(t, info.Connected)
	require.Equal(t, types.StarknetV5, env.a.LastEnableOptions().StarknetVersion)

	last, err = env.impl.LastConnectedWallet(ctx)
	require.NoError(t, err)
	require.Equal(t, "argentX", last.ID)

	require.NoError(t, env.impl.Disconnect(ctx, types.DisconnectOptions{ClearLastWallet: true}))
	last, err = env.impl.LastConnectedWallet(ctx)
	require.NoError(t, err)
	require.Nil(t, last)
}

func TestEnableUnknownWallet(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	_, err := env.impl.Enable(ctx, "bravos", types.EnableOptions{})
	require.EqualError(t, err, "wallet bravos not available, did you mean braavos")

	_, err = env.impl.Enable(ctx, "metamask", types.EnableOptions{})
	require.EqualError(t, err, "wallet metamask is not installed")

	_, err = env.impl.Enable(ctx, "somethingelse", types.EnableOptions{})
	require.EqualError(t, err, "wallet somethingelse not available")
}

func TestPermissionProxy(t *testing.T) {
	env := setup(t)
	var proxy ConnectStruct
	PermissionProxy(env.impl, &proxy)

	readCtx := auth.WithPerm(context.Background(), []auth.Permission{"read"})
	_, err := proxy.AvailableWallets(readCtx, types.DiscoveryOptions{})
	require.NoError(t, err)

	_, err = proxy.Enable(readCtx, "argentX", types.EnableOptions{})
	require.EqualError(t, err, "missing permission to invoke 'Enable' (need 'write')")
	require.Zero(t, env.a.EnableCalls())

	err = proxy.Disconnect(readCtx, types.DisconnectOptions{})
	require.Error(t, err)

	_, err = proxy.ListProviders(readCtx)
	require.Error(t, err)

	adminCtx := auth.WithPerm(context.Background(), AllPermissions)
	_, err = proxy.Enable(adminCtx, "argentX", types.EnableOptions{})
	require.NoError(t, err)
	providers, err := proxy.ListProviders(adminCtx)
	require.NoError(t, err)
	require.Empty(t, providers)
}

func TestRPCClient(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	var proxy ConnectStruct
	PermissionProxy(env.impl, &proxy)
	server := jsonrpc.NewServer()
	server.Register(Namespace, &proxy)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.ServeHTTP(w, r.WithContext(auth.WithPerm(r.Context(), AllPermissions)))
	}))
	defer srv.Close()

	client, closer, err := NewConnectRPCClient(ctx, "ws://"+strings.TrimPrefix(srv.URL, "http://"), nil)
	require.NoError(t, err)
	defer closer()

	available, err := client.AvailableWallets(ctx, types.DiscoveryOptions{Sort: types.Sort{Strategy: types.SortAlphabetical}})
	require.NoError(t, err)
	require.Equal(t, []string{"argentX", "braavos"}, walletIDs(available))

	info, err := client.Enable(ctx, "braavos", types.EnableOptions{StarknetVersion: types.StarknetV4})
	require.NoError(t, err)
	require.Equal(t, "braavos", info.ID)
	require.Equal(t, types.StarknetV4, env.b.LastEnableOptions().StarknetVersion)
}
