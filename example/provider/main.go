// Command provider is a stand-in MetaMask provider: it serves the Starknet snap
// methods over JSON-RPC and registers itself with a running daemon, after
// which the daemon lists a metamask wallet.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/sophon-connect/cmds"
	"github.com/ipfs-force-community/sophon-connect/config"
	"github.com/ipfs-force-community/sophon-connect/providerevent"
	"github.com/ipfs-force-community/sophon-connect/rpcprovider"
	"github.com/ipfs-force-community/sophon-connect/snapwallet"
	"github.com/ipfs-force-community/sophon-connect/types"
	"github.com/ipfs-force-community/sophon-connect/utils"
)

var log = logging.Logger("provider")

type snapProvider struct {
	address string
}

func (p *snapProvider) Request(_ context.Context, method string, _ json.RawMessage) (json.RawMessage, error) {
	switch method {
	case "wallet_requestSnaps", "wallet_getSnaps":
		return json.Marshal(map[string]any{
			snapwallet.SnapID: map[string]any{"version": "2.7.0", "enabled": true},
		})
	case "wallet_invokeSnap":
		return json.Marshal(map[string]string{"address": p.address})
	default:
		return nil, fmt.Errorf("method %s not supported", method)
	}
}

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:  "provider",
		Usage: "register a stand-in MetaMask provider with sophon-connect",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: "/ip4/127.0.0.1/tcp/45133", Usage: "daemon api address"},
			&cli.StringFlag{Name: "repo", Value: config.DefaultRepo, Usage: "daemon repo holding the token"},
			&cli.StringFlag{Name: "serve", Value: "127.0.0.1:45200", Usage: "address the provider is served on"},
			&cli.StringFlag{Name: "address", Value: "0x0123", Usage: "account returned by the snap"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	ctx := cctx.Context

	nl, err := net.Listen("tcp", cctx.String("serve"))
	if err != nil {
		return err
	}
	go func() {
		if err := http.Serve(nl, rpcprovider.NewServer(&snapProvider{address: cctx.String("address")})); err != nil {
			log.Errorf("serve provider: %v", err)
		}
	}()

	addr, err := cmds.DialArgs(cctx.String("listen"))
	if err != nil {
		return err
	}
	header := http.Header{}
	if repo, err := config.ExpandRepo(cctx.String("repo")); err == nil {
		if token, err := utils.ReadToken(repo); err == nil {
			header.Add("Authorization", "Bearer "+string(token))
		}
	}
	client, closer, err := providerevent.NewProviderRegisterClient(ctx, addr, header)
	if err != nil {
		return err
	}
	defer closer()

	info := types.ProviderInfo{UUID: "example-metamask", Name: "MetaMask", RDNS: "io.metamask"}
	providerClient := providerevent.NewProviderEventClient(client, info, "ws://"+nl.Addr().String(), log.With())
	go providerClient.ListenProviderRequest(ctx)
	providerClient.WaitReady(ctx)
	log.Infof("registered as channel %s", providerClient.Channel())

	<-ctx.Done()
	return nil
}
