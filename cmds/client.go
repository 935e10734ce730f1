package cmds

import (
	"net/http"
	"net/url"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/sophon-connect/api"
	"github.com/ipfs-force-community/sophon-connect/config"
	"github.com/ipfs-force-community/sophon-connect/utils"
)

func NewConnectClient(ctx *cli.Context) (api.IConnectAPI, jsonrpc.ClientCloser, error) {
	addr, err := DialArgs(ctx.String("listen"))
	if err != nil {
		return nil, nil, err
	}

	header := http.Header{}
	repo, err := config.ExpandRepo(ctx.String("repo"))
	if err != nil {
		return nil, nil, err
	}
	// local calls are accepted without a token
	if token, err := utils.ReadToken(repo); err == nil {
		header.Add("Authorization", "Bearer "+string(token))
	}

	return api.NewConnectRPCClient(ctx.Context, addr, header)
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v0", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return addr + "/rpc/v0", nil
}
