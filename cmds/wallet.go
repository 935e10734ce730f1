package cmds

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/sophon-connect/types"
)

var WalletCmds = &cli.Command{
	Name:  "wallet",
	Usage: "query and connect the wallets of the daemon",
	Subcommands: []*cli.Command{
		listWalletCmd,
		preAuthorizedWalletCmd,
		discoveryWalletCmd,
		lastWalletCmd,
		enableWalletCmd,
		disconnectWalletCmd,
	},
}

var discoveryFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "sort",
		Usage: "sort strategy, one of recommended, alphabetical or a comma separated list of wallet ids",
	},
	&cli.StringSliceFlag{
		Name:  "include",
		Usage: "only list these wallets",
	},
	&cli.StringSliceFlag{
		Name:  "exclude",
		Usage: "do not list these wallets",
	},
}

func discoveryOptions(cctx *cli.Context) types.DiscoveryOptions {
	opts := types.DiscoveryOptions{
		Include: cctx.StringSlice("include"),
		Exclude: cctx.StringSlice("exclude"),
	}
	switch sort := cctx.String("sort"); sort {
	case "", string(types.SortRecommended):
		opts.Sort.Strategy = types.SortRecommended
	case string(types.SortAlphabetical):
		opts.Sort.Strategy = types.SortAlphabetical
	default:
		opts.Sort = types.Sort{Strategy: types.SortOrder, Order: strings.Split(sort, ",")}
	}
	return opts
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, " ", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

var listWalletCmd = &cli.Command{
	Name:  "list",
	Usage: "list the wallets available in the container",
	Flags: discoveryFlags,
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.AvailableWallets(cctx.Context, discoveryOptions(cctx))
		if err != nil {
			return err
		}
		return printJSON(wallets)
	},
}

var preAuthorizedWalletCmd = &cli.Command{
	Name:  "preauthorized",
	Usage: "list the wallets that connect without a prompt",
	Flags: discoveryFlags,
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.PreAuthorizedWallets(cctx.Context, discoveryOptions(cctx))
		if err != nil {
			return err
		}
		return printJSON(wallets)
	},
}

var discoveryWalletCmd = &cli.Command{
	Name:  "discovery",
	Usage: "list the known wallets with their download links",
	Flags: discoveryFlags,
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.DiscoveryWallets(cctx.Context, discoveryOptions(cctx))
		if err != nil {
			return err
		}
		return printJSON(wallets)
	},
}

var lastWalletCmd = &cli.Command{
	Name:  "last",
	Usage: "show the last connected wallet if it can reconnect silently",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallet, err := api.LastConnectedWallet(cctx.Context)
		if err != nil {
			return err
		}
		if wallet == nil {
			fmt.Println("no wallet to reconnect")
			return nil
		}
		return printJSON(wallet)
	},
}

var enableWalletCmd = &cli.Command{
	Name:      "enable",
	Usage:     "connect a wallet and remember it",
	ArgsUsage: "<wallet id>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "starknet-version",
			Usage: "wallet api version, v4 or v5",
			Value: types.StarknetV5,
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("must pass a wallet id")
		}
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallet, err := api.Enable(cctx.Context, cctx.Args().First(), types.EnableOptions{
			StarknetVersion: cctx.String("starknet-version"),
		})
		if err != nil {
			return err
		}
		return printJSON(wallet)
	},
}

var disconnectWalletCmd = &cli.Command{
	Name:  "disconnect",
	Usage: "mark the session disconnected",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "also forget the last connected wallet",
		},
	},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		return api.Disconnect(cctx.Context, types.DisconnectOptions{ClearLastWallet: cctx.Bool("clear")})
	},
}
