package cmds

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
)

var ProviderCmds = &cli.Command{
	Name:        "provider",
	Usage:       "providers registered in the daemon",
	Subcommands: []*cli.Command{listProviderCmd},
}

var listProviderCmd = &cli.Command{
	Name:  "list",
	Usage: "list the registered providers and their connections",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewConnectClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		providers, err := api.ListProviders(cctx.Context)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "RDNS\tNAME\tENDPOINT\tCHANNEL\tIP\tCREATED")
		for _, p := range providers {
			for _, conn := range p.Connections {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Info.RDNS, p.Info.Name, p.Endpoint,
					conn.ChannelID, conn.IP, conn.CreateTime.Format(time.RFC3339))
			}
		}
		return tw.Flush()
	},
}
