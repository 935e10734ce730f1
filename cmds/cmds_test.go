package cmds

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/sophon-connect/types"
)

func TestDialArgs(t *testing.T) {
	addr, err := DialArgs("/ip4/127.0.0.1/tcp/45133")
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:45133/rpc/v0", addr)

	addr, err = DialArgs("http://127.0.0.1:45133")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:45133/rpc/v0", addr)
}

func TestDiscoveryOptions(t *testing.T) {
	parse := func(args ...string) types.DiscoveryOptions {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		for _, f := range discoveryFlags {
			require.NoError(t, f.Apply(set))
		}
		require.NoError(t, set.Parse(args))
		return discoveryOptions(cli.NewContext(cli.NewApp(), set, nil))
	}

	opts := parse()
	require.Equal(t, types.SortRecommended, opts.Sort.Strategy)
	require.Empty(t, opts.Include)

	opts = parse("--sort", "alphabetical", "--exclude", "metamask")
	require.Equal(t, types.SortAlphabetical, opts.Sort.Strategy)
	require.Equal(t, []string{"metamask"}, opts.Exclude)

	opts = parse("--sort", "braavos,argentX", "--include", "braavos", "--include", "argentX")
	require.Equal(t, types.Sort{Strategy: types.SortOrder, Order: []string{"braavos", "argentX"}}, opts.Sort)
	require.Equal(t, []string{"braavos", "argentX"}, opts.Include)
}
