package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/sophon-connect/types"
)

func TestDefault(t *testing.T) {
	r := Default()
	all := r.All()
	require.NotEmpty(t, all)

	mm, ok := r.Find("metamask")
	require.True(t, ok)
	require.Equal(t, "MetaMask", mm.Name)
	require.NotEmpty(t, mm.Downloads["chrome"])

	rank, ok := r.Rank("argentX")
	require.True(t, ok)
	require.Equal(t, 1, rank)

	_, ok = r.Rank("okxwallet")
	require.False(t, ok)

	_, ok = r.Find("unknown")
	require.False(t, ok)

	// callers cannot mutate the registry
	all[0].ID = "mutated"
	require.NotEqual(t, "mutated", r.All()[0].ID)
}

func TestParse(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wallets.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- id: a\n  name: A\n  icon: a.svg\n  rank: 1\n- id: b\n  name: B\n  icon: b.svg\n"), 0644))
		r, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, []string{r.All()[0].ID, r.All()[1].ID})
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := Parse([]byte("- name: A\n"))
		require.EqualError(t, err, "wallet 0 has no id")
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := Parse([]byte("- id: a\n- id: a\n"))
		require.EqualError(t, err, "duplicate wallet id a")
	})
}

func TestSuggest(t *testing.T) {
	r := New(
		types.WalletDescriptor{ID: "argentX"},
		types.WalletDescriptor{ID: "braavos"},
		types.WalletDescriptor{ID: "metamask"},
	)
	require.Equal(t, "metamask", r.Suggest("metamask"))
	require.Equal(t, "metamask", r.Suggest("metamsk"))
	require.Equal(t, "argentX", r.Suggest("argentx"))
	require.Equal(t, "", r.Suggest("completely-different"))
}
