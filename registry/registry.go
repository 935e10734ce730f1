package registry

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/ipfs-force-community/sophon-connect/types"
)

// maxSuggestDistance bounds how far a typo may be from a known id.
const maxSuggestDistance = 3

//go:embed wallets.yaml
var defaultWallets []byte

// Registry is the ordered, read only list of known wallets.
type Registry struct {
	descriptors []types.WalletDescriptor
}

func New(descriptors ...types.WalletDescriptor) *Registry {
	return &Registry{descriptors: slices.Clone(descriptors)}
}

// Default returns the built in wallet list.
func Default() *Registry {
	r, err := Parse(defaultWallets)
	if err != nil {
		panic(fmt.Errorf("parse built in wallets failed %v", err))
	}
	return r
}

func Parse(data []byte) (*Registry, error) {
	var descriptors []types.WalletDescriptor
	if err := yaml.Unmarshal(data, &descriptors); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("wallet %d has no id", i)
		}
		if _, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("duplicate wallet id %s", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return New(descriptors...), nil
}

// Load reads a wallet list from a yaml file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (r *Registry) All() []types.WalletDescriptor {
	return slices.Clone(r.descriptors)
}

func (r *Registry) Find(id string) (types.WalletDescriptor, bool) {
	for _, d := range r.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return types.WalletDescriptor{}, false
}

// Rank returns the declared rank of id.
func (r *Registry) Rank(id string) (int, bool) {
	d, ok := r.Find(id)
	if !ok || d.Rank == nil {
		return 0, false
	}
	return *d.Rank, true
}

// Suggest returns the known id closest to id, or "" when nothing is close enough.
func (r *Registry) Suggest(id string) string {
	input := strings.ToLower(id)
	minDist := math.MaxInt
	var suggestion string
	for _, d := range r.descriptors {
		dist := levenshtein.ComputeDistance(input, strings.ToLower(d.ID))
		if dist < minDist {
			minDist = dist
			suggestion = d.ID
		}
		if dist == 0 {
			return d.ID
		}
	}
	if minDist <= maxSuggestDistance {
		return suggestion
	}
	return ""
}
