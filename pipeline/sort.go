package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ipfs-force-community/sophon-connect/types"
)

type SortKey struct {
	ID   string
	Name string
	// Rank is only meaningful when Ranked is set.
	Rank   int
	Ranked bool
}

// SortBy returns a stably sorted copy of items.
func SortBy[T any](items []T, sort types.Sort, keyOf func(T) SortKey) []T {
	res := slices.Clone(items)
	if res == nil {
		res = make([]T, 0)
	}

	var compare func(a, b SortKey) int
	switch sort.Strategy {
	case types.SortAlphabetical:
		compare = byName
	case types.SortOrder:
		compare = byOrder(sort.Order)
	default:
		compare = byRank
	}

	slices.SortStableFunc(res, func(a, b T) int {
		return compare(keyOf(a), keyOf(b))
	})
	return res
}

func byRank(a, b SortKey) int {
	switch {
	case a.Ranked && b.Ranked:
		return cmp.Compare(a.Rank, b.Rank)
	case a.Ranked:
		return -1
	case b.Ranked:
		return 1
	}
	return 0
}

func byName(a, b SortKey) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func byOrder(order []string) func(a, b SortKey) int {
	position := func(id string) int {
		if i := slices.Index(order, id); i >= 0 {
			return i
		}
		return len(order)
	}
	return func(a, b SortKey) int {
		return cmp.Compare(position(a.ID), position(b.ID))
	}
}
