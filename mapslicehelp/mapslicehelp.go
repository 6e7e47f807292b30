package mapslicehelp

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

func AsKeys[T constraints.Ordered](elements []T) map[T]any {
	mapped := make(map[T]any, len(elements))
	for _, element := range elements {
		mapped[element] = struct{}{}
	}
	return mapped
}

func CountDistinct[S ~[]E, E comparable](s S) int {
	seen := make(map[E]struct{}, len(s))
	for _, e := range s {
		seen[e] = struct{}{}
	}
	return len(seen)
}

func FindLastKeyWithMaxValue[K comparable, V constraints.Ordered](m *orderedmap.OrderedMap[K, V]) (maxK K, maxV V, numWinners uint) {
	first := true
	for p := m.Newest(); p != nil; p = p.Prev() {
		if first || p.Value > maxV {
			maxK = p.Key
			maxV = p.Value
			numWinners = 1
			first = false
			continue
		}
		if p.Value == maxV {
			numWinners++
		}
	}
	return
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func DeleteFromSliceByIndex[V any, X any](s []V, indexesToDelete map[int]X, indexOffset int) []V {
	r := make([]V, 0, len(s))
	for i := range s {
		if _, skip := indexesToDelete[i+indexOffset]; skip {
			continue
		}
		r = append(r, s[i])
	}
	return r
}
