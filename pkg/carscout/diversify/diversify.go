// Package diversify caps how many results a single model contributes to a
// ranked result page.
package diversify

import (
	"slices"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

const (
	DefaultMaxPerModel = 3
	DefaultLimit       = 10
)

type bucket struct {
	// positions into the ranked input, ascending
	queue []int
	taken int
}

// Select returns at most limit items with no key contributing more than
// maxPerKey, picking round-robin across keys in first-seen order. Selected
// items keep their input order. If the cap leaves the page short, the
// remaining items are appended in input order regardless of key.
// maxPerKey <= 0 disables the cap.
func Select[T any](items []T, key func(T) string, maxPerKey, limit int) []T {
	if limit <= 0 || len(items) == 0 {
		return []T{}
	}
	capped := maxPerKey > 0

	var order []string
	buckets := make(map[string]*bucket)
	for i, item := range items {
		k := key(item)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			order = append(order, k)
		}
		b.queue = append(b.queue, i)
	}

	picked := make([]bool, len(items))
	selected := make([]int, 0, min(limit, len(items)))
	for len(selected) < limit {
		added := false
		for _, k := range order {
			if len(selected) >= limit {
				break
			}
			b := buckets[k]
			if len(b.queue) == 0 || (capped && b.taken >= maxPerKey) {
				continue
			}
			idx := b.queue[0]
			b.queue = b.queue[1:]
			b.taken++
			picked[idx] = true
			selected = append(selected, idx)
			added = true
		}
		if !added {
			break
		}
	}
	slices.Sort(selected)

	out := make([]T, 0, len(selected))
	for _, idx := range selected {
		out = append(out, items[idx])
	}
	for i := 0; i < len(items) && len(out) < limit; i++ {
		if !picked[i] {
			out = append(out, items[i])
		}
	}
	return out
}

// ByModel diversifies ranked vehicles by case-insensitive model name.
func ByModel(vehicles []dal.Vehicle, maxPerModel, limit int) []dal.Vehicle {
	return Select(vehicles, modelKey, maxPerModel, limit)
}

func modelKey(v dal.Vehicle) string {
	return dal.Fold(v.Model)
}
