// Package rank scores candidate vehicles against search filters and orders them.
package rank

import (
	"cmp"
	"slices"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

// Scored pairs a vehicle with its score for one ranking pass.
type Scored struct {
	Vehicle dal.Vehicle `json:"vehicle"`
	Score   int         `json:"score"`
}

// Score sums the given rules, or DefaultRules when none are passed.
func Score(v dal.Vehicle, f dal.SearchFilters, rules ...Rule) int {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	total := 0
	for _, rule := range rules {
		total += rule(v, f)
	}
	return total
}

// Rank scores every vehicle and sorts by score descending, then by price
// ascending. Equal keys keep their input order.
func Rank(vehicles []dal.Vehicle, f dal.SearchFilters) []Scored {
	scored := make([]Scored, len(vehicles))
	for i, v := range vehicles {
		scored[i] = Scored{Vehicle: v, Score: Score(v, f)}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Vehicle.EffectivePrice(), b.Vehicle.EffectivePrice())
	})
	return scored
}

// Vehicles strips the scores, keeping order.
func Vehicles(scored []Scored) []dal.Vehicle {
	out := make([]dal.Vehicle, len(scored))
	for i, s := range scored {
		out[i] = s.Vehicle
	}
	return out
}
