// Package match applies hard inclusion constraints to vehicle listings.
package match

import (
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

// Criteria is a conjunction of optional constraints. Zero-valued fields are ignored.
type Criteria struct {
	Price     *dal.Range
	YearMin   int
	YearMax   int
	Model     string
	FuelType  string
	BodyStyle string
	Color     string
	Condition string
}

// Match reports whether v satisfies every constraint set in c.
func Match(v dal.Vehicle, c Criteria) bool {
	if c.Price != nil && !c.Price.Contains(v.EffectivePrice()) {
		return false
	}
	if c.YearMin > 0 && v.Year < c.YearMin {
		return false
	}
	if c.YearMax > 0 && v.Year > c.YearMax {
		return false
	}
	if c.Model != "" && !dal.ContainsFold(v.Model, c.Model) {
		return false
	}
	if c.FuelType != "" && !dal.EqualFold(v.FuelType, c.FuelType) {
		return false
	}
	if c.BodyStyle != "" && !dal.ContainsFold(v.BodyStyle, c.BodyStyle) {
		return false
	}
	if c.Color != "" && !dal.ContainsFold(v.ExteriorColor, c.Color) && !dal.ContainsFold(v.InteriorColor, c.Color) {
		return false
	}
	switch dal.Fold(c.Condition) {
	case dal.ConditionNew, dal.ConditionUsed:
		if v.Condition() != dal.Fold(c.Condition) {
			return false
		}
	}
	return true
}

// Filter returns the vehicles satisfying c, in input order.
func Filter(vehicles []dal.Vehicle, c Criteria) []dal.Vehicle {
	out := make([]dal.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if Match(v, c) {
			out = append(out, v)
		}
	}
	return out
}

// FromForm converts the form-search request into criteria. A single year
// narrows both bounds.
func FromForm(f dal.FormFilters) Criteria {
	c := Criteria{
		Price:     f.PriceRange,
		YearMin:   f.YearMin,
		YearMax:   f.YearMax,
		Model:     f.Model,
		FuelType:  f.FuelType,
		BodyStyle: f.BodyStyle,
		Color:     f.Color,
		Condition: f.Condition,
	}
	if f.Year > 0 {
		c.YearMin, c.YearMax = f.Year, f.Year
	}
	return c
}

// FromFilters keeps only the constraints a free-text search treats as hard.
// Price, year and mileage are left to the scorer, which rewards closeness
// instead of excluding.
func FromFilters(f dal.SearchFilters) Criteria {
	c := Criteria{
		FuelType:  f.FuelType,
		BodyStyle: f.BodyStyle,
		Color:     f.Color,
		Condition: f.Condition,
	}
	if models := f.PreferredModels(); len(models) == 1 {
		c.Model = models[0]
	}
	return c
}
