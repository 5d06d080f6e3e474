package rank

import (
	"math"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

// Rule computes one additive contribution to a vehicle's score.
type Rule func(v dal.Vehicle, f dal.SearchFilters) int

// DefaultRules is the scoring policy applied by Rank.
var DefaultRules = []Rule{
	ModelPreference,
	ConditionMatch,
	FuelTypeMatch,
	YearProximity,
	FuelEconomy,
	MileageFit,
	PriceFit,
}

const (
	firstModelBonus     = 6
	preferredModelBonus = 4
	conditionBonus      = 3
	fuelTypeBonus       = 3

	listPriceBase    = 3
	singlePriceBase  = 5
	priceStepPenalty = 5000

	lowMileageCutoff = 30000
)

// ModelPreference rewards the first requested model and, separately, any requested model.
func ModelPreference(v dal.Vehicle, f dal.SearchFilters) int {
	models := f.PreferredModels()
	if len(models) == 0 {
		return 0
	}
	score := 0
	if dal.EqualFold(v.Model, models[0]) {
		score += firstModelBonus
	}
	for _, m := range models {
		if dal.EqualFold(v.Model, m) {
			score += preferredModelBonus
			break
		}
	}
	return score
}

// ConditionMatch rewards a vehicle in the requested condition.
func ConditionMatch(v dal.Vehicle, f dal.SearchFilters) int {
	if f.WantsCondition() && v.Condition() == dal.Fold(f.Condition) {
		return conditionBonus
	}
	return 0
}

// FuelTypeMatch rewards the requested fuel type.
func FuelTypeMatch(v dal.Vehicle, f dal.SearchFilters) int {
	if f.FuelType != "" && dal.EqualFold(v.FuelType, f.FuelType) {
		return fuelTypeBonus
	}
	return 0
}

// YearProximity gives 2 for the requested year and 1 for a neighbouring one.
func YearProximity(v dal.Vehicle, f dal.SearchFilters) int {
	if f.Year == 0 {
		return 0
	}
	switch diff := v.Year - f.Year; diff {
	case 0:
		return 2
	case 1, -1:
		return 1
	}
	return 0
}

// FuelEconomy scores average MPG against the requested minimum, or against
// fixed 30/35 MPG marks when none was asked for.
func FuelEconomy(v dal.Vehicle, f dal.SearchFilters) int {
	avg := v.AverageMPG()
	if f.MinMPG > 0 {
		if avg < f.MinMPG {
			return 0
		}
		return min(4, 1+int(math.Floor((avg-f.MinMPG)/5)))
	}
	switch {
	case avg >= 35:
		return 2
	case avg >= 30:
		return 1
	}
	return 0
}

// MileageFit favours odometer readings inside the requested range, and the
// lowest quarter of it most.
func MileageFit(v dal.Vehicle, f dal.SearchFilters) int {
	if f.MileageRange == nil {
		if v.Condition() == dal.ConditionNew || v.Mileage <= lowMileageCutoff {
			return 1
		}
		return 0
	}
	r := *f.MileageRange
	m := float64(v.Mileage)
	if !r.Contains(m) {
		return 0
	}
	score := 2
	if r.Bounded() && m-r.Min <= 0.25*(r.Max-r.Min) {
		score++
	}
	return score
}

// PriceFit takes the best bonus over the requested price ranges. A single
// priceRange is weighted above a list of ranges.
func PriceFit(v dal.Vehicle, f dal.SearchFilters) int {
	price := v.EffectivePrice()
	if len(f.PriceRanges) > 0 {
		best := 0
		for _, r := range f.PriceRanges {
			best = max(best, priceBonus(price, r, listPriceBase))
		}
		return best
	}
	if f.PriceRange != nil {
		return priceBonus(price, *f.PriceRange, singlePriceBase)
	}
	return 0
}

func priceBonus(price float64, r dal.Range, base int) int {
	if r.Contains(price) {
		if !r.Bounded() {
			return base
		}
		span := math.Max(1, r.Max-r.Min)
		return base + int(math.Floor((r.Max-price)/span*3))
	}
	return max(0, 2-int(math.Floor(r.Distance(price)/priceStepPenalty)))
}
