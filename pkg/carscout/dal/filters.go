package dal

// Range is an inclusive numeric interval. A Max of zero or less leaves the
// range open above.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounded reports whether the range has an upper bound.
func (r Range) Bounded() bool {
	return r.Max > 0
}

// Contains reports whether x lies within the range.
func (r Range) Contains(x float64) bool {
	if x < r.Min {
		return false
	}
	return !r.Bounded() || x <= r.Max
}

// Distance is how far x lies outside the range, zero when inside.
func (r Range) Distance(x float64) float64 {
	switch {
	case x < r.Min:
		return r.Min - x
	case r.Bounded() && x > r.Max:
		return x - r.Max
	}
	return 0
}

// SearchFilters defines the structured constraints of one search. Every field
// is optional; a zero value means "no constraint".
type SearchFilters struct {
	PriceRange    *Range   `json:"priceRange,omitempty"`
	PriceRanges   []Range  `json:"priceRanges,omitempty"`
	Year          int      `json:"year,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	Model         string   `json:"model,omitempty"`
	Models        []string `json:"models,omitempty"`
	BodyStyle     string   `json:"bodyStyle,omitempty"`
	FuelType      string   `json:"fuelType,omitempty"`
	Color         string   `json:"color,omitempty"`
	MileageRange  *Range   `json:"mileageRange,omitempty"`
	InteriorColor string   `json:"interiorColor,omitempty"`
	Transmission  string   `json:"transmission,omitempty"`
	Options       []string `json:"options,omitempty"`
	MinCityMPG    float64  `json:"minCityMpg,omitempty"`
	MinHighwayMPG float64  `json:"minHighwayMpg,omitempty"`
	MinMPG        float64  `json:"minMpg,omitempty"`
	Engine        string   `json:"engine,omitempty"`
	Drivetrain    string   `json:"drivetrain,omitempty"`
	Status        string   `json:"status,omitempty"`
	DealerIDs     []string `json:"dealerIds,omitempty"`
}

// PreferredModels lists the requested models in priority order.
func (f SearchFilters) PreferredModels() []string {
	if len(f.Models) > 0 {
		return f.Models
	}
	if f.Model != "" {
		return []string{f.Model}
	}
	return nil
}

// WantsCondition reports whether a specific new/used condition was requested.
func (f SearchFilters) WantsCondition() bool {
	c := Fold(f.Condition)
	return c == ConditionNew || c == ConditionUsed
}

// IsEmpty reports whether no constraint at all is set.
func (f SearchFilters) IsEmpty() bool {
	return f.PriceRange == nil && len(f.PriceRanges) == 0 && f.Year == 0 &&
		f.Condition == "" && f.Model == "" && len(f.Models) == 0 &&
		f.BodyStyle == "" && f.FuelType == "" && f.Color == "" &&
		f.MileageRange == nil && f.InteriorColor == "" && f.Transmission == "" &&
		len(f.Options) == 0 && f.MinCityMPG == 0 && f.MinHighwayMPG == 0 &&
		f.MinMPG == 0 && f.Engine == "" && f.Drivetrain == "" &&
		f.Status == "" && len(f.DealerIDs) == 0
}
