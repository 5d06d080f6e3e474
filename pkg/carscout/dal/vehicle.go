package dal

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// NewMileageThreshold is the odometer reading below which a vehicle counts as new
// even when the feed does not flag it.
const NewMileageThreshold = 100

const (
	ConditionNew    = "new"
	ConditionUsed   = "used"
	ConditionEither = "either"
)

// Vehicle defines the canonical vehicle listing built from a dealer feed
type Vehicle struct {
	ID            string   `json:"id"`
	VIN           string   `json:"vin,omitempty"`
	Year          int      `json:"year"`
	Make          string   `json:"make"`
	Model         string   `json:"model"`
	Trim          string   `json:"trim,omitempty"`
	BodyStyle     string   `json:"bodyStyle,omitempty"`
	ExteriorColor string   `json:"exteriorColor,omitempty"`
	InteriorColor string   `json:"interiorColor,omitempty"`
	Transmission  string   `json:"transmission,omitempty"`
	Engine        string   `json:"engine,omitempty"`
	Drivetrain    string   `json:"drivetrain,omitempty"`
	FuelType      string   `json:"fuelType,omitempty"`
	CityMPG       int      `json:"cityMpg,omitempty"`
	HighwayMPG    int      `json:"highwayMpg,omitempty"`
	Mileage       int      `json:"mileage"`
	Price         float64  `json:"price"`
	SalePrice     float64  `json:"salePrice,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	IsNew         bool     `json:"isNew"`
	Seats         int      `json:"seats,omitempty"`
	DealerID      string   `json:"dealerId,omitempty"`
	Options       []string `json:"options,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// EffectivePrice is the discounted price when the dealer advertises one.
func (v Vehicle) EffectivePrice() float64 {
	if v.SalePrice > 0 {
		return v.SalePrice
	}
	return v.Price
}

// AverageMPG is the mean of city and highway fuel economy.
func (v Vehicle) AverageMPG() float64 {
	return float64(v.CityMPG+v.HighwayMPG) / 2
}

// Condition reports "new" for flagged or practically unused vehicles and "used" otherwise.
func (v Vehicle) Condition() string {
	if v.IsNew || v.Mileage < NewMileageThreshold {
		return ConditionNew
	}
	return ConditionUsed
}

// Title is a short human readable label, e.g. "2024 Toyota Camry LE".
func (v Vehicle) Title() string {
	parts := make([]string, 0, 4)
	if v.Year > 0 {
		parts = append(parts, strconv.Itoa(v.Year))
	}
	for _, p := range []string{v.Make, v.Model, v.Trim} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Fold returns the case-folded, trimmed form of s used for every
// case-insensitive comparison in the service.
func Fold(s string) string {
	// a Caser keeps state, so it is not shared across goroutines
	return cases.Fold().String(strings.TrimSpace(s))
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
