package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

// coerce maps a schema-valid document onto SearchFilters, normalising the
// loose shapes models like to produce.
func coerce(doc map[string]any) dal.SearchFilters {
	f := dal.SearchFilters{
		PriceRange:    toRange(doc["priceRange"]),
		Condition:     toCondition(doc["condition"]),
		Model:         toText(doc["model"]),
		Models:        toTextList(doc["models"]),
		BodyStyle:     toText(doc["bodyStyle"]),
		FuelType:      toText(doc["fuelType"]),
		Color:         toText(doc["color"]),
		MileageRange:  toRange(doc["mileageRange"]),
		InteriorColor: toText(doc["interiorColor"]),
		Transmission:  toText(doc["transmission"]),
		Options:       toTextList(doc["options"]),
		Engine:        toText(doc["engine"]),
		Drivetrain:    toText(doc["drivetrain"]),
		Status:        toText(doc["status"]),
		DealerIDs:     toTextList(doc["dealerIds"]),
	}
	if year, ok := toNumber(doc["year"]); ok && year >= 1900 && year <= 2100 {
		f.Year = int(year)
	}
	if v, ok := toNumber(doc["minCityMpg"]); ok && v > 0 {
		f.MinCityMPG = v
	}
	if v, ok := toNumber(doc["minHighwayMpg"]); ok && v > 0 {
		f.MinHighwayMPG = v
	}
	if v, ok := toNumber(doc["minMpg"]); ok && v > 0 {
		f.MinMPG = v
	}
	if list, ok := doc["priceRanges"].([]any); ok {
		for _, item := range list {
			if r := toRange(item); r != nil {
				f.PriceRanges = append(f.PriceRanges, *r)
			}
		}
	}
	if f.Model == "" && len(f.Models) == 1 {
		f.Model = f.Models[0]
	}
	return f
}

func toText(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toTextList(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		// "Camry, Accord" is a common shape for a list
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case []any:
		for _, item := range t {
			if p := toText(item); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func toCondition(v any) string {
	switch dal.Fold(toText(v)) {
	case "new", "brand new":
		return dal.ConditionNew
	case "used", "pre-owned", "preowned", "certified", "certified pre-owned":
		return dal.ConditionUsed
	case "either", "any", "both":
		return dal.ConditionEither
	}
	return ""
}

func toRange(v any) *dal.Range {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	lo, hasMin := toNumber(m["min"])
	hi, hasMax := toNumber(m["max"])
	if !hasMin && !hasMax {
		return nil
	}
	r := &dal.Range{Min: math.Max(0, lo), Max: math.Max(0, hi)}
	if r.Bounded() && r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

// toNumber accepts JSON numbers and strings such as "25k", "$30,000" or "2.5K".
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return parseAmount(t)
	}
	return 0, false
}

func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", " ", "", "usd", "").Replace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n * mult, true
}
