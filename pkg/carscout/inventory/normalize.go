package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

const milesPerKm = 0.621371

type feedResponse struct {
	Vehicles []rawVehicle `json:"vehicles"`
}

// rawVehicle is one listing as the dealer feed reports it.
type rawVehicle struct {
	ID            flexString `json:"id"`
	VIN           string     `json:"vin"`
	Year          flexNumber `json:"year"`
	Make          string     `json:"make"`
	Model         string     `json:"model"`
	Trim          string     `json:"trim"`
	BodyStyle     string     `json:"bodyStyle"`
	ExteriorColor string     `json:"exteriorColor"`
	InteriorColor string     `json:"interiorColor"`
	Transmission  string     `json:"transmission"`
	Engine        string     `json:"engine"`
	Drivetrain    string     `json:"drivetrain"`
	FuelType      string     `json:"fuelType"`
	CityMPG       flexNumber `json:"cityMpg"`
	HighwayMPG    flexNumber `json:"highwayMpg"`
	Odometer      flexNumber `json:"odometer"`
	Mileage       flexNumber `json:"mileage"`
	Price         flexNumber `json:"price"`
	MSRP          flexNumber `json:"msrp"`
	SalePrice     flexNumber `json:"salePrice"`
	Images        []string   `json:"images"`
	ImageURL      string     `json:"imageUrl"`
	Condition     string     `json:"condition"`
	IsNew         *bool      `json:"isNew"`
	Seats         flexNumber `json:"seats"`
	Options       []string   `json:"options"`
	Features      []string   `json:"features"`
	Status        string     `json:"status"`
}

// flexNumber decodes numbers sent as JSON numbers or as strings like "$25,990".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*n = flexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "call") {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*n = flexNumber(f)
	return nil
}

// flexString decodes identifiers sent either as strings or numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// page identifies which inventory page of a dealer site a listing came from.
type page struct {
	siteID string
	pageID string
	isNew  bool
}

// normalize converts a raw listing into the canonical record. idPrefix and
// index build the fallback identifier when the feed has none; idPrefix must be
// unique per request within one fetch.
func normalize(raw rawVehicle, d dal.Dealer, p page, idPrefix string, index int) dal.Vehicle {
	v := dal.Vehicle{
		ID:            string(raw.ID),
		VIN:           strings.ToUpper(strings.TrimSpace(raw.VIN)),
		Year:          int(raw.Year),
		Make:          strings.TrimSpace(raw.Make),
		Model:         strings.TrimSpace(raw.Model),
		Trim:          strings.TrimSpace(raw.Trim),
		BodyStyle:     strings.TrimSpace(raw.BodyStyle),
		ExteriorColor: strings.TrimSpace(raw.ExteriorColor),
		InteriorColor: strings.TrimSpace(raw.InteriorColor),
		Transmission:  strings.TrimSpace(raw.Transmission),
		Engine:        strings.TrimSpace(raw.Engine),
		Drivetrain:    strings.TrimSpace(raw.Drivetrain),
		FuelType:      strings.TrimSpace(raw.FuelType),
		CityMPG:       int(math.Round(float64(raw.CityMPG))),
		HighwayMPG:    int(math.Round(float64(raw.HighwayMPG))),
		Price:         float64(raw.Price),
		SalePrice:     float64(raw.SalePrice),
		ImageURL:      raw.ImageURL,
		Seats:         int(raw.Seats),
		DealerID:      d.ID,
		Options:       raw.Options,
		Status:        strings.TrimSpace(raw.Status),
	}
	if v.ID == "" {
		v.ID = fmt.Sprintf("%s-%d", idPrefix, index)
	}

	odometer := float64(raw.Mileage)
	if odometer == 0 {
		odometer = float64(raw.Odometer)
	}
	if d.Has(dal.QuirkOdometerKm) {
		odometer *= milesPerKm
	}
	v.Mileage = int(math.Round(odometer))

	if v.Price == 0 {
		v.Price = float64(raw.MSRP)
	}
	if v.SalePrice >= v.Price {
		v.SalePrice = 0
	}
	if v.ImageURL == "" && len(raw.Images) > 0 {
		v.ImageURL = raw.Images[0]
	}
	if len(v.Options) == 0 {
		v.Options = raw.Features
	}

	switch {
	case raw.IsNew != nil:
		v.IsNew = *raw.IsNew
	case raw.Condition != "":
		v.IsNew = dal.EqualFold(raw.Condition, dal.ConditionNew)
	default:
		v.IsNew = p.isNew
	}
	if d.Has(dal.QuirkUsedOnly) {
		v.IsNew = false
	}
	return v
}
