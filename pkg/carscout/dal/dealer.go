package dal

// Dealer quirk flags understood by the inventory client.
const (
	QuirkUsedOnly   = "used_only"
	QuirkOdometerKm = "odometer_km"
)

// Dealer defines one entry of the static dealership registry
type Dealer struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	SiteIDs    []string        `yaml:"site_ids" json:"-"`
	NewPageID  string          `yaml:"new_page_id" json:"-"`
	UsedPageID string          `yaml:"used_page_id" json:"-"`
	Referer    string          `yaml:"referer" json:"-"`
	Quirks     map[string]bool `yaml:"quirks" json:"-"`
}

// Has reports whether the dealer sets the given quirk flag.
func (d Dealer) Has(quirk string) bool {
	return d.Quirks[quirk]
}

// Location is a point in WGS84 degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbyDealer defines a dealership found around a location
type NearbyDealer struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Rating   float64  `json:"rating,omitempty"`
	OpenNow  *bool    `json:"openNow,omitempty"`
	Location Location `json:"location"`
	Geohash  string   `json:"geohash"`
}
