package dal

// SearchResponse defines the response of the form-filter search
type SearchResponse struct {
	Success  bool      `json:"success"`
	Vehicles []Vehicle `json:"vehicles"`
	Total    int       `json:"total"`
}

// DescriptionSearchResponse defines the response of the free-text search
type DescriptionSearchResponse struct {
	Success  bool          `json:"success"`
	Filters  SearchFilters `json:"filters"`
	Vehicles []Vehicle     `json:"vehicles"`
	Total    int           `json:"total"`
}

// ErrorResponse defines the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FormFilters defines the request body of the form-filter search
type FormFilters struct {
	PriceRange *Range `json:"priceRange,omitempty"`
	YearMin    int    `json:"yearMin,omitempty"`
	YearMax    int    `json:"yearMax,omitempty"`
	Year       int    `json:"year,omitempty"`
	Model      string `json:"model,omitempty"`
	FuelType   string `json:"fuelType,omitempty"`
	BodyStyle  string `json:"bodyStyle,omitempty"`
	Color      string `json:"color,omitempty"`
	Condition  string `json:"condition,omitempty"`
}
