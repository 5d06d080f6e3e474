// Package places finds dealerships around a location through a places
// search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

const (
	DefaultRadius  = 40000
	MaxRadius      = 50000
	MaxResults     = 5
	DefaultTimeout = 5 * time.Second

	geohashPrecision = 7
	placeType        = "car_dealer"
)

// Query locates dealers of a make around a point. RadiusMeters of zero uses
// DefaultRadius.
type Query struct {
	Lat          float64
	Lng          float64
	Make         string
	RadiusMeters int
}

// Validate reports the first invalid field of q.
func (q Query) Validate() error {
	if q.Lat < -90 || q.Lat > 90 {
		return dal.ValidationError(fmt.Sprintf("lat must be between -90 and 90, got %g", q.Lat))
	}
	if q.Lng < -180 || q.Lng > 180 {
		return dal.ValidationError(fmt.Sprintf("lng must be between -180 and 180, got %g", q.Lng))
	}
	if q.RadiusMeters < 0 {
		return dal.ValidationError("radius must not be negative")
	}
	return nil
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client queries the places API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type nearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	Name             string  `json:"name"`
	Vicinity         string  `json:"vicinity"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Geometry struct {
		Location dal.Location `json:"location"`
	} `json:"geometry"`
}

// Nearby returns up to MaxResults dealers around q. The call is abandoned
// after the configured timeout and reported as a timeout error.
func (c *Client) Nearby(ctx context.Context, q Query) ([]dal.NearbyDealer, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, dal.ConfigError("places API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dal.TimeoutError("places search timed out", err)
		}
		return nil, dal.UpstreamError("places search failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dal.UpstreamError(fmt.Sprintf("places search returned status %d", resp.StatusCode), resp.StatusCode, nil)
	}

	var body nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dal.TimeoutError("places search timed out", err)
		}
		return nil, dal.UpstreamError("invalid places response", resp.StatusCode, err)
	}

	switch body.Status {
	case "OK", "":
	case "ZERO_RESULTS":
		return []dal.NearbyDealer{}, nil
	default:
		msg := "places search failed: " + body.Status
		if body.ErrorMessage != "" {
			msg += ": " + body.ErrorMessage
		}
		return nil, dal.UpstreamError(msg, resp.StatusCode, nil)
	}

	out := make([]dal.NearbyDealer, 0, min(len(body.Results), MaxResults))
	for _, r := range body.Results {
		if len(out) == MaxResults {
			break
		}
		out = append(out, toDealer(r))
	}
	return out, nil
}

func (c *Client) buildURL(q Query) string {
	radius := q.RadiusMeters
	if radius == 0 {
		radius = DefaultRadius
	}
	radius = min(radius, MaxRadius)

	keyword := "car dealer"
	if m := strings.TrimSpace(q.Make); m != "" {
		keyword = m + " dealer"
	}

	v := url.Values{}
	v.Set("location", strconv.FormatFloat(q.Lat, 'f', -1, 64)+","+strconv.FormatFloat(q.Lng, 'f', -1, 64))
	v.Set("radius", strconv.Itoa(radius))
	v.Set("keyword", keyword)
	v.Set("type", placeType)
	v.Set("key", c.apiKey)
	return c.baseURL + "/nearbysearch/json?" + v.Encode()
}

func toDealer(r placeResult) dal.NearbyDealer {
	d := dal.NearbyDealer{
		Name:     r.Name,
		Address:  r.Vicinity,
		Rating:   r.Rating,
		Location: r.Geometry.Location,
		Geohash:  geohash.EncodeWithPrecision(r.Geometry.Location.Lat, r.Geometry.Location.Lng, geohashPrecision),
	}
	if d.Address == "" {
		d.Address = r.FormattedAddress
	}
	if r.OpeningHours != nil {
		d.OpenNow = r.OpeningHours.OpenNow
	}
	return d
}
