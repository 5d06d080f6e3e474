package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/assistant"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/places"
)

type fakeSearch struct {
	form        dal.FormFilters
	description string
	err         error
}

func (f *fakeSearch) ByFilters(_ context.Context, form dal.FormFilters) (*dal.SearchResponse, error) {
	f.form = form
	if f.err != nil {
		return nil, f.err
	}
	return &dal.SearchResponse{Success: true, Vehicles: []dal.Vehicle{{ID: "v1", Model: "Camry"}}, Total: 7}, nil
}

func (f *fakeSearch) ByDescription(_ context.Context, description string) (*dal.DescriptionSearchResponse, error) {
	f.description = description
	if f.err != nil {
		return nil, f.err
	}
	return &dal.DescriptionSearchResponse{
		Success:  true,
		Filters:  dal.SearchFilters{Model: "Camry"},
		Vehicles: []dal.Vehicle{{ID: "v1", Model: "Camry"}},
		Total:    4,
	}, nil
}

func (f *fakeSearch) Vehicle(_ context.Context, id string) (dal.Vehicle, error) {
	if id != "v1" {
		return dal.Vehicle{}, dal.NotFoundError("vehicle " + id + " not found")
	}
	return dal.Vehicle{ID: "v1", Model: "Camry"}, nil
}

type fakeAssistant struct {
	req    assistant.Request
	chunks []string
	err    error
}

func (f *fakeAssistant) Reply(_ context.Context, req assistant.Request) (string, error) {
	f.req = req
	return strings.Join(f.chunks, ""), f.err
}

func (f *fakeAssistant) Stream(_ context.Context, req assistant.Request, onChunk func(string) error) error {
	f.req = req
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return f.err
}

type fakePlaces struct {
	query  places.Query
	called bool
	err    error
}

func (f *fakePlaces) Nearby(_ context.Context, q places.Query) ([]dal.NearbyDealer, error) {
	f.query, f.called = q, true
	if f.err != nil {
		return nil, f.err
	}
	return []dal.NearbyDealer{{Name: "Bayside Toyota", Geohash: "9q8yyk8"}}, nil
}

type fakeDealers []dal.Dealer

func (f fakeDealers) All() []dal.Dealer { return f }

type fixture struct {
	search    *fakeSearch
	assistant *fakeAssistant
	places    *fakePlaces
	ts        *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		search:    &fakeSearch{},
		assistant: &fakeAssistant{chunks: []string{"Hello ", "there"}},
		places:    &fakePlaces{},
	}
	f.ts = httptest.NewServer(NewHandler(Options{
		Search:         f.search,
		Assistant:      f.assistant,
		Places:         f.places,
		Dealers:        fakeDealers{{ID: "bayside-toyota", Name: "Bayside Toyota", SiteIDs: []string{"secret"}}},
		Logger:         logging.Discard(),
		AllowedOrigins: []string{"http://localhost:5173"},
	}))
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestServer(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{
			name:   "SearchByFilters",
			method: http.MethodPost,
			path:   "/api/search",
			body:   `{"model":"Camry","priceRange":{"min":20000,"max":30000}}`,
			status: http.StatusOK,
			want:   `{"success":true,"vehicles":[{"id":"v1","year":0,"make":"","model":"Camry","mileage":0,"price":0,"isNew":false}],"total":7}`,
		},
		{
			name:   "SearchByDescription",
			method: http.MethodPost,
			path:   "/api/search/description",
			body:   `{"description":"a reliable sedan"}`,
			status: http.StatusOK,
			want:   `{"success":true,"filters":{"model":"Camry"},"vehicles":[{"id":"v1","year":0,"make":"","model":"Camry","mileage":0,"price":0,"isNew":false}],"total":4}`,
		},
		{
			name:   "GetVehicle",
			method: http.MethodGet,
			path:   "/api/vehicles/v1",
			status: http.StatusOK,
			want:   `{"success":true,"vehicle":{"id":"v1","year":0,"make":"","model":"Camry","mileage":0,"price":0,"isNew":false}}`,
		},
		{
			name:   "GetVehicleNotFound",
			method: http.MethodGet,
			path:   "/api/vehicles/nope",
			status: http.StatusNotFound,
			want:   `{"success":false,"error":"vehicle nope not found"}`,
		},
		{
			name:   "ListDealers",
			method: http.MethodGet,
			path:   "/api/dealers",
			status: http.StatusOK,
			want:   `[{"id":"bayside-toyota","name":"Bayside Toyota"}]`,
		},
		{
			name:   "NearbyDealers",
			method: http.MethodGet,
			path:   "/api/dealers/nearby?lat=37.77&lng=-122.41&make=Toyota",
			status: http.StatusOK,
			want:   `{"success":true,"dealers":[{"name":"Bayside Toyota","address":"","location":{"lat":0,"lng":0},"geohash":"9q8yyk8"}]}`,
		},
		{
			name:   "Finance",
			method: http.MethodPost,
			path:   "/api/finance",
			body:   `{"price":24000,"termMonths":48}`,
			status: http.StatusOK,
			want:   `{"success":true,"quote":{"amountFinanced":24000,"monthlyPayment":500,"totalInterest":0,"totalCost":24000}}`,
		},
		{
			name:   "FinanceInvalid",
			method: http.MethodPost,
			path:   "/api/finance",
			body:   `{"price":24000,"termMonths":0}`,
			status: http.StatusBadRequest,
			want:   `{"success":false,"error":"term must be between 1 and 96 months"}`,
		},
		{
			name:   "Assistant",
			method: http.MethodPost,
			path:   "/api/assistant",
			body:   `{"messages":[{"role":"user","content":"hi"}],"query":"sedan"}`,
			status: http.StatusOK,
			want:   `{"success":true,"reply":"Hello there"}`,
		},
		{
			name:   "Health",
			method: http.MethodGet,
			path:   "/healthz",
			status: http.StatusOK,
			want:   `{"status":"ok"}`,
		},
		{
			name:   "UnknownRoute",
			method: http.MethodGet,
			path:   "/api/nothing",
			status: http.StatusNotFound,
			want:   `{"success":false,"error":"route not found","details":"/api/nothing"}`,
		},
		{
			name:   "WrongMethod",
			method: http.MethodGet,
			path:   "/api/search",
			status: http.StatusMethodNotAllowed,
			want:   `{"success":false,"error":"method not allowed","details":"GET"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.JSONEq(t, tc.want, string(body))
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}

	assert.Equal(t, "a reliable sedan", f.search.description)
	assert.Equal(t, "Camry", f.search.form.Model)
	assert.Equal(t, places.Query{Lat: 37.77, Lng: -122.41, Make: "Toyota"}, f.places.query)
	assert.Equal(t, "sedan", f.assistant.req.Query)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		details string
	}{
		{name: "upstream", err: dal.UpstreamError("inventory request failed", 503, io.ErrUnexpectedEOF), status: http.StatusBadGateway, message: "inventory request failed", details: "unexpected EOF"},
		{name: "config", err: dal.ConfigError("text generation API key is not configured"), status: http.StatusInternalServerError, message: "server configuration error", details: "text generation API key is not configured"},
		{name: "validation", err: dal.ValidationError("description is required"), status: http.StatusBadRequest, message: "description is required"},
		{name: "timeout", err: dal.TimeoutError("places search timed out", context.DeadlineExceeded), status: http.StatusGatewayTimeout, message: "places search timed out", details: "context deadline exceeded"},
		{name: "unclassified", err: io.ErrClosedPipe, status: http.StatusInternalServerError, message: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.search.err = tt.err

			resp, body := f.do(t, http.MethodPost, "/api/search/description", `{"description":"x"}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			got := decode[dal.ErrorResponse](t, body)
			assert.False(t, got.Success)
			assert.Equal(t, tt.message, got.Error)
			assert.Equal(t, tt.details, got.Details)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPost, "/api/search", `{"model":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dal.ErrorResponse](t, body).Error, "invalid request body")
}

func TestNearbyValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "missing lat", path: "/api/dealers/nearby?lng=1"},
		{name: "missing lng", path: "/api/dealers/nearby?lat=1"},
		{name: "bad lat", path: "/api/dealers/nearby?lat=north&lng=1"},
		{name: "bad radius", path: "/api/dealers/nearby?lat=1&lng=1&radius=far"},
		{name: "negative radius", path: "/api/dealers/nearby?lat=1&lng=1&radius=-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, _ := f.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, f.places.called)
		})
	}
}

func TestNearbyTimeout(t *testing.T) {
	f := newFixture(t)
	f.places.err = dal.TimeoutError("places search timed out", context.DeadlineExceeded)
	resp, _ := f.do(t, http.MethodGet, "/api/dealers/nearby?lat=1&lng=1&radius=2000", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, 2000, f.places.query.RadiusMeters)
}

func TestAssistantStream(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPost, "/api/assistant", `{"query":"sedan","stream":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Hello there", string(body))
}

func TestAssistantStreamWithoutChunks(t *testing.T) {
	f := newFixture(t)
	f.assistant.chunks = nil

	resp, body := f.do(t, http.MethodPost, "/api/assistant", `{"query":"sedan","stream":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Empty(t, body)
}

func TestAssistantStreamErrorBeforeFirstChunk(t *testing.T) {
	f := newFixture(t)
	f.assistant.chunks = nil
	f.assistant.err = dal.ConfigError("text generation API key is not configured")

	resp, body := f.do(t, http.MethodPost, "/api/assistant", `{"query":"sedan","stream":true}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "server configuration error", decode[dal.ErrorResponse](t, body).Error)
}

func TestTraceID(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/healthz", "")
	assert.Len(t, resp.Header.Get(traceHeader), 36)

	const id = "1f0c6a2e-4b8d-4c53-9d1e-6c1f1b2a3c4d"
	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(traceHeader, id)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(traceHeader))
}

func TestLoggerMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(logging.Config{Writer: &buf, Format: "json"})

	var traceID string
	h := LoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = logging.TraceIDFromContext(r.Context())
		logging.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, traceID)
	assert.Contains(t, buf.String(), `"msg":"inside"`)
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
	assert.Contains(t, buf.String(), `"status_code":418`)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/search", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
