package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/inventory"
)

type fakeInventory struct {
	vehicles []dal.Vehicle
	err      error

	hints  inventory.Hints
	models []string
}

func (f *fakeInventory) Fetch(_ context.Context, hints inventory.Hints) ([]dal.Vehicle, error) {
	f.hints = hints
	return f.vehicles, f.err
}

func (f *fakeInventory) FetchModels(_ context.Context, models []string, hints inventory.Hints) ([]dal.Vehicle, error) {
	f.models, f.hints = models, hints
	return f.vehicles, f.err
}

func (f *fakeInventory) FindByID(_ context.Context, id string) (dal.Vehicle, error) {
	for _, v := range f.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return dal.Vehicle{}, dal.NotFoundError("vehicle " + id + " not found")
}

type fakeExtractor struct {
	filters dal.SearchFilters
	err     error
}

func (f fakeExtractor) Extract(context.Context, string) (dal.SearchFilters, error) {
	return f.filters, f.err
}

func TestByDescriptionCamryScenario(t *testing.T) {
	inv := &fakeInventory{vehicles: []dal.Vehicle{
		{ID: "corolla", Model: "Corolla", Price: 22000, IsNew: true},
		{ID: "camry-used", Model: "Camry", Price: 29900, Mileage: 20000},
		{ID: "camry-new", Model: "Camry", Price: 25000, IsNew: true},
	}}
	ex := fakeExtractor{filters: dal.SearchFilters{
		Models:     []string{"Camry", "Corolla"},
		PriceRange: &dal.Range{Min: 20000, Max: 30000},
	}}

	resp, err := NewService(inv, ex, 3, 10).ByDescription(context.Background(), "  a midsize toyota  ")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, ex.filters, resp.Filters)
	assert.Equal(t, []string{"Camry", "Corolla"}, inv.models)
	assert.Equal(t, []string{"camry-new", "camry-used", "corolla"}, ids(resp.Vehicles))
}

func TestByDescriptionHardConstraints(t *testing.T) {
	inv := &fakeInventory{vehicles: []dal.Vehicle{
		{ID: "hybrid", Model: "RAV4", FuelType: "Hybrid", Price: 35000, Mileage: 15000},
		{ID: "gas", Model: "RAV4", FuelType: "Gasoline", Price: 30000, Mileage: 15000},
		{ID: "new", Model: "RAV4", FuelType: "Hybrid", Price: 38000, IsNew: true},
	}}
	ex := fakeExtractor{filters: dal.SearchFilters{Model: "RAV4", FuelType: "hybrid", Condition: "Used"}}

	resp, err := NewService(inv, ex, 3, 10).ByDescription(context.Background(), "used hybrid rav4")
	require.NoError(t, err)
	assert.Equal(t, dal.ConditionUsed, inv.hints.Condition)
	assert.Equal(t, []string{"hybrid"}, ids(resp.Vehicles))
	assert.Equal(t, 1, resp.Total)
}

func TestByDescriptionDiversifies(t *testing.T) {
	var vs []dal.Vehicle
	for i := 0; i < 5; i++ {
		vs = append(vs, dal.Vehicle{ID: fmt.Sprintf("a%d", i), Model: "Accord", Price: float64(20000 + i)})
	}
	vs = append(vs, dal.Vehicle{ID: "b0", Model: "Civic", Price: 30000})

	inv := &fakeInventory{vehicles: vs}
	resp, err := NewService(inv, fakeExtractor{}, 2, 3).ByDescription(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, 6, resp.Total)
	assert.Equal(t, []string{"a0", "a1", "b0"}, ids(resp.Vehicles))
}

func TestByDescriptionEmptyFilters(t *testing.T) {
	inv := &fakeInventory{vehicles: []dal.Vehicle{{ID: "x", Model: "Civic", Price: 1}}}
	resp, err := NewService(inv, fakeExtractor{}, 3, 10).ByDescription(context.Background(), "???")
	require.NoError(t, err)
	assert.True(t, resp.Filters.IsEmpty())
	assert.Empty(t, inv.models)
	assert.Equal(t, []string{"x"}, ids(resp.Vehicles))
}

func TestByDescriptionErrors(t *testing.T) {
	svc := NewService(&fakeInventory{}, fakeExtractor{}, 3, 10)
	_, err := svc.ByDescription(context.Background(), "   ")
	assert.Equal(t, dal.KindValidation, dal.KindOf(err))

	svc = NewService(&fakeInventory{}, fakeExtractor{err: dal.ConfigError("no key")}, 3, 10)
	_, err = svc.ByDescription(context.Background(), "sedan")
	assert.Equal(t, dal.KindConfig, dal.KindOf(err))

	svc = NewService(&fakeInventory{err: dal.UpstreamError("down", 503, nil)}, fakeExtractor{}, 3, 10)
	_, err = svc.ByDescription(context.Background(), "sedan")
	assert.Equal(t, dal.KindUpstream, dal.KindOf(err))
}

func TestByFilters(t *testing.T) {
	inv := &fakeInventory{vehicles: []dal.Vehicle{
		{ID: "1", Model: "Camry", Year: 2020, Price: 21000, Mileage: 12000},
		{ID: "2", Model: "Camry", Year: 2022, Price: 26000, Mileage: 12000},
		{ID: "3", Model: "Camry", Year: 2022, Price: 40000, Mileage: 12000},
		{ID: "4", Model: "Camry", Year: 2022, Price: 25000, IsNew: true},
	}}
	resp, err := NewService(inv, nil, 3, 10).ByFilters(context.Background(), dal.FormFilters{
		Model:      "Camry",
		Year:       2022,
		PriceRange: &dal.Range{Min: 20000, Max: 30000},
		Condition:  "USED",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(resp.Vehicles))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, inventory.Hints{Model: "Camry", Condition: dal.ConditionUsed}, inv.hints)
}

func TestByFiltersCapsResults(t *testing.T) {
	var vs []dal.Vehicle
	for i := 0; i < 70; i++ {
		vs = append(vs, dal.Vehicle{ID: fmt.Sprint(i), Model: "Civic", Price: 10000})
	}
	resp, err := NewService(&fakeInventory{vehicles: vs}, nil, 3, 10).ByFilters(context.Background(), dal.FormFilters{})
	require.NoError(t, err)
	assert.Len(t, resp.Vehicles, MaxFormResults)
	assert.Equal(t, 70, resp.Total)
}

func TestByFiltersEmptyResultIsNotNull(t *testing.T) {
	resp, err := NewService(&fakeInventory{}, nil, 3, 10).ByFilters(context.Background(), dal.FormFilters{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Vehicles)
	assert.Zero(t, resp.Total)
}

func TestByFiltersValidation(t *testing.T) {
	tests := []struct {
		name string
		form dal.FormFilters
	}{
		{name: "inverted price", form: dal.FormFilters{PriceRange: &dal.Range{Min: 5, Max: 1}}},
		{name: "negative price", form: dal.FormFilters{PriceRange: &dal.Range{Min: -5}}},
		{name: "inverted years", form: dal.FormFilters{YearMin: 2022, YearMax: 2020}},
		{name: "negative year", form: dal.FormFilters{Year: -1}},
		{name: "bad condition", form: dal.FormFilters{Condition: "mint"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(&fakeInventory{}, nil, 3, 10).ByFilters(context.Background(), tt.form)
			assert.Equal(t, dal.KindValidation, dal.KindOf(err))
		})
	}
}

func TestVehicle(t *testing.T) {
	svc := NewService(&fakeInventory{vehicles: []dal.Vehicle{{ID: "abc"}}}, nil, 3, 10)

	v, err := svc.Vehicle(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", v.ID)

	_, err = svc.Vehicle(context.Background(), "zzz")
	assert.Equal(t, dal.KindNotFound, dal.KindOf(err))
}

func ids(vs []dal.Vehicle) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}
