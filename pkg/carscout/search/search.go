// Package search runs the form and free-text vehicle searches.
package search

import (
	"context"
	"strings"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/diversify"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/inventory"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/match"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/rank"
)

// MaxFormResults caps the vehicles returned by a form search.
const MaxFormResults = 50

// Inventory is the vehicle source the searches read from.
type Inventory interface {
	Fetch(ctx context.Context, hints inventory.Hints) ([]dal.Vehicle, error)
	FetchModels(ctx context.Context, models []string, hints inventory.Hints) ([]dal.Vehicle, error)
	FindByID(ctx context.Context, id string) (dal.Vehicle, error)
}

// Extractor derives filters from free text.
type Extractor interface {
	Extract(ctx context.Context, description string) (dal.SearchFilters, error)
}

// Service wires the search pipeline together.
type Service struct {
	inventory   Inventory
	extractor   Extractor
	maxPerModel int
	limit       int
}

// NewService creates a service. Non-positive limit falls back to the
// diversification default; maxPerModel is passed through as is.
func NewService(inv Inventory, ex Extractor, maxPerModel, limit int) *Service {
	if limit <= 0 {
		limit = diversify.DefaultLimit
	}
	return &Service{
		inventory:   inv,
		extractor:   ex,
		maxPerModel: maxPerModel,
		limit:       limit,
	}
}

// ByFilters returns the vehicles matching a structured form, capped at
// MaxFormResults, with the uncapped match count.
func (s *Service) ByFilters(ctx context.Context, form dal.FormFilters) (*dal.SearchResponse, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	hints := inventory.Hints{Model: strings.TrimSpace(form.Model)}
	if c := dal.Fold(form.Condition); c == dal.ConditionNew || c == dal.ConditionUsed {
		hints.Condition = c
	}
	vehicles, err := s.inventory.Fetch(ctx, hints)
	if err != nil {
		return nil, err
	}

	matched := match.Filter(vehicles, match.FromForm(form))
	total := len(matched)
	if len(matched) > MaxFormResults {
		matched = matched[:MaxFormResults]
	}
	return &dal.SearchResponse{Success: true, Vehicles: nonNil(matched), Total: total}, nil
}

// ByDescription extracts filters from text, fetches every candidate model,
// applies the hard constraints, ranks and diversifies. Total is the number of
// matches before diversification.
func (s *Service) ByDescription(ctx context.Context, description string) (*dal.DescriptionSearchResponse, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, dal.ValidationError("description is required")
	}

	filters, err := s.extractor.Extract(ctx, description)
	if err != nil {
		return nil, err
	}

	hints := inventory.Hints{DealerIDs: filters.DealerIDs}
	if filters.WantsCondition() {
		hints.Condition = dal.Fold(filters.Condition)
	}
	vehicles, err := s.inventory.FetchModels(ctx, filters.PreferredModels(), hints)
	if err != nil {
		return nil, err
	}

	matched := match.Filter(vehicles, match.FromFilters(filters))
	ranked := rank.Vehicles(rank.Rank(matched, filters))
	selected := diversify.ByModel(ranked, s.maxPerModel, s.limit)

	logging.FromContext(ctx).InfoContext(ctx, "description search",
		"models", filters.PreferredModels(),
		"fetched", len(vehicles),
		"matched", len(matched),
		"returned", len(selected))

	return &dal.DescriptionSearchResponse{
		Success:  true,
		Filters:  filters,
		Vehicles: nonNil(selected),
		Total:    len(matched),
	}, nil
}

// Vehicle looks up one vehicle by id.
func (s *Service) Vehicle(ctx context.Context, id string) (dal.Vehicle, error) {
	return s.inventory.FindByID(ctx, strings.TrimSpace(id))
}

func validateForm(f dal.FormFilters) error {
	if r := f.PriceRange; r != nil {
		if r.Min < 0 || r.Max < 0 {
			return dal.ValidationError("price range must not be negative")
		}
		if r.Bounded() && r.Min > r.Max {
			return dal.ValidationError("price range minimum exceeds maximum")
		}
	}
	if f.YearMin < 0 || f.YearMax < 0 || f.Year < 0 {
		return dal.ValidationError("year must be a positive number")
	}
	if f.YearMin > 0 && f.YearMax > 0 && f.YearMin > f.YearMax {
		return dal.ValidationError("yearMin exceeds yearMax")
	}
	switch dal.Fold(f.Condition) {
	case "", dal.ConditionNew, dal.ConditionUsed, dal.ConditionEither:
	default:
		return dal.ValidationError("condition must be one of new, used or either")
	}
	return nil
}

func nonNil(vs []dal.Vehicle) []dal.Vehicle {
	if vs == nil {
		return []dal.Vehicle{}
	}
	return vs
}
