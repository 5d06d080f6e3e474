// Package extract turns a free-text vehicle description into SearchFilters
// with the help of a text generation model.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/llm"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
)

//go:embed filters.schema.json
var filtersSchema string

var schema = jsonschema.MustCompileString("filters.schema.json", filtersSchema)

const instructions = `You convert a shopper's description of the vehicle they want into search filters.
Answer with a single JSON object and nothing else. Use only these keys and omit any you cannot infer:
  priceRange {"min": number, "max": number}    single budget in US dollars
  priceRanges [{"min": number, "max": number}] several acceptable budgets
  year number                                  model year
  condition "new" | "used" | "either"
  model string                                 the single most likely model
  models [string]                              candidate models, best first
  bodyStyle string                             e.g. "SUV", "Sedan", "Truck"
  fuelType string                              e.g. "Gasoline", "Hybrid", "Electric"
  color string                                 exterior color
  mileageRange {"min": number, "max": number}
  interiorColor string
  transmission string
  options [string]                             requested features
  minCityMpg number
  minHighwayMpg number
  minMpg number                                overall (average) MPG
  engine string
  drivetrain string                            e.g. "AWD", "FWD", "4WD"
When the shopper names a need instead of a model (for example "a family hauler"), list up to
five fitting models in "models". Never invent dealers or prices the shopper did not imply.`

// Extractor recovers SearchFilters from free text. Failures of the model or
// its output are logged and yield empty filters.
type Extractor struct {
	llm llm.Completer
}

func New(completer llm.Completer) *Extractor {
	return &Extractor{llm: completer}
}

// Extract asks the model for filters. The only error returned is a
// configuration error; every other failure degrades to empty filters.
func (e *Extractor) Extract(ctx context.Context, description string) (dal.SearchFilters, error) {
	log := logging.FromContext(ctx)

	reply, err := e.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instructions},
		{Role: llm.RoleUser, Content: description},
	})
	if err != nil {
		if dal.KindOf(err) == dal.KindConfig {
			return dal.SearchFilters{}, err
		}
		log.WarnContext(ctx, "filter extraction failed, searching without filters", "error", err)
		return dal.SearchFilters{}, nil
	}

	filters, err := Parse(reply)
	if err != nil {
		log.WarnContext(ctx, "discarding malformed filter extraction", "error", err, "reply", truncate(reply, 200))
		return dal.SearchFilters{}, nil
	}
	return filters, nil
}

// Parse validates and coerces raw model output into SearchFilters.
func Parse(reply string) (dal.SearchFilters, error) {
	body, err := jsonObject(reply)
	if err != nil {
		return dal.SearchFilters{}, err
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return dal.SearchFilters{}, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return dal.SearchFilters{}, fmt.Errorf("reply does not match the filter schema: %w", err)
	}
	return coerce(doc.(map[string]any)), nil
}

// jsonObject strips code fences and returns the outermost {...} span.
func jsonObject(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", errors.New("reply contains no JSON object")
	}
	return s[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
