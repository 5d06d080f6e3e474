// Package dealers holds the static registry of dealerships whose inventory
// feeds are searched.
package dealers

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

//go:embed dealers.yaml
var defaultRegistry []byte

type registryFile struct {
	Dealers []dal.Dealer `yaml:"dealers"`
}

// Registry is a read-only set of dealers. It is built once at start and safe
// for concurrent reads.
type Registry struct {
	dealers []dal.Dealer
	byID    map[string]dal.Dealer
}

// Load reads the registry from path, or the built-in registry when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultRegistry
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read dealer registry: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dealer registry: %w", err)
	}
	return New(file.Dealers...)
}

// New builds a registry from dealers, rejecting empty or duplicate ids.
func New(dealers ...dal.Dealer) (*Registry, error) {
	r := &Registry{
		dealers: make([]dal.Dealer, 0, len(dealers)),
		byID:    make(map[string]dal.Dealer, len(dealers)),
	}
	for _, d := range dealers {
		if d.ID == "" {
			return nil, fmt.Errorf("dealer %q has no id", d.Name)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate dealer id %q", d.ID)
		}
		if len(d.SiteIDs) == 0 {
			return nil, fmt.Errorf("dealer %q has no site ids", d.ID)
		}
		r.dealers = append(r.dealers, d)
		r.byID[d.ID] = d
	}
	return r, nil
}

// All returns every dealer in registry order.
func (r *Registry) All() []dal.Dealer {
	out := make([]dal.Dealer, len(r.dealers))
	copy(out, r.dealers)
	return out
}

// Get looks a dealer up by id.
func (r *Registry) Get(id string) (dal.Dealer, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Select resolves ids to dealers, defaulting to all dealers when ids is
// empty. Unknown ids are a validation error.
func (r *Registry) Select(ids []string) ([]dal.Dealer, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	out := make([]dal.Dealer, 0, len(ids))
	for _, id := range ids {
		d, ok := r.byID[id]
		if !ok {
			return nil, dal.ValidationError(fmt.Sprintf("unknown dealer %q", id))
		}
		out = append(out, d)
	}
	return out, nil
}
