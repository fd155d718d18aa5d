// Package loader reads game content files: the bonus catalog
package loader

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/models"
)

//go:embed catalog.schema.json
var catalogSchemaSource string

var catalogSchema = jsonschema.MustCompileString("catalog.schema.json", catalogSchemaSource)

var (
	// ErrInvalidCatalog is wrapped by every catalog content error
	ErrInvalidCatalog = errors.New("invalid bonus catalog")
	// ErrUnknownBonus is returned for a name absent from the catalog
	ErrUnknownBonus = errors.New("unknown bonus")
)

// BonusJSON represents one catalog entry
type BonusJSON struct {
	Name  string             `json:"name"`
	Key   *int               `json:"key,omitempty"`
	Ratio map[string]float64 `json:"ratio,omitempty"`
	Limit map[string]float64 `json:"limit,omitempty"`
}

// CatalogJSON represents the whole catalog file
type CatalogJSON struct {
	Bonuses []BonusJSON `json:"bonuses"`
}

type entry struct {
	key   int
	ratio []float64
	limit []float64
}

// Catalog maps bonus names to their game-dimension deltas
type Catalog struct {
	entries map[string]entry
}

// LoadCatalog reads a catalog file, YAML or JSON by extension
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := ParseCatalog(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// ParseCatalog decodes catalog content; format is "yaml", "yml" or "json"
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	var doc any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
	case "yaml", "yml":
		// yaml mappings decode to map[string]any; a JSON round trip gives the validator JSON types
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		data = b
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidCatalog, format)
	}

	if err := catalogSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	var raw CatalogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return newCatalog(raw)
}

func newCatalog(raw CatalogJSON) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]entry, len(raw.Bonuses))}
	keys := make(map[int]string)

	for _, b := range raw.Bonuses {
		if _, dup := c.entries[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bonus %q", ErrInvalidCatalog, b.Name)
		}
		e := entry{key: bonus.NoKey}
		if b.Key != nil {
			if other, taken := keys[*b.Key]; taken {
				return nil, fmt.Errorf("%w: bonus %q reuses key %d of %q", ErrInvalidCatalog, b.Name, *b.Key, other)
			}
			keys[*b.Key] = b.Name
			e.key = *b.Key
		}
		var err error
		if e.ratio, err = amounts(b.Ratio); err != nil {
			return nil, fmt.Errorf("%w: bonus %q ratio: %v", ErrInvalidCatalog, b.Name, err)
		}
		if e.limit, err = amounts(b.Limit); err != nil {
			return nil, fmt.Errorf("%w: bonus %q limit: %v", ErrInvalidCatalog, b.Name, err)
		}
		c.entries[b.Name] = e
	}
	return c, nil
}

func amounts(byName map[string]float64) ([]float64, error) {
	byType := make(map[models.ResourceType]float64, len(byName))
	for name, v := range byName {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			return nil, err
		}
		byType[rt] = v
	}
	return models.FromMap(byType).Values(), nil
}

// Bonus builds a fresh bonus for name. Keyed entries always share their slot;
// unique entries give a new identity on every call.
func (c *Catalog) Bonus(name string) (*bonus.Bonus, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBonus, name)
	}
	if e.key == bonus.NoKey {
		return bonus.NewUnique(e.ratio, e.limit).Named(name), nil
	}
	return bonus.NewKeyed(e.key, e.ratio, e.limit).Named(name), nil
}

// Names returns the catalog entry names, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}
