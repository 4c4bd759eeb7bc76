// Package catalog holds the embedded list of well-known DNS-over-HTTPS
// providers. It is used for labeling and presets only; it never decides
// what gets configured.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var providersRawData []byte

// Provider is one public DoH service.
type Provider struct {
	Name        string   `yaml:"name" json:"name"`
	Template    string   `yaml:"template" json:"template"`
	Servers     []string `yaml:"servers" json:"servers"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// providersFile is the top-level structure of the embedded YAML.
type providersFile struct {
	Providers []Provider `yaml:"providers"`
}

// Catalog provides lazy-loaded access to the embedded provider list.
type Catalog struct {
	once      sync.Once
	raw       []byte
	providers []Provider
	err       error
}

// NewCatalog creates a Catalog that parses the embedded YAML on first access.
func NewCatalog() *Catalog {
	return &Catalog{raw: providersRawData}
}

// NewCatalogFromYAML creates a Catalog over caller-supplied YAML in the same
// format as the embedded file.
func NewCatalogFromYAML(data []byte) *Catalog {
	return &Catalog{raw: data}
}

// Providers returns a copy of all providers in file order.
func (c *Catalog) Providers() ([]Provider, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	cp := make([]Provider, len(c.providers))
	copy(cp, c.providers)
	return cp, nil
}

// load parses the YAML provider data.
func (c *Catalog) load() {
	var f providersFile
	if err := yaml.Unmarshal(c.raw, &f); err != nil {
		c.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	for i, p := range f.Providers {
		if p.Name == "" || p.Template == "" {
			c.err = fmt.Errorf("catalog: provider %d: name and template are required", i)
			return
		}
	}
	c.providers = f.Providers
}
