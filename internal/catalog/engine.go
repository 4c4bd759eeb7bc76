// Package catalog answers provider lookups over the embedded DoH provider
// list: name to preset, template to display label.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	pkgcatalog "github.com/HerbHall/dnsswitch/pkg/catalog"
)

// ErrUnknownProvider is returned by Lookup for names not in the catalog.
var ErrUnknownProvider = errors.New("unknown DoH provider")

// Engine looks providers up by name or template.
type Engine struct {
	cat *pkgcatalog.Catalog
}

// NewEngine creates an engine backed by the given catalog.
func NewEngine(cat *pkgcatalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Providers returns every provider in catalog order.
func (e *Engine) Providers() ([]pkgcatalog.Provider, error) {
	return e.cat.Providers()
}

// Lookup returns the provider with the given name, ignoring case.
func (e *Engine) Lookup(name string) (pkgcatalog.Provider, error) {
	providers, err := e.cat.Providers()
	if err != nil {
		return pkgcatalog.Provider{}, err
	}
	for i := range providers {
		if strings.EqualFold(providers[i].Name, name) {
			return providers[i], nil
		}
	}
	return pkgcatalog.Provider{}, fmt.Errorf("%q: %w", name, ErrUnknownProvider)
}

// Label returns the provider name for template, or the template itself when
// no provider uses it. A load failure also falls back to the template.
func (e *Engine) Label(template string) string {
	providers, err := e.cat.Providers()
	if err != nil {
		return template
	}
	want := normalizeTemplate(template)
	for i := range providers {
		if normalizeTemplate(providers[i].Template) == want {
			return providers[i].Name
		}
	}
	return template
}

// normalizeTemplate ignores scheme and host case and a trailing slash.
func normalizeTemplate(t string) string {
	t = strings.TrimSuffix(strings.TrimSpace(t), "/")
	scheme, rest, ok := strings.Cut(t, "://")
	if !ok {
		return t
	}
	host, path, _ := strings.Cut(rest, "/")
	return strings.ToLower(scheme) + "://" + strings.ToLower(host) + "/" + path
}
