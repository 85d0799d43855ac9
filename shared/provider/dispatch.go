package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// Dispatcher routes a request to the HTTP adapter when the provider is
// registered there, otherwise to a stub of the same name.
type Dispatcher struct {
	registry *Registry
	http     *HTTPAdapter
	stubs    map[string]Provider
}

func NewDispatcher(reg *Registry, client *http.Client, stubs ...Stub) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		http:     NewHTTPAdapter(reg, client),
		stubs:    make(map[string]Provider, len(stubs)),
	}
	for _, s := range stubs {
		d.stubs[normalizeKey(s.Name)] = s
	}
	return d
}

func (d *Dispatcher) Supports(key string) bool {
	if d.registry.Has(key) {
		return true
	}
	_, ok := d.stubs[normalizeKey(key)]
	return ok
}

// Keys lists every supported provider key, sorted.
func (d *Dispatcher) Keys() []string {
	seen := make(map[string]struct{})
	for _, k := range d.registry.Keys() {
		seen[k] = struct{}{}
	}
	for k := range d.stubs {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Dispatcher) Generate(ctx context.Context, req Request) (string, error) {
	key := normalizeKey(req.Provider)
	if d.registry.Has(key) {
		return d.http.Generate(ctx, req)
	}
	if stub, ok := d.stubs[key]; ok {
		return stub.Generate(ctx, req)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
}
