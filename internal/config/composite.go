package config

import "slices"

// CompositeConfig answers lookups from primary and falls back to fallback
// for keys the primary does not define. Chaining composites in the fallback
// position yields an ordered fallback list of arbitrary depth.
type CompositeConfig struct {
	primary  Config
	fallback Config
}

var _ Config = (*CompositeConfig)(nil)

// Composite layers primary over fallback.
func Composite(primary, fallback Config) *CompositeConfig {
	return &CompositeConfig{primary: primary, fallback: fallback}
}

// Primary returns the configuration consulted first.
func (c *CompositeConfig) Primary() Config { return c.primary }

// Fallback returns the configuration consulted when the primary has no answer.
func (c *CompositeConfig) Fallback() Config { return c.fallback }

func (c *CompositeConfig) Path() string { return c.primary.Path() }

func (c *CompositeConfig) Sub(key string) Config {
	return Composite(c.primary.Sub(key), c.fallback.Sub(key))
}

func (c *CompositeConfig) Lookup(key string) (any, bool) {
	if v, ok := c.primary.Lookup(key); ok {
		return v, true
	}
	return c.fallback.Lookup(key)
}

// Keys returns the union of both layers' keys.
func (c *CompositeConfig) Keys() []string {
	keys := append(c.primary.Keys(), c.fallback.Keys()...)
	slices.Sort(keys)
	return slices.Compact(keys)
}
