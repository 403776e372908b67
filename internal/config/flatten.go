package config

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// Flatten returns every leaf value reachable from c keyed by its qualified
// path. Policy wrappers are honoured because values are read through Lookup.
func Flatten(c Config) map[string]any {
	out := map[string]any{}
	flattenInto(c, out)
	return out
}

func flattenInto(c Config, out map[string]any) {
	for _, key := range c.Keys() {
		v, ok := c.Lookup(key)
		if !ok {
			continue
		}
		if _, nested := v.(map[string]any); nested {
			flattenInto(c.Sub(key), out)
			continue
		}
		out[joinPath(c.Path(), key)] = v
	}
}

// Tree renders c as nested maps, suitable for re-encoding as a document.
func Tree(c Config) map[string]any {
	out := map[string]any{}
	for _, key := range c.Keys() {
		v, ok := c.Lookup(key)
		if !ok {
			continue
		}
		if _, nested := v.(map[string]any); nested {
			out[key] = Tree(c.Sub(key))
			continue
		}
		out[key] = v
	}
	return out
}

// Fingerprint returns a hex BLAKE3 digest of the flattened configuration.
// Two configurations with the same effective values share a fingerprint.
func Fingerprint(c Config) string {
	flat := Flatten(c)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%#v\n", k, flat[k])
	}
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
