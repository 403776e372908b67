// Package resolve produces the effective configuration of a run: declared
// sources are merged with later declarations taking precedence, and the
// result is decorated with the enabled policies in a fixed order.
package resolve

import (
	"errors"

	"github.com/lc/ruleconf/internal/config"
)

// ErrNoSources is returned when Merge is called without configurations.
var ErrNoSources = errors.New("no configuration sources to merge")

// Merge folds configurations given in declaration order into one. Each later
// configuration takes precedence over all earlier ones: for [c0, c1, c2] the
// result consults c2, then c1, then c0. A single configuration is returned
// unchanged.
func Merge(configs ...config.Config) (config.Config, error) {
	if len(configs) == 0 {
		return nil, ErrNoSources
	}

	merged := configs[0]
	for _, c := range configs[1:] {
		merged = config.Composite(c, merged)
	}
	return merged, nil
}
