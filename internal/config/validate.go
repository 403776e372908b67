package config

import (
	"fmt"
	"path"

	"go.uber.org/multierr"
)

// DefaultValidationExcludes lists qualified-key globs that every rule set and
// rule may declare without the baseline mentioning them.
var DefaultValidationExcludes = []string{
	"*>" + ActiveKey,
	"*>" + AutoCorrectKey,
	"*>excludes",
	"*>includes",
	"*>severity",
	"*>aliases",
}

// Validate checks every key declared in c against the schema given by
// baseline. Findings are aggregated; keys matching one of the
// DefaultValidationExcludes or excludes globs are skipped.
func Validate(c, baseline Config, excludes []string) error {
	patterns := make([]string, 0, len(DefaultValidationExcludes)+len(excludes))
	patterns = append(patterns, DefaultValidationExcludes...)
	patterns = append(patterns, excludes...)

	if errs := validateScope(c, baseline, patterns); errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

func validateScope(c, baseline Config, patterns []string) error {
	var errs error
	for _, key := range c.Keys() {
		qualified := joinPath(c.Path(), key)
		if excluded(qualified, patterns) {
			continue
		}

		want, known := baseline.Lookup(key)
		if !known {
			errs = multierr.Append(errs, fmt.Errorf("property '%s' is misspelled or does not exist", qualified))
			continue
		}
		got, _ := c.Lookup(key)

		_, gotNested := got.(map[string]any)
		_, wantNested := want.(map[string]any)
		switch {
		case gotNested && !wantNested:
			errs = multierr.Append(errs, fmt.Errorf("property '%s' is a nested configuration but a value was expected", qualified))
		case !gotNested && wantNested:
			errs = multierr.Append(errs, fmt.Errorf("property '%s' is a value but a nested configuration was expected", qualified))
		case gotNested:
			errs = multierr.Append(errs, validateScope(c.Sub(key), baseline.Sub(key), patterns))
		}
	}
	return errs
}

func excluded(qualified string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, qualified); err == nil && ok {
			return true
		}
	}
	return false
}
