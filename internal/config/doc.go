// Package config models rule-engine configuration as small immutable values
// that can be layered on top of each other.
//
// A Config answers two questions: what value does a key hold in the current
// scope, and what does the nested scope under a key look like. Scopes are
// addressed with the '>' separator, so the "threshold" property of the
// LongMethod rule in the complexity rule set is "complexity>LongMethod>threshold".
//
// # Variants
//
// The package provides a closed set of Config variants:
//
//   - Document: a leaf parsed from a YAML, JSON(C) or TOML document.
//   - CompositeConfig: a primary/fallback pair. Lookups consult the primary
//     first and fall through to the fallback, which may itself be a composite.
//   - FailFastConfig: reports every rule as active unless the wrapped
//     configuration says otherwise, and validates declared keys against a
//     baseline.
//   - DisableAutoCorrectConfig: reports every "autoCorrect" property as false.
//
// None of the variants mutate the configurations they wrap. Layering always
// produces a new value.
//
// # Basic Usage
//
//	doc, err := config.Parse("detekt.yml", data)
//	if err != nil {
//		return err
//	}
//	merged := config.Composite(doc, baseline)
//	threshold, err := config.ValueOrDefault(config.At(merged, "complexity", "LongMethod"), "threshold", 60)
//
// # Error Handling
//
//   - ErrSourceNotFound: a declared document does not exist
//   - ErrInvalidConfig: a document is malformed or fails validation
//   - ErrTypeMismatch: a typed lookup found a value of an incompatible type
package config
