package config

import (
	"slices"
	"strings"
)

// nonRuleSections are top-level sections that configure the tool rather
// than a rule set. They never receive an implicit "active" setting.
var nonRuleSections = []string{"build", "config", "processors", "console-reports", "output-reports"}

// isRuleScope reports whether path names a rule set ("style") or a rule
// ("style>MagicNumber").
func isRuleScope(path string) bool {
	if path == "" {
		return false
	}
	parts := strings.Split(path, Separator)
	return len(parts) <= 2 && !slices.Contains(nonRuleSections, parts[0])
}

// FailFastConfig treats every rule set and rule without an explicit
// "active" setting as active. All other lookups are answered by the wrapped
// configuration unchanged. The baseline is kept to validate declared keys.
type FailFastConfig struct {
	working  Config
	baseline Config
}

var (
	_ Config    = (*FailFastConfig)(nil)
	_ Validator = (*FailFastConfig)(nil)
)

// FailFast wraps working and keeps baseline as the validation schema.
func FailFast(working, baseline Config) *FailFastConfig {
	return &FailFastConfig{working: working, baseline: baseline}
}

// Baseline returns the schema this configuration validates against.
func (f *FailFastConfig) Baseline() Config { return f.baseline }

func (f *FailFastConfig) Path() string { return f.working.Path() }

// Keys returns the wrapped keys, plus "active" in rule scopes so that the
// implied setting shows up when the configuration is enumerated.
func (f *FailFastConfig) Keys() []string {
	keys := f.working.Keys()
	if isRuleScope(f.Path()) && !slices.Contains(keys, ActiveKey) {
		keys = append(keys, ActiveKey)
		slices.Sort(keys)
	}
	return keys
}

func (f *FailFastConfig) Sub(key string) Config {
	return FailFast(f.working.Sub(key), f.baseline.Sub(key))
}

func (f *FailFastConfig) Lookup(key string) (any, bool) {
	v, ok := f.working.Lookup(key)
	if key == ActiveKey && !ok && isRuleScope(f.Path()) {
		return true, true
	}
	return v, ok
}

// Validate reports keys of the wrapped configuration that the baseline does
// not know about.
func (f *FailFastConfig) Validate(excludes []string) error {
	return Validate(f.working, f.baseline, excludes)
}

// DisableAutoCorrectConfig reports every "autoCorrect" property as false,
// whatever the wrapped layers declare.
type DisableAutoCorrectConfig struct {
	inner Config
}

var (
	_ Config    = (*DisableAutoCorrectConfig)(nil)
	_ Validator = (*DisableAutoCorrectConfig)(nil)
)

// DisableAutoCorrect wraps inner.
func DisableAutoCorrect(inner Config) *DisableAutoCorrectConfig {
	return &DisableAutoCorrectConfig{inner: inner}
}

func (d *DisableAutoCorrectConfig) Path() string   { return d.inner.Path() }
func (d *DisableAutoCorrectConfig) Keys() []string { return d.inner.Keys() }

func (d *DisableAutoCorrectConfig) Sub(key string) Config {
	return DisableAutoCorrect(d.inner.Sub(key))
}

func (d *DisableAutoCorrectConfig) Lookup(key string) (any, bool) {
	if key == AutoCorrectKey {
		return false, true
	}
	return d.inner.Lookup(key)
}

// Validate forwards to the wrapped configuration when it can validate.
func (d *DisableAutoCorrectConfig) Validate(excludes []string) error {
	if v, ok := d.inner.(Validator); ok {
		return v.Validate(excludes)
	}
	return nil
}
