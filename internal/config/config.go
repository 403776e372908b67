package config

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidConfig is returned when a document cannot be decoded or fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrSourceNotFound is returned when a declared configuration source does not exist.
	ErrSourceNotFound = errors.New("configuration source not found")
	// ErrTypeMismatch is returned when a typed lookup finds an incompatible value.
	ErrTypeMismatch = errors.New("configuration value has unexpected type")
)

const (
	// Separator joins scope names into a qualified key.
	Separator = ">"
	// ActiveKey toggles a rule set or rule.
	ActiveKey = "active"
	// AutoCorrectKey toggles automatic fixes for a rule set or rule.
	AutoCorrectKey = "autoCorrect"
)

// Config is a read-only view over one scope of a configuration.
type Config interface {
	// Sub returns the nested scope stored under key. A missing scope is
	// returned as an empty configuration, never nil.
	Sub(key string) Config
	// Lookup returns the value stored under key in this scope. Values are
	// one of string, bool, int, float64, []any or map[string]any.
	Lookup(key string) (any, bool)
	// Keys returns the sorted keys defined in this scope.
	Keys() []string
	// Path returns the qualified path of this scope, "" for the root.
	Path() string
}

// Validator is implemented by configurations that can check their declared
// keys against a reference schema.
type Validator interface {
	Validate(excludes []string) error
}

// At navigates through nested scopes.
func At(c Config, keys ...string) Config {
	for _, k := range keys {
		c = c.Sub(k)
	}
	return c
}

// LookupPath resolves a qualified key such as "style>MagicNumber>active".
func LookupPath(c Config, qualified string) (any, bool) {
	parts := strings.Split(qualified, Separator)
	return At(c, parts[:len(parts)-1]...).Lookup(parts[len(parts)-1])
}

// Empty returns a configuration without keys rooted at path.
func Empty(path string) Config {
	return &Document{path: path}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + Separator + key
}
