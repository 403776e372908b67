// Package baseline provides the bundled default configuration. It is the
// terminal fallback of every resolution: when it cannot be loaded no
// configuration can be produced at all.
package baseline

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/lc/ruleconf/internal/config"
)

// Name is the resource name of the bundled document.
const Name = "default-config.yml"

// Version identifies the bundled document revision.
const Version = "1.4.0"

// ErrBaselineLoad is returned when the bundled document is missing or corrupt.
var ErrBaselineLoad = errors.New("baseline configuration could not be loaded")

//go:embed default-config.yml
var document []byte

// Provider loads the baseline configuration.
type Provider interface {
	Load() (config.Config, error)
}

// Embedded loads the document compiled into the binary. Every call parses
// a fresh instance.
type Embedded struct {
	data []byte
}

var _ Provider = Embedded{}

// New returns the provider for the bundled document.
func New() Embedded {
	return Embedded{data: document}
}

// FromBytes returns a provider for an alternative baseline document, used
// by hosts that ship their own defaults.
func FromBytes(data []byte) Embedded {
	return Embedded{data: slices.Clone(data)}
}

// Load parses the baseline document.
func (e Embedded) Load() (config.Config, error) {
	if len(e.data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBaselineLoad, Name)
	}
	doc, err := config.Parse(Name, e.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaselineLoad, err)
	}
	return doc, nil
}

// Bytes returns a copy of the bundled document.
func Bytes() []byte {
	return slices.Clone(document)
}
