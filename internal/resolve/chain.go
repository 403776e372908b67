package resolve

import (
	"github.com/lc/ruleconf/internal/baseline"
	"github.com/lc/ruleconf/internal/config"
)

// Policy selects the decorators applied on top of the declared configuration.
type Policy struct {
	BuildUponBaseline bool
	FailFast          bool
	AutoCorrect       bool
}

// baselineCell loads the baseline at most once. A cell lives for a single
// Decorate call and is never shared between calls.
type baselineCell struct {
	provider baseline.Provider
	cfg      config.Config
	err      error
	loaded   bool
}

func (c *baselineCell) get() (config.Config, error) {
	if !c.loaded {
		c.cfg, c.err = c.provider.Load()
		c.loaded = true
	}
	return c.cfg, c.err
}

// Decorate applies the enabled policies to declared, which is nil when no
// source was declared. The order is fixed: build-upon-baseline, fail-fast,
// disable-autocorrect. Merging with the baseline comes first so later
// policies see the merged view; disabling autocorrect comes last so that it
// wins over every inner layer. With nothing declared and no policy enabled
// the baseline itself is returned.
func Decorate(declared config.Config, policy Policy, provider baseline.Provider) (config.Config, error) {
	base := &baselineCell{provider: provider}
	working := declared

	current := func() (config.Config, error) {
		if working != nil {
			return working, nil
		}
		return base.get()
	}

	if policy.BuildUponBaseline {
		primary, err := current()
		if err != nil {
			return nil, err
		}
		b, err := base.get()
		if err != nil {
			return nil, err
		}
		working = config.Composite(primary, b)
	}

	if policy.FailFast {
		inner, err := current()
		if err != nil {
			return nil, err
		}
		b, err := base.get()
		if err != nil {
			return nil, err
		}
		working = config.FailFast(inner, b)
	}

	if !policy.AutoCorrect {
		inner, err := current()
		if err != nil {
			return nil, err
		}
		working = config.DisableAutoCorrect(inner)
	}

	return current()
}
