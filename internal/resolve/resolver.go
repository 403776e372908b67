package resolve

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lc/ruleconf/internal/baseline"
	"github.com/lc/ruleconf/internal/config"
	"github.com/lc/ruleconf/internal/filesys"
	"github.com/lc/ruleconf/internal/log"
	"github.com/lc/ruleconf/internal/mount"
	"github.com/lc/ruleconf/internal/resource"
)

// Options describe one resolution run.
type Options struct {
	// ConfigPaths are documents on disk, in declaration order.
	ConfigPaths []string
	// ConfigResources are resource names looked up on the classpath. They
	// are ignored when ConfigPaths is not empty.
	ConfigResources []string
	// Classpath replaces the resolver's resource roots for this run when set.
	Classpath []string

	BuildUponBaseline bool
	FailFast          bool
	AutoCorrect       bool
}

func (o Options) policy() Policy {
	return Policy{
		BuildUponBaseline: o.BuildUponBaseline,
		FailFast:          o.FailFast,
		AutoCorrect:       o.AutoCorrect,
	}
}

// ResourceLocator finds every location of a resource name.
type ResourceLocator interface {
	Resolve(name string) ([]resource.Location, error)
}

// ResourceLoader loads a located resource.
type ResourceLoader interface {
	Load(loc resource.Location) (config.Config, error)
}

// Resolver turns Options into an effective configuration.
type Resolver struct {
	fs        filesys.ReadFS
	paths     config.Loader
	locator   ResourceLocator
	resources ResourceLoader
	baseline  baseline.Provider
}

// Opt is a function option for configuring the Resolver.
type Opt func(r *Resolver)

// WithPathLoader sets the loader used for declared paths.
func WithPathLoader(l config.Loader) Opt {
	return func(r *Resolver) {
		r.paths = l
	}
}

// WithResources sets how resource names are located and loaded.
func WithResources(locator ResourceLocator, loader ResourceLoader) Opt {
	return func(r *Resolver) {
		r.locator = locator
		r.resources = loader
	}
}

// WithBaseline replaces the bundled baseline provider.
func WithBaseline(p baseline.Provider) Opt {
	return func(r *Resolver) {
		r.baseline = p
	}
}

// New returns a Resolver reading from the local disk, resolving resources
// against $RULECONF_CLASSPATH unless a run sets Options.Classpath, and
// mounting archives in the process-wide mount table.
func New(opts ...Opt) *Resolver {
	osfs := filesys.OS()
	r := &Resolver{
		fs:        osfs,
		paths:     config.NewFileLoader(osfs),
		locator:   resource.NewLocator(osfs, resource.ClasspathFromEnv()...),
		resources: resource.NewLoader(mount.Default(), osfs),
		baseline:  baseline.New(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve loads the declared sources, merges them and applies the enabled
// policies. With fail-fast enabled the result is validated against the
// baseline. Errors are returned unchanged; no partial configuration is
// returned alongside an error.
func (r *Resolver) Resolve(opts Options) (config.Config, error) {
	declared, err := r.loadDeclared(opts)
	if err != nil {
		return nil, err
	}

	final, err := Decorate(declared, opts.policy(), r.baseline)
	if err != nil {
		return nil, err
	}

	if v, ok := final.(config.Validator); ok && opts.FailFast {
		excludes, err := config.ValueOrDefault(final.Sub("config"), "excludes", []string{})
		if err != nil {
			return nil, err
		}
		if err := v.Validate(excludes); err != nil {
			return nil, err
		}
	}

	log.Debug("resolve: configuration resolved",
		"paths", len(opts.ConfigPaths),
		"resources", len(opts.ConfigResources),
		"buildUponBaseline", opts.BuildUponBaseline,
		"failFast", opts.FailFast,
		"autoCorrect", opts.AutoCorrect,
	)
	return final, nil
}

func (r *Resolver) loadDeclared(opts Options) (config.Config, error) {
	switch {
	case len(opts.ConfigPaths) > 0:
		if len(opts.ConfigResources) > 0 {
			log.Warn("resolve: config resources ignored because config paths were declared",
				"resources", opts.ConfigResources)
		}
		return r.loadPaths(opts.ConfigPaths)
	case len(opts.ConfigResources) > 0:
		locator := r.locator
		if len(opts.Classpath) > 0 {
			locator = resource.NewLocator(r.fs, opts.Classpath...)
		}
		return r.loadResources(locator, opts.ConfigResources)
	default:
		return nil, nil
	}
}

// loadPaths reads documents concurrently but merges them in declaration order.
func (r *Resolver) loadPaths(paths []string) (config.Config, error) {
	loaded := make([]config.Config, len(paths))

	var grp errgroup.Group
	for i, p := range paths {
		grp.Go(func() error {
			c, err := r.paths.Load(p)
			if err != nil {
				return err
			}
			loaded[i] = c
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return Merge(loaded...)
}

func (r *Resolver) loadResources(locator ResourceLocator, names []string) (config.Config, error) {
	var loaded []config.Config
	for _, name := range names {
		locations, err := locator.Resolve(name)
		if err != nil {
			return nil, err
		}
		if len(locations) == 0 {
			return nil, fmt.Errorf("%w: %s", resource.ErrEmptyResourceSet, name)
		}
		for _, loc := range locations {
			c, err := r.resources.Load(loc)
			if err != nil {
				return nil, err
			}
			loaded = append(loaded, c)
		}
	}
	return Merge(loaded...)
}
