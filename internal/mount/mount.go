// Package mount keeps a process-wide registry of opened archives so that
// resources addressed inside them can be read repeatedly without reopening.
//
// Mounting is best effort. EnsureMounted never reports an error: a failed
// open is counted and logged, and a later read of the location surfaces the
// problem instead. Mounts persist until Close, across any number of
// independent resolutions.
package mount

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/lc/ruleconf/internal/log"
)

// ErrNotMounted is returned when reading from a location without a mount.
var ErrNotMounted = errors.New("location not mounted")

// Handle is an opened virtual filesystem.
type Handle interface {
	ReadFile(name string) ([]byte, error)
	Close() error
}

// Opener creates a Handle for a location identifier.
type Opener interface {
	Open(location string) (Handle, error)
}

// Mount is one registered handle.
type Mount struct {
	ID        string
	Location  string
	MountedAt time.Time

	handle Handle
}

// Stats summarizes table activity since creation.
type Stats struct {
	Mounts   int   `json:"mounts"`
	Created  int64 `json:"created"`
	Reused   int64 `json:"reused"`
	Failures int64 `json:"failures"`
}

// Table maps location identifiers to open handles. It is safe for
// concurrent use.
type Table struct {
	opener Opener
	group  singleflight.Group

	mu     sync.RWMutex      // protects mounts
	mounts map[string]*Mount // location -> mount

	created  atomic.Int64
	reused   atomic.Int64
	failures atomic.Int64
}

var defaultTable = NewTable(ZipOpener{})

// Default returns the table shared by the whole process.
func Default() *Table {
	return defaultTable
}

// NewTable returns an empty table that opens locations with opener.
func NewTable(opener Opener) *Table {
	return &Table{
		opener: opener,
		mounts: make(map[string]*Mount),
	}
}

// EnsureMounted makes sure location has a mount. It is idempotent and
// never fails; see the package documentation.
func (t *Table) EnsureMounted(location string) {
	if _, ok := t.Lookup(location); ok {
		t.reused.Inc()
		return
	}

	// Concurrent first mounts of the same location share one open.
	_, _, _ = t.group.Do(location, func() (any, error) {
		if _, ok := t.Lookup(location); ok {
			return nil, nil
		}

		h, err := t.opener.Open(location)
		if err != nil {
			t.failures.Inc()
			log.Debug("mount: creation failed", "location", location, "error", err)
			return nil, err
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if _, exists := t.mounts[location]; exists {
			_ = h.Close()
			return nil, nil
		}
		m := &Mount{
			ID:        uuid.NewString(),
			Location:  location,
			MountedAt: time.Now(),
			handle:    h,
		}
		t.mounts[location] = m
		t.created.Inc()
		log.Debug("mount: created", "location", location, "id", m.ID)
		return nil, nil
	})
}

// Lookup returns the mount registered for location.
func (t *Table) Lookup(location string) (*Mount, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.mounts[location]
	return m, ok
}

// ReadFile reads name from the mount registered for location. Close waits
// for reads in progress.
func (t *Table) ReadFile(location, name string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.mounts[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMounted, location)
	}
	return m.handle.ReadFile(name)
}

// Len returns the number of mounts.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.mounts)
}

// Stats returns a snapshot of the table counters.
func (t *Table) Stats() Stats {
	return Stats{
		Mounts:   t.Len(),
		Created:  t.created.Load(),
		Reused:   t.reused.Load(),
		Failures: t.failures.Load(),
	}
}

// Close closes every handle and empties the table.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs error
	for location, m := range t.mounts {
		if err := m.handle.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("closing %s: %w", location, err))
		}
		delete(t.mounts, location)
	}
	return errs
}
