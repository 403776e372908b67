// Package socket provides the Unix domain socket plumbing between the
// ruleconf CLI and the ruleconfd resolution daemon.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrAddressInUse is returned when another daemon already serves the socket.
	ErrAddressInUse = errors.New("address already in use")
	// ErrNotRunning is returned when no daemon answers and none is starting.
	ErrNotRunning = errors.New("daemon not running")
)

// DaemonName is the executable name of the resolution daemon.
const DaemonName = "ruleconfd"

// DefaultPath returns the socket path used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DaemonName+".socket")
}

// Socket listens on and dials Unix domain sockets.
type Socket struct {
	startupTimeout time.Duration
	retryInterval  time.Duration
	perm           os.FileMode
	procCheck      ProcessChecker
}

// Opt is a function option for configuring a Socket.
type Opt func(s *Socket)

// WithStartupTimeout bounds how long Connect waits for a starting daemon.
func WithStartupTimeout(d time.Duration) Opt {
	return func(s *Socket) { s.startupTimeout = d }
}

// WithRetryInterval sets the pause between connection attempts.
func WithRetryInterval(d time.Duration) Opt {
	return func(s *Socket) { s.retryInterval = d }
}

// WithPermissions sets the mode of the socket file created by Listen.
func WithPermissions(perm os.FileMode) Opt {
	return func(s *Socket) { s.perm = perm }
}

// WithProcessChecker replaces the process table scan used by Connect.
func WithProcessChecker(pc ProcessChecker) Opt {
	return func(s *Socket) { s.procCheck = pc }
}

// New returns a Socket with a 3 second startup timeout, a 100ms retry
// interval and owner-only socket permissions.
func New(opts ...Opt) *Socket {
	s := &Socket{
		startupTimeout: 3 * time.Second,
		retryInterval:  100 * time.Millisecond,
		perm:           0o600,
		procCheck:      PSChecker{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Listen binds path, replacing a stale socket file left by a dead daemon.
func (s *Socket) Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}

	if conn, err := net.Dial("unix", path); err == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("creating socket listener: %w", err)
	}
	if err := os.Chmod(path, s.perm); err != nil {
		ln.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}
	return ln, nil
}

// Connect dials path. While the daemon process is running and the startup
// timeout has not passed, failed attempts are retried.
func (s *Socket) Connect(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(s.startupTimeout)
	var d net.Dialer

	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) || !s.procCheck.IsRunning(DaemonName) {
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryInterval):
		}
	}
}
