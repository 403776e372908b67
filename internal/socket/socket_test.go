package socket_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/ruleconf/internal/socket"
)

type fakeProcesses struct {
	running bool
	queried []string
}

func (f *fakeProcesses) IsRunning(name string) bool {
	f.queried = append(f.queried, name)
	return f.running
}

type SocketTestSuite struct {
	suite.Suite
	path  string
	procs *fakeProcesses
	sock  *socket.Socket
}

func (s *SocketTestSuite) SetupTest() {
	// Unix socket paths are length limited, so stay out of t.TempDir.
	dir, err := os.MkdirTemp("", "ruleconfd-*")
	s.Require().NoError(err)
	s.T().Cleanup(func() { os.RemoveAll(dir) })

	s.path = filepath.Join(dir, "d.sock")
	s.procs = &fakeProcesses{running: true}
	s.sock = socket.New(
		socket.WithStartupTimeout(300*time.Millisecond),
		socket.WithRetryInterval(25*time.Millisecond),
		socket.WithProcessChecker(s.procs),
	)
}

// serveOnce accepts a single connection on ln and closes it.
func serveOnce(ln net.Listener) {
	go func() {
		defer ln.Close()
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()
}

func (s *SocketTestSuite) TestDefaultPath() {
	s.Equal(filepath.Join(os.TempDir(), "ruleconfd.socket"), socket.DefaultPath())
}

func (s *SocketTestSuite) TestListenRestrictsPermissions() {
	ln, err := s.sock.Listen(s.path)
	s.Require().NoError(err)
	defer ln.Close()

	fi, err := os.Stat(s.path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), fi.Mode().Perm())

	shared := socket.New(socket.WithPermissions(0o660))
	other := s.path + ".shared"
	ln2, err := shared.Listen(other)
	s.Require().NoError(err)
	defer ln2.Close()

	fi, err = os.Stat(other)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o660), fi.Mode().Perm())
}

func (s *SocketTestSuite) TestListenCreatesParentDirectory() {
	nested := filepath.Join(filepath.Dir(s.path), "run", "ruleconfd", "d.sock")

	ln, err := s.sock.Listen(nested)
	s.Require().NoError(err)
	ln.Close()
}

func (s *SocketTestSuite) TestListenReplacesStaleSocket() {
	// A daemon that crashed leaves its socket file behind.
	s.Require().NoError(os.WriteFile(s.path, nil, 0o600))

	ln, err := s.sock.Listen(s.path)
	s.Require().NoError(err)
	ln.Close()
}

func (s *SocketTestSuite) TestListenRefusesLiveDaemon() {
	ln, err := s.sock.Listen(s.path)
	s.Require().NoError(err)
	defer ln.Close()

	_, err = s.sock.Listen(s.path)
	s.ErrorIs(err, socket.ErrAddressInUse)
}

func (s *SocketTestSuite) TestListenFailsWhenParentIsAFile() {
	blocker := filepath.Join(filepath.Dir(s.path), "blocker")
	s.Require().NoError(os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := s.sock.Listen(filepath.Join(blocker, "d.sock"))
	s.ErrorContains(err, "creating socket directory")
}

func (s *SocketTestSuite) TestConnectToRunningDaemon() {
	ln, err := s.sock.Listen(s.path)
	s.Require().NoError(err)
	serveOnce(ln)

	conn, err := s.sock.Connect(context.Background(), s.path)
	s.Require().NoError(err)
	conn.Close()
}

func (s *SocketTestSuite) TestConnectWithoutDaemonProcess() {
	s.procs.running = false

	conn, err := s.sock.Connect(context.Background(), s.path)

	s.Nil(conn)
	s.ErrorIs(err, socket.ErrNotRunning)
	s.Equal([]string{socket.DaemonName}, s.procs.queried)
}

func (s *SocketTestSuite) TestConnectGivesUpAfterStartupTimeout() {
	// The process exists but never binds its socket.
	start := time.Now()

	_, err := s.sock.Connect(context.Background(), s.path)

	s.ErrorIs(err, socket.ErrNotRunning)
	s.GreaterOrEqual(time.Since(start), 300*time.Millisecond)
	s.Greater(len(s.procs.queried), 1)
}

func (s *SocketTestSuite) TestConnectHonoursCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.sock.Connect(ctx, s.path)

	s.ErrorIs(err, context.Canceled)
}

func (s *SocketTestSuite) TestConnectWaitsForStartingDaemon() {
	go func() {
		time.Sleep(100 * time.Millisecond)
		if ln, err := s.sock.Listen(s.path); err == nil {
			serveOnce(ln)
		}
	}()

	start := time.Now()
	conn, err := s.sock.Connect(context.Background(), s.path)

	s.Require().NoError(err)
	conn.Close()
	s.GreaterOrEqual(time.Since(start), 100*time.Millisecond)
}

func TestSocketSuite(t *testing.T) {
	suite.Run(t, new(SocketTestSuite))
}
