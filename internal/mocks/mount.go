package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/lc/ruleconf/internal/mount"
	"github.com/lc/ruleconf/internal/resource"
)

var (
	_ mount.Opener     = (*MockOpener)(nil)
	_ mount.Handle     = (*MockHandle)(nil)
	_ resource.Mounter = (*MockMounter)(nil)
)

// MockOpener mocks mount.Opener.
type MockOpener struct {
	mock.Mock
}

// Open mocks the Open method.
func (m *MockOpener) Open(location string) (mount.Handle, error) {
	args := m.Called(location)
	var h mount.Handle
	if args.Get(0) != nil {
		h = args.Get(0).(mount.Handle)
	}
	return h, args.Error(1)
}

// MockHandle mocks mount.Handle.
type MockHandle struct {
	mock.Mock
}

// ReadFile mocks the ReadFile method.
func (m *MockHandle) ReadFile(name string) ([]byte, error) {
	args := m.Called(name)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Error(1)
}

// Close mocks the Close method.
func (m *MockHandle) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMounter mocks the mount table as seen by resource loaders.
type MockMounter struct {
	mock.Mock
}

// EnsureMounted mocks the EnsureMounted method.
func (m *MockMounter) EnsureMounted(location string) {
	m.Called(location)
}

// ReadFile mocks the ReadFile method.
func (m *MockMounter) ReadFile(location, name string) ([]byte, error) {
	args := m.Called(location, name)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.Error(1)
}
