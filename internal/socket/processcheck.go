package socket

import (
	"strings"

	"github.com/mitchellh/go-ps"
)

var _ ProcessChecker = PSChecker{}

// ProcessChecker reports whether a process with the given executable name
// prefix is running.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// PSChecker scans the process table.
type PSChecker struct{}

func (PSChecker) IsRunning(name string) bool {
	procs, err := ps.Processes()
	if err != nil {
		return false
	}
	for _, proc := range procs {
		if strings.HasPrefix(strings.ToLower(proc.Executable()), strings.ToLower(name)) {
			return true
		}
	}
	return false
}
