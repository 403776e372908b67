// Package buildinfo carries the version and commit of a ruleconf build.
package buildinfo

// Version is set at link-time with -ldflags.
var Version = "v0.3.0"

// Commit is set at link-time with -ldflags.
// Default is "unknown" so tests and "go run ." still work.
var Commit = "unknown"

// String renders version and commit on one line.
func String() string {
	return Version + " (" + Commit + ")"
}
