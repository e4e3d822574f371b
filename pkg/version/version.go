// Package version carries build-time identity, injected via ldflags.
package version

// Version is vocdoc's release version.
var Version = "dev"

// GitHash is the Git hash of the vocdoc binary which is executing.
var GitHash = "<unknown>"

// String renders the full version line.
func String() string {
	return Version + " (" + GitHash + ")"
}
