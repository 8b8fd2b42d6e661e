// Package buildinfo holds the version metadata printed by "nodupe version".
//
// Release builds inject it through the linker into cmd/nodupe, which hands
// it over with Set. Binaries built with "go install" or "go build" carry no
// injected values, so Enrich reads what the Go toolchain embedded instead:
// the module version and the VCS stamp.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const (
	unsetVersion = "dev"
	unsetCommit  = "none"
	unsetValue   = "unknown"
)

var (
	version = unsetVersion
	commit  = unsetCommit
	date    = unsetValue
	builtBy = unsetValue
)

// Set stores the build metadata received from linker-injected variables.
func Set(v, c, d, b string) {
	version = v
	commit = c
	date = d
	builtBy = b
}

// Version returns the build version string.
func Version() string { return version }

// Commit returns the build commit hash.
func Commit() string { return commit }

// Date returns the build date string.
func Date() string { return date }

// BuiltBy returns the build agent string.
func BuiltBy() string { return builtBy }

// String renders the metadata the way the version command prints it.
func String() string {
	return fmt.Sprintf("nodupe version %s\ncommit: %s\nbuilt at: %s\nbuilt by: %s\n",
		version, commit, date, builtBy)
}

// Enrich fills the values still unset from the build information embedded
// in the running binary. Injected values are kept.
func Enrich() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	enrichFrom(info)
}

func enrichFrom(info *debug.BuildInfo) {
	// "(devel)" is what the toolchain reports for a build from a checkout.
	if version == unsetVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}

	var revision, modified, stamped string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			stamped = setting.Value
		}
	}
	if commit == unsetCommit && revision != "" {
		commit = revision
		if modified == "true" {
			commit += "-dirty"
		}
	}
	if date == unsetValue && stamped != "" {
		date = stamped
	}
	if builtBy == unsetValue && info.GoVersion != "" {
		builtBy = info.GoVersion
	}
}
