// Package version reports build information for nodefields binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const shortRevisionLength = 7

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = getRevision(debug.ReadBuildInfo)
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns [Version] when set at build time, otherwise the VCS
// revision.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// String returns a one-line summary of the build.
func String() string {
	return fmt.Sprintf("%s (revision %s, %s %s/%s)", GetVersion(), Revision, GoVersion, GoOS, GoArch)
}

func getRevision(readBuildInfo func() (*debug.BuildInfo, bool)) string {
	rev := "unknown"

	buildInfo, ok := readBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value
			if len(rev) > shortRevisionLength {
				rev = rev[:shortRevisionLength]
			}

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
