// Package version exposes the build version of the gateway binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is overridable via ldflags at build time.
var Version = "dev"

// Info returns the version string, annotated with the VCS revision when the
// binary was built from a git checkout.
func Info() string {
	rev := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				rev = setting.Value
			}
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, rev)
}
