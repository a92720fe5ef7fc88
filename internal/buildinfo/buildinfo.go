// Package buildinfo holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/campusnav/campus-navigator-go/internal/buildinfo.Version=v1.2.0
package buildinfo

import "runtime/debug"

var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Release returns the version for error reports and /livez. It falls back
// to the module version recorded by the Go toolchain, then to "dev".
func Release() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
