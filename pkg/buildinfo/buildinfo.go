package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// BinaryVersion is set at build time via -ldflags. Defaults to "dev".
var BinaryVersion = "dev"

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Summary is the one-line banner printed by `cachebust version --extended`.
func Summary() string {
	mod := ModuleVersion()
	if mod == "" {
		mod = "unknown"
	}
	return fmt.Sprintf("cachebust %s (module %s, %s, %s/%s)", BinaryVersion, mod, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
