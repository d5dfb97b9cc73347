//go:build !windows

package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Version describes the host OS.
func Version() string {
	platform, _, version, err := host.PlatformInformation()
	if err != nil || platform == "" {
		return runtime.GOOS
	}
	return strings.TrimSpace(platform + " " + version)
}

// Elevated reports whether the process runs as root.
func Elevated() bool {
	return os.Geteuid() == 0
}
