// Package platform reports facts about the host the run is on.
package platform

import (
	"fmt"
	"runtime"
)

// IsWindows reports whether the OS-integration actions can do real work.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// windowsName returns a human-readable Windows version string.
// Examples: "Windows 10 (Build 19045)", "Windows 11 (Build 22621)"
func windowsName(major, minor, build uint32) string {
	var name string
	switch {
	case major == 10 && build >= 22000:
		name = "Windows 11"
	case major == 10:
		name = "Windows 10"
	case major == 6 && minor == 3:
		name = "Windows 8.1"
	case major == 6 && minor == 2:
		name = "Windows 8"
	case major == 6 && minor == 1:
		name = "Windows 7"
	default:
		name = fmt.Sprintf("Windows %d.%d", major, minor)
	}
	return fmt.Sprintf("%s (Build %d)", name, build)
}
