//go:build windows

package platform

import "golang.org/x/sys/windows"

// Version describes the running Windows release. RtlGetNtVersionNumbers
// works without a compatibility manifest.
func Version() string {
	major, minor, build := windows.RtlGetNtVersionNumbers()
	// The build number carries flag bits above the low word.
	return windowsName(major, minor, build&0xFFFF)
}

// Elevated reports whether the process token is elevated. System
// locations such as the Windows temp directory need it.
func Elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
