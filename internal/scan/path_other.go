//go:build !windows

package scan

// WalkDir already reports symlinks without following them.
func isReparsePoint(string) bool { return false }

// LongPath returns path unchanged.
func LongPath(path string) string { return path }
