//go:build windows

package scan

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// isReparsePoint reports whether path is a junction or symlink
// (FILE_ATTRIBUTE_REPARSE_POINT). Entering one risks endless recursion.
func isReparsePoint(path string) bool {
	pathp, err := windows.UTF16PtrFromString(LongPath(path))
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(pathp)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0
}

// LongPath adds the \\?\ prefix to paths exceeding MAX_PATH.
func LongPath(path string) string {
	if len(path) >= windows.MAX_PATH && !strings.HasPrefix(path, `\\?\`) {
		return `\\?\` + filepath.Clean(path)
	}
	return path
}
