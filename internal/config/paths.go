package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SafeLocation is a root directory cleaned with an age gate.
type SafeLocation struct {
	// Path may contain %VAR% or $VAR references; see Resolve.
	Path string `yaml:"path"`

	// Description labels the location in progress and log output.
	Description string `yaml:"description"`

	// MinAgeDays is the minimum age, by last-modified time, an entry must
	// reach before it may be removed.
	MinAgeDays int `yaml:"min_age_days"`
}

var windowsVar = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)

// expand resolves environment variables in a path, supporting both
// Windows %VAR% and Unix $VAR / ${VAR} syntax. Unset variables expand to
// the empty string.
func expand(path string) string {
	path = windowsVar.ReplaceAllStringFunc(path, func(m string) string {
		return os.Getenv(m[1 : len(m)-1])
	})
	if strings.Contains(path, "$") {
		path = os.ExpandEnv(path)
	}
	return path
}

// ─── Environment resolvers ───────────────────────────────────────────────────

// userProfile returns the user profile directory.
func userProfile() string {
	if p := os.Getenv("USERPROFILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return home
}

// localAppData returns the local app data directory.
func localAppData() string {
	return os.Getenv("LOCALAPPDATA")
}

// appData returns the roaming app data directory.
func appData() string {
	return os.Getenv("APPDATA")
}

// winDir returns the Windows directory (e.g., C:\Windows).
// Falls back to C:\Windows only if %WINDIR% is not set.
func winDir() string {
	if w := os.Getenv("WINDIR"); w != "" {
		return w
	}
	return `C:\Windows`
}

// programData returns the ProgramData directory (e.g., C:\ProgramData).
func programData() string {
	if p := os.Getenv("PROGRAMDATA"); p != "" {
		return p
	}
	return `C:\ProgramData`
}

// systemDrive returns the system drive letter with backslash (e.g., C:\).
func systemDrive() string {
	if d := os.Getenv("SYSTEMDRIVE"); d != "" {
		return d + `\`
	}
	return `C:\`
}

func programFiles() string {
	if p := os.Getenv("PROGRAMFILES"); p != "" {
		return p
	}
	return `C:\Program Files`
}

func programFilesX86() string {
	if p := os.Getenv("PROGRAMFILES(X86)"); p != "" {
		return p
	}
	return `C:\Program Files (x86)`
}

// ─── Location tables ─────────────────────────────────────────────────────────

// DefaultSafeLocations returns the built-in age-gated cleanup roots.
// TEMP and TMP come straight from the environment and are dropped by
// Resolve when unset.
func DefaultSafeLocations() []SafeLocation {
	w := winDir()
	return []SafeLocation{
		{Path: os.Getenv("TEMP"), Description: "User temp directory", MinAgeDays: 0},
		{Path: os.Getenv("TMP"), Description: "User tmp directory", MinAgeDays: 0},
		{Path: filepath.Join(w, "Temp"), Description: "Windows temp directory", MinAgeDays: 1},
		{Path: filepath.Join(w, "Prefetch"), Description: "Prefetch files", MinAgeDays: 30},
		{Path: filepath.Join(w, "SoftwareDistribution", "Download"), Description: "Windows Update downloads", MinAgeDays: 1},
		{Path: filepath.Join(programData(), "Package Cache"), Description: "Installer package cache", MinAgeDays: 7},
	}
}

// DefaultInstallRoots returns the roots searched by name in targeted mode.
func DefaultInstallRoots() []string {
	return []string{
		programFiles(),
		programFilesX86(),
		programData(),
		appData(),
		localAppData(),
	}
}

// DefaultShortcutDirs returns the Start Menu and desktop folders searched
// for application shortcuts.
func DefaultShortcutDirs() []string {
	public := os.Getenv("PUBLIC")
	if public == "" {
		public = filepath.Join(systemDrive(), "Users", "Public")
	}
	startMenu := filepath.Join("Microsoft", "Windows", "Start Menu", "Programs")
	return ResolveRoots([]string{
		under(appData(), startMenu),
		under(programData(), startMenu),
		under(userProfile(), "Desktop"),
		under(public, "Desktop"),
	})
}

// under joins base and rel, or returns "" when base is unset so the
// result is dropped rather than resolved against the working directory.
func under(base, rel string) string {
	if base == "" {
		return ""
	}
	return filepath.Join(base, rel)
}

// Resolve expands environment references, drops locations whose path is
// empty and keeps only the first of locations resolving to the same
// directory (compared case-insensitively).
func Resolve(locations []SafeLocation) []SafeLocation {
	seen := make(map[string]bool, len(locations))
	out := make([]SafeLocation, 0, len(locations))
	for _, loc := range locations {
		loc.Path = strings.TrimSpace(expand(loc.Path))
		if loc.Path == "" {
			continue
		}
		loc.Path = filepath.Clean(loc.Path)
		key := pathKey(loc.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, loc)
	}
	return out
}

// ResolveRoots applies the Resolve rules to plain paths.
func ResolveRoots(paths []string) []string {
	locs := make([]SafeLocation, len(paths))
	for i, p := range paths {
		locs[i] = SafeLocation{Path: p}
	}
	var out []string
	for _, loc := range Resolve(locs) {
		out = append(out, loc.Path)
	}
	return out
}

func pathKey(path string) string {
	return strings.ToLower(strings.TrimRight(strings.ReplaceAll(path, `\`, "/"), "/"))
}

// GetNeverDeletePaths returns paths that must NEVER be deleted under any
// circumstances. This list uses environment variables to support Windows
// installations on any drive letter (not just C:).
func GetNeverDeletePaths() []string {
	w := winDir()
	sd := systemDrive()
	return []string{
		w,
		filepath.Join(w, "System32"),
		filepath.Join(w, "SysWOW64"),
		filepath.Join(w, "WinSxS"),
		filepath.Join(w, "assembly"),
		filepath.Join(w, "System32", "config"),
		filepath.Join(sd, "Boot"),
		filepath.Join(sd, "bootmgr"),
		filepath.Join(sd, "EFI"),
		programFiles(),
		programFilesX86(),
		filepath.Join(sd, "Users"),
		userProfile(),
		programData(),
		filepath.Join(sd, "Recovery"),
		filepath.Join(w, "Installer"),
		filepath.Join(w, "servicing"),
		filepath.Join(w, "Prefetch"),
	}
}
