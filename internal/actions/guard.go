package actions

import (
	"path/filepath"
	"strings"

	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
)

// minAppLen is the shortest application name the targeted steps accept.
const minAppLen = 3

// criticalProcesses are images whose loss takes down the session or the
// machine. Names are lower-case without the .exe suffix.
var criticalProcesses = map[string]bool{
	"system":                  true,
	"registry":                true,
	"smss":                    true,
	"csrss":                   true,
	"wininit":                 true,
	"winlogon":                true,
	"services":                true,
	"lsass":                   true,
	"lsaiso":                  true,
	"svchost":                 true,
	"explorer":                true,
	"dwm":                     true,
	"fontdrvhost":             true,
	"sihost":                  true,
	"spoolsv":                 true,
	"conhost":                 true,
	"taskhostw":               true,
	"memory compression":      true,
	"secure system":           true,
	"runtimebroker":           true,
	"startmenuexperiencehost": true,
}

// sharedKeys are registry key names that hold many vendors or the OS
// itself. A target naming one would resolve to the shared key.
var sharedKeys = map[string]bool{
	"software":               true,
	"wow6432node":            true,
	"classes":                true,
	"policies":               true,
	"clients":                true,
	"registeredapplications": true,
	"microsoft":              true,
	"windows":                true,
	"system":                 true,
	"shell":                  true,
	"directory":              true,
	"background":             true,
}

// criticalTarget reports whether name, a process, service or autostart
// value, belongs to the operating system and must be left alone.
func criticalTarget(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if criticalProcesses[strings.TrimSuffix(lower, filepath.Ext(lower))] || criticalProcesses[lower] {
		return true
	}
	return rules.IsProtectedName(lower)
}
