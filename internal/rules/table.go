package rules

import "strings"

// TableVersion identifies the built-in rule table. Bump it whenever a rule is
// added, removed or reordered so run logs can be audited against it.
const TableVersion = "2026.10.1"

// protectedNames are filename substrings denoting core operating-system
// components. Matching over-protects on purpose.
var protectedNames = []struct {
	pattern   string
	rationale string
}{
	{"ntoskrnl", "kernel image"},
	{"hal.dll", "hardware abstraction layer"},
	{"win32k", "kernel-mode window manager"},
	{"ntdll", "native API layer"},
	{"kernel32", "core user-mode API"},
	{"winlogon", "logon process"},
	{"csrss", "client/server runtime"},
	{"smss", "session manager"},
	{"services", "service control manager"},
	{"lsass", "local security authority"},
	{"bootmgr", "boot manager"},
	{"boot", "boot loader artifact"},
	{"driver", "device driver"},
	{"security", "security component"},
	{"windowsupdate", "update artifact"},
	{"wuau", "update agent"},
	{"wusa", "update installer"},
	{"patch", "patch artifact"},
	{"hotfix", "hotfix artifact"},
	{"system", "operating system identifier"},
	{"windows", "operating system identifier"},
	{"microsoft", "vendor identifier"},
}

// gatedExtensions are execution, driver and installer extensions that may only
// be reclaimed from transient locations.
var gatedExtensions = []string{"sys", "exe", "dll", "inf", "cat"}

// transientMarkers flag a path as a temp, cache or prefetch location.
var transientMarkers = []string{"temp", "cache", "prefetch"}

// Default returns the built-in rule table: the name blacklist first, then the
// extension gate.
func Default() RuleSet {
	rs := RuleSet{
		Version: TableVersion,
		Markers: append([]string(nil), transientMarkers...),
	}
	for _, p := range protectedNames {
		rs.Rules = append(rs.Rules, Rule{
			ID:        "name:" + p.pattern,
			Pattern:   p.pattern,
			Scope:     ScopeName,
			Rationale: p.rationale,
		})
	}
	for _, ext := range gatedExtensions {
		rs.Rules = append(rs.Rules, Rule{
			ID:        "ext:" + ext,
			Pattern:   ext,
			Scope:     ScopeExtension,
			Rationale: "executable content outside a transient location",
		})
	}
	return rs
}

// IsProtectedName reports whether name contains one of the blacklisted
// component names, case-insensitively. OS-integration steps use it to
// refuse targets the file rules would protect.
func IsProtectedName(name string) bool {
	name = strings.ToLower(name)
	for _, p := range protectedNames {
		if strings.Contains(name, p.pattern) {
			return true
		}
	}
	return false
}
