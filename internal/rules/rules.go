// Package rules decides whether a filesystem entry may be reclaimed.
//
// Classification is a pure function of the entry path and an ordered rule
// table. The first matching rule governs; a path no rule matches is eligible.
package rules

import (
	"path/filepath"
	"strings"

	"github.com/IGLOU-EU/go-wildcard"
)

// Verdict is the outcome of classifying a single path.
type Verdict int

const (
	Eligible Verdict = iota
	Protected
)

func (v Verdict) String() string {
	if v == Protected {
		return "protected"
	}
	return "eligible"
}

// Scope selects which part of a path a rule inspects.
type Scope int

const (
	// ScopePathGlob matches the lower-cased full path against a wildcard pattern.
	ScopePathGlob Scope = iota
	// ScopePathExact matches the cleaned, lower-cased full path exactly.
	ScopePathExact
	// ScopeName matches when the lower-cased filename contains the pattern.
	ScopeName
	// ScopeExtension matches the lower-cased extension (without the dot) and
	// yields Eligible only when the full path carries a transient marker.
	ScopeExtension
)

func (s Scope) String() string {
	switch s {
	case ScopePathGlob:
		return "path-glob"
	case ScopePathExact:
		return "path-exact"
	case ScopeName:
		return "name"
	case ScopeExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Rule is one row of the rule table.
type Rule struct {
	ID        string
	Pattern   string
	Scope     Scope
	Rationale string
}

// Decision pairs a verdict with the rule that produced it. RuleID is empty
// when no rule matched and the default applied.
type Decision struct {
	Verdict Verdict
	RuleID  string
}

// RuleSet is an ordered, versioned rule table plus the transient path markers
// consulted by extension rules.
type RuleSet struct {
	Version string
	Rules   []Rule
	Markers []string
}

// ─── Evaluation ──────────────────────────────────────────────────────────────

// Classify returns the verdict for path under the rule set.
func (rs RuleSet) Classify(path string) Verdict {
	return rs.Decide(path).Verdict
}

// Decide classifies path and reports which rule decided it.
func (rs RuleSet) Decide(path string) Decision {
	lowerPath := strings.ToLower(path)
	name := strings.ToLower(baseName(path))
	ext := extension(name)

	for _, r := range rs.Rules {
		switch r.Scope {
		case ScopePathGlob:
			if wildcard.Match(r.Pattern, lowerPath) {
				return Decision{Verdict: Protected, RuleID: r.ID}
			}
		case ScopePathExact:
			if normalize(path) == r.Pattern {
				return Decision{Verdict: Protected, RuleID: r.ID}
			}
		case ScopeName:
			if strings.Contains(name, r.Pattern) {
				return Decision{Verdict: Protected, RuleID: r.ID}
			}
		case ScopeExtension:
			if ext == "" || ext != r.Pattern {
				continue
			}
			if rs.hasMarker(lowerPath) {
				return Decision{Verdict: Eligible, RuleID: r.ID}
			}
			return Decision{Verdict: Protected, RuleID: r.ID}
		}
	}

	return Decision{Verdict: Eligible}
}

func (rs RuleSet) hasMarker(lowerPath string) bool {
	for _, m := range rs.Markers {
		if strings.Contains(lowerPath, m) {
			return true
		}
	}
	return false
}

// ─── Extension ───────────────────────────────────────────────────────────────

// WithExclusions returns a copy of rs whose first rules protect every path
// matching one of the wildcard patterns. Patterns are matched case-insensitively.
func (rs RuleSet) WithExclusions(patterns []string) RuleSet {
	var extra []Rule
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		extra = append(extra, Rule{
			ID:        "exclude:" + p,
			Pattern:   strings.ToLower(p),
			Scope:     ScopePathGlob,
			Rationale: "user exclusion",
		})
	}
	return rs.prepend(extra)
}

// WithNeverDelete returns a copy of rs that protects each of the given paths
// themselves (not their contents).
func (rs RuleSet) WithNeverDelete(paths []string) RuleSet {
	var extra []Rule
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		extra = append(extra, Rule{
			ID:        "never-delete:" + p,
			Pattern:   normalize(p),
			Scope:     ScopePathExact,
			Rationale: "operating system root",
		})
	}
	return rs.prepend(extra)
}

func (rs RuleSet) prepend(extra []Rule) RuleSet {
	if len(extra) == 0 {
		return rs
	}
	out := RuleSet{
		Version: rs.Version,
		Rules:   make([]Rule, 0, len(extra)+len(rs.Rules)),
		Markers: append([]string(nil), rs.Markers...),
	}
	out.Rules = append(out.Rules, extra...)
	out.Rules = append(out.Rules, rs.Rules...)
	return out
}

// ─── Path helpers ────────────────────────────────────────────────────────────

// baseName returns the last element of path, treating both '/' and '\' as
// separators so Windows paths classify the same on every host.
func baseName(path string) string {
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// extension returns the text after the final dot of name, or "" for names
// without one and for dot-files such as ".gitignore".
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

func normalize(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.ToLower(strings.TrimRight(p, "/"))
}
