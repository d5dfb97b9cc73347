package actions

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Winget looks the application up in the winget package list.
func Winget() Action {
	return Func{Label: "winget", Fn: wingetLookup}
}

func wingetLookup(ctx context.Context, req Request) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}
	if !supported {
		return unsupported()
	}
	out, err := runCommand(ctx, "winget", "list", "--accept-source-agreements", "--disable-interactivity")
	if errors.Is(err, exec.ErrNotFound) {
		return skipped("winget is not installed")
	}
	// winget exits non-zero when the list is empty; the output still decides.
	if err != nil && exitCode(err) < 0 {
		return failed(err)
	}
	if line, ok := firstMatch(out, req.App); ok {
		return found("%s", line)
	}
	return notFound()
}

// firstMatch returns the first non-blank line of text mentioning app.
func firstMatch(text, app string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && matchesApp(line, app) {
			return strings.Join(strings.Fields(line), " "), true
		}
	}
	return "", false
}

// Lookups returns the read-only discovery actions in the order they run.
func Lookups() []Action {
	return []Action{Winget(), Registry(), InstallerDB()}
}
