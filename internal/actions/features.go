package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// errRebootRequired is DISM's exit code for a change pending a restart.
const errRebootRequired = 3010

// Features disables enabled optional Windows features whose name
// mentions the app.
func Features() Action {
	return Func{Label: "features", Fn: disableFeatures}
}

func disableFeatures(ctx context.Context, req Request) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}
	if !supported {
		return unsupported()
	}
	out, err := runCommand(ctx, "dism", "/English", "/Online", "/Get-Features", "/Format:Table")
	if err != nil {
		return failed(err)
	}

	var names []string
	var errs []error
	for _, feature := range parseEnabledFeatures(out) {
		if !matchesApp(feature, req.App) {
			continue
		}
		if !req.DryRun {
			_, err := runCommand(ctx, "dism", "/Online", "/Disable-Feature", "/FeatureName:"+feature, "/NoRestart", "/Quiet")
			if err != nil && exitCode(err) != errRebootRequired {
				errs = append(errs, err)
				continue
			}
		}
		names = append(names, feature)
	}

	if len(errs) > 0 {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d disabled", len(names)), Err: errors.Join(errs...)}
	}
	if len(names) == 0 {
		return notFound()
	}
	return would(req.DryRun, "disable", names)
}

// parseEnabledFeatures reads the "Name | State" rows of a DISM table.
func parseEnabledFeatures(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		name, state, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(state), "Enabled") {
			names = append(names, strings.TrimSpace(name))
		}
	}
	return names
}
