package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// errServiceNotActive is sc's exit code for stopping a stopped service.
const errServiceNotActive = 1062

// service is one entry of `sc query`.
type service struct {
	Name    string
	Display string
}

// Services stops every Windows service whose name or display name
// mentions the app. OS services are left running.
func Services() Action {
	return Func{Label: "services", Fn: stopServices}
}

func stopServices(ctx context.Context, req Request) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}
	if !supported {
		return unsupported()
	}
	out, err := runCommand(ctx, "sc", "query", "type=", "service", "state=", "all")
	if err != nil {
		return failed(err)
	}

	var names []string
	var errs []error
	for _, svc := range parseServices(out) {
		if !matchesApp(svc.Name, req.App) && !matchesApp(svc.Display, req.App) {
			continue
		}
		if criticalTarget(svc.Name) || criticalTarget(svc.Display) {
			continue
		}
		if !req.DryRun {
			_, err := runCommand(ctx, "sc", "stop", svc.Name)
			if err != nil && exitCode(err) != errServiceNotActive {
				errs = append(errs, err)
				continue
			}
		}
		names = append(names, svc.Name)
	}

	if len(errs) > 0 {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d stopped", len(names)), Err: errors.Join(errs...)}
	}
	if len(names) == 0 {
		return notFound()
	}
	return would(req.DryRun, "stop", names)
}

// parseServices reads the SERVICE_NAME / DISPLAY_NAME pairs of `sc query`.
func parseServices(out string) []service {
	var services []service
	for _, line := range strings.Split(out, "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "SERVICE_NAME":
			services = append(services, service{Name: val})
		case "DISPLAY_NAME":
			if n := len(services); n > 0 {
				services[n-1].Display = val
			}
		}
	}
	return services
}
