//go:build !windows

package actions

import "context"

func registryOnly(label string) Action {
	return Func{Label: label, Fn: func(_ context.Context, req Request) Outcome {
		if o, ok := requireApp(req); !ok {
			return o
		}
		return unsupported()
	}}
}

// RegistryCleanup removes the application's settings keys.
func RegistryCleanup() Action { return registryOnly("registry-cleanup") }

// Integration removes Explorer context-menu verbs registered by the app.
func Integration() Action { return registryOnly("integration") }

// Policy removes group policy keys scoped to the app.
func Policy() Action { return registryOnly("policy") }

// Telemetry removes autostart entries that launch the app's agents.
func Telemetry() Action { return registryOnly("telemetry") }
