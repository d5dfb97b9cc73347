//go:build windows

package actions

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// regKey is one registry key an application may leave behind.
type regKey struct {
	root registry.Key
	path string
}

func (k regKey) String() string {
	switch k.root {
	case registry.LOCAL_MACHINE:
		return `HKLM\` + k.path
	case registry.CURRENT_USER:
		return `HKCU\` + k.path
	}
	return k.path
}

// RegistryCleanup removes the application's settings keys.
func RegistryCleanup() Action {
	return keyCleanup("registry-cleanup", func(app string) []regKey {
		return []regKey{
			{registry.CURRENT_USER, `Software\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\` + app},
		}
	})
}

// Integration removes Explorer context-menu verbs registered by the app.
func Integration() Action {
	return keyCleanup("integration", func(app string) []regKey {
		return []regKey{
			{registry.CURRENT_USER, `Software\Classes\*\shell\` + app},
			{registry.CURRENT_USER, `Software\Classes\Directory\shell\` + app},
			{registry.CURRENT_USER, `Software\Classes\Directory\Background\shell\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\Classes\*\shell\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\Classes\Directory\shell\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\Classes\Directory\Background\shell\` + app},
		}
	})
}

// Policy removes group policy keys scoped to the app.
func Policy() Action {
	return keyCleanup("policy", func(app string) []regKey {
		return []regKey{
			{registry.CURRENT_USER, `Software\Policies\` + app},
			{registry.LOCAL_MACHINE, `SOFTWARE\Policies\` + app},
		}
	})
}

func keyCleanup(label string, keysFor func(app string) []regKey) Action {
	return Func{Label: label, Fn: func(ctx context.Context, req Request) Outcome {
		if o, ok := requireApp(req); !ok {
			return o
		}
		var names []string
		var errs []error
		for _, k := range keysFor(req.App) {
			if err := ctx.Err(); err != nil {
				return failed(err)
			}
			if !keyExists(k) {
				continue
			}
			if !req.DryRun {
				if err := deleteKeyTree(k.root, k.path); err != nil {
					errs = append(errs, fmt.Errorf("delete %s: %w", k, err))
					continue
				}
			}
			names = append(names, k.String())
		}
		if len(errs) > 0 {
			return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d removed", len(names)), Err: errors.Join(errs...)}
		}
		if len(names) == 0 {
			return notFound()
		}
		return would(req.DryRun, "remove", names)
	}}
}

func keyExists(k regKey) bool {
	key, err := registry.OpenKey(k.root, k.path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	key.Close()
	return true
}

// deleteKeyTree removes path and its subkeys; DeleteKey refuses keys
// that still have children.
func deleteKeyTree(root registry.Key, path string) error {
	key, err := registry.OpenKey(root, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return err
	}
	subkeys, err := key.ReadSubKeyNames(-1)
	key.Close()
	if err != nil {
		return err
	}
	for _, sub := range subkeys {
		if err := deleteKeyTree(root, path+`\`+sub); err != nil {
			return err
		}
	}
	return registry.DeleteKey(root, path)
}

// runKeys hold the per-user and machine autostart entries.
var runKeys = []regKey{
	{registry.CURRENT_USER, `Software\Microsoft\Windows\CurrentVersion\Run`},
	{registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Run`},
}

// Telemetry removes autostart entries that launch the app's agents and
// updaters at logon. Entries named after OS components stay.
func Telemetry() Action {
	return Func{Label: "telemetry", Fn: func(ctx context.Context, req Request) Outcome {
		if o, ok := requireApp(req); !ok {
			return o
		}
		var names []string
		var errs []error
		for _, k := range runKeys {
			if err := ctx.Err(); err != nil {
				return failed(err)
			}
			key, err := registry.OpenKey(k.root, k.path, registry.QUERY_VALUE|registry.SET_VALUE)
			if err != nil {
				continue
			}
			values, err := key.ReadValueNames(-1)
			if err != nil {
				key.Close()
				continue
			}
			for _, v := range values {
				if !matchesApp(v, req.App) || criticalTarget(v) {
					continue
				}
				if !req.DryRun {
					if err := key.DeleteValue(v); err != nil {
						errs = append(errs, fmt.Errorf("delete %s\\%s: %w", k, v, err))
						continue
					}
				}
				names = append(names, k.String()+`\`+v)
			}
			key.Close()
		}
		if len(errs) > 0 {
			return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d removed", len(names)), Err: errors.Join(errs...)}
		}
		if len(names) == 0 {
			return notFound()
		}
		return would(req.DryRun, "remove", names)
	}}
}
