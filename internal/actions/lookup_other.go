//go:build !windows

package actions

import "context"

// Registry looks for an uninstall entry. Only Windows has one.
func Registry() Action {
	return Func{Label: "registry", Fn: func(context.Context, Request) Outcome { return unsupported() }}
}

// InstallerDB queries the Windows Installer database. Only Windows has one.
func InstallerDB() Action {
	return Func{Label: "installer-db", Fn: func(context.Context, Request) Outcome { return unsupported() }}
}
